package entitlements

import "errors"

var (
	// ErrStoreRead wraps failures loading the persisted snapshot. The store treats
	// them as an empty snapshot and never returns them to callers.
	ErrStoreRead = errors.New("entitlement store read failed")
	// ErrStoreWrite wraps failures persisting the snapshot. Logged only; the
	// caller's in-memory view is not rolled back.
	ErrStoreWrite = errors.New("entitlement store write failed")
)
