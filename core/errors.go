package core

import "errors"

// Terminal states of a role grant. Only ErrMemberFetch and ErrRoleMutation are
// failures; the rest are ordinary answers to the user.
var (
	ErrNotVerified  = errors.New("member lacks the verified role")
	ErrNotLinked    = errors.New("display name carries no linked game username")
	ErrNotEntitled  = errors.New("no entitlement recorded for game username")
	ErrRateLimited  = errors.New("role grant rate limited")
	ErrMemberFetch  = errors.New("fetch member failed")
	ErrRoleMutation = errors.New("add role failed")
)
