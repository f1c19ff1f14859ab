package entitlements

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/sirupsen/logrus"
)

// Backend persists whole snapshots. Implementations: storage/file, storage/memory, storage/redis.
type Backend interface {
	Load(ctx context.Context) ([]Record, error)
	Save(ctx context.Context, records []Record) error
}

// KeyedBackend is a Backend with a native unique index on (user_id, game_pass)
// and a secondary index on username. The Store delegates upserts and lookups to
// it instead of scanning snapshots. Implementations: storage/postgres, storage/sqlite.
type KeyedBackend interface {
	Backend
	UpsertRecord(ctx context.Context, rec Record, updateOnDuplicate bool) (Result, error)
	FindByUsername(ctx context.Context, username string) (Record, bool, error)
}

// Pinger is implemented by backends that can report connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Store is the entitlement allow-list. Reads fail open and writes are best-effort.
type Store struct {
	backend           Backend
	log               logrus.FieldLogger
	updateOnDuplicate bool
	serialize         bool

	mu sync.Mutex
}

type Option func(*Store)

// WithUpdateOnDuplicate makes Upsert rewrite the stored username of an existing
// (userId, gamePass) record. Default false: the first registration wins.
func WithUpdateOnDuplicate(v bool) Option { return func(s *Store) { s.updateOnDuplicate = v } }

// WithSerializedUpserts guards the load and save in Upsert with a mutex. Default true.
// Disabling it reproduces the lost-update race between concurrent upserts.
func WithSerializedUpserts(v bool) Option { return func(s *Store) { s.serialize = v } }

// WithLogger sets the logger used for read/write failures.
func WithLogger(l logrus.FieldLogger) Option {
	return func(s *Store) {
		if l != nil {
			s.log = l
		}
	}
}

func NewStore(b Backend, opts ...Option) *Store {
	s := &Store{backend: b, log: logrus.StandardLogger(), serialize: true}
	for _, o := range opts {
		o(s)
	}
	s.log = s.log.WithField("component", "entitlements")
	return s
}

// UpdateOnDuplicate reports the configured duplicate policy.
func (s *Store) UpdateOnDuplicate() bool { return s.updateOnDuplicate }

// Load returns the persisted snapshot, or an empty one when it cannot be read.
func (s *Store) Load(ctx context.Context) []Record {
	recs, err := s.backend.Load(ctx)
	if err != nil {
		s.log.WithError(fmt.Errorf("%w: %w", ErrStoreRead, err)).Error("entitlement snapshot unreadable, treating as empty")
		return []Record{}
	}
	if recs == nil {
		recs = []Record{}
	}
	return recs
}

// Save overwrites the persisted snapshot. Failures are logged and swallowed.
func (s *Store) Save(ctx context.Context, records []Record) {
	if err := s.backend.Save(ctx, records); err != nil {
		s.log.WithError(fmt.Errorf("%w: %w", ErrStoreWrite, err)).
			WithField("records", len(records)).
			Error("entitlement snapshot not persisted")
	}
}

// Upsert records a purchase. A new record is appended only when no record with
// the same (userID, gamePass) exists; the snapshot is written only when it changed.
func (s *Store) Upsert(ctx context.Context, userID, username, gamePass string) Result {
	rec := Record{UserID: userID, Username: username, GamePass: gamePass}

	if kb, ok := s.backend.(KeyedBackend); ok {
		res, err := kb.UpsertRecord(ctx, rec, s.updateOnDuplicate)
		if err != nil {
			s.log.WithError(fmt.Errorf("%w: %w", ErrStoreWrite, err)).
				WithFields(logrus.Fields{"user_id": userID, "game_pass": gamePass}).
				Error("entitlement upsert not persisted")
			return Result{Record: rec}
		}
		return res
	}

	if s.serialize {
		s.mu.Lock()
		defer s.mu.Unlock()
	}

	recs := s.Load(ctx)
	i := indexOf(recs, rec.Key())
	if i < 0 {
		recs = append(recs, rec)
		s.Save(ctx, recs)
		return Result{Created: true, Record: rec}
	}
	if s.updateOnDuplicate && recs[i].Username != username {
		recs[i].Username = username
		s.Save(ctx, recs)
		return Result{Updated: true, Record: recs[i]}
	}
	return Result{Record: recs[i]}
}

// FindByUsername looks a record up by its username. This is deliberately a
// different key from the (userId, gamePass) uniqueness key used by Upsert:
// the chat side only knows the game username.
func (s *Store) FindByUsername(ctx context.Context, username string) (Record, bool) {
	if kb, ok := s.backend.(KeyedBackend); ok {
		rec, found, err := kb.FindByUsername(ctx, username)
		if err != nil {
			s.log.WithError(fmt.Errorf("%w: %w", ErrStoreRead, err)).Error("entitlement lookup failed, treating as absent")
			return Record{}, false
		}
		return rec, found
	}
	for _, r := range s.Load(ctx) {
		if r.Username == username {
			return r, true
		}
	}
	return Record{}, false
}

// Count returns the number of stored records.
func (s *Store) Count(ctx context.Context) int { return len(s.Load(ctx)) }

// Ping checks backend connectivity when the backend supports it.
func (s *Store) Ping(ctx context.Context) error {
	if p, ok := s.backend.(Pinger); ok {
		return p.Ping(ctx)
	}
	return nil
}

// Close releases the backend when it holds resources.
func (s *Store) Close() error {
	if c, ok := s.backend.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

func indexOf(recs []Record, k Key) int {
	for i, r := range recs {
		if r.Key() == k {
			return i
		}
	}
	return -1
}
