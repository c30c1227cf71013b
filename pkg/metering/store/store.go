package store

import (
	"sync"

	"datacap-hq/datacap/pkg/metering/account"
)

// Store is a concurrency-safe holder of one account.
//
// Any number of Snapshot calls may proceed together; Mutate takes the
// exclusive lock and blocks readers and other writers for the duration of
// the mutation function. Mutation functions must be fast, in-memory only,
// and free of I/O.
type Store struct {
	mu   sync.RWMutex
	acct account.Account
}

// New creates a store seeded with the given account.
func New(acct account.Account) *Store {
	return &Store{acct: acct.Clone()}
}

// Snapshot returns a deep copy of the current account. The copy is safe to
// pass across goroutines without further locking.
func (s *Store) Snapshot() account.Account {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.acct.Clone()
}

// Mutate applies fn to a working copy of the account under the exclusive
// lock. If fn returns nil the working copy replaces the stored account and
// a snapshot of the committed state is returned; if fn returns an error the
// store is left unchanged and the error is returned as-is.
func (s *Store) Mutate(fn func(acct *account.Account) error) (account.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.acct.Clone()
	if err := fn(&next); err != nil {
		return account.Account{}, err
	}

	s.acct = next
	return next.Clone(), nil
}

// Locked reports whether the account's lock flag is currently set.
// Convenience for pre-checks that do not need a full snapshot.
func (s *Store) Locked() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.acct.Locked
}
