package quiz

import (
	"sync"

	"github.com/google/uuid"
)

// sessionLocks serializes operations on a single session. Two requests
// for the same session never interleave; requests for different
// sessions run freely.
type sessionLocks struct {
	mu    sync.Mutex
	locks map[uuid.UUID]*sessionLock
}

type sessionLock struct {
	mu   sync.Mutex
	refs int
}

func newSessionLocks() *sessionLocks {
	return &sessionLocks{locks: make(map[uuid.UUID]*sessionLock)}
}

// acquire blocks until the session's lock is held and returns the
// release function. Entries are reference counted so ended sessions
// leave no residue in the registry.
func (s *sessionLocks) acquire(id uuid.UUID) (release func()) {
	s.mu.Lock()
	l, ok := s.locks[id]
	if !ok {
		l = &sessionLock{}
		s.locks[id] = l
	}
	l.refs++
	s.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		s.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(s.locks, id)
		}
		s.mu.Unlock()
	}
}
