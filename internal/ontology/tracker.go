package ontology

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

type trackerKey struct {
	userID  uuid.UUID
	topicID uuid.UUID
}

// Tracker exposes in-flight generation state so callers can tell a
// learner that new topics are on the way, and wait for completion.
type Tracker struct {
	mu       sync.Mutex
	inFlight map[trackerKey]chan struct{}
}

// NewTracker returns an empty Tracker.
func NewTracker() *Tracker {
	return &Tracker{inFlight: make(map[trackerKey]chan struct{})}
}

// Begin marks a generation as in flight and returns the function that
// ends it. Calling done closes the completion channel exactly once.
func (t *Tracker) Begin(userID, topicID uuid.UUID) (done func()) {
	key := trackerKey{userID, topicID}
	ch := make(chan struct{})

	t.mu.Lock()
	t.inFlight[key] = ch
	t.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			t.mu.Lock()
			delete(t.inFlight, key)
			t.mu.Unlock()
			close(ch)
		})
	}
}

// InFlight reports whether a generation is running for the pair.
func (t *Tracker) InFlight(userID, topicID uuid.UUID) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.inFlight[trackerKey{userID, topicID}]
	return ok
}

// Done returns a channel that closes when the pair's generation
// finishes. If none is running, the returned channel is already
// closed.
func (t *Tracker) Done(userID, topicID uuid.UUID) <-chan struct{} {
	t.mu.Lock()
	defer t.mu.Unlock()
	if ch, ok := t.inFlight[trackerKey{userID, topicID}]; ok {
		return ch
	}
	closed := make(chan struct{})
	close(closed)
	return closed
}

// Wait blocks until every generation in flight for the user has
// finished, so reads of unlock state never race a pending expansion.
// Generations started after Wait begins are not waited on.
func (t *Tracker) Wait(ctx context.Context, userID uuid.UUID) error {
	t.mu.Lock()
	pending := make([]<-chan struct{}, 0, len(t.inFlight))
	for key, ch := range t.inFlight {
		if key.userID == userID {
			pending = append(pending, ch)
		}
	}
	t.mu.Unlock()

	for _, ch := range pending {
		select {
		case <-ch:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}
