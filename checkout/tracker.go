package checkout

import (
	"sync"
	"time"
)

// Tracker holds attempts that are awaiting the provider's callback, keyed
// by provider order id. The widget runs in the buyer's browser, so the
// payment page request and the callback request are separate round-trips.
// Stale attempts are dropped after an hour; an attempt the provider never
// calls back for was abandoned.
type Tracker struct {
	mu       sync.Mutex
	attempts map[string]trackedAttempt
}

type trackedAttempt struct {
	attempt *Attempt
	session string
	added   time.Time
}

const trackerTTL = time.Hour

// NewTracker returns an empty Tracker.
func NewTracker() *Tracker {
	return &Tracker{attempts: make(map[string]trackedAttempt)}
}

// Put registers an attempt under its provider order id for the session.
func (t *Tracker) Put(sessionID string, a *Attempt) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.expireLocked()
	t.attempts[a.Order.ID] = trackedAttempt{attempt: a, session: sessionID, added: time.Now()}
}

// Take removes and returns the attempt for the provider order id, if it
// belongs to the session. The second return is false for unknown orders and
// for orders of other sessions.
func (t *Tracker) Take(sessionID, orderID string) (*Attempt, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	ta, ok := t.attempts[orderID]
	if !ok || ta.session != sessionID {
		return nil, false
	}
	delete(t.attempts, orderID)
	return ta.attempt, true
}

func (t *Tracker) expireLocked() {
	cutoff := time.Now().Add(-trackerTTL)
	for id, ta := range t.attempts {
		if ta.added.Before(cutoff) {
			delete(t.attempts, id)
		}
	}
}
