package cart

import (
	"sync"

	"github.com/sirupsen/logrus"
)

// Registry owns one Store per browser session. Stores are created empty on
// first use and dropped when the session ends, giving the cart an explicit
// lifecycle instead of ambient global state.
type Registry struct {
	syncer Syncer
	log    logrus.FieldLogger

	mu     sync.Mutex
	stores map[string]*Store
}

// NewRegistry returns a Registry whose stores synchronize through syncer.
func NewRegistry(syncer Syncer, log logrus.FieldLogger) *Registry {
	return &Registry{syncer: syncer, log: log, stores: make(map[string]*Store)}
}

// ForSession returns the session's Store, creating it if the session is new.
// token is consulted on every mutation, so sign-in mid-session is picked up
// without recreating the store.
func (r *Registry) ForSession(sessionID string, token TokenSource) *Store {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.stores[sessionID]; ok {
		s.SetTokenSource(token)
		return s
	}
	s := NewStore(r.syncer, token, r.log.WithField("session", sessionID))
	r.stores[sessionID] = s
	return s
}

// EndSession discards the session's Store.
func (r *Registry) EndSession(sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.stores, sessionID)
}
