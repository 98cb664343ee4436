package services

import (
	"sync"
	"time"
)

// revokedSessions remembers sessions logged out through this process until
// their tokens expire. It is checked before the shared cache, so a session
// stays rejected here even when the cache could not be updated.
type revokedSessions struct {
	mu      sync.Mutex
	entries map[string]time.Time
	now     func() time.Time
}

func newRevokedSessions() *revokedSessions {
	return &revokedSessions{entries: make(map[string]time.Time), now: time.Now}
}

func (r *revokedSessions) add(sessionID string, until time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	for id, exp := range r.entries {
		if !exp.After(now) {
			delete(r.entries, id)
		}
	}
	if until.After(now) {
		r.entries[sessionID] = until
	}
}

func (r *revokedSessions) has(sessionID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	exp, ok := r.entries[sessionID]
	return ok && exp.After(r.now())
}
