package memory

import (
	"context"
	"sync"

	"trivia-service/internal/domain"
)

// SessionRegistry is an in-memory implementation of app.SessionRegistry.
type SessionRegistry struct {
	mu     sync.Mutex
	active map[string]struct{}
}

func NewSessionRegistry() *SessionRegistry {
	return &SessionRegistry{
		active: make(map[string]struct{}),
	}
}

func (r *SessionRegistry) Acquire(_ context.Context, channelID string) (func(), error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.active[channelID]; ok {
		return nil, domain.ErrSessionActive
	}
	r.active[channelID] = struct{}{}

	var once sync.Once
	return func() {
		once.Do(func() {
			r.mu.Lock()
			delete(r.active, channelID)
			r.mu.Unlock()
		})
	}, nil
}

// Active reports whether channelID currently hosts a session.
func (r *SessionRegistry) Active(channelID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.active[channelID]
	return ok
}
