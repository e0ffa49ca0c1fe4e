package server

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
)

var ErrSessionNotFound = errors.New("session not found")

// Registry owns every live session. It is the only structure shared across
// per-connection goroutines; all access goes through the mutex. No method
// performs I/O.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

func NewRegistry() *Registry {
	return &Registry{sessions: map[string]*Session{}}
}

// Create allocates a session with a fresh random id. Ids are drawn from the
// UUIDv4 space and never reused.
func (r *Registry) Create(parent context.Context, clientAddr string) *Session {
	sess := newSession(parent, uuid.NewString(), clientAddr)
	r.mu.Lock()
	r.sessions[sess.ID] = sess
	r.mu.Unlock()
	return sess
}

func (r *Registry) Get(id string) (*Session, error) {
	r.mu.RLock()
	sess, ok := r.sessions[id]
	r.mu.RUnlock()
	if !ok {
		return nil, ErrSessionNotFound
	}
	return sess, nil
}

// MostRecentlyActive returns the session with the newest activity
// timestamp, for routing messages whose session id did not resolve.
func (r *Registry) MostRecentlyActive() (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var best *Session
	for _, sess := range r.sessions {
		if best == nil || sess.LastActivity().After(best.LastActivity()) {
			best = sess
		}
	}
	return best, best != nil
}

// Remove drops the session and cancels its tasks. Idempotent; removing an
// unknown id is a no-op.
func (r *Registry) Remove(id string) {
	r.mu.Lock()
	sess, ok := r.sessions[id]
	if ok {
		delete(r.sessions, id)
	}
	r.mu.Unlock()
	if !ok {
		return
	}
	sess.cancel()
	sess.inbound.Close()
	sess.CloseOutbound()
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// All snapshots the live sessions, for shutdown.
func (r *Registry) All() []*Session {
	r.mu.RLock()
	defer r.mu.RUnlock()
	all := make([]*Session, 0, len(r.sessions))
	for _, sess := range r.sessions {
		all = append(all, sess)
	}
	return all
}
