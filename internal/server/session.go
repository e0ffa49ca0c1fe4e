package server

import (
	"context"
	"sync"
	"time"
)

// frame is one outbound unit for the push stream: either a protocol payload
// or a keep-alive comment. The payload is newline-free JSON.
type frame struct {
	data    string
	comment bool
}

// Session is one logical duplex connection: an inbound queue fed by the
// message router and an outbound queue drained by the push stream. The
// registry is the sole owner of its lifetime.
type Session struct {
	ID         string
	ClientAddr string
	CreatedAt  time.Time

	inbound  *queue[[]byte]
	outbound *queue[frame]

	ctx    context.Context
	cancel context.CancelFunc

	mu             sync.Mutex
	lastActivityAt time.Time
	messageCount   int

	sentinelOnce sync.Once
	teardownOnce sync.Once
}

func newSession(parent context.Context, id, clientAddr string) *Session {
	ctx, cancel := context.WithCancel(parent)
	now := time.Now()
	return &Session{
		ID:             id,
		ClientAddr:     clientAddr,
		CreatedAt:      now,
		inbound:        newQueue[[]byte](),
		outbound:       newQueue[frame](),
		ctx:            ctx,
		cancel:         cancel,
		lastActivityAt: now,
	}
}

// Touch records inbound activity.
func (s *Session) Touch() {
	s.mu.Lock()
	s.lastActivityAt = time.Now()
	s.messageCount++
	s.mu.Unlock()
}

func (s *Session) LastActivity() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActivityAt
}

func (s *Session) MessageCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.messageCount
}

func (s *Session) EnqueueInbound(raw []byte) bool {
	return s.inbound.Put(raw)
}

func (s *Session) EnqueueOutbound(f frame) bool {
	return s.outbound.Put(f)
}

// CloseOutbound enqueues the close sentinel. Safe to call from any terminal
// path; only the first call has effect.
func (s *Session) CloseOutbound() {
	s.sentinelOnce.Do(s.outbound.Close)
}
