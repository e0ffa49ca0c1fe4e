package server

import (
	"time"
)

// keepAlive pushes a comment frame on the session's outbound queue at the
// configured interval so intermediaries keep the stream open. It stops as
// soon as the session is cancelled or disappears from the registry.
func (s *Server) keepAlive(sess *Session) {
	ticker := time.NewTicker(s.cfg.PingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-sess.ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.registry.Get(sess.ID); err != nil {
				return
			}
			sess.EnqueueOutbound(frame{
				comment: true,
				data:    "ping - " + time.Now().UTC().Format(time.RFC3339),
			})
		}
	}
}
