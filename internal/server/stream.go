package server

import (
	"net/http"

	"github.com/oklog/ulid/v2"
	sse "github.com/tmaxmax/go-sse"
)

// handleSSE owns the whole lifetime of one push stream: it allocates the
// session, starts the protocol runner and liveness keeper, emits the
// endpoint frame and then drains the outbound queue until the close
// sentinel, a broken connection or runner teardown ends the stream. The
// deferred teardown guarantees cleanup fires exactly once no matter which
// exit path wins.
func (s *Server) handleSSE(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]any{"error": "method not allowed"})
		return
	}

	sess := s.newSession(clientAddr(r))
	defer s.teardown(sess)
	s.logger.Info("push stream opened", "session_id", sess.ID, "client", sess.ClientAddr)

	conn, err := sse.Upgrade(w, r)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": err.Error()})
		return
	}

	go s.runProtocol(sess)
	go s.keepAlive(sess)

	// The endpoint frame must precede every other frame so the client can
	// address its POSTs.
	endpoint := &sse.Message{Type: sse.Type("endpoint")}
	endpoint.AppendData(s.cfg.MessagesPath() + "?session_id=" + sess.ID)
	if err := conn.Send(endpoint); err != nil {
		return
	}
	_ = conn.Flush()

	for {
		f, ok := sess.outbound.Get(r.Context())
		if !ok {
			return
		}
		msg := &sse.Message{}
		if f.comment {
			msg.AppendComment(f.data)
		} else {
			msg.ID = sse.ID(ulid.Make().String())
			msg.AppendData(f.data)
		}
		if err := conn.Send(msg); err != nil {
			s.logger.Warn("push stream write failed", "session_id", sess.ID, "error", err)
			return
		}
		_ = conn.Flush()
		s.metrics.framesSent.Inc()
	}
}
