package server

import (
	"errors"
	"io"
	"net/http"

	"github.com/ebaenamar/wikidata-mcp-mirror/internal/mcp"
)

// handleMessages accepts one inbound protocol message and enqueues it onto
// the session it resolves to. The protocol response arrives later on the
// push stream; the POST is only acknowledged at the transport level.
//
// Resolution order: explicit session_id, then the most recently active
// session, then a brand-new session. The fallback exists for clients that
// lose the session id between the endpoint frame and their first POST; it
// is kept, not extended.
func (s *Server) handleMessages(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]any{"error": "method not allowed"})
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "unreadable body"})
		return
	}
	if _, err := mcp.ParseRequest(body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "body is not a protocol message"})
		return
	}

	sessionID := r.URL.Query().Get("session_id")
	sess, err := s.resolveSession(sessionID, clientAddr(r))
	if err != nil {
		writeJSON(w, http.StatusNotFound, map[string]any{"error": err.Error()})
		return
	}

	sess.Touch()
	if !sess.EnqueueInbound(body) {
		writeJSON(w, http.StatusGone, map[string]any{"error": "session is closing"})
		return
	}
	s.metrics.inboundMessages.Inc()
	writeJSON(w, http.StatusAccepted, map[string]any{"ok": true, "session_id": sess.ID})
}

func (s *Server) resolveSession(sessionID, client string) (*Session, error) {
	if sessionID != "" {
		if sess, err := s.registry.Get(sessionID); err == nil {
			return sess, nil
		}
	}
	if !s.cfg.SessionFallback {
		return nil, errors.New("session not found")
	}
	if sess, ok := s.registry.MostRecentlyActive(); ok {
		if sessionID != "" {
			s.logger.Warn("session id did not resolve, using most recently active",
				"requested", sessionID, "session_id", sess.ID)
		}
		return sess, nil
	}
	// A burst of POSTs can race stream setup; park the message on a fresh
	// session instead of failing hard.
	sess := s.newSession(client)
	go s.runProtocol(sess)
	s.logger.Info("allocated streamless session for early message", "session_id", sess.ID)
	return sess, nil
}
