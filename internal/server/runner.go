package server

import (
	"encoding/json"
	"fmt"

	"github.com/ebaenamar/wikidata-mcp-mirror/internal/mcp"
)

// runProtocol is the per-session protocol runner. It consumes inbound
// messages strictly one at a time: dequeue, dispatch, enqueue exactly one
// correlated response (for requests), repeat. Sessions run fully
// concurrently with each other but never interleave within themselves.
//
// The runner ends COMPLETED when the inbound side closes, CANCELLED when
// the owning stream tears the session down, and FAILED on a panic inside
// dispatch. Every terminal path enqueues the close sentinel exactly once.
func (s *Server) runProtocol(sess *Session) {
	defer sess.CloseOutbound()

	initialized := false
	for {
		raw, ok := sess.inbound.Get(sess.ctx)
		if !ok {
			if sess.ctx.Err() != nil {
				s.logger.Debug("protocol runner cancelled", "session_id", sess.ID)
			} else {
				s.logger.Debug("protocol runner completed", "session_id", sess.ID)
			}
			return
		}

		resp, fatal := s.handleMessage(sess, raw, &initialized)
		if fatal {
			return
		}
		if resp == nil {
			continue
		}
		if resp.Error != nil {
			s.metrics.protocolErrors.Inc()
		}
		encoded, err := json.Marshal(resp)
		if err != nil {
			s.logger.Error("response marshal failed", "session_id", sess.ID, "error", err)
			continue
		}
		sess.EnqueueOutbound(frame{data: string(encoded)})
	}
}

// handleMessage processes one raw inbound message. A fatal return means the
// runner hit an unrecoverable fault and must stop; everything else, bad
// input included, produces at most a correlated error response and the
// session continues.
func (s *Server) handleMessage(sess *Session, raw []byte, initialized *bool) (resp *mcp.Response, fatal bool) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("protocol runner failed",
				"session_id", sess.ID,
				"panic", fmt.Sprint(r),
				"raw_message", string(raw))
			resp, fatal = nil, true
		}
	}()

	req, err := mcp.ParseRequest(raw)
	if err != nil {
		// The router validates payloads before enqueueing, so this only
		// fires for messages injected through other paths.
		return mcp.NewError(nil, mcp.CodeParseError, "message is not a protocol message"), false
	}
	if req.JSONRPC != "2.0" {
		if req.IsNotification() {
			return nil, false
		}
		return mcp.NewError(req.ID, mcp.CodeInvalidRequest, "jsonrpc must be \"2.0\""), false
	}

	if !*initialized {
		switch {
		case req.Method == "initialize":
			*initialized = true
			s.logger.Info("session initialized", "session_id", sess.ID)
			return s.dispatcher.Initialize(req), false
		case req.IsNotification():
			s.logger.Warn("dropping notification before initialize",
				"session_id", sess.ID, "method", req.Method)
			return nil, false
		default:
			return mcp.NewError(req.ID, mcp.CodeNotInitialized,
				"server not initialized: send initialize first"), false
		}
	}

	if req.Method == "initialize" {
		if req.IsNotification() {
			return nil, false
		}
		return mcp.NewError(req.ID, mcp.CodeInvalidRequest, "server already initialized"), false
	}

	return s.dispatcher.Dispatch(sess.ctx, req), false
}
