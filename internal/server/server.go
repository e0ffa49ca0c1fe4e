package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net"
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ebaenamar/wikidata-mcp-mirror/internal/config"
	"github.com/ebaenamar/wikidata-mcp-mirror/internal/mcp"
)

// Server bridges SSE push streams and short-lived JSON-RPC POSTs into
// per-session duplex channels, and drives the protocol against the
// knowledge-base backend.
type Server struct {
	cfg        config.Config
	logger     *slog.Logger
	registry   *Registry
	dispatcher *mcp.Dispatcher

	metrics *metrics
	promReg *prometheus.Registry

	baseCtx      context.Context
	baseCancel   context.CancelFunc
	shutdownOnce sync.Once
}

func New(cfg config.Config, backend mcp.Backend, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	promReg := prometheus.NewRegistry()
	ctx, cancel := context.WithCancel(context.Background())
	return &Server{
		cfg:        cfg,
		logger:     logger,
		registry:   NewRegistry(),
		dispatcher: mcp.NewDispatcher(backend, logger),
		metrics:    newMetrics(promReg),
		promReg:    promReg,
		baseCtx:    ctx,
		baseCancel: cancel,
	}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/sse", s.handleSSE)
	mux.HandleFunc("/messages", s.handleMessages)
	mux.HandleFunc("/messages/", s.handleMessages)
	mux.HandleFunc("/health", s.handleHealth)
	mux.Handle("/metrics", promhttp.HandlerFor(s.promReg, promhttp.HandlerOpts{}))
	mux.HandleFunc("/", s.handleRoot)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.allowClient(r) {
			writeJSON(w, http.StatusForbidden, map[string]any{"error": "Forbidden for client IP."})
			return
		}
		// MCP clients run in browsers and sandboxes; keep CORS wide open.
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "*")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		mux.ServeHTTP(w, r)
	})
}

func (s *Server) allowClient(r *http.Request) bool {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	ip := net.ParseIP(host)
	return config.IsAllowedClient(ip, s.cfg.AllowCIDRs)
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		writeJSON(w, http.StatusNotFound, map[string]any{"error": "not found"})
		return
	}
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]any{"error": "method not allowed"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Wikidata MCP Server is running. Use /sse for MCP connections.",
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]any{"error": "method not allowed"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":      "healthy",
		"connections": s.registry.Len(),
	})
}

// Shutdown tears down every live session and stops accepting new work.
// Safe to call more than once.
func (s *Server) Shutdown(ctx context.Context) error {
	s.shutdownOnce.Do(func() {
		s.baseCancel()
		for _, sess := range s.registry.All() {
			s.teardown(sess)
		}
	})
	return ctx.Err()
}

// newSession allocates and accounts for a session.
func (s *Server) newSession(clientAddr string) *Session {
	sess := s.registry.Create(s.baseCtx, clientAddr)
	s.metrics.sessionsActive.Inc()
	s.metrics.sessionsTotal.Inc()
	return sess
}

// teardown runs session cleanup exactly once across all exit paths: stream
// close, runner failure, router errors and process shutdown.
func (s *Server) teardown(sess *Session) {
	sess.teardownOnce.Do(func() {
		s.registry.Remove(sess.ID)
		s.metrics.sessionsActive.Dec()
		s.logger.Info("session closed", "session_id", sess.ID, "messages", sess.MessageCount())
	})
}

func clientAddr(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
