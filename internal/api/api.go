package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/visadesk/visadesk/internal/store"
)

// DefaultAddr is the default listen address for the operator API.
const DefaultAddr = ":8080"

// Opts holds configuration options for the API server.
type Opts struct {
	Addr    string           // listen address
	Webhook http.HandlerFunc // inbound Twilio webhook handler, nil when unused
}

// Option defines a configuration option for the API server.
type Option func(*Opts)

// WithAddr sets the API server listen address.
func WithAddr(addr string) Option {
	return func(o *Opts) { o.Addr = addr }
}

// WithWebhook mounts an inbound message webhook at /webhook/twilio.
func WithWebhook(handler http.HandlerFunc) Option {
	return func(o *Opts) { o.Webhook = handler }
}

// Server exposes operational endpoints over the lead and session store.
type Server struct {
	store  store.Store
	server *http.Server
}

// NewServer creates an API server over the given store.
func NewServer(st store.Store, opts ...Option) *Server {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.Addr == "" {
		cfg.Addr = DefaultAddr
	}
	slog.Debug("API NewServer options set", "addr", cfg.Addr, "webhook_set", cfg.Webhook != nil)

	s := &Server{store: st}

	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.healthHandler)
	mux.HandleFunc("/leads", s.leadsHandler)
	mux.HandleFunc("/stats", s.statsHandler)
	if cfg.Webhook != nil {
		mux.HandleFunc("/webhook/twilio", cfg.Webhook)
	}

	s.server = &http.Server{Addr: cfg.Addr, Handler: mux}
	return s
}

// Handler returns the server's HTTP handler, primarily for tests.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// Start begins serving in a background goroutine and shuts the server down
// when ctx is cancelled.
func (s *Server) Start(ctx context.Context) {
	go func() {
		slog.Info("API server listening", "addr", s.server.Addr)
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("API server failed", "error", err)
		}
	}()
	go func() {
		<-ctx.Done()
		if err := s.server.Shutdown(context.Background()); err != nil {
			slog.Error("API server shutdown failed", "error", err)
		}
	}()
}

// healthHandler reports service liveness.
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSONResponse(w, http.StatusMethodNotAllowed, Result{Status: "error", Message: "method not allowed"})
		return
	}
	writeJSONResponse(w, http.StatusOK, Result{Status: "ok"})
}

// leadsHandler returns every recorded lead in insertion order.
func (s *Server) leadsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSONResponse(w, http.StatusMethodNotAllowed, Result{Status: "error", Message: "method not allowed"})
		return
	}

	leads, err := s.store.GetLeads()
	if err != nil {
		slog.Error("Server.leadsHandler: failed to get leads", "error", err)
		writeJSONResponse(w, http.StatusInternalServerError, Result{Status: "error", Message: "failed to load leads"})
		return
	}
	slog.Debug("Server.leadsHandler: returning leads", "count", len(leads))
	writeJSONResponse(w, http.StatusOK, leads)
}

// statsResponse summarizes store contents for operators.
type statsResponse struct {
	Sessions int `json:"sessions"`
	Leads    int `json:"leads"`
}

// statsHandler returns session and lead counts.
func (s *Server) statsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSONResponse(w, http.StatusMethodNotAllowed, Result{Status: "error", Message: "method not allowed"})
		return
	}

	sessions, err := s.store.LoadSessions()
	if err != nil {
		slog.Error("Server.statsHandler: failed to load sessions", "error", err)
		writeJSONResponse(w, http.StatusInternalServerError, Result{Status: "error", Message: "failed to load sessions"})
		return
	}
	leads, err := s.store.GetLeads()
	if err != nil {
		slog.Error("Server.statsHandler: failed to get leads", "error", err)
		writeJSONResponse(w, http.StatusInternalServerError, Result{Status: "error", Message: "failed to load leads"})
		return
	}

	writeJSONResponse(w, http.StatusOK, statsResponse{Sessions: len(sessions), Leads: len(leads)})
}
