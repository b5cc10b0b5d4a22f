// Package api provides the administrative HTTP API.
//
// It exposes RESTful endpoints for managing vacancy postings and for sending
// ad-hoc WhatsApp messages through the configured messaging service.
package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/YoPracticando/PractiBot/internal/messaging"
	"github.com/YoPracticando/PractiBot/internal/scheduler"
	"github.com/YoPracticando/PractiBot/internal/store"
)

// DefaultAddr is the default listen address for the admin API.
const DefaultAddr = ":8080"

// Opts holds configuration for the API server.
type Opts struct {
	Addr      string
	Scheduler *scheduler.Scheduler
}

// Option configures Opts.
type Option func(*Opts)

// WithAddr overrides the listen address.
func WithAddr(addr string) Option {
	return func(o *Opts) { o.Addr = addr }
}

// WithScheduler enables the /api/schedule endpoint for recurring sends.
func WithScheduler(s *scheduler.Scheduler) Option {
	return func(o *Opts) { o.Scheduler = s }
}

// Server serves the vacancy admin endpoints.
type Server struct {
	store      store.VacancyStore
	msgService messaging.Service
	sched      *scheduler.Scheduler
	addr       string
	httpServer *http.Server
}

// NewServer creates an admin API server over the vacancy store and messaging service.
func NewServer(st store.VacancyStore, msgService messaging.Service, opts ...Option) *Server {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.Addr == "" {
		cfg.Addr = DefaultAddr
	}
	return &Server{
		store:      st,
		msgService: msgService,
		sched:      cfg.Scheduler,
		addr:       cfg.Addr,
	}
}

// Handler builds the route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/vacancies", s.vacanciesHandler)
	mux.HandleFunc("/api/vacancies/stats", s.statsHandler)
	mux.HandleFunc("/api/careers", s.careersHandler)
	mux.HandleFunc("/api/locations", s.locationsHandler)
	mux.HandleFunc("/api/send", s.sendHandler)
	mux.HandleFunc("/api/schedule", s.scheduleHandler)
	mux.HandleFunc("/health", s.healthHandler)
	return mux
}

// Start runs the server until the context is cancelled.
func (s *Server) Start(ctx context.Context) error {
	s.httpServer = &http.Server{
		Addr:    s.addr,
		Handler: s.Handler(),
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Admin API listening", "addr", s.addr)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		slog.Info("Admin API shutting down")
		return s.httpServer.Shutdown(shutdownCtx)
	}
}
