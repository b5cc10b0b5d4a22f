// Package webhook exposes the HTTP surface receiving outbound-agent events
// from the support-inbox platform and forwarding agent replies to the
// messaging provider.
package webhook

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/YoPracticando/PractiBot/internal/models"
)

// DefaultAddr is the default listen address for the webhook server.
const DefaultAddr = ":3009"

// OutboundSender delivers an agent reply to the end user via the messaging
// provider.
type OutboundSender interface {
	SendMessage(ctx context.Context, to string, body string) error
}

// Opts holds configuration options for the webhook server.
type Opts struct {
	Addr        string
	DedupWindow time.Duration
	Routes      map[string]http.HandlerFunc
}

// Option defines a configuration option for the webhook server.
type Option func(*Opts)

// WithAddr sets the listen address.
func WithAddr(addr string) Option {
	return func(o *Opts) { o.Addr = addr }
}

// WithDedupWindow sets the duplicate-suppression window.
func WithDedupWindow(d time.Duration) Option {
	return func(o *Opts) { o.DedupWindow = d }
}

// WithRoute registers an additional handler on the webhook server, e.g. a
// provider-specific inbound endpoint.
func WithRoute(pattern string, h http.HandlerFunc) Option {
	return func(o *Opts) {
		if o.Routes == nil {
			o.Routes = make(map[string]http.HandlerFunc)
		}
		o.Routes[pattern] = h
	}
}

// Server handles the Chatwoot webhook endpoints. It is stateless across
// requests except for the shared dedup cache.
type Server struct {
	addr   string
	sender OutboundSender
	dedup  *DedupCache
	routes map[string]http.HandlerFunc
	srv    *http.Server
}

// NewServer creates a webhook server forwarding through the given sender.
func NewServer(sender OutboundSender, opts ...Option) *Server {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.Addr == "" {
		cfg.Addr = DefaultAddr
	}
	slog.Debug("Webhook NewServer", "addr", cfg.Addr, "dedup_window", cfg.DedupWindow)

	return &Server{
		addr:   cfg.Addr,
		sender: sender,
		dedup:  NewDedupCache(cfg.DedupWindow),
		routes: cfg.Routes,
	}
}

// Handler returns the HTTP handler with all webhook routes registered.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/webhook", s.webhookHandler)
	mux.HandleFunc("/webhook/test", s.testHandler)
	mux.HandleFunc("/health", s.healthHandler)
	for pattern, h := range s.routes {
		mux.HandleFunc(pattern, h)
	}
	return mux
}

// Start runs the HTTP server until the context is cancelled.
func (s *Server) Start(ctx context.Context) error {
	s.srv = &http.Server{Addr: s.addr, Handler: s.Handler()}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("Webhook server shutdown error", "error", err)
		}
	}()

	slog.Info("Webhook server listening", "addr", s.addr)
	if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("webhook server failed: %w", err)
	}
	return nil
}

// webhookHandler dispatches POST event ingestion and the GET verification
// handshake. The handshake is presence-only; no token challenge.
func (s *Server) webhookHandler(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		s.handleEvent(w, r)
	case http.MethodGet:
		slog.Debug("Webhook.webhookHandler: verification request", "remote", r.RemoteAddr)
		writeJSONResponse(w, http.StatusOK, models.SuccessWithMessage("webhook endpoint is ready", nil))
	default:
		w.Header().Set("Allow", "GET, POST")
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// handleEvent always answers 200: the platform's retry policy must never be
// triggered by internal errors. Failures are logged, not surfaced.
func (s *Server) handleEvent(w http.ResponseWriter, r *http.Request) {
	if r.Body != nil {
		defer r.Body.Close()
	}

	var p payload
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		slog.Warn("Webhook.handleEvent: invalid JSON payload", "error", err)
		writeJSONResponse(w, http.StatusOK, models.Error("invalid payload"))
		return
	}

	evt := p.resolve()
	key := DedupKey(evt.Name, evt.MessageID, evt.Content)
	slog.Debug("Webhook.handleEvent: event received",
		"event", evt.Name,
		"message_id", evt.MessageID,
		"message_type", evt.MessageType,
		"sender_type", evt.SenderType,
		"dedup_key", key)

	if !s.dedup.CheckAndRecord(key) {
		slog.Info("Webhook.handleEvent: duplicate event suppressed", "dedup_key", key)
		writeJSONResponse(w, http.StatusOK, models.Duplicate("event already processed"))
		return
	}

	if !evt.shouldForward() {
		slog.Debug("Webhook.handleEvent: event ignored",
			"event", evt.Name,
			"message_type", evt.MessageType,
			"sender_type", evt.SenderType)
		writeJSONResponse(w, http.StatusOK, models.Ignored("event not forwarded"))
		return
	}

	if evt.Phone == "" || evt.Content == "" {
		slog.Warn("Webhook.handleEvent: agent message missing phone or content", "phone_set", evt.Phone != "", "content_set", evt.Content != "")
		writeJSONResponse(w, http.StatusOK, models.Error("missing destination or content"))
		return
	}

	if err := s.sender.SendMessage(r.Context(), evt.Phone, evt.Content); err != nil {
		slog.Error("Webhook.handleEvent: forward to messaging provider failed", "error", err, "to", evt.Phone)
		writeJSONResponse(w, http.StatusOK, models.Error("forward failed"))
		return
	}

	slog.Info("Webhook.handleEvent: agent reply forwarded", "to", evt.Phone)
	writeJSONResponse(w, http.StatusOK, models.Success(nil))
}

// testHandler is a diagnostic echo for manual webhook checks.
func (s *Server) testHandler(w http.ResponseWriter, r *http.Request) {
	writeJSONResponse(w, http.StatusOK, models.SuccessWithMessage("webhook endpoint is working", map[string]string{
		"webhook_url": "http://" + r.Host + "/webhook",
	}))
}

// healthHandler is the liveness endpoint.
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSONResponse(w, http.StatusOK, models.SuccessWithMessage("OK", map[string]string{"service": "practibot-webhook"}))
}
