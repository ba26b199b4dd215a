// ABOUTME: HTTP server wiring for webhook deliveries, health and metrics endpoints.

package webhook

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jbossbot/jbossbot/internal/config"
	"github.com/jbossbot/jbossbot/internal/notify"
)

// maxPayloadSize bounds webhook request bodies.
const maxPayloadSize = 5 << 20

// Notifier is the dispatcher's proactive entry point.
type Notifier interface {
	HandleNotice(ctx context.Context, n notify.Notice)
}

// Server is the webhook HTTP listener.
type Server struct {
	notifier Notifier
	secret   string
	logger   *slog.Logger
	srv      *http.Server
}

// NewServer builds the listener. The registry is only consulted when metrics
// are enabled; pass the process registry either way.
func NewServer(cfg config.HTTPConfig, metrics config.MetricsConfig, registry *prometheus.Registry, notifier Notifier, logger *slog.Logger) *Server {
	s := &Server{
		notifier: notifier,
		secret:   cfg.GithubSecret,
		logger:   logger.With("component", "webhook"),
	}

	mux := http.NewServeMux()
	s.RegisterRoutes(mux)
	if metrics.Enabled {
		mux.Handle(metrics.Path, promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	}

	s.srv = &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// RegisterRoutes attaches the webhook handlers to mux.
func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/webhook/github", s.handleGitHub)
	mux.HandleFunc("/webhook/jira", s.handleJira)
	mux.HandleFunc("/webhook/teamcity", s.handleTeamCity)
	mux.HandleFunc("/health", s.handleHealth)
}

// Start serves until Shutdown or a listener error.
func (s *Server) Start() error {
	s.logger.Info("webhook server listening", "addr", s.srv.Addr)
	if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully stops the listener.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	io.WriteString(w, `{"status":"ok"}`)
}

// readBody reads the request body with the size cap applied.
func readBody(r *http.Request) ([]byte, error) {
	return io.ReadAll(io.LimitReader(r.Body, maxPayloadSize))
}
