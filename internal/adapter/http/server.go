package http

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"time"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/couchcryptid/isar-water-etl/internal/domain"
)

// maxTriggerBody caps the size of a trigger event.
const maxTriggerBody = 64 << 10

// TriggerHandler runs one poll cycle for a cron trigger event.
type TriggerHandler interface {
	HandleTrigger(ctx context.Context, payload []byte) (*domain.CompositeReading, error)
}

// Server exposes health, readiness, metrics, and trigger HTTP endpoints.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

// NewServer creates an HTTP server with /healthz, /readyz, /metrics and
// /trigger routes.
func NewServer(addr string, ready sharedobs.ReadinessChecker, trigger TriggerHandler, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 2 * time.Minute, // a triggered cycle fetches three pages
			IdleTimeout:  60 * time.Second,
		},
		logger: logger,
	}

	mux.HandleFunc("GET /healthz", sharedobs.LivenessHandler())
	mux.HandleFunc("GET /readyz", sharedobs.ReadinessHandler(ready))
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("POST /trigger", s.handleTrigger(trigger))

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

// handleTrigger answers a cron event with the published reading and any
// other event with 204 and no action.
func (s *Server) handleTrigger(trigger TriggerHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		payload, err := io.ReadAll(io.LimitReader(r.Body, maxTriggerBody))
		if err != nil {
			sharedobs.WriteJSON(w, http.StatusBadRequest, map[string]string{"error": "read body: " + err.Error()})
			return
		}

		reading, err := trigger.HandleTrigger(r.Context(), payload)
		if err != nil {
			s.logger.Error("triggered cycle failed", "error", err)
			sharedobs.WriteJSON(w, http.StatusBadGateway, map[string]string{"error": err.Error()})
			return
		}
		if reading == nil {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		sharedobs.WriteJSON(w, http.StatusOK, reading)
	}
}
