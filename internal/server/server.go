// Package server wires the HTTP surface: health/metrics endpoints, the
// live-monitoring SSE/websocket streams, and control endpoints for the
// scheduler, data source, and alert engine.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/onnwee/reddit-insight/internal/alertengine"
	"github.com/onnwee/reddit-insight/internal/datasource"
	"github.com/onnwee/reddit-insight/internal/middleware"
	"github.com/onnwee/reddit-insight/internal/monitor"
	"github.com/onnwee/reddit-insight/internal/scheduler"
)

// Server bundles the HTTP server and the subsystems its handlers expose.
type Server struct {
	router     *mux.Router
	httpServer *http.Server

	source    *datasource.UnifiedDataSource
	monitors  *monitor.Registry
	scheduler *scheduler.Scheduler
	alerts    *alertengine.Engine
}

// Config configures a Server.
type Config struct {
	Address           string
	CORSConfig        middleware.CORSConfig
	GlobalRPS         float64
	GlobalBurst       int
	PerIPRPS          float64
	PerIPBurst        int
}

// New builds a Server and registers its routes.
func New(cfg Config, source *datasource.UnifiedDataSource, monitors *monitor.Registry, sched *scheduler.Scheduler, alerts *alertengine.Engine) *Server {
	s := &Server{
		router:    mux.NewRouter(),
		source:    source,
		monitors:  monitors,
		scheduler: sched,
		alerts:    alerts,
	}

	rateLimiter := middleware.NewRateLimiter(cfg.GlobalRPS, cfg.GlobalBurst, cfg.PerIPRPS, cfg.PerIPBurst)

	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RecoverWithSentry)
	s.router.Use(middleware.SecurityHeaders)
	s.router.Use(middleware.CORS(cfg.CORSConfig))
	s.router.Use(rateLimiter.Middleware)
	s.router.Use(middleware.Gzip)

	s.registerRoutes()

	s.httpServer = &http.Server{
		Addr:         cfg.Address,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 0, // SSE/websocket streams are long-lived
		IdleTimeout:  60 * time.Second,
	}

	return s
}

func (s *Server) registerRoutes() {
	s.router.HandleFunc("/healthz", s.handleHealthz).Methods(http.MethodGet)
	s.router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	s.router.HandleFunc("/status/datasource", s.handleDataSourceStatus).Methods(http.MethodGet)

	s.router.HandleFunc("/monitor/{subreddit}/stream", monitor.SSEHandler(s.monitors)).Methods(http.MethodGet)
	s.router.HandleFunc("/monitor/{subreddit}/ws", monitor.WebSocketHandler(s.monitors)).Methods(http.MethodGet)
	s.router.HandleFunc("/monitor/{subreddit}", s.handleStopMonitor).Methods(http.MethodDelete)
	s.router.HandleFunc("/monitor", s.handleListMonitors).Methods(http.MethodGet)

	s.router.HandleFunc("/scheduler/run", s.handleSchedulerRunOnce).Methods(http.MethodPost)
	s.router.HandleFunc("/scheduler/history", s.handleSchedulerHistory).Methods(http.MethodGet)

	s.router.HandleFunc("/alerts/rules", s.handleListAlertRules).Methods(http.MethodGet)
	s.router.HandleFunc("/alerts/rules", s.handleCreateAlertRule).Methods(http.MethodPost)
	s.router.HandleFunc("/alerts/rules/{id}", s.handleDeleteAlertRule).Methods(http.MethodDelete)
	s.router.HandleFunc("/alerts/history", s.handleAlertHistory).Methods(http.MethodGet)
}

// Start runs the HTTP server until ctx is canceled, then shuts it down
// gracefully.
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return s.httpServer.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}
