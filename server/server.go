package server

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/crlsmrls/lixservice/config"
	"github.com/crlsmrls/lixservice/internal/registry"
	"github.com/crlsmrls/lixservice/internal/sysstats"
	"github.com/crlsmrls/lixservice/metrics"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"
	"github.com/rs/zerolog/log"
)

// Server holds the application HTTP server, its optional metrics server,
// and everything routes.go needs to answer a request.
type Server struct {
	httpServer        *http.Server
	metricsHTTPServer *http.Server
	router            *chi.Mux
	config            *config.Config
	registry          *registry.Registry
	sampler           *sysstats.Sampler
}

// New creates a new Server. reg is the process-level service registry
// (may be nil in tests that only exercise /healthz-shaped endpoints);
// promReg is the Prometheus registry the metrics server exposes.
func New(cfg *config.Config, reg *registry.Registry, logWriter io.Writer, promReg *prometheus.Registry) *Server {
	r := chi.NewRouter()

	if logWriter == nil {
		logWriter = os.Stdout
	}
	logger := zerolog.New(logWriter).With().Timestamp().Caller().Logger()

	r.Use(
		hlog.NewHandler(logger),
		metrics.HTTPMetricsMiddleware,
		hlog.AccessHandler(func(r *http.Request, status, size int, duration time.Duration) {
			hlog.FromRequest(r).Info().
				Str("method", r.Method).
				Str("url", r.URL.String()).
				Int("status", status).
				Int("size", size).
				Dur("duration", duration).
				Msg("request")
		}),
		hlog.RemoteAddrHandler("ip"),
		hlog.UserAgentHandler("user_agent"),
		middleware.RequestID,
		CorrelationIDMiddleware,
		middleware.Recoverer,
	)

	s := &Server{
		router:   r,
		config:   cfg,
		registry: reg,
		sampler:  sysstats.NewSampler(0),
	}

	setupRoutes(r, s)

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      r,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 60 * time.Second, // long enough for /analyze/stream SSE
		IdleTimeout:  15 * time.Second,
	}

	if cfg.MetricsEnabled {
		mr := chi.NewRouter()
		mr.Handle(cfg.MetricsPath, metrics.MetricsHandler(promReg))
		s.metricsHTTPServer = &http.Server{
			Addr:         fmt.Sprintf(":%d", cfg.MetricsPort),
			Handler:      mr,
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  15 * time.Second,
		}
	}

	return s
}

// Start starts the application server (and, if enabled, the metrics
// server on its own port) and blocks until an OS signal requests a
// graceful shutdown.
func (s *Server) Start() error {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)

	log.Info().Msgf("starting application server on port %d", s.config.Port)
	go func() {
		var err error
		if s.config.TLSCertFile != "" && s.config.TLSKeyFile != "" {
			err = s.httpServer.ListenAndServeTLS(s.config.TLSCertFile, s.config.TLSKeyFile)
		} else {
			err = s.httpServer.ListenAndServe()
		}
		if err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("application server failed to start")
		}
	}()

	if s.metricsHTTPServer != nil {
		log.Info().Msgf("starting metrics server on port %d", s.config.MetricsPort)
		go func() {
			if err := s.metricsHTTPServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Fatal().Err(err).Msg("metrics server failed to start")
			}
		}()
	}

	<-stop
	log.Info().Msg("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if s.registry != nil {
		_ = s.registry.BeginDraining()
	}

	if err := s.httpServer.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("application server shutdown failed")
	}
	if s.metricsHTTPServer != nil {
		if err := s.metricsHTTPServer.Shutdown(ctx); err != nil {
			log.Error().Err(err).Msg("metrics server shutdown failed")
		}
	}
	if s.registry != nil {
		if err := s.registry.Close(); err != nil {
			log.Error().Err(err).Msg("registry close failed")
		}
	}

	log.Info().Msg("server gracefully stopped")
	return nil
}
