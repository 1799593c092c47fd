package server

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"pickleball-score-service/internal/app/match"
	"pickleball-score-service/internal/app/overlay"
	"pickleball-score-service/internal/archive"
	"pickleball-score-service/internal/config"
	httpserver "pickleball-score-service/internal/http"
	"pickleball-score-service/internal/http/handlers"
	"pickleball-score-service/internal/http/middleware"
	"pickleball-score-service/internal/logging"
	"pickleball-score-service/internal/metrics"
	"pickleball-score-service/internal/notify"
	"pickleball-score-service/internal/store"
)

var metricsSetup = metrics.Setup

type Server struct {
	cfg            config.Config
	logger         *slog.Logger
	metrics        *metrics.Recorder
	store          store.Store
	matchService   *match.Service
	overlayService *overlay.Service
	hub            *notify.Hub
	keepalive      *notify.Keepalive
	httpServer     httpServer
	metricsServer  httpServer
	metricsStop    func(context.Context) error
	closeStore     func() error
}

// New constructs a server with default store and keepalive wiring.
func New(cfg config.Config, logger *slog.Logger) *Server {
	return newServerWithMetrics(cfg, logger, nil)
}

func newServerWithMetrics(cfg config.Config, logger *slog.Logger, recorder *metrics.Recorder) *Server {
	recorder, metricsSrv, metricsShutdown := buildMetrics(cfg, logger, recorder)

	st, closeStore := buildStore(cfg, logger)
	hub := notify.NewHub()
	keepalive := notify.NewKeepalive(hub, nil, logger, cfg.KeepaliveInterval)

	var archiver *archive.Writer
	if cfg.Archive.Enabled {
		archiver = archive.NewWriter(cfg.Archive.Dir, cfg.Archive.RetentionDays)
	}

	matchSvc := match.NewService(st, hub, recorder, logger, archiver)
	overlaySvc := overlay.NewService(st, hub, logger)
	httpSrv := buildHTTPServer(cfg, matchSvc, overlaySvc, st, logger, recorder)

	return &Server{
		cfg:            cfg,
		logger:         logger,
		metrics:        recorder,
		store:          st,
		matchService:   matchSvc,
		overlayService: overlaySvc,
		hub:            hub,
		keepalive:      keepalive,
		httpServer:     httpSrv,
		metricsServer:  metricsSrv,
		metricsStop:    metricsShutdown,
		closeStore:     closeStore,
	}
}

// newServerWithDeps is used for testing to inject custom components.
func newServerWithDeps(cfg config.Config, logger *slog.Logger, matchSvc *match.Service, httpSrv httpServer, keepalive *notify.Keepalive) *Server {
	return &Server{
		cfg:          cfg,
		logger:       logger,
		matchService: matchSvc,
		httpServer:   httpSrv,
		keepalive:    keepalive,
	}
}

// buildStore selects the persistence backend from configuration. Unknown
// drivers and connection failures fall back to the in-memory store so the
// service still comes up for local development.
func buildStore(cfg config.Config, logger *slog.Logger) (store.Store, func() error) {
	switch cfg.Database.Driver {
	case "sqlite", "postgres":
		db, err := sql.Open(cfg.Database.Driver, cfg.Database.URL)
		if err == nil {
			sqlStore := store.NewSQLStore(db, cfg.Database.Driver)
			if err = sqlStore.CreateSchema(context.Background()); err == nil {
				return store.NewRetryingStore(sqlStore, logger, 0, 0), db.Close
			}
			_ = db.Close()
		}
		if logger != nil {
			logger.Warn("database unavailable, falling back to memory store",
				slog.String("driver", cfg.Database.Driver), "error", err)
		}
	case "", "memory":
	default:
		if logger != nil {
			logger.Warn("unknown database driver, using memory store",
				slog.String("driver", cfg.Database.Driver))
		}
	}
	return store.NewMemoryStore(), nil
}

func buildHTTPServer(cfg config.Config, matchSvc *match.Service, overlaySvc *overlay.Service, st store.Store, logger *slog.Logger, recorder *metrics.Recorder) httpServer {
	handler := handlers.NewHandler(matchSvc, overlaySvc, st, recorder, logger)
	router := httpserver.NewRouter(handler)
	if logger == nil {
		logger = logging.NewLogger(logging.Config{})
	}
	wrapped := middleware.LoggingMiddleware(logger, recorder, router)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      wrapped,
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
		IdleTimeout:  idleTimeout,
	}

	return netHTTPServer{srv: srv}
}

// Run starts the keepalive loop and HTTP server, then waits for context
// cancellation to shut down gracefully.
func (s *Server) Run(ctx context.Context, stop context.CancelFunc) {
	s.startMetrics()
	s.startServer(stop)
	if s.keepalive != nil {
		s.keepalive.Start(ctx)
	}

	<-ctx.Done()
	if s.logger != nil {
		s.logger.Info("shutdown signal received")
	}

	s.gracefulShutdown()
}

func (s *Server) startServer(stop context.CancelFunc) {
	if s.logger != nil {
		s.logger.Info("http server starting", slog.String("addr", s.httpServer.Addr()))
	}
	launchServer("http", s.httpServer, s.logger, func(err error) {
		if stop != nil {
			stop()
		}
	})
}

func (s *Server) startMetrics() {
	if s.metricsServer == nil {
		return
	}
	if s.logger != nil {
		s.logger.Info("metrics server starting", slog.String("addr", s.metricsServer.Addr()))
	}
	launchServer("metrics", s.metricsServer, s.logger, nil)
}

func (s *Server) gracefulShutdown() {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if s.metricsStop != nil {
		if err := s.metricsStop(shutdownCtx); err != nil && s.logger != nil {
			s.logger.Warn("metrics shutdown failed", "error", err)
		}
	}

	if s.metricsServer != nil {
		if err := s.metricsServer.Shutdown(shutdownCtx); err != nil && s.logger != nil {
			s.logger.Warn("metrics server shutdown failed", "error", err)
		}
	}

	if s.keepalive != nil {
		if err := s.keepalive.Stop(shutdownCtx); err != nil && s.logger != nil {
			s.logger.Error("failed to stop keepalive", "error", err)
		}
	}

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil && s.logger != nil {
		s.logger.Error("graceful shutdown failed", "error", err)
	}

	if s.closeStore != nil {
		if err := s.closeStore(); err != nil && s.logger != nil {
			s.logger.Warn("store close failed", "error", err)
		}
	}

	if s.logger != nil {
		s.logger.Info("shutdown complete")
	}
}

func buildMetrics(cfg config.Config, logger *slog.Logger, recorder *metrics.Recorder) (*metrics.Recorder, httpServer, func(context.Context) error) {
	if recorder != nil {
		return recorder, nil, nil
	}

	recCfg := metrics.TelemetryConfig{
		Enabled:      cfg.Metrics.Enabled,
		Port:         cfg.Metrics.Port,
		ServiceName:  cfg.Metrics.ServiceName,
		OtlpEndpoint: cfg.Metrics.OtlpEndpoint,
		OtlpInsecure: cfg.Metrics.OtlpInsecure,
	}

	rec, handler, shutdown, err := metricsSetup(context.Background(), recCfg)
	if err != nil {
		if logger != nil {
			logger.Warn("metrics setup failed, continuing without telemetry", "err", err)
		}
		return metrics.NewRecorder(), nil, nil
	}

	var metricsSrv httpServer
	if handler != nil && recCfg.Enabled {
		metricsSrv = netHTTPServer{
			srv: &http.Server{
				Addr:    ":" + recCfg.Port,
				Handler: handler,
			},
		}
	}

	return rec, metricsSrv, shutdown
}

func launchServer(name string, srv httpServer, logger *slog.Logger, onError func(error)) {
	go func() {
		if logger != nil {
			logger.Info("starting "+name+" server", slog.String("addr", srv.Addr()))
		}
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			if logger != nil {
				logger.Warn(name+" server failed", "error", err)
			}
			if onError != nil {
				onError(err)
			}
		}
	}()
}

// Handler exposes the HTTP handler (useful for tests).
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler()
}
