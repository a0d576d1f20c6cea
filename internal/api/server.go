package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/nerrad567/homesync-core/internal/audit"
	"github.com/nerrad567/homesync-core/internal/control"
	"github.com/nerrad567/homesync-core/internal/hub"
	"github.com/nerrad567/homesync-core/internal/infrastructure/config"
	"github.com/nerrad567/homesync-core/internal/infrastructure/database"
	"github.com/nerrad567/homesync-core/internal/infrastructure/influxdb"
	"github.com/nerrad567/homesync-core/internal/infrastructure/logging"
	"github.com/nerrad567/homesync-core/internal/infrastructure/mqtt"
	"github.com/nerrad567/homesync-core/internal/ingest"
)

// gracefulShutdownTimeout is the maximum time to wait for in-flight requests
// to complete during shutdown.
const gracefulShutdownTimeout = 10 * time.Second

// IngestStats exposes ingestion counters for /metrics.
type IngestStats interface {
	Stats() ingest.Stats
}

// Deps holds the dependencies required by the API server.
// Controller, Hub and Logger are required; the rest may be nil.
type Deps struct {
	Config     config.APIConfig
	WS         config.WebSocketConfig
	Logger     *logging.Logger
	Controller *control.Controller
	Hub        *hub.Registry
	Ingest     IngestStats
	MQTT       *mqtt.Client
	Influx     *influxdb.Client
	AuditRepo  audit.Repository
	AuditQueue *audit.Recorder
	DB         *database.DB
	Version    string
}

// Server is the HTTP API and WebSocket server.
type Server struct {
	cfg        config.APIConfig
	wsCfg      config.WebSocketConfig
	logger     *logging.Logger
	ctrl       *control.Controller
	hub        *hub.Registry
	ingest     IngestStats
	mqtt       *mqtt.Client
	influx     *influxdb.Client
	auditRepo  audit.Repository
	auditQueue *audit.Recorder
	db         *database.DB
	version    string
	startTime  time.Time
	server     *http.Server
}

// New creates a server. It does not listen until Start is called.
func New(deps Deps) (*Server, error) {
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if deps.Controller == nil {
		return nil, fmt.Errorf("controller is required")
	}
	if deps.Hub == nil {
		return nil, fmt.Errorf("connection hub is required")
	}

	return &Server{
		cfg:        deps.Config,
		wsCfg:      deps.WS,
		logger:     deps.Logger,
		ctrl:       deps.Controller,
		hub:        deps.Hub,
		ingest:     deps.Ingest,
		mqtt:       deps.MQTT,
		influx:     deps.Influx,
		auditRepo:  deps.AuditRepo,
		auditQueue: deps.AuditQueue,
		db:         deps.DB,
		version:    deps.Version,
		startTime:  time.Now(),
	}, nil
}

// Handler returns the fully wired router.
func (s *Server) Handler() http.Handler {
	return s.buildRouter()
}

// Start launches the HTTP listener in a background goroutine.
func (s *Server) Start(_ context.Context) error {
	s.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port),
		Handler:           s.buildRouter(),
		ReadTimeout:       seconds(s.cfg.Timeouts.Read),
		ReadHeaderTimeout: seconds(s.cfg.Timeouts.Read),
		WriteTimeout:      seconds(s.cfg.Timeouts.Write),
		IdleTimeout:       seconds(s.cfg.Timeouts.Idle),
	}

	go func() {
		var err error
		if s.cfg.TLS.Enabled {
			s.logger.Info("API server starting with TLS", "address", s.server.Addr, "cert", s.cfg.TLS.CertFile)
			err = s.server.ListenAndServeTLS(s.cfg.TLS.CertFile, s.cfg.TLS.KeyFile)
		} else {
			s.logger.Info("API server starting", "address", s.server.Addr)
			err = s.server.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("API server error", "error", err)
		}
	}()

	return nil
}

// Close waits up to gracefulShutdownTimeout for in-flight requests.
// WebSocket clients are closed by the hub, not here.
func (s *Server) Close() error {
	if s.server == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer cancel()

	s.logger.Info("API server shutting down")
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down API server: %w", err)
	}
	return nil
}

// HealthCheck reports whether the listener has been started.
func (s *Server) HealthCheck(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("api health check: %w", err)
	}
	if s.server == nil {
		return fmt.Errorf("api server not started")
	}
	return nil
}

func seconds(n int) time.Duration {
	return time.Duration(n) * time.Second
}
