// HomeSync Core - multi-tenant smart-home state hub
//
// This is the main entry point for the HomeSync Core service. It:
//   - Keeps per-tenant devices, sensor history, limits and alerts in memory
//   - Ingests sensor readings from MQTT and evaluates them against limits
//   - Serves the REST API and pushes every change to WebSocket clients
//   - Optionally exports to InfluxDB and records an audit trail in SQLite
package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/nerrad567/homesync-core/internal/api"
	"github.com/nerrad567/homesync-core/internal/audit"
	"github.com/nerrad567/homesync-core/internal/control"
	"github.com/nerrad567/homesync-core/internal/hub"
	"github.com/nerrad567/homesync-core/internal/infrastructure/config"
	"github.com/nerrad567/homesync-core/internal/infrastructure/database"
	"github.com/nerrad567/homesync-core/internal/infrastructure/influxdb"
	"github.com/nerrad567/homesync-core/internal/infrastructure/logging"
	"github.com/nerrad567/homesync-core/internal/infrastructure/mqtt"
	"github.com/nerrad567/homesync-core/internal/ingest"
	"github.com/nerrad567/homesync-core/internal/provisioning"
	"github.com/nerrad567/homesync-core/internal/tenant"
	"github.com/nerrad567/homesync-core/migrations"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"     // Semantic version (e.g., "1.0.0")
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

// auditQueueSize is the number of audit entries buffered ahead of SQLite.
const auditQueueSize = 256

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main for testability.
// It returns nil on clean shutdown.
func run(ctx context.Context) error {
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting HomeSync Core",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	configPath := getConfigPath()
	cfg, err := loadConfig(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", configPath)

	log = logging.New(cfg.Logging, version)
	log.Info("logger initialised",
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
		"output", cfg.Logging.Output,
	)

	// Tenant state
	seed, err := provisioning.Load(cfg.Store.ProvisioningFile)
	if err != nil {
		return fmt.Errorf("loading provisioning: %w", err)
	}
	store, err := tenant.New(seed, cfg.Store.HistoryCapacity)
	if err != nil {
		return fmt.Errorf("building tenant store: %w", err)
	}
	log.Info("tenants provisioned",
		"tenants", store.Tenants(),
		"history_capacity", store.HistoryCapacity(),
	)

	// Connection hub
	registry := hub.NewRegistry(store, hub.Options{
		MaxConnectionsPerTenant: cfg.WebSocket.MaxConnectionsPerTenant,
		Logger:                  log,
	})
	hubCtx, stopHub := context.WithCancel(context.Background())
	defer stopHub()
	go registry.Run(hubCtx)

	// Audit trail (optional)
	var (
		db            *database.DB
		auditRepo     *audit.SQLiteRepository
		auditRecorder *audit.Recorder
	)
	if cfg.Database.Enabled {
		db, auditRepo, err = openAudit(ctx, cfg.Database)
		if err != nil {
			return err
		}
		defer func() {
			log.Info("closing database")
			if closeErr := db.Close(); closeErr != nil {
				log.Error("error closing database", "error", closeErr)
			}
		}()
		log.Info("audit database ready", "path", db.Path())

		auditRecorder = audit.NewRecorder(auditRepo, auditQueueSize, log)
		auditCtx, stopAudit := context.WithCancel(context.Background())
		var auditWG sync.WaitGroup
		auditWG.Add(1)
		go func() {
			defer auditWG.Done()
			auditRecorder.Run(auditCtx)
		}()
		// Runs before the database is closed, draining queued entries.
		defer func() {
			stopAudit()
			auditWG.Wait()
		}()
	} else {
		log.Info("audit trail disabled")
	}

	// InfluxDB export (optional)
	var influxClient *influxdb.Client
	if cfg.InfluxDB.Enabled {
		influxClient, err = influxdb.Connect(cfg.InfluxDB)
		if err != nil {
			return fmt.Errorf("connecting to InfluxDB: %w", err)
		}
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		influxClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})
		log.Info("InfluxDB connected",
			"url", cfg.InfluxDB.URL,
			"org", cfg.InfluxDB.Org,
			"bucket", cfg.InfluxDB.Bucket,
		)
	} else {
		log.Info("InfluxDB disabled")
	}

	// MQTT broker
	mqttClient, err := mqtt.Connect(cfg.MQTT)
	if err != nil {
		return fmt.Errorf("connecting to MQTT: %w", err)
	}
	defer func() {
		log.Info("disconnecting from MQTT")
		if closeErr := mqttClient.Close(); closeErr != nil {
			log.Error("error closing MQTT", "error", closeErr)
		}
	}()
	mqttClient.SetLogger(log)
	mqttClient.SetOnConnect(func() {
		log.Info("MQTT reconnected")
	})
	mqttClient.SetOnDisconnect(func(err error) {
		log.Warn("MQTT disconnected", "error", err)
	})
	log.Info("MQTT connected",
		"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
		"client_id", cfg.MQTT.Broker.ClientID,
	)

	// Ingestion
	ingestOpts := ingest.Options{
		Topics: mqtt.NewSensorTopics(cfg.MQTT.TopicPrefix),
		Logger: log.With("component", "ingest"),
	}
	if influxClient != nil {
		ingestOpts.Exporter = influxClient
	}
	if auditRecorder != nil {
		ingestOpts.Recorder = auditRecorder
	}
	pipeline := ingest.New(store, registry, ingestOpts)
	if err := pipeline.Start(mqttClient, byte(cfg.MQTT.QoS)); err != nil {
		return fmt.Errorf("starting ingestion: %w", err)
	}

	// Device control
	ctrlOpts := control.Options{Logger: log.With("component", "control")}
	if influxClient != nil {
		ctrlOpts.Exporter = influxClient
	}
	if auditRecorder != nil {
		ctrlOpts.Recorder = auditRecorder
	}
	ctrl := control.New(store, registry, ctrlOpts)

	// HTTP API + WebSocket
	deps := api.Deps{
		Config:     cfg.API,
		WS:         cfg.WebSocket,
		Logger:     log,
		Controller: ctrl,
		Hub:        registry,
		Ingest:     pipeline,
		MQTT:       mqttClient,
		Influx:     influxClient,
		AuditQueue: auditRecorder,
		DB:         db,
		Version:    version,
	}
	if auditRepo != nil {
		deps.AuditRepo = auditRepo
	}
	server, err := api.New(deps)
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}
	if err := server.Start(ctx); err != nil {
		return fmt.Errorf("starting API server: %w", err)
	}
	defer func() {
		if closeErr := server.Close(); closeErr != nil {
			log.Error("error closing API server", "error", closeErr)
		}
	}()

	if err := healthCheck(ctx, db, mqttClient, influxClient); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	log.Info("all health checks passed")

	log.Info("initialisation complete, waiting for shutdown signal")
	<-ctx.Done()
	log.Info("shutdown signal received, cleaning up")

	// Deferred calls run in reverse order: API server, MQTT, InfluxDB,
	// audit recorder drain, database, hub.
	stats := pipeline.Stats()
	log.Info("ingestion totals",
		"received", stats.Received,
		"stored", stats.Stored,
		"malformed", stats.Malformed,
		"unaddressable", stats.Unaddressable,
	)
	log.Info("HomeSync Core stopped")
	return nil
}

// getConfigPath returns the configuration file path.
// Uses HOMESYNC_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("HOMESYNC_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// loadConfig reads the config file. A missing file at the default path falls
// back to built-in defaults; an explicitly configured path must exist.
func loadConfig(path string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil && path == defaultConfigPath && errors.Is(err, fs.ErrNotExist) {
		return config.Default()
	}
	return cfg, err
}

// openAudit opens the audit database and applies the embedded migrations.
func openAudit(ctx context.Context, cfg config.DatabaseConfig) (*database.DB, *audit.SQLiteRepository, error) {
	db, err := database.Open(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("opening database: %w", err)
	}
	if err := db.Migrate(ctx, migrations.FS); err != nil {
		db.Close() //nolint:errcheck // Best effort cleanup on error path
		return nil, nil, fmt.Errorf("running migrations: %w", err)
	}
	return db, audit.NewSQLiteRepository(db.DB), nil
}

// healthCheck verifies the infrastructure connections. db and influxClient
// may be nil when disabled.
func healthCheck(ctx context.Context, db *database.DB, mqttClient *mqtt.Client, influxClient *influxdb.Client) error {
	if db != nil {
		if err := db.HealthCheck(ctx); err != nil {
			return fmt.Errorf("database: %w", err)
		}
	}

	if mqttClient != nil {
		if err := mqttClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("mqtt: %w", err)
		}
	}

	if influxClient != nil {
		if err := influxClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("influxdb: %w", err)
		}
	}

	return nil
}
