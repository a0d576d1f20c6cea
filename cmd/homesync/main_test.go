package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/nerrad567/homesync-core/internal/audit"
	"github.com/nerrad567/homesync-core/internal/infrastructure/config"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test-config.yaml")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	return path
}

// TestRun_InvalidConfig verifies run fails with an explicit but missing config path.
func TestRun_InvalidConfig(t *testing.T) {
	t.Setenv("HOMESYNC_CONFIG", "/nonexistent/path/config.yaml")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := run(ctx); err == nil {
		t.Fatal("run() should fail with invalid config path")
	}
}

// TestRun_InvalidValues verifies validation errors stop startup.
func TestRun_InvalidValues(t *testing.T) {
	path := writeConfig(t, `
mqtt:
  qos: 5
store:
  history_capacity: 0
`)
	t.Setenv("HOMESYNC_CONFIG", path)

	if err := run(context.Background()); err == nil {
		t.Fatal("run() should fail with invalid config values")
	}
}

// TestRun_MissingProvisioningFile verifies a bad provisioning path stops startup.
func TestRun_MissingProvisioningFile(t *testing.T) {
	path := writeConfig(t, `
store:
  provisioning_file: "/nonexistent/tenants.yaml"
logging:
  level: error
`)
	t.Setenv("HOMESYNC_CONFIG", path)

	if err := run(context.Background()); err == nil {
		t.Fatal("run() should fail when the provisioning file is missing")
	}
}

// TestRun_MQTTUnavailable verifies startup fails when the broker refuses connections.
func TestRun_MQTTUnavailable(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "audit.db")
	path := writeConfig(t, `
database:
  enabled: true
  path: "`+dbPath+`"
mqtt:
  broker:
    host: "127.0.0.1"
    port: 19999
    client_id: "test-client"
logging:
  level: error
`)
	t.Setenv("HOMESYNC_CONFIG", path)

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := run(ctx); err == nil {
		t.Fatal("run() should fail without an MQTT broker")
	}
	if _, err := os.Stat(dbPath); err != nil {
		t.Errorf("audit database should have been created before MQTT: %v", err)
	}
}

// TestRun_SuccessfulStartupAndShutdown tests full startup with running services.
// Requires MQTT broker at 127.0.0.1:1883.
func TestRun_SuccessfulStartupAndShutdown(t *testing.T) {
	path := writeConfig(t, `
mqtt:
  broker:
    host: "127.0.0.1"
    port: 1883
    client_id: "test-successful-startup"
api:
  host: "127.0.0.1"
  port: 18089
logging:
  level: error
`)
	t.Setenv("HOMESYNC_CONFIG", path)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := run(ctx); err != nil {
		t.Logf("run() returned error: %v (may be due to missing MQTT broker)", err)
	}
}

// TestGetConfigPath_Default verifies default config path.
func TestGetConfigPath_Default(t *testing.T) {
	t.Setenv("HOMESYNC_CONFIG", "")

	if path := getConfigPath(); path != defaultConfigPath {
		t.Errorf("getConfigPath() = %q, want %q", path, defaultConfigPath)
	}
}

// TestGetConfigPath_EnvOverride verifies environment variable override.
func TestGetConfigPath_EnvOverride(t *testing.T) {
	expected := "/custom/path/config.yaml"
	t.Setenv("HOMESYNC_CONFIG", expected)

	if path := getConfigPath(); path != expected {
		t.Errorf("getConfigPath() = %q, want %q", path, expected)
	}
}

// TestLoadConfig_DefaultPathFallback verifies a missing default file yields defaults.
func TestLoadConfig_DefaultPathFallback(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := loadConfig(defaultConfigPath)
	if err != nil {
		t.Fatalf("loadConfig() error = %v", err)
	}
	if cfg.Store.HistoryCapacity != 250 {
		t.Errorf("HistoryCapacity = %d, want 250", cfg.Store.HistoryCapacity)
	}
}

// TestHealthCheck_AllOptionalNil verifies disabled dependencies are skipped.
func TestHealthCheck_AllOptionalNil(t *testing.T) {
	if err := healthCheck(context.Background(), nil, nil, nil); err != nil {
		t.Errorf("healthCheck() error = %v, want nil", err)
	}
}

// TestOpenAudit verifies the audit database is migrated and writable.
func TestOpenAudit(t *testing.T) {
	ctx := context.Background()
	db, repo, err := openAudit(ctx, config.DatabaseConfig{
		Enabled:     true,
		Path:        filepath.Join(t.TempDir(), "nested", "audit.db"),
		WALMode:     true,
		BusyTimeout: 1,
	})
	if err != nil {
		t.Fatalf("openAudit() error = %v", err)
	}
	defer db.Close()

	if err := db.HealthCheck(ctx); err != nil {
		t.Errorf("HealthCheck() error = %v", err)
	}

	entry := &audit.Entry{Tenant: "alice", Action: audit.ActionToggle, EntityType: audit.EntityDevice, EntityID: "smart_lock", Source: audit.SourceAPI}
	if err := repo.Create(ctx, entry); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	result, err := repo.List(ctx, audit.Filter{Tenant: "alice"})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if result.Total != 1 {
		t.Errorf("Total = %d, want 1", result.Total)
	}
}
