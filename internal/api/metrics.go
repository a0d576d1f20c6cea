package api

import (
	"net/http"
	"runtime"
	"time"

	"github.com/nerrad567/homesync-core/internal/hub"
	"github.com/nerrad567/homesync-core/internal/ingest"
)

// SystemMetrics represents the complete system metrics response.
type SystemMetrics struct {
	Timestamp     string           `json:"timestamp"`
	Version       string           `json:"version"`
	UptimeSeconds int64            `json:"uptime_seconds"`
	Runtime       RuntimeMetrics   `json:"runtime"`
	WebSocket     hub.Stats        `json:"websocket"`
	MQTT          MQTTMetrics      `json:"mqtt"`
	Ingest        *ingest.Stats    `json:"ingest,omitempty"`
	Export        ExportMetrics    `json:"export"`
	Audit         *AuditMetrics    `json:"audit,omitempty"`
	Database      *DatabaseMetrics `json:"database,omitempty"`
}

// RuntimeMetrics contains Go runtime statistics.
type RuntimeMetrics struct {
	Goroutines    int     `json:"goroutines"`
	MemoryAllocMB float64 `json:"memory_alloc_mb"`
	MemoryTotalMB float64 `json:"memory_total_mb"`
	NumGC         uint32  `json:"num_gc"`
}

// MQTTMetrics contains MQTT client statistics.
type MQTTMetrics struct {
	Connected bool `json:"connected"`
}

// ExportMetrics reports the time-series export state.
type ExportMetrics struct {
	Enabled   bool `json:"enabled"`
	Connected bool `json:"connected"`
}

// AuditMetrics contains audit recorder counters.
type AuditMetrics struct {
	Written uint64 `json:"written"`
	Dropped uint64 `json:"dropped"`
}

// DatabaseMetrics contains database connection pool statistics.
type DatabaseMetrics struct {
	OpenConnections int   `json:"open_connections"`
	InUse           int   `json:"in_use"`
	Idle            int   `json:"idle"`
	WaitCount       int64 `json:"wait_count"`
}

// handleMetrics returns comprehensive system metrics.
func (s *Server) handleMetrics(w http.ResponseWriter, _ *http.Request) {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	metrics := SystemMetrics{
		Timestamp:     time.Now().UTC().Format(time.RFC3339),
		Version:       s.version,
		UptimeSeconds: int64(time.Since(s.startTime).Seconds()),
		Runtime: RuntimeMetrics{
			Goroutines:    runtime.NumGoroutine(),
			MemoryAllocMB: float64(memStats.Alloc) / 1024 / 1024,
			MemoryTotalMB: float64(memStats.TotalAlloc) / 1024 / 1024,
			NumGC:         memStats.NumGC,
		},
		WebSocket: s.hub.Stats(),
	}

	if s.mqtt != nil {
		metrics.MQTT = MQTTMetrics{
			Connected: s.mqtt.IsConnected(),
		}
	}

	if s.ingest != nil {
		stats := s.ingest.Stats()
		metrics.Ingest = &stats
	}

	if s.influx != nil {
		metrics.Export = ExportMetrics{
			Enabled:   true,
			Connected: s.influx.IsConnected(),
		}
	}

	if s.auditQueue != nil {
		metrics.Audit = &AuditMetrics{
			Written: s.auditQueue.Written(),
			Dropped: s.auditQueue.Dropped(),
		}
	}

	if s.db != nil {
		dbStats := s.db.Stats()
		metrics.Database = &DatabaseMetrics{
			OpenConnections: dbStats.OpenConnections,
			InUse:           dbStats.InUse,
			Idle:            dbStats.Idle,
			WaitCount:       dbStats.WaitCount,
		}
	}

	writeJSON(w, http.StatusOK, metrics)
}
