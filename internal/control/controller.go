package control

import (
	"context"
	"time"

	"github.com/nerrad567/homesync-core/internal/alert"
	"github.com/nerrad567/homesync-core/internal/audit"
	"github.com/nerrad567/homesync-core/internal/hub"
	"github.com/nerrad567/homesync-core/internal/tenant"
)

// Logger defines the logging interface used by the Controller.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Broadcaster delivers an event to a tenant's live connections.
type Broadcaster interface {
	Broadcast(tenant string, ev hub.Event) int
}

// Exporter receives device state after each mutation.
type Exporter interface {
	WriteDeviceState(tenant, deviceID, deviceType, state string, numeric map[string]float64, ts time.Time)
}

// Recorder receives audit entries.
type Recorder interface {
	Record(entry audit.Entry)
}

// Options configures a Controller. All fields are optional.
type Options struct {
	Exporter Exporter
	Recorder Recorder
	Logger   Logger
}

// DeviceDeleted is the payload of a device_deleted event.
type DeviceDeleted struct {
	DeviceID string `json:"deviceId"`
}

// LimitsUpdated is the payload of a limits_updated event.
type LimitsUpdated struct {
	Sensor string      `json:"sensorName"`
	Limit  alert.Limit `json:"limits"`
}

// Controller applies device and limit changes to a Store.
type Controller struct {
	store    *tenant.Store
	hub      Broadcaster
	exporter Exporter
	recorder Recorder
	logger   Logger
}

// New creates a controller over store broadcasting through b.
func New(store *tenant.Store, b Broadcaster, opts Options) *Controller {
	logger := opts.Logger
	if logger == nil {
		logger = noopLogger{}
	}
	return &Controller{
		store:    store,
		hub:      b,
		exporter: opts.Exporter,
		recorder: opts.Recorder,
		logger:   logger,
	}
}

// Store returns the underlying tenant store.
func (c *Controller) Store() *tenant.Store {
	return c.store
}

func (c *Controller) record(tenantID, action, entityType, entityID string, details map[string]any) {
	if c.recorder == nil {
		return
	}
	c.recorder.Record(audit.Entry{
		Tenant:     tenantID,
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		Source:     audit.SourceAPI,
		Details:    details,
	})
}

// =============================================================================
// Read operations
// =============================================================================

// Devices lists every device of the tenant.
func (c *Controller) Devices(ctx context.Context, tenantID string) (map[string]*tenant.Device, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return c.store.Devices(tenantID)
}

// Device returns one device.
func (c *Controller) Device(ctx context.Context, tenantID, deviceID string) (*tenant.Device, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return c.store.Device(tenantID, deviceID)
}

// DevicesByType lists the tenant's devices of one type. An unknown type
// yields an empty map.
func (c *Controller) DevicesByType(ctx context.Context, tenantID, deviceType string) (map[string]*tenant.Device, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return c.store.DevicesByType(tenantID, tenant.DeviceType(deviceType))
}

// Sensors summarises the tenant's sensor series.
func (c *Controller) Sensors(ctx context.Context, tenantID string) ([]tenant.SensorInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return c.store.Sensors(tenantID)
}

// History returns the bounded history of one series, oldest first.
func (c *Controller) History(ctx context.Context, tenantID, sensor string) ([]tenant.Reading, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return c.store.History(tenantID, sensor)
}

// Limits returns every configured limit of the tenant.
func (c *Controller) Limits(ctx context.Context, tenantID string) (map[string]alert.Limit, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return c.store.Limits(tenantID)
}

// Limit returns the limit of one series.
func (c *Controller) Limit(ctx context.Context, tenantID, sensor string) (alert.Limit, error) {
	if err := ctx.Err(); err != nil {
		return alert.Limit{}, err
	}
	return c.store.Limit(tenantID, sensor)
}

// ActiveAlerts returns the tenant's currently raised alerts.
func (c *Controller) ActiveAlerts(ctx context.Context, tenantID string) (map[string]alert.Alert, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return c.store.ActiveAlerts(tenantID)
}
