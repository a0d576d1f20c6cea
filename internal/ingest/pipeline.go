package ingest

import (
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/nerrad567/homesync-core/internal/alert"
	"github.com/nerrad567/homesync-core/internal/audit"
	"github.com/nerrad567/homesync-core/internal/hub"
	"github.com/nerrad567/homesync-core/internal/infrastructure/mqtt"
	"github.com/nerrad567/homesync-core/internal/tenant"
)

// Logger defines the logging interface used by the Pipeline.
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

// Subscriber is the part of the MQTT client the pipeline needs.
type Subscriber interface {
	Subscribe(topic string, qos byte, handler mqtt.MessageHandler) error
}

// Broadcaster delivers an event to a tenant's live connections.
type Broadcaster interface {
	Broadcast(tenant string, ev hub.Event) int
}

// Exporter receives stored readings and alert transitions.
type Exporter interface {
	WriteSensorReading(tenant, sensor, unit string, value float64, ts time.Time)
	WriteAlert(tenant, sensor, kind string, value float64, active bool, ts time.Time)
}

// Recorder receives audit entries.
type Recorder interface {
	Record(entry audit.Entry)
}

// Options configures a Pipeline. Only Topics is required.
type Options struct {
	Topics   mqtt.SensorTopics
	Exporter Exporter
	Recorder Recorder
	Logger   Logger
}

// Stats counts what happened to received messages.
type Stats struct {
	Received      uint64 `json:"received"`
	Stored        uint64 `json:"stored"`
	Malformed     uint64 `json:"malformed"`
	Unaddressable uint64 `json:"unaddressable"`
	AlertsRaised  uint64 `json:"alerts_raised"`
	AlertsCleared uint64 `json:"alerts_cleared"`
}

// SensorData is the payload of a sensor_data event.
type SensorData struct {
	Topic   string         `json:"topic"`
	Sensor  string         `json:"sensor"`
	Reading tenant.Reading `json:"reading"`
}

// AlertCleared is the payload of an alert_cleared event.
type AlertCleared struct {
	Sensor string  `json:"sensor"`
	Value  float64 `json:"value"`
}

// Pipeline ingests sensor readings into a Store.
//
// Handle must be called for one series at a time in arrival order for the
// history of that series to keep arrival order. The MQTT client does this
// with ordered delivery.
type Pipeline struct {
	store    *tenant.Store
	hub      Broadcaster
	topics   mqtt.SensorTopics
	exporter Exporter
	recorder Recorder
	logger   Logger
	now      func() time.Time

	received      atomic.Uint64
	stored        atomic.Uint64
	malformed     atomic.Uint64
	unaddressable atomic.Uint64
	raised        atomic.Uint64
	cleared       atomic.Uint64
}

// New creates a pipeline writing to store and broadcasting through b.
func New(store *tenant.Store, b Broadcaster, opts Options) *Pipeline {
	logger := opts.Logger
	if logger == nil {
		logger = noopLogger{}
	}
	return &Pipeline{
		store:    store,
		hub:      b,
		topics:   opts.Topics,
		exporter: opts.Exporter,
		recorder: opts.Recorder,
		logger:   logger,
		now:      time.Now,
	}
}

// Start subscribes to every tenant's sensor topics.
func (p *Pipeline) Start(sub Subscriber, qos byte) error {
	topic := p.topics.Wildcard()
	if err := sub.Subscribe(topic, qos, p.handleMessage); err != nil {
		return fmt.Errorf("subscribing to %s: %w", topic, err)
	}
	p.logger.Info("sensor ingestion started", "topic", topic, "qos", qos)
	return nil
}

// handleMessage is the subscription callback. Discards are expected
// traffic, so they are logged here and never reported to the transport.
func (p *Pipeline) handleMessage(topic string, payload []byte) error {
	err := p.Handle(topic, payload)
	switch {
	case err == nil:
	case errors.Is(err, ErrMalformed), errors.Is(err, ErrUnaddressable):
		p.logger.Debug("sensor message discarded", "topic", topic, "error", err)
	default:
		return err
	}
	return nil
}

// Handle processes one message. It returns ErrMalformed or
// ErrUnaddressable when the message is discarded.
func (p *Pipeline) Handle(topic string, data []byte) error {
	p.received.Add(1)

	tenantID, sensor, ok := p.topics.Parse(topic)
	if !ok {
		p.unaddressable.Add(1)
		return fmt.Errorf("%w: %s", ErrUnaddressable, topic)
	}

	unit, ok := p.store.SeriesUnit(tenantID, sensor)
	if !ok {
		p.unaddressable.Add(1)
		p.recordDiscard(tenantID, sensor, "unknown series")
		return fmt.Errorf("%w: %s/%s", ErrUnaddressable, tenantID, sensor)
	}

	reading, err := decode(data, unit, p.now().UnixMilli())
	if err != nil {
		p.malformed.Add(1)
		p.recordDiscard(tenantID, sensor, err.Error())
		return err
	}

	var (
		stored     bool
		transition alertTransition
	)
	err = p.store.Commit(tenantID, func() error {
		if stored = p.store.AppendReading(tenantID, sensor, reading); !stored {
			return nil
		}
		p.hub.Broadcast(tenantID, hub.Event{
			Kind:    hub.EventSensorData,
			Payload: SensorData{Topic: topic, Sensor: sensor, Reading: reading},
		})
		transition = p.evaluate(tenantID, sensor, reading.Value)
		return nil
	})
	if err != nil || !stored {
		p.unaddressable.Add(1)
		return fmt.Errorf("%w: %s/%s", ErrUnaddressable, tenantID, sensor)
	}
	p.stored.Add(1)

	ts := time.UnixMilli(reading.Timestamp)
	if p.exporter != nil {
		p.exporter.WriteSensorReading(tenantID, sensor, reading.Unit, reading.Value, ts)
	}
	p.reportTransition(tenantID, sensor, reading.Value, ts, transition)
	return nil
}

// alertTransition is the outcome of evaluating one reading.
type alertTransition struct {
	raised  *alert.Alert
	cleared bool
}

// evaluate updates the active alert of the series and broadcasts the
// transition. It runs under the tenant's commit lock. A series without a
// configured limit never alerts.
func (p *Pipeline) evaluate(tenantID, sensor string, value float64) alertTransition {
	limit, err := p.store.Limit(tenantID, sensor)
	if err != nil {
		limit = alert.Limit{}
	}

	raised := alert.Evaluate(sensor, limit, value)
	if raised == nil {
		if !p.store.ClearAlert(tenantID, sensor) {
			return alertTransition{}
		}
		p.hub.Broadcast(tenantID, hub.Event{
			Kind:    hub.EventAlertCleared,
			Payload: AlertCleared{Sensor: sensor, Value: value},
		})
		return alertTransition{cleared: true}
	}

	if err := p.store.SetAlert(tenantID, sensor, *raised); err != nil {
		p.logger.Error("recording sensor alert failed", "tenant", tenantID, "sensor", sensor, "error", err)
		return alertTransition{}
	}
	p.hub.Broadcast(tenantID, hub.Event{
		Kind:    hub.EventSensorAlert,
		Payload: *raised,
	})
	return alertTransition{raised: raised}
}

// reportTransition counts, logs, exports and audits an alert transition.
func (p *Pipeline) reportTransition(tenantID, sensor string, value float64, ts time.Time, tr alertTransition) {
	switch {
	case tr.cleared:
		p.cleared.Add(1)
		p.logger.Info("sensor alert cleared", "tenant", tenantID, "sensor", sensor, "value", value)
		if p.exporter != nil {
			p.exporter.WriteAlert(tenantID, sensor, "", value, false, ts)
		}
		p.record(tenantID, audit.ActionClear, sensor, map[string]any{"value": value})

	case tr.raised != nil:
		raised := tr.raised
		p.raised.Add(1)
		p.logger.Warn("sensor alert", "tenant", tenantID, "sensor", sensor, "message", raised.Message)
		if p.exporter != nil {
			p.exporter.WriteAlert(tenantID, sensor, string(raised.Kind), value, true, ts)
		}
		p.record(tenantID, audit.ActionAlert, sensor, map[string]any{
			"kind":    string(raised.Kind),
			"value":   value,
			"limit":   raised.Limit,
			"message": raised.Message,
		})
	}
}

func (p *Pipeline) recordDiscard(tenantID, sensor, reason string) {
	if !p.store.HasTenant(tenantID) {
		return
	}
	p.record(tenantID, audit.ActionDiscard, sensor, map[string]any{"reason": reason})
}

func (p *Pipeline) record(tenantID, action, sensor string, details map[string]any) {
	if p.recorder == nil {
		return
	}
	p.recorder.Record(audit.Entry{
		Tenant:     tenantID,
		Action:     action,
		EntityType: audit.EntitySensor,
		EntityID:   sensor,
		Source:     audit.SourceIngest,
		Details:    details,
	})
}

// Stats returns the current counters.
func (p *Pipeline) Stats() Stats {
	return Stats{
		Received:      p.received.Load(),
		Stored:        p.stored.Load(),
		Malformed:     p.malformed.Load(),
		Unaddressable: p.unaddressable.Load(),
		AlertsRaised:  p.raised.Load(),
		AlertsCleared: p.cleared.Load(),
	}
}
