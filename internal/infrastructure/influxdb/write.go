package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// Measurement names.
const (
	MeasurementSensorReading = "sensor_reading"
	MeasurementSensorAlert   = "sensor_alert"
	MeasurementDeviceState   = "device_state"
)

// WriteSensorReading records one stored sensor sample.
//
//	client.WriteSensorReading("alice", "temperature", "°C", 21.5, time.UnixMilli(ts))
func (c *Client) WriteSensorReading(tenant, sensor, unit string, value float64, ts time.Time) {
	tags := map[string]string{
		"tenant": tenant,
		"sensor": sensor,
	}
	if unit != "" {
		tags["unit"] = unit
	}
	c.writePoint(write.NewPoint(
		MeasurementSensorReading,
		tags,
		map[string]any{"value": value},
		ts,
	))
}

// WriteAlert records an alert transition. kind is empty when the alert clears.
func (c *Client) WriteAlert(tenant, sensor, kind string, value float64, active bool, ts time.Time) {
	tags := map[string]string{
		"tenant": tenant,
		"sensor": sensor,
	}
	if kind != "" {
		tags["kind"] = kind
	}
	c.writePoint(write.NewPoint(
		MeasurementSensorAlert,
		tags,
		map[string]any{
			"value":  value,
			"active": active,
		},
		ts,
	))
}

// WriteDeviceState records a device's state after a mutation, together with
// its numeric attributes (brightness, targetTemp, speed, ...).
func (c *Client) WriteDeviceState(tenant, deviceID, deviceType, state string, numeric map[string]float64, ts time.Time) {
	fields := make(map[string]any, len(numeric)+1)
	for k, v := range numeric {
		fields[k] = v
	}
	fields["state"] = state

	c.writePoint(write.NewPoint(
		MeasurementDeviceState,
		map[string]string{
			"tenant": tenant,
			"device": deviceID,
			"type":   deviceType,
		},
		fields,
		ts,
	))
}
