package influxdb

import "errors"

// Sentinel errors for InfluxDB export.
var (
	// ErrNotConnected indicates the client is not connected to InfluxDB.
	ErrNotConnected = errors.New("influxdb: not connected")

	// ErrConnectionFailed indicates the initial connection attempt failed.
	ErrConnectionFailed = errors.New("influxdb: connection failed")

	// ErrDisabled indicates export is switched off in configuration.
	ErrDisabled = errors.New("influxdb: disabled in configuration")
)
