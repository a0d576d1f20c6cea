// Package api implements the HTTP REST API and WebSocket endpoint for HomeSync Core.
//
// This package provides:
//   - REST endpoints for tenant devices, sensor history, limits and alerts
//   - The WebSocket handshake that binds a connection to one tenant
//   - Health, metrics and audit trail queries
//   - Middleware stack (request ID, logging, recovery, CORS, body limit)
//
// # Architecture
//
// Handlers are thin: they parse the request, call the control package and map
// its sentinel errors onto structured JSON errors. Mutations are broadcast to
// the tenant's WebSocket clients by the controller, not by the handlers.
//
// # Graceful Degradation
//
// MQTT, InfluxDB and the audit database are optional. The server answers reads
// and mutations without them; /audit returns 503 when the trail is disabled.
package api
