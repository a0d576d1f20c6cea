package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// apiWSPath is the WebSocket route under /api/v1.
const apiWSPath = "/api/v1/ws"

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.corsMiddleware)
	r.Use(s.bodySizeLimitMiddleware)

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeNotFound(w, "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, ErrCodeMethodNotAllow, "method not allowed")
	})

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/metrics", s.handleMetrics)
		r.Get("/ws", s.handleWebSocket)

		r.Route("/tenants/{tenant}", func(r chi.Router) {
			r.Route("/devices", func(r chi.Router) {
				r.Get("/", s.handleListDevices)
				r.Post("/", s.handleCreateDevice)
				r.Get("/type/{type}", s.handleListDevicesByType)

				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", s.handleGetDevice)
					r.Patch("/", s.handleUpdateDevice)
					r.Delete("/", s.handleDeleteDevice)
					r.Post("/state", s.handleSetDeviceState)
					r.Post("/toggle", s.handleToggleDevice)
				})
			})

			r.Route("/sensors", func(r chi.Router) {
				r.Get("/", s.handleListSensors)
				r.Get("/{name}/history", s.handleSensorHistory)
				r.Get("/{name}/limits", s.handleGetLimit)
				r.Post("/{name}/limits", s.handleUpdateLimit)
				r.Patch("/{name}/limits", s.handleUpdateLimit)
			})

			r.Get("/limits", s.handleListLimits)
			r.Get("/alerts", s.handleListAlerts)
			r.Get("/audit", s.handleListAudit)
		})
	})

	// Configured WebSocket path, unless it collides with the versioned route.
	if p := s.wsCfg.Path; p != "" && p != apiWSPath {
		r.Get(p, s.handleWebSocket)
	}

	return r
}

// handleHealth reports the status of the server and its optional dependencies.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	checks := map[string]string{}
	status := "ok"

	if s.mqtt != nil {
		if s.mqtt.IsConnected() {
			checks["mqtt"] = "connected"
		} else {
			checks["mqtt"] = "disconnected"
			status = "degraded"
		}
	}
	if s.influx != nil {
		if s.influx.IsConnected() {
			checks["influxdb"] = "connected"
		} else {
			checks["influxdb"] = "disconnected"
			status = "degraded"
		}
	}
	if s.db != nil {
		if err := s.db.HealthCheck(r.Context()); err != nil {
			checks["database"] = err.Error()
			status = "degraded"
		} else {
			checks["database"] = "ok"
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":  status,
		"version": s.version,
		"tenants": s.ctrl.Store().Tenants(),
		"checks":  checks,
	})
}
