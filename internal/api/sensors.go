package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/homesync-core/internal/alert"
)

// handleListSensors returns a summary of every sensor series of the tenant.
func (s *Server) handleListSensors(w http.ResponseWriter, r *http.Request) {
	tenantID := chi.URLParam(r, "tenant")

	sensors, err := s.ctrl.Sensors(r.Context(), tenantID)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"tenant":  tenantID,
		"sensors": sensors,
		"count":   len(sensors),
	})
}

// handleSensorHistory returns the retained readings of one series, oldest first.
func (s *Server) handleSensorHistory(w http.ResponseWriter, r *http.Request) {
	tenantID := chi.URLParam(r, "tenant")
	name := chi.URLParam(r, "name")

	history, err := s.ctrl.History(r.Context(), tenantID, name)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"tenant":     tenantID,
		"sensorName": name,
		"history":    history,
		"count":      len(history),
	})
}

// handleListLimits returns every configured limit of the tenant.
func (s *Server) handleListLimits(w http.ResponseWriter, r *http.Request) {
	tenantID := chi.URLParam(r, "tenant")

	limits, err := s.ctrl.Limits(r.Context(), tenantID)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"tenant": tenantID,
		"limits": limits,
	})
}

// handleGetLimit returns the limit of one series.
func (s *Server) handleGetLimit(w http.ResponseWriter, r *http.Request) {
	tenantID := chi.URLParam(r, "tenant")
	name := chi.URLParam(r, "name")

	limit, err := s.ctrl.Limit(r.Context(), tenantID, name)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"tenant":     tenantID,
		"sensorName": name,
		"limits":     limit,
	})
}

// handleUpdateLimit merges a partial limit into the series' limit.
// Absent keys are left untouched; "min": null and "max": null unset a bound.
func (s *Server) handleUpdateLimit(w http.ResponseWriter, r *http.Request) {
	tenantID := chi.URLParam(r, "tenant")
	name := chi.URLParam(r, "name")

	var raw map[string]json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	patch, err := parseLimitPatch(raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, ErrCodeValidation, err.Error())
		return
	}

	limit, err := s.ctrl.UpdateLimit(r.Context(), tenantID, name, patch)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":    true,
		"tenant":     tenantID,
		"sensorName": name,
		"limits":     limit,
	})
}

// handleListAlerts returns the tenant's active alerts keyed by sensor.
func (s *Server) handleListAlerts(w http.ResponseWriter, r *http.Request) {
	tenantID := chi.URLParam(r, "tenant")

	alerts, err := s.ctrl.ActiveAlerts(r.Context(), tenantID)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"tenant": tenantID,
		"alerts": alerts,
		"count":  len(alerts),
	})
}

// parseLimitPatch turns a raw JSON object into a LimitPatch, keeping the
// difference between an absent key and an explicit null.
func parseLimitPatch(raw map[string]json.RawMessage) (alert.LimitPatch, error) {
	var patch alert.LimitPatch

	bound := func(key string, value **float64, clear *bool) error {
		msg, ok := raw[key]
		if !ok {
			return nil
		}
		if string(msg) == "null" {
			*clear = true
			return nil
		}
		var v float64
		if err := json.Unmarshal(msg, &v); err != nil {
			return fmt.Errorf("%s must be a number or null", key)
		}
		*value = &v
		return nil
	}

	if err := bound("min", &patch.Min, &patch.ClearMin); err != nil {
		return patch, err
	}
	if err := bound("max", &patch.Max, &patch.ClearMax); err != nil {
		return patch, err
	}

	if msg, ok := raw["enabled"]; ok {
		var enabled bool
		if err := json.Unmarshal(msg, &enabled); err != nil {
			return patch, fmt.Errorf("enabled must be a boolean")
		}
		patch.Enabled = &enabled
	}

	return patch, nil
}
