package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/homesync-core/internal/tenant"
)

// decodeObject reads a JSON object body into a field map.
func decodeObject(r *http.Request) (map[string]any, error) {
	var fields map[string]any
	if err := json.NewDecoder(r.Body).Decode(&fields); err != nil {
		return nil, err
	}
	if fields == nil {
		fields = map[string]any{}
	}
	return fields, nil
}

// handleListDevices returns every device of the tenant keyed by ID.
func (s *Server) handleListDevices(w http.ResponseWriter, r *http.Request) {
	tenantID := chi.URLParam(r, "tenant")

	devices, err := s.ctrl.Devices(r.Context(), tenantID)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"tenant":  tenantID,
		"devices": devices,
		"count":   len(devices),
	})
}

// handleListDevicesByType returns the tenant's devices of one type.
// An unrecognised type yields an empty set.
func (s *Server) handleListDevicesByType(w http.ResponseWriter, r *http.Request) {
	tenantID := chi.URLParam(r, "tenant")
	deviceType := chi.URLParam(r, "type")

	devices, err := s.ctrl.DevicesByType(r.Context(), tenantID, deviceType)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"tenant":     tenantID,
		"deviceType": deviceType,
		"devices":    devices,
		"count":      len(devices),
	})
}

// handleGetDevice returns a single device.
func (s *Server) handleGetDevice(w http.ResponseWriter, r *http.Request) {
	tenantID := chi.URLParam(r, "tenant")
	deviceID := chi.URLParam(r, "id")

	dev, err := s.ctrl.Device(r.Context(), tenantID, deviceID)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"tenant":   tenantID,
		"deviceId": deviceID,
		"device":   dev,
	})
}

// handleCreateDevice adds a device. The body carries deviceId plus the
// device fields (type, name, optional state and attributes).
func (s *Server) handleCreateDevice(w http.ResponseWriter, r *http.Request) {
	tenantID := chi.URLParam(r, "tenant")

	fields, err := decodeObject(r)
	if err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	deviceID, _ := fields["deviceId"].(string)
	if deviceID == "" {
		writeError(w, http.StatusBadRequest, ErrCodeValidation, "deviceId is required")
		return
	}
	delete(fields, "deviceId")

	dev, err := s.ctrl.Create(r.Context(), tenantID, deviceID, fields)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"success":  true,
		"tenant":   tenantID,
		"deviceId": deviceID,
		"device":   dev,
	})
}

// handleUpdateDevice merges the body into the device.
func (s *Server) handleUpdateDevice(w http.ResponseWriter, r *http.Request) {
	tenantID := chi.URLParam(r, "tenant")
	deviceID := chi.URLParam(r, "id")

	fields, err := decodeObject(r)
	if err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	dev, err := s.ctrl.Update(r.Context(), tenantID, deviceID, fields)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	s.writeDeviceResult(w, tenantID, deviceID, dev)
}

// handleSetDeviceState changes a device's state. A body holding only
// {"state": ...} is a pure state change; extra keys are merged as attributes.
func (s *Server) handleSetDeviceState(w http.ResponseWriter, r *http.Request) {
	tenantID := chi.URLParam(r, "tenant")
	deviceID := chi.URLParam(r, "id")

	fields, err := decodeObject(r)
	if err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	state, ok := fields["state"]
	if !ok {
		writeError(w, http.StatusBadRequest, ErrCodeValidation, "state is required")
		return
	}

	var dev *tenant.Device
	if len(fields) == 1 {
		dev, err = s.ctrl.SetState(r.Context(), tenantID, deviceID, state)
	} else {
		dev, err = s.ctrl.Update(r.Context(), tenantID, deviceID, fields)
	}
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	s.writeDeviceResult(w, tenantID, deviceID, dev)
}

// handleToggleDevice flips a device between its two states.
func (s *Server) handleToggleDevice(w http.ResponseWriter, r *http.Request) {
	tenantID := chi.URLParam(r, "tenant")
	deviceID := chi.URLParam(r, "id")

	dev, err := s.ctrl.Toggle(r.Context(), tenantID, deviceID)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	s.writeDeviceResult(w, tenantID, deviceID, dev)
}

// handleDeleteDevice removes a device.
func (s *Server) handleDeleteDevice(w http.ResponseWriter, r *http.Request) {
	tenantID := chi.URLParam(r, "tenant")
	deviceID := chi.URLParam(r, "id")

	if err := s.ctrl.Delete(r.Context(), tenantID, deviceID); err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":  true,
		"tenant":   tenantID,
		"deviceId": deviceID,
	})
}

func (s *Server) writeDeviceResult(w http.ResponseWriter, tenantID, deviceID string, dev *tenant.Device) {
	writeJSON(w, http.StatusOK, map[string]any{
		"success":  true,
		"tenant":   tenantID,
		"deviceId": deviceID,
		"device":   dev,
	})
}
