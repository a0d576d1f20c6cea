package tenant

import (
	"encoding/json"
	"fmt"
	"strings"
)

// maxNameLength bounds device names.
const maxNameLength = 100

// buildDevice validates creation data and returns a new device with its
// initial state resolved. LastUpdated is left for the caller to stamp.
func buildDevice(id string, fields map[string]any) (*Device, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, fmt.Errorf("%w: device id is required", ErrInvalidDevice)
	}

	rawType, _ := fields[fieldType].(string)
	if rawType == "" {
		return nil, fmt.Errorf("%w: type is required", ErrInvalidDevice)
	}
	dt := DeviceType(rawType)
	if !dt.Valid() {
		return nil, fmt.Errorf("%w: unknown type %q", ErrInvalidDevice, rawType)
	}

	name, err := parseName(fields[fieldName])
	if err != nil {
		return nil, err
	}

	d := &Device{
		ID:         id,
		Type:       dt,
		Name:       name,
		State:      dt.InitialState(),
		Attributes: make(map[string]any),
	}

	if raw, ok := fields[fieldState]; ok && raw != nil {
		state, err := parseState(dt, raw)
		if err != nil {
			return nil, err
		}
		d.State = state
	}

	for key, raw := range fields {
		if isReserved(key) || raw == nil {
			continue
		}
		v, err := normalizeAttribute(dt, key, raw)
		if err != nil {
			return nil, err
		}
		d.Attributes[key] = v
	}

	return d, nil
}

// applyPatch merges fields into a copy of d. The id key is ignored; type and
// lastUpdated may only repeat the current value. A nil attribute value
// removes the attribute. Nothing is applied unless every field validates.
func applyPatch(d *Device, fields map[string]any) (*Device, error) {
	next := d.DeepCopy()
	if next.Attributes == nil {
		next.Attributes = make(map[string]any)
	}

	for key, raw := range fields {
		switch key {
		case fieldID:
			continue
		case fieldType:
			if t, ok := raw.(string); !ok || DeviceType(t) != d.Type {
				return nil, fmt.Errorf("%w: type of %s cannot change", ErrInvalidDevice, d.ID)
			}
		case fieldLastUpdated:
			if f, ok := toFloat(raw); !ok || f != float64(d.LastUpdated) {
				return nil, fmt.Errorf("%w: lastUpdated is set by the server", ErrInvalidDevice)
			}
		case fieldName:
			name, err := parseName(raw)
			if err != nil {
				return nil, err
			}
			next.Name = name
		case fieldState:
			state, err := parseState(next.Type, raw)
			if err != nil {
				return nil, err
			}
			next.State = state
		default:
			if raw == nil {
				delete(next.Attributes, key)
				continue
			}
			v, err := normalizeAttribute(next.Type, key, raw)
			if err != nil {
				return nil, err
			}
			next.Attributes[key] = v
		}
	}

	return next, nil
}

func isReserved(key string) bool {
	switch key {
	case fieldID, fieldType, fieldName, fieldState, fieldLastUpdated:
		return true
	}
	return false
}

func parseName(raw any) (string, error) {
	name, ok := raw.(string)
	name = strings.TrimSpace(name)
	if !ok || name == "" {
		return "", fmt.Errorf("%w: name is required", ErrInvalidDevice)
	}
	if len(name) > maxNameLength {
		return "", fmt.Errorf("%w: name exceeds %d characters", ErrInvalidDevice, maxNameLength)
	}
	return name, nil
}

func parseState(dt DeviceType, raw any) (string, error) {
	state, ok := raw.(string)
	if !ok || !dt.ValidState(state) {
		states := dt.States()
		return "", fmt.Errorf("%w: state for %s must be %q or %q", ErrInvalidDevice, dt, states[0], states[1])
	}
	return state, nil
}

// normalizeAttribute checks a known attribute against its kind and converts
// numbers to float64. Unknown attributes pass through unchanged.
func normalizeAttribute(dt DeviceType, key string, raw any) (any, error) {
	kind, known := typeSpecs[dt].attrs[key]
	if !known {
		return raw, nil
	}

	switch kind {
	case attrNumber, attrPercent:
		f, ok := toFloat(raw)
		if !ok {
			return nil, fmt.Errorf("%w: %s must be a number", ErrInvalidDevice, key)
		}
		if kind == attrPercent && (f < 0 || f > 100) {
			return nil, fmt.Errorf("%w: %s must be between 0 and 100", ErrInvalidDevice, key)
		}
		return f, nil
	case attrString:
		s, ok := raw.(string)
		if !ok {
			return nil, fmt.Errorf("%w: %s must be a string", ErrInvalidDevice, key)
		}
		return s, nil
	case attrBool:
		b, ok := raw.(bool)
		if !ok {
			return nil, fmt.Errorf("%w: %s must be a boolean", ErrInvalidDevice, key)
		}
		return b, nil
	}
	return raw, nil
}

// toFloat accepts the numeric shapes produced by encoding/json and yaml.v3.
func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case int32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case uint32:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}
