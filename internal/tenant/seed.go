package tenant

import (
	"fmt"

	"github.com/nerrad567/homesync-core/internal/alert"
)

// Seed is the static provisioning data a Store is built from.
type Seed struct {
	Tenants []TenantSeed `yaml:"tenants"`
}

// TenantSeed provisions one tenant.
type TenantSeed struct {
	ID      string                 `yaml:"id"`
	Sensors []SensorSeed           `yaml:"sensors"`
	Devices []DeviceSeed           `yaml:"devices"`
	Limits  map[string]alert.Limit `yaml:"limits"`
}

// SensorSeed names a sensor series and the unit its readings use.
type SensorSeed struct {
	Name string `yaml:"name"`
	Unit string `yaml:"unit"`
}

// DeviceSeed is a device present at startup.
type DeviceSeed struct {
	ID         string         `yaml:"id"`
	Type       DeviceType     `yaml:"type"`
	Name       string         `yaml:"name"`
	State      string         `yaml:"state"`
	Attributes map[string]any `yaml:"attributes"`
}

// fields converts the seed to the creation map buildDevice accepts.
func (d DeviceSeed) fields() map[string]any {
	fields := make(map[string]any, len(d.Attributes)+3)
	for k, v := range d.Attributes {
		fields[k] = v
	}
	fields[fieldType] = string(d.Type)
	fields[fieldName] = d.Name
	if d.State != "" {
		fields[fieldState] = d.State
	}
	return fields
}

// Validate checks the seed for duplicate or dangling references.
func (s Seed) Validate() error {
	seen := make(map[string]bool, len(s.Tenants))
	for _, t := range s.Tenants {
		if t.ID == "" {
			return fmt.Errorf("%w: tenant id is required", ErrInvalidSeed)
		}
		if seen[t.ID] {
			return fmt.Errorf("%w: duplicate tenant %q", ErrInvalidSeed, t.ID)
		}
		seen[t.ID] = true

		sensors := make(map[string]bool, len(t.Sensors))
		for _, sensor := range t.Sensors {
			if sensor.Name == "" {
				return fmt.Errorf("%w: tenant %q: sensor name is required", ErrInvalidSeed, t.ID)
			}
			if sensors[sensor.Name] {
				return fmt.Errorf("%w: tenant %q: duplicate sensor %q", ErrInvalidSeed, t.ID, sensor.Name)
			}
			sensors[sensor.Name] = true
		}

		devices := make(map[string]bool, len(t.Devices))
		for _, d := range t.Devices {
			if devices[d.ID] {
				return fmt.Errorf("%w: tenant %q: duplicate device %q", ErrInvalidSeed, t.ID, d.ID)
			}
			devices[d.ID] = true
			if _, err := buildDevice(d.ID, d.fields()); err != nil {
				return fmt.Errorf("%w: tenant %q: device %q: %w", ErrInvalidSeed, t.ID, d.ID, err)
			}
		}

		for name := range t.Limits {
			if !sensors[name] {
				return fmt.Errorf("%w: tenant %q: limit for unknown sensor %q", ErrInvalidSeed, t.ID, name)
			}
		}
	}
	return nil
}
