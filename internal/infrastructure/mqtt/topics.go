package mqtt

import "strings"

// SystemStatusTopic carries the retained online/offline status of Core.
const SystemStatusTopic = "homesync/system/status"

// sensorSegment is the fixed literal between tenant and sensor name.
const sensorSegment = "sensor"

// SensorTopics builds and parses sensor reading topics of the shape
// {prefix}/{tenant}/sensor/{name}.
type SensorTopics struct {
	prefix string
}

// NewSensorTopics returns topic helpers for the given prefix.
// Leading and trailing slashes are ignored.
func NewSensorTopics(prefix string) SensorTopics {
	return SensorTopics{prefix: strings.Trim(prefix, "/")}
}

// Prefix returns the normalised prefix.
func (s SensorTopics) Prefix() string {
	return s.prefix
}

// Sensor returns the topic a producer publishes readings for one series on.
//
// Example: tenant/alice/sensor/temperature
func (s SensorTopics) Sensor(tenant, name string) string {
	return s.join(tenant, sensorSegment, name)
}

// Wildcard returns the subscription covering every tenant's sensors.
//
// Example: tenant/+/sensor/+
func (s SensorTopics) Wildcard() string {
	return s.join("+", sensorSegment, "+")
}

// Parse resolves a concrete topic into tenant and sensor name.
// Any topic that does not have exactly the expected shape, or has an empty
// tenant or name, returns ok=false.
func (s SensorTopics) Parse(topic string) (tenant, name string, ok bool) {
	parts := strings.Split(topic, "/")

	offset := 0
	if s.prefix != "" {
		prefixParts := strings.Split(s.prefix, "/")
		if len(parts) < len(prefixParts) {
			return "", "", false
		}
		for i, p := range prefixParts {
			if parts[i] != p {
				return "", "", false
			}
		}
		offset = len(prefixParts)
	}

	rest := parts[offset:]
	if len(rest) != 3 || rest[1] != sensorSegment {
		return "", "", false
	}
	if rest[0] == "" || rest[2] == "" {
		return "", "", false
	}
	return rest[0], rest[2], true
}

func (s SensorTopics) join(tenant, segment, name string) string {
	if s.prefix == "" {
		return tenant + "/" + segment + "/" + name
	}
	return s.prefix + "/" + tenant + "/" + segment + "/" + name
}
