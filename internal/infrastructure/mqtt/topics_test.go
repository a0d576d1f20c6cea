package mqtt

import "testing"

func TestSensorTopics_Builders(t *testing.T) {
	tests := []struct {
		prefix       string
		wantSensor   string
		wantWildcard string
	}{
		{"tenant", "tenant/alice/sensor/temperature", "tenant/+/sensor/+"},
		{"", "alice/sensor/temperature", "+/sensor/+"},
		{"/home/sync/", "home/sync/alice/sensor/temperature", "home/sync/+/sensor/+"},
	}

	for _, tt := range tests {
		t.Run(tt.prefix, func(t *testing.T) {
			topics := NewSensorTopics(tt.prefix)
			if got := topics.Sensor("alice", "temperature"); got != tt.wantSensor {
				t.Errorf("Sensor() = %q, want %q", got, tt.wantSensor)
			}
			if got := topics.Wildcard(); got != tt.wantWildcard {
				t.Errorf("Wildcard() = %q, want %q", got, tt.wantWildcard)
			}
		})
	}
}

func TestSensorTopics_Parse(t *testing.T) {
	tests := []struct {
		name       string
		prefix     string
		topic      string
		wantTenant string
		wantSensor string
		wantOK     bool
	}{
		{"default prefix", "tenant", "tenant/alice/sensor/temperature", "alice", "temperature", true},
		{"empty prefix", "", "alice/sensor/temperature", "alice", "temperature", true},
		{"multi-level prefix", "home/sync", "home/sync/bob/sensor/pressure", "bob", "pressure", true},
		{"wrong prefix", "tenant", "users/alice/sensor/temperature", "", "", false},
		{"missing prefix", "tenant", "alice/sensor/temperature", "", "", false},
		{"wrong literal", "tenant", "tenant/alice/sensors/temperature", "", "", false},
		{"too deep", "tenant", "tenant/alice/sensor/temperature/raw", "", "", false},
		{"too shallow", "tenant", "tenant/alice/sensor", "", "", false},
		{"empty tenant", "tenant", "tenant//sensor/temperature", "", "", false},
		{"empty name", "", "alice/sensor/", "", "", false},
		{"status topic", "", SystemStatusTopic, "", "", false},
		{"empty topic", "", "", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tenant, sensor, ok := NewSensorTopics(tt.prefix).Parse(tt.topic)
			if ok != tt.wantOK || tenant != tt.wantTenant || sensor != tt.wantSensor {
				t.Errorf("Parse(%q) = (%q, %q, %v), want (%q, %q, %v)",
					tt.topic, tenant, sensor, ok, tt.wantTenant, tt.wantSensor, tt.wantOK)
			}
		})
	}
}

func TestSensorTopics_RoundTrip(t *testing.T) {
	topics := NewSensorTopics("tenant")
	tenant, sensor, ok := topics.Parse(topics.Sensor("steve", "co2"))
	if !ok || tenant != "steve" || sensor != "co2" {
		t.Errorf("round trip = (%q, %q, %v)", tenant, sensor, ok)
	}
}
