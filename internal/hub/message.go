package hub

import "time"

// Message types on the wire.
const (
	TypeEvent    = "event"
	TypePing     = "ping"
	TypePong     = "pong"
	TypeSnapshot = "snapshot"
	TypeError    = "error"
)

// Event kinds delivered to clients.
const (
	EventSnapshot      = "snapshot"
	EventDeviceUpdate  = "device_update"
	EventDeviceAdded   = "device_added"
	EventDeviceDeleted = "device_deleted"
	EventSensorData    = "sensor_data"
	EventSensorAlert   = "sensor_alert"
	EventAlertCleared  = "alert_cleared"
	EventLimitsUpdated = "limits_updated"
)

// Event is something that happened to one tenant's state.
type Event struct {
	Kind    string
	Payload any
}

// Message is the JSON envelope exchanged with clients.
type Message struct {
	Type      string `json:"type"`
	ID        string `json:"id,omitempty"`
	EventType string `json:"event_type,omitempty"`
	Tenant    string `json:"tenant,omitempty"`
	Timestamp string `json:"timestamp,omitempty"`
	Payload   any    `json:"payload,omitempty"`
}

func newEventMessage(tenant string, ev Event, now time.Time) Message {
	return Message{
		Type:      TypeEvent,
		EventType: ev.Kind,
		Tenant:    tenant,
		Timestamp: now.UTC().Format(time.RFC3339),
		Payload:   ev.Payload,
	}
}
