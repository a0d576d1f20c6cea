package mqtt

import (
	"encoding/json"
	"testing"

	"github.com/nerrad567/homesync-core/internal/infrastructure/config"
)

func TestBrokerURL(t *testing.T) {
	cfg := config.MQTTConfig{Broker: config.MQTTBrokerConfig{Host: "broker.local", Port: 1883}}
	if got := brokerURL(cfg); got != "tcp://broker.local:1883" {
		t.Errorf("brokerURL() = %q", got)
	}

	cfg.Broker.TLS = true
	cfg.Broker.Port = 8883
	if got := brokerURL(cfg); got != "ssl://broker.local:8883" {
		t.Errorf("brokerURL() with TLS = %q", got)
	}
}

func TestBuildClientOptions(t *testing.T) {
	cfg := config.MQTTConfig{
		Broker: config.MQTTBrokerConfig{Host: "127.0.0.1", Port: 1883, ClientID: "homesync-test"},
		Auth:   config.MQTTAuthConfig{Username: "core", Password: "secret"},
	}

	opts := buildClientOptions(cfg)

	if opts.ClientID != "homesync-test" {
		t.Errorf("ClientID = %q", opts.ClientID)
	}
	if opts.Username != "core" || opts.Password != "secret" {
		t.Errorf("credentials = %q/%q", opts.Username, opts.Password)
	}
	if !opts.Order {
		t.Error("ordered delivery should be enabled")
	}
	if !opts.AutoReconnect {
		t.Error("auto-reconnect should be enabled")
	}
}

func TestConfigureLWT(t *testing.T) {
	opts := buildClientOptions(config.MQTTConfig{Broker: config.MQTTBrokerConfig{ClientID: "core-1"}})
	configureLWT(opts, "core-1")

	if !opts.WillEnabled {
		t.Fatal("will should be enabled")
	}
	if opts.WillTopic != SystemStatusTopic {
		t.Errorf("WillTopic = %q, want %q", opts.WillTopic, SystemStatusTopic)
	}
	if !opts.WillRetained {
		t.Error("will should be retained")
	}

	var body map[string]string
	if err := json.Unmarshal(opts.WillPayload, &body); err != nil {
		t.Fatalf("will payload is not JSON: %v", err)
	}
	if body["status"] != "offline" || body["reason"] != "unexpected_disconnect" || body["client_id"] != "core-1" {
		t.Errorf("will payload = %v", body)
	}
}

func TestStatusPayload_OmitsEmptyReason(t *testing.T) {
	var body map[string]string
	if err := json.Unmarshal([]byte(statusPayload("online", "core-1", "")), &body); err != nil {
		t.Fatalf("payload is not JSON: %v", err)
	}
	if _, ok := body["reason"]; ok {
		t.Error("reason should be omitted")
	}
	if body["status"] != "online" {
		t.Errorf("status = %q", body["status"])
	}
}
