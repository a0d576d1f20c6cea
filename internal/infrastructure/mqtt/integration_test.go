//go:build integration

package mqtt

import (
	"sync"
	"testing"
	"time"

	"github.com/nerrad567/homesync-core/internal/infrastructure/config"
)

// Integration tests require a running MQTT broker at 127.0.0.1:1883.
//
// Run with:
//   go test -tags=integration -v ./internal/infrastructure/mqtt/...

func integrationConfig(clientID string) config.MQTTConfig {
	return config.MQTTConfig{
		Broker: config.MQTTBrokerConfig{
			Host:     "127.0.0.1",
			Port:     1883,
			ClientID: clientID,
		},
		QoS: 1,
		Reconnect: config.MQTTReconnectConfig{
			InitialDelay: 1,
			MaxDelay:     5,
		},
		TopicPrefix: "tenant",
	}
}

func TestIntegration_SubscriptionTracking(t *testing.T) {
	client, err := Connect(integrationConfig("homesync-int-sub-track"))
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	defer client.Close()

	topics := NewSensorTopics("tenant")
	handler := func(string, []byte) error { return nil }

	if err := client.Subscribe(topics.Wildcard(), 1, handler); err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}
	if err := client.Subscribe(SystemStatusTopic, 1, handler); err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}
	if client.SubscriptionCount() != 2 {
		t.Errorf("SubscriptionCount() = %d, want 2", client.SubscriptionCount())
	}

	if err := client.Unsubscribe(SystemStatusTopic); err != nil {
		t.Fatalf("Unsubscribe() error = %v", err)
	}
	if client.SubscriptionCount() != 1 {
		t.Errorf("SubscriptionCount() after unsubscribe = %d, want 1", client.SubscriptionCount())
	}
}

func TestIntegration_SensorRoundtrip(t *testing.T) {
	pub, err := Connect(integrationConfig("homesync-int-pub"))
	if err != nil {
		t.Fatalf("Connect() publisher error = %v", err)
	}
	defer pub.Close()

	sub, err := Connect(integrationConfig("homesync-int-sub"))
	if err != nil {
		t.Fatalf("Connect() subscriber error = %v", err)
	}
	defer sub.Close()

	topics := NewSensorTopics("tenant")
	received := make(chan string, 1)
	var once sync.Once

	err = sub.Subscribe(topics.Wildcard(), 1, func(topic string, _ []byte) error {
		tenant, name, ok := topics.Parse(topic)
		if ok {
			once.Do(func() { received <- tenant + ":" + name })
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}

	time.Sleep(100 * time.Millisecond)

	payload := []byte(`{"value":21.5,"unit":"°C","timestamp":1000}`)
	if err := pub.Publish(topics.Sensor("alice", "temperature"), payload, 1, false); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}

	select {
	case got := <-received:
		if got != "alice:temperature" {
			t.Errorf("received = %q, want %q", got, "alice:temperature")
		}
	case <-time.After(5 * time.Second):
		t.Error("timeout waiting for message")
	}
}
