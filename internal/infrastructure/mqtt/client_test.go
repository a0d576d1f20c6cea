package mqtt

import (
	"context"
	"errors"
	"sync"
	"testing"
)

type fakeMessage struct {
	topic   string
	payload []byte
}

func (m fakeMessage) Duplicate() bool   { return false }
func (m fakeMessage) Qos() byte         { return 1 }
func (m fakeMessage) Retained() bool    { return false }
func (m fakeMessage) Topic() string     { return m.topic }
func (m fakeMessage) MessageID() uint16 { return 1 }
func (m fakeMessage) Payload() []byte   { return m.payload }
func (m fakeMessage) Ack()              {}

type recordingLogger struct {
	mu     sync.Mutex
	infos  []string
	warns  []string
	errors []string
}

func (l *recordingLogger) Info(msg string, _ ...any) {
	l.mu.Lock()
	l.infos = append(l.infos, msg)
	l.mu.Unlock()
}

func (l *recordingLogger) Warn(msg string, _ ...any) {
	l.mu.Lock()
	l.warns = append(l.warns, msg)
	l.mu.Unlock()
}

func (l *recordingLogger) Error(msg string, _ ...any) {
	l.mu.Lock()
	l.errors = append(l.errors, msg)
	l.mu.Unlock()
}

func TestWrapHandler_DeliversTopicAndPayload(t *testing.T) {
	c := &Client{subscriptions: make(map[string]subscription)}

	var gotTopic, gotPayload string
	wrapped := c.wrapHandler(func(topic string, payload []byte) error {
		gotTopic, gotPayload = topic, string(payload)
		return nil
	})
	wrapped(nil, fakeMessage{topic: "tenant/alice/sensor/humidity", payload: []byte("{}")})

	if gotTopic != "tenant/alice/sensor/humidity" || gotPayload != "{}" {
		t.Errorf("handler got (%q, %q)", gotTopic, gotPayload)
	}
}

func TestWrapHandler_RecoversPanic(t *testing.T) {
	logger := &recordingLogger{}
	c := &Client{subscriptions: make(map[string]subscription)}
	c.SetLogger(logger)

	wrapped := c.wrapHandler(func(string, []byte) error {
		panic("boom")
	})
	wrapped(nil, fakeMessage{topic: "t"})

	if len(logger.errors) != 1 {
		t.Errorf("errors logged = %d, want 1", len(logger.errors))
	}
}

func TestWrapHandler_LogsReturnedError(t *testing.T) {
	logger := &recordingLogger{}
	c := &Client{subscriptions: make(map[string]subscription)}
	c.SetLogger(logger)

	wrapped := c.wrapHandler(func(string, []byte) error {
		return errors.New("handler error")
	})
	wrapped(nil, fakeMessage{topic: "t"})

	if len(logger.warns) != 1 {
		t.Errorf("warnings logged = %d, want 1", len(logger.warns))
	}
}

func TestWrapHandler_NoLogger(t *testing.T) {
	c := &Client{subscriptions: make(map[string]subscription)}
	wrapped := c.wrapHandler(func(string, []byte) error {
		panic("unlogged")
	})
	// Must not propagate the panic.
	wrapped(nil, fakeMessage{topic: "t"})
}

func TestClient_Disconnected(t *testing.T) {
	c := &Client{subscriptions: make(map[string]subscription)}

	if c.IsConnected() {
		t.Error("zero client should not be connected")
	}
	if err := c.HealthCheck(context.Background()); !errors.Is(err, ErrNotConnected) {
		t.Errorf("HealthCheck() error = %v, want ErrNotConnected", err)
	}
	if err := c.Subscribe("x", 1, func(string, []byte) error { return nil }); !errors.Is(err, ErrNotConnected) {
		t.Errorf("Subscribe() error = %v, want ErrNotConnected", err)
	}
	if err := c.Publish("x", nil, 1, false); !errors.Is(err, ErrNotConnected) {
		t.Errorf("Publish() error = %v, want ErrNotConnected", err)
	}
	if err := c.Close(); err != nil {
		t.Errorf("Close() on nil client error = %v", err)
	}
}

func TestClient_ArgumentValidation(t *testing.T) {
	c := &Client{subscriptions: make(map[string]subscription)}
	handler := func(string, []byte) error { return nil }

	if err := c.Subscribe("", 1, handler); !errors.Is(err, ErrInvalidTopic) {
		t.Errorf("Subscribe(empty) error = %v", err)
	}
	if err := c.Subscribe("x", 3, handler); !errors.Is(err, ErrInvalidQoS) {
		t.Errorf("Subscribe(qos 3) error = %v", err)
	}
	if err := c.Subscribe("x", 1, nil); !errors.Is(err, ErrSubscribeFailed) {
		t.Errorf("Subscribe(nil handler) error = %v", err)
	}
	if err := c.Publish("x", make([]byte, maxPayloadSize+1), 1, false); !errors.Is(err, ErrPublishFailed) {
		t.Errorf("Publish(oversize) error = %v", err)
	}
	if err := c.Unsubscribe(""); !errors.Is(err, ErrInvalidTopic) {
		t.Errorf("Unsubscribe(empty) error = %v", err)
	}
}

func TestHealthCheck_Cancelled(t *testing.T) {
	c := &Client{subscriptions: make(map[string]subscription)}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := c.HealthCheck(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("HealthCheck() error = %v, want context.Canceled", err)
	}
}
