package hub

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"
)

type tenantSet map[string]bool

func (s tenantSet) HasTenant(id string) bool { return s[id] }

func newTestRegistry(maxConn int) *Registry {
	return NewRegistry(tenantSet{"alice": true, "bob": true}, Options{MaxConnectionsPerTenant: maxConn})
}

func mustRegister(t *testing.T, r *Registry, tenant string) *Client {
	t.Helper()
	c := NewClient(tenant, nil, 8)
	if err := r.Register(c); err != nil {
		t.Fatalf("Register(%s) error = %v", tenant, err)
	}
	return c
}

// drain returns every message currently queued for c.
func drain(t *testing.T, c *Client) []Message {
	t.Helper()
	var out []Message
	for {
		select {
		case data, ok := <-c.Messages():
			if !ok {
				return out
			}
			var msg Message
			if err := json.Unmarshal(data, &msg); err != nil {
				t.Fatalf("invalid message JSON: %v", err)
			}
			out = append(out, msg)
		default:
			return out
		}
	}
}

func TestRegister_UnknownTenant(t *testing.T) {
	r := newTestRegistry(0)

	err := r.Register(NewClient("mallory", nil, 1))
	if !errors.Is(err, ErrUnknownTenant) {
		t.Errorf("Register() error = %v, want ErrUnknownTenant", err)
	}
	if r.ConnectionCount("mallory") != 0 {
		t.Error("rejected client should not be tracked")
	}
}

func TestBroadcast_TenantIsolation(t *testing.T) {
	r := newTestRegistry(0)
	alice1 := mustRegister(t, r, "alice")
	alice2 := mustRegister(t, r, "alice")
	bob := mustRegister(t, r, "bob")

	sent := r.Broadcast("alice", Event{Kind: EventSensorData, Payload: map[string]any{"value": 30}})
	if sent != 2 {
		t.Errorf("Broadcast() = %d, want 2", sent)
	}

	for _, c := range []*Client{alice1, alice2} {
		msgs := drain(t, c)
		if len(msgs) != 1 {
			t.Fatalf("alice client got %d messages, want 1", len(msgs))
		}
		if msgs[0].Type != TypeEvent || msgs[0].EventType != EventSensorData || msgs[0].Tenant != "alice" {
			t.Errorf("message = %+v", msgs[0])
		}
	}

	if msgs := drain(t, bob); len(msgs) != 0 {
		t.Errorf("bob received %d alice messages", len(msgs))
	}
}

func TestBroadcast_NoClients(t *testing.T) {
	r := newTestRegistry(0)
	if sent := r.Broadcast("alice", Event{Kind: EventDeviceUpdate}); sent != 0 {
		t.Errorf("Broadcast() = %d, want 0", sent)
	}
}

func TestBroadcast_SkipsClosedAndFullClients(t *testing.T) {
	r := newTestRegistry(0)
	open := mustRegister(t, r, "alice")

	closing := NewClient("alice", nil, 8)
	if err := r.Register(closing); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	closing.close()

	full := NewClient("alice", nil, 1)
	if err := r.Register(full); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	full.trySend([]byte("{}"))

	sent := r.Broadcast("alice", Event{Kind: EventDeviceUpdate})
	if sent != 1 {
		t.Errorf("Broadcast() = %d, want 1", sent)
	}
	if len(drain(t, open)) != 1 {
		t.Error("open client should receive the event")
	}

	stats := r.Stats()
	if stats.Delivered != 1 || stats.Skipped != 2 {
		t.Errorf("Stats() = %+v, want delivered 1 skipped 2", stats)
	}
}

func TestUnregister(t *testing.T) {
	r := newTestRegistry(0)
	c := mustRegister(t, r, "alice")

	r.Unregister(c)
	r.Unregister(c)

	if r.ConnectionCount("alice") != 0 {
		t.Errorf("ConnectionCount() = %d, want 0", r.ConnectionCount("alice"))
	}
	if !c.Closed() {
		t.Error("client should be closed")
	}
	if _, ok := <-c.Messages(); ok {
		t.Error("send channel should be closed")
	}
	if sent := r.Broadcast("alice", Event{Kind: EventDeviceUpdate}); sent != 0 {
		t.Errorf("Broadcast() after unregister = %d", sent)
	}
}

func TestRegister_CapacityEvictsOldest(t *testing.T) {
	r := newTestRegistry(2)
	first := mustRegister(t, r, "alice")
	second := mustRegister(t, r, "alice")
	third := mustRegister(t, r, "alice")

	if r.ConnectionCount("alice") != 2 {
		t.Fatalf("ConnectionCount() = %d, want 2", r.ConnectionCount("alice"))
	}
	if !first.Closed() {
		t.Error("oldest client should be evicted")
	}
	if second.Closed() || third.Closed() {
		t.Error("newer clients should stay open")
	}
	if r.Stats().Evicted != 1 {
		t.Errorf("Evicted = %d, want 1", r.Stats().Evicted)
	}
}

func TestRegister_SingleSlot(t *testing.T) {
	r := newTestRegistry(1)
	old := mustRegister(t, r, "bob")
	current := mustRegister(t, r, "bob")

	r.Broadcast("bob", Event{Kind: EventDeviceAdded})

	if !old.Closed() {
		t.Error("reconnect should replace the previous client")
	}
	if len(drain(t, current)) != 1 {
		t.Error("current client should receive the event")
	}
}

func TestSend_SingleClient(t *testing.T) {
	r := newTestRegistry(0)
	target := mustRegister(t, r, "alice")
	other := mustRegister(t, r, "alice")

	if !r.Send(target, Event{Kind: EventSnapshot, Payload: map[string]any{"devices": map[string]any{}}}) {
		t.Fatal("Send() = false")
	}
	if msgs := drain(t, target); len(msgs) != 1 || msgs[0].EventType != EventSnapshot {
		t.Errorf("target messages = %+v", msgs)
	}
	if len(drain(t, other)) != 0 {
		t.Error("Send() must only reach the target client")
	}
}

func TestCloseAll(t *testing.T) {
	r := newTestRegistry(0)
	c := mustRegister(t, r, "alice")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		r.Run(ctx)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run() did not return after cancel")
	}

	if !c.Closed() {
		t.Error("client should be closed")
	}
	if err := r.Register(NewClient("alice", nil, 1)); !errors.Is(err, ErrClosed) {
		t.Errorf("Register() after close error = %v, want ErrClosed", err)
	}
}

func TestConcurrentRegisterBroadcast(t *testing.T) {
	r := newTestRegistry(0)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			c := NewClient("alice", nil, 4)
			if err := r.Register(c); err != nil {
				t.Errorf("Register() error = %v", err)
				return
			}
			r.Unregister(c)
		}()
		go func() {
			defer wg.Done()
			r.Broadcast("alice", Event{Kind: EventSensorData})
		}()
	}
	wg.Wait()

	if r.ConnectionCount("alice") != 0 {
		t.Errorf("ConnectionCount() = %d, want 0", r.ConnectionCount("alice"))
	}
}

func TestHandleMessage(t *testing.T) {
	c := NewClient("alice", nil, 8)

	var requested []Message
	onRequest := func(_ *Client, msg Message) { requested = append(requested, msg) }

	c.handleMessage([]byte(`{"type":"ping","id":"1"}`), onRequest)
	c.handleMessage([]byte(`{"type":"snapshot","id":"2"}`), onRequest)
	c.handleMessage([]byte(`not json`), onRequest)
	c.handleMessage([]byte(`{"type":"dance"}`), nil)

	msgs := drain(t, c)
	if len(msgs) != 3 {
		t.Fatalf("got %d replies, want 3", len(msgs))
	}
	if msgs[0].Type != TypePong || msgs[0].ID != "1" {
		t.Errorf("ping reply = %+v", msgs[0])
	}
	if msgs[1].Type != TypeError || msgs[2].Type != TypeError {
		t.Errorf("error replies = %+v, %+v", msgs[1], msgs[2])
	}
	if len(requested) != 1 || requested[0].Type != TypeSnapshot {
		t.Errorf("requests = %+v", requested)
	}
}
