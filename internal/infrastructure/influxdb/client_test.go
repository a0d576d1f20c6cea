package influxdb

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/nerrad567/homesync-core/internal/infrastructure/config"
)

type recordingWriter struct {
	mu      sync.Mutex
	points  []*write.Point
	flushes int
}

func (w *recordingWriter) WritePoint(p *write.Point) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.points = append(w.points, p)
}

func (w *recordingWriter) Flush() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.flushes++
}

func newTestClient() (*Client, *recordingWriter) {
	w := &recordingWriter{}
	return &Client{writer: w, connected: true}, w
}

func tagsOf(p *write.Point) map[string]string {
	out := make(map[string]string)
	for _, t := range p.TagList() {
		out[t.Key] = t.Value
	}
	return out
}

func fieldsOf(p *write.Point) map[string]any {
	out := make(map[string]any)
	for _, f := range p.FieldList() {
		out[f.Key] = f.Value
	}
	return out
}

func TestWriteSensorReading(t *testing.T) {
	c, w := newTestClient()
	ts := time.UnixMilli(1000)

	c.WriteSensorReading("alice", "temperature", "°C", 30, ts)

	if len(w.points) != 1 {
		t.Fatalf("points = %d, want 1", len(w.points))
	}
	p := w.points[0]
	if p.Name() != MeasurementSensorReading {
		t.Errorf("measurement = %q", p.Name())
	}
	tags := tagsOf(p)
	if tags["tenant"] != "alice" || tags["sensor"] != "temperature" || tags["unit"] != "°C" {
		t.Errorf("tags = %v", tags)
	}
	if fieldsOf(p)["value"] != 30.0 {
		t.Errorf("fields = %v", fieldsOf(p))
	}
	if !p.Time().Equal(ts) {
		t.Errorf("time = %v, want %v", p.Time(), ts)
	}
}

func TestWriteAlert(t *testing.T) {
	c, w := newTestClient()
	now := time.Now()

	c.WriteAlert("alice", "temperature", "above_maximum", 30, true, now)
	c.WriteAlert("alice", "temperature", "", 20, false, now)

	if len(w.points) != 2 {
		t.Fatalf("points = %d, want 2", len(w.points))
	}
	if tagsOf(w.points[0])["kind"] != "above_maximum" {
		t.Errorf("raise tags = %v", tagsOf(w.points[0]))
	}
	if _, ok := tagsOf(w.points[1])["kind"]; ok {
		t.Errorf("clear should carry no kind tag: %v", tagsOf(w.points[1]))
	}
	if fieldsOf(w.points[1])["active"] != false {
		t.Errorf("clear fields = %v", fieldsOf(w.points[1]))
	}
}

func TestWriteDeviceState(t *testing.T) {
	c, w := newTestClient()

	c.WriteDeviceState("bob", "fan1", "fan", "on", map[string]float64{"speed": 3}, time.Now())

	p := w.points[0]
	tags := tagsOf(p)
	if tags["device"] != "fan1" || tags["type"] != "fan" || tags["tenant"] != "bob" {
		t.Errorf("tags = %v", tags)
	}
	fields := fieldsOf(p)
	if fields["state"] != "on" || fields["speed"] != 3.0 {
		t.Errorf("fields = %v", fields)
	}
}

func TestWritesAfterCloseAreDropped(t *testing.T) {
	c, w := newTestClient()
	if err := c.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if w.flushes != 1 {
		t.Errorf("Close() flushes = %d, want 1", w.flushes)
	}

	c.WriteSensorReading("alice", "humidity", "%", 40, time.Now())
	c.Flush()
	if len(w.points) != 0 || w.flushes != 1 {
		t.Errorf("points=%d flushes=%d after Close", len(w.points), w.flushes)
	}
	if err := c.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
}

func TestNilClient(t *testing.T) {
	var c *Client
	if c.IsConnected() {
		t.Error("nil client reports connected")
	}
	if err := c.Close(); err != nil {
		t.Errorf("Close() on nil = %v", err)
	}
	if err := c.HealthCheck(context.Background()); !errors.Is(err, ErrNotConnected) {
		t.Errorf("HealthCheck() = %v, want ErrNotConnected", err)
	}
}

func TestConnectDisabled(t *testing.T) {
	c, err := Connect(config.InfluxDBConfig{Enabled: false})
	if !errors.Is(err, ErrDisabled) {
		t.Errorf("Connect() error = %v, want ErrDisabled", err)
	}
	if c != nil {
		t.Error("Connect() returned a client while disabled")
	}
}

func TestConnectUnreachable(t *testing.T) {
	_, err := Connect(config.InfluxDBConfig{
		Enabled: true,
		URL:     "http://127.0.0.1:1",
		Org:     "homesync",
		Bucket:  "telemetry",
	})
	if !errors.Is(err, ErrConnectionFailed) {
		t.Errorf("Connect() error = %v, want ErrConnectionFailed", err)
	}
}

// fakeInflux answers /ping and collects line protocol posted to /api/v2/write.
type fakeInflux struct {
	mu    sync.Mutex
	lines []string
}

func (f *fakeInflux) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch {
	case strings.HasSuffix(r.URL.Path, "/ping"):
		w.WriteHeader(http.StatusNoContent)
	case strings.HasSuffix(r.URL.Path, "/api/v2/write"):
		body, _ := io.ReadAll(r.Body) //nolint:errcheck // Test server
		f.mu.Lock()
		f.lines = append(f.lines, strings.Split(strings.TrimSpace(string(body)), "\n")...)
		f.mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	default:
		http.NotFound(w, r)
	}
}

func (f *fakeInflux) received() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.lines...)
}

func TestConnectAndExport(t *testing.T) {
	fake := &fakeInflux{}
	srv := httptest.NewServer(fake)
	defer srv.Close()

	c, err := Connect(config.InfluxDBConfig{
		Enabled:       true,
		URL:           srv.URL,
		Token:         "test-token",
		Org:           "homesync",
		Bucket:        "telemetry",
		BatchSize:     10,
		FlushInterval: 1,
	})
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	defer c.Close() //nolint:errcheck // Test cleanup

	if err := c.HealthCheck(context.Background()); err != nil {
		t.Fatalf("HealthCheck() error = %v", err)
	}

	c.WriteSensorReading("alice", "temperature", "C", 21.5, time.UnixMilli(1000))
	c.Flush()

	deadline := time.Now().Add(3 * time.Second)
	for len(fake.received()) == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}

	lines := fake.received()
	if len(lines) != 1 {
		t.Fatalf("received %d lines, want 1: %v", len(lines), lines)
	}
	if !strings.HasPrefix(lines[0], "sensor_reading,sensor=temperature,tenant=alice,unit=C value=21.5") {
		t.Errorf("line = %q", lines[0])
	}
}
