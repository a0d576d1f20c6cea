package hub

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

// Logger defines the logging interface used by the Registry.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// TenantChecker reports whether a tenant ID is provisioned.
type TenantChecker interface {
	HasTenant(id string) bool
}

// Options configures a Registry.
type Options struct {
	// MaxConnectionsPerTenant caps live clients per tenant. 0 means unlimited.
	MaxConnectionsPerTenant int
	Logger                  Logger
}

// Stats is a point-in-time view of registry activity.
type Stats struct {
	Connections map[string]int `json:"connections"`
	Delivered   uint64         `json:"delivered"`
	Skipped     uint64         `json:"skipped"`
	Evicted     uint64         `json:"evicted"`
}

// Registry maps tenants to their live clients.
// All methods are safe for concurrent use.
type Registry struct {
	tenants TenantChecker
	maxConn int
	logger  Logger

	mu      sync.RWMutex
	clients map[string]map[*Client]uint64 // tenant -> client -> join sequence
	seq     uint64
	closed  bool

	delivered atomic.Uint64
	skipped   atomic.Uint64
	evicted   atomic.Uint64

	now func() time.Time
}

// NewRegistry creates a registry that admits clients of tenants known to checker.
func NewRegistry(checker TenantChecker, opts Options) *Registry {
	logger := opts.Logger
	if logger == nil {
		logger = noopLogger{}
	}
	return &Registry{
		tenants: checker,
		maxConn: opts.MaxConnectionsPerTenant,
		logger:  logger,
		clients: make(map[string]map[*Client]uint64),
		now:     time.Now,
	}
}

// Register adds c under its tenant. A tenant that is not provisioned is
// rejected with ErrUnknownTenant and c is left untouched.
func (r *Registry) Register(c *Client) error {
	if !r.tenants.HasTenant(c.tenant) {
		return fmt.Errorf("%w: %q", ErrUnknownTenant, c.tenant)
	}

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return ErrClosed
	}

	set, ok := r.clients[c.tenant]
	if !ok {
		set = make(map[*Client]uint64)
		r.clients[c.tenant] = set
	}

	var evicted []*Client
	for r.maxConn > 0 && len(set) >= r.maxConn {
		oldest := oldestClient(set)
		delete(set, oldest)
		evicted = append(evicted, oldest)
	}

	r.seq++
	set[c] = r.seq
	count := len(set)
	r.mu.Unlock()

	for _, old := range evicted {
		old.close()
		r.evicted.Add(1)
		r.logger.Info("websocket client evicted", "tenant", c.tenant, "client_id", old.id)
	}
	r.logger.Debug("websocket client registered", "tenant", c.tenant, "client_id", c.id, "clients", count)
	return nil
}

func oldestClient(set map[*Client]uint64) *Client {
	var (
		oldest *Client
		minSeq uint64
	)
	for c, seq := range set {
		if oldest == nil || seq < minSeq {
			oldest, minSeq = c, seq
		}
	}
	return oldest
}

// Unregister removes c and closes its send channel. Calling it for a client
// that was already removed is a no-op.
func (r *Registry) Unregister(c *Client) {
	r.mu.Lock()
	set := r.clients[c.tenant]
	_, existed := set[c]
	delete(set, c)
	if len(set) == 0 {
		delete(r.clients, c.tenant)
	}
	r.mu.Unlock()

	c.close()
	if existed {
		r.logger.Debug("websocket client unregistered", "tenant", c.tenant, "client_id", c.id)
	}
}

// Broadcast delivers ev to every client of tenant and returns how many
// clients accepted it. A tenant with no clients is a no-op.
func (r *Registry) Broadcast(tenant string, ev Event) int {
	data, err := json.Marshal(newEventMessage(tenant, ev, r.now()))
	if err != nil {
		r.logger.Error("failed to marshal broadcast message", "tenant", tenant, "event", ev.Kind, "error", err)
		return 0
	}

	// Snapshot under the read lock, send after releasing it.
	r.mu.RLock()
	set := r.clients[tenant]
	clients := make([]*Client, 0, len(set))
	for c := range set {
		clients = append(clients, c)
	}
	r.mu.RUnlock()

	sent := 0
	for _, c := range clients {
		if c.trySend(data) {
			sent++
		}
	}

	r.delivered.Add(uint64(sent))
	if skipped := len(clients) - sent; skipped > 0 {
		r.skipped.Add(uint64(skipped))
		r.logger.Debug("broadcast skipped clients", "tenant", tenant, "event", ev.Kind, "skipped", skipped)
	}
	return sent
}

// Send delivers ev to a single client. It reports false when the client is
// closing or its buffer is full.
func (r *Registry) Send(c *Client, ev Event) bool {
	data, err := json.Marshal(newEventMessage(c.tenant, ev, r.now()))
	if err != nil {
		r.logger.Error("failed to marshal message", "tenant", c.tenant, "event", ev.Kind, "error", err)
		return false
	}
	return c.trySend(data)
}

// ConnectionCount returns the number of live clients of tenant.
func (r *Registry) ConnectionCount(tenant string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.clients[tenant])
}

// Stats returns connection counts per tenant and delivery counters.
func (r *Registry) Stats() Stats {
	r.mu.RLock()
	conns := make(map[string]int, len(r.clients))
	for tenant, set := range r.clients {
		conns[tenant] = len(set)
	}
	r.mu.RUnlock()

	return Stats{
		Connections: conns,
		Delivered:   r.delivered.Load(),
		Skipped:     r.skipped.Load(),
		Evicted:     r.evicted.Load(),
	}
}

// Run blocks until ctx is cancelled, then closes every client.
func (r *Registry) Run(ctx context.Context) {
	<-ctx.Done()
	r.CloseAll()
}

// CloseAll removes and closes every client. Later registrations fail with ErrClosed.
func (r *Registry) CloseAll() {
	r.mu.Lock()
	r.closed = true
	all := r.clients
	r.clients = make(map[string]map[*Client]uint64)
	r.mu.Unlock()

	for _, set := range all {
		for c := range set {
			c.close()
		}
	}
}
