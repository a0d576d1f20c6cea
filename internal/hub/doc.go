// Package hub tracks live WebSocket connections per tenant and fans events
// out to them.
//
// A Registry holds a set of Clients for each tenant. Broadcast delivers an
// event to every client of one tenant and never to any other tenant.
// Delivery is best-effort: each client has a bounded send buffer and a
// client whose buffer is full, or which is closing, is skipped. Broadcast
// never blocks on a slow consumer and never reports per-client failures to
// the caller.
//
// Optionally the number of connections per tenant can be capped. When a new
// client would exceed the cap, the oldest client of that tenant is evicted.
package hub
