// Package tenant holds the authoritative in-memory state of every tenant.
//
// A Store is built once at startup from a Seed and handed to every component
// that needs it. The set of tenants and the set of sensor series per tenant
// are fixed for the life of the Store; devices, limits and active alerts
// change at runtime.
//
// # Locking
//
// Each tenant owns separate locks for its device registry, its limits and
// its active alerts, and each series owns its own lock. Operations on
// different tenants never contend. No method returns a pointer into the
// store: devices, limits and readings are copied on the way out.
//
// # Devices
//
// Device behaviour is driven by a fixed table keyed by DeviceType: the two
// valid states, the state a new device starts in, and the attributes the
// type understands. Toggle flips between the two states.
package tenant
