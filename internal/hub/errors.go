package hub

import "errors"

var (
	// ErrUnknownTenant is returned when a client presents a tenant that was
	// never provisioned.
	ErrUnknownTenant = errors.New("hub: unknown tenant")

	// ErrClosed is returned when registering with a registry that has shut down.
	ErrClosed = errors.New("hub: registry closed")
)
