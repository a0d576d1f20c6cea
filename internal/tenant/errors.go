package tenant

import "errors"

// Domain errors for the tenant package.
//
//	if errors.Is(err, tenant.ErrDeviceNotFound) {
//	    // handle not found case
//	}
var (
	// ErrTenantNotFound is returned when the tenant ID was never provisioned.
	ErrTenantNotFound = errors.New("tenant: not found")

	// ErrDeviceNotFound is returned when a device ID does not exist for the tenant.
	ErrDeviceNotFound = errors.New("tenant: device not found")

	// ErrSeriesNotFound is returned when a sensor name is not provisioned for the tenant.
	ErrSeriesNotFound = errors.New("tenant: sensor series not found")

	// ErrLimitNotFound is returned when a series has no limit configured.
	ErrLimitNotFound = errors.New("tenant: limit not found")

	// ErrDeviceExists is returned when creating a device whose ID is taken.
	ErrDeviceExists = errors.New("tenant: device already exists")

	// ErrInvalidDevice is returned when device data fails validation.
	ErrInvalidDevice = errors.New("tenant: invalid device")

	// ErrInvalidSeed is returned when provisioning data is inconsistent.
	ErrInvalidSeed = errors.New("tenant: invalid provisioning")
)
