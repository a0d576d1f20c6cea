package control

import (
	"context"
	"time"

	"github.com/nerrad567/homesync-core/internal/audit"
	"github.com/nerrad567/homesync-core/internal/hub"
	"github.com/nerrad567/homesync-core/internal/tenant"
)

// Update merges fields into a device. id is ignored, a changed type or
// lastUpdated is rejected and a null attribute removes it.
func (c *Controller) Update(ctx context.Context, tenantID, deviceID string, fields map[string]any) (*tenant.Device, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var d *tenant.Device
	err := c.store.Commit(tenantID, func() error {
		var err error
		if d, err = c.store.UpdateDevice(tenantID, deviceID, fields); err != nil {
			return err
		}
		c.hub.Broadcast(tenantID, hub.Event{Kind: hub.EventDeviceUpdate, Payload: d})
		return nil
	})
	if err != nil {
		return nil, err
	}
	c.deviceChanged(tenantID, d, audit.ActionUpdate, fields)
	return d, nil
}

// SetState sets only the state of a device.
func (c *Controller) SetState(ctx context.Context, tenantID, deviceID string, state any) (*tenant.Device, error) {
	return c.Update(ctx, tenantID, deviceID, map[string]any{"state": state})
}

// Toggle flips a device to the other state of its type.
func (c *Controller) Toggle(ctx context.Context, tenantID, deviceID string) (*tenant.Device, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var d *tenant.Device
	err := c.store.Commit(tenantID, func() error {
		var err error
		if d, err = c.store.ToggleDevice(tenantID, deviceID); err != nil {
			return err
		}
		c.hub.Broadcast(tenantID, hub.Event{Kind: hub.EventDeviceUpdate, Payload: d})
		return nil
	})
	if err != nil {
		return nil, err
	}
	c.deviceChanged(tenantID, d, audit.ActionToggle, map[string]any{"state": d.State})
	return d, nil
}

// Create adds a device. fields must carry a type and a name.
func (c *Controller) Create(ctx context.Context, tenantID, deviceID string, fields map[string]any) (*tenant.Device, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var d *tenant.Device
	err := c.store.Commit(tenantID, func() error {
		var err error
		if d, err = c.store.CreateDevice(tenantID, deviceID, fields); err != nil {
			return err
		}
		c.hub.Broadcast(tenantID, hub.Event{Kind: hub.EventDeviceAdded, Payload: d})
		return nil
	})
	if err != nil {
		return nil, err
	}
	c.logger.Info("device created", "tenant", tenantID, "device", d.ID, "type", d.Type)
	c.deviceChanged(tenantID, d, audit.ActionCreate, map[string]any{
		"type": string(d.Type),
		"name": d.Name,
	})
	return d, nil
}

// Delete removes a device and broadcasts a deletion notice.
func (c *Controller) Delete(ctx context.Context, tenantID, deviceID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := c.store.Commit(tenantID, func() error {
		if err := c.store.DeleteDevice(tenantID, deviceID); err != nil {
			return err
		}
		c.hub.Broadcast(tenantID, hub.Event{
			Kind:    hub.EventDeviceDeleted,
			Payload: DeviceDeleted{DeviceID: deviceID},
		})
		return nil
	})
	if err != nil {
		return err
	}
	c.logger.Info("device deleted", "tenant", tenantID, "device", deviceID)
	c.record(tenantID, audit.ActionDelete, audit.EntityDevice, deviceID, nil)
	return nil
}

// deviceChanged exports and audits a committed device change. The broadcast
// has already been issued under the tenant's commit lock.
func (c *Controller) deviceChanged(tenantID string, d *tenant.Device, action string, details map[string]any) {
	if c.exporter != nil {
		c.exporter.WriteDeviceState(tenantID, d.ID, string(d.Type), d.State,
			numericAttributes(d), time.UnixMilli(d.LastUpdated))
	}
	c.record(tenantID, action, audit.EntityDevice, d.ID, details)
}

// numericAttributes picks the attributes that can be charted.
func numericAttributes(d *tenant.Device) map[string]float64 {
	out := make(map[string]float64)
	for k, v := range d.Attributes {
		if f, ok := v.(float64); ok {
			out[k] = f
		}
	}
	return out
}
