package control

import (
	"context"

	"github.com/nerrad567/homesync-core/internal/alert"
	"github.com/nerrad567/homesync-core/internal/audit"
	"github.com/nerrad567/homesync-core/internal/hub"
)

// UpdateLimit merges patch into a series limit and broadcasts the result.
// A series without a limit starts from {enabled: true}.
func (c *Controller) UpdateLimit(ctx context.Context, tenantID, sensor string, patch alert.LimitPatch) (alert.Limit, error) {
	if err := ctx.Err(); err != nil {
		return alert.Limit{}, err
	}
	var limit alert.Limit
	err := c.store.Commit(tenantID, func() error {
		var err error
		if limit, err = c.store.PutLimit(tenantID, sensor, patch); err != nil {
			return err
		}
		c.hub.Broadcast(tenantID, hub.Event{
			Kind:    hub.EventLimitsUpdated,
			Payload: LimitsUpdated{Sensor: sensor, Limit: limit},
		})
		return nil
	})
	if err != nil {
		return alert.Limit{}, err
	}

	c.logger.Info("limits updated", "tenant", tenantID, "sensor", sensor)
	c.record(tenantID, audit.ActionUpdate, audit.EntityLimit, sensor, limitDetails(limit))
	return limit, nil
}

func limitDetails(l alert.Limit) map[string]any {
	details := map[string]any{"enabled": l.Enabled}
	if l.Min != nil {
		details["min"] = *l.Min
	}
	if l.Max != nil {
		details["max"] = *l.Max
	}
	return details
}
