package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/nerrad567/homesync-core/internal/alert"
	"github.com/nerrad567/homesync-core/internal/hub"
	"github.com/nerrad567/homesync-core/internal/tenant"
)

// upgrader configures the WebSocket upgrader.
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(_ *http.Request) bool {
		// Origin checking is handled by CORS middleware
		return true
	},
}

// Snapshot is the full view of a tenant sent when a connection joins.
type Snapshot struct {
	Devices map[string]*tenant.Device `json:"devices"`
	Sensors []tenant.SensorInfo       `json:"sensors"`
	Limits  map[string]alert.Limit    `json:"limits"`
	Alerts  map[string]alert.Alert    `json:"alerts"`
}

// handleWebSocket upgrades a request to a tenant-bound WebSocket connection.
// The tenant comes from ?tenant= (or ?userId=) and is checked before upgrading.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	tenantID := r.URL.Query().Get("tenant")
	if tenantID == "" {
		tenantID = r.URL.Query().Get("userId")
	}
	if tenantID == "" {
		writeBadRequest(w, "tenant query parameter is required")
		return
	}
	if !s.ctrl.Store().HasTenant(tenantID) {
		writeNotFound(w, "tenant not found")
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written an HTTP error.
		s.logger.Warn("websocket upgrade failed", "tenant", tenantID, "error", err)
		return
	}

	client := hub.NewClient(tenantID, conn, s.wsCfg.SendBuffer)
	if err := s.hub.Register(client); err != nil {
		s.logger.Warn("websocket registration rejected", "tenant", tenantID, "error", err)
		conn.WriteMessage(websocket.CloseMessage, //nolint:errcheck // best-effort close frame
			websocket.FormatCloseMessage(websocket.CloseTryAgainLater, err.Error()))
		conn.Close()
		return
	}

	s.sendSnapshot(r.Context(), client)
	client.Start(s.hub, s.wsCfg, s.handleWSRequest)
}

// handleWSRequest answers client messages other than ping.
func (s *Server) handleWSRequest(c *hub.Client, msg hub.Message) {
	switch msg.Type {
	case hub.TypeSnapshot:
		s.sendSnapshot(context.Background(), c)
	default:
		c.ReplyError(msg.ID, "unknown message type: "+msg.Type)
	}
}

// sendSnapshot builds and queues the snapshot under the tenant's commit lock,
// so no broadcast issued before it can reach the client after it.
func (s *Server) sendSnapshot(ctx context.Context, c *hub.Client) {
	err := s.ctrl.Store().Commit(c.Tenant(), func() error {
		snap, err := s.buildSnapshot(ctx, c.Tenant())
		if err != nil {
			return err
		}
		s.hub.Send(c, hub.Event{Kind: hub.EventSnapshot, Payload: snap})
		return nil
	})
	if err != nil {
		s.logger.Error("building snapshot failed", "tenant", c.Tenant(), "error", err)
		c.ReplyError("", "snapshot unavailable")
	}
}

func (s *Server) buildSnapshot(ctx context.Context, tenantID string) (*Snapshot, error) {
	devices, err := s.ctrl.Devices(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("devices: %w", err)
	}
	sensors, err := s.ctrl.Sensors(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("sensors: %w", err)
	}
	limits, err := s.ctrl.Limits(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("limits: %w", err)
	}
	alerts, err := s.ctrl.ActiveAlerts(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("alerts: %w", err)
	}

	return &Snapshot{
		Devices: devices,
		Sensors: sensors,
		Limits:  limits,
		Alerts:  alerts,
	}, nil
}
