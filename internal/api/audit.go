package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/homesync-core/internal/audit"
)

// handleListAudit returns paginated audit entries for one tenant.
//
// Query parameters:
//   - action: filter by action (create, update, toggle, delete, alert, clear, discard)
//   - entity_type: filter by entity type (device, limit, sensor)
//   - entity_id: filter by specific entity ID
//   - limit: max results (default 50, max 200)
//   - offset: pagination offset
func (s *Server) handleListAudit(w http.ResponseWriter, r *http.Request) {
	if s.auditRepo == nil {
		writeUnavailable(w, "audit trail not enabled")
		return
	}

	tenantID := chi.URLParam(r, "tenant")
	if !s.ctrl.Store().HasTenant(tenantID) {
		writeNotFound(w, "tenant not found")
		return
	}

	q := r.URL.Query()
	filter := audit.Filter{
		Tenant:     tenantID,
		Action:     q.Get("action"),
		EntityType: q.Get("entity_type"),
		EntityID:   q.Get("entity_id"),
	}

	if v := q.Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			filter.Limit = n
		}
	}
	if v := q.Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			filter.Offset = n
		}
	}

	result, err := s.auditRepo.List(r.Context(), filter)
	if err != nil {
		s.logger.Error("failed to list audit entries", "tenant", tenantID, "error", err)
		writeInternalError(w, "failed to list audit entries")
		return
	}

	writeJSON(w, http.StatusOK, result)
}
