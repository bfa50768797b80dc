package server

import (
	"net/http"
	"strconv"

	"github.com/Caiolinooo/PontoFlow-sub001/internal/routing"
	accesstypes "github.com/Caiolinooo/PontoFlow-sub001/modules/access/domain/types"
)

// GET /api/access/audit?limit=N
func (h *handler) listAudit(w http.ResponseWriter, r *http.Request) {
	rc := h.classifier.Classify(r.URL.Path)
	p, tenant, ok := h.requestScope(w, r)
	if !ok {
		return
	}
	if !p.Role.IsAdmin() {
		routing.WriteError(w, r, rc, http.StatusForbidden, "access_denied", "only admins may read the audit log")
		return
	}
	if h.auditRead == nil {
		routing.WriteError(w, r, rc, http.StatusNotFound, "not_found", "audit log not available")
		return
	}

	limit := 100
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			routing.WriteError(w, r, rc, http.StatusBadRequest, "invalid_parameter", "limit must be a positive integer")
			return
		}
		limit = n
	}

	records, err := h.auditRead.ListRecent(r.Context(), tenant.ID, limit)
	if err != nil {
		routing.WriteError(w, r, rc, http.StatusInternalServerError, "store_error", "audit store failed")
		return
	}
	if records == nil {
		records = []accesstypes.AuditRecord{}
	}
	routing.WriteJSON(w, http.StatusOK, map[string]any{"records": records})
}
