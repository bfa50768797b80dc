package server

import (
	"encoding/json"
	"net"
	"net/http"
	"strings"

	"github.com/Caiolinooo/PontoFlow-sub001/internal/routing"
	accesstypes "github.com/Caiolinooo/PontoFlow-sub001/modules/access/domain/types"
	accesssvc "github.com/Caiolinooo/PontoFlow-sub001/modules/access/services"
	tstypes "github.com/Caiolinooo/PontoFlow-sub001/modules/timesheet/domain/types"
	"github.com/Caiolinooo/PontoFlow-sub001/pkg/httperr"
)

func (h *handler) requestScope(w http.ResponseWriter, r *http.Request) (Principal, Tenant, bool) {
	rc := h.classifier.Classify(r.URL.Path)
	tenant, ok := currentTenant(r.Context())
	if !ok {
		routing.WriteError(w, r, rc, http.StatusInternalServerError, "tenant_missing", "tenant missing")
		return Principal{}, Tenant{}, false
	}
	p, ok := currentPrincipal(r.Context())
	if !ok {
		routing.WriteError(w, r, rc, http.StatusUnauthorized, "unauthorized", "unauthorized")
		return Principal{}, Tenant{}, false
	}
	return p, tenant, true
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func (h *handler) auditRecord(r *http.Request, p Principal, tenant Tenant, action accesstypes.AuditAction, resourceType string, resourceID string, oldValues, newValues json.RawMessage) {
	h.audit.Record(r.Context(), accesstypes.AuditRecord{
		TenantID:     tenant.ID,
		ActorID:      p.ID,
		Action:       action,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		OldValues:    oldValues,
		NewValues:    newValues,
		SourceIP:     clientIP(r),
		UserAgent:    r.UserAgent(),
	})
}

// GET /api/timesheet/entries?month=YYYY-MM-DD&employee_id=...&status=...
func (h *handler) listEntries(w http.ResponseWriter, r *http.Request) {
	rc := h.classifier.Classify(r.URL.Path)
	p, tenant, ok := h.requestScope(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	params, err := accesssvc.SanitizeParameters(accesssvc.RawParams{
		EmployeeID: q.Get("employee_id"),
		Status:     q.Get("status"),
	})
	if err != nil {
		routing.WriteError(w, r, rc, http.StatusBadRequest, "invalid_parameter", err.Error())
		return
	}
	month, err := accesssvc.NormalizePeriodMonth(q.Get("month"))
	if err != nil {
		routing.WriteError(w, r, rc, http.StatusBadRequest, "invalid_parameter", "month must be an ISO calendar date")
		return
	}

	decision, err := h.validator.ValidateAccess(r.Context(), p.EmployeeID, p.Role, tenant.ID, params.EmployeeID)
	if err != nil {
		routing.WriteError(w, r, rc, http.StatusForbidden, "access_denied", "access denied")
		return
	}
	if !decision.Allowed {
		h.auditRecord(r, p, tenant, accesstypes.AuditActionAccessDenied, "timesheet_entry", params.EmployeeID, nil, nil)
		routing.WriteError(w, r, rc, http.StatusForbidden, "access_denied", decision.Reason)
		return
	}

	var targets []string
	switch {
	case decision.EmployeeID != "":
		targets = []string{decision.EmployeeID}
	case len(decision.Scope) > 0:
		targets = decision.Scope
	default:
		// Admins carry no scope restriction; listing still needs a
		// concrete employee to query.
		routing.WriteError(w, r, rc, http.StatusBadRequest, "invalid_parameter", "employee_id is required")
		return
	}

	entries := make([]tstypes.Entry, 0)
	for _, employeeID := range targets {
		rows, err := h.entries.ListEntriesForEmployee(r.Context(), tenant.ID, employeeID, month)
		if err != nil {
			routing.WriteError(w, r, rc, http.StatusInternalServerError, "store_error", "entry store failed")
			return
		}
		for _, e := range rows {
			if params.Status != "" && e.Status != params.Status {
				continue
			}
			entries = append(entries, e)
		}
	}

	h.auditRecord(r, p, tenant, accesstypes.AuditActionRead, "timesheet_entry", strings.Join(targets, ","), nil, nil)
	routing.WriteJSON(w, http.StatusOK, map[string]any{
		"period_month": month,
		"entries":      entries,
	})
}

type entryEditRequest struct {
	ID            string `json:"id"`
	EmployeeID    string `json:"employee_id"`
	Hours         string `json:"hours"`
	Status        string `json:"status"`
	Note          string `json:"note"`
	Justification string `json:"justification"`
}

func (h *handler) loadEntryForEdit(w http.ResponseWriter, r *http.Request, tenant Tenant, req entryEditRequest) (tstypes.Entry, bool) {
	rc := h.classifier.Classify(r.URL.Path)
	if strings.TrimSpace(req.ID) == "" {
		routing.WriteError(w, r, rc, http.StatusBadRequest, "invalid_parameter", "id is required")
		return tstypes.Entry{}, false
	}

	entry, found, err := h.entries.GetEntry(r.Context(), tenant.ID, req.ID)
	if err != nil {
		routing.WriteError(w, r, rc, http.StatusInternalServerError, "store_error", "entry store failed")
		return tstypes.Entry{}, false
	}
	if !found {
		routing.WriteError(w, r, rc, http.StatusNotFound, "not_found", "entry not found")
		return tstypes.Entry{}, false
	}

	// The stored row decides whose entry and which period this is; a
	// mismatching body is rejected rather than trusted.
	if req.EmployeeID != "" && req.EmployeeID != entry.EmployeeID {
		routing.WriteError(w, r, rc, http.StatusUnprocessableEntity, "employee_mismatch", "employee_id does not match the entry")
		return tstypes.Entry{}, false
	}
	return entry, true
}

func (h *handler) authorizeEdit(w http.ResponseWriter, r *http.Request, p Principal, tenant Tenant, entry tstypes.Entry, justification string, isDelete bool) (accesssvc.EditAuthorization, bool) {
	rc := h.classifier.Classify(r.URL.Path)
	auth, err := h.gate.AuthorizeEntryEdit(r.Context(), accesssvc.EditRequest{
		ActorEmployeeID: p.EmployeeID,
		Role:            p.Role,
		TenantID:        tenant.ID,
		TimesheetID:     entry.ID,
		EmployeeID:      entry.EmployeeID,
		PeriodMonth:     entry.PeriodMonth,
		Justification:   justification,
		Delete:          isDelete,
	})
	if err != nil {
		routing.WriteError(w, r, rc, http.StatusForbidden, "access_denied", "access denied")
		return accesssvc.EditAuthorization{}, false
	}
	if !auth.Allowed {
		reason, _ := json.Marshal(map[string]string{"reason": auth.Reason})
		h.auditRecord(r, p, tenant, accesstypes.AuditActionAccessDenied, "timesheet_entry", entry.ID, nil, reason)
		if auth.Reason == accesssvc.ReasonJustificationRequired {
			routing.WriteError(w, r, rc, http.StatusUnprocessableEntity, "justification_required", "a justification of at least 10 characters is required for a locked period")
			return accesssvc.EditAuthorization{}, false
		}
		routing.WriteError(w, r, rc, http.StatusForbidden, "access_denied", auth.Reason)
		return accesssvc.EditAuthorization{}, false
	}
	return auth, true
}

func (h *handler) notifyClosedPeriodEdit(r *http.Request, p Principal, entry tstypes.Entry, auth accesssvc.EditAuthorization) {
	if !auth.NotifyEmployee {
		return
	}
	_ = h.notifier.Notify(r.Context(), "manager_edit_closed_period", entry.EmployeeID, map[string]string{
		"entry_id":     entry.ID,
		"period_month": entry.PeriodMonth,
		"actor_id":     p.ID,
		"lock_source":  string(auth.Lock.Source),
	})
}

// POST /api/timesheet/entries:update
func (h *handler) updateEntry(w http.ResponseWriter, r *http.Request) {
	rc := h.classifier.Classify(r.URL.Path)
	p, tenant, ok := h.requestScope(w, r)
	if !ok {
		return
	}

	var req entryEditRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		routing.WriteError(w, r, rc, http.StatusBadRequest, "invalid_body", "invalid JSON body")
		return
	}

	if _, err := accesssvc.SanitizeParameters(accesssvc.RawParams{Status: req.Status}); err != nil {
		routing.WriteError(w, r, rc, http.StatusBadRequest, "invalid_parameter", err.Error())
		return
	}

	entry, ok := h.loadEntryForEdit(w, r, tenant, req)
	if !ok {
		return
	}
	auth, ok := h.authorizeEdit(w, r, p, tenant, entry, req.Justification, false)
	if !ok {
		return
	}

	next := entry
	if req.Hours != "" {
		next.Hours = req.Hours
	}
	if req.Status != "" {
		next.Status = req.Status
	}
	next.Note = req.Note

	updated, err := h.entries.UpdateEntry(r.Context(), tenant.ID, p.ID, next)
	if err != nil {
		if httperr.IsBadRequest(err) {
			routing.WriteError(w, r, rc, http.StatusBadRequest, "invalid_parameter", err.Error())
			return
		}
		routing.WriteError(w, r, rc, http.StatusInternalServerError, "store_error", "entry store failed")
		return
	}

	oldValues, _ := json.Marshal(entry)
	newValues, _ := json.Marshal(updated)
	if auth.NotifyEmployee {
		newValues, _ = json.Marshal(map[string]any{
			"entry":         updated,
			"justification": req.Justification,
			"lock_source":   auth.Lock.Source,
		})
	}
	h.auditRecord(r, p, tenant, auth.AuditAction, "timesheet_entry", entry.ID, oldValues, newValues)
	h.notifyClosedPeriodEdit(r, p, entry, auth)

	routing.WriteJSON(w, http.StatusOK, updated)
}

// POST /api/timesheet/entries:delete
func (h *handler) deleteEntry(w http.ResponseWriter, r *http.Request) {
	rc := h.classifier.Classify(r.URL.Path)
	p, tenant, ok := h.requestScope(w, r)
	if !ok {
		return
	}

	var req entryEditRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		routing.WriteError(w, r, rc, http.StatusBadRequest, "invalid_body", "invalid JSON body")
		return
	}

	entry, ok := h.loadEntryForEdit(w, r, tenant, req)
	if !ok {
		return
	}
	auth, ok := h.authorizeEdit(w, r, p, tenant, entry, req.Justification, true)
	if !ok {
		return
	}

	if err := h.entries.DeleteEntry(r.Context(), tenant.ID, p.ID, entry.ID); err != nil {
		if httperr.IsBadRequest(err) {
			routing.WriteError(w, r, rc, http.StatusBadRequest, "invalid_parameter", err.Error())
			return
		}
		routing.WriteError(w, r, rc, http.StatusInternalServerError, "store_error", "entry store failed")
		return
	}

	oldValues, _ := json.Marshal(entry)
	var newValues json.RawMessage
	if auth.NotifyEmployee {
		newValues, _ = json.Marshal(map[string]any{
			"justification": req.Justification,
			"lock_source":   auth.Lock.Source,
		})
	}
	h.auditRecord(r, p, tenant, auth.AuditAction, "timesheet_entry", entry.ID, oldValues, newValues)
	h.notifyClosedPeriodEdit(r, p, entry, auth)

	routing.WriteJSON(w, http.StatusOK, map[string]any{"deleted": true, "id": entry.ID})
}
