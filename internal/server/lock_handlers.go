package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/Caiolinooo/PontoFlow-sub001/internal/routing"
	accesstypes "github.com/Caiolinooo/PontoFlow-sub001/modules/access/domain/types"
	accesssvc "github.com/Caiolinooo/PontoFlow-sub001/modules/access/services"
	"github.com/Caiolinooo/PontoFlow-sub001/pkg/httperr"
)

// GET /api/access/scope?manager_id=...
//
// Without manager_id the caller's own scope is resolved. Naming another
// manager is an admin-only inspection tool.
func (h *handler) resolveScope(w http.ResponseWriter, r *http.Request) {
	rc := h.classifier.Classify(r.URL.Path)
	p, tenant, ok := h.requestScope(w, r)
	if !ok {
		return
	}

	managerID := r.URL.Query().Get("manager_id")
	if managerID == "" {
		managerID = p.EmployeeID
	} else if managerID != p.EmployeeID && !p.Role.IsAdmin() {
		routing.WriteError(w, r, rc, http.StatusForbidden, "access_denied", "only admins may inspect another manager's scope")
		return
	}

	scope, err := h.scope.ResolveManagerScope(r.Context(), tenant.ID, managerID)
	if err != nil {
		routing.WriteError(w, r, rc, http.StatusInternalServerError, "store_error", "scope resolution failed")
		return
	}
	if scope == nil {
		scope = []string{}
	}
	routing.WriteJSON(w, http.StatusOK, map[string]any{
		"manager_id": managerID,
		"employees":  scope,
	})
}

// GET /api/access/locks?month=YYYY-MM-DD
func (h *handler) listLocks(w http.ResponseWriter, r *http.Request) {
	rc := h.classifier.Classify(r.URL.Path)
	_, tenant, ok := h.requestScope(w, r)
	if !ok {
		return
	}

	month, err := accesssvc.NormalizePeriodMonth(r.URL.Query().Get("month"))
	if err != nil {
		routing.WriteError(w, r, rc, http.StatusBadRequest, "invalid_parameter", "month must be an ISO calendar date")
		return
	}

	overrides, err := h.locks.ListOverrides(r.Context(), tenant.ID, month)
	if err != nil {
		routing.WriteError(w, r, rc, http.StatusInternalServerError, "store_error", "lock store failed")
		return
	}
	if overrides == nil {
		overrides = []accesstypes.PeriodLock{}
	}
	routing.WriteJSON(w, http.StatusOK, map[string]any{
		"period_month": month,
		"locks":        overrides,
	})
}

type lockRequest struct {
	ScopeLevel  string `json:"scope_level"`
	ScopeID     string `json:"scope_id"`
	PeriodMonth string `json:"period_month"`
	Locked      bool   `json:"locked"`
	Reason      string `json:"reason"`
}

func (h *handler) decodeLockRequest(w http.ResponseWriter, r *http.Request) (lockRequest, accesstypes.ScopeLevel, string, bool) {
	rc := h.classifier.Classify(r.URL.Path)

	var req lockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		routing.WriteError(w, r, rc, http.StatusBadRequest, "invalid_body", "invalid JSON body")
		return lockRequest{}, "", "", false
	}

	level, ok := accesstypes.ParseScopeLevel(req.ScopeLevel)
	if !ok {
		routing.WriteError(w, r, rc, http.StatusBadRequest, "invalid_parameter", "scope_level must be tenant, environment, group or employee")
		return lockRequest{}, "", "", false
	}
	month, err := accesssvc.NormalizePeriodMonth(req.PeriodMonth)
	if err != nil {
		routing.WriteError(w, r, rc, http.StatusBadRequest, "invalid_parameter", "period_month must be an ISO calendar date")
		return lockRequest{}, "", "", false
	}
	return req, level, month, true
}

// POST /api/access/locks
func (h *handler) setLock(w http.ResponseWriter, r *http.Request) {
	rc := h.classifier.Classify(r.URL.Path)
	p, tenant, ok := h.requestScope(w, r)
	if !ok {
		return
	}
	if !p.Role.IsAdmin() {
		routing.WriteError(w, r, rc, http.StatusForbidden, "access_denied", "only admins may set period locks")
		return
	}

	req, level, month, ok := h.decodeLockRequest(w, r)
	if !ok {
		return
	}

	lock := accesstypes.PeriodLock{
		TenantID:    tenant.ID,
		Level:       level,
		ScopeID:     req.ScopeID,
		PeriodMonth: month,
		Locked:      req.Locked,
		Reason:      req.Reason,
	}
	if err := h.locks.SetOverride(r.Context(), tenant.ID, p.ID, lock); err != nil {
		var badReq *httperr.BadRequestError
		if errors.As(err, &badReq) {
			routing.WriteError(w, r, rc, http.StatusBadRequest, "invalid_parameter", badReq.Error())
			return
		}
		routing.WriteError(w, r, rc, http.StatusInternalServerError, "store_error", "lock store failed")
		return
	}

	newValues, _ := json.Marshal(lock)
	h.auditRecord(r, p, tenant, accesstypes.AuditActionLockOverrideSet, "period_lock", req.ScopeID, nil, newValues)
	routing.WriteJSON(w, http.StatusOK, lock)
}

// POST /api/access/locks:clear
func (h *handler) clearLock(w http.ResponseWriter, r *http.Request) {
	rc := h.classifier.Classify(r.URL.Path)
	p, tenant, ok := h.requestScope(w, r)
	if !ok {
		return
	}
	if !p.Role.IsAdmin() {
		routing.WriteError(w, r, rc, http.StatusForbidden, "access_denied", "only admins may clear period locks")
		return
	}

	req, level, month, ok := h.decodeLockRequest(w, r)
	if !ok {
		return
	}

	if err := h.locks.ClearOverride(r.Context(), tenant.ID, level, req.ScopeID, month); err != nil {
		routing.WriteError(w, r, rc, http.StatusInternalServerError, "store_error", "lock store failed")
		return
	}

	oldValues, _ := json.Marshal(map[string]any{
		"scope_level":  level,
		"scope_id":     req.ScopeID,
		"period_month": month,
	})
	h.auditRecord(r, p, tenant, accesstypes.AuditActionLockOverrideCleared, "period_lock", req.ScopeID, oldValues, nil)
	routing.WriteJSON(w, http.StatusOK, map[string]any{"cleared": true})
}

// GET /api/access/locks/effective?employee_id=...&month=YYYY-MM-DD
//
// Explains the resolved lock state for one employee and period, including
// which scope level produced it.
func (h *handler) effectiveLock(w http.ResponseWriter, r *http.Request) {
	rc := h.classifier.Classify(r.URL.Path)
	p, tenant, ok := h.requestScope(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	params, err := accesssvc.SanitizeParameters(accesssvc.RawParams{EmployeeID: q.Get("employee_id")})
	if err != nil {
		routing.WriteError(w, r, rc, http.StatusBadRequest, "invalid_parameter", err.Error())
		return
	}
	employeeID := params.EmployeeID
	if employeeID == "" {
		employeeID = p.EmployeeID
	}
	month, err := accesssvc.NormalizePeriodMonth(q.Get("month"))
	if err != nil {
		routing.WriteError(w, r, rc, http.StatusBadRequest, "invalid_parameter", "month must be an ISO calendar date")
		return
	}

	decision, err := h.validator.ValidateAccess(r.Context(), p.EmployeeID, p.Role, tenant.ID, employeeID)
	if err != nil {
		h.auditRecord(r, p, tenant, accesstypes.AuditActionAccessDenied, "period_lock", employeeID, nil, nil)
		routing.WriteError(w, r, rc, http.StatusForbidden, "access_denied", "access denied")
		return
	}
	if !decision.Allowed {
		reason, _ := json.Marshal(map[string]string{"reason": decision.Reason})
		h.auditRecord(r, p, tenant, accesstypes.AuditActionAccessDenied, "period_lock", employeeID, nil, reason)
		routing.WriteError(w, r, rc, http.StatusForbidden, "access_denied", decision.Reason)
		return
	}

	lock, err := h.lockResolver.ResolveEffectiveLock(r.Context(), tenant.ID, employeeID, month)
	if err != nil {
		routing.WriteError(w, r, rc, http.StatusInternalServerError, "store_error", "lock resolution failed")
		return
	}
	resolved, _ := json.Marshal(lock)
	h.auditRecord(r, p, tenant, accesstypes.AuditActionRead, "period_lock", employeeID, nil, resolved)
	routing.WriteJSON(w, http.StatusOK, map[string]any{
		"employee_id":  employeeID,
		"period_month": month,
		"lock":         lock,
	})
}
