package server

import (
	"net/http"
	"testing"

	accesstypes "github.com/Caiolinooo/PontoFlow-sub001/modules/access/domain/types"
	tstypes "github.com/Caiolinooo/PontoFlow-sub001/modules/timesheet/domain/types"
)

func seedTeam(env *testEnv) {
	env.membership.addGroup(testTenantID, "g1", "Team Alpha")
	env.membership.addMember(testTenantID, "g1", testUserID)
	env.membership.addMember(testTenantID, "g1", testOtherID)
	env.membership.assignManager(testTenantID, testManagerID, "g1")
}

func seedEntry(env *testEnv, id string, employeeID string) tstypes.Entry {
	e := tstypes.Entry{
		ID:          id,
		TenantID:    testTenantID,
		EmployeeID:  employeeID,
		WorkDate:    "2025-03-17",
		PeriodMonth: "2025-03-01",
		Hours:       "8.0",
		Status:      "submitted",
	}
	env.entries.put(e)
	return e
}

type entriesResponse struct {
	PeriodMonth string          `json:"period_month"`
	Entries     []tstypes.Entry `json:"entries"`
}

func TestListEntries_UserSeesOwnOnly(t *testing.T) {
	env := newTestEnv(t)
	seedTeam(env)
	seedEntry(env, "e1", testUserID)
	seedEntry(env, "e2", testOtherID)

	rec := env.do(t, http.MethodGet, "/api/timesheet/entries?month=2025-03-01", userIdentity(), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", rec.Code, rec.Body.String())
	}
	var resp entriesResponse
	decodeBody(t, rec, &resp)
	if len(resp.Entries) != 1 || resp.Entries[0].ID != "e1" {
		t.Fatalf("entries=%+v", resp.Entries)
	}
}

func TestListEntries_UserCrossEmployeeDenied(t *testing.T) {
	env := newTestEnv(t)
	seedTeam(env)

	rec := env.do(t, http.MethodGet, "/api/timesheet/entries?month=2025-03-01&employee_id="+testOtherID, userIdentity(), nil)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("status=%d body=%s", rec.Code, rec.Body.String())
	}

	found := false
	for _, logged := range env.audit.records {
		if logged.Action == accesstypes.AuditActionAccessDenied {
			found = true
		}
	}
	if !found {
		t.Fatal("expected access_denied audit record")
	}
}

func TestListEntries_ManagerSeesWholeScope(t *testing.T) {
	env := newTestEnv(t)
	seedTeam(env)
	seedEntry(env, "e1", testUserID)
	seedEntry(env, "e2", testOtherID)

	rec := env.do(t, http.MethodGet, "/api/timesheet/entries?month=2025-03-01", managerIdentity(), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", rec.Code, rec.Body.String())
	}
	var resp entriesResponse
	decodeBody(t, rec, &resp)
	if len(resp.Entries) != 2 {
		t.Fatalf("entries=%+v", resp.Entries)
	}
}

func TestListEntries_ManagerWithoutGroupsDegradesToSelf(t *testing.T) {
	env := newTestEnv(t)
	seedEntry(env, "e1", testUserID)
	seedEntry(env, "e2", testManagerID)

	rec := env.do(t, http.MethodGet, "/api/timesheet/entries?month=2025-03-01", managerIdentity(), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", rec.Code, rec.Body.String())
	}
	var resp entriesResponse
	decodeBody(t, rec, &resp)
	if len(resp.Entries) != 1 || resp.Entries[0].ID != "e2" {
		t.Fatalf("entries=%+v", resp.Entries)
	}
}

func TestListEntries_AdminNeedsEmployeeID(t *testing.T) {
	env := newTestEnv(t)
	seedEntry(env, "e1", testUserID)

	rec := env.do(t, http.MethodGet, "/api/timesheet/entries?month=2025-03-01", adminIdentity(), nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status=%d body=%s", rec.Code, rec.Body.String())
	}

	rec = env.do(t, http.MethodGet, "/api/timesheet/entries?month=2025-03-01&employee_id="+testUserID, adminIdentity(), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", rec.Code, rec.Body.String())
	}
}

func TestListEntries_BadMonth(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/timesheet/entries?month=2025-13", userIdentity(), nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status=%d", rec.Code)
	}
}

func TestUpdateEntry_OpenPeriod(t *testing.T) {
	env := newTestEnv(t)
	seedTeam(env)
	seedEntry(env, "e1", testUserID)

	rec := env.do(t, http.MethodPost, "/api/timesheet/entries:update", managerIdentity(), map[string]any{
		"id":    "e1",
		"hours": "7.5",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", rec.Code, rec.Body.String())
	}
	var updated tstypes.Entry
	decodeBody(t, rec, &updated)
	if updated.Hours != "7.5" {
		t.Fatalf("hours=%q", updated.Hours)
	}

	last := env.audit.records[len(env.audit.records)-1]
	if last.Action != accesstypes.AuditActionUpdate {
		t.Fatalf("action=%q", last.Action)
	}
	if len(env.notifier.events) != 0 {
		t.Fatalf("events=%v", env.notifier.events)
	}
}

func TestUpdateEntry_LockedPeriodNeedsJustification(t *testing.T) {
	env := newTestEnv(t)
	seedTeam(env)
	seedEntry(env, "e1", testUserID)
	env.locks.overrides[memoryLockKey{testTenantID, accesstypes.ScopeLevelTenant, testTenantID, "2025-03-01"}] = accesstypes.PeriodLock{
		TenantID: testTenantID, Level: accesstypes.ScopeLevelTenant, ScopeID: testTenantID,
		PeriodMonth: "2025-03-01", Locked: true, Reason: "month closed",
	}

	rec := env.do(t, http.MethodPost, "/api/timesheet/entries:update", managerIdentity(), map[string]any{
		"id":            "e1",
		"hours":         "6.0",
		"justification": "fix",
	})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status=%d body=%s", rec.Code, rec.Body.String())
	}
	if len(env.audit.records) == 0 {
		t.Fatal("denial not audited")
	}
	denied := env.audit.records[len(env.audit.records)-1]
	if denied.Action != accesstypes.AuditActionAccessDenied || denied.ResourceID != "e1" {
		t.Fatalf("record=%+v", denied)
	}

	rec = env.do(t, http.MethodPost, "/api/timesheet/entries:update", managerIdentity(), map[string]any{
		"id":            "e1",
		"hours":         "6.0",
		"justification": "correcting a payroll error",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", rec.Code, rec.Body.String())
	}

	last := env.audit.records[len(env.audit.records)-1]
	if last.Action != accesstypes.AuditActionManagerEditClosedPeriod {
		t.Fatalf("action=%q", last.Action)
	}
	if len(env.notifier.events) != 1 || env.notifier.events[0] != "manager_edit_closed_period" {
		t.Fatalf("events=%v", env.notifier.events)
	}
	if env.notifier.recipients[0] != testUserID {
		t.Fatalf("recipient=%q", env.notifier.recipients[0])
	}
}

func TestUpdateEntry_AdminBypassesLock(t *testing.T) {
	env := newTestEnv(t)
	seedEntry(env, "e1", testUserID)
	env.locks.overrides[memoryLockKey{testTenantID, accesstypes.ScopeLevelTenant, testTenantID, "2025-03-01"}] = accesstypes.PeriodLock{
		TenantID: testTenantID, Level: accesstypes.ScopeLevelTenant, ScopeID: testTenantID,
		PeriodMonth: "2025-03-01", Locked: true,
	}

	rec := env.do(t, http.MethodPost, "/api/timesheet/entries:update", adminIdentity(), map[string]any{
		"id":    "e1",
		"hours": "9.0",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", rec.Code, rec.Body.String())
	}
	last := env.audit.records[len(env.audit.records)-1]
	if last.Action != accesstypes.AuditActionUpdate {
		t.Fatalf("action=%q", last.Action)
	}
}

func TestUpdateEntry_EmployeeMismatchRejected(t *testing.T) {
	env := newTestEnv(t)
	seedTeam(env)
	seedEntry(env, "e1", testUserID)

	rec := env.do(t, http.MethodPost, "/api/timesheet/entries:update", managerIdentity(), map[string]any{
		"id":          "e1",
		"employee_id": testOtherID,
		"hours":       "7.0",
	})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status=%d body=%s", rec.Code, rec.Body.String())
	}
}

func TestUpdateEntry_NotFound(t *testing.T) {
	env := newTestEnv(t)
	seedTeam(env)

	rec := env.do(t, http.MethodPost, "/api/timesheet/entries:update", managerIdentity(), map[string]any{
		"id":    "missing",
		"hours": "7.0",
	})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status=%d body=%s", rec.Code, rec.Body.String())
	}
}

func TestDeleteEntry_OutOfScopeDenied(t *testing.T) {
	env := newTestEnv(t)
	// Manager has no groups, so only the manager's own record is editable.
	seedEntry(env, "e1", testUserID)

	rec := env.do(t, http.MethodPost, "/api/timesheet/entries:delete", managerIdentity(), map[string]any{
		"id": "e1",
	})
	if rec.Code != http.StatusForbidden {
		t.Fatalf("status=%d body=%s", rec.Code, rec.Body.String())
	}
}

func TestDeleteEntry_LockedPeriodWithJustification(t *testing.T) {
	env := newTestEnv(t)
	seedTeam(env)
	seedEntry(env, "e1", testUserID)
	env.locks.overrides[memoryLockKey{testTenantID, accesstypes.ScopeLevelGroup, "g1", "2025-03-01"}] = accesstypes.PeriodLock{
		TenantID: testTenantID, Level: accesstypes.ScopeLevelGroup, ScopeID: "g1",
		PeriodMonth: "2025-03-01", Locked: true,
	}

	rec := env.do(t, http.MethodPost, "/api/timesheet/entries:delete", managerIdentity(), map[string]any{
		"id":            "e1",
		"justification": "duplicate entry removed",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", rec.Code, rec.Body.String())
	}
	if _, found, _ := env.entries.GetEntry(t.Context(), testTenantID, "e1"); found {
		t.Fatal("entry still present")
	}
	last := env.audit.records[len(env.audit.records)-1]
	if last.Action != accesstypes.AuditActionManagerEditClosedPeriod {
		t.Fatalf("action=%q", last.Action)
	}
}
