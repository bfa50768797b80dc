package server

import (
	"net/http"
	"testing"

	"github.com/Caiolinooo/PontoFlow-sub001/modules/access/domain/types"
	"github.com/Caiolinooo/PontoFlow-sub001/pkg/authz"
)

type denyAllAuthorizer struct {
	enforced bool
	calls    int
}

func (a *denyAllAuthorizer) Authorize(string, string, string, string) (bool, bool, error) {
	a.calls++
	return false, a.enforced, nil
}

func newDenyEnv(t *testing.T, az authorizer) *testEnv {
	t.Helper()
	env := &testEnv{
		membership: newMemoryMembershipStore(),
		locks:      newMemoryLockStore(),
		audit:      newMemoryAuditStore(),
		entries:    newMemoryEntryStore(),
		notifier:   &recordingNotifier{},
	}
	h, err := NewHandler(HandlerOptions{
		Tenancy:    localTenancyResolver(),
		Membership: env.membership,
		Locks:      env.locks,
		AuditLog:   env.audit,
		AuditRead:  env.audit,
		Entries:    env.entries,
		Notifier:   env.notifier,
		Authorizer: az,
		Allowlist:  testAllowlist(),
	})
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	env.handler = h
	return env
}

func TestWithAuthz_EnforcedDenyBlocks(t *testing.T) {
	az := &denyAllAuthorizer{enforced: true}
	env := newDenyEnv(t, az)

	rec := env.do(t, http.MethodGet, "/api/access/scope", managerIdentity(), nil)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("status=%d", rec.Code)
	}
	if az.calls != 1 {
		t.Fatalf("calls=%d", az.calls)
	}
}

func TestWithAuthz_ShadowDenyPasses(t *testing.T) {
	az := &denyAllAuthorizer{enforced: false}
	env := newDenyEnv(t, az)

	rec := env.do(t, http.MethodGet, "/api/access/scope", managerIdentity(), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", rec.Code, rec.Body.String())
	}
	if az.calls != 1 {
		t.Fatalf("calls=%d", az.calls)
	}
}

func TestWithAuthz_OpsRouteSkipsCheck(t *testing.T) {
	az := &denyAllAuthorizer{enforced: true}
	env := newDenyEnv(t, az)

	rec := env.do(t, http.MethodGet, "/health", identity{}, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d", rec.Code)
	}
	if az.calls != 0 {
		t.Fatalf("calls=%d", az.calls)
	}
}

func TestAuthzRequirementForRoute(t *testing.T) {
	cases := []struct {
		method string
		path   string
		object string
		action string
		check  bool
	}{
		{http.MethodGet, "/api/timesheet/entries", authz.ObjectTimesheetEntries, authz.ActionRead, true},
		{http.MethodPost, "/api/timesheet/entries:update", authz.ObjectTimesheetEntries, authz.ActionWrite, true},
		{http.MethodPost, "/api/timesheet/entries:delete", authz.ObjectTimesheetEntries, authz.ActionWrite, true},
		{http.MethodGet, "/api/access/scope", authz.ObjectAccessScope, authz.ActionRead, true},
		{http.MethodGet, "/api/access/locks", authz.ObjectAccessLocks, authz.ActionRead, true},
		{http.MethodPost, "/api/access/locks", authz.ObjectAccessLocks, authz.ActionAdmin, true},
		{http.MethodPost, "/api/access/locks:clear", authz.ObjectAccessLocks, authz.ActionAdmin, true},
		{http.MethodGet, "/api/access/locks/effective", authz.ObjectAccessLocks, authz.ActionRead, true},
		{http.MethodGet, "/api/access/audit", authz.ObjectAccessAudit, authz.ActionAdmin, true},
		{http.MethodPost, "/internal/access/rules:evaluate", authz.ObjectAccessRules, authz.ActionAdmin, true},
		{http.MethodGet, "/health", "", "", false},
	}
	for _, tc := range cases {
		object, action, check := authzRequirementForRoute(tc.method, tc.path)
		if object != tc.object || action != tc.action || check != tc.check {
			t.Fatalf("%s %s: object=%q action=%q check=%v", tc.method, tc.path, object, action, check)
		}
	}
}

func TestRoleSlug(t *testing.T) {
	cases := map[types.Role]string{
		types.RoleUser:             authz.RoleUser,
		types.RoleManager:          authz.RoleManager,
		types.RoleManagerTimesheet: authz.RoleManagerTimesheet,
		types.RoleAdmin:            authz.RoleAdmin,
		types.RoleTenantAdmin:      authz.RoleTenantAdmin,
	}
	for role, want := range cases {
		if got := roleSlug(role); got != want {
			t.Fatalf("role=%q slug=%q", role, got)
		}
	}
	if got := roleSlug(types.Role("nope")); got != authz.RoleAnonymous {
		t.Fatalf("slug=%q", got)
	}
}
