package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Caiolinooo/PontoFlow-sub001/internal/routing"
)

const (
	testTenantID  = "00000000-0000-0000-0000-000000000001"
	testAdminID   = "a0000000-0000-0000-0000-00000000000a"
	testManagerID = "a0000000-0000-0000-0000-00000000000b"
	testUserID    = "a0000000-0000-0000-0000-00000000000c"
	testOtherID   = "a0000000-0000-0000-0000-00000000000d"
)

func localTenancyResolver() TenancyResolver {
	return newStaticTenancyResolver(map[string]Tenant{
		"localhost": {ID: testTenantID, Domain: "localhost", Name: "Local Tenant"},
	})
}

func testAllowlist() *routing.Allowlist {
	return &routing.Allowlist{
		Version: 1,
		Entrypoints: map[string]routing.Entrypoint{
			"server": {
				Routes: []routing.Route{
					{Path: "/health", Methods: []string{"GET"}, RouteClass: "ops"},
					{Path: "/healthz", Methods: []string{"GET"}, RouteClass: "ops"},
				},
			},
		},
	}
}

type allowAllAuthorizer struct{}

func (allowAllAuthorizer) Authorize(string, string, string, string) (bool, bool, error) {
	return true, true, nil
}

type recordingNotifier struct {
	events     []string
	recipients []string
}

func (n *recordingNotifier) Notify(_ context.Context, event string, recipient string, _ map[string]string) error {
	n.events = append(n.events, event)
	n.recipients = append(n.recipients, recipient)
	return nil
}

type testEnv struct {
	handler    http.Handler
	membership *memoryMembershipStore
	locks      *memoryLockStore
	audit      *memoryAuditStore
	entries    *memoryEntryStore
	notifier   *recordingNotifier
}

func newTestEnv(t *testing.T) *testEnv {
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
		Authorizer: allowAllAuthorizer{},
		Allowlist:  testAllowlist(),
	})
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	env.handler = h
	return env
}

type identity struct {
	subject  string
	role     string
	employee string
}

func adminIdentity() identity   { return identity{subject: "u-admin", role: "ADMIN", employee: testAdminID} }
func managerIdentity() identity { return identity{subject: "u-mgr", role: "MANAGER", employee: testManagerID} }
func userIdentity() identity    { return identity{subject: "u-user", role: "USER", employee: testUserID} }

func (env *testEnv) do(t *testing.T, method string, target string, ident identity, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("err=%v", err)
		}
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, target, reader)
	req.Host = "localhost"
	if ident.subject != "" {
		req.Header.Set("X-Auth-Subject", ident.subject)
		req.Header.Set("X-Auth-Role", ident.role)
		req.Header.Set("X-Auth-Employee", ident.employee)
	}
	rec := httptest.NewRecorder()
	env.handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, out any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), out); err != nil {
		t.Fatalf("err=%v body=%s", err, rec.Body.String())
	}
}

func TestNewHandler_Health(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/health", identity{}, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d", rec.Code)
	}
	rec = env.do(t, http.MethodGet, "/healthz", identity{}, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d", rec.Code)
	}
}

func TestHandler_UnknownTenant(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodGet, "/api/access/scope", nil)
	req.Host = "unknown.example"
	req.Header.Set("X-Auth-Subject", "u1")
	req.Header.Set("X-Auth-Role", "ADMIN")
	req.Header.Set("X-Auth-Employee", testAdminID)
	rec := httptest.NewRecorder()
	env.handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status=%d", rec.Code)
	}
}

func TestHandler_MissingIdentity(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/access/scope", identity{}, nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status=%d", rec.Code)
	}
}

func TestHandler_UnknownRoute(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/nope", adminIdentity(), nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status=%d", rec.Code)
	}
}
