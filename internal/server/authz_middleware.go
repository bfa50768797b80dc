package server

import (
	"errors"
	"net/http"
	"os"
	"path/filepath"

	"github.com/Caiolinooo/PontoFlow-sub001/internal/routing"
	"github.com/Caiolinooo/PontoFlow-sub001/modules/access/domain/types"
	"github.com/Caiolinooo/PontoFlow-sub001/pkg/authz"
)

func loadAuthorizer() (*authz.Authorizer, error) {
	modelPath := os.Getenv("AUTHZ_MODEL_PATH")
	if modelPath == "" {
		p, err := defaultAuthzConfigPath("config/access/model.conf")
		if err != nil {
			return nil, err
		}
		modelPath = p
	}

	policyPath := os.Getenv("AUTHZ_POLICY_PATH")
	if policyPath == "" {
		p, err := defaultAuthzConfigPath("config/access/policy.csv")
		if err != nil {
			return nil, err
		}
		policyPath = p
	}

	mode, err := authz.ModeFromEnv()
	if err != nil {
		return nil, err
	}

	return authz.NewAuthorizer(modelPath, policyPath, mode)
}

func defaultAuthzConfigPath(rel string) (string, error) {
	path := rel
	for range 8 {
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
		path = filepath.Join("..", path)
	}
	return "", errors.New("server: authz config not found: " + rel)
}

type authorizer interface {
	Authorize(subject string, domain string, object string, action string) (allowed bool, enforced bool, err error)
}

// authzRequirementForRoute maps a route to the casbin object/action pair
// checked before the handler runs. The fine-grained per-employee decision
// happens afterwards inside the access module.
func authzRequirementForRoute(method string, path string) (object string, action string, shouldCheck bool) {
	switch path {
	case "/api/timesheet/entries":
		return authz.ObjectTimesheetEntries, authz.ActionRead, true
	case "/api/timesheet/entries:update", "/api/timesheet/entries:delete":
		return authz.ObjectTimesheetEntries, authz.ActionWrite, true
	case "/api/access/scope":
		return authz.ObjectAccessScope, authz.ActionRead, true
	case "/api/access/locks":
		if method == http.MethodPost {
			return authz.ObjectAccessLocks, authz.ActionAdmin, true
		}
		return authz.ObjectAccessLocks, authz.ActionRead, true
	case "/api/access/locks:clear":
		return authz.ObjectAccessLocks, authz.ActionAdmin, true
	case "/api/access/locks/effective":
		return authz.ObjectAccessLocks, authz.ActionRead, true
	case "/api/access/audit":
		return authz.ObjectAccessAudit, authz.ActionAdmin, true
	case "/internal/access/rules:evaluate":
		return authz.ObjectAccessRules, authz.ActionAdmin, true
	}
	return "", "", false
}

func roleSlug(role types.Role) string {
	switch role {
	case types.RoleUser:
		return authz.RoleUser
	case types.RoleManager:
		return authz.RoleManager
	case types.RoleManagerTimesheet:
		return authz.RoleManagerTimesheet
	case types.RoleAdmin:
		return authz.RoleAdmin
	case types.RoleTenantAdmin:
		return authz.RoleTenantAdmin
	}
	return authz.RoleAnonymous
}

func withAuthz(classifier *routing.Classifier, a authorizer, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Path
		rc := routing.RouteClassUI
		if classifier != nil {
			rc = classifier.Classify(path)
		}

		if rc == routing.RouteClassOps || rc == routing.RouteClassStatic {
			next.ServeHTTP(w, r)
			return
		}

		object, action, shouldCheck := authzRequirementForRoute(r.Method, path)
		if !shouldCheck {
			next.ServeHTTP(w, r)
			return
		}

		tenant, ok := currentTenant(r.Context())
		if !ok {
			routing.WriteError(w, r, rc, http.StatusInternalServerError, "tenant_missing", "tenant missing")
			return
		}

		slug := authz.RoleAnonymous
		if p, ok := currentPrincipal(r.Context()); ok {
			slug = roleSlug(p.Role)
		}

		subject := authz.SubjectFromRoleSlug(slug)
		domain := authz.DomainFromTenantID(tenant.ID)

		allowed, enforced, err := a.Authorize(subject, domain, object, action)
		if err != nil {
			routing.WriteError(w, r, rc, http.StatusInternalServerError, "authz_error", "authz error")
			return
		}
		if enforced && !allowed {
			routing.WriteError(w, r, rc, http.StatusForbidden, "forbidden", "forbidden")
			return
		}

		next.ServeHTTP(w, r)
	})
}
