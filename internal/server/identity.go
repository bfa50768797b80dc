package server

import (
	"net/http"
	"strings"

	"github.com/Caiolinooo/PontoFlow-sub001/internal/routing"
	"github.com/Caiolinooo/PontoFlow-sub001/modules/access/domain/types"
)

// Identity arrives on trusted headers set by the authenticating reverse
// proxy. Token issuance and session mechanics live outside this service.
const (
	headerAuthSubject  = "X-Auth-Subject"
	headerAuthRole     = "X-Auth-Role"
	headerAuthEmployee = "X-Auth-Employee"
	headerAuthEmail    = "X-Auth-Email"
)

func principalFromHeaders(r *http.Request, tenant Tenant) (Principal, bool) {
	subject := strings.TrimSpace(r.Header.Get(headerAuthSubject))
	employeeID := strings.TrimSpace(r.Header.Get(headerAuthEmployee))
	role, roleOK := types.ParseRole(r.Header.Get(headerAuthRole))
	if subject == "" || employeeID == "" || !roleOK {
		return Principal{}, false
	}
	return Principal{
		ID:         subject,
		TenantID:   tenant.ID,
		Role:       role,
		EmployeeID: employeeID,
		Email:      strings.ToLower(strings.TrimSpace(r.Header.Get(headerAuthEmail))),
	}, true
}

func withIdentity(classifier *routing.Classifier, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rc := routing.RouteClassUI
		if classifier != nil {
			rc = classifier.Classify(r.URL.Path)
		}
		if rc == routing.RouteClassOps || rc == routing.RouteClassStatic {
			next.ServeHTTP(w, r)
			return
		}

		tenant, ok := currentTenant(r.Context())
		if !ok {
			routing.WriteError(w, r, rc, http.StatusInternalServerError, "tenant_missing", "tenant missing")
			return
		}

		p, ok := principalFromHeaders(r, tenant)
		if !ok {
			routing.WriteError(w, r, rc, http.StatusUnauthorized, "unauthorized", "unauthorized")
			return
		}

		next.ServeHTTP(w, r.WithContext(withPrincipal(r.Context(), p)))
	})
}
