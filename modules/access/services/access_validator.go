package services

import (
	"context"
	"errors"
	"strings"

	"github.com/Caiolinooo/PontoFlow-sub001/modules/access/domain/types"
)

// Deny reasons carried in AccessDecision.Reason. They are terminal; a
// denied decision is never downgraded to allow further down the chain.
const (
	DenyCrossEmployee    = "cross-employee"
	DenyOutOfScope       = "out-of-scope"
	DenyUnauthorizedRole = "unauthorized-role"
)

type AccessValidator struct {
	scope ScopeResolver
}

func NewAccessValidator(scope ScopeResolver) AccessValidator {
	return AccessValidator{scope: scope}
}

// ValidateAccess decides whether the actor may act on the requested
// employee within the tenant. actorEmployeeID is the actor's own employee
// record; requestedEmployeeID may be empty for listing operations.
//
// The validator is pure: it never writes the audit trail itself. The
// orchestrating handler records every decision, allowed or denied.
func (v AccessValidator) ValidateAccess(ctx context.Context, actorEmployeeID string, role types.Role, tenantID string, requestedEmployeeID string) (types.AccessDecision, error) {
	actorEmployeeID = strings.TrimSpace(actorEmployeeID)
	tenantID = strings.TrimSpace(tenantID)
	requestedEmployeeID = strings.TrimSpace(requestedEmployeeID)
	if tenantID == "" {
		return types.AccessDecision{}, errors.New("access: tenant id required")
	}
	if actorEmployeeID == "" {
		return types.AccessDecision{}, errors.New("access: actor employee id required")
	}

	switch {
	case role.IsAdmin():
		return types.AccessDecision{Allowed: true, EmployeeID: requestedEmployeeID}, nil

	case role == types.RoleUser:
		return ownRecordOnly(actorEmployeeID, requestedEmployeeID), nil

	case role.IsManager():
		scope, err := v.scope.ResolveManagerScope(ctx, tenantID, actorEmployeeID)
		if err != nil {
			// Fail closed: the store error propagates and the decision
			// denies; an error here is never "no assignments".
			return types.AccessDecision{Allowed: false, Reason: DenyOutOfScope}, err
		}
		if len(scope) == 0 {
			// A manager with no assigned groups is indistinguishable from
			// an individual contributor.
			return ownRecordOnly(actorEmployeeID, requestedEmployeeID), nil
		}
		if requestedEmployeeID == "" {
			return types.AccessDecision{Allowed: true, Scope: scope}, nil
		}
		for _, id := range scope {
			if id == requestedEmployeeID {
				return types.AccessDecision{Allowed: true, EmployeeID: requestedEmployeeID}, nil
			}
		}
		return types.AccessDecision{Allowed: false, Reason: DenyOutOfScope}, nil

	default:
		return types.AccessDecision{Allowed: false, Reason: DenyUnauthorizedRole}, nil
	}
}

func ownRecordOnly(actorEmployeeID string, requestedEmployeeID string) types.AccessDecision {
	if requestedEmployeeID != "" && requestedEmployeeID != actorEmployeeID {
		return types.AccessDecision{Allowed: false, Reason: DenyCrossEmployee}
	}
	return types.AccessDecision{Allowed: true, EmployeeID: actorEmployeeID}
}
