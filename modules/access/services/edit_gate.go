package services

import (
	"context"
	"strings"

	"github.com/Caiolinooo/PontoFlow-sub001/modules/access/domain/types"
)

// ReasonJustificationRequired marks a locked-period edit attempted without
// sufficient justification. Retryable by the same caller once a proper
// justification is supplied.
const ReasonJustificationRequired = "justification-required"

const minJustificationLen = 10

type EditGate struct {
	validator AccessValidator
	locks     LockResolver
}

func NewEditGate(validator AccessValidator, locks LockResolver) EditGate {
	return EditGate{validator: validator, locks: locks}
}

type EditRequest struct {
	ActorEmployeeID string
	Role            types.Role
	TenantID        string
	TimesheetID     string
	EmployeeID      string
	PeriodMonth     string
	Justification   string
	// Delete marks the caller's intent; it only changes the audit action
	// on an unlocked period.
	Delete bool
}

type EditAuthorization struct {
	Allowed     bool
	AuditAction types.AuditAction
	Reason      string
	Lock        types.EffectiveLock
	// NotifyEmployee is set when a manager edited a closed period; the
	// caller dispatches the notification to the affected employee.
	NotifyEmployee bool
}

// AuthorizeEntryEdit is a linear decision procedure. Each call re-evaluates
// scope and lock state fresh; nothing is cached across requests.
func (g EditGate) AuthorizeEntryEdit(ctx context.Context, req EditRequest) (EditAuthorization, error) {
	decision, err := g.validator.ValidateAccess(ctx, req.ActorEmployeeID, req.Role, req.TenantID, req.EmployeeID)
	if err != nil {
		return EditAuthorization{Allowed: false, Reason: decision.Reason}, err
	}
	if !decision.Allowed {
		return EditAuthorization{Allowed: false, Reason: decision.Reason}, nil
	}

	intent := types.AuditActionUpdate
	if req.Delete {
		intent = types.AuditActionDelete
	}

	// Admins bypass period locks.
	if req.Role.IsAdmin() {
		return EditAuthorization{Allowed: true, AuditAction: intent}, nil
	}

	lock, err := g.locks.ResolveEffectiveLock(ctx, req.TenantID, req.EmployeeID, req.PeriodMonth)
	if err != nil {
		return EditAuthorization{}, err
	}
	if !lock.Locked {
		return EditAuthorization{Allowed: true, AuditAction: intent, Lock: lock}, nil
	}

	if len(strings.TrimSpace(req.Justification)) < minJustificationLen {
		return EditAuthorization{Allowed: false, Reason: ReasonJustificationRequired, Lock: lock}, nil
	}
	return EditAuthorization{
		Allowed:        true,
		AuditAction:    types.AuditActionManagerEditClosedPeriod,
		Lock:           lock,
		NotifyEmployee: true,
	}, nil
}
