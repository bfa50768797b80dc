package ports

import (
	"context"

	"github.com/Caiolinooo/PontoFlow-sub001/modules/access/domain/types"
)

// GroupMembershipStore is the read-only source of employee/group/manager
// relations. Every method is scoped by tenant; implementations must never
// return rows from another tenant.
type GroupMembershipStore interface {
	ListGroupsForManager(ctx context.Context, tenantID string, managerID string) ([]types.Group, error)
	ListEmployeesInGroups(ctx context.Context, tenantID string, groupIDs []string) ([]string, error)
	ListGroupsForEmployee(ctx context.Context, tenantID string, employeeID string) ([]types.Group, error)
	EnvironmentForEmployee(ctx context.Context, tenantID string, employeeID string) (string, bool, error)
}

// LockOverrideStore reads and writes period-lock records at the four scope
// levels. GetOverride reports found=false for a missing record; a store
// failure is a distinct error and must never be conflated with absence.
type LockOverrideStore interface {
	GetOverride(ctx context.Context, tenantID string, level types.ScopeLevel, scopeID string, periodMonth string) (types.PeriodLock, bool, error)
	SetOverride(ctx context.Context, tenantID string, initiatorID string, lock types.PeriodLock) error
	ClearOverride(ctx context.Context, tenantID string, level types.ScopeLevel, scopeID string, periodMonth string) error
	ListOverrides(ctx context.Context, tenantID string, periodMonth string) ([]types.PeriodLock, error)
}

// AuditLogger appends one record per access decision. Append failures are
// surfaced to the caller; the caller treats them as best-effort and never
// fails the business action over them.
type AuditLogger interface {
	Append(ctx context.Context, rec types.AuditRecord) error
}

// AuditReader serves the admin audit listing. Kept separate from
// AuditLogger so decision-path code can only ever append.
type AuditReader interface {
	ListRecent(ctx context.Context, tenantID string, limit int) ([]types.AuditRecord, error)
}

// NotificationDispatcher delivers the closed-period edit notice to the
// affected employee. Fire-and-forget from the caller's point of view.
type NotificationDispatcher interface {
	Notify(ctx context.Context, event string, recipientEmployeeID string, payload map[string]string) error
}
