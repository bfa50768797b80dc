package types

import (
	"encoding/json"
	"strings"
	"time"
)

type Role string

const (
	RoleUser             Role = "USER"
	RoleManager          Role = "MANAGER"
	RoleManagerTimesheet Role = "MANAGER_TIMESHEET"
	RoleAdmin            Role = "ADMIN"
	RoleTenantAdmin      Role = "TENANT_ADMIN"
)

func ParseRole(raw string) (Role, bool) {
	r := Role(strings.ToUpper(strings.TrimSpace(raw)))
	switch r {
	case RoleUser, RoleManager, RoleManagerTimesheet, RoleAdmin, RoleTenantAdmin:
		return r, true
	}
	return "", false
}

func (r Role) IsAdmin() bool {
	return r == RoleAdmin || r == RoleTenantAdmin
}

func (r Role) IsManager() bool {
	return r == RoleManager || r == RoleManagerTimesheet
}

type ScopeLevel string

const (
	ScopeLevelTenant      ScopeLevel = "tenant"
	ScopeLevelEnvironment ScopeLevel = "environment"
	ScopeLevelGroup       ScopeLevel = "group"
	ScopeLevelEmployee    ScopeLevel = "employee"
	ScopeLevelNone        ScopeLevel = "none"
)

func ParseScopeLevel(raw string) (ScopeLevel, bool) {
	l := ScopeLevel(strings.ToLower(strings.TrimSpace(raw)))
	switch l {
	case ScopeLevelTenant, ScopeLevelEnvironment, ScopeLevelGroup, ScopeLevelEmployee:
		return l, true
	}
	return "", false
}

type Group struct {
	ID       string `json:"id"`
	TenantID string `json:"tenant_id"`
	Name     string `json:"name"`
}

// PeriodLock is one override record at a single scope level. PeriodMonth is
// always the first calendar day of the month.
type PeriodLock struct {
	TenantID    string     `json:"tenant_id"`
	Level       ScopeLevel `json:"scope_level"`
	ScopeID     string     `json:"scope_id"`
	PeriodMonth string     `json:"period_month"`
	Locked      bool       `json:"locked"`
	Reason      string     `json:"reason,omitempty"`
}

// EffectiveLock is the resolved lock state for an (employee, period) pair
// after applying scope-level precedence.
type EffectiveLock struct {
	Locked bool       `json:"locked"`
	Reason string     `json:"reason,omitempty"`
	Source ScopeLevel `json:"source_level"`
}

// AccessDecision is ephemeral. It is handed to the audit trail by the
// request handler; it is never persisted as an entity itself.
type AccessDecision struct {
	Allowed bool `json:"allowed"`
	// Reason is set on deny (cross-employee, out-of-scope, unauthorized-role).
	Reason string `json:"reason,omitempty"`
	// EmployeeID is the single resolved target, when one was requested or
	// implied by the actor's own record.
	EmployeeID string `json:"employee_id,omitempty"`
	// Scope is the full resolved employee set for listing operations,
	// sorted ascending. Empty for admins (no restriction applies).
	Scope []string `json:"scope,omitempty"`
}

type AuditAction string

const (
	AuditActionRead                    AuditAction = "read"
	AuditActionUpdate                  AuditAction = "update"
	AuditActionDelete                  AuditAction = "delete"
	AuditActionManagerEditClosedPeriod AuditAction = "manager_edit_closed_period"
	AuditActionAccessDenied            AuditAction = "access_denied"
	AuditActionLockOverrideSet         AuditAction = "lock_override_set"
	AuditActionLockOverrideCleared     AuditAction = "lock_override_cleared"
)

// AuditRecord is append-only. Nothing in this module updates or deletes a
// record once written.
type AuditRecord struct {
	ID           string          `json:"id"`
	TenantID     string          `json:"tenant_id"`
	ActorID      string          `json:"actor_id"`
	Action       AuditAction     `json:"action"`
	ResourceType string          `json:"resource_type"`
	ResourceID   string          `json:"resource_id"`
	OldValues    json.RawMessage `json:"old_values,omitempty"`
	NewValues    json.RawMessage `json:"new_values,omitempty"`
	OccurredAt   time.Time       `json:"occurred_at"`
	SourceIP     string          `json:"source_ip,omitempty"`
	UserAgent    string          `json:"user_agent,omitempty"`
}
