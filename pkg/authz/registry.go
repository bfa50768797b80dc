package authz

const (
	RoleUser             = "user"
	RoleManager          = "manager"
	RoleManagerTimesheet = "manager-timesheet"
	RoleAdmin            = "admin"
	RoleTenantAdmin      = "tenant-admin"
	RoleAnonymous        = "anonymous"
)

const (
	ActionRead  = "read"
	ActionWrite = "write"
	ActionAdmin = "admin"
)

const (
	ObjectTimesheetEntries = "timesheet.entries"
	ObjectAccessScope      = "access.scope"
	ObjectAccessLocks      = "access.locks"
	ObjectAccessRules      = "access.rules"
	ObjectAccessAudit      = "access.audit"
)
