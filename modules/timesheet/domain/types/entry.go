package types

// Entry is one timesheet line for one employee and one work date. Hours is
// a decimal string; the engine never does arithmetic on it.
type Entry struct {
	ID          string `json:"id"`
	TenantID    string `json:"tenant_id"`
	EmployeeID  string `json:"employee_id"`
	WorkDate    string `json:"work_date"`
	PeriodMonth string `json:"period_month"`
	Hours       string `json:"hours"`
	Status      string `json:"status"`
	Note        string `json:"note,omitempty"`
	UpdatedAt   string `json:"updated_at,omitempty"`
}
