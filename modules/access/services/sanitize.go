package services

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ErrInvalidParameter wraps every sanitation failure. Sanitation runs
// before any store access and rejects the whole request on failure.
var ErrInvalidParameter = errors.New("access: invalid parameter")

var isoDatePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

var (
	statusValues     = map[string]struct{}{"draft": {}, "submitted": {}, "approved": {}, "rejected": {}}
	reportTypeValues = map[string]struct{}{"timesheet": {}, "summary": {}, "audit": {}}
	scopeValues      = map[string]struct{}{"tenant": {}, "environment": {}, "group": {}, "employee": {}}
	formatValues     = map[string]struct{}{"pdf": {}, "xlsx": {}, "csv": {}, "json": {}}
)

// RawParams carries the untrusted request parameters the engine cares
// about. Empty fields are "not supplied" and pass.
type RawParams struct {
	Date       string
	StartDate  string
	EndDate    string
	EmployeeID string
	Status     string
	ReportType string
	Scope      string
	Format     string
}

type SanitizedParams struct {
	Date       string
	StartDate  string
	EndDate    string
	EmployeeID string
	Status     string
	ReportType string
	Scope      string
	Format     string
}

// SanitizeParameters validates every supplied field and returns an
// aggregate error naming all failures. No partial result is usable when
// an error is returned.
func SanitizeParameters(raw RawParams) (SanitizedParams, error) {
	var out SanitizedParams
	var issues []string

	out.Date = checkDate("date", raw.Date, &issues)
	out.StartDate = checkDate("start_date", raw.StartDate, &issues)
	out.EndDate = checkDate("end_date", raw.EndDate, &issues)

	if v := strings.TrimSpace(raw.EmployeeID); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			issues = append(issues, "employee_id must be a canonical id")
		} else {
			out.EmployeeID = id.String()
		}
	}

	out.Status = checkEnum("status", raw.Status, statusValues, &issues)
	out.ReportType = checkEnum("report_type", raw.ReportType, reportTypeValues, &issues)
	out.Scope = checkEnum("scope", raw.Scope, scopeValues, &issues)
	out.Format = checkEnum("format", raw.Format, formatValues, &issues)

	if len(issues) > 0 {
		return SanitizedParams{}, fmt.Errorf("%w: %s", ErrInvalidParameter, strings.Join(issues, "; "))
	}
	return out, nil
}

func checkDate(name string, raw string, issues *[]string) string {
	v := strings.TrimSpace(raw)
	if v == "" {
		return ""
	}
	if !isoDatePattern.MatchString(v) {
		*issues = append(*issues, name+" must be an ISO calendar date")
		return ""
	}
	if _, err := time.Parse("2006-01-02", v); err != nil {
		*issues = append(*issues, name+" must be a valid calendar date")
		return ""
	}
	return v
}

func checkEnum(name string, raw string, allowed map[string]struct{}, issues *[]string) string {
	v := strings.ToLower(strings.TrimSpace(raw))
	if v == "" {
		return ""
	}
	if _, ok := allowed[v]; !ok {
		*issues = append(*issues, name+" has an unknown value")
		return ""
	}
	return v
}
