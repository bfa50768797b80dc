package services

import (
	"errors"
	"strings"
	"time"
)

var errBadPeriodMonth = errors.New("access: period month must be an ISO calendar date")

// NormalizePeriodMonth accepts an ISO calendar date and returns the first
// day of its month, the unit of lock granularity. There is no day-level
// locking.
func NormalizePeriodMonth(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return "", errBadPeriodMonth
	}
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC).Format("2006-01-02"), nil
}
