package services

import (
	"errors"
	"strings"
	"testing"
)

func TestSanitizeParameters_AllValid(t *testing.T) {
	got, err := SanitizeParameters(RawParams{
		Date:       "2025-03-01",
		EmployeeID: "6d73e345-ae88-4e9d-a2ed-89f292e94f7b",
		Status:     " Approved ",
		ReportType: "timesheet",
		Scope:      "group",
		Format:     "CSV",
	})
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if got.Date != "2025-03-01" {
		t.Fatalf("date=%q", got.Date)
	}
	if got.EmployeeID != "6d73e345-ae88-4e9d-a2ed-89f292e94f7b" {
		t.Fatalf("employee=%q", got.EmployeeID)
	}
	if got.Status != "approved" || got.Format != "csv" {
		t.Fatalf("got=%+v", got)
	}
}

func TestSanitizeParameters_EmptyIsFine(t *testing.T) {
	if _, err := SanitizeParameters(RawParams{}); err != nil {
		t.Fatalf("err=%v", err)
	}
}

func TestSanitizeParameters_BadDate(t *testing.T) {
	for _, raw := range []string{"03/01/2025", "2025-3-1", "2025-02-30", "yesterday"} {
		_, err := SanitizeParameters(RawParams{Date: raw})
		if !errors.Is(err, ErrInvalidParameter) {
			t.Fatalf("raw=%q err=%v", raw, err)
		}
	}
}

func TestSanitizeParameters_BadEmployeeID(t *testing.T) {
	_, err := SanitizeParameters(RawParams{EmployeeID: "42 OR 1=1"})
	if !errors.Is(err, ErrInvalidParameter) {
		t.Fatalf("err=%v", err)
	}
}

func TestSanitizeParameters_BadEnums(t *testing.T) {
	_, err := SanitizeParameters(RawParams{Status: "finalized", Scope: "galaxy", Format: "docx"})
	if !errors.Is(err, ErrInvalidParameter) {
		t.Fatalf("err=%v", err)
	}
	msg := err.Error()
	for _, want := range []string{"status", "scope", "format"} {
		if !strings.Contains(msg, want) {
			t.Fatalf("msg=%q missing %q", msg, want)
		}
	}
}

func TestNormalizePeriodMonth(t *testing.T) {
	got, err := NormalizePeriodMonth("2025-03-17")
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if got != "2025-03-01" {
		t.Fatalf("got=%q", got)
	}
	if _, err := NormalizePeriodMonth("2025-03"); err == nil {
		t.Fatal("expected error")
	}
}
