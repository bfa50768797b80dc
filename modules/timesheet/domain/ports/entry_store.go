package ports

import (
	"context"

	"github.com/Caiolinooo/PontoFlow-sub001/modules/timesheet/domain/types"
)

type EntryStore interface {
	ListEntriesForEmployee(ctx context.Context, tenantID string, employeeID string, periodMonth string) ([]types.Entry, error)
	GetEntry(ctx context.Context, tenantID string, entryID string) (types.Entry, bool, error)
	UpdateEntry(ctx context.Context, tenantID string, initiatorID string, entry types.Entry) (types.Entry, error)
	DeleteEntry(ctx context.Context, tenantID string, initiatorID string, entryID string) error
}
