package services

import (
	"context"

	"github.com/Caiolinooo/PontoFlow-sub001/modules/timesheet/domain/ports"
	"github.com/Caiolinooo/PontoFlow-sub001/modules/timesheet/domain/types"
)

type EntriesFacade struct {
	store ports.EntryStore
}

func NewEntriesFacade(store ports.EntryStore) EntriesFacade {
	return EntriesFacade{store: store}
}

func (f EntriesFacade) ListEntriesForEmployee(ctx context.Context, tenantID string, employeeID string, periodMonth string) ([]types.Entry, error) {
	return f.store.ListEntriesForEmployee(ctx, tenantID, employeeID, periodMonth)
}

func (f EntriesFacade) GetEntry(ctx context.Context, tenantID string, entryID string) (types.Entry, bool, error) {
	return f.store.GetEntry(ctx, tenantID, entryID)
}

func (f EntriesFacade) UpdateEntry(ctx context.Context, tenantID string, initiatorID string, entry types.Entry) (types.Entry, error) {
	return f.store.UpdateEntry(ctx, tenantID, initiatorID, entry)
}

func (f EntriesFacade) DeleteEntry(ctx context.Context, tenantID string, initiatorID string, entryID string) error {
	return f.store.DeleteEntry(ctx, tenantID, initiatorID, entryID)
}
