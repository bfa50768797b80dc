package persistence

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/Caiolinooo/PontoFlow-sub001/modules/timesheet/domain/ports"
	"github.com/Caiolinooo/PontoFlow-sub001/modules/timesheet/domain/types"
	"github.com/Caiolinooo/PontoFlow-sub001/pkg/httperr"
)

type pgBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

type EntryPGStore struct {
	pool pgBeginner
}

func NewEntryPGStore(pool pgBeginner) ports.EntryStore {
	return &EntryPGStore{pool: pool}
}

const entryColumns = `
  id::text,
  tenant_id::text,
  employee_id::text,
  work_date::text,
  date_trunc('month', work_date)::date::text AS period_month,
  hours::text,
  status,
  COALESCE(note, ''),
  updated_at::text
`

func (s *EntryPGStore) ListEntriesForEmployee(ctx context.Context, tenantID string, employeeID string, periodMonth string) ([]types.Entry, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(context.Background()) }()

	if _, err := tx.Exec(ctx, `SELECT set_config('app.current_tenant', $1, true);`, tenantID); err != nil {
		return nil, err
	}

	rows, err := tx.Query(ctx, `
SELECT `+entryColumns+`
FROM timesheet.entries
WHERE tenant_id = $1::uuid
  AND employee_id = $2::uuid
  AND date_trunc('month', work_date)::date = $3::date
ORDER BY work_date ASC, id::text ASC
`, tenantID, employeeID, periodMonth)
	if err != nil {
		return nil, err
	}

	var out []types.Entry
	for rows.Next() {
		var e types.Entry
		if err := rows.Scan(&e.ID, &e.TenantID, &e.EmployeeID, &e.WorkDate, &e.PeriodMonth, &e.Hours, &e.Status, &e.Note, &e.UpdatedAt); err != nil {
			rows.Close()
			return nil, err
		}
		out = append(out, e)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *EntryPGStore) GetEntry(ctx context.Context, tenantID string, entryID string) (types.Entry, bool, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return types.Entry{}, false, err
	}
	defer func() { _ = tx.Rollback(context.Background()) }()

	if _, err := tx.Exec(ctx, `SELECT set_config('app.current_tenant', $1, true);`, tenantID); err != nil {
		return types.Entry{}, false, err
	}

	var e types.Entry
	err = tx.QueryRow(ctx, `
SELECT `+entryColumns+`
FROM timesheet.entries
WHERE tenant_id = $1::uuid
  AND id = $2::uuid
`, tenantID, entryID).Scan(&e.ID, &e.TenantID, &e.EmployeeID, &e.WorkDate, &e.PeriodMonth, &e.Hours, &e.Status, &e.Note, &e.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return types.Entry{}, false, nil
		}
		return types.Entry{}, false, err
	}
	if err := tx.Commit(ctx); err != nil {
		return types.Entry{}, false, err
	}
	return e, true, nil
}

func (s *EntryPGStore) UpdateEntry(ctx context.Context, tenantID string, initiatorID string, entry types.Entry) (types.Entry, error) {
	if strings.TrimSpace(entry.ID) == "" {
		return types.Entry{}, httperr.NewBadRequest("entry id is required")
	}
	if strings.TrimSpace(entry.Hours) == "" {
		return types.Entry{}, httperr.NewBadRequest("hours is required")
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return types.Entry{}, err
	}
	defer func() { _ = tx.Rollback(context.Background()) }()

	if _, err := tx.Exec(ctx, `SELECT set_config('app.current_tenant', $1, true);`, tenantID); err != nil {
		return types.Entry{}, err
	}

	var out types.Entry
	err = tx.QueryRow(ctx, `
UPDATE timesheet.entries SET
  hours = $3::numeric,
  status = $4::text,
  note = NULLIF($5, ''),
  updated_by = $6::uuid,
  updated_at = now()
WHERE tenant_id = $1::uuid
  AND id = $2::uuid
RETURNING `+entryColumns+`
`, tenantID, entry.ID, entry.Hours, entry.Status, entry.Note, initiatorID).
		Scan(&out.ID, &out.TenantID, &out.EmployeeID, &out.WorkDate, &out.PeriodMonth, &out.Hours, &out.Status, &out.Note, &out.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return types.Entry{}, httperr.NewBadRequest("entry not found")
		}
		return types.Entry{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return types.Entry{}, err
	}
	return out, nil
}

func (s *EntryPGStore) DeleteEntry(ctx context.Context, tenantID string, initiatorID string, entryID string) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(context.Background()) }()

	if _, err := tx.Exec(ctx, `SELECT set_config('app.current_tenant', $1, true);`, tenantID); err != nil {
		return err
	}

	tag, err := tx.Exec(ctx, `
DELETE FROM timesheet.entries
WHERE tenant_id = $1::uuid
  AND id = $2::uuid
`, tenantID, entryID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return httperr.NewBadRequest("entry not found")
	}

	return tx.Commit(ctx)
}
