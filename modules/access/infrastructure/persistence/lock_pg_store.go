package persistence

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/Caiolinooo/PontoFlow-sub001/modules/access/domain/ports"
	"github.com/Caiolinooo/PontoFlow-sub001/modules/access/domain/types"
	"github.com/Caiolinooo/PontoFlow-sub001/pkg/httperr"
)

type LockPGStore struct {
	pool pgBeginner
}

func NewLockPGStore(pool pgBeginner) ports.LockOverrideStore {
	return &LockPGStore{pool: pool}
}

var lockEventNamespace = uuid.Must(uuid.Parse("b4f0a6a2-54cf-4f6e-9c7e-2f6f2a3f9d11"))

// deterministicLockID keeps SetOverride rerunnable: the same
// (tenant, level, scope, month) always maps to the same row id.
func deterministicLockID(tenantID string, level types.ScopeLevel, scopeID string, periodMonth string) string {
	name := fmt.Sprintf("access.period_lock:%s:%s:%s:%s", tenantID, level, scopeID, periodMonth)
	return uuid.NewSHA1(lockEventNamespace, []byte(name)).String()
}

func (s *LockPGStore) GetOverride(ctx context.Context, tenantID string, level types.ScopeLevel, scopeID string, periodMonth string) (types.PeriodLock, bool, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return types.PeriodLock{}, false, err
	}
	defer func() { _ = tx.Rollback(context.Background()) }()

	if _, err := tx.Exec(ctx, `SELECT set_config('app.current_tenant', $1, true);`, tenantID); err != nil {
		return types.PeriodLock{}, false, err
	}

	var out types.PeriodLock
	err = tx.QueryRow(ctx, `
SELECT tenant_id::text, scope_level, scope_id::text, period_month::text, locked, COALESCE(reason, '')
FROM access.period_locks
WHERE tenant_id = $1::uuid
  AND scope_level = $2::text
  AND scope_id = $3::uuid
  AND period_month = $4::date
`, tenantID, string(level), scopeID, periodMonth).Scan(&out.TenantID, &out.Level, &out.ScopeID, &out.PeriodMonth, &out.Locked, &out.Reason)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return types.PeriodLock{}, false, nil
		}
		return types.PeriodLock{}, false, err
	}
	if err := tx.Commit(ctx); err != nil {
		return types.PeriodLock{}, false, err
	}
	return out, true, nil
}

func (s *LockPGStore) SetOverride(ctx context.Context, tenantID string, initiatorID string, lock types.PeriodLock) error {
	if strings.TrimSpace(lock.ScopeID) == "" {
		return httperr.NewBadRequest("scope_id is required")
	}
	if _, ok := types.ParseScopeLevel(string(lock.Level)); !ok {
		return httperr.NewBadRequest("scope_level must be tenant|environment|group|employee")
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(context.Background()) }()

	if _, err := tx.Exec(ctx, `SELECT set_config('app.current_tenant', $1, true);`, tenantID); err != nil {
		return err
	}

	id := deterministicLockID(tenantID, lock.Level, lock.ScopeID, lock.PeriodMonth)
	if _, err := tx.Exec(ctx, `
INSERT INTO access.period_locks
  (id, tenant_id, scope_level, scope_id, period_month, locked, reason, updated_by, updated_at)
VALUES
  ($1::uuid, $2::uuid, $3::text, $4::uuid, $5::date, $6::bool, NULLIF($7, ''), $8::uuid, now())
ON CONFLICT (id) DO UPDATE SET
  locked = EXCLUDED.locked,
  reason = EXCLUDED.reason,
  updated_by = EXCLUDED.updated_by,
  updated_at = now()
`, id, tenantID, string(lock.Level), lock.ScopeID, lock.PeriodMonth, lock.Locked, lock.Reason, initiatorID); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (s *LockPGStore) ClearOverride(ctx context.Context, tenantID string, level types.ScopeLevel, scopeID string, periodMonth string) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(context.Background()) }()

	if _, err := tx.Exec(ctx, `SELECT set_config('app.current_tenant', $1, true);`, tenantID); err != nil {
		return err
	}

	if _, err := tx.Exec(ctx, `
DELETE FROM access.period_locks
WHERE tenant_id = $1::uuid
  AND scope_level = $2::text
  AND scope_id = $3::uuid
  AND period_month = $4::date
`, tenantID, string(level), scopeID, periodMonth); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (s *LockPGStore) ListOverrides(ctx context.Context, tenantID string, periodMonth string) ([]types.PeriodLock, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(context.Background()) }()

	if _, err := tx.Exec(ctx, `SELECT set_config('app.current_tenant', $1, true);`, tenantID); err != nil {
		return nil, err
	}

	rows, err := tx.Query(ctx, `
SELECT tenant_id::text, scope_level, scope_id::text, period_month::text, locked, COALESCE(reason, '')
FROM access.period_locks
WHERE tenant_id = $1::uuid
  AND period_month = $2::date
ORDER BY scope_level ASC, scope_id::text ASC
`, tenantID, periodMonth)
	if err != nil {
		return nil, err
	}

	var out []types.PeriodLock
	for rows.Next() {
		var l types.PeriodLock
		if err := rows.Scan(&l.TenantID, &l.Level, &l.ScopeID, &l.PeriodMonth, &l.Locked, &l.Reason); err != nil {
			rows.Close()
			return nil, err
		}
		out = append(out, l)
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
