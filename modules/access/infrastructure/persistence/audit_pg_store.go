package persistence

import (
	"context"

	"github.com/Caiolinooo/PontoFlow-sub001/modules/access/domain/types"
)

// AuditPGStore appends to access.audit_log. The table is append-only;
// this store exposes no update or delete path.
type AuditPGStore struct {
	pool pgBeginner
}

func NewAuditPGStore(pool pgBeginner) *AuditPGStore {
	return &AuditPGStore{pool: pool}
}

func (s *AuditPGStore) Append(ctx context.Context, rec types.AuditRecord) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(context.Background()) }()

	if _, err := tx.Exec(ctx, `SELECT set_config('app.current_tenant', $1, true);`, rec.TenantID); err != nil {
		return err
	}

	if _, err := tx.Exec(ctx, `
INSERT INTO access.audit_log
  (id, tenant_id, actor_id, action, resource_type, resource_id, old_values, new_values, occurred_at, source_ip, user_agent)
VALUES
  ($1::uuid, $2::uuid, $3::uuid, $4::text, $5::text, NULLIF($6, '')::uuid, $7::jsonb, $8::jsonb, $9::timestamptz, NULLIF($10, ''), NULLIF($11, ''))
`, rec.ID, rec.TenantID, rec.ActorID, string(rec.Action), rec.ResourceType, rec.ResourceID,
		nullableJSON(rec.OldValues), nullableJSON(rec.NewValues), rec.OccurredAt, rec.SourceIP, rec.UserAgent); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (s *AuditPGStore) ListRecent(ctx context.Context, tenantID string, limit int) ([]types.AuditRecord, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(context.Background()) }()

	if _, err := tx.Exec(ctx, `SELECT set_config('app.current_tenant', $1, true);`, tenantID); err != nil {
		return nil, err
	}

	rows, err := tx.Query(ctx, `
SELECT
  id::text,
  tenant_id::text,
  actor_id::text,
  action,
  resource_type,
  COALESCE(resource_id::text, ''),
  COALESCE(old_values, 'null'::jsonb),
  COALESCE(new_values, 'null'::jsonb),
  occurred_at,
  COALESCE(source_ip, ''),
  COALESCE(user_agent, '')
FROM access.audit_log
WHERE tenant_id = $1::uuid
ORDER BY occurred_at DESC, id DESC
LIMIT $2
`, tenantID, limit)
	if err != nil {
		return nil, err
	}

	var out []types.AuditRecord
	for rows.Next() {
		var rec types.AuditRecord
		var action string
		if err := rows.Scan(&rec.ID, &rec.TenantID, &rec.ActorID, &action, &rec.ResourceType, &rec.ResourceID,
			&rec.OldValues, &rec.NewValues, &rec.OccurredAt, &rec.SourceIP, &rec.UserAgent); err != nil {
			rows.Close()
			return nil, err
		}
		rec.Action = types.AuditAction(action)
		out = append(out, rec)
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

func nullableJSON(raw []byte) any {
	if len(raw) == 0 {
		return nil
	}
	return raw
}
