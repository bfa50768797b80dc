package persistence

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/Caiolinooo/PontoFlow-sub001/modules/access/domain/ports"
	"github.com/Caiolinooo/PontoFlow-sub001/modules/access/domain/types"
)

type pgBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

type MembershipPGStore struct {
	pool pgBeginner
}

func NewMembershipPGStore(pool pgBeginner) ports.GroupMembershipStore {
	return &MembershipPGStore{pool: pool}
}

func (s *MembershipPGStore) ListGroupsForManager(ctx context.Context, tenantID string, managerID string) ([]types.Group, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(context.Background()) }()

	if _, err := tx.Exec(ctx, `SELECT set_config('app.current_tenant', $1, true);`, tenantID); err != nil {
		return nil, err
	}

	rows, err := tx.Query(ctx, `
SELECT g.id::text, g.tenant_id::text, g.name
FROM access.manager_groups mg
JOIN access.groups g ON g.id = mg.group_id AND g.tenant_id = mg.tenant_id
WHERE mg.tenant_id = $1::uuid
  AND mg.manager_employee_id = $2::uuid
ORDER BY g.id::text ASC
`, tenantID, managerID)
	if err != nil {
		return nil, err
	}

	out, err := scanGroups(rows)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *MembershipPGStore) ListEmployeesInGroups(ctx context.Context, tenantID string, groupIDs []string) ([]string, error) {
	if len(groupIDs) == 0 {
		return nil, nil
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
SELECT DISTINCT gm.employee_id::text
FROM access.group_members gm
WHERE gm.tenant_id = $1::uuid
  AND gm.group_id = ANY($2::uuid[])
ORDER BY gm.employee_id::text ASC
`, tenantID, groupIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *MembershipPGStore) ListGroupsForEmployee(ctx context.Context, tenantID string, employeeID string) ([]types.Group, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(context.Background()) }()

	if _, err := tx.Exec(ctx, `SELECT set_config('app.current_tenant', $1, true);`, tenantID); err != nil {
		return nil, err
	}

	rows, err := tx.Query(ctx, `
SELECT g.id::text, g.tenant_id::text, g.name
FROM access.group_members gm
JOIN access.groups g ON g.id = gm.group_id AND g.tenant_id = gm.tenant_id
WHERE gm.tenant_id = $1::uuid
  AND gm.employee_id = $2::uuid
ORDER BY g.id::text ASC
`, tenantID, employeeID)
	if err != nil {
		return nil, err
	}

	out, err := scanGroups(rows)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *MembershipPGStore) EnvironmentForEmployee(ctx context.Context, tenantID string, employeeID string) (string, bool, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return "", false, err
	}
	defer func() { _ = tx.Rollback(context.Background()) }()

	if _, err := tx.Exec(ctx, `SELECT set_config('app.current_tenant', $1, true);`, tenantID); err != nil {
		return "", false, err
	}

	var envID string
	err = tx.QueryRow(ctx, `
SELECT COALESCE(e.environment_id::text, '')
FROM core.employees e
WHERE e.tenant_id = $1::uuid
  AND e.id = $2::uuid
`, tenantID, employeeID).Scan(&envID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", false, nil
		}
		return "", false, err
	}
	if err := tx.Commit(ctx); err != nil {
		return "", false, err
	}
	if envID == "" {
		return "", false, nil
	}
	return envID, true, nil
}

func scanGroups(rows pgx.Rows) ([]types.Group, error) {
	defer rows.Close()

	var out []types.Group
	for rows.Next() {
		var g types.Group
		if err := rows.Scan(&g.ID, &g.TenantID, &g.Name); err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
