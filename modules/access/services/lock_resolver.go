package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/Caiolinooo/PontoFlow-sub001/modules/access/domain/ports"
	"github.com/Caiolinooo/PontoFlow-sub001/modules/access/domain/types"
)

type LockResolver struct {
	locks      ports.LockOverrideStore
	membership ports.GroupMembershipStore
}

func NewLockResolver(locks ports.LockOverrideStore, membership ports.GroupMembershipStore) LockResolver {
	return LockResolver{locks: locks, membership: membership}
}

// ResolveEffectiveLock applies scope-level precedence, most specific wins:
// employee > group > environment > tenant. No record at any level means
// unlocked. An employee override is authoritative regardless of what the
// lower-precedence levels say.
//
// When the employee belongs to several groups with conflicting overrides
// for the same period, any group-level locked=true wins over any
// group-level locked=false: one restrictive group closes the period.
func (r LockResolver) ResolveEffectiveLock(ctx context.Context, tenantID string, employeeID string, periodMonth string) (types.EffectiveLock, error) {
	tenantID = strings.TrimSpace(tenantID)
	employeeID = strings.TrimSpace(employeeID)
	if tenantID == "" {
		return types.EffectiveLock{}, errors.New("access: tenant id required")
	}
	if employeeID == "" {
		return types.EffectiveLock{}, errors.New("access: employee id required")
	}
	periodMonth, err := NormalizePeriodMonth(periodMonth)
	if err != nil {
		return types.EffectiveLock{}, err
	}

	lock, ok, err := r.locks.GetOverride(ctx, tenantID, types.ScopeLevelEmployee, employeeID, periodMonth)
	if err != nil {
		return types.EffectiveLock{}, fmt.Errorf("access: employee lock lookup: %w", err)
	}
	if ok {
		return types.EffectiveLock{Locked: lock.Locked, Reason: lock.Reason, Source: types.ScopeLevelEmployee}, nil
	}

	groups, err := r.membership.ListGroupsForEmployee(ctx, tenantID, employeeID)
	if err != nil {
		return types.EffectiveLock{}, fmt.Errorf("access: employee groups lookup: %w", err)
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i].ID < groups[j].ID })

	var groupLock *types.PeriodLock
	for _, g := range groups {
		lock, ok, err := r.locks.GetOverride(ctx, tenantID, types.ScopeLevelGroup, g.ID, periodMonth)
		if err != nil {
			return types.EffectiveLock{}, fmt.Errorf("access: group lock lookup: %w", err)
		}
		if !ok {
			continue
		}
		if lock.Locked {
			return types.EffectiveLock{Locked: true, Reason: lock.Reason, Source: types.ScopeLevelGroup}, nil
		}
		if groupLock == nil {
			l := lock
			groupLock = &l
		}
	}
	if groupLock != nil {
		return types.EffectiveLock{Locked: false, Reason: groupLock.Reason, Source: types.ScopeLevelGroup}, nil
	}

	envID, hasEnv, err := r.membership.EnvironmentForEmployee(ctx, tenantID, employeeID)
	if err != nil {
		return types.EffectiveLock{}, fmt.Errorf("access: employee environment lookup: %w", err)
	}
	if hasEnv {
		lock, ok, err := r.locks.GetOverride(ctx, tenantID, types.ScopeLevelEnvironment, envID, periodMonth)
		if err != nil {
			return types.EffectiveLock{}, fmt.Errorf("access: environment lock lookup: %w", err)
		}
		if ok {
			return types.EffectiveLock{Locked: lock.Locked, Reason: lock.Reason, Source: types.ScopeLevelEnvironment}, nil
		}
	}

	lock, ok, err = r.locks.GetOverride(ctx, tenantID, types.ScopeLevelTenant, tenantID, periodMonth)
	if err != nil {
		return types.EffectiveLock{}, fmt.Errorf("access: tenant lock lookup: %w", err)
	}
	if ok {
		return types.EffectiveLock{Locked: lock.Locked, Reason: lock.Reason, Source: types.ScopeLevelTenant}, nil
	}

	return types.EffectiveLock{Locked: false, Source: types.ScopeLevelNone}, nil
}
