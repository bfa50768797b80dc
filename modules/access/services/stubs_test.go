package services

import (
	"context"
	"errors"

	"github.com/Caiolinooo/PontoFlow-sub001/modules/access/domain/types"
)

type membershipStub struct {
	groupsForManager  func(tenantID string, managerID string) ([]types.Group, error)
	employeesInGroups func(tenantID string, groupIDs []string) ([]string, error)
	groupsForEmployee func(tenantID string, employeeID string) ([]types.Group, error)
	environment       func(tenantID string, employeeID string) (string, bool, error)
}

func (s membershipStub) ListGroupsForManager(_ context.Context, tenantID string, managerID string) ([]types.Group, error) {
	if s.groupsForManager == nil {
		return nil, nil
	}
	return s.groupsForManager(tenantID, managerID)
}

func (s membershipStub) ListEmployeesInGroups(_ context.Context, tenantID string, groupIDs []string) ([]string, error) {
	if s.employeesInGroups == nil {
		return nil, nil
	}
	return s.employeesInGroups(tenantID, groupIDs)
}

func (s membershipStub) ListGroupsForEmployee(_ context.Context, tenantID string, employeeID string) ([]types.Group, error) {
	if s.groupsForEmployee == nil {
		return nil, nil
	}
	return s.groupsForEmployee(tenantID, employeeID)
}

func (s membershipStub) EnvironmentForEmployee(_ context.Context, tenantID string, employeeID string) (string, bool, error) {
	if s.environment == nil {
		return "", false, nil
	}
	return s.environment(tenantID, employeeID)
}

type lockKey struct {
	tenantID string
	level    types.ScopeLevel
	scopeID  string
	month    string
}

type lockStoreStub struct {
	overrides map[lockKey]types.PeriodLock
	err       error
}

func (s *lockStoreStub) set(tenantID string, level types.ScopeLevel, scopeID string, month string, locked bool, reason string) {
	if s.overrides == nil {
		s.overrides = make(map[lockKey]types.PeriodLock)
	}
	s.overrides[lockKey{tenantID, level, scopeID, month}] = types.PeriodLock{
		TenantID:    tenantID,
		Level:       level,
		ScopeID:     scopeID,
		PeriodMonth: month,
		Locked:      locked,
		Reason:      reason,
	}
}

func (s *lockStoreStub) GetOverride(_ context.Context, tenantID string, level types.ScopeLevel, scopeID string, periodMonth string) (types.PeriodLock, bool, error) {
	if s.err != nil {
		return types.PeriodLock{}, false, s.err
	}
	l, ok := s.overrides[lockKey{tenantID, level, scopeID, periodMonth}]
	return l, ok, nil
}

func (s *lockStoreStub) SetOverride(_ context.Context, tenantID string, _ string, lock types.PeriodLock) error {
	s.set(tenantID, lock.Level, lock.ScopeID, lock.PeriodMonth, lock.Locked, lock.Reason)
	return nil
}

func (s *lockStoreStub) ClearOverride(_ context.Context, tenantID string, level types.ScopeLevel, scopeID string, periodMonth string) error {
	delete(s.overrides, lockKey{tenantID, level, scopeID, periodMonth})
	return nil
}

func (s *lockStoreStub) ListOverrides(_ context.Context, tenantID string, periodMonth string) ([]types.PeriodLock, error) {
	var out []types.PeriodLock
	for k, l := range s.overrides {
		if k.tenantID == tenantID && k.month == periodMonth {
			out = append(out, l)
		}
	}
	return out, nil
}

type auditSinkStub struct {
	records []types.AuditRecord
	err     error
}

func (s *auditSinkStub) Append(_ context.Context, rec types.AuditRecord) error {
	if s.err != nil {
		return s.err
	}
	s.records = append(s.records, rec)
	return nil
}

var errStoreDown = errors.New("store down")
