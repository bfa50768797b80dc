package server

import (
	"context"
	"sort"
	"strings"
	"sync"

	accesstypes "github.com/Caiolinooo/PontoFlow-sub001/modules/access/domain/types"
	tstypes "github.com/Caiolinooo/PontoFlow-sub001/modules/timesheet/domain/types"
	"github.com/Caiolinooo/PontoFlow-sub001/pkg/httperr"
)

// In-memory stores back the handler surface when no Postgres pool is
// wired, mainly for tests and local development.

type memoryMembershipStore struct {
	mu sync.Mutex
	// keyed by tenant id
	groups       map[string][]accesstypes.Group
	groupMembers map[string]map[string][]string // tenant -> group -> employees
	managerOf    map[string]map[string][]string // tenant -> manager -> groups
	environments map[string]map[string]string   // tenant -> employee -> environment
}

func newMemoryMembershipStore() *memoryMembershipStore {
	return &memoryMembershipStore{
		groups:       make(map[string][]accesstypes.Group),
		groupMembers: make(map[string]map[string][]string),
		managerOf:    make(map[string]map[string][]string),
		environments: make(map[string]map[string]string),
	}
}

func (s *memoryMembershipStore) addGroup(tenantID string, groupID string, name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.groups[tenantID] = append(s.groups[tenantID], accesstypes.Group{ID: groupID, TenantID: tenantID, Name: name})
}

func (s *memoryMembershipStore) addMember(tenantID string, groupID string, employeeID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.groupMembers[tenantID] == nil {
		s.groupMembers[tenantID] = make(map[string][]string)
	}
	s.groupMembers[tenantID][groupID] = append(s.groupMembers[tenantID][groupID], employeeID)
}

func (s *memoryMembershipStore) assignManager(tenantID string, managerID string, groupID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.managerOf[tenantID] == nil {
		s.managerOf[tenantID] = make(map[string][]string)
	}
	s.managerOf[tenantID][managerID] = append(s.managerOf[tenantID][managerID], groupID)
}

func (s *memoryMembershipStore) setEnvironment(tenantID string, employeeID string, environmentID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.environments[tenantID] == nil {
		s.environments[tenantID] = make(map[string]string)
	}
	s.environments[tenantID][employeeID] = environmentID
}

func (s *memoryMembershipStore) ListGroupsForManager(_ context.Context, tenantID string, managerID string) ([]accesstypes.Group, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []accesstypes.Group
	for _, gid := range s.managerOf[tenantID][managerID] {
		for _, g := range s.groups[tenantID] {
			if g.ID == gid {
				out = append(out, g)
			}
		}
	}
	return out, nil
}

func (s *memoryMembershipStore) ListEmployeesInGroups(_ context.Context, tenantID string, groupIDs []string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []string
	for _, gid := range groupIDs {
		out = append(out, s.groupMembers[tenantID][gid]...)
	}
	return out, nil
}

func (s *memoryMembershipStore) ListGroupsForEmployee(_ context.Context, tenantID string, employeeID string) ([]accesstypes.Group, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []accesstypes.Group
	for gid, members := range s.groupMembers[tenantID] {
		for _, m := range members {
			if m != employeeID {
				continue
			}
			for _, g := range s.groups[tenantID] {
				if g.ID == gid {
					out = append(out, g)
				}
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *memoryMembershipStore) EnvironmentForEmployee(_ context.Context, tenantID string, employeeID string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	env, ok := s.environments[tenantID][employeeID]
	if !ok || env == "" {
		return "", false, nil
	}
	return env, true, nil
}

type memoryLockKey struct {
	tenantID string
	level    accesstypes.ScopeLevel
	scopeID  string
	month    string
}

type memoryLockStore struct {
	mu        sync.Mutex
	overrides map[memoryLockKey]accesstypes.PeriodLock
}

func newMemoryLockStore() *memoryLockStore {
	return &memoryLockStore{overrides: make(map[memoryLockKey]accesstypes.PeriodLock)}
}

func (s *memoryLockStore) GetOverride(_ context.Context, tenantID string, level accesstypes.ScopeLevel, scopeID string, periodMonth string) (accesstypes.PeriodLock, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.overrides[memoryLockKey{tenantID, level, scopeID, periodMonth}]
	return l, ok, nil
}

func (s *memoryLockStore) SetOverride(_ context.Context, tenantID string, _ string, lock accesstypes.PeriodLock) error {
	if strings.TrimSpace(lock.ScopeID) == "" {
		return httperr.NewBadRequest("scope_id is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	lock.TenantID = tenantID
	s.overrides[memoryLockKey{tenantID, lock.Level, lock.ScopeID, lock.PeriodMonth}] = lock
	return nil
}

func (s *memoryLockStore) ClearOverride(_ context.Context, tenantID string, level accesstypes.ScopeLevel, scopeID string, periodMonth string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.overrides, memoryLockKey{tenantID, level, scopeID, periodMonth})
	return nil
}

func (s *memoryLockStore) ListOverrides(_ context.Context, tenantID string, periodMonth string) ([]accesstypes.PeriodLock, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []accesstypes.PeriodLock
	for k, l := range s.overrides {
		if k.tenantID == tenantID && k.month == periodMonth {
			out = append(out, l)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Level != out[j].Level {
			return out[i].Level < out[j].Level
		}
		return out[i].ScopeID < out[j].ScopeID
	})
	return out, nil
}

type memoryAuditStore struct {
	mu      sync.Mutex
	records []accesstypes.AuditRecord
}

func newMemoryAuditStore() *memoryAuditStore {
	return &memoryAuditStore{}
}

func (s *memoryAuditStore) Append(_ context.Context, rec accesstypes.AuditRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, rec)
	return nil
}

func (s *memoryAuditStore) ListRecent(_ context.Context, tenantID string, limit int) ([]accesstypes.AuditRecord, error) {
	if limit <= 0 {
		limit = 100
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []accesstypes.AuditRecord
	for i := len(s.records) - 1; i >= 0 && len(out) < limit; i-- {
		if s.records[i].TenantID == tenantID {
			out = append(out, s.records[i])
		}
	}
	return out, nil
}

type memoryEntryStore struct {
	mu      sync.Mutex
	entries map[string]map[string]tstypes.Entry // tenant -> id -> entry
}

func newMemoryEntryStore() *memoryEntryStore {
	return &memoryEntryStore{entries: make(map[string]map[string]tstypes.Entry)}
}

func (s *memoryEntryStore) put(e tstypes.Entry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.entries[e.TenantID] == nil {
		s.entries[e.TenantID] = make(map[string]tstypes.Entry)
	}
	s.entries[e.TenantID][e.ID] = e
}

func (s *memoryEntryStore) ListEntriesForEmployee(_ context.Context, tenantID string, employeeID string, periodMonth string) ([]tstypes.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []tstypes.Entry
	for _, e := range s.entries[tenantID] {
		if e.EmployeeID == employeeID && e.PeriodMonth == periodMonth {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].WorkDate != out[j].WorkDate {
			return out[i].WorkDate < out[j].WorkDate
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *memoryEntryStore) GetEntry(_ context.Context, tenantID string, entryID string) (tstypes.Entry, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[tenantID][entryID]
	return e, ok, nil
}

func (s *memoryEntryStore) UpdateEntry(_ context.Context, tenantID string, _ string, entry tstypes.Entry) (tstypes.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.entries[tenantID][entry.ID]
	if !ok {
		return tstypes.Entry{}, httperr.NewBadRequest("entry not found")
	}
	cur.Hours = entry.Hours
	if entry.Status != "" {
		cur.Status = entry.Status
	}
	cur.Note = entry.Note
	s.entries[tenantID][entry.ID] = cur
	return cur, nil
}

func (s *memoryEntryStore) DeleteEntry(_ context.Context, tenantID string, _ string, entryID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.entries[tenantID][entryID]; !ok {
		return httperr.NewBadRequest("entry not found")
	}
	delete(s.entries[tenantID], entryID)
	return nil
}
