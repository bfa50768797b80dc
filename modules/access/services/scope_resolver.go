package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/Caiolinooo/PontoFlow-sub001/modules/access/domain/ports"
)

// ErrScopeResolutionFailed wraps a membership-store failure during scope
// computation. Callers must treat the accompanying scope as empty (fail
// closed), never as "all employees".
var ErrScopeResolutionFailed = errors.New("access: scope resolution failed")

type ScopeResolver struct {
	membership ports.GroupMembershipStore
}

func NewScopeResolver(membership ports.GroupMembershipStore) ScopeResolver {
	return ScopeResolver{membership: membership}
}

// ResolveManagerScope returns the deduplicated union of employees across
// every group assigned to the manager in the tenant, sorted ascending.
// A manager with no group assignments gets an empty scope; the caller is
// expected to degrade such a manager to regular-user behavior.
func (r ScopeResolver) ResolveManagerScope(ctx context.Context, tenantID string, managerID string) ([]string, error) {
	tenantID = strings.TrimSpace(tenantID)
	managerID = strings.TrimSpace(managerID)
	if tenantID == "" {
		return nil, errors.New("access: tenant id required")
	}
	if managerID == "" {
		return nil, errors.New("access: manager id required")
	}

	groups, err := r.membership.ListGroupsForManager(ctx, tenantID, managerID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrScopeResolutionFailed, err)
	}
	if len(groups) == 0 {
		return nil, nil
	}

	groupIDs := make([]string, 0, len(groups))
	for _, g := range groups {
		groupIDs = append(groupIDs, g.ID)
	}

	employees, err := r.membership.ListEmployeesInGroups(ctx, tenantID, groupIDs)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrScopeResolutionFailed, err)
	}

	seen := make(map[string]struct{}, len(employees))
	out := make([]string, 0, len(employees))
	for _, id := range employees {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Strings(out)
	return out, nil
}
