package server

import (
	"context"

	"github.com/Caiolinooo/PontoFlow-sub001/modules/access/domain/types"
)

type Principal struct {
	ID         string
	TenantID   string
	Role       types.Role
	EmployeeID string
	Email      string
}

type principalContextKey struct{}

func withPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalContextKey{}, p)
}

func currentPrincipal(ctx context.Context) (Principal, bool) {
	v := ctx.Value(principalContextKey{})
	if v == nil {
		return Principal{}, false
	}
	p, ok := v.(Principal)
	return p, ok
}
