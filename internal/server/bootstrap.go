package server

import (
	"context"
	"net/http"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"

	accesspersistence "github.com/Caiolinooo/PontoFlow-sub001/modules/access/infrastructure/persistence"
	tspersistence "github.com/Caiolinooo/PontoFlow-sub001/modules/timesheet/infrastructure/persistence"
)

// NewMux assembles the production handler from the environment. With a
// reachable database it wires the Postgres stores; set DEV_MEMORY_STORES=1
// to run on in-memory stores with a single static tenant instead.
func NewMux(ctx context.Context) (http.Handler, error) {
	opts := HandlerOptions{}

	if os.Getenv("DEV_MEMORY_STORES") == "1" {
		opts.Tenancy = newStaticTenancyResolver(map[string]Tenant{
			getenvDefault("TENANT_HOSTNAME", "localhost"): {
				ID:     getenvDefault("TENANT_ID", "00000000-0000-0000-0000-000000000001"),
				Domain: getenvDefault("TENANT_HOSTNAME", "localhost"),
				Name:   "dev",
			},
		})
		return NewHandler(opts)
	}

	pool, err := pgxpool.New(ctx, dbDSNFromEnv())
	if err != nil {
		return nil, err
	}

	auditStore := accesspersistence.NewAuditPGStore(pool)
	opts.Tenancy = newTenancyDBResolver(pool)
	opts.Membership = accesspersistence.NewMembershipPGStore(pool)
	opts.Locks = accesspersistence.NewLockPGStore(pool)
	opts.AuditLog = auditStore
	opts.AuditRead = auditStore
	opts.Entries = tspersistence.NewEntryPGStore(pool)
	return NewHandler(opts)
}
