package server

import (
	"net/http"
	"os"

	"github.com/Caiolinooo/PontoFlow-sub001/internal/routing"
	accessports "github.com/Caiolinooo/PontoFlow-sub001/modules/access/domain/ports"
	accesssvc "github.com/Caiolinooo/PontoFlow-sub001/modules/access/services"
	tsports "github.com/Caiolinooo/PontoFlow-sub001/modules/timesheet/domain/ports"
	tssvc "github.com/Caiolinooo/PontoFlow-sub001/modules/timesheet/services"
)

// HandlerOptions carries the wiring for one server instance. Nil stores
// fall back to in-memory implementations, which is enough for local runs
// and tests; production wiring passes the Postgres stores.
type HandlerOptions struct {
	Tenancy    TenancyResolver
	Membership accessports.GroupMembershipStore
	Locks      accessports.LockOverrideStore
	AuditLog   accessports.AuditLogger
	AuditRead  accessports.AuditReader
	Entries    tsports.EntryStore
	Notifier   accessports.NotificationDispatcher
	Authorizer authorizer
	Allowlist  *routing.Allowlist
}

type handler struct {
	scope        accesssvc.ScopeResolver
	validator    accesssvc.AccessValidator
	lockResolver accesssvc.LockResolver
	gate         accesssvc.EditGate
	audit        accesssvc.AuditTrail
	auditRead    accessports.AuditReader
	locks        accessports.LockOverrideStore
	membership   accessports.GroupMembershipStore
	entries      tssvc.EntriesFacade
	notifier     accessports.NotificationDispatcher
	classifier   *routing.Classifier
}

func NewHandler(opts HandlerOptions) (http.Handler, error) {
	allow := opts.Allowlist
	if allow == nil {
		loaded, err := loadDefaultAllowlist()
		if err != nil {
			return nil, err
		}
		allow = &loaded
	}
	classifier, err := routing.NewClassifier(*allow, "server")
	if err != nil {
		return nil, err
	}

	if opts.Tenancy == nil {
		opts.Tenancy = newStaticTenancyResolver(nil)
	}
	if opts.Membership == nil {
		opts.Membership = newMemoryMembershipStore()
	}
	if opts.Locks == nil {
		opts.Locks = newMemoryLockStore()
	}
	if opts.AuditLog == nil {
		mem := newMemoryAuditStore()
		opts.AuditLog = mem
		if opts.AuditRead == nil {
			opts.AuditRead = mem
		}
	}
	if opts.Entries == nil {
		opts.Entries = newMemoryEntryStore()
	}
	if opts.Notifier == nil {
		opts.Notifier = logNotifier{}
	}
	if opts.Authorizer == nil {
		a, err := loadAuthorizer()
		if err != nil {
			return nil, err
		}
		opts.Authorizer = a
	}

	scope := accesssvc.NewScopeResolver(opts.Membership)
	validator := accesssvc.NewAccessValidator(scope)
	lockResolver := accesssvc.NewLockResolver(opts.Locks, opts.Membership)

	h := &handler{
		scope:        scope,
		validator:    validator,
		lockResolver: lockResolver,
		gate:         accesssvc.NewEditGate(validator, lockResolver),
		audit:        accesssvc.NewAuditTrail(opts.AuditLog, nil),
		auditRead:    opts.AuditRead,
		locks:        opts.Locks,
		membership:   opts.Membership,
		entries:      tssvc.NewEntriesFacade(opts.Entries),
		notifier:     opts.Notifier,
		classifier:   classifier,
	}

	router := routing.NewRouter(classifier)
	router.Handle(routing.RouteClassOps, http.MethodGet, "/health", http.HandlerFunc(h.health))
	router.Handle(routing.RouteClassOps, http.MethodGet, "/healthz", http.HandlerFunc(h.health))

	router.Handle(routing.RouteClassInternalAPI, http.MethodGet, "/api/timesheet/entries", http.HandlerFunc(h.listEntries))
	router.Handle(routing.RouteClassInternalAPI, http.MethodPost, "/api/timesheet/entries:update", http.HandlerFunc(h.updateEntry))
	router.Handle(routing.RouteClassInternalAPI, http.MethodPost, "/api/timesheet/entries:delete", http.HandlerFunc(h.deleteEntry))

	router.Handle(routing.RouteClassInternalAPI, http.MethodGet, "/api/access/scope", http.HandlerFunc(h.resolveScope))
	router.Handle(routing.RouteClassInternalAPI, http.MethodGet, "/api/access/locks", http.HandlerFunc(h.listLocks))
	router.Handle(routing.RouteClassInternalAPI, http.MethodPost, "/api/access/locks", http.HandlerFunc(h.setLock))
	router.Handle(routing.RouteClassInternalAPI, http.MethodPost, "/api/access/locks:clear", http.HandlerFunc(h.clearLock))
	router.Handle(routing.RouteClassInternalAPI, http.MethodGet, "/api/access/locks/effective", http.HandlerFunc(h.effectiveLock))
	router.Handle(routing.RouteClassInternalAPI, http.MethodGet, "/api/access/audit", http.HandlerFunc(h.listAudit))

	router.Handle(routing.RouteClassInternalAPI, http.MethodPost, "/internal/access/rules:evaluate", http.HandlerFunc(h.evaluateRules))

	chain := withTenancy(opts.Tenancy, classifier,
		withIdentity(classifier,
			withAuthz(classifier, opts.Authorizer, router)))
	return chain, nil
}

func loadDefaultAllowlist() (routing.Allowlist, error) {
	path := os.Getenv("ALLOWLIST_PATH")
	if path == "" {
		p, err := defaultAuthzConfigPath("config/routing/allowlist.yaml")
		if err != nil {
			return routing.Allowlist{}, err
		}
		path = p
	}
	return routing.LoadAllowlist(path)
}

func withTenancy(resolver TenancyResolver, classifier *routing.Classifier, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rc := routing.RouteClassUI
		if classifier != nil {
			rc = classifier.Classify(r.URL.Path)
		}
		if rc == routing.RouteClassOps || rc == routing.RouteClassStatic {
			next.ServeHTTP(w, r)
			return
		}

		tenant, ok, err := resolver.ResolveTenant(r.Context(), effectiveHost(r))
		if err != nil {
			routing.WriteError(w, r, rc, http.StatusInternalServerError, "tenancy_error", "tenancy resolution failed")
			return
		}
		if !ok {
			routing.WriteError(w, r, rc, http.StatusNotFound, "unknown_tenant", "unknown tenant")
			return
		}
		next.ServeHTTP(w, r.WithContext(withTenant(r.Context(), tenant)))
	})
}

func (h *handler) health(w http.ResponseWriter, _ *http.Request) {
	routing.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
