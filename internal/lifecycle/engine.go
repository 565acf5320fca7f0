package lifecycle

import (
	"context"
	"errors"
	"maps"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/openpaas/tenantd/internal/alloc"
	"github.com/openpaas/tenantd/internal/config"
	"github.com/openpaas/tenantd/internal/errs"
	"github.com/openpaas/tenantd/internal/hook"
	"github.com/openpaas/tenantd/internal/log"
	"github.com/openpaas/tenantd/internal/model"
	"github.com/openpaas/tenantd/internal/repo"
	"github.com/openpaas/tenantd/internal/tenantctx"
)

// Provisioner owns the physical tenant databases.
type Provisioner interface {
	EnsureTenantDatabase(ctx context.Context, tenantID string) error
	DropTenantDatabase(ctx context.Context, tenantID string) error
}

// HandleCache caches open connection handles to tenant databases.
type HandleCache interface {
	Tenant(ctx context.Context, tenantID string) (*gorm.DB, error)
	Invalidate(tenantID string)
}

const DefaultServiceType = "generic"

// Engine drives tenants through their lifecycle. Every state change
// goes through the registry store; the physical database work is
// delegated to the Provisioner.
type Engine struct {
	repo        repo.Repo
	provisioner Provisioner
	hooks       *hook.Dispatcher
	allocator   *alloc.PortAllocator
	handles     HandleCache
	subCfg      config.Subscription
	provCfg     config.Provisioning
	now         func() time.Time
}

// EngineOption customises an Engine.
type EngineOption func(*Engine)

// WithClock replaces the engine's time source.
func WithClock(now func() time.Time) EngineOption {
	return func(e *Engine) {
		e.now = now
	}
}

// WithHandleCache attaches the cache handing out tenant database
// handles. The engine invalidates a tenant's handle when its database
// is dropped.
func WithHandleCache(handles HandleCache) EngineOption {
	return func(e *Engine) {
		e.handles = handles
	}
}

// NewEngine creates a lifecycle Engine.
func NewEngine(
	r repo.Repo,
	provisioner Provisioner,
	hooks *hook.Dispatcher,
	allocator *alloc.PortAllocator,
	cfg *config.Config,
	opts ...EngineOption,
) *Engine {
	e := &Engine{
		repo:        r,
		provisioner: provisioner,
		hooks:       hooks,
		allocator:   allocator,
		subCfg:      cfg.Subscription,
		provCfg:     cfg.Provisioning,
		now:         func() time.Time { return time.Now().UTC() },
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// CreateParams carries the caller supplied tenant attributes.
type CreateParams struct {
	ID          string
	Name        string
	AdminEmail  string
	AdminName   string
	ServiceType string
	Plan        model.SubscriptionPlan
	Config      model.JSONMap

	// Features overrides the plan's default feature flags.
	Features model.FeatureSet

	// AutoProvision runs Provision right after the tenant record is
	// created.
	AutoProvision bool
}

// Create registers a new tenant in pending state together with its
// subscription and port range. The tenant's database does not exist
// until Provision runs.
func (e *Engine) Create(ctx context.Context, params CreateParams) (*model.Tenant, error) {
	ctx = e.operationContext(ctx, params.ID, "create")

	if params.ServiceType == "" {
		params.ServiceType = DefaultServiceType
	}

	plan := model.ParsePlan(string(params.Plan))

	features := model.DefaultFeatures(plan)
	maps.Copy(features, params.Features)

	tenant := &model.Tenant{
		ID:          params.ID,
		Name:        params.Name,
		Subdomain:   model.SubdomainFromID(params.ID),
		Status:      model.TenantStatusPending,
		AdminEmail:  params.AdminEmail,
		AdminName:   params.AdminName,
		ServiceType: params.ServiceType,
		Config:      params.Config,
	}
	if tenant.Config == nil {
		tenant.Config = model.JSONMap{}
	}

	err := tenant.Validate()
	if err != nil {
		return nil, err
	}

	e.hooks.Emit(ctx, hook.Event{Kind: hook.BeforeCreate, TenantID: params.ID, Plan: plan})

	err = e.repo.Transaction(ctx, func(ctx context.Context, r repo.Repo) error {
		// The ordinal derives from the highest allocated range, not the
		// row count; hard deletes must never shift live allocations.
		var top []*model.Tenant

		_, err := r.List(ctx, model.Tenant{}, &top, *repo.NewQuery().
			OrderBy(repo.PortRangeStartField, repo.Desc).
			SetLimit(1))
		if err != nil {
			return err
		}

		ordinal := 0
		if len(top) > 0 {
			ordinal = e.allocator.NextOrdinal(top[0].PortRangeStart)
		}

		ports, err := e.allocator.Allocate(ordinal)
		if err != nil {
			return err
		}

		tenant.PortRangeStart = ports.Start
		tenant.PortRangeEnd = ports.End

		err = r.Create(ctx, tenant)
		if err != nil {
			return err
		}

		now := e.now()

		return r.Create(ctx, &model.Subscription{
			ID:                uuid.New(),
			TenantID:          tenant.ID,
			Plan:              plan,
			IsActive:          true,
			StartDate:         now,
			EndDate:           now.AddDate(0, 0, e.subCfg.ValidityDays),
			MaxUsers:          e.subCfg.MaxUsers,
			MaxStorageMB:      e.subCfg.MaxStorageMB,
			MaxAPICallsPerDay: e.subCfg.MaxAPICallsPerDay,
			Features:          features,
		})
	})
	if err != nil {
		// A unique violation only means "tenant already exists" when
		// the colliding row is this tenant's; the port range index can
		// trip it too when creates race.
		if errors.Is(err, repo.ErrUniqueConstraint) {
			if _, getErr := e.getTenant(ctx, params.ID); getErr == nil {
				return nil, errs.Wrap(ErrTenantAlreadyExists, err)
			}
		}

		return nil, err
	}

	log.Info(ctx, "tenant created")

	e.hooks.Emit(ctx, hook.Event{Kind: hook.AfterCreate, TenantID: tenant.ID, Tenant: tenant, Plan: plan})

	if params.AutoProvision {
		return e.Provision(ctx, tenant.ID)
	}

	return tenant, nil
}

// Provision creates the tenant's dedicated database and activates the
// tenant. It is safe to call again on an already active tenant, the
// database setup is idempotent. On failure the tenant drops back to
// pending so the operation can be retried.
func (e *Engine) Provision(ctx context.Context, tenantID string) (*model.Tenant, error) {
	ctx = e.operationContext(ctx, tenantID, "provision")

	tenant, err := e.getTenant(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	e.hooks.Emit(ctx, hook.Event{Kind: hook.BeforeProvision, TenantID: tenantID, Tenant: tenant})

	status, _, err := applyTransition(ctx, tenant.Status, TransitionProvision)
	if err != nil {
		return nil, err
	}

	tenant.Status = status
	if err := e.patchTenant(ctx, tenant); err != nil {
		return nil, err
	}

	err = e.provisioner.EnsureTenantDatabase(ctx, tenantID)
	if err != nil {
		tenant.Status = model.TenantStatusPending
		if patchErr := e.patchTenant(ctx, tenant); patchErr != nil {
			log.Error(ctx, "failed to reset tenant after provisioning failure", patchErr)
		}

		log.Error(ctx, "tenant provisioning failed", err)

		return nil, &ProvisioningFailedError{TenantID: tenantID, Cause: err}
	}

	tenant.Status = model.TenantStatusActive
	if tenant.ProvisionedAt == nil {
		provisionedAt := e.now()
		tenant.ProvisionedAt = &provisionedAt
	}

	if err := e.patchTenant(ctx, tenant); err != nil {
		return nil, err
	}

	log.Info(ctx, "tenant provisioned")

	e.hooks.Emit(ctx, hook.Event{Kind: hook.AfterProvision, TenantID: tenantID, Tenant: tenant})

	return tenant, nil
}

// Activate brings a suspended tenant back to active. Activating an
// already active tenant is a no-op.
func (e *Engine) Activate(ctx context.Context, tenantID string) (*model.Tenant, error) {
	ctx = e.operationContext(ctx, tenantID, "activate")

	tenant, err := e.getTenant(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	e.hooks.Emit(ctx, hook.Event{Kind: hook.BeforeActivate, TenantID: tenantID, Tenant: tenant})

	status, changed, err := applyTransition(ctx, tenant.Status, TransitionActivate)
	if err != nil {
		return nil, err
	}

	if changed {
		tenant.Status = status
		delete(tenant.Config, model.ConfigKeySuspendReason)
		delete(tenant.Config, model.ConfigKeySuspendedAt)

		if err := e.patchTenant(ctx, tenant); err != nil {
			return nil, err
		}

		log.Info(ctx, "tenant activated")
	}

	e.hooks.Emit(ctx, hook.Event{Kind: hook.AfterActivate, TenantID: tenantID, Tenant: tenant})

	return tenant, nil
}

// Suspend takes an active tenant out of service, recording the reason.
// Suspending an already suspended tenant is a no-op.
func (e *Engine) Suspend(ctx context.Context, tenantID, reason string) (*model.Tenant, error) {
	ctx = e.operationContext(ctx, tenantID, "suspend")

	tenant, err := e.getTenant(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	e.hooks.Emit(ctx, hook.Event{Kind: hook.BeforeSuspend, TenantID: tenantID, Tenant: tenant, Reason: reason})

	status, changed, err := applyTransition(ctx, tenant.Status, TransitionSuspend)
	if err != nil {
		return nil, err
	}

	if changed {
		tenant.Status = status

		if tenant.Config == nil {
			tenant.Config = model.JSONMap{}
		}

		tenant.Config[model.ConfigKeySuspendReason] = reason
		tenant.Config[model.ConfigKeySuspendedAt] = e.now().Format(time.RFC3339)

		if err := e.patchTenant(ctx, tenant); err != nil {
			return nil, err
		}

		log.Info(ctx, "tenant suspended")
	}

	e.hooks.Emit(ctx, hook.Event{Kind: hook.AfterSuspend, TenantID: tenantID, Tenant: tenant, Reason: reason})

	return tenant, nil
}

// DeleteParams controls tenant removal.
type DeleteParams struct {
	// Hard removes the registry records and drops the tenant's
	// database. Without it the tenant is only marked deleted and its
	// data kept for the retention window.
	Hard bool

	// PreserveDataDays overrides the configured retention window for a
	// soft delete. Zero means use the configured default.
	PreserveDataDays int
}

// Delete removes a tenant. A soft delete marks the record deleted and
// stamps the retention window; repeating it refreshes the window. A
// hard delete removes the tenant and its subscriptions from the
// registry and drops the tenant's database.
func (e *Engine) Delete(ctx context.Context, tenantID string, params DeleteParams) error {
	ctx = e.operationContext(ctx, tenantID, "delete")

	tenant, err := e.getTenant(ctx, tenantID)
	if err != nil {
		return err
	}

	e.hooks.Emit(ctx, hook.Event{Kind: hook.BeforeDelete, TenantID: tenantID, Tenant: tenant, Hard: params.Hard})

	if params.Hard {
		err = e.hardDelete(ctx, tenant)
	} else {
		err = e.softDelete(ctx, tenant, params.PreserveDataDays)
	}

	if err != nil {
		return err
	}

	e.hooks.Emit(ctx, hook.Event{Kind: hook.AfterDelete, TenantID: tenantID, Hard: params.Hard})

	return nil
}

func (e *Engine) softDelete(ctx context.Context, tenant *model.Tenant, preserveDays int) error {
	status, _, err := applyTransition(ctx, tenant.Status, TransitionDelete)
	if err != nil {
		return err
	}

	if preserveDays <= 0 {
		preserveDays = e.provCfg.PreserveDataDays
	}

	now := e.now()

	tenant.Status = status

	if tenant.Config == nil {
		tenant.Config = model.JSONMap{}
	}

	tenant.Config[model.ConfigKeyDeletedAt] = now.Format(time.RFC3339)
	tenant.Config[model.ConfigKeyDataRetentionUntil] = now.AddDate(0, 0, preserveDays).Format(time.RFC3339)

	err = e.patchTenant(ctx, tenant)
	if err != nil {
		return err
	}

	log.Info(ctx, "tenant soft deleted")

	return nil
}

func (e *Engine) hardDelete(ctx context.Context, tenant *model.Tenant) error {
	err := e.repo.Transaction(ctx, func(ctx context.Context, r repo.Repo) error {
		_, err := r.Delete(ctx, &model.Subscription{}, *repo.NewQuery().Where(repo.TenantIDField, tenant.ID))
		if err != nil {
			return err
		}

		_, err = r.Delete(ctx, &model.Tenant{ID: tenant.ID}, *repo.NewQuery())

		return err
	})
	if err != nil {
		return err
	}

	// Closing the cached handle before the drop; a pooled connection
	// to the doomed database would block DROP DATABASE.
	if e.handles != nil {
		e.handles.Invalidate(tenant.ID)
	}

	err = e.provisioner.DropTenantDatabase(ctx, tenant.ID)
	if err != nil {
		return err
	}

	log.Info(ctx, "tenant hard deleted")

	return nil
}

// Get loads a tenant by ID.
func (e *Engine) Get(ctx context.Context, tenantID string) (*model.Tenant, error) {
	return e.getTenant(ctx, tenantID)
}

// GetWithSubscription loads a tenant together with its current active
// subscription. The subscription is nil if the tenant has none.
func (e *Engine) GetWithSubscription(ctx context.Context, tenantID string) (*model.Tenant, *model.Subscription, error) {
	tenant, err := e.getTenant(ctx, tenantID)
	if err != nil {
		return nil, nil, err
	}

	sub, err := repo.ActiveSubscription(ctx, e.repo, tenantID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return tenant, nil, nil
		}

		return nil, nil, err
	}

	return tenant, sub, nil
}

// ListParams filters List results.
type ListParams struct {
	Status      model.TenantStatus
	ServiceType string
	Limit       int
	Offset      int
}

// List returns tenants ordered by creation time together with the
// total number of matches.
func (e *Engine) List(ctx context.Context, params ListParams) ([]*model.Tenant, int, error) {
	query := repo.NewQuery().OrderBy(repo.CreatedField, repo.Asc)

	if params.Status != "" {
		err := params.Status.Validate()
		if err != nil {
			return nil, 0, err
		}

		query = query.Where(repo.StatusField, params.Status)
	}

	if params.ServiceType != "" {
		query = query.Where(repo.ServiceTypeField, params.ServiceType)
	}

	query = query.SetLimit(params.Limit).SetOffset(params.Offset)

	var tenants []*model.Tenant

	count, err := e.repo.List(ctx, model.Tenant{}, &tenants, *query)
	if err != nil {
		return nil, 0, err
	}

	return tenants, count, nil
}

// TenantInfo is the resolved runtime view of a tenant, everything a
// serving layer needs to route and authorise requests.
type TenantInfo struct {
	TenantID     string
	Name         string
	Status       model.TenantStatus
	Subdomain    string
	DatabaseName string
	ServiceType  string

	Plan     model.SubscriptionPlan
	Features model.FeatureSet

	Config model.JSONMap

	PortRangeStart int
	PortRangeEnd   int
}

// Lookup resolves a tenant into its runtime view.
func (e *Engine) Lookup(ctx context.Context, tenantID string) (*TenantInfo, error) {
	tenant, sub, err := e.GetWithSubscription(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	info := &TenantInfo{
		TenantID:       tenant.ID,
		Name:           tenant.Name,
		Status:         tenant.Status,
		Subdomain:      tenant.Subdomain,
		DatabaseName:   tenant.DatabaseName(),
		ServiceType:    tenant.ServiceType,
		Config:         tenant.Config,
		PortRangeStart: tenant.PortRangeStart,
		PortRangeEnd:   tenant.PortRangeEnd,
	}

	if sub != nil {
		info.Plan = sub.Plan
		info.Features = sub.Features
	}

	return info, nil
}

// TenantDB returns the cached connection handle for a tenant's
// database. Deleted tenants resolve as not found so serving layers
// drop their traffic.
func (e *Engine) TenantDB(ctx context.Context, tenantID string) (*gorm.DB, error) {
	if e.handles == nil {
		return nil, ErrNoTenantHandles
	}

	tenant, err := e.getTenant(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	if tenant.Status == model.TenantStatusDeleted {
		return nil, errs.Wrapf(ErrTenantNotFound, tenantID)
	}

	return e.handles.Tenant(ctx, tenantID)
}

func (e *Engine) getTenant(ctx context.Context, tenantID string) (*model.Tenant, error) {
	tenant, err := repo.GetTenantByID(ctx, e.repo, tenantID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, errs.Wrap(ErrTenantNotFound, err)
		}

		return nil, err
	}

	return tenant, nil
}

func (e *Engine) patchTenant(ctx context.Context, tenant *model.Tenant) error {
	_, err := e.repo.Patch(ctx, tenant, *repo.NewQuery())
	if err != nil {
		return err
	}

	return nil
}

func (e *Engine) operationContext(ctx context.Context, tenantID, operation string) context.Context {
	ctx = tenantctx.CreateTenantContext(ctx, tenantID)
	if _, err := tenantctx.GetRequestID(ctx); err != nil {
		ctx = tenantctx.InjectRequestID(ctx)
	}

	ctx = log.InjectTenant(ctx)
	ctx = log.InjectRequest(ctx)

	return log.InjectOperation(ctx, operation)
}
