package mock

import (
	"context"
	"errors"
	"maps"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/openpaas/tenantd/internal/model"
	"github.com/openpaas/tenantd/internal/repo"
)

var (
	ErrUnknownResource = errors.New("unknown resource type")
	ErrResultType      = errors.New("unexpected result type")
)

// InMemoryRepository is a process-local repo.Repo used by tests.
// It mirrors the registry store semantics the engine relies on:
// primary-key uniqueness, condition filtering and pagination.
type InMemoryRepository struct {
	mu sync.RWMutex

	tenants       map[string]model.Tenant
	subscriptions map[uuid.UUID]model.Subscription
	usageLogs     map[uuid.UUID]model.UsageLog
}

// NewInMemoryRepository creates and returns a new instance of InMemoryRepository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		tenants:       map[string]model.Tenant{},
		subscriptions: map[uuid.UUID]model.Subscription{},
		usageLogs:     map[uuid.UUID]model.UsageLog{},
	}
}

func (r *InMemoryRepository) Create(_ context.Context, resource repo.Resource) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch v := resource.(type) {
	case *model.Tenant:
		if _, exists := r.tenants[v.ID]; exists {
			return repo.ErrUniqueConstraint
		}

		stampTimes(&v.AutoTimeModel)
		r.tenants[v.ID] = copyTenant(*v)
	case *model.Subscription:
		// No backfill for a missing ID: the registry schema has no
		// column default, callers generate it.
		if _, exists := r.subscriptions[v.ID]; exists {
			return repo.ErrUniqueConstraint
		}

		stampTimes(&v.AutoTimeModel)
		r.subscriptions[v.ID] = copySubscription(*v)
	case *model.UsageLog:
		if v.ID == uuid.Nil {
			v.ID = uuid.New()
		}

		r.usageLogs[v.ID] = *v
	default:
		return ErrUnknownResource
	}

	return nil
}

func (r *InMemoryRepository) First(_ context.Context, resource repo.Resource, query repo.Query) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	switch v := resource.(type) {
	case *model.Tenant:
		if len(query.Conds) == 0 {
			tenant, ok := r.tenants[v.ID]
			if !ok {
				return false, repo.ErrNotFound
			}

			*v = copyTenant(tenant)

			return true, nil
		}

		for _, tenant := range r.sortedTenants() {
			if matchTenant(tenant, query.Conds) {
				*v = copyTenant(tenant)
				return true, nil
			}
		}

		return false, repo.ErrNotFound
	case *model.Subscription:
		for _, sub := range r.sortedSubscriptions() {
			if matchSubscription(sub, query.Conds) {
				*v = copySubscription(sub)
				return true, nil
			}
		}

		return false, repo.ErrNotFound
	default:
		return false, ErrUnknownResource
	}
}

func (r *InMemoryRepository) Patch(_ context.Context, resource repo.Resource, _ repo.Query) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch v := resource.(type) {
	case *model.Tenant:
		if _, ok := r.tenants[v.ID]; !ok {
			return false, repo.ErrNotFound
		}

		_ = v.BeforeUpdate(nil)
		r.tenants[v.ID] = copyTenant(*v)

		return true, nil
	case *model.Subscription:
		if _, ok := r.subscriptions[v.ID]; !ok {
			return false, repo.ErrNotFound
		}

		_ = v.BeforeUpdate(nil)
		r.subscriptions[v.ID] = copySubscription(*v)

		return true, nil
	default:
		return false, ErrUnknownResource
	}
}

func (r *InMemoryRepository) Delete(_ context.Context, resource repo.Resource, query repo.Query) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	deleted := false

	switch v := resource.(type) {
	case *model.Tenant:
		if len(query.Conds) == 0 {
			if _, ok := r.tenants[v.ID]; ok {
				delete(r.tenants, v.ID)

				deleted = true
			}

			return deleted, nil
		}

		for id, tenant := range r.tenants {
			if matchTenant(tenant, query.Conds) {
				delete(r.tenants, id)

				deleted = true
			}
		}
	case *model.Subscription:
		for id, sub := range r.subscriptions {
			if matchSubscription(sub, query.Conds) {
				delete(r.subscriptions, id)

				deleted = true
			}
		}
	default:
		return false, ErrUnknownResource
	}

	return deleted, nil
}

func (r *InMemoryRepository) List(_ context.Context, resource repo.Resource, result any, query repo.Query) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	switch resource.(type) {
	case model.Tenant, *model.Tenant:
		out, ok := result.(*[]*model.Tenant)
		if !ok {
			return 0, ErrResultType
		}

		var matched []*model.Tenant

		for _, tenant := range r.sortedTenants() {
			if matchTenant(tenant, query.Conds) {
				t := copyTenant(tenant)
				matched = append(matched, &t)
			}
		}

		sortTenants(matched, query.OrderFields)

		count := len(matched)
		*out = paginate(matched, query)

		return count, nil
	case model.Subscription, *model.Subscription:
		out, ok := result.(*[]*model.Subscription)
		if !ok {
			return 0, ErrResultType
		}

		var matched []*model.Subscription

		for _, sub := range r.sortedSubscriptions() {
			if matchSubscription(sub, query.Conds) {
				s := copySubscription(sub)
				matched = append(matched, &s)
			}
		}

		sortSubscriptions(matched, query.OrderFields)

		count := len(matched)
		*out = paginate(matched, query)

		return count, nil
	default:
		return 0, ErrUnknownResource
	}
}

func (r *InMemoryRepository) Count(ctx context.Context, resource repo.Resource, query repo.Query) (int, error) {
	switch resource.(type) {
	case model.Tenant, *model.Tenant:
		var out []*model.Tenant
		return r.List(ctx, model.Tenant{}, &out, query)
	case model.Subscription, *model.Subscription:
		var out []*model.Subscription
		return r.List(ctx, model.Subscription{}, &out, query)
	default:
		return 0, ErrUnknownResource
	}
}

// Transaction runs txFunc against the same store. The in-memory
// repository offers no rollback; tests relying on atomicity should
// assert on the end state only.
func (r *InMemoryRepository) Transaction(ctx context.Context, txFunc repo.TransactionFunc) error {
	return txFunc(ctx, r)
}

func stampTimes(m *model.AutoTimeModel) {
	_ = m.BeforeCreate(nil)
}

func copyTenant(t model.Tenant) model.Tenant {
	if t.Config != nil {
		t.Config = maps.Clone(t.Config)
	}

	return t
}

func copySubscription(s model.Subscription) model.Subscription {
	if s.Features != nil {
		s.Features = maps.Clone(s.Features)
	}

	return s
}

func (r *InMemoryRepository) sortedTenants() []model.Tenant {
	out := make([]model.Tenant, 0, len(r.tenants))
	for _, t := range r.tenants {
		out = append(out, t)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })

	return out
}

func (r *InMemoryRepository) sortedSubscriptions() []model.Subscription {
	out := make([]model.Subscription, 0, len(r.subscriptions))
	for _, s := range r.subscriptions {
		out = append(out, s)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].ID.String() < out[j].ID.String() })

	return out
}

func matchTenant(t model.Tenant, conds []repo.Condition) bool {
	for _, cond := range conds {
		var actual any

		switch cond.Field {
		case repo.IDField:
			actual = t.ID
		case repo.StatusField:
			actual = t.Status
		case repo.ServiceTypeField:
			actual = t.ServiceType
		case repo.SubdomainField:
			actual = t.Subdomain
		case repo.PortRangeStartField:
			actual = t.PortRangeStart
		default:
			return false
		}

		if !matchValue(actual, cond) {
			return false
		}
	}

	return true
}

func matchSubscription(s model.Subscription, conds []repo.Condition) bool {
	for _, cond := range conds {
		var actual any

		switch cond.Field {
		case repo.IDField:
			actual = s.ID
		case repo.TenantIDField:
			actual = s.TenantID
		case repo.PlanField:
			actual = s.Plan
		case repo.IsActiveField:
			actual = s.IsActive
		default:
			return false
		}

		if !matchValue(actual, cond) {
			return false
		}
	}

	return true
}

func matchValue(actual any, cond repo.Condition) bool {
	equal := normalize(actual) == normalize(cond.Value)
	if cond.Operation == repo.NotEqual {
		return !equal
	}

	return equal
}

func normalize(v any) any {
	switch t := v.(type) {
	case model.TenantStatus:
		return string(t)
	case model.SubscriptionPlan:
		return string(t)
	case uuid.UUID:
		return t.String()
	default:
		return v
	}
}

func sortTenants(items []*model.Tenant, orders []repo.Order) {
	for _, order := range orders {
		desc := order.Direction == repo.Desc

		switch order.Field {
		case repo.CreatedField:
			sort.SliceStable(items, func(i, j int) bool {
				if desc {
					return items[i].CreatedAt.After(items[j].CreatedAt)
				}

				return items[i].CreatedAt.Before(items[j].CreatedAt)
			})
		case repo.PortRangeStartField:
			sort.SliceStable(items, func(i, j int) bool {
				if desc {
					return items[i].PortRangeStart > items[j].PortRangeStart
				}

				return items[i].PortRangeStart < items[j].PortRangeStart
			})
		}
	}
}

func sortSubscriptions(items []*model.Subscription, orders []repo.Order) {
	for _, order := range orders {
		if order.Field != repo.CreatedField {
			continue
		}

		desc := order.Direction == repo.Desc

		sort.SliceStable(items, func(i, j int) bool {
			if desc {
				return items[i].CreatedAt.After(items[j].CreatedAt)
			}

			return items[i].CreatedAt.Before(items[j].CreatedAt)
		})
	}
}

func paginate[T any](items []T, query repo.Query) []T {
	limit := query.Limit
	if limit <= 0 {
		limit = repo.DefaultLimit
	}

	if query.Offset >= len(items) {
		return nil
	}

	items = items[query.Offset:]
	if len(items) > limit {
		items = items[:limit]
	}

	return items
}
