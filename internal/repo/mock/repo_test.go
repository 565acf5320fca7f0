package mock_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openpaas/tenantd/internal/model"
	"github.com/openpaas/tenantd/internal/repo"
	"github.com/openpaas/tenantd/internal/repo/mock"
)

func TestCreateTenantDuplicate(t *testing.T) {
	r := mock.NewInMemoryRepository()
	ctx := t.Context()

	tenant := &model.Tenant{ID: "acme", Name: "Acme", Status: model.TenantStatusPending}
	require.NoError(t, r.Create(ctx, tenant))

	err := r.Create(ctx, &model.Tenant{ID: "acme", Name: "Acme Again", Status: model.TenantStatusPending})
	assert.ErrorIs(t, err, repo.ErrUniqueConstraint)
}

func TestFirstTenant(t *testing.T) {
	r := mock.NewInMemoryRepository()
	ctx := t.Context()

	require.NoError(t, r.Create(ctx, &model.Tenant{ID: "acme", Name: "Acme", Status: model.TenantStatusActive}))

	t.Run("by primary key", func(t *testing.T) {
		got := &model.Tenant{ID: "acme"}
		found, err := r.First(ctx, got, *repo.NewQuery())
		require.NoError(t, err)
		assert.True(t, found)
		assert.Equal(t, "Acme", got.Name)
	})

	t.Run("missing", func(t *testing.T) {
		got := &model.Tenant{ID: "ghost"}
		found, err := r.First(ctx, got, *repo.NewQuery())
		assert.ErrorIs(t, err, repo.ErrNotFound)
		assert.False(t, found)
	})
}

func TestListTenantsFilterOrderPaginate(t *testing.T) {
	r := mock.NewInMemoryRepository()
	ctx := t.Context()

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, id := range []string{"alpha", "beta", "gamma"} {
		tenant := &model.Tenant{ID: id, Name: id, Status: model.TenantStatusActive}
		tenant.CreatedAt = base.Add(time.Duration(i) * time.Hour)
		require.NoError(t, r.Create(ctx, tenant))
	}

	require.NoError(t, r.Create(ctx, &model.Tenant{ID: "idle", Name: "idle", Status: model.TenantStatusSuspended}))

	var out []*model.Tenant
	query := repo.NewQuery().
		Where(repo.StatusField, model.TenantStatusActive).
		OrderBy(repo.CreatedField, repo.Asc).
		SetLimit(2)

	count, err := r.List(ctx, model.Tenant{}, &out, *query)
	require.NoError(t, err)

	assert.Equal(t, 3, count)
	require.Len(t, out, 2)
	assert.Equal(t, "alpha", out[0].ID)
	assert.Equal(t, "beta", out[1].ID)
}

func TestCreateSubscriptionWithoutID(t *testing.T) {
	r := mock.NewInMemoryRepository()
	ctx := t.Context()

	require.NoError(t, r.Create(ctx, &model.Subscription{TenantID: "acme", Plan: model.PlanFree}))

	err := r.Create(ctx, &model.Subscription{TenantID: "other", Plan: model.PlanFree})
	assert.ErrorIs(t, err, repo.ErrUniqueConstraint)
}

func TestDeleteSubscriptionsByTenant(t *testing.T) {
	r := mock.NewInMemoryRepository()
	ctx := t.Context()

	require.NoError(t, r.Create(ctx, &model.Subscription{ID: uuid.New(), TenantID: "acme", Plan: model.PlanFree, IsActive: true}))
	require.NoError(t, r.Create(ctx, &model.Subscription{ID: uuid.New(), TenantID: "acme", Plan: model.PlanPremium, IsActive: true}))
	require.NoError(t, r.Create(ctx, &model.Subscription{ID: uuid.New(), TenantID: "other", Plan: model.PlanFree, IsActive: true}))

	deleted, err := r.Delete(ctx, &model.Subscription{}, *repo.NewQuery().Where(repo.TenantIDField, "acme"))
	require.NoError(t, err)
	assert.True(t, deleted)

	count, err := r.Count(ctx, model.Subscription{}, *repo.NewQuery())
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}
