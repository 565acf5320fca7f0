package db_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/utils/tests"

	"github.com/openpaas/tenantd/internal/config"
	"github.com/openpaas/tenantd/internal/db"
	"github.com/openpaas/tenantd/internal/model"
)

func stubOpener(opens *atomic.Int32, failFor string) db.OpenFunc {
	return func(_ context.Context, _ config.Database, dbName string) (*gorm.DB, error) {
		if dbName == failFor {
			return nil, errors.New("connection refused")
		}

		opens.Add(1)

		return gorm.Open(tests.DummyDialector{}, &gorm.Config{})
	}
}

func TestTenantHandleIsReused(t *testing.T) {
	var opens atomic.Int32

	cache := db.NewEngineCache(config.Database{Name: "tenant_registry"}, stubOpener(&opens, ""))
	ctx := t.Context()

	first, err := cache.Tenant(ctx, "acme")
	require.NoError(t, err)

	second, err := cache.Tenant(ctx, "acme")
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, int32(1), opens.Load())
	assert.Equal(t, 1, cache.Size())
}

func TestTenantHandlesAreIndependent(t *testing.T) {
	var opens atomic.Int32

	cache := db.NewEngineCache(config.Database{Name: "tenant_registry"}, stubOpener(&opens, ""))
	ctx := t.Context()

	acme, err := cache.Tenant(ctx, "acme")
	require.NoError(t, err)

	globex, err := cache.Tenant(ctx, "globex")
	require.NoError(t, err)

	assert.NotSame(t, acme, globex)
	assert.Equal(t, int32(2), opens.Load())
	assert.Equal(t, 2, cache.Size())
}

func TestTenantInvalidID(t *testing.T) {
	cache := db.NewEngineCache(config.Database{Name: "tenant_registry"}, stubOpener(&atomic.Int32{}, ""))

	_, err := cache.Tenant(t.Context(), "Bad-ID")
	assert.ErrorIs(t, err, model.ErrInvalidTenantID)
}

func TestTenantOpenFailureIsNotCached(t *testing.T) {
	var opens atomic.Int32

	cache := db.NewEngineCache(config.Database{Name: "tenant_registry"}, stubOpener(&opens, "tenant_acme"))
	ctx := t.Context()

	_, err := cache.Tenant(ctx, "acme")
	require.ErrorIs(t, err, db.ErrOpeningTenantDB)
	assert.Equal(t, 0, cache.Size())

	_, err = cache.Tenant(ctx, "acme")
	assert.Error(t, err)
}

func TestConcurrentTenantRequestsOpenOnce(t *testing.T) {
	var opens atomic.Int32

	cache := db.NewEngineCache(config.Database{Name: "tenant_registry"}, stubOpener(&opens, ""))
	ctx := t.Context()

	var wg sync.WaitGroup
	for range 16 {
		wg.Add(1)

		go func() {
			defer wg.Done()

			_, err := cache.Tenant(ctx, "acme")
			assert.NoError(t, err)
		}()
	}

	wg.Wait()

	assert.Equal(t, int32(1), opens.Load())
}

func TestCentralHandleIsReused(t *testing.T) {
	var opens atomic.Int32

	cache := db.NewEngineCache(config.Database{Name: "tenant_registry"}, stubOpener(&opens, ""))
	ctx := t.Context()

	first, err := cache.Central(ctx)
	require.NoError(t, err)

	second, err := cache.Central(ctx)
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, int32(1), opens.Load())
}

func TestInvalidateDropsHandle(t *testing.T) {
	var opens atomic.Int32

	cache := db.NewEngineCache(config.Database{Name: "tenant_registry"}, stubOpener(&opens, ""))
	ctx := t.Context()

	_, err := cache.Tenant(ctx, "acme")
	require.NoError(t, err)

	cache.Invalidate("acme")
	assert.Equal(t, 0, cache.Size())

	_, err = cache.Tenant(ctx, "acme")
	require.NoError(t, err)
	assert.Equal(t, int32(2), opens.Load())
}
