package db

import (
	"context"
	"errors"
	"sync"

	"golang.org/x/sync/singleflight"
	"gorm.io/gorm"

	"github.com/openpaas/tenantd/internal/config"
	"github.com/openpaas/tenantd/internal/errs"
	"github.com/openpaas/tenantd/internal/model"
)

var ErrOpeningTenantDB = errors.New("error opening tenant database connection")

// OpenFunc opens a connection to the named database on the registry server.
type OpenFunc func(ctx context.Context, conf config.Database, dbName string) (*gorm.DB, error)

// EngineCache hands out lazily opened connections, one per tenant
// database plus one for the registry. Handles are kept for the process
// lifetime; there is no eviction. Concurrent first requests for the
// same database are collapsed into a single open.
type EngineCache struct {
	conf config.Database
	open OpenFunc

	mu      sync.RWMutex
	group   singleflight.Group
	central *gorm.DB
	tenants map[string]*gorm.DB
}

const centralKey = "\x00central"

// NewEngineCache creates an EngineCache. The open function defaults to
// StartTenantDBConnection and is injectable for tests.
func NewEngineCache(conf config.Database, open OpenFunc) *EngineCache {
	if open == nil {
		open = StartTenantDBConnection
	}

	return &EngineCache{
		conf:    conf,
		open:    open,
		tenants: map[string]*gorm.DB{},
	}
}

// Central returns the connection to the registry database, opening it
// on first use.
func (c *EngineCache) Central(ctx context.Context) (*gorm.DB, error) {
	c.mu.RLock()
	central := c.central
	c.mu.RUnlock()

	if central != nil {
		return central, nil
	}

	v, err, _ := c.group.Do(centralKey, func() (any, error) {
		db, err := c.open(ctx, c.conf, c.conf.Name)
		if err != nil {
			return nil, err
		}

		c.mu.Lock()
		c.central = db
		c.mu.Unlock()

		return db, nil
	})
	if err != nil {
		return nil, errs.Wrap(ErrOpeningTenantDB, err)
	}

	return v.(*gorm.DB), nil
}

// Tenant returns the connection to the given tenant's database, opening
// it on first use. Failed opens are not cached, the next call retries.
func (c *EngineCache) Tenant(ctx context.Context, tenantID string) (*gorm.DB, error) {
	if err := model.ValidateTenantID(tenantID); err != nil {
		return nil, err
	}

	c.mu.RLock()
	db, ok := c.tenants[tenantID]
	c.mu.RUnlock()

	if ok {
		return db, nil
	}

	v, err, _ := c.group.Do(tenantID, func() (any, error) {
		c.mu.RLock()
		cached, exists := c.tenants[tenantID]
		c.mu.RUnlock()

		if exists {
			return cached, nil
		}

		opened, err := c.open(ctx, c.conf, model.TenantDatabasePrefix+tenantID)
		if err != nil {
			return nil, err
		}

		c.mu.Lock()
		c.tenants[tenantID] = opened
		c.mu.Unlock()

		return opened, nil
	})
	if err != nil {
		return nil, errs.Wrap(ErrOpeningTenantDB, err)
	}

	return v.(*gorm.DB), nil
}

// Invalidate drops the cached handle for a tenant and closes it. Used
// after the tenant's database is removed.
func (c *EngineCache) Invalidate(tenantID string) {
	c.mu.Lock()
	db, ok := c.tenants[tenantID]
	delete(c.tenants, tenantID)
	c.mu.Unlock()

	if ok {
		closeHandle(db)
	}
}

// Size reports the number of cached tenant handles.
func (c *EngineCache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.tenants)
}

// Close releases every cached handle, the registry one included.
func (c *EngineCache) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.central != nil {
		closeHandle(c.central)
		c.central = nil
	}

	for id, db := range c.tenants {
		closeHandle(db)
		delete(c.tenants, id)
	}
}

func closeHandle(db *gorm.DB) {
	sqlDB, err := db.DB()
	if err != nil {
		return
	}

	_ = sqlDB.Close()
}
