package db

import (
	"context"
	"database/sql"
	"errors"

	"github.com/pressly/goose/v3"

	"github.com/openpaas/tenantd/internal/config"
	"github.com/openpaas/tenantd/internal/db/dsn"
	"github.com/openpaas/tenantd/internal/model"
	"github.com/openpaas/tenantd/internal/repo"
)

type (
	MigrationTarget string
	migrateFunc     func(ctx context.Context, db *sql.DB, dir string) error
)

const (
	RegistryTarget MigrationTarget = "registry"
	TenantTarget   MigrationTarget = "tenant"
	AllTarget      MigrationTarget = "all"

	gooseDriver = "pgx"
)

var ErrUnsupportedMigration = errors.New("unsupported migration")

// Migration describes a single migration run.
type Migration struct {
	Downgrade bool
	Target    MigrationTarget
}

type Migrator interface {
	MigrateTenantToLatest(ctx context.Context, tenantID string) error
	MigrateToLatest(ctx context.Context, migration Migration) error
	MigrateTo(ctx context.Context, migration Migration, version int64) error
}

type migrator struct {
	r    repo.Repo
	conf config.Database
	prov config.Provisioning
}

func NewMigrator(r repo.Repo, cfg *config.Config) Migrator {
	return &migrator{
		r:    r,
		conf: cfg.Database,
		prov: cfg.Provisioning,
	}
}

// MigrateToLatest runs migrations onto the latest version
// For migrations with Downgrade false, it runs all migrations up to and including the latest version
// For migrations with Downgrade true, it downgrades the latest version
func (m *migrator) MigrateToLatest(ctx context.Context, migration Migration) error {
	return m.migrate(ctx, migration, func(ctx context.Context, db *sql.DB, dir string) error {
		if migration.Downgrade {
			return goose.DownContext(ctx, db, dir)
		}

		return goose.UpContext(ctx, db, dir)
	})
}

// MigrateTo runs migrations up-to a specific version
// For migrations with Downgrade false, it migrates up to the specified version
// For migrations with Downgrade true, it downgrades until the DB is the specified version
func (m *migrator) MigrateTo(ctx context.Context, migration Migration, version int64) error {
	return m.migrate(ctx, migration, func(ctx context.Context, db *sql.DB, dir string) error {
		if migration.Downgrade {
			return goose.DownToContext(ctx, db, dir, version)
		}

		return goose.UpToContext(ctx, db, dir, version)
	})
}

// MigrateTenantToLatest brings a single tenant database to the latest
// version. Used right after the database is created.
func (m *migrator) MigrateTenantToLatest(ctx context.Context, tenantID string) error {
	if err := model.ValidateTenantID(tenantID); err != nil {
		return err
	}

	return m.runMigration(ctx, model.TenantDatabasePrefix+tenantID, m.prov.TenantMigrations,
		func(ctx context.Context, db *sql.DB, dir string) error {
			return goose.UpContext(ctx, db, dir)
		})
}

func (m *migrator) migrate(ctx context.Context, migration Migration, f migrateFunc) error {
	switch migration.Target {
	case RegistryTarget:
		return m.runMigration(ctx, m.conf.Name, m.prov.RegistryMigrations, f)
	case TenantTarget:
		return m.migrateTenants(ctx, f)
	case AllTarget:
		err := m.runMigration(ctx, m.conf.Name, m.prov.RegistryMigrations, f)
		if err != nil {
			return err
		}

		return m.migrateTenants(ctx, f)
	default:
		return ErrUnsupportedMigration
	}
}

func (m *migrator) migrateTenants(ctx context.Context, f migrateFunc) error {
	return repo.ProcessInBatch(ctx, m.r, repo.NewQuery(), repo.DefaultLimit, func(tenants []*model.Tenant) error {
		for _, t := range tenants {
			if t.Status == model.TenantStatusPending || t.Status == model.TenantStatusDeleted {
				continue
			}

			err := m.runMigration(ctx, t.DatabaseName(), m.prov.TenantMigrations, f)
			if err != nil {
				return err
			}
		}

		return nil
	})
}

func (m *migrator) runMigration(ctx context.Context, dbName, dir string, f migrateFunc) error {
	dsnValue, err := dsn.ForDatabase(m.conf, dbName)
	if err != nil {
		return err
	}

	dbCon, err := goose.OpenDBWithDriver(gooseDriver, dsnValue)
	if err != nil {
		return err
	}
	defer dbCon.Close()

	return f(ctx, dbCon, dir)
}
