package db

import (
	"context"
	"errors"
	"fmt"

	retry "github.com/avast/retry-go/v5"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/openpaas/tenantd/internal/config"
	"github.com/openpaas/tenantd/internal/db/dsn"
	"github.com/openpaas/tenantd/internal/errs"
	"github.com/openpaas/tenantd/internal/log"
	"github.com/openpaas/tenantd/internal/model"
	"github.com/openpaas/tenantd/internal/repo/violations"
)

var (
	ErrAdminConnect      = errors.New("error connecting to admin database")
	ErrCheckingDatabase  = errors.New("error checking tenant database existence")
	ErrCreatingDatabase  = errors.New("error creating tenant database")
	ErrDroppingDatabase  = errors.New("error dropping tenant database")
	ErrMigratingDatabase = errors.New("error migrating tenant database")
)

// AdminSession is the slice of pgx.Conn the provisioner needs. It exists
// so tests can run against a fake server.
type AdminSession interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Close(ctx context.Context) error
}

// ConnectFunc establishes a session against the cluster's admin database.
type ConnectFunc func(ctx context.Context) (AdminSession, error)

// TenantMigrator brings a freshly created tenant database to the latest
// schema version.
type TenantMigrator interface {
	MigrateTenantToLatest(ctx context.Context, tenantID string) error
}

// Provisioner creates and removes per-tenant databases. Creation is
// idempotent: a database that already exists, no matter who created it,
// counts as success.
type Provisioner struct {
	prov    config.Provisioning
	connect ConnectFunc
	migrate TenantMigrator
}

// ProvisionerOption customises a Provisioner.
type ProvisionerOption func(*Provisioner)

// WithConnectFunc replaces the admin connection factory.
func WithConnectFunc(connect ConnectFunc) ProvisionerOption {
	return func(p *Provisioner) {
		p.connect = connect
	}
}

// WithTenantMigrator makes the provisioner migrate each tenant database
// right after ensuring it exists.
func WithTenantMigrator(m TenantMigrator) ProvisionerOption {
	return func(p *Provisioner) {
		p.migrate = m
	}
}

// NewProvisioner creates a Provisioner from config.
func NewProvisioner(conf config.Database, prov config.Provisioning, opts ...ProvisionerOption) *Provisioner {
	p := &Provisioner{
		prov:    prov,
		connect: defaultConnect(conf, prov),
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

func defaultConnect(conf config.Database, prov config.Provisioning) ConnectFunc {
	return func(ctx context.Context) (AdminSession, error) {
		adminDSN, err := dsn.ForDatabase(conf, prov.AdminDatabase)
		if err != nil {
			return nil, err
		}

		var conn *pgx.Conn

		retrier := retry.New(
			retry.Attempts(prov.ConnectRetries),
			retry.DelayType(retry.BackOffDelay),
			retry.LastErrorOnly(true),
		)

		err = retrier.Do(func() error {
			connectCtx := ctx

			if prov.ConnectTimeout > 0 {
				var cancel context.CancelFunc

				connectCtx, cancel = context.WithTimeout(ctx, prov.ConnectTimeout)
				defer cancel()
			}

			conn, err = pgx.Connect(connectCtx, adminDSN)

			return err
		})
		if err != nil {
			return nil, err
		}

		return conn, nil
	}
}

// EnsureTenantDatabase makes sure the tenant's dedicated database
// exists. Losing a creation race to another process is treated as
// success, the loser observes the winner's database.
func (p *Provisioner) EnsureTenantDatabase(ctx context.Context, tenantID string) error {
	if err := model.ValidateTenantID(tenantID); err != nil {
		return err
	}

	dbName := model.TenantDatabasePrefix + tenantID

	session, err := p.connect(ctx)
	if err != nil {
		return errs.Wrap(ErrAdminConnect, err)
	}
	defer func() { _ = session.Close(ctx) }()

	exists, err := databaseExists(ctx, session, dbName)
	if err != nil {
		return errs.Wrap(ErrCheckingDatabase, err)
	}

	if !exists {
		// CREATE DATABASE cannot take bind parameters; the name is
		// safe after ValidateTenantID and quoted anyway.
		_, err = session.Exec(ctx, fmt.Sprintf("CREATE DATABASE %s", quoteIdentifier(dbName)))
		if err != nil && !violations.IsDuplicateDatabase(err) {
			return errs.Wrap(ErrCreatingDatabase, err)
		}

		if violations.IsDuplicateDatabase(err) {
			log.Debug(ctx, "tenant database already created concurrently")
		} else {
			log.Info(ctx, "created tenant database")
		}
	}

	if p.migrate != nil {
		err = p.migrate.MigrateTenantToLatest(ctx, tenantID)
		if err != nil {
			return errs.Wrap(ErrMigratingDatabase, err)
		}
	}

	return nil
}

// DropTenantDatabase removes the tenant's dedicated database. A missing
// database is not an error.
func (p *Provisioner) DropTenantDatabase(ctx context.Context, tenantID string) error {
	if err := model.ValidateTenantID(tenantID); err != nil {
		return err
	}

	dbName := model.TenantDatabasePrefix + tenantID

	session, err := p.connect(ctx)
	if err != nil {
		return errs.Wrap(ErrAdminConnect, err)
	}
	defer func() { _ = session.Close(ctx) }()

	_, err = session.Exec(ctx, fmt.Sprintf("DROP DATABASE IF EXISTS %s", quoteIdentifier(dbName)))
	if err != nil {
		return errs.Wrap(ErrDroppingDatabase, err)
	}

	log.Info(ctx, "dropped tenant database")

	return nil
}

func databaseExists(ctx context.Context, session AdminSession, dbName string) (bool, error) {
	var exists bool

	row := session.QueryRow(ctx, "SELECT EXISTS(SELECT 1 FROM pg_database WHERE datname = $1)", dbName)

	err := row.Scan(&exists)
	if err != nil {
		return false, err
	}

	return exists, nil
}

func quoteIdentifier(name string) string {
	return pgx.Identifier{name}.Sanitize()
}
