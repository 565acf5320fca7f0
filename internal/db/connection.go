package db

import (
	"context"
	"errors"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/plugin/dbresolver"

	"github.com/openpaas/tenantd/internal/config"
	"github.com/openpaas/tenantd/internal/db/dsn"
	"github.com/openpaas/tenantd/internal/errs"
)

var (
	ErrStartingDBCon            = errors.New("error starting db connection")
	ErrDBResolver               = errors.New("error starting db resolver")
	ErrLoadingDsnFromDBConfig   = errors.New("error loading dsn from db config")
	ErrLoadingReplicaDialectors = errors.New("error loading replica dialectors")
)

// StartDBConnection opens the registry DB connection using data from `config.Database`.
func StartDBConnection(
	ctx context.Context,
	conf config.Database,
	replicas []config.Database,
) (*gorm.DB, error) {
	dsnFromConfig, err := dsn.FromDBConfig(conf)
	if err != nil {
		return nil, errs.Wrap(ErrLoadingDsnFromDBConfig, err)
	}

	return startConnection(ctx, dsnFromConfig, replicas)
}

// StartTenantDBConnection opens a connection against a single tenant's
// database on the registry's server. Tenant stores never get replicas.
func StartTenantDBConnection(
	ctx context.Context,
	conf config.Database,
	dbName string,
) (*gorm.DB, error) {
	tenantDSN, err := dsn.ForDatabase(conf, dbName)
	if err != nil {
		return nil, errs.Wrap(ErrLoadingDsnFromDBConfig, err)
	}

	return startConnection(ctx, tenantDSN, nil)
}

func startConnection(ctx context.Context, dsnValue string, replicas []config.Database) (*gorm.DB, error) {
	dialector := postgres.Open(dsnValue)

	db, err := gorm.Open(dialector, &gorm.Config{
		TranslateError: true,
	})
	if err != nil {
		return nil, errs.Wrap(ErrStartingDBCon, err)
	}

	db = db.WithContext(ctx)

	if len(replicas) == 0 {
		return db, nil
	}

	replicaDialectorsFromReplicas, err := replicaDialectors(replicas)
	if err != nil {
		return nil, errs.Wrap(ErrLoadingReplicaDialectors, err)
	}

	err = db.Use(dbresolver.Register(dbresolver.Config{
		Sources:  []gorm.Dialector{dialector},
		Replicas: replicaDialectorsFromReplicas,
		Policy:   dbresolver.RandomPolicy{},
	}))
	if err != nil {
		return nil, errs.Wrap(ErrDBResolver, err)
	}

	return db, nil
}

func replicaDialectors(replicas []config.Database) ([]gorm.Dialector, error) {
	dialects := make([]gorm.Dialector, 0, len(replicas))

	for _, r := range replicas {
		dsnFromConfig, err := dsn.FromDBConfig(r)
		if err != nil {
			return nil, errs.Wrap(ErrLoadingDsnFromDBConfig, err)
		}

		dialects = append(dialects, postgres.Open(dsnFromConfig))
	}

	return dialects, nil
}
