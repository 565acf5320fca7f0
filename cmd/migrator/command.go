package migrator

import (
	"context"

	"github.com/openkcm/common-sdk/pkg/commoncfg"
	"github.com/openkcm/common-sdk/pkg/logger"
	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/openpaas/tenantd/internal/config"
	"github.com/openpaas/tenantd/internal/db"
	"github.com/openpaas/tenantd/internal/repo/sql"
)

const (
	defaultTarget = "registry"
	targetOptions = "registry, tenant, or all"
)

func run(ctx context.Context, cfg *config.Config, migration db.Migration, version int64) error {
	err := logger.InitAsDefault(cfg.Logger, cfg.Application)
	if err != nil {
		return oops.In("main").
			Wrapf(err, "Failed to initialise the logger")
	}

	dbCon, err := db.StartDBConnection(ctx, cfg.Database, cfg.DatabaseReplicas)
	if err != nil {
		return err
	}

	m := db.NewMigrator(sql.NewRepository(dbCon), cfg)

	if version != 0 {
		return m.MigrateTo(ctx, migration, version)
	}

	return m.MigrateToLatest(ctx, migration)
}

func Cmd(buildInfo string) *cobra.Command {
	var (
		version  int64
		rollback bool
		target   string
	)

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Tenantd DB Migrator",
		Long:  "Runs goose migrations against the tenant registry, the tenant databases, or both.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(
				commoncfg.WithEnvOverride(config.ServiceName),
			)
			if err != nil {
				return oops.In("main").Wrapf(err, "failed to load config")
			}

			err = commoncfg.UpdateConfigVersion(&cfg.BaseConfig, buildInfo)
			if err != nil {
				return oops.In("main").Wrapf(err, "Failed to update the version configuration")
			}

			migration := db.Migration{
				Downgrade: rollback,
				Target:    db.MigrationTarget(target),
			}

			err = run(cmd.Context(), cfg, migration, version)
			if err != nil {
				return oops.In("main").Wrapf(err, "failed to run migrations")
			}

			return nil
		},
	}

	cmd.Flags().Int64Var(&version, "version", 0, "run migration until targeted version")
	cmd.Flags().BoolVarP(&rollback, "rollback", "r", false, "run down migrations (rollback)")
	cmd.Flags().StringVar(&target, "target", defaultTarget, "migration target ("+targetOptions+")")

	return cmd
}
