package tenantcli

import (
	"context"

	"github.com/openkcm/common-sdk/pkg/commoncfg"
	"github.com/openkcm/common-sdk/pkg/logger"
	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/openpaas/tenantd/internal/alloc"
	"github.com/openpaas/tenantd/internal/config"
	"github.com/openpaas/tenantd/internal/db"
	"github.com/openpaas/tenantd/internal/hook"
	"github.com/openpaas/tenantd/internal/lifecycle"
	"github.com/openpaas/tenantd/internal/repo/sql"
)

func newEngine(ctx context.Context, cfg *config.Config) (*lifecycle.Engine, error) {
	dbCon, err := db.StartDBConnection(ctx, cfg.Database, cfg.DatabaseReplicas)
	if err != nil {
		return nil, oops.In("main").Wrapf(err, "Failed to initialise db connection")
	}

	r := sql.NewRepository(dbCon)

	allocator, err := alloc.NewPortAllocator(
		cfg.Ports.TenantRangeStart,
		cfg.Ports.TenantRangeEnd,
		cfg.Ports.PerTenant,
	)
	if err != nil {
		return nil, err
	}

	provisionerOpts := []db.ProvisionerOption{}
	if cfg.Provisioning.MigrateOnProvision {
		provisionerOpts = append(provisionerOpts, db.WithTenantMigrator(db.NewMigrator(r, cfg)))
	}

	provisioner := db.NewProvisioner(cfg.Database, cfg.Provisioning, provisionerOpts...)

	cache := db.NewEngineCache(cfg.Database, nil)

	return lifecycle.NewEngine(r, provisioner, hook.NewDispatcher(), allocator, cfg,
		lifecycle.WithHandleCache(cache)), nil
}

func loadConfig(buildInfo string) (*config.Config, error) {
	cfg, err := config.LoadConfig(
		commoncfg.WithEnvOverride(config.ServiceName),
	)
	if err != nil {
		return nil, err
	}

	err = commoncfg.UpdateConfigVersion(&cfg.BaseConfig, buildInfo)
	if err != nil {
		return nil, oops.In("main").
			Wrapf(err, "Failed to update the version configuration")
	}

	return cfg, nil
}

// Cmd groups the tenant administration subcommands. Each subcommand
// loads config and connects on demand so `tenant --help` works without
// a reachable database.
func Cmd(buildInfo string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tenant",
		Short: "Tenantd administration CLI",
		Long:  "Administers tenants: create, provision, activate, suspend, delete, inspect and list.",
	}

	factory := &CommandFactory{
		engineFor: func(ctx context.Context) (*lifecycle.Engine, error) {
			cfg, err := loadConfig(buildInfo)
			if err != nil {
				return nil, oops.In("main").Wrapf(err, "failed to load config")
			}

			err = logger.InitAsDefault(cfg.Logger, cfg.Application)
			if err != nil {
				return nil, oops.In("main").Wrapf(err, "Failed to initialise the logger")
			}

			return newEngine(ctx, cfg)
		},
	}

	cmd.AddCommand(
		factory.NewCreateTenantCmd(),
		factory.NewProvisionTenantCmd(),
		factory.NewActivateTenantCmd(),
		factory.NewSuspendTenantCmd(),
		factory.NewDeleteTenantCmd(),
		factory.NewGetTenantCmd(),
		factory.NewListTenantsCmd(),
	)

	return cmd
}
