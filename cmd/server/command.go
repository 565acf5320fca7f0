package server

import (
	"context"
	"log/slog"
	"syscall"
	"time"

	"github.com/openkcm/common-sdk/pkg/commoncfg"
	"github.com/openkcm/common-sdk/pkg/health"
	"github.com/openkcm/common-sdk/pkg/logger"
	"github.com/openkcm/common-sdk/pkg/otlp"
	"github.com/openkcm/common-sdk/pkg/status"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/samber/oops"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/openpaas/tenantd/internal/alloc"
	"github.com/openpaas/tenantd/internal/config"
	"github.com/openpaas/tenantd/internal/db"
	"github.com/openpaas/tenantd/internal/db/dsn"
	"github.com/openpaas/tenantd/internal/hook"
	"github.com/openpaas/tenantd/internal/lifecycle"
	"github.com/openpaas/tenantd/internal/log"
	"github.com/openpaas/tenantd/internal/model"
	"github.com/openpaas/tenantd/internal/repo"
	"github.com/openpaas/tenantd/internal/repo/sql"
)

const (
	healthStatusTimeoutS = 5 * time.Second
	postgresDriverName   = "pgx"
	labelStatus          = "status"

	tenantCountPollInterval = 30 * time.Second
)

var tenantCountGauge = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Name: "tenantd_tenants",
		Help: "The number of tenants per lifecycle status",
	},
	[]string{
		labelStatus,
	},
)

// run starts the status server and keeps the lifecycle engine's
// supporting loops alive until the context is cancelled.
func run(ctx context.Context, cfg *config.Config) error {
	err := logger.InitAsDefault(cfg.Logger, cfg.Application)
	if err != nil {
		return oops.In("main").
			Wrapf(err, "Failed to initialise the logger")
	}

	log.Debug(ctx, "Starting the application", slog.Any("config", cfg))

	err = otlp.Init(ctx, &cfg.Application, &cfg.Telemetry, &cfg.Logger)
	if err != nil {
		return oops.In("main").
			Wrapf(err, "Failed to load the telemetry")
	}

	startStatusServer(ctx, cfg)

	cache := db.NewEngineCache(cfg.Database, registryAwareOpen(cfg))
	defer cache.Close()

	dbCon, err := cache.Central(ctx)
	if err != nil {
		return oops.In("main").Wrapf(err, "Failed to initialise db connection")
	}

	r := sql.NewRepository(dbCon)

	engine, err := buildEngine(r, cache, cfg)
	if err != nil {
		return oops.In("main").Wrapf(err, "Failed to build lifecycle engine")
	}

	// Warm the registry handle so a broken DSN surfaces at startup
	// instead of on the first tenant operation.
	_, _, err = engine.List(ctx, lifecycle.ListParams{Limit: 1})
	if err != nil {
		return oops.In("main").Wrapf(err, "Failed to reach the tenant registry")
	}

	<-ctx.Done()

	return nil
}

// registryAwareOpen opens the shared registry connection with its read
// replicas and plain single-node connections for tenant databases.
func registryAwareOpen(cfg *config.Config) db.OpenFunc {
	return func(ctx context.Context, conf config.Database, dbName string) (*gorm.DB, error) {
		if dbName == conf.Name {
			return db.StartDBConnection(ctx, conf, cfg.DatabaseReplicas)
		}

		return db.StartTenantDBConnection(ctx, conf, dbName)
	}
}

// buildEngine wires the lifecycle engine the way every entry point
// uses it: sql repo, database provisioner, port allocator, handle
// cache and an audit listener on the hook dispatcher.
func buildEngine(r repo.Repo, cache *db.EngineCache, cfg *config.Config) (*lifecycle.Engine, error) {
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

	hooks := hook.NewDispatcher()

	err = registerAuditListener(hooks)
	if err != nil {
		return nil, err
	}

	return lifecycle.NewEngine(r, provisioner, hooks, allocator, cfg,
		lifecycle.WithHandleCache(cache)), nil
}

// registerAuditListener logs every lifecycle event. It is the baseline
// listener every deployment gets; applications register their own next
// to it.
func registerAuditListener(hooks *hook.Dispatcher) error {
	kinds := []hook.Kind{
		hook.AfterCreate,
		hook.AfterProvision,
		hook.AfterActivate,
		hook.AfterSuspend,
		hook.AfterDelete,
	}

	for _, kind := range kinds {
		err := hooks.Register(kind, hook.ListenerFunc{
			ID: "audit-log",
			Fn: func(ctx context.Context, event hook.Event) error {
				log.Info(ctx, "tenant lifecycle event",
					slog.String("event", string(event.Kind)),
					slog.String("tenantId", event.TenantID),
				)
				return nil
			},
		})
		if err != nil {
			return err
		}
	}

	return nil
}

func monitorTenantCounts(ctx context.Context, cfg config.Config) {
	log.Debug(ctx, "Starting tenant count monitoring")

	dbCon, err := db.StartDBConnection(ctx, cfg.Database, cfg.DatabaseReplicas)
	if err != nil {
		log.Error(ctx, "failed to initialize DB Connection", err)
		return
	}

	r := sql.NewRepository(dbCon)

	ticker := time.NewTicker(tenantCountPollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info(ctx, "stopping tenant count monitoring")
			return
		case <-ticker.C:
			for _, tenantStatus := range model.TenantStatuses() {
				count, err := r.Count(ctx, model.Tenant{},
					*repo.NewQuery().Where(repo.StatusField, tenantStatus))
				if err != nil {
					log.Error(ctx, "failed to count tenants", err)
					continue
				}

				tenantCountGauge.WithLabelValues(string(tenantStatus)).Set(float64(count))
			}
		}
	}
}

func startStatusServer(ctx context.Context, cfg *config.Config) {
	liveness := status.WithLiveness(
		health.NewHandler(
			health.NewChecker(health.WithDisabledAutostart()),
		),
	)

	healthOptions := make([]health.Option, 0)
	healthOptions = append(healthOptions,
		health.WithDisabledAutostart(),
		health.WithTimeout(healthStatusTimeoutS),
		health.WithStatusListener(func(ctx context.Context, state health.State) {
			log.Info(ctx, "readiness status changed", slog.String("status", string(state.Status)))
		}),
	)

	dsnFromConfig, err := dsn.FromDBConfig(cfg.Database)
	if err != nil {
		log.Error(ctx, "Could not load DSN from database config", err)
	}

	healthOptions = append(healthOptions,
		health.WithDatabaseChecker(
			postgresDriverName,
			dsnFromConfig,
		),
	)

	readiness := status.WithReadiness(
		health.NewHandler(
			health.NewChecker(healthOptions...),
		),
	)

	if cfg.Telemetry.Metrics.Prometheus.Enabled {
		go monitorTenantCounts(ctx, *cfg)
	}

	go func() {
		err := status.Start(ctx, &cfg.BaseConfig, liveness, readiness)
		if err != nil {
			log.Error(ctx, "Failure on the status server", err)

			_ = syscall.Kill(syscall.Getpid(), syscall.SIGTERM)
		}
	}()
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

func Cmd(buildInfo string) *cobra.Command {
	var cmd = &cobra.Command{
		Use:   "serve",
		Short: "Tenantd Server",
		Long:  "Runs the tenant lifecycle engine with its status endpoints and metrics loops.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(buildInfo)
			if err != nil {
				return oops.In("main").Wrapf(err, "failed to load config")
			}

			err = run(cmd.Context(), cfg)
			if err != nil {
				return oops.In("main").Wrapf(err, "failed to run the server")
			}

			return err
		},
	}

	return cmd
}
