package tenantcli

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/openpaas/tenantd/internal/lifecycle"
	"github.com/openpaas/tenantd/internal/model"
)

var ErrTenantIDRequired = errors.New("tenant id is required")

// CommandFactory builds the tenant subcommands around a lazily
// constructed lifecycle engine.
type CommandFactory struct {
	engineFor func(ctx context.Context) (*lifecycle.Engine, error)
}

func (f *CommandFactory) NewCreateTenantCmd() *cobra.Command {
	var (
		id, name, adminEmail, adminName, serviceType, plan string
		autoProvision                                      bool
		enableFeatures, disableFeatures                    []string
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a new tenant. Usage: tenant create -i [tenant id] -n [name] -p [plan]",
		Args:  cobra.ExactArgs(0),
		RunE: func(cmd *cobra.Command, _ []string) error {
			if id == "" {
				cmd.Println("Tenant id is required")
				return ErrTenantIDRequired
			}

			if name == "" {
				name = id
			}

			engine, err := f.engineFor(cmd.Context())
			if err != nil {
				return err
			}

			features := model.FeatureSet{}
			for _, feature := range enableFeatures {
				features[feature] = true
			}
			for _, feature := range disableFeatures {
				features[feature] = false
			}

			tenant, err := engine.Create(cmd.Context(), lifecycle.CreateParams{
				ID:            id,
				Name:          name,
				AdminEmail:    adminEmail,
				AdminName:     adminName,
				ServiceType:   serviceType,
				Plan:          model.SubscriptionPlan(plan),
				Features:      features,
				AutoProvision: autoProvision,
			})
			if err != nil {
				if errors.Is(err, lifecycle.ErrTenantAlreadyExists) {
					cmd.Printf("Tenant with ID %s already exists\n", id)
				}

				return err
			}

			cmd.Printf("Tenant created: %s (status %s, ports %d-%d)\n",
				tenant.ID, tenant.Status, tenant.PortRangeStart, tenant.PortRangeEnd)

			return nil
		},
	}

	cmd.Flags().StringVarP(&id, "id", "i", "", "Tenant id")
	cmd.Flags().StringVarP(&name, "name", "n", "", "Tenant display name")
	cmd.Flags().StringVarP(&adminEmail, "admin-email", "e", "", "Admin email")
	cmd.Flags().StringVar(&adminName, "admin-name", "", "Admin name")
	cmd.Flags().StringVarP(&serviceType, "service-type", "t", "", "Service type")
	cmd.Flags().StringVarP(&plan, "plan", "p", "", "Subscription plan")
	cmd.Flags().BoolVar(&autoProvision, "provision", false, "Provision the tenant database right away")
	cmd.Flags().StringSliceVar(&enableFeatures, "enable-feature", nil, "Feature to enable on top of the plan defaults")
	cmd.Flags().StringSliceVar(&disableFeatures, "disable-feature", nil, "Feature to disable from the plan defaults")

	return cmd
}

func (f *CommandFactory) NewProvisionTenantCmd() *cobra.Command {
	var id string

	cmd := &cobra.Command{
		Use:   "provision",
		Short: "Provision a tenant's database. Usage: tenant provision -i [tenant id]",
		Args:  cobra.ExactArgs(0),
		RunE: func(cmd *cobra.Command, _ []string) error {
			if id == "" {
				cmd.Println("Tenant id is required")
				return ErrTenantIDRequired
			}

			engine, err := f.engineFor(cmd.Context())
			if err != nil {
				return err
			}

			tenant, err := engine.Provision(cmd.Context(), id)
			if err != nil {
				if errors.Is(err, lifecycle.ErrProvisioningFailed) {
					cmd.Printf("Provisioning failed, tenant %s is back in pending\n", id)
				}

				return err
			}

			cmd.Printf("Tenant provisioned: %s (database %s)\n", tenant.ID, tenant.DatabaseName())

			return nil
		},
	}

	cmd.Flags().StringVarP(&id, "id", "i", "", "Tenant id")

	return cmd
}

func (f *CommandFactory) NewActivateTenantCmd() *cobra.Command {
	var id string

	cmd := &cobra.Command{
		Use:   "activate",
		Short: "Activate a suspended tenant. Usage: tenant activate -i [tenant id]",
		Args:  cobra.ExactArgs(0),
		RunE: func(cmd *cobra.Command, _ []string) error {
			if id == "" {
				cmd.Println("Tenant id is required")
				return ErrTenantIDRequired
			}

			engine, err := f.engineFor(cmd.Context())
			if err != nil {
				return err
			}

			tenant, err := engine.Activate(cmd.Context(), id)
			if err != nil {
				return err
			}

			cmd.Printf("Tenant %s is %s\n", tenant.ID, tenant.Status)

			return nil
		},
	}

	cmd.Flags().StringVarP(&id, "id", "i", "", "Tenant id")

	return cmd
}

func (f *CommandFactory) NewSuspendTenantCmd() *cobra.Command {
	var id, reason string

	cmd := &cobra.Command{
		Use:   "suspend",
		Short: "Suspend a tenant. Usage: tenant suspend -i [tenant id] -r [reason]",
		Args:  cobra.ExactArgs(0),
		RunE: func(cmd *cobra.Command, _ []string) error {
			if id == "" {
				cmd.Println("Tenant id is required")
				return ErrTenantIDRequired
			}

			engine, err := f.engineFor(cmd.Context())
			if err != nil {
				return err
			}

			tenant, err := engine.Suspend(cmd.Context(), id, reason)
			if err != nil {
				return err
			}

			cmd.Printf("Tenant %s is %s\n", tenant.ID, tenant.Status)

			return nil
		},
	}

	cmd.Flags().StringVarP(&id, "id", "i", "", "Tenant id")
	cmd.Flags().StringVarP(&reason, "reason", "r", "", "Suspension reason")

	return cmd
}

func (f *CommandFactory) NewDeleteTenantCmd() *cobra.Command {
	var (
		id           string
		hard         bool
		preserveDays int
	)

	cmd := &cobra.Command{
		Use:   "delete",
		Short: "Delete a tenant. Usage: tenant delete -i [tenant id] [--hard]",
		Args:  cobra.ExactArgs(0),
		RunE: func(cmd *cobra.Command, _ []string) error {
			if id == "" {
				cmd.Println("Tenant id is required")
				return ErrTenantIDRequired
			}

			engine, err := f.engineFor(cmd.Context())
			if err != nil {
				return err
			}

			err = engine.Delete(cmd.Context(), id, lifecycle.DeleteParams{
				Hard:             hard,
				PreserveDataDays: preserveDays,
			})
			if err != nil {
				return err
			}

			if hard {
				cmd.Printf("Tenant %s removed together with its database\n", id)
			} else {
				cmd.Printf("Tenant %s marked deleted\n", id)
			}

			return nil
		},
	}

	cmd.Flags().StringVarP(&id, "id", "i", "", "Tenant id")
	cmd.Flags().BoolVar(&hard, "hard", false, "Remove the tenant and drop its database")
	cmd.Flags().IntVar(&preserveDays, "preserve-days", 0, "Retention window for a soft delete")

	return cmd
}

func (f *CommandFactory) NewGetTenantCmd() *cobra.Command {
	var id string

	cmd := &cobra.Command{
		Use:   "get",
		Short: "Show a tenant. Usage: tenant get -i [tenant id]",
		Args:  cobra.ExactArgs(0),
		RunE: func(cmd *cobra.Command, _ []string) error {
			if id == "" {
				cmd.Println("Tenant id is required")
				return ErrTenantIDRequired
			}

			engine, err := f.engineFor(cmd.Context())
			if err != nil {
				return err
			}

			info, err := engine.Lookup(cmd.Context(), id)
			if err != nil {
				if errors.Is(err, lifecycle.ErrTenantNotFound) {
					cmd.Printf("Tenant %s not found\n", id)
				}

				return err
			}

			cmd.Printf("Tenant:    %s (%s)\n", info.TenantID, info.Name)
			cmd.Printf("Status:    %s\n", info.Status)
			cmd.Printf("Subdomain: %s\n", info.Subdomain)
			cmd.Printf("Database:  %s\n", info.DatabaseName)
			cmd.Printf("Plan:      %s\n", info.Plan)
			cmd.Printf("Ports:     %d-%d\n", info.PortRangeStart, info.PortRangeEnd)

			return nil
		},
	}

	cmd.Flags().StringVarP(&id, "id", "i", "", "Tenant id")

	return cmd
}

func (f *CommandFactory) NewListTenantsCmd() *cobra.Command {
	var (
		status, serviceType string
		limit, offset       int
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tenants. Usage: tenant list [-s status] [-t service type]",
		Args:  cobra.ExactArgs(0),
		RunE: func(cmd *cobra.Command, _ []string) error {
			engine, err := f.engineFor(cmd.Context())
			if err != nil {
				return err
			}

			tenants, count, err := engine.List(cmd.Context(), lifecycle.ListParams{
				Status:      model.TenantStatus(status),
				ServiceType: serviceType,
				Limit:       limit,
				Offset:      offset,
			})
			if err != nil {
				return err
			}

			for _, tenant := range tenants {
				cmd.Printf("%s\t%s\t%s\n", tenant.ID, tenant.Status, tenant.Subdomain)
			}

			cmd.Printf("%d of %d tenants\n", len(tenants), count)

			return nil
		},
	}

	cmd.Flags().StringVarP(&status, "status", "s", "", "Filter by lifecycle status")
	cmd.Flags().StringVarP(&serviceType, "service-type", "t", "", "Filter by service type")
	cmd.Flags().IntVar(&limit, "limit", 0, "Page size")
	cmd.Flags().IntVar(&offset, "offset", 0, "Page offset")

	return cmd
}
