package config

import (
	"errors"
	"time"

	"github.com/openkcm/common-sdk/pkg/commoncfg"

	"github.com/openpaas/tenantd/internal/errs"
)

const (
	ServiceName = "tenantd"

	DefaultConfigPath1 = "/etc/tenantd"
	DefaultConfigPath2 = "$HOME/.tenantd"
)

var (
	ErrConfigurationValuesError = errors.New("configuration value error")
	ErrPortWindowInvalid        = errors.New("tenant port window must be a non-empty ascending range")
	ErrPortsPerTenantInvalid    = errors.New("ports per tenant must be positive")
	ErrPreserveDaysNegative     = errors.New("preserve data days must not be negative")
	ErrAdminDatabaseEmpty       = errors.New("admin database must be specified")
	ErrSubscriptionLimitInvalid = errors.New("subscription limits must be positive")
)

// Config holds all application configuration parameters
type Config struct {
	commoncfg.BaseConfig `mapstructure:",squash"`

	Database         Database   `yaml:"database"`
	DatabaseReplicas []Database `yaml:"databaseReplicas"`

	Ports        Ports        `yaml:"ports"`
	Provisioning Provisioning `yaml:"provisioning"`
	Subscription Subscription `yaml:"subscription"`
}

func (c *Config) Validate() error {
	err := c.Ports.Validate()
	if err != nil {
		return errs.Wrap(ErrConfigurationValuesError, err)
	}

	err = c.Provisioning.Validate()
	if err != nil {
		return errs.Wrap(ErrConfigurationValuesError, err)
	}

	err = c.Subscription.Validate()
	if err != nil {
		return errs.Wrap(ErrConfigurationValuesError, err)
	}

	return nil
}

// Database holds database config
type Database struct {
	Name   string              `yaml:"name"`
	Port   string              `yaml:"port"`
	Host   commoncfg.SourceRef `yaml:"host"`
	User   commoncfg.SourceRef `yaml:"user"`
	Secret commoncfg.SourceRef `yaml:"secret"`
}

// Ports holds the global tenant port window
type Ports struct {
	TenantRangeStart int `yaml:"tenantRangeStart"`
	TenantRangeEnd   int `yaml:"tenantRangeEnd"`
	PerTenant        int `yaml:"perTenant"`
}

func (p *Ports) Validate() error {
	if p.TenantRangeStart <= 0 || p.TenantRangeEnd < p.TenantRangeStart {
		return ErrPortWindowInvalid
	}

	if p.PerTenant <= 0 {
		return ErrPortsPerTenantInvalid
	}

	return nil
}

// Provisioning holds tenant database provisioning config
type Provisioning struct {
	AdminDatabase      string        `yaml:"adminDatabase"`
	ConnectTimeout     time.Duration `yaml:"connectTimeout"`
	ConnectRetries     uint          `yaml:"connectRetries"`
	MigrateOnProvision bool          `yaml:"migrateOnProvision"`
	PreserveDataDays   int           `yaml:"preserveDataDays"`
	RegistryMigrations string        `yaml:"registryMigrations"`
	TenantMigrations   string        `yaml:"tenantMigrations"`
}

func (p *Provisioning) Validate() error {
	if p.AdminDatabase == "" {
		return ErrAdminDatabaseEmpty
	}

	if p.PreserveDataDays < 0 {
		return ErrPreserveDaysNegative
	}

	return nil
}

// Subscription holds default quota limits for new subscriptions
type Subscription struct {
	ValidityDays      int `yaml:"validityDays"`
	MaxUsers          int `yaml:"maxUsers"`
	MaxStorageMB      int `yaml:"maxStorageMB"`
	MaxAPICallsPerDay int `yaml:"maxAPICallsPerDay"`
}

func (s *Subscription) Validate() error {
	if s.ValidityDays <= 0 || s.MaxUsers <= 0 || s.MaxStorageMB <= 0 || s.MaxAPICallsPerDay <= 0 {
		return ErrSubscriptionLimitInvalid
	}

	return nil
}
