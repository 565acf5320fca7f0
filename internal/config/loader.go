package config

import (
	"github.com/openkcm/common-sdk/pkg/commoncfg"
	"github.com/samber/oops"
)

//nolint:mnd
var defaultConfig = map[string]any{
	"Ports": map[string]int{
		"TenantRangeStart": 11100,
		"TenantRangeEnd":   11999,
		"PerTenant":        5,
	},
	"Provisioning": map[string]any{
		"AdminDatabase":      "postgres",
		"ConnectTimeout":     "10s",
		"ConnectRetries":     3,
		"PreserveDataDays":   30,
		"RegistryMigrations": "migrations/registry",
		"TenantMigrations":   "migrations/tenant",
	},
	"Subscription": map[string]int{
		"ValidityDays":      365,
		"MaxUsers":          50,
		"MaxStorageMB":      1000,
		"MaxAPICallsPerDay": 1000,
	},
}

func LoadConfig(opts ...commoncfg.Option) (*Config, error) {
	cfg := &Config{}

	// If LoadConfig is called with one of the default ones but different values
	// these are overridden as only the last one takes effect
	options := make([]commoncfg.Option, 0, 2+len(opts))
	options = append(options,
		commoncfg.WithDefaults(defaultConfig),
		commoncfg.WithPaths(
			DefaultConfigPath1,
			DefaultConfigPath2,
			".",
		),
	)

	options = append(options, opts...)

	loader := commoncfg.NewLoader(
		cfg,
		options...,
	)

	err := loader.LoadConfig()
	if err != nil {
		return nil, oops.Wrapf(err, "failed to load config")
	}

	err = cfg.Validate()
	if err != nil {
		return nil, oops.Wrapf(err, "failed to validate config")
	}

	return cfg, nil
}
