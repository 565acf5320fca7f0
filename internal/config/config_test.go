package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/openpaas/tenantd/internal/config"
)

func validConfig() *config.Config {
	return &config.Config{
		Ports: config.Ports{
			TenantRangeStart: 11100,
			TenantRangeEnd:   11999,
			PerTenant:        5,
		},
		Provisioning: config.Provisioning{
			AdminDatabase:    "postgres",
			ConnectTimeout:   10 * time.Second,
			PreserveDataDays: 30,
		},
		Subscription: config.Subscription{
			ValidityDays:      365,
			MaxUsers:          50,
			MaxStorageMB:      1000,
			MaxAPICallsPerDay: 1000,
		},
	}
}

func TestConfigValidate(t *testing.T) {
	tests := map[string]struct {
		mutate  func(*config.Config)
		wantErr error
	}{
		"valid": {
			mutate: func(*config.Config) {},
		},
		"inverted port window": {
			mutate: func(c *config.Config) {
				c.Ports.TenantRangeStart = 12000
				c.Ports.TenantRangeEnd = 11100
			},
			wantErr: config.ErrPortWindowInvalid,
		},
		"zero ports per tenant": {
			mutate: func(c *config.Config) {
				c.Ports.PerTenant = 0
			},
			wantErr: config.ErrPortsPerTenantInvalid,
		},
		"missing admin database": {
			mutate: func(c *config.Config) {
				c.Provisioning.AdminDatabase = ""
			},
			wantErr: config.ErrAdminDatabaseEmpty,
		},
		"negative preserve days": {
			mutate: func(c *config.Config) {
				c.Provisioning.PreserveDataDays = -1
			},
			wantErr: config.ErrPreserveDaysNegative,
		},
		"zero subscription quota": {
			mutate: func(c *config.Config) {
				c.Subscription.MaxUsers = 0
			},
			wantErr: config.ErrSubscriptionLimitInvalid,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}

			assert.NoError(t, err)
		})
	}
}
