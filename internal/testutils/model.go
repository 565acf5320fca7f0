package testutils

import (
	"time"

	"github.com/google/uuid"

	"github.com/openpaas/tenantd/internal/model"
)

const (
	TestTenantID   = "acme"
	TestTenantName = "Acme Corp"
	TestAdminEmail = "admin@acme.test"
)

var testStart = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

// NewTenant builds a pending tenant fixture; m tweaks the copy.
func NewTenant(m func(*model.Tenant)) *model.Tenant {
	mut := NewMutator(func() model.Tenant {
		return model.Tenant{
			ID:          TestTenantID,
			Name:        TestTenantName,
			Subdomain:   model.SubdomainFromID(TestTenantID),
			Status:      model.TenantStatusPending,
			AdminEmail:  TestAdminEmail,
			ServiceType: "generic",
			Config:      model.JSONMap{},

			PortRangeStart: 11100,
			PortRangeEnd:   11104,
		}
	})

	tenant := mut(m)

	return &tenant
}

// NewSubscription builds an active subscription fixture; m tweaks the copy.
func NewSubscription(m func(*model.Subscription)) *model.Subscription {
	mut := NewMutator(func() model.Subscription {
		return model.Subscription{
			ID:                uuid.New(),
			TenantID:          TestTenantID,
			Plan:              model.PlanBasic,
			IsActive:          true,
			StartDate:         testStart,
			EndDate:           testStart.AddDate(1, 0, 0),
			MaxUsers:          50,
			MaxStorageMB:      1000,
			MaxAPICallsPerDay: 1000,
			Features:          model.DefaultFeatures(model.PlanBasic),
		}
	})

	sub := mut(m)

	return &sub
}
