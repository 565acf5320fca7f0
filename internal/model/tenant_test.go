package model_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/openpaas/tenantd/internal/model"
)

func TestTenantStatusValidation(t *testing.T) {
	tests := map[string]struct {
		status    model.TenantStatus
		expectErr bool
	}{
		"Valid status": {
			status: model.TenantStatusActive,
		},
		"Empty status": {
			status:    "",
			expectErr: true,
		},
		"Invalid status": {
			status:    "invalid_status",
			expectErr: true,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			err := test.status.Validate()
			if test.expectErr {
				assert.Equal(t, model.ErrInvalidTenantStatus, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateTenantID(t *testing.T) {
	tests := map[string]struct {
		id          string
		expectedErr error
	}{
		"valid id":            {id: "acme"},
		"valid with digits":   {id: "acme_corp_2"},
		"empty":               {id: "", expectedErr: model.ErrEmptyTenantID},
		"too long":            {id: strings.Repeat("a", 51), expectedErr: model.ErrTenantIDLength},
		"uppercase":           {id: "Acme", expectedErr: model.ErrInvalidTenantID},
		"leading digit":       {id: "1acme", expectedErr: model.ErrInvalidTenantID},
		"dash":                {id: "acme-corp", expectedErr: model.ErrInvalidTenantID},
		"sql metacharacters":  {id: `acme";drop`, expectedErr: model.ErrInvalidTenantID},
		"whitespace embedded": {id: "acme corp", expectedErr: model.ErrInvalidTenantID},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			err := model.ValidateTenantID(test.id)
			if test.expectedErr != nil {
				assert.ErrorIs(t, err, test.expectedErr)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestTenantDatabaseName(t *testing.T) {
	tenant := &model.Tenant{ID: "acme"}
	assert.Equal(t, "tenant_acme", tenant.DatabaseName())
}

func TestSubdomainFromID(t *testing.T) {
	assert.Equal(t, "hallym-univ", model.SubdomainFromID("hallym_univ"))
	assert.Equal(t, "acme", model.SubdomainFromID("acme"))
}

func TestTenantValidate(t *testing.T) {
	tenant := &model.Tenant{
		ID:     "acme",
		Name:   "Acme Corp",
		Status: model.TenantStatusPending,
	}
	assert.NoError(t, tenant.Validate())

	tenant.Name = ""
	assert.ErrorIs(t, tenant.Validate(), model.ErrEmptyTenantName)
}
