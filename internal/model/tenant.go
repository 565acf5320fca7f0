package model

import (
	"errors"
	"regexp"
	"strings"
	"time"
)

const (
	// TenantDatabasePrefix prefixes the dedicated database name of every tenant.
	TenantDatabasePrefix = "tenant_"

	maxTenantIDLength = 50

	// Config keys written by lifecycle operations.
	ConfigKeySuspendReason      = "suspend_reason"
	ConfigKeySuspendedAt        = "suspended_at"
	ConfigKeyDeletedAt          = "deleted_at"
	ConfigKeyDataRetentionUntil = "data_retention_until"
)

var (
	ErrEmptyTenantID   = errors.New("tenant ID cannot be empty")
	ErrTenantIDLength  = errors.New("tenant ID exceeds maximum length")
	ErrInvalidTenantID = errors.New("tenant ID must contain only lowercase letters, digits and underscores")
	ErrEmptyTenantName = errors.New("tenant name cannot be empty")

	// The ID becomes part of the dedicated database name, so it is
	// restricted to characters that never need quoting.
	tenantIDPattern = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)
)

// Tenant is the registry record of one isolated customer organization.
type Tenant struct {
	AutoTimeModel

	ID        string       `gorm:"type:varchar(50);primaryKey"`
	Name      string       `gorm:"type:varchar(200);not null"`
	Subdomain string       `gorm:"type:varchar(50);unique"`
	Status    TenantStatus `gorm:"type:varchar(50);not null;index"`

	AdminEmail string `gorm:"type:varchar(200)"`
	AdminName  string `gorm:"type:varchar(100)"`

	ServiceType string  `gorm:"type:varchar(50);not null;default:'generic';index"`
	Config      JSONMap `gorm:"type:jsonb"`

	PortRangeStart int
	PortRangeEnd   int

	ProvisionedAt *time.Time
}

func (Tenant) TableName() string {
	return "tenants"
}

// DatabaseName returns the name of the tenant's dedicated database.
func (t *Tenant) DatabaseName() string {
	return TenantDatabasePrefix + t.ID
}

func (t *Tenant) IsActive() bool {
	return t.Status == TenantStatusActive
}

// Validate checks the identity fields set at creation time.
func (t *Tenant) Validate() error {
	err := ValidateTenantID(t.ID)
	if err != nil {
		return err
	}

	if t.Name == "" {
		return ErrEmptyTenantName
	}

	return t.Status.Validate()
}

// ValidateTenantID checks that an ID is usable as a database name suffix.
func ValidateTenantID(id string) error {
	if id == "" {
		return ErrEmptyTenantID
	}

	if len(id) > maxTenantIDLength {
		return ErrTenantIDLength
	}

	if !tenantIDPattern.MatchString(id) {
		return ErrInvalidTenantID
	}

	return nil
}

// SubdomainFromID derives the default subdomain for a tenant ID.
func SubdomainFromID(id string) string {
	return strings.ReplaceAll(id, "_", "-")
}
