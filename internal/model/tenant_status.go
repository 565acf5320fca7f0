package model

import "errors"

var ErrInvalidTenantStatus = errors.New("tenant status is not valid")

// TenantStatus represents the lifecycle status of a tenant.
type TenantStatus string

const (
	// TenantStatusPending means the tenant exists but has no dedicated database yet.
	TenantStatusPending TenantStatus = "pending"
	// TenantStatusProvisioning means dedicated database creation is in flight.
	TenantStatusProvisioning TenantStatus = "provisioning"
	TenantStatusActive       TenantStatus = "active"
	TenantStatusSuspended    TenantStatus = "suspended"
	TenantStatusDeleted      TenantStatus = "deleted"
)

var validTenantStatuses = map[TenantStatus]struct{}{
	TenantStatusPending:      {},
	TenantStatusProvisioning: {},
	TenantStatusActive:       {},
	TenantStatusSuspended:    {},
	TenantStatusDeleted:      {},
}

func (s TenantStatus) String() string {
	return string(s)
}

// Validate returns an error if the status is not a known lifecycle status.
func (s TenantStatus) Validate() error {
	if _, ok := validTenantStatuses[s]; !ok {
		return ErrInvalidTenantStatus
	}

	return nil
}

// TenantStatuses lists every known lifecycle status.
func TenantStatuses() []TenantStatus {
	return []TenantStatus{
		TenantStatusPending,
		TenantStatusProvisioning,
		TenantStatusActive,
		TenantStatusSuspended,
		TenantStatusDeleted,
	}
}
