package lifecycle

import (
	"errors"
	"fmt"
)

var (
	ErrTenantNotFound      = errors.New("tenant not found")
	ErrTenantAlreadyExists = errors.New("tenant already exists")
	ErrInvalidTransition   = errors.New("invalid lifecycle transition")
	ErrProvisioningFailed  = errors.New("tenant provisioning failed")
	ErrSubscriptionMissing = errors.New("tenant has no active subscription")
	ErrNoTenantHandles     = errors.New("no tenant handle cache configured")
)

// ProvisioningFailedError reports a failed provisioning attempt. The
// tenant is back in its pending state when this error is returned.
type ProvisioningFailedError struct {
	TenantID string
	Cause    error
}

func (e *ProvisioningFailedError) Error() string {
	return fmt.Sprintf("provisioning tenant %q failed: %v", e.TenantID, e.Cause)
}

func (e *ProvisioningFailedError) Unwrap() error {
	return e.Cause
}

func (e *ProvisioningFailedError) Is(target error) bool {
	return target == ErrProvisioningFailed
}
