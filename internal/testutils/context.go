package testutils

import (
	"context"

	"github.com/openpaas/tenantd/internal/tenantctx"
)

// NewTenantContext returns a context carrying a tenant ID and a request ID.
func NewTenantContext(ctx context.Context, tenantID string) context.Context {
	ctx = tenantctx.New(ctx, tenantctx.WithTenant(tenantID))

	return tenantctx.InjectRequestID(ctx)
}
