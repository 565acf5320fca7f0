package tenantctx_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openpaas/tenantd/internal/tenantctx"
)

func TestExtractTenantID(t *testing.T) {
	t.Run("present", func(t *testing.T) {
		ctx := tenantctx.New(t.Context(), tenantctx.WithTenant("acme"))

		id, err := tenantctx.ExtractTenantID(ctx)
		require.NoError(t, err)
		assert.Equal(t, "acme", id)
	})

	t.Run("missing", func(t *testing.T) {
		_, err := tenantctx.ExtractTenantID(t.Context())
		assert.ErrorIs(t, err, tenantctx.ErrExtractTenantID)
	})
}

func TestRequestID(t *testing.T) {
	ctx := tenantctx.InjectRequestID(t.Context())

	id, err := tenantctx.GetRequestID(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	_, err = tenantctx.GetRequestID(t.Context())
	assert.ErrorIs(t, err, tenantctx.ErrGetRequestID)
}
