package server

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTenantCountGaugeIsRegistered(t *testing.T) {
	tenantCountGauge.WithLabelValues("active").Set(3)

	families, err := prometheus.DefaultGatherer.Gather()
	require.NoError(t, err)

	names := make([]string, 0, len(families))
	for _, family := range families {
		names = append(names, family.GetName())
	}

	assert.Contains(t, names, "tenantd_tenants")
}
