package dsn_test

import (
	"testing"

	"github.com/openkcm/common-sdk/pkg/commoncfg"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openpaas/tenantd/internal/config"
	"github.com/openpaas/tenantd/internal/db/dsn"
)

func testDatabaseConfig() config.Database {
	return config.Database{
		Name: "tenant_registry",
		Port: "5432",
		Host: commoncfg.SourceRef{Value: "localhost", Source: commoncfg.EmbeddedSourceValue},
		User: commoncfg.SourceRef{Value: "postgres", Source: commoncfg.EmbeddedSourceValue},
		Secret: commoncfg.SourceRef{
			Value:  "secret",
			Source: commoncfg.EmbeddedSourceValue,
		},
	}
}

func TestFromDBConfig(t *testing.T) {
	got, err := dsn.FromDBConfig(testDatabaseConfig())
	require.NoError(t, err)

	assert.Equal(t, "host=localhost user=postgres password=secret dbname=tenant_registry port=5432", got)
}

func TestForDatabase(t *testing.T) {
	conf := testDatabaseConfig()

	t.Run("tenant store", func(t *testing.T) {
		got, err := dsn.ForDatabase(conf, "tenant_acme")
		require.NoError(t, err)

		assert.Contains(t, got, "dbname=tenant_acme")
		assert.Contains(t, got, "host=localhost")
	})

	t.Run("admin database", func(t *testing.T) {
		got, err := dsn.ForDatabase(conf, "postgres")
		require.NoError(t, err)

		assert.Contains(t, got, "dbname=postgres")
	})
}
