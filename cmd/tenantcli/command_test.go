package tenantcli_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openpaas/tenantd/cmd/tenantcli"
)

func TestCmd(t *testing.T) {
	t.Run("Should create tenant command with all subcommands", func(t *testing.T) {
		rootCmd := tenantcli.Cmd("{}")

		require.NotNil(t, rootCmd)
		assert.Equal(t, "tenant", rootCmd.Name())

		names := make(map[string]bool)
		for _, cmd := range rootCmd.Commands() {
			names[cmd.Name()] = true
		}

		for _, want := range []string{"create", "provision", "activate", "suspend", "delete", "get", "list"} {
			assert.True(t, names[want], "missing subcommand %s", want)
		}
	})

	t.Run("create requires a tenant id", func(t *testing.T) {
		rootCmd := tenantcli.Cmd("{}")
		rootCmd.SetArgs([]string{"create"})

		err := rootCmd.Execute()
		assert.ErrorIs(t, err, tenantcli.ErrTenantIDRequired)
	})
}
