package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/openkcm/common-sdk/pkg/utils"
	"github.com/spf13/cobra"
	slogctx "github.com/veqryn/slog-context"

	"github.com/openpaas/tenantd/cmd/migrator"
	"github.com/openpaas/tenantd/cmd/server"
	"github.com/openpaas/tenantd/cmd/tenantcli"
)

var (
	// BuildInfo will be set by the build system
	BuildInfo = "{}"

	isVersionCmd            bool
	gracefulShutdownSec     int64
	gracefulShutdownMessage string
)

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tenantd",
		Short: "Tenantd - Multi-tenant lifecycle and provisioning engine",
		Long:  `Tenantd manages tenant records, their subscriptions and their dedicated PostgreSQL databases through a provisioning lifecycle.`,
	}

	cmd.PersistentFlags().Int64Var(&gracefulShutdownSec, "graceful-shutdown", 1, "graceful shutdown seconds")
	cmd.PersistentFlags().StringVar(&gracefulShutdownMessage, "graceful-shutdown-message", "Graceful shutdown in %d seconds",
		"graceful shutdown message")

	cmd.AddCommand(
		&cobra.Command{
			Use:   "version",
			Short: "Tenantd Version",
			RunE: func(cmd *cobra.Command, args []string) error {
				isVersionCmd = true
				value, err := utils.ExtractFromComplexValue(BuildInfo)
				if err != nil {
					return err
				}
				fmt.Println(value)
				return nil
			},
		},
		server.Cmd(BuildInfo),
		migrator.Cmd(BuildInfo),
		tenantcli.Cmd(BuildInfo),
	)

	return cmd
}

func main() {
	ctx, cancelOnSignal := signal.NotifyContext(
		context.Background(),
		os.Interrupt, syscall.SIGTERM,
	)
	defer cancelOnSignal()

	err := rootCmd().ExecuteContext(ctx)
	if err != nil {
		slogctx.Error(ctx, "Failed to start the application", "error", err)
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	// graceful shutdown so running goroutines may finish
	if !isVersionCmd {
		_, _ = fmt.Fprintln(os.Stderr, fmt.Sprintf(gracefulShutdownMessage, gracefulShutdownSec))
		time.Sleep(time.Duration(gracefulShutdownSec) * time.Second)
	}
}
