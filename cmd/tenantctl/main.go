// Command tenantctl provisions and maintains tenants from the command line.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/suteetoe/tenantstarter/internal/app"
	"github.com/suteetoe/tenantstarter/pkg/config"
	"github.com/suteetoe/tenantstarter/pkg/logger"
)

const serviceName = "tenantctl"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand(ctx).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newRootCommand(ctx context.Context) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "tenantctl",
		Short:         "Manage tenants and their partitions",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.AddCommand(
		newCreateTenantCommand(ctx),
		newDemoCommand(ctx),
		newMigrateCommand(ctx),
		newDecommissionCommand(ctx),
		newIssueTokenCommand(ctx),
	)
	return cmd
}

// withApp loads configuration, wires the components and runs fn with them.
// The public partition is bootstrapped first, so every command may assume it.
func withApp(ctx context.Context, fn func(a *app.App) error) error {
	cfg, err := config.Load(serviceName)
	if err != nil {
		return err
	}
	if err := logger.InitLogger(&logger.LogConfig{
		Level:       cfg.Log.Level,
		Environment: cfg.Server.Env,
		ServiceName: serviceName,
	}); err != nil {
		return err
	}
	defer logger.GetLogger().Sync()

	a, err := app.New(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	if _, err := a.Manager.Bootstrap(ctx, cfg.Tenancy.PublicName, cfg.Tenancy.PublicHosts); err != nil {
		return err
	}
	return fn(a)
}
