package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/suteetoe/tenantstarter/internal/app"
)

func newMigrateCommand(ctx context.Context) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending migrations to the public partition and every tenant partition",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(ctx, func(a *app.App) error {
				if err := a.Manager.MigrateAll(ctx); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "All partitions are up to date.")
				return nil
			})
		},
	}
}
