package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/suteetoe/tenantstarter/internal/app"
)

func newDecommissionCommand(ctx context.Context) *cobra.Command {
	var (
		schemaName string
		force      bool
		purge      bool
	)
	cmd := &cobra.Command{
		Use:   "decommission",
		Short: "Unroute a tenant and drop its partition",
		Long: `Removes the tenant's domains, drops its partition and storage bucket and
soft-deletes its registry row. The partition key stays reserved unless
--purge is given. An active tenant is only decommissioned with --force.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(ctx, func(a *app.App) error {
				t, err := a.Catalog.TenantBySchema(ctx, schemaName)
				if err != nil {
					return fmt.Errorf("%s: %w", schemaName, err)
				}
				if err := a.Manager.Decommission(ctx, t, force); err != nil {
					return err
				}
				if purge {
					if err := a.Manager.Purge(ctx, t); err != nil {
						return err
					}
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Tenant %s decommissioned.\n", schemaName)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&schemaName, "schema", "", "partition key of the tenant")
	cmd.Flags().BoolVar(&force, "force", false, "decommission even if the tenant is active")
	cmd.Flags().BoolVar(&purge, "purge", false, "also delete the registry row, freeing the key")
	_ = cmd.MarkFlagRequired("schema")
	return cmd
}
