package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/suteetoe/tenantstarter/internal/app"
	"github.com/suteetoe/tenantstarter/internal/demo"
)

func newDemoCommand(ctx context.Context) *cobra.Command {
	var flush bool
	cmd := &cobra.Command{
		Use:   "create-demo-data",
		Short: "Create demo tenants, users, locations and teams",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(ctx, func(a *app.App) error {
				seeder := demo.NewSeeder(a.Manager, a.Catalog, a.Scoper, a.Repo)
				summary, err := seeder.Run(ctx, flush)
				out := cmd.OutOrStdout()
				for _, ts := range summary {
					status := "exists"
					if ts.Created {
						status = "created"
					}
					fmt.Fprintf(out, "%-18s %-16s http://%s:%s/  [%s]\n", ts.Name, ts.Schema, ts.Domain, a.Config.Server.Port, status)
					fmt.Fprintf(out, "  users: %s\n", strings.Join(ts.Users, ", "))
				}
				fmt.Fprintf(out, "\nAll demo passwords: %s\n", demo.Password)
				fmt.Fprintln(out, "Public admin: tenantctl issue-token --schema public --user admin")
				return err
			})
		},
	}
	cmd.Flags().BoolVar(&flush, "flush", false, "delete the demo tenants before recreating them")
	return cmd
}
