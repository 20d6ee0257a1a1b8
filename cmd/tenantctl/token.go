package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/suteetoe/tenantstarter/internal/app"
)

func newIssueTokenCommand(ctx context.Context) *cobra.Command {
	var schemaName, username string
	cmd := &cobra.Command{
		Use:   "issue-token",
		Short: "Mint an admin token bound to one partition",
		Long: `For a client partition the user must exist and be staff. The public
partition has no users; its tokens are issued to the operator name given
with --user and carry superuser rights.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(ctx, func(a *app.App) error {
				t, err := a.Catalog.TenantBySchema(ctx, schemaName)
				if err != nil {
					return fmt.Errorf("%s: %w", schemaName, err)
				}
				if t.IsPublic() {
					token, err := a.JWT.GenerateToken(t.SchemaName, 0, username, "", true)
					if err != nil {
						return err
					}
					fmt.Fprintln(cmd.OutOrStdout(), token)
					return nil
				}

				var token string
				err = a.Scoper.Run(ctx, t, func(ctx context.Context) error {
					u, err := a.Repo.UserByUsername(ctx, username)
					if err != nil {
						return err
					}
					if !u.IsStaff {
						return fmt.Errorf("%s is not staff", username)
					}
					token, err = a.JWT.GenerateToken(t.SchemaName, u.ID, u.Username, u.Email, u.IsSuperuser)
					return err
				})
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), token)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&schemaName, "schema", "", "partition key the token is valid for")
	cmd.Flags().StringVar(&username, "user", "admin", "username")
	_ = cmd.MarkFlagRequired("schema")
	return cmd
}
