package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/suteetoe/tenantstarter/internal/app"
	"github.com/suteetoe/tenantstarter/internal/lifecycle"
	"github.com/suteetoe/tenantstarter/internal/tenancy"
)

func newCreateTenantCommand(ctx context.Context) *cobra.Command {
	var req lifecycle.Request
	cmd := &cobra.Command{
		Use:     "create-tenant",
		Short:   "Create a tenant with its partition, primary domain and first admin",
		Example: `  tenantctl create-tenant --name "Acme Corporation" --domain acme.localhost --email alice@acme.test`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(ctx, func(a *app.App) error {
				res, err := a.Manager.CreateTenant(ctx, req)
				return printCreateResult(cmd.OutOrStdout(), res, err)
			})
		},
	}
	flags := cmd.Flags()
	flags.StringVar(&req.Name, "name", "", "display name of the tenant")
	flags.StringVar(&req.Domain, "domain", "", "primary hostname, e.g. acme.localhost")
	flags.StringVar(&req.Email, "email", "", "email of the first admin; empty skips the admin")
	flags.StringVar(&req.Password, "password", "", "admin password; generated when empty")
	flags.StringVar(&req.Schema, "schema", "", "explicit partition key; derived from the name when empty")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("domain")
	return cmd
}

// printCreateResult writes the summary of a created tenant. A failed admin
// still prints the tenant, and the error is returned so the exit code
// reports it.
func printCreateResult(out io.Writer, res *lifecycle.Result, err error) error {
	if res == nil {
		return err
	}
	fmt.Fprintf(out, "Tenant:  %s\n", res.Tenant.Name)
	fmt.Fprintf(out, "Schema:  %s\n", res.Tenant.SchemaName)
	fmt.Fprintf(out, "Domain:  %s\n", res.Domain.Domain)
	if errors.Is(err, tenancy.ErrAdminCreation) {
		fmt.Fprintf(out, "Admin:   not created (%v)\n", err)
		return err
	}
	if res.Admin != nil {
		fmt.Fprintf(out, "Admin:   %s <%s>\n", res.Admin.Username, res.Admin.Email)
		if res.PasswordGenerated {
			fmt.Fprintf(out, "Password: %s\n", res.Password)
			fmt.Fprintln(out, "WARNING: this password is shown only once. Store it safely.")
		}
	}
	return err
}
