package main

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suteetoe/tenantstarter/internal/lifecycle"
	"github.com/suteetoe/tenantstarter/internal/model"
	"github.com/suteetoe/tenantstarter/internal/tenancy"
)

func TestCommands(t *testing.T) {
	root := newRootCommand(context.Background())
	var names []string
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	assert.ElementsMatch(t, []string{"create-tenant", "create-demo-data", "migrate", "decommission", "issue-token"}, names)

	demo, _, err := root.Find([]string{"create-demo-data"})
	require.NoError(t, err)
	assert.NotNil(t, demo.Flags().Lookup("flush"))

	decommission, _, err := root.Find([]string{"decommission"})
	require.NoError(t, err)
	for _, flag := range []string{"schema", "force", "purge"} {
		assert.NotNil(t, decommission.Flags().Lookup(flag), flag)
	}
}

func TestRequiredFlagsAreCheckedBeforeConnecting(t *testing.T) {
	root := newRootCommand(context.Background())
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"create-tenant", "--name", "Acme"})

	err := root.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "domain")
}

func TestPrintCreateResult(t *testing.T) {
	res := &lifecycle.Result{
		Tenant:            &model.Tenant{Name: "Acme", SchemaName: "tenant_acme"},
		Domain:            &model.Domain{Domain: "acme.localhost"},
		Admin:             &model.User{Username: "alice", Email: "alice@acme.test"},
		Password:          "s3cret",
		PasswordGenerated: true,
	}
	var out bytes.Buffer
	require.NoError(t, printCreateResult(&out, res, nil))
	assert.Contains(t, out.String(), "tenant_acme")
	assert.Contains(t, out.String(), "Password: s3cret")
	assert.Contains(t, out.String(), "WARNING")
}

func TestPrintCreateResultFailsWhenAdminFails(t *testing.T) {
	res := &lifecycle.Result{
		Tenant: &model.Tenant{Name: "Acme", SchemaName: "tenant_acme"},
		Domain: &model.Domain{Domain: "acme.localhost"},
	}
	adminErr := &tenancy.AdminCreationError{Schema: "tenant_acme", Email: "alice@acme.test", Err: errors.New("disk full")}

	var out bytes.Buffer
	err := printCreateResult(&out, res, adminErr)
	assert.ErrorIs(t, err, tenancy.ErrAdminCreation)
	assert.Contains(t, out.String(), "tenant_acme")
	assert.Contains(t, out.String(), "Admin:   not created")
}

func TestPrintCreateResultWithoutTenant(t *testing.T) {
	var out bytes.Buffer
	err := printCreateResult(&out, nil, tenancy.ErrDuplicateDomain)
	assert.ErrorIs(t, err, tenancy.ErrDuplicateDomain)
	assert.Empty(t, out.String())
}
