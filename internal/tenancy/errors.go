package tenancy

import (
	"errors"
	"fmt"

	"github.com/suteetoe/tenantstarter/internal/schema"
)

var (
	// ErrInvalidKey means a partition key is reserved or malformed
	ErrInvalidKey = schema.ErrInvalidKey
	// ErrDuplicateDomain means a hostname already routes to a tenant
	ErrDuplicateDomain = errors.New("domain already in use")
	// ErrDuplicateKey means an explicitly requested partition key is taken
	ErrDuplicateKey = errors.New("partition key already in use")
	// ErrInvalidTenant means a tenant field failed validation
	ErrInvalidTenant = errors.New("invalid tenant")
	// ErrTenantNotFound means no registry row matched
	ErrTenantNotFound = errors.New("tenant not found")
	// ErrDomainNotFound means no domain row matched a hostname
	ErrDomainNotFound = errors.New("domain not found")
	// ErrTenantInactive means the tenant exists but is switched off
	ErrTenantInactive = errors.New("tenant is inactive")
	// ErrMissingPartition means the current tenant has no physical partition
	ErrMissingPartition = errors.New("partition does not exist")
	// ErrNoTenantContext means an operation needed a bound tenant and had none
	ErrNoTenantContext = errors.New("no tenant context")
	// ErrCrossPartition means an entity was accessed from the wrong kind of partition
	ErrCrossPartition = errors.New("entity not available in this partition")
	// ErrProvision is matched by every *ProvisionError
	ErrProvision = errors.New("provisioning failed")
	// ErrAdminCreation is matched by every *AdminCreationError
	ErrAdminCreation = errors.New("admin creation failed")
	// ErrDecommissionRefused means a drop was requested without force
	ErrDecommissionRefused = errors.New("decommission refused")
)

// ProvisionError reports a failed partition creation or migration run
type ProvisionError struct {
	Schema string
	Step   string
	Err    error
}

func (e *ProvisionError) Error() string {
	return fmt.Sprintf("provision %s: %s: %v", e.Schema, e.Step, e.Err)
}

func (e *ProvisionError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrProvision) hold
func (e *ProvisionError) Is(target error) bool { return target == ErrProvision }

// AdminCreationError reports a failed bootstrap admin after a successful
// provision. The tenant and its partition stay in place.
type AdminCreationError struct {
	Schema string
	Email  string
	Err    error
}

func (e *AdminCreationError) Error() string {
	return fmt.Sprintf("create admin %s in %s: %v", e.Email, e.Schema, e.Err)
}

func (e *AdminCreationError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrAdminCreation) hold
func (e *AdminCreationError) Is(target error) bool { return target == ErrAdminCreation }
