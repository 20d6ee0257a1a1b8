// Package policy decides, from a tenant's type alone, which admin surface,
// route table, storage bucket and theme apply to a request.
package policy

import (
	"errors"
	"fmt"
	"sort"

	"github.com/suteetoe/tenantstarter/internal/model"
	"github.com/suteetoe/tenantstarter/internal/tenancy"
)

// ErrForbidden means the request targets a surface or route table that the
// current partition does not serve.
var ErrForbidden = errors.New("forbidden for this partition")

// Op is an admin capability
type Op string

const (
	OpView   Op = "view"
	OpAdd    Op = "add"
	OpChange Op = "change"
	OpDelete Op = "delete"
	OpModule Op = "module"
)

func (o Op) valid() bool {
	switch o {
	case OpView, OpAdd, OpChange, OpDelete, OpModule:
		return true
	}
	return false
}

// Table names a route table
type Table string

const (
	RoutesPublic Table = "public"
	RoutesTenant Table = "tenant"
)

// Allow is the single permission function for every entity and operation.
// An entity is manageable only from the kind of partition that stores it.
func Allow(tenantType model.TenantType, entity tenancy.Entity, op Op) bool {
	if !op.valid() {
		return false
	}
	info, ok := tenancy.Entities[entity]
	if !ok {
		return false
	}
	switch tenantType {
	case model.TenantTypePublic:
		return info.Scope == tenancy.ScopePublic
	case model.TenantTypeClient:
		return info.Scope == tenancy.ScopeTenant
	}
	return false
}

// TableFor returns the route table active for t
func TableFor(t *model.Tenant) Table {
	if t.IsPublic() {
		return RoutesPublic
	}
	return RoutesTenant
}

// CheckTable fails with ErrForbidden unless table is active for t
func CheckTable(t *model.Tenant, table Table) error {
	if t == nil {
		return tenancy.ErrNoTenantContext
	}
	if TableFor(t) != table {
		return fmt.Errorf("%w: %s routes are not served on %s", ErrForbidden, table, t.SchemaName)
	}
	return nil
}

// CheckSurface fails with ErrForbidden when surface is not reachable from
// t's partition: the public admin only on the public partition, the tenant
// admin only on client partitions.
func CheckSurface(t *model.Tenant, surface tenancy.Surface) error {
	if t == nil {
		return tenancy.ErrNoTenantContext
	}
	reachable := tenancy.SurfaceTenantAdmin
	if t.IsPublic() {
		reachable = tenancy.SurfacePublicAdmin
	}
	if surface&reachable == 0 {
		return fmt.Errorf("%w: admin surface not available on %s", ErrForbidden, t.SchemaName)
	}
	return nil
}

// EntitiesOn lists the entities an admin surface shows, sorted by name
func EntitiesOn(surface tenancy.Surface) []tenancy.Entity {
	var out []tenancy.Entity
	for e, info := range tenancy.Entities {
		if info.Surfaces&surface != 0 {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// BucketFor names the storage bucket backing t's uploads, "" without a tenant
func BucketFor(t *model.Tenant) string {
	if t == nil {
		return ""
	}
	return t.SchemaName
}

// Decision is the outcome of applying the policy to one tenant
type Decision struct {
	Table   Table
	Surface tenancy.Surface
	Bucket  string
	Theme   Theme
}

// Apply computes every per-request choice for t at once
func Apply(t *model.Tenant) Decision {
	surface := tenancy.SurfaceTenantAdmin
	if t.IsPublic() {
		surface = tenancy.SurfacePublicAdmin
	}
	return Decision{
		Table:   TableFor(t),
		Surface: surface,
		Bucket:  BucketFor(t),
		Theme:   ThemeFor(t),
	}
}
