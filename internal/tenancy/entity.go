package tenancy

import "fmt"

// Scope says which kind of partition holds an entity's rows
type Scope int

const (
	// ScopePublic entities live only in the public partition
	ScopePublic Scope = iota
	// ScopeTenant entities live only in client partitions
	ScopeTenant
)

func (s Scope) String() string {
	switch s {
	case ScopePublic:
		return "public"
	case ScopeTenant:
		return "tenant"
	}
	return fmt.Sprintf("scope(%d)", int(s))
}

// Entity names a stored entity type
type Entity string

const (
	EntityTenant         Entity = "tenant"
	EntityDomain         Entity = "domain"
	EntityContactMessage Entity = "contact_message"

	EntityUser         Entity = "user"
	EntityRole         Entity = "role"
	EntityProfile      Entity = "profile"
	EntityTeam         Entity = "team"
	EntityActivity     Entity = "activity"
	EntityLocationType Entity = "location_type"
	EntityLocation     Entity = "location"
	EntityMapLayer     Entity = "map_layer"
)

// Surface is an admin interface an entity may be listed on
type Surface int

const (
	SurfacePublicAdmin Surface = 1 << iota
	SurfaceTenantAdmin
)

// EntityInfo is one row of the entity table
type EntityInfo struct {
	Scope    Scope
	Surfaces Surface
}

// Entities is the single source of truth for where each entity lives and
// which admin surface lists it.
var Entities = map[Entity]EntityInfo{
	EntityTenant:         {Scope: ScopePublic, Surfaces: SurfacePublicAdmin},
	EntityDomain:         {Scope: ScopePublic, Surfaces: SurfacePublicAdmin},
	EntityContactMessage: {Scope: ScopePublic, Surfaces: SurfacePublicAdmin},

	EntityUser:         {Scope: ScopeTenant, Surfaces: SurfaceTenantAdmin},
	EntityRole:         {Scope: ScopeTenant, Surfaces: SurfaceTenantAdmin},
	EntityProfile:      {Scope: ScopeTenant, Surfaces: SurfaceTenantAdmin},
	EntityTeam:         {Scope: ScopeTenant, Surfaces: SurfaceTenantAdmin},
	EntityActivity:     {Scope: ScopeTenant, Surfaces: SurfaceTenantAdmin},
	EntityLocationType: {Scope: ScopeTenant, Surfaces: SurfaceTenantAdmin},
	EntityLocation:     {Scope: ScopeTenant, Surfaces: SurfaceTenantAdmin},
	EntityMapLayer:     {Scope: ScopeTenant, Surfaces: SurfaceTenantAdmin},
}

// CheckAccess fails with ErrCrossPartition when entity cannot be read or
// written from a partition of the given kind.
func CheckAccess(entity Entity, public bool) error {
	info, ok := Entities[entity]
	if !ok {
		return fmt.Errorf("%w: unknown entity %q", ErrCrossPartition, entity)
	}
	if public && info.Scope != ScopePublic {
		return fmt.Errorf("%w: %s is tenant-scoped", ErrCrossPartition, entity)
	}
	if !public && info.Scope != ScopeTenant {
		return fmt.Errorf("%w: %s is public-scoped", ErrCrossPartition, entity)
	}
	return nil
}
