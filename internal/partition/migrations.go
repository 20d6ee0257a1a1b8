package partition

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/suteetoe/tenantstarter/internal/model"
	"github.com/suteetoe/tenantstarter/internal/tenancy"
)

// Migration is one versioned step. Up runs with the search_path already
// bound to the target partition.
type Migration struct {
	Version int
	Name    string
	Up      func(tx *gorm.DB) error
}

// Set is an ordered list of migrations for one kind of partition
type Set struct {
	Name       string
	Scope      tenancy.Scope
	Migrations []Migration
}

// Latest returns the highest version in the set
func (s Set) Latest() int {
	latest := 0
	for _, m := range s.Migrations {
		if m.Version > latest {
			latest = m.Version
		}
	}
	return latest
}

// PublicSet builds the registry tables in the public partition
var PublicSet = Set{
	Name:  "public",
	Scope: tenancy.ScopePublic,
	Migrations: []Migration{
		{Version: 1, Name: "create_registry", Up: func(tx *gorm.DB) error {
			return tx.AutoMigrate(&model.Tenant{}, &model.Domain{})
		}},
		{Version: 2, Name: "create_contact_messages", Up: func(tx *gorm.DB) error {
			return tx.AutoMigrate(&model.ContactMessage{})
		}},
	},
}

// TenantSet builds the tables every client partition holds
var TenantSet = Set{
	Name:  "tenant",
	Scope: tenancy.ScopeTenant,
	Migrations: []Migration{
		{Version: 1, Name: "create_accounts", Up: func(tx *gorm.DB) error {
			return tx.AutoMigrate(&model.Role{}, &model.User{}, &model.Profile{})
		}},
		{Version: 2, Name: "create_teams", Up: func(tx *gorm.DB) error {
			return tx.AutoMigrate(&model.Team{}, &model.Activity{})
		}},
		{Version: 3, Name: "create_locations", Up: func(tx *gorm.DB) error {
			return tx.AutoMigrate(&model.LocationType{}, &model.Location{}, &model.MapLayer{})
		}},
		{Version: 4, Name: "seed_default_roles", Up: func(tx *gorm.DB) error {
			roles := model.DefaultRoles()
			return tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&roles).Error
		}},
	},
}

// SetFor returns the set that applies to a partition of the given kind
func SetFor(public bool) Set {
	if public {
		return PublicSet
	}
	return TenantSet
}
