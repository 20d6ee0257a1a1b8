// Package demo seeds three example tenants with users, roles, teams,
// locations and map layers.
package demo

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/suteetoe/tenantstarter/internal/lifecycle"
	"github.com/suteetoe/tenantstarter/internal/model"
	"github.com/suteetoe/tenantstarter/internal/registry"
	"github.com/suteetoe/tenantstarter/internal/repository"
	"github.com/suteetoe/tenantstarter/internal/tenancy"
	"github.com/suteetoe/tenantstarter/pkg/logger"
)

// ContentWriter seeds the partition bound to ctx
type ContentWriter interface {
	SeedContent(ctx context.Context, c repository.Content) error
}

// TenantSummary reports what happened to one demo tenant
type TenantSummary struct {
	Name    string
	Schema  string
	Domain  string
	Created bool
	Users   []string
}

// Seeder creates the demo tenants
type Seeder struct {
	manager *lifecycle.Manager
	catalog registry.Catalog
	scoper  *tenancy.Scoper
	content ContentWriter
}

// NewSeeder creates a Seeder
func NewSeeder(manager *lifecycle.Manager, catalog registry.Catalog, scoper *tenancy.Scoper, content ContentWriter) *Seeder {
	return &Seeder{manager: manager, catalog: catalog, scoper: scoper, content: content}
}

// Schemas lists the partition keys of the demo tenants
func Schemas() []string {
	out := make([]string, len(tenants))
	for i, d := range tenants {
		out[i] = d.Tenant.SchemaName
	}
	return out
}

// Run creates every demo tenant whose key is not yet taken. With flush the
// existing demo tenants are decommissioned and purged first.
func (s *Seeder) Run(ctx context.Context, flush bool) ([]TenantSummary, error) {
	log := logger.FromContext(ctx)
	if flush {
		if err := s.Flush(ctx); err != nil {
			return nil, err
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	var (
		out  []TenantSummary
		errs error
	)
	for _, d := range tenants {
		summary := TenantSummary{Name: d.Tenant.Name, Schema: d.Tenant.SchemaName, Domain: d.Domain}
		for _, u := range d.Users {
			summary.Users = append(summary.Users, u.Username)
		}

		taken, err := s.catalog.SchemaExists(ctx, d.Tenant.SchemaName)
		if err != nil {
			return out, err
		}
		if taken {
			log.Info("Demo tenant already exists, skipping", zap.String("schema", d.Tenant.SchemaName))
			out = append(out, summary)
			continue
		}

		tmpl := d.Tenant
		res, err := s.manager.CreateTenant(ctx, lifecycle.Request{
			Name:   d.Tenant.Name,
			Domain: d.Domain,
			Schema: d.Tenant.SchemaName,
			Tenant: &tmpl,
		})
		if err != nil {
			log.Error("Demo tenant creation failed", zap.String("schema", d.Tenant.SchemaName), zap.Error(err))
			errs = multierr.Append(errs, fmt.Errorf("%s: %w", d.Tenant.SchemaName, err))
			continue
		}

		err = s.scoper.Run(ctx, res.Tenant, func(ctx context.Context) error {
			return s.content.SeedContent(ctx, contentFor(d, string(hash)))
		})
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("seed %s: %w", d.Tenant.SchemaName, err))
			continue
		}
		summary.Created = true
		out = append(out, summary)
		log.Info("Demo tenant created",
			zap.String("schema", res.Tenant.SchemaName),
			zap.String("domain", res.Domain.Domain),
			zap.Int("users", len(d.Users)),
			zap.Int("locations", len(d.Locations)))
	}
	return out, errs
}

// Flush decommissions and purges the demo tenants that exist
func (s *Seeder) Flush(ctx context.Context) error {
	var errs error
	for _, schemaName := range Schemas() {
		t, err := s.catalog.TenantBySchema(ctx, schemaName)
		if errors.Is(err, tenancy.ErrTenantNotFound) {
			continue
		}
		if err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		if err := s.manager.Decommission(ctx, t, true); err != nil {
			errs = multierr.Append(errs, err)
		}
		if err := s.manager.Purge(ctx, t); err != nil {
			errs = multierr.Append(errs, err)
		}
		logger.FromContext(ctx).Info("Demo tenant flushed", zap.String("schema", schemaName))
	}
	return errs
}

func contentFor(d demoTenant, passwordHash string) repository.Content {
	var c repository.Content
	for _, u := range d.Users {
		c.Users = append(c.Users, repository.SeedUser{
			User: model.User{
				Username:        u.Username,
				Email:           u.Email,
				Password:        passwordHash,
				FirstName:       u.FirstName,
				LastName:        u.LastName,
				IsStaff:         u.Staff,
				IsSuperuser:     u.Superuser,
				IsActive:        true,
				IsEmailVerified: true,
			},
			RoleSlug: u.Role,
		})
	}
	c.LocationTypes = append(c.LocationTypes, locationTypes...)
	for _, l := range d.Locations {
		c.Locations = append(c.Locations, repository.SeedLocation{
			Type: l.Type,
			Location: model.Location{
				Name:        l.Name,
				Description: l.Description,
				Latitude:    l.Lat,
				Longitude:   l.Lon,
				Street:      l.Street,
				City:        l.City,
				ZipCode:     l.ZipCode,
				Canton:      l.Canton,
				Phone:       l.Phone,
				Email:       l.Email,
				Website:     l.Website,
				IsActive:    true,
			},
		})
	}
	c.MapLayers = append(c.MapLayers, mapLayers...)
	for _, t := range d.Teams {
		c.Teams = append(c.Teams, repository.SeedTeam{
			Team:    model.Team{Name: t.Name, Slug: t.Slug, Description: t.Description, IsActive: true},
			Leader:  t.Leader,
			Members: t.Members,
		})
	}
	return c
}
