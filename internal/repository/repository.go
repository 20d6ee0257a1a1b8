// Package repository reads and writes the entities of the partition bound
// to the caller's context.
package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/suteetoe/tenantstarter/internal/model"
	"github.com/suteetoe/tenantstarter/internal/tenancy"
	"github.com/suteetoe/tenantstarter/prometheus"
)

// ErrUserNotFound means no active user matched
var ErrUserNotFound = errors.New("user not found")

// Repository is the data access used by the HTTP handlers and seeding
type Repository struct {
	store *tenancy.Store
}

// New creates a Repository over store
func New(store *tenancy.Store) *Repository {
	return &Repository{store: store}
}

// ListUsers returns the partition's users with their profile and role
func (r *Repository) ListUsers(ctx context.Context) ([]model.User, error) {
	defer prometheus.TrackDBOperation("list_users")(time.Now())
	var users []model.User
	err := r.store.Tx(ctx, tenancy.EntityUser, func(tx *gorm.DB) error {
		return tx.Preload("Profile.Role").Order("username").Find(&users).Error
	})
	return users, err
}

// UserByUsername returns an active user
func (r *Repository) UserByUsername(ctx context.Context, username string) (*model.User, error) {
	defer prometheus.TrackDBOperation("get_user")(time.Now())
	var user model.User
	err := r.store.Tx(ctx, tenancy.EntityUser, func(tx *gorm.DB) error {
		return tx.Where("username = ? AND is_active = ?", username, true).First(&user).Error
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// RecordLogin stamps the user's last login and writes an activity entry
func (r *Repository) RecordLogin(ctx context.Context, u *model.User, ip, userAgent string) error {
	defer prometheus.TrackDBOperation("record_login")(time.Now())
	now := time.Now()
	return r.store.Tx(ctx, tenancy.EntityActivity, func(tx *gorm.DB) error {
		if err := tx.Model(&model.User{}).Where("id = ?", u.ID).Update("last_login", now).Error; err != nil {
			return err
		}
		u.LastLogin = &now
		return tx.Create(&model.Activity{
			UserID:       u.ID,
			ActivityType: "login",
			Description:  "Signed in",
			IPAddress:    ip,
			UserAgent:    userAgent,
		}).Error
	})
}

// ListLocations returns the active locations with their type
func (r *Repository) ListLocations(ctx context.Context) ([]model.Location, error) {
	defer prometheus.TrackDBOperation("list_locations")(time.Now())
	var locations []model.Location
	err := r.store.Tx(ctx, tenancy.EntityLocation, func(tx *gorm.DB) error {
		return tx.Preload("LocationType").Where("is_active = ?", true).Order("name").Find(&locations).Error
	})
	return locations, err
}

// CreateContactMessage stores a message from the public contact form
func (r *Repository) CreateContactMessage(ctx context.Context, m *model.ContactMessage) error {
	defer prometheus.TrackDBOperation("create_contact_message")(time.Now())
	return r.store.Tx(ctx, tenancy.EntityContactMessage, func(tx *gorm.DB) error {
		return tx.Create(m).Error
	})
}

// ListContactMessages returns contact messages, newest first
func (r *Repository) ListContactMessages(ctx context.Context) ([]model.ContactMessage, error) {
	var messages []model.ContactMessage
	err := r.store.Tx(ctx, tenancy.EntityContactMessage, func(tx *gorm.DB) error {
		return tx.Order("created_at DESC").Find(&messages).Error
	})
	return messages, err
}

// SeedUser is a user to seed together with the slug of its role
type SeedUser struct {
	User     model.User
	RoleSlug string
}

// SeedTeam is a team with its leader and members named by username
type SeedTeam struct {
	Team    model.Team
	Leader  string
	Members []string
}

// SeedLocation is a location with its type named
type SeedLocation struct {
	Location model.Location
	Type     string
}

// Content is the data seeded into one client partition
type Content struct {
	Users         []SeedUser
	LocationTypes []model.LocationType
	Locations     []SeedLocation
	MapLayers     []model.MapLayer
	Teams         []SeedTeam
}

// SeedContent writes c into the current partition. Rows whose unique name,
// slug or username already exists are left untouched, so seeding twice is
// harmless.
func (r *Repository) SeedContent(ctx context.Context, c Content) error {
	defer prometheus.TrackDBOperation("seed_content")(time.Now())
	return r.store.Tx(ctx, tenancy.EntityUser, func(tx *gorm.DB) error {
		roles := map[string]uint{}
		var existing []model.Role
		if err := tx.Find(&existing).Error; err != nil {
			return err
		}
		for _, role := range existing {
			roles[role.Slug] = role.ID
		}

		users := map[string]uint{}
		for _, su := range c.Users {
			u := su.User
			if err := tx.Omit("Profile").Where(model.User{Username: u.Username}).FirstOrCreate(&u).Error; err != nil {
				return fmt.Errorf("seed user %s: %w", u.Username, err)
			}
			users[u.Username] = u.ID
			profile := model.Profile{UserID: u.ID}
			if id, ok := roles[su.RoleSlug]; ok {
				profile.RoleID = &id
			}
			err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "user_id"}},
				DoUpdates: clause.AssignmentColumns([]string{"role_id"}),
			}).Create(&profile).Error
			if err != nil {
				return fmt.Errorf("seed profile %s: %w", u.Username, err)
			}
		}

		types := map[string]uint{}
		for _, lt := range c.LocationTypes {
			lt := lt
			if err := tx.Where(model.LocationType{Name: lt.Name}).FirstOrCreate(&lt).Error; err != nil {
				return fmt.Errorf("seed location type %s: %w", lt.Name, err)
			}
			types[lt.Name] = lt.ID
		}

		for _, sl := range c.Locations {
			loc := sl.Location
			if id, ok := types[sl.Type]; ok {
				loc.LocationTypeID = &id
			}
			if err := tx.Omit(clause.Associations).Where(model.Location{Name: loc.Name}).FirstOrCreate(&loc).Error; err != nil {
				return fmt.Errorf("seed location %s: %w", loc.Name, err)
			}
		}

		for _, ml := range c.MapLayers {
			ml := ml
			if err := tx.Where(model.MapLayer{Name: ml.Name}).FirstOrCreate(&ml).Error; err != nil {
				return fmt.Errorf("seed map layer %s: %w", ml.Name, err)
			}
		}

		for _, st := range c.Teams {
			team := st.Team
			if id, ok := users[st.Leader]; ok {
				team.LeaderID = &id
			}
			result := tx.Omit(clause.Associations).Where(model.Team{Slug: team.Slug}).FirstOrCreate(&team)
			if result.Error != nil {
				return fmt.Errorf("seed team %s: %w", team.Slug, result.Error)
			}
			if result.RowsAffected == 0 {
				continue
			}
			var rows []map[string]interface{}
			for _, name := range st.Members {
				if id, ok := users[name]; ok {
					rows = append(rows, map[string]interface{}{"team_id": team.ID, "user_id": id})
				}
			}
			if len(rows) == 0 {
				continue
			}
			if err := tx.Table("team_members").Clauses(clause.OnConflict{DoNothing: true}).Create(&rows).Error; err != nil {
				return fmt.Errorf("seed members of %s: %w", team.Slug, err)
			}
		}
		return nil
	})
}
