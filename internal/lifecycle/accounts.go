package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"gorm.io/gorm"

	"github.com/suteetoe/tenantstarter/internal/model"
	"github.com/suteetoe/tenantstarter/internal/tenancy"
)

// Accounts stores users in the partition bound to ctx
type Accounts interface {
	UsernameTaken(ctx context.Context, username string) (bool, error)
	// CreateAdmin inserts a superuser and gives it the admin role
	CreateAdmin(ctx context.Context, u *model.User) error
}

// StoreAccounts is Accounts over the scoped store
type StoreAccounts struct {
	store *tenancy.Store
}

// NewStoreAccounts creates Accounts over store
func NewStoreAccounts(store *tenancy.Store) *StoreAccounts {
	return &StoreAccounts{store: store}
}

func (a *StoreAccounts) UsernameTaken(ctx context.Context, username string) (bool, error) {
	var n int64
	err := a.store.Tx(ctx, tenancy.EntityUser, func(tx *gorm.DB) error {
		return tx.Unscoped().Model(&model.User{}).Where("username = ?", username).Count(&n).Error
	})
	return n > 0, err
}

func (a *StoreAccounts) CreateAdmin(ctx context.Context, u *model.User) error {
	return a.store.Tx(ctx, tenancy.EntityUser, func(tx *gorm.DB) error {
		if err := tx.Omit("Profile").Create(u).Error; err != nil {
			return fmt.Errorf("create user %s: %w", u.Username, err)
		}
		profile := &model.Profile{UserID: u.ID, Timezone: "Europe/Zurich"}
		var role model.Role
		err := tx.Where("slug = ?", "admin").First(&role).Error
		switch {
		case err == nil:
			profile.RoleID = &role.ID
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return err
		}
		if err := tx.Create(profile).Error; err != nil {
			return fmt.Errorf("create profile for %s: %w", u.Username, err)
		}
		u.Profile = profile
		return nil
	})
}

// MemoryAccounts keeps users per partition in memory
type MemoryAccounts struct {
	mu     sync.Mutex
	nextID uint
	users  map[string][]model.User // partition key -> users
}

// NewMemoryAccounts creates an empty account store
func NewMemoryAccounts() *MemoryAccounts {
	return &MemoryAccounts{users: map[string][]model.User{}}
}

func (a *MemoryAccounts) partition(ctx context.Context) (string, error) {
	t, err := tenancy.MustCurrent(ctx)
	if err != nil {
		return "", err
	}
	if err := tenancy.CheckAccess(tenancy.EntityUser, t.IsPublic()); err != nil {
		return "", err
	}
	return t.SchemaName, nil
}

func (a *MemoryAccounts) UsernameTaken(ctx context.Context, username string) (bool, error) {
	key, err := a.partition(ctx)
	if err != nil {
		return false, err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, u := range a.users[key] {
		if u.Username == username {
			return true, nil
		}
	}
	return false, nil
}

func (a *MemoryAccounts) CreateAdmin(ctx context.Context, u *model.User) error {
	key, err := a.partition(ctx)
	if err != nil {
		return err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, existing := range a.users[key] {
		if existing.Username == u.Username {
			return fmt.Errorf("username %s already exists", u.Username)
		}
	}
	a.nextID++
	u.ID = a.nextID
	a.users[key] = append(a.users[key], *u)
	return nil
}

// Users returns the users stored in one partition
func (a *MemoryAccounts) Users(schemaName string) []model.User {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]model.User(nil), a.users[schemaName]...)
}
