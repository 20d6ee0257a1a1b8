package model

import (
	"time"

	"gorm.io/gorm"
)

// User is an account inside a client partition
type User struct {
	ID              uint           `json:"id" gorm:"primaryKey"`
	Username        string         `json:"username" gorm:"type:varchar(150);uniqueIndex;not null"`
	Email           string         `json:"email" gorm:"type:varchar(254);index"`
	Password        string         `json:"-" gorm:"type:varchar(255)"`
	FirstName       string         `json:"first_name" gorm:"type:varchar(150)"`
	LastName        string         `json:"last_name" gorm:"type:varchar(150)"`
	Phone           string         `json:"phone" gorm:"type:varchar(30)"`
	Department      string         `json:"department" gorm:"type:varchar(100)"`
	JobTitle        string         `json:"job_title" gorm:"type:varchar(100)"`
	IsEmailVerified bool           `json:"is_email_verified" gorm:"default:false"`
	IsStaff         bool           `json:"is_staff" gorm:"default:false"`
	IsSuperuser     bool           `json:"is_superuser" gorm:"default:false"`
	IsActive        bool           `json:"is_active" gorm:"default:true"`
	LastLogin       *time.Time     `json:"last_login,omitempty"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
	DeletedAt       gorm.DeletedAt `json:"-" gorm:"index"`

	Profile *Profile `json:"profile,omitempty" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
}

// FullName returns "first last", or the username when both are empty
func (u *User) FullName() string {
	switch {
	case u.FirstName != "" && u.LastName != "":
		return u.FirstName + " " + u.LastName
	case u.FirstName != "":
		return u.FirstName
	case u.LastName != "":
		return u.LastName
	}
	return u.Username
}

// Role groups capability flags. A higher HierarchyLevel means more authority.
type Role struct {
	ID                uint      `json:"id" gorm:"primaryKey"`
	Name              string    `json:"name" gorm:"type:varchar(100);uniqueIndex;not null"`
	Slug              string    `json:"slug" gorm:"type:varchar(100);uniqueIndex;not null"`
	Description       string    `json:"description" gorm:"type:text"`
	HierarchyLevel    int       `json:"hierarchy_level" gorm:"default:0"`
	IsDefault         bool      `json:"is_default" gorm:"default:false"`
	CanManageUsers    bool      `json:"can_manage_users"`
	CanManageRoles    bool      `json:"can_manage_roles"`
	CanManageSettings bool      `json:"can_manage_settings"`
	CanManageContent  bool      `json:"can_manage_content"`
	CanViewReports    bool      `json:"can_view_reports"`
	CanExportData     bool      `json:"can_export_data"`
	CanInviteUsers    bool      `json:"can_invite_users"`
	CanDeleteContent  bool      `json:"can_delete_content"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// Outranks reports whether r carries at least the authority of other
func (r *Role) Outranks(other *Role) bool {
	if r == nil {
		return false
	}
	if other == nil {
		return true
	}
	return r.HierarchyLevel >= other.HierarchyLevel
}

// DefaultRoles is the role set every new client partition starts with
func DefaultRoles() []Role {
	return []Role{
		{
			Name: "Administrator", Slug: "admin", HierarchyLevel: 100,
			Description:    "Full access to all features and settings.",
			CanManageUsers: true, CanManageRoles: true, CanManageSettings: true, CanManageContent: true,
			CanViewReports: true, CanExportData: true, CanInviteUsers: true, CanDeleteContent: true,
		},
		{
			Name: "Manager", Slug: "manager", HierarchyLevel: 80,
			Description:    "Can manage users and content, but not roles or settings.",
			CanManageUsers: true, CanManageContent: true,
			CanViewReports: true, CanExportData: true, CanInviteUsers: true, CanDeleteContent: true,
		},
		{
			Name: "Editor", Slug: "editor", HierarchyLevel: 60,
			Description:      "Can create and edit content.",
			CanManageContent: true, CanViewReports: true,
		},
		{
			Name: "Viewer", Slug: "viewer", HierarchyLevel: 40,
			Description:    "Read-only access to content.",
			CanViewReports: true,
		},
		{
			Name: "Member", Slug: "member", HierarchyLevel: 20, IsDefault: true,
			Description: "Basic member with minimal access.",
		},
	}
}

// Profile holds per-user preferences
type Profile struct {
	ID              uint      `json:"id" gorm:"primaryKey"`
	UserID          uint      `json:"user_id" gorm:"uniqueIndex;not null"`
	RoleID          *uint     `json:"role_id,omitempty" gorm:"index"`
	Bio             string    `json:"bio" gorm:"type:text"`
	Location        string    `json:"location" gorm:"type:varchar(255)"`
	Website         string    `json:"website" gorm:"type:varchar(200)"`
	Language        string    `json:"language" gorm:"type:varchar(10)"`
	Timezone        string    `json:"timezone" gorm:"type:varchar(50);default:'Europe/Zurich'"`
	IsProfilePublic bool      `json:"is_profile_public" gorm:"default:false"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`

	Role *Role `json:"role,omitempty" gorm:"foreignKey:RoleID;constraint:OnDelete:SET NULL"`
}

// Team is a named group of users with an optional leader
type Team struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	Name        string    `json:"name" gorm:"type:varchar(200);not null"`
	Slug        string    `json:"slug" gorm:"type:varchar(200);uniqueIndex;not null"`
	Description string    `json:"description" gorm:"type:text"`
	LeaderID    *uint     `json:"leader_id,omitempty" gorm:"index"`
	IsActive    bool      `json:"is_active" gorm:"default:true"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	Leader  *User  `json:"leader,omitempty" gorm:"foreignKey:LeaderID;constraint:OnDelete:SET NULL"`
	Members []User `json:"members,omitempty" gorm:"many2many:team_members"`
}

// Activity is an audit entry of something a user did
type Activity struct {
	ID           uint      `json:"id" gorm:"primaryKey"`
	UserID       uint      `json:"user_id" gorm:"index;not null"`
	ActivityType string    `json:"activity_type" gorm:"type:varchar(30);not null"`
	Description  string    `json:"description" gorm:"type:text"`
	IPAddress    string    `json:"ip_address" gorm:"type:varchar(45)"`
	UserAgent    string    `json:"user_agent" gorm:"type:text"`
	CreatedAt    time.Time `json:"created_at"`
}
