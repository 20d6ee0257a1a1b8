package model

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"gorm.io/gorm"
)

// TenantType classifies a registry entry
type TenantType string

const (
	TenantTypePublic TenantType = "public"
	TenantTypeClient TenantType = "client"
)

// DefaultPrimaryColor is the branding colour used when a tenant sets none
const DefaultPrimaryColor = "#337e16"

// Languages is a list of language codes stored as a jsonb array
type Languages []string

// Value implements driver.Valuer
func (l Languages) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]string(l))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner
func (l *Languages) Scan(value interface{}) error {
	var raw []byte
	switch v := value.(type) {
	case nil:
		*l = Languages{}
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return errors.New("languages: unsupported scan type")
	}
	var out []string
	if err := json.Unmarshal(raw, &out); err != nil {
		return err
	}
	*l = out
	return nil
}

// Contains reports whether code is one of the languages
func (l Languages) Contains(code string) bool {
	for _, c := range l {
		if c == code {
			return true
		}
	}
	return false
}

// Tenant is a registry entry in the public partition. Each client tenant
// owns exactly one physical partition named by SchemaName.
type Tenant struct {
	ID          uint       `json:"id" gorm:"primaryKey"`
	Name        string     `json:"name" gorm:"type:varchar(200);not null" validate:"required,max=200"`
	SchemaName  string     `json:"schema_name" gorm:"type:varchar(63);uniqueIndex;not null"`
	Type        TenantType `json:"type" gorm:"type:varchar(20);not null;default:'client'" validate:"oneof=public client"`
	Description string     `json:"description" gorm:"type:text"`

	// Contact information
	ContactName  string `json:"contact_name" gorm:"type:varchar(200)" validate:"max=200"`
	ContactEmail string `json:"contact_email" gorm:"type:varchar(254)" validate:"omitempty,email"`
	ContactPhone string `json:"contact_phone" gorm:"type:varchar(30)" validate:"max=30"`

	// Address
	Street  string `json:"street" gorm:"type:varchar(255)" validate:"max=255"`
	City    string `json:"city" gorm:"type:varchar(100)" validate:"max=100"`
	ZipCode string `json:"zip_code" gorm:"type:varchar(10)" validate:"max=10"`
	Canton  string `json:"canton" gorm:"type:varchar(2)" validate:"omitempty,canton"`

	// Branding
	LogoPath     string `json:"logo_path" gorm:"type:varchar(255)"`
	PrimaryColor string `json:"primary_color" gorm:"type:varchar(7);default:'#337e16'" validate:"omitempty,hexcolor,len=7"`

	// Localization
	DefaultLanguage string    `json:"default_language" gorm:"type:varchar(10);not null"`
	ActiveLanguages Languages `json:"active_languages" gorm:"type:jsonb"`

	IsActive  bool           `json:"is_active" gorm:"default:true"`
	CreatedOn time.Time      `json:"created_on" gorm:"autoCreateTime"`
	UpdatedOn time.Time      `json:"updated_on" gorm:"autoUpdateTime"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`

	Domains []Domain `json:"domains,omitempty" gorm:"foreignKey:TenantID;constraint:OnDelete:CASCADE"`
}

// IsPublic reports whether t is the public (system) partition
func (t *Tenant) IsPublic() bool {
	return t != nil && t.Type == TenantTypePublic
}

// PrimaryDomain returns the canonical hostname, if any domains are loaded
func (t *Tenant) PrimaryDomain() string {
	for _, d := range t.Domains {
		if d.IsPrimary {
			return d.Domain
		}
	}
	return ""
}

// Domain routes a hostname to exactly one tenant
type Domain struct {
	ID        uint   `json:"id" gorm:"primaryKey"`
	Domain    string `json:"domain" gorm:"type:varchar(253);uniqueIndex;not null"`
	TenantID  uint   `json:"tenant_id" gorm:"not null;index;uniqueIndex:idx_domains_one_primary,where:is_primary = true"`
	IsPrimary bool   `json:"is_primary" gorm:"default:false"`

	Tenant *Tenant `json:"-" gorm:"foreignKey:TenantID"`
}

// ContactMessage is a message sent through the public site contact form
type ContactMessage struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Name      string    `json:"name" gorm:"type:varchar(100);not null" validate:"required,max=100"`
	Email     string    `json:"email" gorm:"type:varchar(254);not null" validate:"required,email"`
	Subject   string    `json:"subject" gorm:"type:varchar(200)" validate:"max=200"`
	Message   string    `json:"message" gorm:"type:text;not null" validate:"required"`
	IsRead    bool      `json:"is_read" gorm:"default:false"`
	CreatedAt time.Time `json:"created_at"`
}
