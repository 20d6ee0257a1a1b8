package model

import "time"

// LocationType categorises locations on the map
type LocationType struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Name      string    `json:"name" gorm:"type:varchar(100);uniqueIndex;not null"`
	Icon      string    `json:"icon" gorm:"type:varchar(50)"`
	Color     string    `json:"color" gorm:"type:varchar(7);default:'#3388ff'"`
	IsActive  bool      `json:"is_active" gorm:"default:true"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Location is a point of interest owned by a tenant
type Location struct {
	ID             uint      `json:"id" gorm:"primaryKey"`
	Name           string    `json:"name" gorm:"type:varchar(200);not null"`
	Description    string    `json:"description" gorm:"type:text"`
	LocationTypeID *uint     `json:"location_type_id,omitempty" gorm:"index"`
	Latitude       float64   `json:"latitude"`
	Longitude      float64   `json:"longitude"`
	Street         string    `json:"street" gorm:"type:varchar(255)"`
	ZipCode        string    `json:"zip_code" gorm:"type:varchar(10)"`
	City           string    `json:"city" gorm:"type:varchar(100)"`
	Canton         string    `json:"canton" gorm:"type:varchar(2)"`
	Website        string    `json:"website" gorm:"type:varchar(200)"`
	Phone          string    `json:"phone" gorm:"type:varchar(30)"`
	Email          string    `json:"email" gorm:"type:varchar(254)"`
	IsActive       bool      `json:"is_active" gorm:"default:true"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`

	LocationType *LocationType `json:"location_type,omitempty" gorm:"foreignKey:LocationTypeID;constraint:OnDelete:SET NULL"`
}

// MapLayer is a tile source offered on the tenant map
type MapLayer struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	Name        string    `json:"name" gorm:"type:varchar(100);not null"`
	URLTemplate string    `json:"url_template" gorm:"type:varchar(500);not null"`
	Attribution string    `json:"attribution" gorm:"type:varchar(500)"`
	IsDefault   bool      `json:"is_default" gorm:"default:false"`
	IsActive    bool      `json:"is_active" gorm:"default:true"`
	MaxZoom     int       `json:"max_zoom" gorm:"default:19"`
	Opacity     float64   `json:"opacity" gorm:"default:1"`
	SortOrder   int       `json:"sort_order" gorm:"default:0"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
