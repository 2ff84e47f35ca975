package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Address is a saved delivery address. At most one per user has IsDefault set.
type Address struct {
	ID           uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID       uuid.UUID `gorm:"column:user_id;type:uuid;not null"`
	Label        string    `gorm:"column:label;not null;default:''"`
	Street       string    `gorm:"column:street;not null"`
	Number       string    `gorm:"column:number;not null;default:''"`
	Complement   *string   `gorm:"column:complement"`
	Neighborhood string    `gorm:"column:neighborhood;not null;default:''"`
	City         string    `gorm:"column:city;not null"`
	State        string    `gorm:"column:state;not null"`
	ZipCode      string    `gorm:"column:zip_code;not null"`
	IsDefault    bool      `gorm:"column:is_default;not null;default:false"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (Address) TableName() string { return "addresses" }

func (a *Address) BeforeCreate(*gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
