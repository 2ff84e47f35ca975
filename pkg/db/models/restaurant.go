package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Restaurant is the cart-scoped view of a restaurant. LegacyID holds the numeric
// identifier older clients still keep in their cart pointer.
type Restaurant struct {
	ID          uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	LegacyID    *int64          `gorm:"column:legacy_id"`
	Name        string          `gorm:"column:name;not null"`
	DeliveryFee decimal.Decimal `gorm:"column:delivery_fee;type:numeric(10,2);not null;default:0"`
	Active      bool            `gorm:"column:active;not null;default:true"`
	CreatedAt   time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

func (Restaurant) TableName() string { return "restaurants" }

func (r *Restaurant) BeforeCreate(*gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}
