package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/foodcart-backend/pkg/enums"
)

// Promotion is a coupon code. A nil RestaurantID makes it valid everywhere.
type Promotion struct {
	ID                uuid.UUID        `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Code              string           `gorm:"column:code;not null"`
	Type              enums.CouponType `gorm:"column:type;type:text;not null"`
	Value             decimal.Decimal  `gorm:"column:value;type:numeric(10,2);not null"`
	MinimumOrderValue decimal.Decimal  `gorm:"column:minimum_order_value;type:numeric(10,2);not null;default:0"`
	RestaurantID      *uuid.UUID       `gorm:"column:restaurant_id;type:uuid"`
	Description       *string          `gorm:"column:description"`
	Tags              pq.StringArray   `gorm:"column:tags;type:text[];not null;default:'{}'"`
	Active            bool             `gorm:"column:active;not null;default:true"`
	ActiveFrom        *time.Time       `gorm:"column:active_from"`
	ActiveTo          *time.Time       `gorm:"column:active_to"`
	CreatedAt         time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}

func (Promotion) TableName() string { return "promotions" }

func (p *Promotion) BeforeCreate(*gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	if p.Tags == nil {
		p.Tags = pq.StringArray{}
	}
	return nil
}

// ActiveAt reports whether now falls within the promotion window. Open bounds
// are unbounded.
func (p Promotion) ActiveAt(now time.Time) bool {
	if !p.Active {
		return false
	}
	if p.ActiveFrom != nil && now.Before(*p.ActiveFrom) {
		return false
	}
	if p.ActiveTo != nil && now.After(*p.ActiveTo) {
		return false
	}
	return true
}
