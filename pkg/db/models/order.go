package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/foodcart-backend/pkg/enums"
	"github.com/angelmondragon/foodcart-backend/pkg/types"
)

// Order is the immutable record of a checkout submission. Status is the
// latest entry of StatusEvents; the financial columns never change.
type Order struct {
	ID            uuid.UUID             `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID        uuid.UUID             `gorm:"column:user_id;type:uuid;not null"`
	RestaurantID  uuid.UUID             `gorm:"column:restaurant_id;type:uuid;not null"`
	Subtotal      decimal.Decimal       `gorm:"column:subtotal;type:numeric(12,2);not null"`
	Discount      decimal.Decimal       `gorm:"column:discount;type:numeric(7,4);not null;default:0"`
	DiscountValue decimal.Decimal       `gorm:"column:discount_value;type:numeric(12,2);not null;default:0"`
	DeliveryFee   decimal.Decimal       `gorm:"column:delivery_fee;type:numeric(10,2);not null;default:0"`
	Total         decimal.Decimal       `gorm:"column:total;type:numeric(12,2);not null"`
	PaymentMethod enums.PaymentMethod   `gorm:"column:payment_method;type:text;not null"`
	Notes         *string               `gorm:"column:notes"`
	Address       types.DeliveryAddress `gorm:"column:address;type:jsonb;not null"`
	Status        enums.OrderStatus     `gorm:"column:status;type:text;not null;default:'pending'"`
	CreatedAt     time.Time             `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time             `gorm:"column:updated_at;autoUpdateTime"`

	Items        []OrderItem        `gorm:"foreignKey:OrderID;references:ID"`
	StatusEvents []OrderStatusEvent `gorm:"foreignKey:OrderID;references:ID"`
}

func (Order) TableName() string { return "orders" }

func (o *Order) BeforeCreate(*gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}

// OrderItem is a line of the cart as it was at submission.
type OrderItem struct {
	ID       uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID  uuid.UUID       `gorm:"column:order_id;type:uuid;not null"`
	ItemID   string          `gorm:"column:item_id;not null"`
	Name     string          `gorm:"column:name;not null"`
	Price    decimal.Decimal `gorm:"column:price;type:numeric(10,2);not null"`
	Quantity int             `gorm:"column:quantity;not null"`
	Image    *string         `gorm:"column:image"`
}

func (OrderItem) TableName() string { return "order_items" }

func (i *OrderItem) BeforeCreate(*gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

// OrderStatusEvent is one entry of an order's append-only status history.
type OrderStatusEvent struct {
	ID        uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID   uuid.UUID         `gorm:"column:order_id;type:uuid;not null"`
	Status    enums.OrderStatus `gorm:"column:status;type:text;not null"`
	Note      *string           `gorm:"column:note"`
	ActorID   *uuid.UUID        `gorm:"column:actor_id;type:uuid"`
	CreatedAt time.Time         `gorm:"column:created_at;autoCreateTime"`
}

func (OrderStatusEvent) TableName() string { return "order_status_events" }

func (e *OrderStatusEvent) BeforeCreate(*gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}
