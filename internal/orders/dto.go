package orders

import (
	"time"

	"github.com/angelmondragon/foodcart-backend/pkg/db/models"
	"github.com/angelmondragon/foodcart-backend/pkg/enums"
	"github.com/angelmondragon/foodcart-backend/pkg/types"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Order is the read model returned to callers.
type Order struct {
	ID            uuid.UUID             `json:"id"`
	UserID        uuid.UUID             `json:"user_id"`
	RestaurantID  uuid.UUID             `json:"restaurant_id"`
	Items         []OrderItem           `json:"items"`
	Subtotal      types.Money           `json:"subtotal"`
	Discount      decimal.Decimal       `json:"discount"`
	DiscountValue types.Money           `json:"discount_value"`
	DeliveryFee   types.Money           `json:"delivery_fee"`
	Total         types.Money           `json:"total"`
	PaymentMethod enums.PaymentMethod   `json:"payment_method"`
	Notes         *string               `json:"notes,omitempty"`
	Address       types.DeliveryAddress `json:"address"`
	Status        enums.OrderStatus     `json:"status"`
	CreatedAt     time.Time             `json:"created_at"`
	History       []StatusEvent         `json:"history,omitempty"`
}

// OrderItem is one frozen cart line.
type OrderItem struct {
	ItemID   string      `json:"item_id"`
	Name     string      `json:"name"`
	Price    types.Money `json:"price"`
	Quantity int         `json:"quantity"`
	Image    *string     `json:"image,omitempty"`
}

// StatusEvent is one entry of the order's status history.
type StatusEvent struct {
	Status    enums.OrderStatus `json:"status"`
	Note      *string           `json:"note,omitempty"`
	ActorID   *uuid.UUID        `json:"actor_id,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
}

// SubmitResult identifies the created order and where to view it.
type SubmitResult struct {
	OrderID     uuid.UUID `json:"order_id"`
	DetailPath  string    `json:"detail_path"`
	Order       Order     `json:"order"`
	Suggestions []string  `json:"suggestions"`
}

// FromModel maps the persisted order into the read model.
func FromModel(m models.Order) Order {
	out := Order{
		ID:            m.ID,
		UserID:        m.UserID,
		RestaurantID:  m.RestaurantID,
		Items:         make([]OrderItem, 0, len(m.Items)),
		Subtotal:      types.NewMoney(m.Subtotal),
		Discount:      m.Discount,
		DiscountValue: types.NewMoney(m.DiscountValue),
		DeliveryFee:   types.NewMoney(m.DeliveryFee),
		Total:         types.NewMoney(m.Total),
		PaymentMethod: m.PaymentMethod,
		Notes:         m.Notes,
		Address:       m.Address,
		Status:        m.Status,
		CreatedAt:     m.CreatedAt,
	}
	for _, item := range m.Items {
		out.Items = append(out.Items, OrderItem{
			ItemID:   item.ItemID,
			Name:     item.Name,
			Price:    types.NewMoney(item.Price),
			Quantity: item.Quantity,
			Image:    item.Image,
		})
	}
	for _, event := range m.StatusEvents {
		out.History = append(out.History, StatusEvent{
			Status:    event.Status,
			Note:      event.Note,
			ActorID:   event.ActorID,
			CreatedAt: event.CreatedAt,
		})
	}
	return out
}
