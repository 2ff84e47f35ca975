package cart

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Item is one line of the cart.
type Item struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Image    string          `json:"image,omitempty"`
	Quantity int             `json:"quantity"`
}

// Data is the persisted cart snapshot. RestaurantID is implied by the key the
// snapshot lives under and is filled in on read.
type Data struct {
	RestaurantID uuid.UUID       `json:"-"`
	Items        []Item          `json:"items"`
	Discount     decimal.Decimal `json:"discount"`
	CouponCode   string          `json:"couponCode,omitempty"`
	DeliveryFee  decimal.Decimal `json:"deliveryFee"`
}

// IsEmpty reports whether the cart has no lines.
func (d Data) IsEmpty() bool {
	return len(d.Items) == 0
}

func (d Data) indexOf(itemID string) int {
	for i := range d.Items {
		if d.Items[i].ID == itemID {
			return i
		}
	}
	return -1
}

// normalize applies defaults to a decoded snapshot so arithmetic never sees
// missing values.
func (d *Data) normalize() {
	if d.Items == nil {
		d.Items = []Item{}
	}
	for i := range d.Items {
		if d.Items[i].Quantity < 1 {
			d.Items[i].Quantity = 1
		}
		if d.Items[i].Price.IsNegative() {
			d.Items[i].Price = decimal.Zero
		}
	}
	d.Discount = clampPercent(d.Discount)
	if d.DeliveryFee.IsNegative() {
		d.DeliveryFee = decimal.Zero
	}
}

// CheckoutData is the frozen snapshot handed from the cart to checkout.
type CheckoutData struct {
	RestaurantID  uuid.UUID       `json:"restaurantId"`
	Items         []Item          `json:"items"`
	Subtotal      decimal.Decimal `json:"subtotal"`
	Discount      decimal.Decimal `json:"discount"`
	DiscountValue decimal.Decimal `json:"discountValue"`
	DeliveryFee   decimal.Decimal `json:"deliveryFee"`
	Total         decimal.Decimal `json:"total"`
	CouponCode    string          `json:"couponCode,omitempty"`
}

// Normalize defaults missing collections after decoding.
func (c *CheckoutData) Normalize() {
	if c.Items == nil {
		c.Items = []Item{}
	}
}

// Restaurant is the cart-scoped restaurant summary.
type Restaurant struct {
	ID          uuid.UUID
	Name        string
	DeliveryFee decimal.Decimal
}

// View is what callers get back from every cart operation.
type View struct {
	Restaurant *Restaurant
	Cart       Data
	Pricing    Pricing
	// Notice is a user-facing message for degraded loads and confirmations.
	Notice string
}

// AddItemInput adds a line for a restaurant. Quantity defaults to 1.
type AddItemInput struct {
	RestaurantID uuid.UUID
	Item         Item
}
