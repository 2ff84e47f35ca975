package cart

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

// Pricing is derived from Data and never stored on its own.
type Pricing struct {
	Subtotal      decimal.Decimal
	DiscountValue decimal.Decimal
	DeliveryFee   decimal.Decimal
	Total         decimal.Decimal
}

// CalculatePricing computes totals without rounding; presentation rounds to
// cents at the response boundary.
func CalculatePricing(data Data) Pricing {
	subtotal := decimal.Zero
	for _, item := range data.Items {
		subtotal = subtotal.Add(item.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	discountValue := subtotal.Mul(clampPercent(data.Discount)).Div(hundred)
	return Pricing{
		Subtotal:      subtotal,
		DiscountValue: discountValue,
		DeliveryFee:   data.DeliveryFee,
		Total:         subtotal.Sub(discountValue).Add(data.DeliveryFee),
	}
}

// ToCheckoutData freezes the cart and its pricing for the checkout step.
func ToCheckoutData(data Data) CheckoutData {
	pricing := CalculatePricing(data)
	items := make([]Item, len(data.Items))
	copy(items, data.Items)
	return CheckoutData{
		RestaurantID:  data.RestaurantID,
		Items:         items,
		Subtotal:      pricing.Subtotal,
		Discount:      clampPercent(data.Discount),
		DiscountValue: pricing.DiscountValue,
		DeliveryFee:   data.DeliveryFee,
		Total:         pricing.Total,
		CouponCode:    data.CouponCode,
	}
}

func clampPercent(p decimal.Decimal) decimal.Decimal {
	if p.IsNegative() {
		return decimal.Zero
	}
	if p.GreaterThan(hundred) {
		return hundred
	}
	return p
}
