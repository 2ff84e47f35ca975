package controllers

import (
	"github.com/angelmondragon/foodcart-backend/internal/addresses"
	"github.com/angelmondragon/foodcart-backend/internal/cart"
	"github.com/angelmondragon/foodcart-backend/internal/checkout"
	"github.com/angelmondragon/foodcart-backend/pkg/types"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type cartItemResponse struct {
	ID        string      `json:"id"`
	Name      string      `json:"name"`
	Price     types.Money `json:"price"`
	Image     string      `json:"image,omitempty"`
	Quantity  int         `json:"quantity"`
	LineTotal types.Money `json:"line_total"`
}

type pricingResponse struct {
	Subtotal      types.Money `json:"subtotal"`
	DiscountValue types.Money `json:"discount_value"`
	DeliveryFee   types.Money `json:"delivery_fee"`
	Total         types.Money `json:"total"`
}

type restaurantResponse struct {
	ID          uuid.UUID   `json:"id"`
	Name        string      `json:"name"`
	DeliveryFee types.Money `json:"delivery_fee"`
}

type cartResponse struct {
	Restaurant *restaurantResponse `json:"restaurant"`
	Items      []cartItemResponse  `json:"items"`
	Discount   decimal.Decimal     `json:"discount"`
	CouponCode string              `json:"coupon_code,omitempty"`
	Pricing    pricingResponse     `json:"pricing"`
	Notice     string              `json:"notice,omitempty"`
}

func newItemResponses(items []cart.Item) []cartItemResponse {
	out := make([]cartItemResponse, 0, len(items))
	for _, item := range items {
		out = append(out, cartItemResponse{
			ID:        item.ID,
			Name:      item.Name,
			Price:     types.NewMoney(item.Price),
			Image:     item.Image,
			Quantity:  item.Quantity,
			LineTotal: types.NewMoney(item.Price.Mul(decimal.NewFromInt(int64(item.Quantity)))),
		})
	}
	return out
}

func newCartResponse(view *cart.View) cartResponse {
	resp := cartResponse{
		Items:      newItemResponses(view.Cart.Items),
		Discount:   view.Cart.Discount,
		CouponCode: view.Cart.CouponCode,
		Pricing: pricingResponse{
			Subtotal:      types.NewMoney(view.Pricing.Subtotal),
			DiscountValue: types.NewMoney(view.Pricing.DiscountValue),
			DeliveryFee:   types.NewMoney(view.Pricing.DeliveryFee),
			Total:         types.NewMoney(view.Pricing.Total),
		},
		Notice: view.Notice,
	}
	if view.Restaurant != nil {
		resp.Restaurant = &restaurantResponse{
			ID:          view.Restaurant.ID,
			Name:        view.Restaurant.Name,
			DeliveryFee: types.NewMoney(view.Restaurant.DeliveryFee),
		}
	}
	return resp
}

type checkoutResponse struct {
	RestaurantID         uuid.UUID           `json:"restaurant_id"`
	Items                []cartItemResponse  `json:"items"`
	Subtotal             types.Money         `json:"subtotal"`
	Discount             decimal.Decimal     `json:"discount"`
	DiscountValue        types.Money         `json:"discount_value"`
	DeliveryFee          types.Money         `json:"delivery_fee"`
	Total                types.Money         `json:"total"`
	CouponCode           string              `json:"coupon_code,omitempty"`
	Addresses            []addresses.Address `json:"addresses"`
	SelectedAddressID    *uuid.UUID          `json:"selected_address_id,omitempty"`
	AddressesUnavailable bool                `json:"addresses_unavailable,omitempty"`
}

func newCheckoutResponse(c *checkout.Context) checkoutResponse {
	resp := checkoutResponse{
		RestaurantID:         c.Data.RestaurantID,
		Items:                newItemResponses(c.Data.Items),
		Subtotal:             types.NewMoney(c.Data.Subtotal),
		Discount:             c.Data.Discount,
		DiscountValue:        types.NewMoney(c.Data.DiscountValue),
		DeliveryFee:          types.NewMoney(c.Data.DeliveryFee),
		Total:                types.NewMoney(c.Data.Total),
		CouponCode:           c.Data.CouponCode,
		Addresses:            c.Addresses,
		AddressesUnavailable: c.AddressesUnavailable,
	}
	if resp.Addresses == nil {
		resp.Addresses = []addresses.Address{}
	}
	if c.SelectedAddress != nil {
		id := c.SelectedAddress.ID
		resp.SelectedAddressID = &id
	}
	return resp
}
