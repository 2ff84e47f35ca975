package orders

import (
	"strings"

	"github.com/angelmondragon/foodcart-backend/pkg/enums"
	"github.com/shopspring/decimal"
)

var (
	smallOrderThreshold = decimal.NewFromInt(30)
	largeOrderThreshold = decimal.NewFromInt(100)

	drinkKeywords = []string{
		"drink", "soda", "juice", "water", "beer", "coke", "tea", "lemonade",
		"refrigerante", "suco", "agua", "água", "cerveja", "cha", "chá", "limonada",
	}
)

// Suggestions returns static hints about the order's shape.
func Suggestions(order Order) []string {
	out := []string{}
	if !hasDrink(order.Items) {
		out = append(out, "Consider adding a drink to your order.")
	}
	if order.Subtotal.Decimal().LessThan(smallOrderThreshold) {
		out = append(out, "Small order: a side or a dessert could make it worth the delivery fee.")
	}
	if !order.Total.Decimal().LessThan(largeOrderThreshold) && (order.Notes == nil || strings.TrimSpace(*order.Notes) == "") {
		out = append(out, "Large order: add delivery notes so the courier can find you quickly.")
	}
	if order.PaymentMethod == enums.PaymentMethodCash {
		out = append(out, "Paying with cash: tell us in the notes if you need change.")
	}
	return out
}

func hasDrink(items []OrderItem) bool {
	for _, item := range items {
		name := strings.ToLower(item.Name)
		for _, word := range strings.FieldsFunc(name, isWordSeparator) {
			for _, keyword := range drinkKeywords {
				if word == keyword {
					return true
				}
			}
		}
	}
	return false
}

func isWordSeparator(r rune) bool {
	return r == ' ' || r == '-' || r == '_' || r == ',' || r == '/' || r == '(' || r == ')'
}
