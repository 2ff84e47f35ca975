package orders

import (
	"testing"

	"github.com/angelmondragon/foodcart-backend/pkg/enums"
	"github.com/angelmondragon/foodcart-backend/pkg/types"
	"github.com/shopspring/decimal"
)

func money(v string) types.Money {
	return types.NewMoney(decimal.RequireFromString(v))
}

func TestSuggestions(t *testing.T) {
	notes := "gate code 42"
	cases := []struct {
		name  string
		order Order
		want  []string
	}{
		{
			name: "drink present and mid-sized order",
			order: Order{
				Items:         []OrderItem{{Name: "Pizza"}, {Name: "Suco de laranja"}},
				Subtotal:      money("60"),
				Total:         money("65"),
				PaymentMethod: enums.PaymentMethodPix,
			},
			want: []string{},
		},
		{
			name: "small order without a drink",
			order: Order{
				Items:         []OrderItem{{Name: "Coxinha"}},
				Subtotal:      money("12"),
				Total:         money("17"),
				PaymentMethod: enums.PaymentMethodCreditCard,
			},
			want: []string{
				"Consider adding a drink to your order.",
				"Small order: a side or a dessert could make it worth the delivery fee.",
			},
		},
		{
			name: "large cash order without notes",
			order: Order{
				Items:         []OrderItem{{Name: "Family combo"}, {Name: "Coke 2L"}},
				Subtotal:      money("120"),
				Total:         money("125"),
				PaymentMethod: enums.PaymentMethodCash,
			},
			want: []string{
				"Large order: add delivery notes so the courier can find you quickly.",
				"Paying with cash: tell us in the notes if you need change.",
			},
		},
		{
			name: "large order with notes",
			order: Order{
				Items:         []OrderItem{{Name: "Water"}},
				Subtotal:      money("150"),
				Total:         money("150"),
				Notes:         &notes,
				PaymentMethod: enums.PaymentMethodDebitCard,
			},
			want: []string{},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Suggestions(tc.order)
			if len(got) != len(tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, got)
			}
			for i := range got {
				if got[i] != tc.want[i] {
					t.Fatalf("expected %q at %d, got %q", tc.want[i], i, got[i])
				}
			}
		})
	}
}

func TestSuggestionsDoesNotMatchSubstrings(t *testing.T) {
	got := Suggestions(Order{
		Items:    []OrderItem{{Name: "Steak"}},
		Subtotal: money("40"),
		Total:    money("45"),
	})
	if len(got) != 1 || got[0] != "Consider adding a drink to your order." {
		t.Fatalf("expected drink hint only, got %v", got)
	}
}
