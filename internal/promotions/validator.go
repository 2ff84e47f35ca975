package promotions

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/foodcart-backend/pkg/db"
	"github.com/angelmondragon/foodcart-backend/pkg/db/models"
	"github.com/angelmondragon/foodcart-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/foodcart-backend/pkg/errors"
	"github.com/angelmondragon/foodcart-backend/pkg/metrics"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	msgInvalidCoupon   = "invalid or expired coupon"
	msgWrongRestaurant = "coupon is not valid for this restaurant"
	msgEmptySubtotal   = "add items to the cart before applying a coupon"
)

var hundred = decimal.NewFromInt(100)

// ValidateInput is what the cart knows when a code is entered.
type ValidateInput struct {
	Code         string
	Subtotal     decimal.Decimal
	RestaurantID *uuid.UUID
}

// Discount is a validated coupon expressed as a percentage of the subtotal.
type Discount struct {
	Code       string
	CouponType enums.CouponType
	Percentage decimal.Decimal
	// Tags are the promotion's display labels, never nil.
	Tags []string
}

// Validator turns a user-entered code into a percentage discount.
type Validator interface {
	Validate(ctx context.Context, input ValidateInput) (Discount, error)
	// Apply validates and hands the discount to onApplied. The validator never
	// touches cart state itself.
	Apply(ctx context.Context, input ValidateInput, onApplied func(Discount) error) (Discount, error)
}

type validator struct {
	repo    Repository
	metrics *metrics.CheckoutMetrics
	now     func() time.Time
}

// NewValidator builds a coupon validator. A nil clock defaults to time.Now.
func NewValidator(repo Repository, m *metrics.CheckoutMetrics, now func() time.Time) (Validator, error) {
	if repo == nil {
		return nil, fmt.Errorf("promotions repository required")
	}
	if now == nil {
		now = time.Now
	}
	return &validator{repo: repo, metrics: m, now: now}, nil
}

func (v *validator) Validate(ctx context.Context, input ValidateInput) (Discount, error) {
	discount, err := v.validate(ctx, input)
	switch {
	case err == nil:
		v.metrics.IncCouponValidation(metrics.OutcomeAccepted)
	case pkgerrors.HasCode(err, pkgerrors.CodeValidation):
		v.metrics.IncCouponValidation(metrics.OutcomeRejected)
	default:
		v.metrics.IncCouponValidation(metrics.OutcomeFailed)
	}
	return discount, err
}

func (v *validator) Apply(ctx context.Context, input ValidateInput, onApplied func(Discount) error) (Discount, error) {
	discount, err := v.Validate(ctx, input)
	if err != nil {
		return Discount{}, err
	}
	if onApplied != nil {
		if err := onApplied(discount); err != nil {
			return Discount{}, err
		}
	}
	return discount, nil
}

func (v *validator) validate(ctx context.Context, input ValidateInput) (Discount, error) {
	code := NormalizeCode(input.Code)
	if code == "" {
		return Discount{}, pkgerrors.New(pkgerrors.CodeValidation, "coupon code is required")
	}

	promo, err := v.repo.FindByCode(ctx, code)
	if err != nil {
		if db.IsNotFound(err) {
			return Discount{}, pkgerrors.New(pkgerrors.CodeValidation, msgInvalidCoupon)
		}
		return Discount{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup coupon")
	}
	if !promo.ActiveAt(v.now()) {
		return Discount{}, pkgerrors.New(pkgerrors.CodeValidation, msgInvalidCoupon)
	}

	if promo.RestaurantID != nil {
		if input.RestaurantID == nil || *input.RestaurantID != *promo.RestaurantID {
			return Discount{}, pkgerrors.New(pkgerrors.CodeValidation, msgWrongRestaurant)
		}
	}

	if promo.MinimumOrderValue.IsPositive() && input.Subtotal.LessThan(promo.MinimumOrderValue) {
		return Discount{}, pkgerrors.Newf(pkgerrors.CodeValidation,
			"minimum order value for this coupon is R$ %s", promo.MinimumOrderValue.StringFixed(2)).
			WithDetails(map[string]any{"minimum_order_value": promo.MinimumOrderValue.StringFixed(2)})
	}

	percentage, err := toPercentage(promo, input.Subtotal)
	if err != nil {
		return Discount{}, err
	}

	return Discount{
		Code:       strings.ToUpper(promo.Code),
		CouponType: promo.Type,
		Percentage: percentage,
		Tags:       append([]string{}, promo.Tags...),
	}, nil
}

// toPercentage normalizes a coupon so pricing only ever deals in percentages.
// Fixed amounts larger than the subtotal clamp to 100.
func toPercentage(promo *models.Promotion, subtotal decimal.Decimal) (decimal.Decimal, error) {
	var pct decimal.Decimal
	switch promo.Type {
	case enums.CouponTypePercentage:
		pct = promo.Value
	case enums.CouponTypeFixed:
		if !subtotal.IsPositive() {
			return decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, msgEmptySubtotal)
		}
		pct = promo.Value.Div(subtotal).Mul(hundred)
	default:
		return decimal.Zero, pkgerrors.Newf(pkgerrors.CodeInternal, "unknown coupon type %q", promo.Type)
	}
	if pct.GreaterThan(hundred) {
		return hundred, nil
	}
	if pct.IsNegative() {
		return decimal.Zero, nil
	}
	return pct, nil
}

// NormalizeCode trims and uppercases a user-entered coupon code.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
