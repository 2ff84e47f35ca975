package controllers

import (
	"net/http"

	"github.com/angelmondragon/foodcart-backend/api/responses"
	"github.com/angelmondragon/foodcart-backend/api/validators"
	"github.com/angelmondragon/foodcart-backend/internal/promotions"
	pkgerrors "github.com/angelmondragon/foodcart-backend/pkg/errors"
	"github.com/angelmondragon/foodcart-backend/pkg/logger"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type validateCouponRequest struct {
	Code         string          `json:"code" validate:"required,max=64"`
	Subtotal     decimal.Decimal `json:"subtotal"`
	RestaurantID *string         `json:"restaurant_id" validate:"omitempty,uuid"`
}

type validateCouponResponse struct {
	Code       string          `json:"code"`
	Type       string          `json:"type"`
	Percentage decimal.Decimal `json:"percentage"`
	Tags       []string        `json:"tags"`
}

// CouponValidate checks a code against a subtotal without touching the cart.
func CouponValidate(v promotions.Validator, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req validateCouponRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := promotions.ValidateInput{Code: req.Code, Subtotal: req.Subtotal}
		if req.RestaurantID != nil {
			id, err := uuid.Parse(*req.RestaurantID)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid restaurant_id"))
				return
			}
			input.RestaurantID = &id
		}

		discount, err := v.Validate(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, validateCouponResponse{
			Code:       discount.Code,
			Type:       string(discount.CouponType),
			Percentage: discount.Percentage,
			Tags:       tagsOrEmpty(discount.Tags),
		})
	}
}

func tagsOrEmpty(tags []string) []string {
	if tags == nil {
		return []string{}
	}
	return tags
}
