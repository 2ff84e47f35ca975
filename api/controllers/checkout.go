package controllers

import (
	"net/http"

	"github.com/angelmondragon/foodcart-backend/api/responses"
	"github.com/angelmondragon/foodcart-backend/api/validators"
	"github.com/angelmondragon/foodcart-backend/internal/checkout"
	"github.com/angelmondragon/foodcart-backend/pkg/logger"
)

// CheckoutGet renders the saved checkout snapshot plus the caller's
// addresses. A missing snapshot answers 404 with a redirect detail.
func CheckoutGet(loader checkout.Loader, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := cartSessionFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		restaurantID, err := validators.ParseQueryUUID(r, "restaurant_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		ctx, err := loader.Load(r.Context(), sess, restaurantID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newCheckoutResponse(ctx))
	}
}
