package controllers

import (
	"net/http"
	"strings"

	"github.com/angelmondragon/foodcart-backend/api/responses"
	"github.com/angelmondragon/foodcart-backend/api/validators"
	"github.com/angelmondragon/foodcart-backend/internal/cart"
	pkgerrors "github.com/angelmondragon/foodcart-backend/pkg/errors"
	"github.com/angelmondragon/foodcart-backend/pkg/logger"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CheckoutPath is where clients go after the cart is saved for checkout.
const CheckoutPath = "/checkout"

type addItemRequest struct {
	RestaurantID string         `json:"restaurant_id" validate:"required,uuid"`
	Item         addItemPayload `json:"item"`
}

type addItemPayload struct {
	ID       string          `json:"id" validate:"required,max=64"`
	Name     string          `json:"name" validate:"required,max=200"`
	Price    decimal.Decimal `json:"price"`
	Image    string          `json:"image" validate:"omitempty,max=500"`
	Quantity int             `json:"quantity" validate:"omitempty,min=1,max=99"`
}

type couponRequest struct {
	Code string `json:"code" validate:"required,max=64"`
}

type saveCheckoutResponse struct {
	Saved    bool   `json:"saved"`
	Redirect string `json:"redirect,omitempty"`
}

type cartViewFunc func(r *http.Request, sess cart.Session) (*cart.View, error)

// cartHandler resolves the session, runs fn and renders the resulting view.
func cartHandler(logg *logger.Logger, fn cartViewFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := cartSessionFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		view, err := fn(r, sess)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newCartResponse(view))
	}
}

func itemIDParam(r *http.Request) (string, error) {
	id := strings.TrimSpace(chi.URLParam(r, "itemId"))
	if id == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "item id is required")
	}
	return id, nil
}

func CartGet(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return cartHandler(logg, func(r *http.Request, sess cart.Session) (*cart.View, error) {
		return svc.Load(r.Context(), sess)
	})
}

func CartAddItem(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return cartHandler(logg, func(r *http.Request, sess cart.Session) (*cart.View, error) {
		var req addItemRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			return nil, err
		}
		restaurantID, err := uuid.Parse(req.RestaurantID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid restaurant_id")
		}
		quantity := req.Item.Quantity
		if quantity == 0 {
			quantity = 1
		}
		return svc.AddItem(r.Context(), sess, cart.AddItemInput{
			RestaurantID: restaurantID,
			Item: cart.Item{
				ID:       strings.TrimSpace(req.Item.ID),
				Name:     validators.SanitizeString(req.Item.Name, 200),
				Price:    req.Item.Price,
				Image:    strings.TrimSpace(req.Item.Image),
				Quantity: quantity,
			},
		})
	})
}

func CartIncreaseItem(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return cartHandler(logg, func(r *http.Request, sess cart.Session) (*cart.View, error) {
		itemID, err := itemIDParam(r)
		if err != nil {
			return nil, err
		}
		return svc.IncreaseQuantity(r.Context(), sess, itemID)
	})
}

func CartDecreaseItem(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return cartHandler(logg, func(r *http.Request, sess cart.Session) (*cart.View, error) {
		itemID, err := itemIDParam(r)
		if err != nil {
			return nil, err
		}
		return svc.DecreaseQuantity(r.Context(), sess, itemID)
	})
}

func CartRemoveItem(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return cartHandler(logg, func(r *http.Request, sess cart.Session) (*cart.View, error) {
		itemID, err := itemIDParam(r)
		if err != nil {
			return nil, err
		}
		return svc.RemoveItem(r.Context(), sess, itemID)
	})
}

func CartApplyCoupon(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return cartHandler(logg, func(r *http.Request, sess cart.Session) (*cart.View, error) {
		var req couponRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			return nil, err
		}
		return svc.ApplyCoupon(r.Context(), sess, req.Code)
	})
}

func CartClearCoupon(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return cartHandler(logg, func(r *http.Request, sess cart.Session) (*cart.View, error) {
		return svc.ClearDiscount(r.Context(), sess)
	})
}

func CartClear(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := cartSessionFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.Clear(r.Context(), sess); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteNoContent(w)
	}
}

// CartSaveCheckout persists the checkout snapshot. An empty cart reports
// saved=false without a redirect.
func CartSaveCheckout(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := cartSessionFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		saved, err := svc.SaveCheckoutData(r.Context(), sess)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		resp := saveCheckoutResponse{Saved: saved}
		if saved {
			resp.Redirect = CheckoutPath
		}
		responses.WriteSuccess(w, resp)
	}
}
