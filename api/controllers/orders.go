package controllers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/angelmondragon/foodcart-backend/api/responses"
	"github.com/angelmondragon/foodcart-backend/api/validators"
	"github.com/angelmondragon/foodcart-backend/internal/addresses"
	"github.com/angelmondragon/foodcart-backend/internal/orders"
	"github.com/angelmondragon/foodcart-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/foodcart-backend/pkg/errors"
	"github.com/angelmondragon/foodcart-backend/pkg/logger"
	"github.com/angelmondragon/foodcart-backend/pkg/pagination"
	"github.com/google/uuid"
)

type submitOrderRequest struct {
	RestaurantID  *string         `json:"restaurant_id" validate:"omitempty,uuid"`
	PaymentMethod string          `json:"payment_method" validate:"required,payment_method"`
	Notes         string          `json:"notes" validate:"max=500"`
	AddressID     *string         `json:"address_id" validate:"omitempty,uuid"`
	Address       json.RawMessage `json:"address"`
}

type updateStatusRequest struct {
	Status string `json:"status" validate:"required"`
	Note   string `json:"note" validate:"max=500"`
}

func parseOptionalUUID(raw *string, field string) (*uuid.UUID, error) {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return nil, nil
	}
	id, err := uuid.Parse(strings.TrimSpace(*raw))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid "+field)
	}
	return &id, nil
}

func (req submitOrderRequest) toInput() (orders.SubmitInput, error) {
	restaurantID, err := parseOptionalUUID(req.RestaurantID, "restaurant_id")
	if err != nil {
		return orders.SubmitInput{}, err
	}
	addressID, err := parseOptionalUUID(req.AddressID, "address_id")
	if err != nil {
		return orders.SubmitInput{}, err
	}

	method, err := enums.ParsePaymentMethod(req.PaymentMethod)
	if err != nil {
		return orders.SubmitInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid payment_method")
	}

	input := orders.SubmitInput{
		RestaurantID:  restaurantID,
		PaymentMethod: method,
		Notes:         validators.SanitizeString(req.Notes, 500),
		AddressID:     addressID,
	}
	if addressID == nil && len(req.Address) > 0 && string(req.Address) != "null" {
		rec, err := addresses.DecodeRecord(req.Address)
		if err != nil {
			return orders.SubmitInput{}, err
		}
		manual := rec.Address
		input.ManualAddress = &manual
	}
	return input, nil
}

// OrderSubmit turns the checkout snapshot into an order. Suggestions are
// only returned when enabled.
func OrderSubmit(svc orders.Service, suggestionsEnabled bool, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := cartSessionFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var req submitOrderRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input, err := req.toInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Submit(r.Context(), sess, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if !suggestionsEnabled {
			result.Suggestions = []string{}
		}
		responses.WriteCreated(w, result.DetailPath, result)
	}
}

func OrdersList(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := userIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		page, err := svc.ListForUser(r.Context(), userID, pagination.Params{
			Limit:  limit,
			Cursor: strings.TrimSpace(r.URL.Query().Get("cursor")),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, page)
	}
}

func OrderGet(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		orderID, err := validators.ParseURLUUID(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		order, err := svc.Get(r.Context(), actor, orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

func OrderUpdateStatus(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		orderID, err := validators.ParseURLUUID(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var req updateStatusRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		order, err := svc.UpdateStatus(r.Context(), actor, orderID, orders.UpdateStatusInput{
			Status: enums.OrderStatus(strings.TrimSpace(req.Status)),
			Note:   validators.SanitizeString(req.Note, 500),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}
