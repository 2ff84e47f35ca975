package controllers

import (
	"net/http"

	"github.com/angelmondragon/foodcart-backend/api/middleware"
	"github.com/angelmondragon/foodcart-backend/internal/cart"
	"github.com/angelmondragon/foodcart-backend/internal/orders"
	"github.com/angelmondragon/foodcart-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/foodcart-backend/pkg/errors"
	"github.com/google/uuid"
)

func cartSessionFromRequest(r *http.Request) (cart.Session, error) {
	return middleware.CartSessionFromContext(r.Context())
}

func userIDFromRequest(r *http.Request) (uuid.UUID, error) {
	id := middleware.UserUUIDFromContext(r.Context())
	if id == nil {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "must be logged in")
	}
	return *id, nil
}

func actorFromRequest(r *http.Request) (orders.Actor, error) {
	userID, err := userIDFromRequest(r)
	if err != nil {
		return orders.Actor{}, err
	}
	return orders.Actor{
		UserID: userID,
		Staff:  middleware.RoleFromContext(r.Context()) == string(enums.UserRoleStaff),
	}, nil
}
