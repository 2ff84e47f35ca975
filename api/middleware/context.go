package middleware

import (
	"context"

	"github.com/angelmondragon/foodcart-backend/internal/cart"
	pkgerrors "github.com/angelmondragon/foodcart-backend/pkg/errors"
	"github.com/google/uuid"
)

type contextKey string

const (
	ctxUserID      contextKey = "user_id"
	ctxRole        contextKey = "actor_role"
	ctxCartSession contextKey = "cart_session"
)

type sessionResolution struct {
	session cart.Session
	err     error
}

func UserIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxUserID).(string); ok {
		return v
	}
	return ""
}

// UserUUIDFromContext returns the authenticated user id, or nil for
// anonymous requests.
func UserUUIDFromContext(ctx context.Context) *uuid.UUID {
	raw := UserIDFromContext(ctx)
	if raw == "" {
		return nil
	}
	id, err := uuid.Parse(raw)
	if err != nil || id == uuid.Nil {
		return nil
	}
	return &id
}

func RoleFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxRole).(string); ok {
		return v
	}
	return ""
}

// WithUserID injects the user identifier into the context.
func WithUserID(ctx context.Context, userID string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxUserID, userID)
}

// WithRole injects the caller's role into the context.
func WithRole(ctx context.Context, role string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxRole, role)
}

// WithCartSession stores a resolved cart session.
func WithCartSession(ctx context.Context, sess cart.Session) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxCartSession, sessionResolution{session: sess})
}

func withCartSessionError(ctx context.Context, err error) context.Context {
	return context.WithValue(ctx, ctxCartSession, sessionResolution{err: err})
}

// CartSessionFromContext returns the session resolved by CartSession, or the
// reason it could not be resolved.
func CartSessionFromContext(ctx context.Context) (cart.Session, error) {
	if ctx != nil {
		if v, ok := ctx.Value(ctxCartSession).(sessionResolution); ok {
			return v.session, v.err
		}
	}
	return cart.Session{}, pkgerrors.New(pkgerrors.CodeValidation, "cart session is required")
}
