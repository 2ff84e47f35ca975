package middleware

import (
	"context"
	"net/http"

	"github.com/angelmondragon/foodcart-backend/internal/cart"
	"github.com/angelmondragon/foodcart-backend/pkg/logger"
)

// DefaultCartSessionHeader carries the anonymous cart namespace.
const DefaultCartSessionHeader = "X-Cart-Session"

// GuestCartAdopter moves an anonymous cart under a signed-in session.
type GuestCartAdopter interface {
	AdoptGuestCart(ctx context.Context, sess cart.Session) error
}

// CartSession resolves the snapshot namespace for the request. It must run
// after OptionalAuth so signed-in users are keyed by their id. Resolution
// failures are stored, not rendered: only cart routes need a session.
//
// A signed-in request that still sends the session header gets the cart it
// built while anonymous. A failed move is logged and the request goes on with
// the user's own cart.
func CartSession(header string, adopter GuestCartAdopter, logg *logger.Logger) func(http.Handler) http.Handler {
	if header == "" {
		header = DefaultCartSessionHeader
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			sess, err := cart.ResolveSession(r.Header.Get(header), UserUUIDFromContext(ctx))
			if err != nil {
				next.ServeHTTP(w, r.WithContext(withCartSessionError(ctx, err)))
				return
			}
			ctx = WithCartSession(ctx, sess)
			if logg != nil {
				ctx = logg.WithSessionID(ctx, sess.ID)
			}
			if _, ok := sess.Guest(); ok && adopter != nil {
				if err := adopter.AdoptGuestCart(ctx, sess); err != nil && logg != nil {
					logg.WarnErr(ctx, "guest cart not moved", err)
				}
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
