package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/foodcart-backend/api/controllers"
	"github.com/angelmondragon/foodcart-backend/api/middleware"
	"github.com/angelmondragon/foodcart-backend/internal/addresses"
	"github.com/angelmondragon/foodcart-backend/internal/cart"
	"github.com/angelmondragon/foodcart-backend/internal/checkout"
	"github.com/angelmondragon/foodcart-backend/internal/orders"
	"github.com/angelmondragon/foodcart-backend/internal/promotions"
	"github.com/angelmondragon/foodcart-backend/pkg/config"
	"github.com/angelmondragon/foodcart-backend/pkg/logger"
)

// Services are the domain entry points mounted by the router.
type Services struct {
	Cart      cart.Service
	Coupons   promotions.Validator
	Checkout  checkout.Loader
	Addresses addresses.Service
	Orders    orders.Service
}

// Infra holds readiness probes and the metrics registry.
type Infra struct {
	DB       controllers.Pinger
	Redis    controllers.Pinger
	Gatherer prometheus.Gatherer
}

func NewRouter(cfg *config.Config, logg *logger.Logger, infra Infra, svc Services) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, map[string]controllers.Pinger{
			"database": infra.DB,
			"redis":    infra.Redis,
		}))
	})

	if infra.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(infra.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		// The cart session depends on the authenticated user, so auth runs first.
		// It also moves a guest cart under the user on the first signed-in call.
		r.Use(middleware.OptionalAuth(cfg.JWT, logg))
		r.Use(middleware.CartSession(cfg.Cart.SessionHeader, svc.Cart, logg))

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", controllers.CartGet(svc.Cart, logg))
			r.Delete("/", controllers.CartClear(svc.Cart, logg))
			r.Post("/items", controllers.CartAddItem(svc.Cart, logg))
			r.Post("/items/{itemId}/increase", controllers.CartIncreaseItem(svc.Cart, logg))
			r.Post("/items/{itemId}/decrease", controllers.CartDecreaseItem(svc.Cart, logg))
			r.Delete("/items/{itemId}", controllers.CartRemoveItem(svc.Cart, logg))
			r.Post("/coupon", controllers.CartApplyCoupon(svc.Cart, logg))
			r.Delete("/coupon", controllers.CartClearCoupon(svc.Cart, logg))
			r.Post("/checkout", controllers.CartSaveCheckout(svc.Cart, logg))
		})

		r.Post("/coupons/validate", controllers.CouponValidate(svc.Coupons, logg))
		r.Get("/checkout", controllers.CheckoutGet(svc.Checkout, logg))

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireUser(logg))

			r.Route("/addresses", func(r chi.Router) {
				r.Get("/", controllers.AddressesList(svc.Addresses, logg))
				r.Post("/", controllers.AddressCreate(svc.Addresses, logg))
				r.Post("/{addressId}/default", controllers.AddressSetDefault(svc.Addresses, logg))
				r.Delete("/{addressId}", controllers.AddressDelete(svc.Addresses, logg))
			})

			r.Route("/orders", func(r chi.Router) {
				r.Get("/", controllers.OrdersList(svc.Orders, logg))
				r.Post("/", controllers.OrderSubmit(svc.Orders, cfg.Checkout.SuggestionsEnabled, logg))
				r.Get("/{orderId}", controllers.OrderGet(svc.Orders, logg))
				r.Post("/{orderId}/status", controllers.OrderUpdateStatus(svc.Orders, logg))
			})
		})
	})

	return r
}
