package checkout

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/angelmondragon/foodcart-backend/internal/addresses"
	"github.com/angelmondragon/foodcart-backend/internal/cart"
	pkgerrors "github.com/angelmondragon/foodcart-backend/pkg/errors"
	"github.com/angelmondragon/foodcart-backend/pkg/logger"
	"github.com/angelmondragon/foodcart-backend/pkg/metrics"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// RedirectPath is where callers without checkout data are sent.
const RedirectPath = "/cart"

type snapshotReader interface {
	ReadCheckout(ctx context.Context, sess cart.Session, restaurantID *uuid.UUID) (*cart.CheckoutData, bool, error)
}

type addressLister interface {
	List(ctx context.Context, userID uuid.UUID) ([]addresses.Address, error)
}

// Context is everything the checkout page needs.
type Context struct {
	Data            cart.CheckoutData
	Addresses       []addresses.Address
	SelectedAddress *addresses.Address
	// AddressesUnavailable is set when the address fetch failed, so an empty
	// list does not mean the user has none saved.
	AddressesUnavailable bool
}

// Loader resolves the checkout context for a session.
type Loader interface {
	Load(ctx context.Context, sess cart.Session, restaurantID *uuid.UUID) (*Context, error)
}

type loader struct {
	snapshots snapshotReader
	addresses addressLister
	metrics   *metrics.CheckoutMetrics
	logg      *logger.Logger
}

// NewLoader wires the checkout loader.
func NewLoader(snapshots snapshotReader, addrs addressLister, m *metrics.CheckoutMetrics, logg *logger.Logger) (Loader, error) {
	if snapshots == nil {
		return nil, fmt.Errorf("checkout snapshot reader required")
	}
	if addrs == nil {
		return nil, fmt.Errorf("address lister required")
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &loader{snapshots: snapshots, addresses: addrs, metrics: m, logg: logg}, nil
}

// NoCheckoutData builds the NOT_FOUND error callers redirect on.
func NoCheckoutData() error {
	return pkgerrors.New(pkgerrors.CodeNotFound, "no checkout data").
		WithDetails(map[string]any{"redirect": RedirectPath})
}

// Load prefers the restaurant-scoped snapshot and falls back to the generic
// one. Address problems never fail the load.
func (l *loader) Load(ctx context.Context, sess cart.Session, restaurantID *uuid.UUID) (*Context, error) {
	if err := sess.Validate(); err != nil {
		return nil, err
	}

	data, err := l.resolve(ctx, sess, restaurantID)
	if err != nil {
		return nil, err
	}
	if data == nil {
		return nil, NoCheckoutData()
	}
	applyDefaults(data)

	out := &Context{Data: *data, Addresses: []addresses.Address{}}
	if !sess.Authenticated() {
		return out, nil
	}

	list, err := l.addresses.List(ctx, *sess.UserID)
	if err != nil {
		l.logg.WarnErr(l.logg.WithUserID(ctx, sess.UserID.String()), "checkout address fetch failed", err)
		l.metrics.IncDegradedLoad("address_fetch")
		out.AddressesUnavailable = true
		return out, nil
	}
	out.Addresses = DefaultFirst(list)
	out.SelectedAddress = SelectDefault(out.Addresses)
	return out, nil
}

func (l *loader) resolve(ctx context.Context, sess cart.Session, restaurantID *uuid.UUID) (*cart.CheckoutData, error) {
	if restaurantID != nil && *restaurantID != uuid.Nil {
		data, found, err := l.read(ctx, sess, restaurantID)
		if err != nil {
			return nil, err
		}
		if found {
			return data, nil
		}
	}
	data, found, err := l.read(ctx, sess, nil)
	if err != nil || !found {
		return nil, err
	}
	return data, nil
}

func (l *loader) read(ctx context.Context, sess cart.Session, restaurantID *uuid.UUID) (*cart.CheckoutData, bool, error) {
	data, found, err := l.snapshots.ReadCheckout(ctx, sess, restaurantID)
	if errors.Is(err, cart.ErrMalformedSnapshot) {
		l.logg.WarnErr(ctx, "discarding malformed checkout snapshot", err)
		l.metrics.IncDegradedLoad("malformed_snapshot")
		return nil, false, nil
	}
	if err != nil {
		return nil, false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read checkout data")
	}
	return data, found, nil
}

// applyDefaults keeps partial snapshots usable: missing collections become
// empty and negative figures are zeroed.
func applyDefaults(data *cart.CheckoutData) {
	data.Normalize()
	data.Subtotal = nonNegative(data.Subtotal)
	data.Discount = nonNegative(data.Discount)
	data.DiscountValue = nonNegative(data.DiscountValue)
	data.DeliveryFee = nonNegative(data.DeliveryFee)
	data.Total = nonNegative(data.Total)
}

func nonNegative(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}

// DefaultFirst orders addresses with the default first and keeps the rest in
// their original order.
func DefaultFirst(list []addresses.Address) []addresses.Address {
	out := make([]addresses.Address, len(list))
	copy(out, list)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].IsDefault && !out[j].IsDefault
	})
	return out
}

// SelectDefault picks the default address, or the first one when none is
// flagged.
func SelectDefault(list []addresses.Address) *addresses.Address {
	if len(list) == 0 {
		return nil
	}
	for i := range list {
		if list[i].IsDefault {
			selected := list[i]
			return &selected
		}
	}
	selected := list[0]
	return &selected
}
