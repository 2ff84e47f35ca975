package checkout

import (
	"context"
	"errors"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/angelmondragon/foodcart-backend/internal/addresses"
	"github.com/angelmondragon/foodcart-backend/internal/cart"
	pkgerrors "github.com/angelmondragon/foodcart-backend/pkg/errors"
	redisclient "github.com/angelmondragon/foodcart-backend/pkg/redis"
	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
)

type stubAddresses struct {
	list  []addresses.Address
	err   error
	calls int
}

func (s *stubAddresses) List(ctx context.Context, userID uuid.UUID) ([]addresses.Address, error) {
	s.calls++
	return s.list, s.err
}

type loaderFixture struct {
	store  *cart.SnapshotStore
	srv    *miniredis.Miniredis
	addrs  *stubAddresses
	loader Loader
}

func newLoaderFixture(t *testing.T) *loaderFixture {
	t.Helper()
	srv := miniredis.RunT(t)
	client := redisclient.NewFromRaw(goredis.NewClient(&goredis.Options{Addr: srv.Addr()}))
	t.Cleanup(func() { _ = client.Close() })

	store, err := cart.NewSnapshotStore(client, 0)
	if err != nil {
		t.Fatalf("snapshot store: %v", err)
	}
	addrs := &stubAddresses{}
	l, err := NewLoader(store, addrs, nil, nil)
	if err != nil {
		t.Fatalf("new loader: %v", err)
	}
	return &loaderFixture{store: store, srv: srv, addrs: addrs, loader: l}
}

func checkoutData(restaurantID uuid.UUID, total string) cart.CheckoutData {
	return cart.CheckoutData{
		RestaurantID: restaurantID,
		Items:        []cart.Item{{ID: "burger", Name: "Burger", Price: decimal.RequireFromString("25"), Quantity: 2}},
		Subtotal:     decimal.RequireFromString("50"),
		DeliveryFee:  decimal.RequireFromString("5"),
		Total:        decimal.RequireFromString(total),
	}
}

func TestLoadWithoutSnapshotsRedirects(t *testing.T) {
	f := newLoaderFixture(t)

	_, err := f.loader.Load(context.Background(), cart.Session{ID: "anon-session"}, nil)
	if !pkgerrors.HasCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	details, _ := pkgerrors.As(err).Details().(map[string]any)
	if details["redirect"] != RedirectPath {
		t.Fatalf("expected redirect detail, got %v", details)
	}
}

func TestLoadPrefersRestaurantScopedSnapshot(t *testing.T) {
	f := newLoaderFixture(t)
	ctx := context.Background()
	sess := cart.Session{ID: "anon-session"}
	first, second := uuid.New(), uuid.New()

	if err := f.store.WriteCheckout(ctx, sess, checkoutData(first, "55")); err != nil {
		t.Fatalf("write first: %v", err)
	}
	if err := f.store.WriteCheckout(ctx, sess, checkoutData(second, "60")); err != nil {
		t.Fatalf("write second: %v", err)
	}

	got, err := f.loader.Load(ctx, sess, &first)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.Data.RestaurantID != first || !got.Data.Total.Equal(decimal.RequireFromString("55")) {
		t.Fatalf("expected scoped snapshot, got %+v", got.Data)
	}

	generic, err := f.loader.Load(ctx, sess, nil)
	if err != nil {
		t.Fatalf("load generic: %v", err)
	}
	if generic.Data.RestaurantID != second {
		t.Fatalf("expected latest generic snapshot, got %s", generic.Data.RestaurantID)
	}
}

func TestLoadFallsBackToGenericSnapshot(t *testing.T) {
	f := newLoaderFixture(t)
	ctx := context.Background()
	sess := cart.Session{ID: "anon-session"}
	stored := uuid.New()
	other := uuid.New()

	if err := f.store.WriteCheckout(ctx, sess, checkoutData(stored, "55")); err != nil {
		t.Fatalf("write: %v", err)
	}

	got, err := f.loader.Load(ctx, sess, &other)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.Data.RestaurantID != stored {
		t.Fatalf("expected generic snapshot, got %s", got.Data.RestaurantID)
	}
	if f.addrs.calls != 0 {
		t.Fatalf("anonymous load must not fetch addresses")
	}
}

func TestLoadDefaultsPartialSnapshot(t *testing.T) {
	f := newLoaderFixture(t)
	f.srv.Set("fc:cart:anon-session:checkout_data", `{"subtotal":"12.5","total":"-3"}`)

	got, err := f.loader.Load(context.Background(), cart.Session{ID: "anon-session"}, nil)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.Data.Items == nil || len(got.Data.Items) != 0 {
		t.Fatalf("expected empty items, got %v", got.Data.Items)
	}
	if !got.Data.DeliveryFee.IsZero() || !got.Data.Total.IsZero() || !got.Data.Discount.IsZero() {
		t.Fatalf("expected zero defaults, got %+v", got.Data)
	}
	if !got.Data.Subtotal.Equal(decimal.RequireFromString("12.5")) {
		t.Fatalf("unexpected subtotal %s", got.Data.Subtotal)
	}
}

func TestLoadMalformedSnapshotIsAbsent(t *testing.T) {
	f := newLoaderFixture(t)
	f.srv.Set("fc:cart:anon-session:checkout_data", `{not json`)

	_, err := f.loader.Load(context.Background(), cart.Session{ID: "anon-session"}, nil)
	if !pkgerrors.HasCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected not found for malformed snapshot, got %v", err)
	}
}

func TestLoadReadFailureIsDependencyError(t *testing.T) {
	f := newLoaderFixture(t)
	f.srv.SetError("ERR injected failure")

	_, err := f.loader.Load(context.Background(), cart.Session{ID: "anon-session"}, nil)
	if !pkgerrors.HasCode(err, pkgerrors.CodeDependency) {
		t.Fatalf("expected dependency error, got %v", err)
	}
}

func TestLoadAuthenticatedSelectsDefaultAddress(t *testing.T) {
	f := newLoaderFixture(t)
	ctx := context.Background()
	userID := uuid.New()
	sess, err := cart.ResolveSession("", &userID)
	if err != nil {
		t.Fatalf("resolve session: %v", err)
	}
	if err := f.store.WriteCheckout(ctx, sess, checkoutData(uuid.New(), "55")); err != nil {
		t.Fatalf("write: %v", err)
	}

	home := addresses.Address{ID: uuid.New(), Label: "Casa"}
	work := addresses.Address{ID: uuid.New(), Label: "Trabalho", IsDefault: true}
	f.addrs.list = []addresses.Address{home, work}

	got, err := f.loader.Load(ctx, sess, nil)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(got.Addresses) != 2 || got.Addresses[0].ID != work.ID {
		t.Fatalf("expected default address first, got %+v", got.Addresses)
	}
	if got.SelectedAddress == nil || got.SelectedAddress.ID != work.ID {
		t.Fatalf("expected default address selected, got %+v", got.SelectedAddress)
	}
}

func TestLoadAddressFailureIsSoft(t *testing.T) {
	f := newLoaderFixture(t)
	ctx := context.Background()
	userID := uuid.New()
	sess, _ := cart.ResolveSession("", &userID)
	if err := f.store.WriteCheckout(ctx, sess, checkoutData(uuid.New(), "55")); err != nil {
		t.Fatalf("write: %v", err)
	}
	f.addrs.err = errors.New("db down")

	got, err := f.loader.Load(ctx, sess, nil)
	if err != nil {
		t.Fatalf("expected soft failure, got %v", err)
	}
	if !got.AddressesUnavailable || len(got.Addresses) != 0 || got.SelectedAddress != nil {
		t.Fatalf("expected context without addresses, got %+v", got)
	}
}

func TestSelectDefaultFallsBackToFirst(t *testing.T) {
	first := addresses.Address{ID: uuid.New()}
	list := []addresses.Address{first, {ID: uuid.New()}}

	if got := SelectDefault(list); got == nil || got.ID != first.ID {
		t.Fatalf("expected first address, got %+v", got)
	}
	if got := SelectDefault(nil); got != nil {
		t.Fatalf("expected nil for empty list")
	}
}

func TestNewLoaderRequiresDependencies(t *testing.T) {
	if _, err := NewLoader(nil, &stubAddresses{}, nil, nil); err == nil {
		t.Fatal("expected error for missing snapshot reader")
	}
	if _, err := NewLoader(&cart.SnapshotStore{}, nil, nil, nil); err == nil {
		t.Fatal("expected error for missing address lister")
	}
}
