package cart

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	redisclient "github.com/angelmondragon/foodcart-backend/pkg/redis"
	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
)

func newTestStore(t *testing.T, ttl time.Duration) (*SnapshotStore, *miniredis.Miniredis) {
	t.Helper()
	srv := miniredis.RunT(t)
	client := redisclient.NewFromRaw(goredis.NewClient(&goredis.Options{Addr: srv.Addr()}))
	t.Cleanup(func() { _ = client.Close() })

	store, err := NewSnapshotStore(client, ttl)
	if err != nil {
		t.Fatalf("new snapshot store: %v", err)
	}
	return store, srv
}

func TestSnapshotStoreCartRoundTrip(t *testing.T) {
	store, srv := newTestStore(t, time.Hour)
	ctx := context.Background()
	sess := Session{ID: "sess-roundtrip"}
	restaurantID := uuid.New()

	data := Data{
		RestaurantID: restaurantID,
		Items:        []Item{{ID: "pizza", Name: "Pizza", Price: dec("39.90"), Quantity: 2}},
		Discount:     dec("10"),
		DeliveryFee:  dec("6.50"),
	}
	if err := store.WriteCart(ctx, sess, data); err != nil {
		t.Fatalf("write cart: %v", err)
	}
	if err := store.WritePointer(ctx, sess, restaurantID); err != nil {
		t.Fatalf("write pointer: %v", err)
	}

	key := "fc:cart:sess-roundtrip:cart_" + restaurantID.String()
	if !srv.Exists(key) {
		t.Fatalf("expected snapshot under %s", key)
	}
	if ttl := srv.TTL(key); ttl != time.Hour {
		t.Fatalf("expected ttl 1h, got %v", ttl)
	}

	ref, found, err := store.ReadPointer(ctx, sess)
	if err != nil || !found || ref != restaurantID.String() {
		t.Fatalf("unexpected pointer %q found=%v err=%v", ref, found, err)
	}

	got, found, err := store.ReadCart(ctx, sess, restaurantID.String())
	if err != nil || !found {
		t.Fatalf("read cart: found=%v err=%v", found, err)
	}
	if len(got.Items) != 1 || got.Items[0].Quantity != 2 || !got.Items[0].Price.Equal(dec("39.90")) {
		t.Fatalf("unexpected items %+v", got.Items)
	}
	if !got.Discount.Equal(dec("10")) || !got.DeliveryFee.Equal(dec("6.50")) {
		t.Fatalf("unexpected totals %+v", got)
	}

	if err := store.DeleteCart(ctx, sess, restaurantID.String()); err != nil {
		t.Fatalf("delete cart: %v", err)
	}
	if srv.Exists(key) || srv.Exists("fc:cart:sess-roundtrip:currentRestaurant") {
		t.Fatal("expected snapshot and pointer to be removed")
	}
}

func TestSnapshotStoreDefaultsAndMalformed(t *testing.T) {
	store, srv := newTestStore(t, 0)
	ctx := context.Background()
	sess := Session{ID: "sess-defaults"}

	if _, found, err := store.ReadCart(ctx, sess, "missing"); found || err != nil {
		t.Fatalf("expected absent snapshot, found=%v err=%v", found, err)
	}

	// numbers instead of strings, no items, negative quantity
	srv.Set("fc:cart:sess-defaults:cart_legacy", `{"items":[{"id":"x","name":"X","price":5,"quantity":0}],"deliveryFee":3}`)
	got, found, err := store.ReadCart(ctx, sess, "legacy")
	if err != nil || !found {
		t.Fatalf("read cart: found=%v err=%v", found, err)
	}
	if got.Items[0].Quantity != 1 || !got.Discount.IsZero() || !got.DeliveryFee.Equal(dec("3")) {
		t.Fatalf("expected defaults to apply, got %+v", got)
	}

	srv.Set("fc:cart:sess-defaults:checkout_data", `{"restaurantId":`)
	if _, _, err := store.ReadCheckout(ctx, sess, nil); err == nil {
		t.Fatal("expected malformed checkout error")
	}
}

func TestSnapshotStoreCheckoutKeys(t *testing.T) {
	store, srv := newTestStore(t, 0)
	ctx := context.Background()
	sess := Session{ID: "sess-checkout"}
	restaurantID := uuid.New()

	snapshot := CheckoutData{RestaurantID: restaurantID, Subtotal: dec("20"), Total: dec("25")}
	if err := store.WriteCheckout(ctx, sess, snapshot); err != nil {
		t.Fatalf("write checkout: %v", err)
	}
	if !srv.Exists("fc:cart:sess-checkout:checkout_data") || !srv.Exists("fc:cart:sess-checkout:checkout_"+restaurantID.String()) {
		t.Fatal("expected generic and scoped checkout snapshots")
	}

	scoped, found, err := store.ReadCheckout(ctx, sess, &restaurantID)
	if err != nil || !found || !scoped.Total.Equal(dec("25")) {
		t.Fatalf("unexpected scoped snapshot %+v found=%v err=%v", scoped, found, err)
	}
	if scoped.Items == nil {
		t.Fatal("expected items to default to empty slice")
	}

	if err := store.DeleteCheckout(ctx, sess, restaurantID); err != nil {
		t.Fatalf("delete checkout: %v", err)
	}
	if _, found, _ := store.ReadCheckout(ctx, sess, nil); found {
		t.Fatal("expected checkout data to be removed")
	}
}

func TestSnapshotStoreMoveSession(t *testing.T) {
	store, srv := newTestStore(t, time.Hour)
	ctx := context.Background()
	from := Session{ID: "sess-guest-move"}
	userID := uuid.New()
	to := Session{ID: "user-" + userID.String(), UserID: &userID}
	restaurantID := uuid.New()

	moved, err := store.MoveSession(ctx, from, to)
	if err != nil || moved {
		t.Fatalf("expected nothing to move, got moved=%v err=%v", moved, err)
	}

	// checkout data without an active cart still moves
	if err := store.WriteCheckout(ctx, from, CheckoutData{RestaurantID: restaurantID, Total: dec("12")}); err != nil {
		t.Fatalf("write checkout: %v", err)
	}
	moved, err = store.MoveSession(ctx, from, to)
	if err != nil || !moved {
		t.Fatalf("expected checkout to move, got moved=%v err=%v", moved, err)
	}
	for _, name := range []string{"checkout_data", "checkout_" + restaurantID.String()} {
		if !srv.Exists("fc:cart:" + to.ID + ":" + name) {
			t.Fatalf("expected %s under the user session", name)
		}
		if srv.Exists("fc:cart:" + from.ID + ":" + name) {
			t.Fatalf("expected %s removed from the guest session", name)
		}
	}
	if ttl := srv.TTL("fc:cart:" + to.ID + ":checkout_data"); ttl != time.Hour {
		t.Fatalf("expected moved snapshot to keep the store ttl, got %s", ttl)
	}
}
