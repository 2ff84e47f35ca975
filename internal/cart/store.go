package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/foodcart-backend/pkg/redis"
	"github.com/google/uuid"
)

const (
	pointerKey      = "currentRestaurant"
	checkoutDataKey = "checkout_data"
)

// ErrMalformedSnapshot marks a stored value that could not be decoded. Callers
// treat it as absent data.
var ErrMalformedSnapshot = errors.New("malformed snapshot")

type kvStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	SetMany(ctx context.Context, values map[string]any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	CartKey(sessionID, name string) string
}

// SnapshotStore persists cart and checkout snapshots per session. Writes are
// whole-value SETs, so concurrent writers are last-write-wins.
type SnapshotStore struct {
	kv  kvStore
	ttl time.Duration
}

// NewSnapshotStore wires the snapshot store over the redis client. A zero ttl
// keeps snapshots until they are cleared.
func NewSnapshotStore(kv kvStore, ttl time.Duration) (*SnapshotStore, error) {
	if kv == nil {
		return nil, fmt.Errorf("snapshot kv store required")
	}
	return &SnapshotStore{kv: kv, ttl: ttl}, nil
}

func cartKeyName(restaurantRef string) string {
	return "cart_" + restaurantRef
}

func checkoutKeyName(restaurantID uuid.UUID) string {
	return "checkout_" + restaurantID.String()
}

// ReadPointer returns the raw active-restaurant reference. found is false when
// no pointer is stored.
func (s *SnapshotStore) ReadPointer(ctx context.Context, sess Session) (string, bool, error) {
	raw, err := s.kv.Get(ctx, s.kv.CartKey(sess.ID, pointerKey))
	if err != nil {
		if redis.IsNil(err) {
			return "", false, nil
		}
		return "", false, err
	}
	return raw, raw != "", nil
}

func (s *SnapshotStore) WritePointer(ctx context.Context, sess Session, restaurantID uuid.UUID) error {
	return s.kv.Set(ctx, s.kv.CartKey(sess.ID, pointerKey), restaurantID.String(), s.ttl)
}

// ReadCart loads the snapshot stored under cart_<restaurantRef>. restaurantRef
// is the raw pointer value so legacy numeric carts can still be found.
func (s *SnapshotStore) ReadCart(ctx context.Context, sess Session, restaurantRef string) (*Data, bool, error) {
	var data Data
	found, err := s.readJSON(ctx, s.kv.CartKey(sess.ID, cartKeyName(restaurantRef)), &data)
	if err != nil || !found {
		return nil, false, err
	}
	data.normalize()
	return &data, true, nil
}

func (s *SnapshotStore) WriteCart(ctx context.Context, sess Session, data Data) error {
	if data.RestaurantID == uuid.Nil {
		return fmt.Errorf("cart snapshot without restaurant")
	}
	return s.writeJSON(ctx, s.kv.CartKey(sess.ID, cartKeyName(data.RestaurantID.String())), data)
}

// DeleteCart removes the snapshot for restaurantRef and the active pointer.
func (s *SnapshotStore) DeleteCart(ctx context.Context, sess Session, restaurantRef string) error {
	keys := []string{s.kv.CartKey(sess.ID, pointerKey)}
	if restaurantRef != "" {
		keys = append(keys, s.kv.CartKey(sess.ID, cartKeyName(restaurantRef)))
	}
	return s.kv.Del(ctx, keys...)
}

// DeleteCartSnapshot removes only the snapshot, leaving the pointer in place.
func (s *SnapshotStore) DeleteCartSnapshot(ctx context.Context, sess Session, restaurantRef string) error {
	return s.kv.Del(ctx, s.kv.CartKey(sess.ID, cartKeyName(restaurantRef)))
}

// WriteCheckout stores the generic checkout_data snapshot and the
// restaurant-scoped copy in one transaction.
func (s *SnapshotStore) WriteCheckout(ctx context.Context, sess Session, data CheckoutData) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("encode checkout snapshot: %w", err)
	}
	return s.kv.SetMany(ctx, map[string]any{
		s.kv.CartKey(sess.ID, checkoutDataKey):                   string(raw),
		s.kv.CartKey(sess.ID, checkoutKeyName(data.RestaurantID)): string(raw),
	}, s.ttl)
}

// ReadCheckout reads the restaurant-scoped snapshot when restaurantID is set,
// otherwise the generic one.
func (s *SnapshotStore) ReadCheckout(ctx context.Context, sess Session, restaurantID *uuid.UUID) (*CheckoutData, bool, error) {
	key := s.kv.CartKey(sess.ID, checkoutDataKey)
	if restaurantID != nil {
		key = s.kv.CartKey(sess.ID, checkoutKeyName(*restaurantID))
	}
	var data CheckoutData
	found, err := s.readJSON(ctx, key, &data)
	if err != nil || !found {
		return nil, false, err
	}
	data.Normalize()
	return &data, true, nil
}

// DeleteCheckout removes the generic and the restaurant-scoped checkout snapshots.
func (s *SnapshotStore) DeleteCheckout(ctx context.Context, sess Session, restaurantID uuid.UUID) error {
	return s.kv.Del(ctx,
		s.kv.CartKey(sess.ID, checkoutDataKey),
		s.kv.CartKey(sess.ID, checkoutKeyName(restaurantID)),
	)
}

// MoveSession re-keys the snapshots of from under to: the active pointer, its
// cart, checkout_data and the checkout_<id> copies for the pointer's and the
// checkout's restaurant. from's cart replaces any cart to already had. The new
// keys are written in one transaction before the old ones are deleted, so a
// failed delete only means the move is repeated. moved is false when from has
// nothing stored.
func (s *SnapshotStore) MoveSession(ctx context.Context, from, to Session) (bool, error) {
	values := map[string]any{}
	var stale []string
	move := func(name string) error {
		raw, err := s.kv.Get(ctx, s.kv.CartKey(from.ID, name))
		if err != nil {
			if redis.IsNil(err) {
				return nil
			}
			return err
		}
		if raw == "" {
			return nil
		}
		values[s.kv.CartKey(to.ID, name)] = raw
		stale = append(stale, s.kv.CartKey(from.ID, name))
		return nil
	}

	ref, found, err := s.ReadPointer(ctx, from)
	if err != nil {
		return false, err
	}
	ref = strings.TrimSpace(ref)
	checkoutNames := map[string]struct{}{}
	if found {
		if err := move(pointerKey); err != nil {
			return false, err
		}
		if err := move(cartKeyName(ref)); err != nil {
			return false, err
		}
		if id, err := uuid.Parse(ref); err == nil {
			checkoutNames[checkoutKeyName(id)] = struct{}{}
		}
	}

	if err := move(checkoutDataKey); err != nil {
		return false, err
	}
	if raw, ok := values[s.kv.CartKey(to.ID, checkoutDataKey)].(string); ok {
		var data CheckoutData
		if json.Unmarshal([]byte(raw), &data) == nil && data.RestaurantID != uuid.Nil {
			checkoutNames[checkoutKeyName(data.RestaurantID)] = struct{}{}
		}
	}
	for name := range checkoutNames {
		if err := move(name); err != nil {
			return false, err
		}
	}
	if len(values) == 0 {
		return false, nil
	}

	if found {
		// one cart per session: to's previous cart is dropped with its pointer
		previous, hadCart, err := s.ReadPointer(ctx, to)
		if err != nil {
			return false, err
		}
		if previous = strings.TrimSpace(previous); hadCart && previous != ref {
			stale = append(stale, s.kv.CartKey(to.ID, cartKeyName(previous)))
		}
	}

	if err := s.kv.SetMany(ctx, values, s.ttl); err != nil {
		return false, err
	}
	if err := s.kv.Del(ctx, stale...); err != nil {
		return true, err
	}
	return true, nil
}

func (s *SnapshotStore) readJSON(ctx context.Context, key string, dst any) (bool, error) {
	raw, err := s.kv.Get(ctx, key)
	if err != nil {
		if redis.IsNil(err) {
			return false, nil
		}
		return false, err
	}
	if raw == "" {
		return false, nil
	}
	if err := json.Unmarshal([]byte(raw), dst); err != nil {
		return false, fmt.Errorf("%w: %s: %v", ErrMalformedSnapshot, key, err)
	}
	return true, nil
}

func (s *SnapshotStore) writeJSON(ctx context.Context, key string, value any) error {
	b, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode snapshot %s: %w", key, err)
	}
	return s.kv.Set(ctx, key, string(b), s.ttl)
}
