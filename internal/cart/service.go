package cart

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/angelmondragon/foodcart-backend/internal/promotions"
	"github.com/angelmondragon/foodcart-backend/pkg/db"
	"github.com/angelmondragon/foodcart-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/foodcart-backend/pkg/errors"
	"github.com/angelmondragon/foodcart-backend/pkg/logger"
	"github.com/angelmondragon/foodcart-backend/pkg/metrics"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	NoticeLoadFailed  = "we could not load your cart right now, please try again"
	NoticeItemRemoved = "item removed from cart"
	NoticeCartCleared = "your cart is now empty"
	// NoticeCouponRemoved prefixes the reason an applied coupon stopped
	// qualifying after the cart changed.
	NoticeCouponRemoved = "coupon removed"
)

var legacyRestaurantIDRe = regexp.MustCompile(`^[0-9]{1,18}$`)

type restaurantLookup interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Restaurant, error)
	FindByLegacyID(ctx context.Context, legacyID int64) (*models.Restaurant, error)
}

type couponApplier interface {
	Validate(ctx context.Context, input promotions.ValidateInput) (promotions.Discount, error)
	Apply(ctx context.Context, input promotions.ValidateInput, onApplied func(promotions.Discount) error) (promotions.Discount, error)
}

// Service is the cart store: one restaurant-scoped cart per session, kept in
// sync with its snapshot after every mutation.
type Service interface {
	Load(ctx context.Context, sess Session) (*View, error)
	AddItem(ctx context.Context, sess Session, input AddItemInput) (*View, error)
	IncreaseQuantity(ctx context.Context, sess Session, itemID string) (*View, error)
	DecreaseQuantity(ctx context.Context, sess Session, itemID string) (*View, error)
	RemoveItem(ctx context.Context, sess Session, itemID string) (*View, error)
	ApplyCoupon(ctx context.Context, sess Session, code string) (*View, error)
	ClearDiscount(ctx context.Context, sess Session) (*View, error)
	Clear(ctx context.Context, sess Session) error
	SaveCheckoutData(ctx context.Context, sess Session) (bool, error)
	AdoptGuestCart(ctx context.Context, sess Session) error
}

type service struct {
	store       *SnapshotStore
	restaurants restaurantLookup
	coupons     couponApplier
	metrics     *metrics.CheckoutMetrics
	logg        *logger.Logger
}

// NewService builds the cart store.
func NewService(store *SnapshotStore, restaurants restaurantLookup, coupons couponApplier, m *metrics.CheckoutMetrics, logg *logger.Logger) (Service, error) {
	if store == nil {
		return nil, fmt.Errorf("snapshot store required")
	}
	if restaurants == nil {
		return nil, fmt.Errorf("restaurant lookup required")
	}
	if coupons == nil {
		return nil, fmt.Errorf("coupon validator required")
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &service{
		store:       store,
		restaurants: restaurants,
		coupons:     coupons,
		metrics:     m,
		logg:        logg,
	}, nil
}

// Load never fails on read problems: missing, invalid or unreadable data all
// produce an empty cart, the latter with a notice.
func (s *service) Load(ctx context.Context, sess Session) (*View, error) {
	if err := sess.Validate(); err != nil {
		return nil, err
	}
	ctx = s.logg.WithSessionID(ctx, sess.ID)

	ref, found, err := s.store.ReadPointer(ctx, sess)
	if err != nil {
		return s.degraded(ctx, "pointer_read", err), nil
	}
	if !found {
		return emptyView(), nil
	}

	restaurant, err := s.resolvePointer(ctx, sess, ref)
	if err != nil {
		return s.degraded(ctx, "restaurant_lookup", err), nil
	}
	if restaurant == nil {
		return emptyView(), nil
	}
	ctx = s.logg.WithRestaurantID(ctx, restaurant.ID.String())

	data, found, err := s.readCartForRef(ctx, sess, ref, restaurant.ID)
	if err != nil {
		return s.degraded(ctx, "snapshot_read", err), nil
	}
	if !found || data.IsEmpty() {
		return emptyView(), nil
	}
	return buildView(restaurant, *data, ""), nil
}

// resolvePointer maps a stored pointer to a restaurant. A nil restaurant with
// nil error means the pointer is unusable and the cart is empty.
func (s *service) resolvePointer(ctx context.Context, sess Session, ref string) (*models.Restaurant, error) {
	ref = strings.TrimSpace(ref)

	if id, err := uuid.Parse(ref); err == nil {
		restaurant, err := s.restaurants.FindByID(ctx, id)
		if err != nil {
			if db.IsNotFound(err) {
				return nil, nil
			}
			return nil, err
		}
		return restaurant, nil
	}

	if legacyRestaurantIDRe.MatchString(ref) {
		legacyID, err := strconv.ParseInt(ref, 10, 64)
		if err != nil {
			return nil, nil
		}
		restaurant, err := s.restaurants.FindByLegacyID(ctx, legacyID)
		if err != nil {
			if db.IsNotFound(err) {
				return nil, nil
			}
			return nil, err
		}
		if err := s.store.WritePointer(ctx, sess, restaurant.ID); err != nil {
			s.logg.WarnErr(ctx, "rewriting legacy cart pointer failed", err)
		}
		return restaurant, nil
	}

	s.logg.Warn(s.logg.WithField(ctx, "pointer", ref), "ignoring malformed cart pointer")
	return nil, nil
}

// readCartForRef reads the canonical snapshot and falls back to one stored
// under a legacy numeric key, migrating it on the way.
func (s *service) readCartForRef(ctx context.Context, sess Session, ref string, restaurantID uuid.UUID) (*Data, bool, error) {
	data, found, err := s.readCart(ctx, sess, restaurantID.String())
	if err != nil || found || ref == restaurantID.String() {
		if found {
			data.RestaurantID = restaurantID
		}
		return data, found, err
	}

	legacy, found, err := s.readCart(ctx, sess, ref)
	if err != nil || !found {
		return nil, false, err
	}
	legacy.RestaurantID = restaurantID
	if err := s.store.WriteCart(ctx, sess, *legacy); err != nil {
		s.logg.WarnErr(ctx, "migrating legacy cart snapshot failed", err)
	} else if err := s.store.DeleteCartSnapshot(ctx, sess, ref); err != nil {
		s.logg.WarnErr(ctx, "removing legacy cart snapshot failed", err)
	}
	return legacy, true, nil
}

func (s *service) readCart(ctx context.Context, sess Session, ref string) (*Data, bool, error) {
	data, found, err := s.store.ReadCart(ctx, sess, ref)
	if errors.Is(err, ErrMalformedSnapshot) {
		s.logg.WarnErr(ctx, "discarding malformed cart snapshot", err)
		s.metrics.IncDegradedLoad("malformed_snapshot")
		return nil, false, nil
	}
	return data, found, err
}

func (s *service) degraded(ctx context.Context, reason string, err error) *View {
	s.logg.WarnErr(s.logg.WithField(ctx, "reason", reason), "cart load degraded to empty cart", err)
	s.metrics.IncDegradedLoad(reason)
	view := emptyView()
	view.Notice = NoticeLoadFailed
	return view
}

func (s *service) AddItem(ctx context.Context, sess Session, input AddItemInput) (*View, error) {
	if err := sess.Validate(); err != nil {
		return nil, err
	}
	item, err := validateNewItem(input.Item)
	if err != nil {
		return nil, err
	}
	if input.RestaurantID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "restaurant_id is required")
	}
	ctx = s.logg.WithRestaurantID(s.logg.WithSessionID(ctx, sess.ID), input.RestaurantID.String())

	restaurant, err := s.restaurants.FindByID(ctx, input.RestaurantID)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "restaurant not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup restaurant")
	}
	if !restaurant.Active {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "restaurant is not accepting orders")
	}

	current, _, err := s.current(ctx, sess)
	if err != nil {
		return nil, err
	}

	data := Data{RestaurantID: restaurant.ID, Items: []Item{}, DeliveryFee: restaurant.DeliveryFee}
	if current != nil && current.RestaurantID == restaurant.ID {
		data = *current
	} else if current != nil {
		// one cart per session: switching restaurant discards the old cart
		if err := s.store.DeleteCartSnapshot(ctx, sess, current.RestaurantID.String()); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "discard previous cart")
		}
		s.logg.Info(s.logg.WithField(ctx, "previous_restaurant_id", current.RestaurantID.String()), "cart switched restaurant")
	}

	if idx := data.indexOf(item.ID); idx >= 0 {
		data.Items[idx].Quantity += item.Quantity
	} else {
		data.Items = append(data.Items, item)
	}
	notice := s.recheckCoupon(ctx, &data)

	if err := s.persist(ctx, sess, data); err != nil {
		return nil, err
	}
	if err := s.store.WritePointer(ctx, sess, data.RestaurantID); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save cart pointer")
	}
	return buildView(restaurant, data, notice), nil
}

func (s *service) IncreaseQuantity(ctx context.Context, sess Session, itemID string) (*View, error) {
	return s.mutateItem(ctx, sess, itemID, func(item *Item) {
		item.Quantity++
	})
}

// DecreaseQuantity stops at 1; removal is a separate action.
func (s *service) DecreaseQuantity(ctx context.Context, sess Session, itemID string) (*View, error) {
	return s.mutateItem(ctx, sess, itemID, func(item *Item) {
		if item.Quantity > 1 {
			item.Quantity--
		}
	})
}

func (s *service) mutateItem(ctx context.Context, sess Session, itemID string, mutate func(*Item)) (*View, error) {
	data, restaurant, err := s.requireCart(ctx, sess)
	if err != nil {
		return nil, err
	}
	idx := data.indexOf(strings.TrimSpace(itemID))
	if idx < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "item not in cart")
	}
	before := data.Items[idx].Quantity
	mutate(&data.Items[idx])
	notice := ""
	if data.Items[idx].Quantity != before {
		notice = s.recheckCoupon(ctx, data)
		if err := s.persist(ctx, sess, *data); err != nil {
			return nil, err
		}
	}
	return buildView(restaurant, *data, notice), nil
}

func (s *service) RemoveItem(ctx context.Context, sess Session, itemID string) (*View, error) {
	data, restaurant, err := s.requireCart(ctx, sess)
	if err != nil {
		return nil, err
	}
	idx := data.indexOf(strings.TrimSpace(itemID))
	if idx < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "item not in cart")
	}
	data.Items = append(data.Items[:idx], data.Items[idx+1:]...)

	if data.IsEmpty() {
		if err := s.store.DeleteCart(ctx, sess, data.RestaurantID.String()); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear cart")
		}
		if err := s.clearCheckout(ctx, sess, data.RestaurantID.String()); err != nil {
			return nil, err
		}
		view := emptyView()
		view.Notice = NoticeCartCleared
		return view, nil
	}

	notice := NoticeItemRemoved
	if couponNotice := s.recheckCoupon(ctx, data); couponNotice != "" {
		notice = couponNotice
	}
	if err := s.persist(ctx, sess, *data); err != nil {
		return nil, err
	}
	return buildView(restaurant, *data, notice), nil
}

func (s *service) ApplyCoupon(ctx context.Context, sess Session, code string) (*View, error) {
	data, restaurant, err := s.requireCart(ctx, sess)
	if err != nil {
		return nil, err
	}
	restaurantID := data.RestaurantID
	input := promotions.ValidateInput{
		Code:         code,
		Subtotal:     CalculatePricing(*data).Subtotal,
		RestaurantID: &restaurantID,
	}

	_, err = s.coupons.Apply(ctx, input, func(d promotions.Discount) error {
		data.Discount = d.Percentage
		data.CouponCode = d.Code
		return s.persist(ctx, sess, *data)
	})
	if err != nil {
		return nil, err
	}
	return buildView(restaurant, *data, ""), nil
}

func (s *service) ClearDiscount(ctx context.Context, sess Session) (*View, error) {
	data, restaurant, err := s.requireCart(ctx, sess)
	if err != nil {
		return nil, err
	}
	data.Discount = decimal.Zero
	data.CouponCode = ""
	if err := s.persist(ctx, sess, *data); err != nil {
		return nil, err
	}
	return buildView(restaurant, *data, ""), nil
}

func (s *service) Clear(ctx context.Context, sess Session) error {
	if err := sess.Validate(); err != nil {
		return err
	}
	ref, _, err := s.store.ReadPointer(ctx, sess)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read cart pointer")
	}
	ref = strings.TrimSpace(ref)
	if err := s.store.DeleteCart(ctx, sess, ref); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear cart")
	}
	return s.clearCheckout(ctx, sess, ref)
}

// clearCheckout drops the checkout snapshots so an emptied cart can no longer
// be submitted. Both the pointer's restaurant and the one the generic snapshot
// was saved for are covered.
func (s *service) clearCheckout(ctx context.Context, sess Session, restaurantRef string) error {
	ids := map[uuid.UUID]struct{}{}
	if id, err := uuid.Parse(restaurantRef); err == nil {
		ids[id] = struct{}{}
	}
	saved, found, err := s.store.ReadCheckout(ctx, sess, nil)
	if err != nil && !errors.Is(err, ErrMalformedSnapshot) {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read checkout data")
	}
	if found && saved.RestaurantID != uuid.Nil {
		ids[saved.RestaurantID] = struct{}{}
	}
	if len(ids) == 0 {
		// only the generic snapshot can exist
		ids[uuid.Nil] = struct{}{}
	}
	for id := range ids {
		if err := s.store.DeleteCheckout(ctx, sess, id); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear checkout data")
		}
	}
	return nil
}

// SaveCheckoutData freezes the cart for checkout. It reports false when there
// is no restaurant context to save.
func (s *service) SaveCheckoutData(ctx context.Context, sess Session) (bool, error) {
	if err := sess.Validate(); err != nil {
		return false, err
	}
	data, _, err := s.current(ctx, sess)
	if err != nil {
		return false, err
	}
	if data == nil || data.IsEmpty() {
		return false, nil
	}
	if data.CouponCode != "" {
		changed, _, err := s.refreshCoupon(ctx, data)
		if err != nil {
			return false, err
		}
		if changed {
			if err := s.persist(ctx, sess, *data); err != nil {
				return false, err
			}
		}
	}
	if err := s.store.WriteCheckout(ctx, sess, ToCheckoutData(*data)); err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save checkout data")
	}
	return true, nil
}

// AdoptGuestCart moves the snapshots of the anonymous session a signed-in
// request still carried under the user's session. Without a guest session it
// does nothing; once moved, the guest keys are gone and later calls are
// no-ops too.
func (s *service) AdoptGuestCart(ctx context.Context, sess Session) error {
	guest, ok := sess.Guest()
	if !ok {
		return nil
	}
	moved, err := s.store.MoveSession(ctx, guest, sess)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "move guest cart")
	}
	if moved {
		s.logg.Info(s.logg.WithField(s.logg.WithSessionID(ctx, sess.ID), "guest_session", logger.MaskSession(guest.ID)), "cart.guest_adopted")
	}
	return nil
}

// recheckCoupon re-validates the applied coupon after the cart changed. A
// coupon that no longer qualifies is removed and the returned notice says
// why. Lookup failures keep the current discount; checkout checks again.
func (s *service) recheckCoupon(ctx context.Context, data *Data) string {
	if data.CouponCode == "" {
		return ""
	}
	code := data.CouponCode
	_, notice, err := s.refreshCoupon(ctx, data)
	if err != nil {
		s.logg.WarnErr(s.logg.WithField(ctx, "coupon_code", code), "coupon recheck failed, keeping discount", err)
		return ""
	}
	return notice
}

// refreshCoupon validates data.CouponCode at the current subtotal. Fixed
// amounts are converted again; a rejected coupon is cleared and notice says
// why. Only lookup failures are returned as errors.
func (s *service) refreshCoupon(ctx context.Context, data *Data) (bool, string, error) {
	restaurantID := data.RestaurantID
	discount, err := s.coupons.Validate(ctx, promotions.ValidateInput{
		Code:         data.CouponCode,
		Subtotal:     CalculatePricing(*data).Subtotal,
		RestaurantID: &restaurantID,
	})
	switch {
	case err == nil:
		changed := !discount.Percentage.Equal(data.Discount)
		data.Discount = discount.Percentage
		return changed, "", nil
	case pkgerrors.HasCode(err, pkgerrors.CodeValidation):
		s.logg.Info(s.logg.WithField(ctx, "coupon_code", data.CouponCode), "cart.coupon_dropped")
		notice := NoticeCouponRemoved + ": " + pkgerrors.As(err).Message()
		data.Discount = decimal.Zero
		data.CouponCode = ""
		return true, notice, nil
	default:
		return false, "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "recheck coupon")
	}
}

// current returns the active cart and its restaurant, or nils when there is
// none. Unlike Load, read failures are reported because the caller is about
// to write.
func (s *service) current(ctx context.Context, sess Session) (*Data, *models.Restaurant, error) {
	ref, found, err := s.store.ReadPointer(ctx, sess)
	if err != nil {
		return nil, nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read cart pointer")
	}
	if !found {
		return nil, nil, nil
	}
	restaurant, err := s.resolvePointer(ctx, sess, ref)
	if err != nil {
		return nil, nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup restaurant")
	}
	if restaurant == nil {
		return nil, nil, nil
	}
	data, found, err := s.readCartForRef(ctx, sess, ref, restaurant.ID)
	if err != nil {
		return nil, nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read cart snapshot")
	}
	if !found {
		return nil, nil, nil
	}
	return data, restaurant, nil
}

func (s *service) requireCart(ctx context.Context, sess Session) (*Data, *models.Restaurant, error) {
	if err := sess.Validate(); err != nil {
		return nil, nil, err
	}
	data, restaurant, err := s.current(s.logg.WithSessionID(ctx, sess.ID), sess)
	if err != nil {
		return nil, nil, err
	}
	if data == nil || data.IsEmpty() {
		return nil, nil, pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
	}
	return data, restaurant, nil
}

func (s *service) persist(ctx context.Context, sess Session, data Data) error {
	if err := s.store.WriteCart(ctx, sess, data); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save cart")
	}
	return nil
}

func validateNewItem(item Item) (Item, error) {
	item.ID = strings.TrimSpace(item.ID)
	item.Name = strings.TrimSpace(item.Name)
	if item.ID == "" {
		return Item{}, pkgerrors.New(pkgerrors.CodeValidation, "item id is required")
	}
	if item.Name == "" {
		return Item{}, pkgerrors.New(pkgerrors.CodeValidation, "item name is required")
	}
	if item.Price.IsNegative() {
		return Item{}, pkgerrors.New(pkgerrors.CodeValidation, "item price must not be negative")
	}
	if item.Quantity == 0 {
		item.Quantity = 1
	}
	if item.Quantity < 1 {
		return Item{}, pkgerrors.New(pkgerrors.CodeValidation, "item quantity must be at least 1")
	}
	return item, nil
}

func emptyView() *View {
	data := Data{Items: []Item{}}
	return &View{Cart: data, Pricing: CalculatePricing(data)}
}

func buildView(restaurant *models.Restaurant, data Data, notice string) *View {
	view := &View{
		Cart:    data,
		Pricing: CalculatePricing(data),
		Notice:  notice,
	}
	if restaurant != nil {
		view.Restaurant = &Restaurant{
			ID:          restaurant.ID,
			Name:        restaurant.Name,
			DeliveryFee: restaurant.DeliveryFee,
		}
	}
	return view
}
