package orders

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/foodcart-backend/internal/addresses"
	"github.com/angelmondragon/foodcart-backend/internal/cart"
	"github.com/angelmondragon/foodcart-backend/internal/checkout"
	"github.com/angelmondragon/foodcart-backend/pkg/db"
	"github.com/angelmondragon/foodcart-backend/pkg/db/models"
	"github.com/angelmondragon/foodcart-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/foodcart-backend/pkg/errors"
	"github.com/angelmondragon/foodcart-backend/pkg/logger"
	"github.com/angelmondragon/foodcart-backend/pkg/metrics"
	"github.com/angelmondragon/foodcart-backend/pkg/pagination"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	maxNotesLength = 500

	restaurantForeignKey = "orders_restaurant_id_fkey"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type addressGetter interface {
	Get(ctx context.Context, userID, id uuid.UUID) (*addresses.Address, error)
}

type snapshotClearer interface {
	DeleteCart(ctx context.Context, sess cart.Session, restaurantRef string) error
	DeleteCheckout(ctx context.Context, sess cart.Session, restaurantID uuid.UUID) error
}

// Actor is the caller acting on an order.
type Actor struct {
	UserID uuid.UUID
	Staff  bool
}

// SubmitInput carries the checkout form. AddressID picks a saved address;
// ManualAddress is used otherwise.
type SubmitInput struct {
	RestaurantID  *uuid.UUID
	PaymentMethod enums.PaymentMethod
	Notes         string
	AddressID     *uuid.UUID
	ManualAddress *addresses.Address
}

// UpdateStatusInput moves an order along its lifecycle.
type UpdateStatusInput struct {
	Status enums.OrderStatus
	Note   string
}

// Service submits orders and serves them back.
type Service interface {
	Submit(ctx context.Context, sess cart.Session, input SubmitInput) (*SubmitResult, error)
	Get(ctx context.Context, actor Actor, orderID uuid.UUID) (*Order, error)
	ListForUser(ctx context.Context, userID uuid.UUID, params pagination.Params) (*pagination.Page[Order], error)
	UpdateStatus(ctx context.Context, actor Actor, orderID uuid.UUID, input UpdateStatusInput) (*Order, error)
}

// Deps groups the collaborators of the order service.
type Deps struct {
	Repo      Repository
	Tx        txRunner
	Loader    checkout.Loader
	Addresses addressGetter
	Snapshots snapshotClearer
	Metrics   *metrics.CheckoutMetrics
	Logger    *logger.Logger
	Now       func() time.Time
}

type service struct {
	repo      Repository
	tx        txRunner
	loader    checkout.Loader
	addresses addressGetter
	snapshots snapshotClearer
	metrics   *metrics.CheckoutMetrics
	logg      *logger.Logger
	now       func() time.Time
}

// NewService builds the order service with the required dependencies.
func NewService(deps Deps) (Service, error) {
	if deps.Repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if deps.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if deps.Loader == nil {
		return nil, fmt.Errorf("checkout loader required")
	}
	if deps.Addresses == nil {
		return nil, fmt.Errorf("address getter required")
	}
	if deps.Snapshots == nil {
		return nil, fmt.Errorf("snapshot clearer required")
	}
	if deps.Logger == nil {
		deps.Logger = logger.Nop()
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	return &service{
		repo:      deps.Repo,
		tx:        deps.Tx,
		loader:    deps.Loader,
		addresses: deps.Addresses,
		snapshots: deps.Snapshots,
		metrics:   deps.Metrics,
		logg:      deps.Logger,
		now:       deps.Now,
	}, nil
}

// Submit writes the order once. There is no retry and no idempotency key, so
// a client that resubmits after a failure may create a second order.
func (s *service) Submit(ctx context.Context, sess cart.Session, input SubmitInput) (*SubmitResult, error) {
	started := s.now()
	result, err := s.submit(ctx, sess, input)
	switch {
	case err == nil:
		s.metrics.IncOrderSubmission(metrics.OutcomeAccepted)
		s.metrics.ObserveSubmitDuration(s.now().Sub(started))
	case pkgerrors.HasCode(err, pkgerrors.CodeDependency), pkgerrors.HasCode(err, pkgerrors.CodeInternal):
		s.metrics.IncOrderSubmission(metrics.OutcomeFailed)
	default:
		s.metrics.IncOrderSubmission(metrics.OutcomeRejected)
	}
	return result, err
}

func (s *service) submit(ctx context.Context, sess cart.Session, input SubmitInput) (*SubmitResult, error) {
	if !sess.Authenticated() {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "must be logged in")
	}
	userID := *sess.UserID
	if !input.PaymentMethod.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment method is invalid").
			WithDetails(map[string]any{"payment_method": input.PaymentMethod})
	}
	notes := strings.TrimSpace(input.Notes)
	if len(notes) > maxNotesLength {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "notes must be at most %d characters", maxNotesLength)
	}

	checkoutCtx, err := s.loader.Load(ctx, sess, input.RestaurantID)
	if err != nil {
		return nil, err
	}
	data := checkoutCtx.Data
	if len(data.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
	}

	address, err := s.chooseAddress(ctx, userID, input, checkoutCtx)
	if err != nil {
		return nil, err
	}

	order := buildOrder(userID, data, input.PaymentMethod, notes, address, s.now().UTC())

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if _, err := repo.CreateOrder(ctx, order); err != nil {
			return err
		}
		for i := range order.Items {
			order.Items[i].OrderID = order.ID
		}
		if err := repo.CreateOrderItems(ctx, order.Items); err != nil {
			return err
		}
		event := &models.OrderStatusEvent{
			OrderID:   order.ID,
			Status:    enums.OrderStatusPending,
			ActorID:   &userID,
			CreatedAt: order.CreatedAt,
		}
		if err := repo.AppendStatusEvent(ctx, event); err != nil {
			return err
		}
		order.StatusEvents = []models.OrderStatusEvent{*event}
		return nil
	})
	if db.IsForeignKeyViolation(err, restaurantForeignKey) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "this restaurant is no longer available")
	}
	if err != nil {
		s.logg.Error(s.logg.WithUserID(ctx, userID.String()), "order submission failed", err)
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "could not place the order, please try again")
	}

	s.clearSnapshots(ctx, sess, data.RestaurantID)
	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"order_id":      order.ID.String(),
		"restaurant_id": order.RestaurantID.String(),
		"total":         order.Total.StringFixed(2),
		"cash_payment":  order.PaymentMethod.IsCash(),
	}), "order.placed")

	view := FromModel(*order)
	return &SubmitResult{
		OrderID:     order.ID,
		DetailPath:  DetailPath(order.ID),
		Order:       view,
		Suggestions: Suggestions(view),
	}, nil
}

// DetailPath is the client route for an order's detail view.
func DetailPath(id uuid.UUID) string {
	return "/orders/" + id.String()
}

func (s *service) chooseAddress(ctx context.Context, userID uuid.UUID, input SubmitInput, checkoutCtx *checkout.Context) (addresses.Address, error) {
	switch {
	case input.AddressID != nil:
		saved, err := s.addresses.Get(ctx, userID, *input.AddressID)
		if err != nil {
			return addresses.Address{}, err
		}
		return *saved, nil
	case input.ManualAddress != nil:
		manual := *input.ManualAddress
		if err := manual.Validate(); err != nil {
			return addresses.Address{}, err
		}
		return manual, nil
	case checkoutCtx.SelectedAddress != nil:
		return *checkoutCtx.SelectedAddress, nil
	default:
		return addresses.Address{}, pkgerrors.New(pkgerrors.CodeValidation, "delivery address is required")
	}
}

func buildOrder(userID uuid.UUID, data cart.CheckoutData, method enums.PaymentMethod, notes string, address addresses.Address, now time.Time) *models.Order {
	order := &models.Order{
		ID:            uuid.New(),
		UserID:        userID,
		RestaurantID:  data.RestaurantID,
		Subtotal:      data.Subtotal,
		Discount:      data.Discount,
		DiscountValue: data.DiscountValue,
		DeliveryFee:   data.DeliveryFee,
		Total:         data.Total,
		PaymentMethod: method,
		Address:       address.Delivery(),
		Status:        enums.OrderStatusPending,
		CreatedAt:     now,
		UpdatedAt:     now,
		Items:         make([]models.OrderItem, 0, len(data.Items)),
	}
	if notes != "" {
		order.Notes = &notes
	}
	for _, item := range data.Items {
		row := models.OrderItem{
			ItemID:   item.ID,
			Name:     item.Name,
			Price:    item.Price,
			Quantity: item.Quantity,
		}
		if item.Image != "" {
			image := item.Image
			row.Image = &image
		}
		order.Items = append(order.Items, row)
	}
	return order
}

func (s *service) clearSnapshots(ctx context.Context, sess cart.Session, restaurantID uuid.UUID) {
	if err := s.snapshots.DeleteCart(ctx, sess, restaurantID.String()); err != nil {
		s.logg.WarnErr(ctx, "clear cart after order", err)
	}
	if err := s.snapshots.DeleteCheckout(ctx, sess, restaurantID); err != nil {
		s.logg.WarnErr(ctx, "clear checkout data after order", err)
	}
}

func (s *service) Get(ctx context.Context, actor Actor, orderID uuid.UUID) (*Order, error) {
	if actor.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "must be logged in")
	}
	row, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		return nil, mapReadError(err)
	}
	if !actor.Staff && row.UserID != actor.UserID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	out := FromModel(*row)
	return &out, nil
}

func (s *service) ListForUser(ctx context.Context, userID uuid.UUID, params pagination.Params) (*pagination.Page[Order], error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "must be logged in")
	}
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	rows, err := s.repo.ListByUser(ctx, userID, pagination.LimitWithBuffer(params.Limit), cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	views := make([]Order, 0, len(rows))
	for _, row := range rows {
		views = append(views, FromModel(row))
	}
	page := pagination.BuildPage(views, params.Limit, func(o Order) pagination.Cursor {
		return pagination.Cursor{CreatedAt: o.CreatedAt, ID: o.ID}
	})
	return &page, nil
}

// UpdateStatus appends a history entry. Customers may only cancel their own
// orders; every other move is for staff. Financial columns are never touched.
func (s *service) UpdateStatus(ctx context.Context, actor Actor, orderID uuid.UUID, input UpdateStatusInput) (*Order, error) {
	if actor.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "must be logged in")
	}
	if !input.Status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "status is invalid").
			WithDetails(map[string]any{"status": input.Status})
	}
	if input.Status != enums.OrderStatusCancelled && !actor.Staff {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only staff can change order status")
	}

	var updated *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		row, err := repo.FindByID(ctx, orderID)
		if err != nil {
			return err
		}
		if !actor.Staff && row.UserID != actor.UserID {
			return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		if !row.Status.CanTransitionTo(input.Status) {
			return pkgerrors.Newf(pkgerrors.CodeStateConflict, "cannot move order from %s to %s", row.Status, input.Status).
				WithDetails(map[string]any{"from": row.Status, "to": input.Status})
		}
		if err := repo.UpdateStatus(ctx, orderID, input.Status); err != nil {
			return err
		}
		actorID := actor.UserID
		event := &models.OrderStatusEvent{OrderID: orderID, Status: input.Status, ActorID: &actorID}
		if note := strings.TrimSpace(input.Note); note != "" {
			event.Note = &note
		}
		if err := repo.AppendStatusEvent(ctx, event); err != nil {
			return err
		}
		updated, err = repo.FindByID(ctx, orderID)
		return err
	})
	if err != nil {
		return nil, mapReadError(err)
	}
	out := FromModel(*updated)
	return &out, nil
}

func mapReadError(err error) error {
	if typed := pkgerrors.As(err); typed != nil {
		return typed
	}
	if db.IsNotFound(err) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
}
