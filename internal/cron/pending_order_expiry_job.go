package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/angelmondragon/foodcart-backend/internal/orders"
	"github.com/angelmondragon/foodcart-backend/pkg/db/models"
	"github.com/angelmondragon/foodcart-backend/pkg/enums"
	"github.com/angelmondragon/foodcart-backend/pkg/logger"
	"github.com/google/uuid"
	"go.uber.org/multierr"
	"gorm.io/gorm"
)

const (
	defaultPendingOrderTTL = 2 * time.Hour
	defaultExpiryBatchSize = 200

	// ExpiryNote is recorded on the status history of expired orders.
	ExpiryNote = "not confirmed in time"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type PendingOrderExpiryParams struct {
	Logger    *logger.Logger
	DB        txRunner
	Orders    orders.Repository
	TTL       time.Duration
	BatchSize int
	Now       func() time.Time
}

// NewPendingOrderExpiryJob cancels orders nobody confirmed within TTL.
func NewPendingOrderExpiryJob(params PendingOrderExpiryParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.DB == nil {
		return nil, fmt.Errorf("db runner required")
	}
	if params.Orders == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	ttl := params.TTL
	if ttl <= 0 {
		ttl = defaultPendingOrderTTL
	}
	batch := params.BatchSize
	if batch <= 0 {
		batch = defaultExpiryBatchSize
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &pendingOrderExpiryJob{
		logg:   params.Logger,
		db:     params.DB,
		orders: params.Orders,
		ttl:    ttl,
		batch:  batch,
		now:    now,
	}, nil
}

type pendingOrderExpiryJob struct {
	logg   *logger.Logger
	db     txRunner
	orders orders.Repository
	ttl    time.Duration
	batch  int
	now    func() time.Time
}

func (j *pendingOrderExpiryJob) Name() string { return "pending-order-expiry" }

func (j *pendingOrderExpiryJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC().Add(-j.ttl)
	stale, err := j.orders.FindPendingBefore(ctx, cutoff, j.batch)
	if err != nil {
		return fmt.Errorf("query pending orders: %w", err)
	}

	var errs []error
	expired := 0
	for _, order := range stale {
		ok, err := j.expire(ctx, order.ID)
		if err != nil {
			errs = append(errs, fmt.Errorf("expire order %s: %w", order.ID, err))
			continue
		}
		if ok {
			expired++
		}
	}

	logCtx := j.logg.WithFields(ctx, map[string]any{
		"candidates": len(stale),
		"expired":    expired,
		"failed":     len(errs),
	})
	j.logg.Info(logCtx, "cron.pending_orders_expired")
	return multierr.Combine(errs...)
}

// expire re-reads the order inside the transaction; an order that moved on
// since the query is left alone.
func (j *pendingOrderExpiryJob) expire(ctx context.Context, orderID uuid.UUID) (bool, error) {
	expired := false
	err := j.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := j.orders.WithTx(tx)
		current, err := repo.FindByID(ctx, orderID)
		if err != nil {
			return err
		}
		if current.Status != enums.OrderStatusPending {
			return nil
		}
		if err := repo.UpdateStatus(ctx, orderID, enums.OrderStatusCancelled); err != nil {
			return err
		}
		note := ExpiryNote
		if err := repo.AppendStatusEvent(ctx, &models.OrderStatusEvent{
			OrderID:   orderID,
			Status:    enums.OrderStatusCancelled,
			Note:      &note,
			CreatedAt: j.now().UTC(),
		}); err != nil {
			return err
		}
		expired = true
		return nil
	})
	return expired, err
}
