package addresses

import (
	"context"
	"fmt"

	"github.com/angelmondragon/foodcart-backend/pkg/db"
	pkgerrors "github.com/angelmondragon/foodcart-backend/pkg/errors"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const defaultIndexName = "addresses_one_default_per_user"

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service manages a user's saved delivery addresses.
type Service interface {
	List(ctx context.Context, userID uuid.UUID) ([]Address, error)
	Get(ctx context.Context, userID, id uuid.UUID) (*Address, error)
	Create(ctx context.Context, userID uuid.UUID, raw []byte) (*Address, error)
	SetDefault(ctx context.Context, userID, id uuid.UUID) (*Address, error)
	Delete(ctx context.Context, userID, id uuid.UUID) error
}

type service struct {
	repo Repository
	tx   txRunner
}

// NewService builds the address service.
func NewService(repo Repository, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("address repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, tx: tx}, nil
}

func (s *service) List(ctx context.Context, userID uuid.UUID) ([]Address, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "must be logged in")
	}
	rows, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list addresses")
	}
	out := make([]Address, 0, len(rows))
	for _, row := range rows {
		out = append(out, FromModel(row))
	}
	return out, nil
}

func (s *service) Get(ctx context.Context, userID, id uuid.UUID) (*Address, error) {
	row, err := s.repo.FindByIDForUser(ctx, userID, id)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "address not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load address")
	}
	addr := FromModel(*row)
	return &addr, nil
}

// Create accepts either naming scheme. The first address a user saves becomes
// the default; an explicit default moves the flag off the previous one.
func (s *service) Create(ctx context.Context, userID uuid.UUID, raw []byte) (*Address, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "must be logged in")
	}
	rec, err := DecodeRecord(raw)
	if err != nil {
		return nil, err
	}
	addr := rec.Address
	if err := addr.Validate(); err != nil {
		return nil, err
	}
	addr.ID = uuid.Nil
	addr.UserID = userID

	var created Address
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		count, err := repo.CountByUser(ctx, userID)
		if err != nil {
			return err
		}
		if count == 0 {
			addr.IsDefault = true
		}
		if addr.IsDefault && count > 0 {
			if err := repo.ClearDefault(ctx, userID); err != nil {
				return err
			}
		}
		row := toModel(addr)
		saved, err := repo.Create(ctx, &row)
		if err != nil {
			return err
		}
		created = FromModel(*saved)
		return nil
	})
	if err != nil {
		return nil, mapWriteError(err, "create address")
	}
	return &created, nil
}

func (s *service) SetDefault(ctx context.Context, userID, id uuid.UUID) (*Address, error) {
	var updated Address
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if _, err := repo.FindByIDForUser(ctx, userID, id); err != nil {
			return err
		}
		if err := repo.ClearDefault(ctx, userID); err != nil {
			return err
		}
		if _, err := repo.MarkDefault(ctx, userID, id); err != nil {
			return err
		}
		row, err := repo.FindByIDForUser(ctx, userID, id)
		if err != nil {
			return err
		}
		updated = FromModel(*row)
		return nil
	})
	if err != nil {
		return nil, mapWriteError(err, "set default address")
	}
	return &updated, nil
}

// Delete removes an address. Deleting the default promotes the next one.
func (s *service) Delete(ctx context.Context, userID, id uuid.UUID) error {
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		row, err := repo.FindByIDForUser(ctx, userID, id)
		if err != nil {
			return err
		}
		if _, err := repo.Delete(ctx, userID, id); err != nil {
			return err
		}
		if !row.IsDefault {
			return nil
		}
		remaining, err := repo.ListByUser(ctx, userID)
		if err != nil || len(remaining) == 0 {
			return err
		}
		_, err = repo.MarkDefault(ctx, userID, remaining[0].ID)
		return err
	})
	if err != nil {
		return mapWriteError(err, "delete address")
	}
	return nil
}

func mapWriteError(err error, action string) error {
	if typed := pkgerrors.As(err); typed != nil {
		return typed
	}
	if db.IsNotFound(err) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "address not found")
	}
	if db.IsUniqueViolation(err, defaultIndexName) {
		return pkgerrors.Wrap(pkgerrors.CodeConflict, err, "another default address was saved concurrently")
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, action)
}
