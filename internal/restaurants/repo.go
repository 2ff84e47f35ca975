package restaurants

import (
	"context"

	"github.com/angelmondragon/foodcart-backend/pkg/db/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository exposes the restaurant lookups the cart needs.
type Repository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Restaurant, error)
	FindByLegacyID(ctx context.Context, legacyID int64) (*models.Restaurant, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a restaurants repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Restaurant, error) {
	var restaurant models.Restaurant
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&restaurant).Error; err != nil {
		return nil, err
	}
	return &restaurant, nil
}

func (r *repository) FindByLegacyID(ctx context.Context, legacyID int64) (*models.Restaurant, error) {
	var restaurant models.Restaurant
	if err := r.db.WithContext(ctx).Where("legacy_id = ?", legacyID).First(&restaurant).Error; err != nil {
		return nil, err
	}
	return &restaurant, nil
}
