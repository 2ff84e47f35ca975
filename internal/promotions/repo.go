package promotions

import (
	"context"
	"strings"

	"github.com/angelmondragon/foodcart-backend/pkg/db/models"
	"gorm.io/gorm"
)

// Repository reads coupon definitions.
type Repository interface {
	FindByCode(ctx context.Context, code string) (*models.Promotion, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a promotions repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

// FindByCode matches the code case-insensitively. Window and active checks are
// left to the caller so a stale coupon and an unknown one fail the same way.
func (r *repository) FindByCode(ctx context.Context, code string) (*models.Promotion, error) {
	var promo models.Promotion
	err := r.db.WithContext(ctx).
		Where("upper(code) = ?", strings.ToUpper(strings.TrimSpace(code))).
		First(&promo).Error
	if err != nil {
		return nil, err
	}
	return &promo, nil
}
