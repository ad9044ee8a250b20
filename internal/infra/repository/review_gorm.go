package repository

import (
	"context"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ReviewGormRepository struct {
	db *gorm.DB
}

func NewReviewGormRepository(db *gorm.DB) *ReviewGormRepository {
	return &ReviewGormRepository{db: db}
}

// INSERT ... ON CONFLICT (user_id, product_id) DO UPDATE
func (r *ReviewGormRepository) Upsert(ctx context.Context, review model.Review) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "product_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"rating", "comment", "updated_at"}),
		}).
		Create(&review).Error
}

func (r *ReviewGormRepository) AggregateByProductID(ctx context.Context, productID int64) (repo.ReviewAggregate, error) {
	var agg repo.ReviewAggregate
	err := r.db.WithContext(ctx).
		Model(&model.Review{}).
		Select("COALESCE(AVG(rating), 0)::float8 AS average, COUNT(*) AS count").
		Where("product_id = ?", productID).
		Scan(&agg).Error
	if err != nil {
		return repo.ReviewAggregate{}, err
	}
	return agg, nil
}
