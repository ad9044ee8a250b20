package repository

import (
	"context"

	"storefront/internal/domain/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type FavoriteGormRepository struct {
	db *gorm.DB
}

func NewFavoriteGormRepository(db *gorm.DB) *FavoriteGormRepository {
	return &FavoriteGormRepository{db: db}
}

func (r *FavoriteGormRepository) Exists(ctx context.Context, userID, productID int64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.Favorite{}).
		Where("user_id = ? AND product_id = ?", userID, productID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// 同時に作られても一意制約で1行にしかならない
func (r *FavoriteGormRepository) Create(ctx context.Context, userID, productID int64) error {
	fav := model.Favorite{UserID: userID, ProductID: productID}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&fav).Error
}

func (r *FavoriteGormRepository) Delete(ctx context.Context, userID, productID int64) error {
	return r.db.WithContext(ctx).
		Where("user_id = ? AND product_id = ?", userID, productID).
		Delete(&model.Favorite{}).Error
}

func (r *FavoriteGormRepository) ListProductIDsByUserID(ctx context.Context, userID int64) ([]int64, error) {
	var ids []int64
	err := r.db.WithContext(ctx).
		Model(&model.Favorite{}).
		Where("user_id = ?", userID).
		Order("product_id asc").
		Pluck("product_id", &ids).Error
	if err != nil {
		return []int64{}, err
	}
	return ids, nil
}
