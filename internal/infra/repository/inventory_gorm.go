package repository

import (
	"context"

	"storefront/internal/domain/model"

	"gorm.io/gorm"
)

// productsテーブルのstockとinventory_adjustmentsだけを触る
type InventoryGormRepository struct {
	db *gorm.DB
}

func NewInventoryGormRepository(db *gorm.DB) *InventoryGormRepository {
	return &InventoryGormRepository{db: db}
}

// stock >= qty の行だけ減らす。1行も更新できなければfalse（在庫不足か削除済み）。
func (r *InventoryGormRepository) DeductStock(ctx context.Context, productID int64, qty int64) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&model.Product{ID: productID}).
		Where("stock >= ?", qty).
		UpdateColumn("stock", gorm.Expr("stock - ?", qty))
	return res.RowsAffected == 1, res.Error
}

func (r *InventoryGormRepository) AppendAdjustments(ctx context.Context, adjustments []model.InventoryAdjustment) error {
	if len(adjustments) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&adjustments).Error
}
