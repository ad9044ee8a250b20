package repository

import (
	"context"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"

	"gorm.io/gorm"
)

type OrderItemGormRepository struct {
	db *gorm.DB
}

func NewOrderItemGormRepository(db *gorm.DB) *OrderItemGormRepository {
	return &OrderItemGormRepository{db: db}
}

func (r *OrderItemGormRepository) SumQuantityByProduct(ctx context.Context) ([]repo.ProductSales, error) {
	var rows []repo.ProductSales
	err := r.db.WithContext(ctx).
		Model(&model.OrderItem{}).
		Select("product_id, SUM(quantity) AS quantity").
		Group("product_id").
		Scan(&rows).Error
	if err != nil {
		return []repo.ProductSales{}, err
	}
	return rows, nil
}
