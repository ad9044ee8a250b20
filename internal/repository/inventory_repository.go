package repository

import (
	"context"

	"storefront/internal/domain/model"
)

// 在庫の減算と、その記録
type InventoryRepository interface {
	DeductStock(ctx context.Context, productID int64, qty int64) (bool, error)
	AppendAdjustments(ctx context.Context, adjustments []model.InventoryAdjustment) error
}
