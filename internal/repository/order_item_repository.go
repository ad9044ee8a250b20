package repository

import (
	"context"
)

// 商品ごとの販売数量合計
type ProductSales struct {
	ProductID int64
	Quantity  int64
}

type OrderItemRepository interface {
	// 全注文明細を商品ごとに数量合計する（順序は保証しない）
	SumQuantityByProduct(ctx context.Context) ([]ProductSales, error)
}
