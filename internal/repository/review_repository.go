package repository

import (
	"context"

	"storefront/internal/domain/model"
)

// 商品のレビュー集計
type ReviewAggregate struct {
	Average float64
	Count   int64
}

type ReviewRepository interface {
	// (user_id, product_id)が既にあれば上書き
	Upsert(ctx context.Context, review model.Review) error
	AggregateByProductID(ctx context.Context, productID int64) (ReviewAggregate, error)
}
