package repository

import (
	"context"

	"storefront/internal/domain/model"
)

type OrderRepository interface {
	// 注文と明細を一度に保存する
	Create(ctx context.Context, order model.Order) (model.Order, error)
	// 明細込みで取得
	FindByID(ctx context.Context, orderID int64) (model.Order, error)
	// 新しい順、明細込み
	ListByUserID(ctx context.Context, userID int64) ([]model.Order, error)
	ListAll(ctx context.Context) ([]model.Order, error)
}
