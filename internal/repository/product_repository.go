package repository

import (
	"context"
	"errors"

	"storefront/internal/domain/model"
)

var (
	ErrNotFound = errors.New("not found")
	// 同時実行の競合でコミットできなかった（デッドロック・シリアライズ失敗）
	ErrConflict = errors.New("conflict")
)

// 商品の永続化（保存・取得）だけを約束。
type ProductRepository interface {
	FindByID(ctx context.Context, id int64) (model.Product, error)
	// 行ロック付きで取得（トランザクション内でのみ使う）
	FindByIDForUpdate(ctx context.Context, id int64) (model.Product, error)
	FindByIDs(ctx context.Context, ids []int64) ([]model.Product, error)
	// 評価の高い順
	ListByRating(ctx context.Context) ([]model.Product, error)
	// 指定ID以外を新しい順にlimit件
	ListLatestExcluding(ctx context.Context, excludeIDs []int64, limit int) ([]model.Product, error)

	Create(ctx context.Context, p model.Product) (model.Product, error)
	Update(ctx context.Context, id int64, u model.ProductUpdate) error
	SoftDelete(ctx context.Context, id int64) error

	// 評価の集計結果を書き込む
	UpdateRating(ctx context.Context, id int64, rating float64, totalReviews int64) error
}
