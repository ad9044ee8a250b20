package repository

import "context"

type FavoriteRepository interface {
	Exists(ctx context.Context, userID, productID int64) (bool, error)
	Create(ctx context.Context, userID, productID int64) error
	Delete(ctx context.Context, userID, productID int64) error
	ListProductIDsByUserID(ctx context.Context, userID int64) ([]int64, error)
}
