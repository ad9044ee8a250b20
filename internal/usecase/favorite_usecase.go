package usecase

import (
	"context"

	repo "storefront/internal/repository"

	"go.uber.org/zap"
)

type FavoriteUsecase struct {
	favoriteRepo repo.FavoriteRepository
	logger       *zap.Logger
}

func NewFavoriteUsecase(favoriteRepo repo.FavoriteRepository, logger *zap.Logger) *FavoriteUsecase {
	return &FavoriteUsecase{favoriteRepo: favoriteRepo, logger: logger}
}

type ToggleFavoriteOutput struct {
	IsFavorite bool `json:"isFavorite"`
}

// Toggle はお気に入りの有無を反転させ、反転後の状態を返す。
// 商品の存在はチェックしない。
func (u *FavoriteUsecase) Toggle(ctx context.Context, userID int64, productID int64) (ToggleFavoriteOutput, error) {
	if userID <= 0 {
		return ToggleFavoriteOutput{}, invalidInput("user_id", "unauthorized")
	}
	if productID <= 0 {
		return ToggleFavoriteOutput{}, invalidInput("product_id", "invalid product id")
	}

	exists, err := u.favoriteRepo.Exists(ctx, userID, productID)
	if err != nil {
		return ToggleFavoriteOutput{}, toUsecaseError(err)
	}

	if exists {
		if err := u.favoriteRepo.Delete(ctx, userID, productID); err != nil {
			return ToggleFavoriteOutput{}, toUsecaseError(err)
		}
		u.logger.Debug("favorite removed", zap.Int64("user_id", userID), zap.Int64("product_id", productID))
		return ToggleFavoriteOutput{IsFavorite: false}, nil
	}

	//同時に作成されても重複はDO NOTHINGで無視される
	if err := u.favoriteRepo.Create(ctx, userID, productID); err != nil {
		return ToggleFavoriteOutput{}, toUsecaseError(err)
	}
	u.logger.Debug("favorite added", zap.Int64("user_id", userID), zap.Int64("product_id", productID))
	return ToggleFavoriteOutput{IsFavorite: true}, nil
}

func (u *FavoriteUsecase) ListFavoriteIDs(ctx context.Context, userID int64) ([]int64, error) {
	if userID <= 0 {
		return []int64{}, invalidInput("user_id", "unauthorized")
	}

	ids, err := u.favoriteRepo.ListProductIDsByUserID(ctx, userID)
	if err != nil {
		return []int64{}, toUsecaseError(err)
	}
	if ids == nil {
		ids = []int64{}
	}
	return ids, nil
}
