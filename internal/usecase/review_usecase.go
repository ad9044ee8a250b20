package usecase

import (
	"context"
	"errors"
	"fmt"

	"storefront/internal/domain/model"
	"storefront/internal/infra/metrics"
	repo "storefront/internal/repository"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
)

// ReviewUsecase はレビューの保存と商品の評価集計を1つのtxで行う。
type ReviewUsecase struct {
	tx         repo.TransactionManager
	topSelling TopSellingCache
	clock      Clock
	retry      RetryPolicy
	logger     *zap.Logger
}

func NewReviewUsecase(tx repo.TransactionManager, topSelling TopSellingCache, clock Clock, retry RetryPolicy, logger *zap.Logger) *ReviewUsecase {
	if topSelling == nil {
		topSelling = NoopTopSellingCache{}
	}
	return &ReviewUsecase{tx: tx, topSelling: topSelling, clock: clock, retry: retry, logger: logger}
}

// AddReview はユーザーのレビューを作成（既にあれば上書き）し、
// 商品のrating/total_reviewsを全レビューから計算し直す。
func (u *ReviewUsecase) AddReview(ctx context.Context, userID int64, productID int64, rating int, comment *string) error {
	ctx, span := tracer.Start(ctx, "ReviewUsecase.AddReview")
	defer span.End()
	span.SetAttributes(attribute.Int64("product.id", productID), attribute.Int("review.rating", rating))

	//範囲外はI/Oの前に弾く
	if !model.ValidRating(rating) {
		return invalidRating(rating)
	}
	if userID <= 0 {
		return invalidInput("user_id", "unauthorized")
	}
	if productID <= 0 {
		return invalidInput("product_id", "invalid product id")
	}

	err := withinTxRetry(ctx, u.tx, u.retry, u.logger, "add_review", func(r repo.TxRepos) error {
		//同じ商品へのレビューはここで直列化される
		if _, err := r.Products().FindByIDForUpdate(ctx, productID); err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return productNotFound(productID)
			}
			return fmt.Errorf("lock product %d: %w", productID, err)
		}

		now := u.clock.Now()
		if err := r.Reviews().Upsert(ctx, model.Review{
			UserID:    userID,
			ProductID: productID,
			Rating:    rating,
			Comment:   comment,
			CreatedAt: now,
			UpdatedAt: now,
		}); err != nil {
			return fmt.Errorf("upsert review: %w", err)
		}

		agg, err := r.Reviews().AggregateByProductID(ctx, productID)
		if err != nil {
			return fmt.Errorf("aggregate reviews: %w", err)
		}

		if err := r.Products().UpdateRating(ctx, productID, agg.Average, agg.Count); err != nil {
			return fmt.Errorf("update rating: %w", err)
		}
		return nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, KindLabel(err))
		if errors.Is(err, ErrInternal) {
			u.logger.Error("add review failed", zap.Int64("product_id", productID), zap.Error(err))
		}
		return err
	}

	//売れ筋にはrating/total_reviewsも載っている
	if err := u.topSelling.Invalidate(ctx); err != nil {
		u.logger.Warn("top selling cache invalidate failed", zap.Int64("product_id", productID), zap.Error(err))
	}

	metrics.RecordReviewSaved()
	u.logger.Info("review saved",
		zap.Int64("user_id", userID),
		zap.Int64("product_id", productID),
		zap.Int("rating", rating),
	)
	return nil
}
