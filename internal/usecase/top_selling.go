package usecase

import (
	"context"
	"sort"

	"storefront/internal/domain/model"
	"storefront/internal/infra/metrics"
	repo "storefront/internal/repository"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

const TopSellingLimit = 5

// RankTopSelling は販売数量の合計が多い順（同数は商品IDの昇順）に
// 最大TopSellingLimit件の商品IDを返す。
func RankTopSelling(sales []repo.ProductSales) []int64 {
	sorted := make([]repo.ProductSales, 0, len(sales))
	for _, s := range sales {
		if s.Quantity > 0 {
			sorted = append(sorted, s)
		}
	}
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Quantity != sorted[j].Quantity {
			return sorted[i].Quantity > sorted[j].Quantity
		}
		return sorted[i].ProductID < sorted[j].ProductID
	})

	n := len(sorted)
	if n > TopSellingLimit {
		n = TopSellingLimit
	}
	ids := make([]int64, 0, n)
	for _, s := range sorted[:n] {
		ids = append(ids, s.ProductID)
	}
	return ids
}

// TopSelling は売れ筋上位の商品を返す。
// 5件に満たない分は、まだ選ばれていない商品を新しい順で埋める。
func (u *ProductUsecase) TopSelling(ctx context.Context) ([]model.Product, error) {
	ctx, span := tracer.Start(ctx, "ProductUsecase.TopSelling")
	defer span.End()

	//世代は計算より先に読む
	cached, cacheErr := u.topSelling.Get(ctx)
	if cacheErr != nil {
		//キャッシュが使えなくても計算はできる
		u.logger.Warn("top selling cache get failed", zap.Error(cacheErr))
	}
	if cacheErr == nil && cached.Hit {
		metrics.RecordTopSellingCache(true)
		span.SetAttributes(attribute.Bool("cache.hit", true))
		return cached.Products, nil
	}
	metrics.RecordTopSellingCache(false)

	var products []model.Product

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		sales, err := r.OrderItems().SumQuantityByProduct(ctx)
		if err != nil {
			return err
		}
		ranked := RankTopSelling(sales)

		found, err := r.Products().FindByIDs(ctx, ranked)
		if err != nil {
			return err
		}

		//順位の順に並べ直す（削除済みの商品は落ちる）
		byID := make(map[int64]model.Product, len(found))
		for _, p := range found {
			byID[p.ID] = p
		}
		products = make([]model.Product, 0, TopSellingLimit)
		selected := make([]int64, 0, TopSellingLimit)
		for _, id := range ranked {
			if p, ok := byID[id]; ok {
				products = append(products, p)
				selected = append(selected, id)
			}
		}

		missing := TopSellingLimit - len(products)
		if missing > 0 {
			filler, err := r.Products().ListLatestExcluding(ctx, selected, missing)
			if err != nil {
				return err
			}
			products = append(products, filler...)
		}
		return nil
	})
	if err != nil {
		span.RecordError(err)
		return []model.Product{}, toUsecaseError(err)
	}

	if cacheErr != nil {
		return products, nil
	}
	if err := u.topSelling.Set(ctx, cached.Generation, products); err != nil {
		u.logger.Warn("top selling cache set failed", zap.Error(err))
	}
	return products, nil
}
