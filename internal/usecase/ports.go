package usecase

import (
	"context"
	"time"

	"storefront/internal/domain/model"
)

type Clock interface {
	Now() time.Time
}

type IDGenerator interface {
	NewID() string
}

// 注文確定イベント
type OrderPlacedEvent struct {
	EventID    string            `json:"event_id"`
	OrderID    int64             `json:"order_id"`
	UserID     int64             `json:"user_id"`
	TotalPrice int64             `json:"total_price"`
	Items      []OrderPlacedItem `json:"items"`
	CreatedAt  time.Time         `json:"created_at"`
}

type OrderPlacedItem struct {
	ProductID int64 `json:"product_id"`
	Quantity  int64 `json:"quantity"`
	Subtotal  int64 `json:"subtotal"`
}

// コミット後に通知する。失敗しても注文は取り消さない。
type OrderEventPublisher interface {
	PublishOrderPlaced(ctx context.Context, event OrderPlacedEvent) error
}

// 売れ筋ランキングのキャッシュ。
// Invalidateのたびに世代が進む。Setは計算前にGetで読んだ世代を渡し、
// 途中でInvalidateされていればその結果はもう読まれない。
type TopSellingCache interface {
	Get(ctx context.Context) (CachedTopSelling, error)
	Set(ctx context.Context, generation int64, products []model.Product) error
	Invalidate(ctx context.Context) error
}

type CachedTopSelling struct {
	Generation int64
	Products   []model.Product
	Hit        bool
}

type NoopOrderEventPublisher struct{}

func (NoopOrderEventPublisher) PublishOrderPlaced(context.Context, OrderPlacedEvent) error {
	return nil
}

type NoopTopSellingCache struct{}

func (NoopTopSellingCache) Get(context.Context) (CachedTopSelling, error)     { return CachedTopSelling{}, nil }
func (NoopTopSellingCache) Set(context.Context, int64, []model.Product) error { return nil }
func (NoopTopSellingCache) Invalidate(context.Context) error                  { return nil }
