package usecase

import (
	"context"
	"errors"
	"time"

	"storefront/internal/domain/model"
	"storefront/internal/infra/metrics"
	repo "storefront/internal/repository"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("storefront/usecase")

type OrderUsecase struct {
	tx         repo.TransactionManager
	ledger     *InventoryLedger
	events     OrderEventPublisher
	topSelling TopSellingCache
	clock      Clock
	idGen      IDGenerator
	retry      RetryPolicy
	logger     *zap.Logger
}

func NewOrderUsecase(
	tx repo.TransactionManager,
	ledger *InventoryLedger,
	events OrderEventPublisher,
	topSelling TopSellingCache,
	clock Clock,
	idGen IDGenerator,
	retry RetryPolicy,
	logger *zap.Logger,
) *OrderUsecase {
	if events == nil {
		events = NoopOrderEventPublisher{}
	}
	if topSelling == nil {
		topSelling = NoopTopSellingCache{}
	}
	return &OrderUsecase{
		tx:         tx,
		ledger:     ledger,
		events:     events,
		topSelling: topSelling,
		clock:      clock,
		idGen:      idGen,
		retry:      retry,
		logger:     logger,
	}
}

type ExtraInput struct {
	Name  string
	Price int64
}

// カートの1行
type CartLine struct {
	ProductID int64
	Quantity  int64
	Extras    []ExtraInput
}

type PlaceOrderInput struct {
	Items []CartLine
}

type ExtraOutput struct {
	Name  string `json:"name"`
	Price int64  `json:"price"`
}

type OrderItemOutput struct {
	ID        int64         `json:"id"`
	ProductID int64         `json:"product_id"`
	Name      string        `json:"name"`
	Price     int64         `json:"price"`
	Quantity  int64         `json:"quantity"`
	Extras    []ExtraOutput `json:"extras"`
	Subtotal  int64         `json:"subtotal"`
}

type OrderOutput struct {
	ID         int64             `json:"id"`
	UserID     int64             `json:"user_id"`
	TotalPrice int64             `json:"total_price"`
	CreatedAt  time.Time         `json:"created_at"`
	Items      []OrderItemOutput `json:"items"`
}

// PlaceOrder はカートを1つのトランザクションで注文にする。
// 行は送られた順に在庫を確保し、どこかで失敗したら在庫も注文も何も残らない。
func (u *OrderUsecase) PlaceOrder(ctx context.Context, userID int64, in PlaceOrderInput) (OrderOutput, error) {
	ctx, span := tracer.Start(ctx, "OrderUsecase.PlaceOrder")
	defer span.End()
	span.SetAttributes(attribute.Int64("user.id", userID), attribute.Int("cart.lines", len(in.Items)))

	out, err := u.placeOrder(ctx, userID, in)
	if err != nil {
		metrics.RecordOrderFailed(KindLabel(err))
		span.RecordError(err)
		span.SetStatus(codes.Error, KindLabel(err))
		if errors.Is(err, ErrInternal) {
			u.logger.Error("place order failed", zap.Int64("user_id", userID), zap.Error(err))
		} else {
			u.logger.Info("place order rejected", zap.Int64("user_id", userID), zap.Error(err))
		}
		return OrderOutput{}, err
	}

	span.SetAttributes(attribute.Int64("order.id", out.ID))
	metrics.RecordOrderPlaced(out.TotalPrice)
	u.logger.Info("order placed",
		zap.Int64("order_id", out.ID),
		zap.Int64("user_id", userID),
		zap.Int64("total_price", out.TotalPrice),
		zap.Int("lines", len(out.Items)),
	)

	u.afterCommit(ctx, out)
	return out, nil
}

func (u *OrderUsecase) placeOrder(ctx context.Context, userID int64, in PlaceOrderInput) (OrderOutput, error) {
	if userID <= 0 {
		return OrderOutput{}, invalidInput("user_id", "unauthorized")
	}
	if len(in.Items) == 0 {
		return OrderOutput{}, &Error{Kind: ErrEmptyCart, Field: "items", Message: "cart has no lines"}
	}
	for _, line := range in.Items {
		if line.ProductID <= 0 {
			return OrderOutput{}, invalidInput("product_id", "invalid product_id")
		}
		if line.Quantity <= 0 {
			return OrderOutput{}, &Error{Kind: ErrInvalidInput, ProductID: line.ProductID, Field: "quantity", Message: "quantity must be positive"}
		}
		for _, ex := range line.Extras {
			if ex.Price < 0 {
				return OrderOutput{}, &Error{Kind: ErrInvalidInput, ProductID: line.ProductID, Field: "extras.price", Message: "extra price must be >= 0"}
			}
		}
	}

	var out OrderOutput

	//注文処理はトランザクション（競合時は全体をやり直す）
	err := withinTxRetry(ctx, u.tx, u.retry, u.logger, "place_order", func(r repo.TxRepos) error {
		items := make([]model.OrderItem, 0, len(in.Items))

		//送られた順に在庫を確保して、スナップショットから明細を作る
		for _, line := range in.Items {
			snap, err := u.ledger.Reserve(ctx, r, line.ProductID, line.Quantity)
			if err != nil {
				return err
			}
			items = append(items, model.NewOrderItem(snap, line.Quantity, toExtras(line.Extras)))
		}

		now := u.clock.Now()
		for i := range items {
			items[i].CreatedAt = now
		}

		// 注文と明細を一度に保存
		order, err := r.Orders().Create(ctx, model.Order{
			UserID:     userID,
			TotalPrice: model.OrderTotal(items),
			CreatedAt:  now,
			Items:      items,
		})
		if err != nil {
			return err
		}

		//在庫の減算履歴
		adjs := make([]model.InventoryAdjustment, 0, len(order.Items))
		for _, it := range order.Items {
			adjs = append(adjs, model.InventoryAdjustment{
				ProductID: it.ProductID,
				OrderID:   order.ID,
				Delta:     -it.Quantity,
				Reason:    model.AdjustmentReasonOrderPlaced,
				CreatedAt: now,
			})
		}
		if err := r.Inventory().AppendAdjustments(ctx, adjs); err != nil {
			return err
		}

		out = toOrderOutput(order)
		return nil
	})
	if err != nil {
		return OrderOutput{}, err
	}
	return out, nil
}

// コミット後の通知。失敗してもログだけ残す。
func (u *OrderUsecase) afterCommit(ctx context.Context, out OrderOutput) {
	if err := u.topSelling.Invalidate(ctx); err != nil {
		u.logger.Warn("top selling cache invalidate failed", zap.Error(err))
	}

	items := make([]OrderPlacedItem, 0, len(out.Items))
	for _, it := range out.Items {
		items = append(items, OrderPlacedItem{ProductID: it.ProductID, Quantity: it.Quantity, Subtotal: it.Subtotal})
	}
	event := OrderPlacedEvent{
		EventID:    u.idGen.NewID(),
		OrderID:    out.ID,
		UserID:     out.UserID,
		TotalPrice: out.TotalPrice,
		Items:      items,
		CreatedAt:  out.CreatedAt,
	}
	if err := u.events.PublishOrderPlaced(ctx, event); err != nil {
		u.logger.Warn("order placed event not published",
			zap.Int64("order_id", out.ID),
			zap.String("event_id", event.EventID),
			zap.Error(err),
		)
	}
}

func (u *OrderUsecase) ListMyOrders(ctx context.Context, userID int64) ([]OrderOutput, error) {
	if userID <= 0 {
		return []OrderOutput{}, invalidInput("user_id", "unauthorized")
	}

	var outs []OrderOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		orders, err := r.Orders().ListByUserID(ctx, userID)
		if err != nil {
			return err
		}

		outs = make([]OrderOutput, 0, len(orders))
		for _, o := range orders {
			outs = append(outs, toOrderOutput(o))
		}
		return nil
	})

	if err != nil {
		return []OrderOutput{}, toUsecaseError(err)
	}
	return outs, nil
}

func (u *OrderUsecase) GetMyOrderDetail(ctx context.Context, userID int64, orderID int64) (OrderOutput, error) {
	if userID <= 0 {
		return OrderOutput{}, invalidInput("user_id", "unauthorized")
	}
	if orderID <= 0 {
		return OrderOutput{}, invalidInput("id", "invalid id")
	}

	var out OrderOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := r.Orders().FindByID(ctx, orderID)
		if errors.Is(err, repo.ErrNotFound) {
			return orderNotFound(orderID)
		}
		if err != nil {
			return err
		}
		if o.UserID != userID {
			//他人の注文は「存在しない扱い」にする
			return orderNotFound(orderID)
		}

		out = toOrderOutput(o)
		return nil
	})

	if err != nil {
		return OrderOutput{}, toUsecaseError(err)
	}
	return out, nil
}

func toExtras(in []ExtraInput) []model.OrderItemExtra {
	out := make([]model.OrderItemExtra, 0, len(in))
	for _, e := range in {
		out = append(out, model.OrderItemExtra{Name: e.Name, Price: e.Price})
	}
	return out
}

func toOrderOutput(o model.Order) OrderOutput {
	outItems := make([]OrderItemOutput, 0, len(o.Items))
	for _, it := range o.Items {
		extras := make([]ExtraOutput, 0, len(it.Extras))
		for _, e := range it.Extras {
			extras = append(extras, ExtraOutput{Name: e.Name, Price: e.Price})
		}
		outItems = append(outItems, OrderItemOutput{
			ID:        it.ID,
			ProductID: it.ProductID,
			Name:      it.ProductNameSnapshot,
			Price:     it.UnitPriceSnapshot,
			Quantity:  it.Quantity,
			Extras:    extras,
			Subtotal:  it.Subtotal,
		})
	}

	return OrderOutput{
		ID:         o.ID,
		UserID:     o.UserID,
		TotalPrice: o.TotalPrice,
		CreatedAt:  o.CreatedAt,
		Items:      outItems,
	}
}
