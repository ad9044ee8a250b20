package usecase

import (
	"context"
	"errors"
	"fmt"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"
)

// InventoryLedger は在庫の確認と減算を1行ずつ行う。
// 呼び出し側のトランザクション（TxRepos）の中でのみ使う。
type InventoryLedger struct{}

func NewInventoryLedger() *InventoryLedger {
	return &InventoryLedger{}
}

// Reserve は商品行をロックしてから在庫を減らし、減算前のスナップショットを返す。
// 同じ商品へのReserveはロックで直列化される。
// 在庫の減算はtxがコミットされたときだけ確定する。
func (l *InventoryLedger) Reserve(ctx context.Context, r repo.TxRepos, productID int64, qty int64) (model.ProductSnapshot, error) {
	if qty <= 0 {
		return model.ProductSnapshot{}, invalidInput("quantity", "quantity must be positive")
	}

	p, err := r.Products().FindByIDForUpdate(ctx, productID)
	if errors.Is(err, repo.ErrNotFound) {
		return model.ProductSnapshot{}, productNotFound(productID)
	}
	if err != nil {
		return model.ProductSnapshot{}, fmt.Errorf("lock product %d: %w", productID, err)
	}

	if !p.IsActive {
		return model.ProductSnapshot{}, productInactive(p.ID, p.Name)
	}
	if p.Stock < qty {
		return model.ProductSnapshot{}, insufficientStock(p.ID, qty, p.Stock)
	}

	snapshot := p.Snapshot()

	//在庫減算（ロック済みなので通常はtrue）
	ok, err := r.Inventory().DeductStock(ctx, productID, qty)
	if err != nil {
		return model.ProductSnapshot{}, fmt.Errorf("decrease stock %d: %w", productID, err)
	}
	if !ok {
		return model.ProductSnapshot{}, insufficientStock(p.ID, qty, p.Stock)
	}

	return snapshot, nil
}
