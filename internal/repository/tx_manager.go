package repository

import "context"

// トランザクション内で使う約束
type TxRepos interface {
	Orders() OrderRepository
	OrderItems() OrderItemRepository
	Inventory() InventoryRepository
	Products() ProductRepository
	Reviews() ReviewRepository
}

// UsecaseからTxの開始/commit/rollbackを隠す。
// fnがエラーを返したらロールバック。競合でコミットできない場合はErrConflictを返す。
type TransactionManager interface {
	WithinTx(ctx context.Context, fn func(r TxRepos) error) error
}
