package usecase

import (
	"context"

	repo "storefront/internal/repository"
)

// 管理者向けの注文参照
type AdminOrderUsecase struct {
	tx repo.TransactionManager
}

func NewAdminOrderUsecase(tx repo.TransactionManager) *AdminOrderUsecase {
	return &AdminOrderUsecase{tx: tx}
}

// 全ユーザーの注文（新しい順、明細込み）
func (u *AdminOrderUsecase) ListAllOrders(ctx context.Context) ([]OrderOutput, error) {
	var outs []OrderOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		orders, err := r.Orders().ListAll(ctx)
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
