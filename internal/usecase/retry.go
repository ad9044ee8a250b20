package usecase

import (
	"context"
	"errors"
	"math/rand"
	"time"

	"storefront/internal/infra/metrics"
	repo "storefront/internal/repository"

	"go.uber.org/zap"
)

// 競合（デッドロック等）でコミットできなかったときの再実行ポリシー
type RetryPolicy struct {
	MaxRetries  int
	BaseBackoff time.Duration
	MaxBackoff  time.Duration
}

func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries:  3,
		BaseBackoff: 20 * time.Millisecond,
		MaxBackoff:  500 * time.Millisecond,
	}
}

// 指数バックオフ + ジッター
func (p RetryPolicy) backoff(attempt int) time.Duration {
	if p.BaseBackoff <= 0 {
		return 0
	}
	exp := p.BaseBackoff * time.Duration(1<<attempt)
	if p.MaxBackoff > 0 && exp > p.MaxBackoff {
		exp = p.MaxBackoff
	}
	jitter := time.Duration(rand.Int63n(int64(exp/2) + 1))
	return exp + jitter
}

// withinTxRetry はunit of work全体をErrConflictのときだけ再実行する。
// 検証エラーなどはそのまま返す。途中の結果は各回ロールバックされている。
func withinTxRetry(ctx context.Context, tx repo.TransactionManager, p RetryPolicy, logger *zap.Logger, op string, fn func(r repo.TxRepos) error) error {
	for attempt := 0; ; attempt++ {
		err := tx.WithinTx(ctx, fn)
		if err == nil {
			return nil
		}
		if !errors.Is(err, repo.ErrConflict) || attempt >= p.MaxRetries || ctx.Err() != nil {
			return toUsecaseError(err)
		}

		metrics.RecordTxRetry(op)
		wait := p.backoff(attempt)
		logger.Warn("unit of work conflict, retrying",
			zap.String("operation", op),
			zap.Int("attempt", attempt+1),
			zap.Duration("backoff", wait),
			zap.Error(err),
		)

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return toUsecaseError(err)
		case <-timer.C:
		}
	}
}

// リポジトリのエラーをユースケースのエラーに変換する
func toUsecaseError(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := AsError(err); ok {
		return err
	}
	if errors.Is(err, repo.ErrConflict) {
		return conflict(err)
	}
	if errors.Is(err, repo.ErrNotFound) {
		return &Error{Kind: ErrNotFound, cause: err}
	}
	return internal(err)
}
