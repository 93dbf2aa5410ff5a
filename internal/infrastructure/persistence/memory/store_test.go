package memory

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"credit-server/internal/domain/balance"
	"credit-server/internal/domain/transaction"
)

func TestStore_AdjustWithGuard(t *testing.T) {
	tests := []struct {
		name      string
		initial   int64
		delta     int64
		want      int64
		wantError bool
		errorType error
	}{
		{name: "正常系: 加算", initial: 100, delta: 50, want: 150},
		{name: "正常系: 減算", initial: 100, delta: -30, want: 70},
		{name: "正常系: 残高ちょうどを使い切る", initial: 100, delta: -100, want: 0},
		{name: "正常系: 未存在ユーザーは残高0から開始", initial: -1, delta: 100, want: 100},
		{name: "異常系: 残高不足", initial: 50, delta: -100, wantError: true, errorType: balance.ErrInsufficientFunds},
		{name: "異常系: 上限超過", initial: balance.MaxBalance, delta: 1, wantError: true, errorType: balance.ErrBalanceOutOfRange},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := NewStore()
			ctx := context.Background()
			repo := store.BalanceRepository()

			if tt.initial >= 0 {
				err := store.WithTransaction(ctx, func(tx *sql.Tx) error {
					_, err := repo.AdjustWithGuard(ctx, tx, "user123", tt.initial)
					return err
				})
				require.NoError(t, err)
			}

			var got int64
			err := store.WithTransaction(ctx, func(tx *sql.Tx) error {
				var err error
				got, err = repo.AdjustWithGuard(ctx, tx, "user123", tt.delta)
				return err
			})

			if tt.wantError {
				assert.ErrorIs(t, err, tt.errorType)
				if tt.initial >= 0 {
					// 失敗時は残高が変わらない
					b, err := repo.FindByUserID(ctx, "user123")
					require.NoError(t, err)
					assert.Equal(t, tt.initial, b.Amount())
				}
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestStore_WithTransaction_Rollback(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	balanceRepo := store.BalanceRepository()
	txnRepo := store.TransactionRepository()

	err := store.WithTransaction(ctx, func(tx *sql.Tx) error {
		_, err := balanceRepo.AdjustWithGuard(ctx, tx, "user123", 100)
		require.NoError(t, err)
		return txnRepo.Save(ctx, tx, transaction.MustNewTransaction(
			"txn_1", "user123", transaction.TransactionTypePurchase, 100, 100, "", nil,
		))
	})
	require.NoError(t, err)

	// fnが失敗したら残高もログも開始時点に巻き戻る
	wantErr := errors.New("append failed")
	err = store.WithTransaction(ctx, func(tx *sql.Tx) error {
		_, err := balanceRepo.AdjustWithGuard(ctx, tx, "user123", 50)
		require.NoError(t, err)
		if err := txnRepo.Save(ctx, tx, transaction.MustNewTransaction(
			"txn_2", "user123", transaction.TransactionTypePurchase, 50, 150, "", nil,
		)); err != nil {
			return err
		}
		return wantErr
	})
	assert.ErrorIs(t, err, wantErr)

	b, err := balanceRepo.FindByUserID(ctx, "user123")
	require.NoError(t, err)
	assert.Equal(t, int64(100), b.Amount())

	total, err := txnRepo.CountByUserID(ctx, "user123", "")
	require.NoError(t, err)
	assert.Equal(t, 1, total)

	_, err = txnRepo.FindByTransactionID(ctx, "txn_2")
	assert.ErrorIs(t, err, transaction.ErrTransactionNotFound)
}

func TestStore_Save_DuplicateTransactionID(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	txnRepo := store.TransactionRepository()

	save := func(id string) error {
		return store.WithTransaction(ctx, func(tx *sql.Tx) error {
			return txnRepo.Save(ctx, tx, transaction.MustNewTransaction(
				id, "user123", transaction.TransactionTypeFree, 10, 10, "daily bonus", nil,
			))
		})
	}

	require.NoError(t, save("txn_1"))
	assert.ErrorIs(t, save("txn_1"), transaction.ErrDuplicateTransactionID)
}

func TestStore_FindByUserID_OrderingAndPaging(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	balanceRepo := store.BalanceRepository()
	txnRepo := store.TransactionRepository()

	ids := []string{"txn_1", "txn_2", "txn_3", "txn_4", "txn_5"}
	var running int64
	for _, id := range ids {
		err := store.WithTransaction(ctx, func(tx *sql.Tx) error {
			after, err := balanceRepo.AdjustWithGuard(ctx, tx, "user123", 10)
			if err != nil {
				return err
			}
			running = after
			return txnRepo.Save(ctx, tx, transaction.MustNewTransaction(
				id, "user123", transaction.TransactionTypePurchase, 10, running, "", nil,
			))
		})
		require.NoError(t, err)
	}

	t.Run("正常系: コミット順の降順で返る", func(t *testing.T) {
		got, err := txnRepo.FindByUserID(ctx, "user123", "", 10, 0)
		require.NoError(t, err)
		require.Len(t, got, 5)
		assert.Equal(t, "txn_5", got[0].TransactionID())
		assert.Equal(t, "txn_1", got[4].TransactionID())
	})

	t.Run("正常系: limitとoffsetでページング", func(t *testing.T) {
		got, err := txnRepo.FindByUserID(ctx, "user123", "", 2, 1)
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, "txn_4", got[0].TransactionID())
		assert.Equal(t, "txn_3", got[1].TransactionID())
	})

	t.Run("正常系: offsetが件数を超えたら空", func(t *testing.T) {
		got, err := txnRepo.FindByUserID(ctx, "user123", "", 10, 100)
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("正常系: 他ユーザーの記録は含まれない", func(t *testing.T) {
		got, err := txnRepo.FindByUserID(ctx, "other", "", 10, 0)
		require.NoError(t, err)
		assert.Empty(t, got)
	})
}

func TestStore_FindByUserID_TypeFilter(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	txnRepo := store.TransactionRepository()

	seed := []struct {
		id string
		tt transaction.TransactionType
	}{
		{"txn_1", transaction.TransactionTypeFree},
		{"txn_2", transaction.TransactionTypeUsage},
		{"txn_3", transaction.TransactionTypeFree},
	}
	for _, s := range seed {
		delta := int64(10)
		if s.tt.IsDebit() {
			delta = -10
		}
		err := store.WithTransaction(ctx, func(tx *sql.Tx) error {
			return txnRepo.Save(ctx, tx, transaction.MustNewTransaction(
				s.id, "user123", s.tt, delta, 10, "", nil,
			))
		})
		require.NoError(t, err)
	}

	got, err := txnRepo.FindByUserID(ctx, "user123", transaction.TransactionTypeFree, 10, 0)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "txn_3", got[0].TransactionID())
	assert.Equal(t, "txn_1", got[1].TransactionID())

	total, err := txnRepo.CountByUserID(ctx, "user123", transaction.TransactionTypeFree)
	require.NoError(t, err)
	assert.Equal(t, 2, total)
}

func TestStore_ExistsTodayByType(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	txnRepo := store.TransactionRepository()

	t.Run("正常系: 記録なしはfalse", func(t *testing.T) {
		err := store.WithTransaction(ctx, func(tx *sql.Tx) error {
			exists, err := txnRepo.ExistsTodayByType(ctx, tx, "user123", transaction.TransactionTypeFree)
			require.NoError(t, err)
			assert.False(t, exists)
			return nil
		})
		require.NoError(t, err)
	})

	t.Run("正常系: 当日の記録があればtrue", func(t *testing.T) {
		err := store.WithTransaction(ctx, func(tx *sql.Tx) error {
			return txnRepo.Save(ctx, tx, transaction.MustNewTransaction(
				"txn_today", "user123", transaction.TransactionTypeFree, 10, 10, "daily bonus", nil,
			))
		})
		require.NoError(t, err)

		err = store.WithTransaction(ctx, func(tx *sql.Tx) error {
			exists, err := txnRepo.ExistsTodayByType(ctx, tx, "user123", transaction.TransactionTypeFree)
			require.NoError(t, err)
			assert.True(t, exists)
			return nil
		})
		require.NoError(t, err)
	})

	t.Run("正常系: 前日の記録はfalse", func(t *testing.T) {
		yesterday := time.Now().UTC().Add(-24 * time.Hour)
		err := store.WithTransaction(ctx, func(tx *sql.Tx) error {
			return txnRepo.Save(ctx, tx, transaction.ReconstructTransaction(
				"txn_yesterday", "user456", transaction.TransactionTypeFree,
				10, 10, "daily bonus", nil, yesterday,
			))
		})
		require.NoError(t, err)

		err = store.WithTransaction(ctx, func(tx *sql.Tx) error {
			exists, err := txnRepo.ExistsTodayByType(ctx, tx, "user456", transaction.TransactionTypeFree)
			require.NoError(t, err)
			assert.False(t, exists)
			return nil
		})
		require.NoError(t, err)
	})

	t.Run("正常系: 他タイプの当日記録は対象外", func(t *testing.T) {
		err := store.WithTransaction(ctx, func(tx *sql.Tx) error {
			exists, err := txnRepo.ExistsTodayByType(ctx, tx, "user123", transaction.TransactionTypeBonus)
			require.NoError(t, err)
			assert.False(t, exists)
			return nil
		})
		require.NoError(t, err)
	})
}
