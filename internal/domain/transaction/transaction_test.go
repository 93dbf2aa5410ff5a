package transaction

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTransaction(t *testing.T) {
	tests := []struct {
		name            string
		transactionID   string
		userID          string
		transactionType TransactionType
		delta           int64
		balanceAfter    int64
		wantError       error
	}{
		{
			name:            "正常系: usageトランザクション（減算）",
			transactionID:   "txn_abc123",
			userID:          "user123",
			transactionType: TransactionTypeUsage,
			delta:           -30,
			balanceAfter:    70,
		},
		{
			name:            "正常系: purchaseトランザクション（加算）",
			transactionID:   "txn_abc123",
			userID:          "user123",
			transactionType: TransactionTypePurchase,
			delta:           100,
			balanceAfter:    170,
		},
		{
			name:            "正常系: freeトランザクション（加算）",
			transactionID:   "txn_abc123",
			userID:          "user123",
			transactionType: TransactionTypeFree,
			delta:           10,
			balanceAfter:    10,
		},
		{
			name:            "異常系: 空のトランザクションID",
			transactionID:   "",
			userID:          "user123",
			transactionType: TransactionTypeUsage,
			delta:           -30,
			balanceAfter:    70,
			wantError:       ErrInvalidTransactionID,
		},
		{
			name:            "異常系: 無効なユーザーID",
			transactionID:   "txn_abc123",
			userID:          "user 123",
			transactionType: TransactionTypeUsage,
			delta:           -30,
			balanceAfter:    70,
			wantError:       ErrInvalidUserID,
		},
		{
			name:            "異常系: 無効なトランザクションタイプ",
			transactionID:   "txn_abc123",
			userID:          "user123",
			transactionType: TransactionType("unknown"),
			delta:           -30,
			balanceAfter:    70,
			wantError:       ErrInvalidTransactionType,
		},
		{
			name:            "異常系: 増減額0",
			transactionID:   "txn_abc123",
			userID:          "user123",
			transactionType: TransactionTypeUsage,
			delta:           0,
			balanceAfter:    70,
			wantError:       ErrInvalidDelta,
		},
		{
			name:            "異常系: 増減額が大きすぎる",
			transactionID:   "txn_abc123",
			userID:          "user123",
			transactionType: TransactionTypePurchase,
			delta:           MaxDelta + 1,
			balanceAfter:    70,
			wantError:       ErrDeltaTooLarge,
		},
		{
			name:            "異常系: usageに正のdelta",
			transactionID:   "txn_abc123",
			userID:          "user123",
			transactionType: TransactionTypeUsage,
			delta:           30,
			balanceAfter:    130,
			wantError:       ErrDeltaSignMismatch,
		},
		{
			name:            "異常系: purchaseに負のdelta",
			transactionID:   "txn_abc123",
			userID:          "user123",
			transactionType: TransactionTypePurchase,
			delta:           -30,
			balanceAfter:    70,
			wantError:       ErrDeltaSignMismatch,
		},
		{
			name:            "異常系: マイナスの処理後残高",
			transactionID:   "txn_abc123",
			userID:          "user123",
			transactionType: TransactionTypeUsage,
			delta:           -30,
			balanceAfter:    -1,
			wantError:       ErrBalanceAfterOutOfRange,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			txn, err := NewTransaction(
				tt.transactionID,
				tt.userID,
				tt.transactionType,
				tt.delta,
				tt.balanceAfter,
				"test",
				map[string]interface{}{"feature": "test"},
			)

			if tt.wantError != nil {
				assert.ErrorIs(t, err, tt.wantError)
				assert.Nil(t, txn)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.transactionID, txn.TransactionID())
			assert.Equal(t, tt.userID, txn.UserID())
			assert.Equal(t, tt.transactionType, txn.TransactionType())
			assert.Equal(t, tt.delta, txn.Delta())
			assert.Equal(t, tt.balanceAfter, txn.BalanceAfter())
			assert.Equal(t, "test", txn.Description())
			assert.Equal(t, time.UTC, txn.CreatedAt().Location())
			assert.WithinDuration(t, time.Now().UTC(), txn.CreatedAt(), time.Second)
		})
	}
}

func TestReconstructTransaction(t *testing.T) {
	createdAt := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

	// 復元はバリデーションを行わない（永続化済みレコードをそのまま信頼する）
	txn := ReconstructTransaction(
		"txn_abc123",
		"user123",
		TransactionTypeUsage,
		-30,
		70,
		"image-generation",
		map[string]interface{}{"feature": "image"},
		createdAt,
	)

	assert.Equal(t, "txn_abc123", txn.TransactionID())
	assert.Equal(t, "user123", txn.UserID())
	assert.Equal(t, TransactionTypeUsage, txn.TransactionType())
	assert.Equal(t, int64(-30), txn.Delta())
	assert.Equal(t, int64(70), txn.BalanceAfter())
	assert.Equal(t, createdAt, txn.CreatedAt())
}
