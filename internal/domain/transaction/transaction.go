package transaction

import (
	"errors"
	"regexp"
	"time"
)

var (
	// ErrInvalidTransactionID トランザクションIDが無効
	ErrInvalidTransactionID = errors.New("invalid transaction id")
	// ErrInvalidUserID ユーザーIDが無効
	ErrInvalidUserID = errors.New("invalid user id")
	// ErrInvalidDelta 増減額が無効
	ErrInvalidDelta = errors.New("invalid delta")
	// ErrDeltaTooLarge 増減額が大きすぎる
	ErrDeltaTooLarge = errors.New("delta too large")
	// ErrBalanceAfterOutOfRange 処理後残高が範囲外
	ErrBalanceAfterOutOfRange = errors.New("balance after out of range")
	// ErrDeltaSignMismatch 増減額の符号がトランザクションタイプと一致しない
	ErrDeltaSignMismatch = errors.New("delta sign does not match transaction type")
)

const (
	// MaxDelta 1回の増減の最大金額 (10兆)
	MaxDelta = 10_000_000_000_000
)

var (
	idRegex     = regexp.MustCompile(`^[a-zA-Z0-9_\-\.\@]{1,255}$`)
	userIDRegex = regexp.MustCompile(`^[a-zA-Z0-9_\-\.\@]{1,255}$`)
)

// Transaction トランザクションエンティティ
//
// 残高を変更したイベント1件の不変な記録。作成後の更新・削除は行わない
// （訂正はrefund等の新しいトランザクションとして表現する）
type Transaction struct {
	transactionID   string
	userID          string
	transactionType TransactionType
	delta           int64 // 符号付き増減額（正=加算、負=減算）
	balanceAfter    int64 // 適用後の残高
	description     string
	metadata        map[string]interface{}
	createdAt       time.Time
}

// NewTransaction 新しいTransactionエンティティを作成
func NewTransaction(
	transactionID string,
	userID string,
	transactionType TransactionType,
	delta int64,
	balanceAfter int64,
	description string,
	metadata map[string]interface{},
) (*Transaction, error) {
	if !idRegex.MatchString(transactionID) {
		return nil, ErrInvalidTransactionID
	}
	if !userIDRegex.MatchString(userID) {
		return nil, ErrInvalidUserID
	}
	if !transactionType.Valid() {
		return nil, ErrInvalidTransactionType
	}
	if delta == 0 {
		return nil, ErrInvalidDelta
	}
	if delta > MaxDelta || delta < -MaxDelta {
		return nil, ErrDeltaTooLarge
	}
	// usageは減算、それ以外の全タイプは加算
	if transactionType.IsDebit() && delta > 0 {
		return nil, ErrDeltaSignMismatch
	}
	if !transactionType.IsDebit() && delta < 0 {
		return nil, ErrDeltaSignMismatch
	}
	if balanceAfter < 0 || balanceAfter > MaxDelta {
		return nil, ErrBalanceAfterOutOfRange
	}

	return &Transaction{
		transactionID:   transactionID,
		userID:          userID,
		transactionType: transactionType,
		delta:           delta,
		balanceAfter:    balanceAfter,
		description:     description,
		metadata:        metadata,
		createdAt:       time.Now().UTC(),
	}, nil
}

// ReconstructTransaction 永続化済みレコードからTransactionエンティティを復元
func ReconstructTransaction(
	transactionID string,
	userID string,
	transactionType TransactionType,
	delta int64,
	balanceAfter int64,
	description string,
	metadata map[string]interface{},
	createdAt time.Time,
) *Transaction {
	return &Transaction{
		transactionID:   transactionID,
		userID:          userID,
		transactionType: transactionType,
		delta:           delta,
		balanceAfter:    balanceAfter,
		description:     description,
		metadata:        metadata,
		createdAt:       createdAt,
	}
}

// TransactionID トランザクションIDを返す
func (t *Transaction) TransactionID() string {
	return t.transactionID
}

// UserID ユーザーIDを返す
func (t *Transaction) UserID() string {
	return t.userID
}

// TransactionType トランザクションタイプを返す
func (t *Transaction) TransactionType() TransactionType {
	return t.transactionType
}

// Delta 符号付き増減額を返す
func (t *Transaction) Delta() int64 {
	return t.delta
}

// BalanceAfter 適用後の残高を返す
func (t *Transaction) BalanceAfter() int64 {
	return t.balanceAfter
}

// Description 説明を返す
func (t *Transaction) Description() string {
	return t.description
}

// Metadata メタデータを返す
func (t *Transaction) Metadata() map[string]interface{} {
	return t.metadata
}

// CreatedAt 作成日時を返す
func (t *Transaction) CreatedAt() time.Time {
	return t.createdAt
}

// MustNewTransaction テスト用ヘルパー: NewTransactionを呼び出し、エラーが発生した場合はpanicする
func MustNewTransaction(
	transactionID string,
	userID string,
	transactionType TransactionType,
	delta int64,
	balanceAfter int64,
	description string,
	metadata map[string]interface{},
) *Transaction {
	t, err := NewTransaction(transactionID, userID, transactionType, delta, balanceAfter, description, metadata)
	if err != nil {
		panic(err)
	}
	return t
}
