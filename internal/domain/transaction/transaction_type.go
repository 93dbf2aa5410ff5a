package transaction

import (
	"fmt"
)

// TransactionType トランザクションタイプを表す値オブジェクト
type TransactionType string

const (
	TransactionTypeUsage        TransactionType = "usage"        // 機能利用による消費
	TransactionTypePurchase     TransactionType = "purchase"     // 購入
	TransactionTypeSubscription TransactionType = "subscription" // サブスクリプション付与
	TransactionTypeRefund       TransactionType = "refund"       // 返金
	TransactionTypeBonus        TransactionType = "bonus"        // ボーナス付与
	TransactionTypeFree         TransactionType = "free"         // 無償付与（デイリーボーナス）
)

// NewTransactionType 新しいTransactionTypeを作成
func NewTransactionType(s string) (TransactionType, error) {
	switch s {
	case "usage", "purchase", "subscription", "refund", "bonus", "free":
		return TransactionType(s), nil
	default:
		return "", fmt.Errorf("invalid transaction type: %s", s)
	}
}

// String 文字列表現を返す
func (tt TransactionType) String() string {
	return string(tt)
}

// Valid 有効なトランザクションタイプかどうかを返す
func (tt TransactionType) Valid() bool {
	switch tt {
	case TransactionTypeUsage, TransactionTypePurchase, TransactionTypeSubscription,
		TransactionTypeRefund, TransactionTypeBonus, TransactionTypeFree:
		return true
	default:
		return false
	}
}

// IsDebit 減算タイプ（usage）かどうかを返す
func (tt TransactionType) IsDebit() bool {
	return tt == TransactionTypeUsage
}

// IsCredit 加算タイプかどうかを返す
func (tt TransactionType) IsCredit() bool {
	return tt.Valid() && !tt.IsDebit()
}
