package balance

import (
	"errors"
	"regexp"
)

var (
	// ErrInvalidUserID ユーザーIDが無効
	ErrInvalidUserID = errors.New("invalid user id")
	// ErrBalanceOutOfRange 残高が範囲外
	ErrBalanceOutOfRange = errors.New("balance out of range")
	// ErrAmountTooLarge 金額が大きすぎる
	ErrAmountTooLarge = errors.New("amount too large")
)

const (
	// MaxBalance 最大残高 (10兆)
	MaxBalance = 10_000_000_000_000
)

var userIDRegex = regexp.MustCompile(`^[a-zA-Z0-9_\-\.\@]{1,255}$`)

// ValidUserID ユーザーIDが有効かどうかを返す
func ValidUserID(userID string) bool {
	return userIDRegex.MatchString(userID)
}

// Balance 残高エンティティ
type Balance struct {
	userID  string
	amount  int64 // 整数値（小数点なし）、常に0以上
	version int   // 更新のたびにインクリメント
}

// NewBalance 新しいBalanceエンティティを作成
func NewBalance(userID string, amount int64, version int) (*Balance, error) {
	if !userIDRegex.MatchString(userID) {
		return nil, ErrInvalidUserID
	}
	if amount < 0 || amount > MaxBalance {
		return nil, ErrBalanceOutOfRange
	}
	return &Balance{
		userID:  userID,
		amount:  amount,
		version: version,
	}, nil
}

// UserID ユーザーIDを返す
func (b *Balance) UserID() string {
	return b.userID
}

// Amount 残高を返す
func (b *Balance) Amount() int64 {
	return b.amount
}

// Version バージョンを返す
func (b *Balance) Version() int {
	return b.version
}

// Apply 符号付きの増減を残高に適用する
// マイナス残高になる調整はErrInsufficientFundsで拒否し、残高を変更しない
func (b *Balance) Apply(delta int64) error {
	if delta == 0 {
		return ErrInvalidAmount
	}
	if delta > MaxBalance || delta < -MaxBalance {
		return ErrAmountTooLarge
	}
	if delta < 0 && b.amount+delta < 0 {
		return ErrInsufficientFunds
	}
	if delta > 0 && b.amount > MaxBalance-delta {
		return ErrBalanceOutOfRange
	}
	b.amount += delta
	b.version++
	return nil
}

// HasEnough 指定された金額の残高があるかどうかを返す
func (b *Balance) HasEnough(amount int64) bool {
	return b.amount >= amount
}

// MustNewBalance テスト用ヘルパー: NewBalanceを呼び出し、エラーが発生した場合はpanicする
func MustNewBalance(userID string, amount int64, version int) *Balance {
	b, err := NewBalance(userID, amount, version)
	if err != nil {
		panic(err)
	}
	return b
}
