package balance

import "errors"

var (
	// ErrInsufficientFunds 残高不足エラー
	ErrInsufficientFunds = errors.New("insufficient funds")
	// ErrInvalidAmount 無効な金額エラー
	ErrInvalidAmount = errors.New("invalid amount")
	// ErrBalanceNotFound 残高が見つからないエラー
	ErrBalanceNotFound = errors.New("balance not found")
	// ErrStoreUnavailable ストアが一時的に利用できないエラー
	ErrStoreUnavailable = errors.New("store unavailable")
)
