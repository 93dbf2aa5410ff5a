package transaction

import "errors"

var (
	// ErrTransactionNotFound トランザクションが見つからないエラー
	ErrTransactionNotFound = errors.New("transaction not found")
	// ErrInvalidTransactionType 無効なトランザクションタイプエラー
	ErrInvalidTransactionType = errors.New("invalid transaction type")
	// ErrDuplicateTransactionID 重複トランザクションIDエラー
	ErrDuplicateTransactionID = errors.New("duplicate transaction id")
)
