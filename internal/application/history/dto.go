package history

import "time"

// GetTransactionHistoryRequest トランザクション履歴取得リクエスト
type GetTransactionHistoryRequest struct {
	UserID string
	Type   string // 空文字列の場合は全タイプ
	Limit  int    // 0以下の場合はデフォルト値
	Offset int
}

// TransactionRecord 履歴1件分の読み取りビュー
type TransactionRecord struct {
	TransactionID string
	UserID        string
	Type          string
	Delta         int64
	BalanceAfter  int64
	Description   string
	Metadata      map[string]interface{}
	CreatedAt     time.Time
}

// GetTransactionHistoryResponse トランザクション履歴取得レスポンス
type GetTransactionHistoryResponse struct {
	UserID       string
	Transactions []*TransactionRecord
	Total        int // ページングに依存しない全件数
	Limit        int
	Offset       int
}

// GetTransactionRequest トランザクション単体取得リクエスト
type GetTransactionRequest struct {
	TransactionID string
}

// GetTransactionResponse トランザクション単体取得レスポンス
type GetTransactionResponse struct {
	Transaction *TransactionRecord
}
