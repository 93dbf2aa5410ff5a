package handler

// TransactionItem トランザクションアイテム
// @Description トランザクションアイテム
type TransactionItem struct {
	TransactionID string                 `json:"transaction_id" example:"txn_9f1c2b"`
	Type          string                 `json:"type" example:"usage"`
	Delta         string                 `json:"delta" example:"-30"`
	BalanceAfter  string                 `json:"balance_after" example:"70"`
	Description   string                 `json:"description,omitempty" example:"image-generation"`
	Metadata      map[string]interface{} `json:"metadata,omitempty"`
	CreatedAt     string                 `json:"created_at" example:"2024-01-01T12:00:00Z"`
}

// TransactionHistoryResponse トランザクション履歴レスポンス
// @Description トランザクション履歴レスポンス
type TransactionHistoryResponse struct {
	UserID       string            `json:"user_id" example:"user123"`
	Transactions []TransactionItem `json:"transactions"`
	Total        int               `json:"total" example:"1"`
	Limit        int               `json:"limit" example:"50"`
	Offset       int               `json:"offset" example:"0"`
}

// TransactionResponse トランザクション単体レスポンス
// @Description トランザクション単体レスポンス
type TransactionResponse struct {
	Transaction TransactionItem `json:"transaction"`
}
