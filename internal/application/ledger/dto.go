package ledger

// AdjustBalanceRequest 残高調整リクエスト
type AdjustBalanceRequest struct {
	UserID      string
	Delta       int64 // 符号付き増減額（正=加算、負=減算）
	Type        string
	Description string
	Metadata    map[string]interface{}
}

// AdjustBalanceResponse 残高調整レスポンス
type AdjustBalanceResponse struct {
	TransactionID string
	NewBalance    int64
}

// UseCreditsRequest クレジット消費リクエスト
type UseCreditsRequest struct {
	UserID   string
	Amount   int64 // 正の消費量
	Feature  string
	Metadata map[string]interface{}
}

// UseCreditsResponse クレジット消費レスポンス
type UseCreditsResponse struct {
	TransactionID string
	NewBalance    int64
}

// AddCreditsRequest クレジット付与リクエスト
type AddCreditsRequest struct {
	UserID      string
	Amount      int64 // 正の付与量
	Type        string // purchase, subscription, refund, bonus, free
	Description string
	Metadata    map[string]interface{}
}

// AddCreditsResponse クレジット付与レスポンス
type AddCreditsResponse struct {
	TransactionID string
	NewBalance    int64
}

// GetBalanceRequest 残高取得リクエスト
type GetBalanceRequest struct {
	UserID string
}

// GetBalanceResponse 残高取得レスポンス
type GetBalanceResponse struct {
	UserID  string
	Balance int64
}
