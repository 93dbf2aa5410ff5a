package handler

// BalanceResponse 残高レスポンス
// @Description 残高レスポンス
type BalanceResponse struct {
	UserID  string `json:"user_id" example:"user123"`
	Balance string `json:"balance" example:"1000"`
}

// CheckCreditsResponse 残高事前チェックレスポンス
// @Description 残高事前チェックレスポンス。allowedは呼び出し時点の参考値
type CheckCreditsResponse struct {
	UserID  string `json:"user_id" example:"user123"`
	Allowed bool   `json:"allowed" example:"true"`
	Balance string `json:"balance" example:"1000"`
}

// UseCreditsRequest クレジット消費リクエスト
// @Description クレジット消費リクエスト
type UseCreditsRequest struct {
	Amount   string                 `json:"amount" example:"30"`
	Feature  string                 `json:"feature" example:"image-generation"`
	Metadata map[string]interface{} `json:"metadata"`
}

// UseCreditsResponse クレジット消費レスポンス
// @Description クレジット消費レスポンス
type UseCreditsResponse struct {
	TransactionID string `json:"transaction_id" example:"txn_9f1c2b"`
	NewBalance    string `json:"new_balance" example:"970"`
}

// AddCreditsRequest クレジット付与リクエスト
// @Description クレジット付与リクエスト（管理API用）
type AddCreditsRequest struct {
	Amount      string                 `json:"amount" example:"100"`
	Type        string                 `json:"type" example:"purchase" enums:"purchase,subscription,refund,bonus,free"`
	Description string                 `json:"description" example:"monthly plan"`
	Metadata    map[string]interface{} `json:"metadata"`
}

// AddCreditsResponse クレジット付与レスポンス
// @Description クレジット付与レスポンス
type AddCreditsResponse struct {
	TransactionID string `json:"transaction_id" example:"txn_9f1c2b"`
	NewBalance    string `json:"new_balance" example:"1100"`
}

// AdjustBalanceRequest 残高調整リクエスト
// @Description 残高調整リクエスト（管理API用）。deltaは符号付き
type AdjustBalanceRequest struct {
	Delta       string                 `json:"delta" example:"-50"`
	Type        string                 `json:"type" example:"usage" enums:"usage,purchase,subscription,refund,bonus,free"`
	Description string                 `json:"description" example:"manual correction"`
	Metadata    map[string]interface{} `json:"metadata"`
}

// AdjustBalanceResponse 残高調整レスポンス
// @Description 残高調整レスポンス
type AdjustBalanceResponse struct {
	TransactionID string `json:"transaction_id" example:"txn_9f1c2b"`
	NewBalance    string `json:"new_balance" example:"950"`
}
