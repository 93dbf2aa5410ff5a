package handler

// DailyBonusResponse デイリーボーナスレスポンス
// @Description デイリーボーナスレスポンス。grantedがfalseの場合は当日付与済み
type DailyBonusResponse struct {
	Granted       bool   `json:"granted" example:"true"`
	TransactionID string `json:"transaction_id,omitempty" example:"txn_9f1c2b"`
	NewBalance    string `json:"new_balance,omitempty" example:"110"`
}
