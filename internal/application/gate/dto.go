package gate

// HasEnoughCreditsRequest 残高事前チェックリクエスト
type HasEnoughCreditsRequest struct {
	UserID string
	Amount int64 // 正の必要量
}

// HasEnoughCreditsResponse 残高事前チェックレスポンス
//
// Allowedは呼び出し時点の参考値。trueであっても直後のConsumeが
// 残高不足で失敗することはあり得る
type HasEnoughCreditsResponse struct {
	UserID  string
	Allowed bool
	Balance int64
}

// ConsumeRequest 機能実行に伴う消費リクエスト
type ConsumeRequest struct {
	UserID   string
	Amount   int64 // 正の消費量
	Feature  string
	Metadata map[string]interface{}
}

// ConsumeResponse 機能実行に伴う消費レスポンス
type ConsumeResponse struct {
	TransactionID string
	NewBalance    int64
}
