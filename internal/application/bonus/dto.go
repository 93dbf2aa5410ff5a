package bonus

// GrantDailyBonusRequest デイリーボーナス付与リクエスト
type GrantDailyBonusRequest struct {
	UserID string
	Amount int64  // 0以下の場合は設定のデフォルト値を使う
	Reason string
}

// GrantDailyBonusResponse デイリーボーナス付与レスポンス
//
// Granted=falseは「当日分は付与済みのため何もしなかった」ことを表す。
// エラーではなく正常な結果として返る
type GrantDailyBonusResponse struct {
	Granted       bool
	TransactionID string
	NewBalance    int64
}
