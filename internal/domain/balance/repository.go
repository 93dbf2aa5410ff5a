package balance

import (
	"context"
	"database/sql"
)

// BalanceRepository 残高リポジトリインターフェース
//
// 変更系の操作は必ずアトミック単位（TransactionManager.WithTransaction）内の
// *sql.Txを受け取る。残高レコードは初回書き込み時に残高0で暗黙的に作成される
type BalanceRepository interface {
	// FindByUserID ユーザーIDで残高を取得（レコードが存在しない場合はErrBalanceNotFound）
	FindByUserID(ctx context.Context, userID string) (*Balance, error)

	// AdjustWithGuard 残高に符号付きの増減を適用する条件付き更新
	// ガード条件 amount + delta >= 0 を満たさない場合はErrInsufficientFundsを返し、
	// 変更を行わない。成功時は更新後の残高を返す
	AdjustWithGuard(ctx context.Context, tx *sql.Tx, userID string, delta int64) (int64, error)

	// EnsureAndLock 残高レコードを作成（未存在時）し、行ロックを取得して現在残高を返す
	// 同一ユーザーに対するチェックと更新を1つのアトミック単位に直列化するために使う
	EnsureAndLock(ctx context.Context, tx *sql.Tx, userID string) (int64, error)
}
