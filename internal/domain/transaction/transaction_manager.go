package transaction

import (
	"context"
	"database/sql"
)

// TransactionManager アトミック単位の管理インターフェース
//
// fn内で行った残高更新とトランザクション追記は、両方コミットされるか
// 両方ロールバックされるかのいずれかになる
type TransactionManager interface {
	// WithTransaction トランザクション内で関数を実行
	WithTransaction(ctx context.Context, fn func(*sql.Tx) error) error
}
