package transaction

import (
	"context"
	"database/sql"
)

// TransactionRepository トランザクションリポジトリインターフェース
//
// ログは追記専用。Save以外に変更系の操作は存在しない
type TransactionRepository interface {
	// Save トランザクションをアトミック単位内で追記（残高更新と同一の*sql.Tx上で実行）
	Save(ctx context.Context, tx *sql.Tx, t *Transaction) error

	// FindByTransactionID トランザクションIDでトランザクションを取得
	FindByTransactionID(ctx context.Context, transactionID string) (*Transaction, error)

	// FindByUserID ユーザーIDでトランザクション一覧を取得（コミット順の降順、ページネーション対応）
	// transactionTypeが空文字列でない場合はタイプで絞り込む
	FindByUserID(ctx context.Context, userID string, transactionType TransactionType, limit, offset int) ([]*Transaction, error)

	// CountByUserID ユーザーIDでトランザクション総件数を取得（ページングに依存しない全件数）
	CountByUserID(ctx context.Context, userID string, transactionType TransactionType) (int, error)

	// ExistsTodayByType 当日（サーバーUTC基準の暦日）に指定タイプのトランザクションが
	// 存在するかを、付与と同一のアトミック単位内でチェックする
	ExistsTodayByType(ctx context.Context, tx *sql.Tx, userID string, transactionType TransactionType) (bool, error)
}
