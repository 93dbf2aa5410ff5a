package mysql

import (
	"context"
	"database/sql"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"credit-server/internal/domain/balance"
)

// BalanceRepository MySQL実装のBalanceRepository
type BalanceRepository struct {
	db     *DB
	tracer trace.Tracer
}

// NewBalanceRepository 新しいBalanceRepositoryを作成
func NewBalanceRepository(db *DB) *BalanceRepository {
	return &BalanceRepository{
		db:     db,
		tracer: otel.Tracer("balance-repository"),
	}
}

// FindByUserID ユーザーIDで残高を取得
func (r *BalanceRepository) FindByUserID(ctx context.Context, userID string) (*balance.Balance, error) {
	ctx, span := r.tracer.Start(ctx, "BalanceRepository.FindByUserID")
	defer span.End()

	span.SetAttributes(
		attribute.String("db.user_id", userID),
		attribute.String("db.operation", "SELECT"),
		attribute.String("db.table", "balances"),
	)

	query := `
		SELECT user_id, amount, version
		FROM balances
		WHERE user_id = ?
	`

	var dbUserID string
	var amount int64
	var version int

	err := r.db.QueryRowContext(ctx, query, userID).Scan(
		&dbUserID,
		&amount,
		&version,
	)

	if err == sql.ErrNoRows {
		span.SetStatus(otelcodes.Ok, "balance not found")
		return nil, balance.ErrBalanceNotFound
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, wrapStoreErr("failed to find balance", err)
	}

	span.SetAttributes(
		attribute.Int64("db.amount", amount),
		attribute.Int("db.version", version),
	)
	span.SetStatus(otelcodes.Ok, "balance found")

	b, err := balance.NewBalance(dbUserID, amount, version)
	if err != nil {
		return nil, fmt.Errorf("failed to reconstruct balance entity: %w", err)
	}

	return b, nil
}

// AdjustWithGuard 残高に符号付きの増減を適用する条件付き更新
//
// ガード条件 amount + delta >= 0 をUPDATE文のWHERE句で評価するため、
// チェックと書き込みの間に他の調整が割り込む余地はない。対象行は
// トランザクションのコミットまでロックされ、同一ユーザーの調整は直列化される
func (r *BalanceRepository) AdjustWithGuard(ctx context.Context, tx *sql.Tx, userID string, delta int64) (int64, error) {
	ctx, span := r.tracer.Start(ctx, "BalanceRepository.AdjustWithGuard")
	defer span.End()

	span.SetAttributes(
		attribute.String("db.user_id", userID),
		attribute.Int64("db.delta", delta),
		attribute.String("db.operation", "UPDATE"),
		attribute.String("db.table", "balances"),
	)

	// 残高レコードは初回書き込み時に残高0で暗黙的に作成される
	ensureQuery := `
		INSERT IGNORE INTO balances (user_id, amount, version)
		VALUES (?, 0, 0)
	`

	if _, err := tx.ExecContext(ctx, ensureQuery, userID); err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return 0, wrapStoreErr("failed to ensure balance row", err)
	}

	updateQuery := `
		UPDATE balances
		SET amount = amount + ?, version = version + 1, updated_at = CURRENT_TIMESTAMP
		WHERE user_id = ? AND amount + ? >= 0 AND amount + ? <= ?
	`

	result, err := tx.ExecContext(ctx, updateQuery,
		delta,
		userID,
		delta,
		delta,
		int64(balance.MaxBalance),
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return 0, wrapStoreErr("failed to adjust balance", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return 0, wrapStoreErr("failed to get rows affected", err)
	}

	if rowsAffected == 0 {
		// ガード条件を満たさない＝減算なら残高不足
		span.SetStatus(otelcodes.Ok, "guard rejected adjustment")
		if delta < 0 {
			return 0, balance.ErrInsufficientFunds
		}
		return 0, balance.ErrBalanceOutOfRange
	}

	selectQuery := `
		SELECT amount FROM balances WHERE user_id = ?
	`

	var newAmount int64
	if err := tx.QueryRowContext(ctx, selectQuery, userID).Scan(&newAmount); err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return 0, wrapStoreErr("failed to read adjusted balance", err)
	}

	span.SetAttributes(attribute.Int64("db.amount", newAmount))
	span.SetStatus(otelcodes.Ok, "balance adjusted")
	return newAmount, nil
}

// EnsureAndLock 残高レコードを作成（未存在時）し、行ロックを取得して現在残高を返す
func (r *BalanceRepository) EnsureAndLock(ctx context.Context, tx *sql.Tx, userID string) (int64, error) {
	ctx, span := r.tracer.Start(ctx, "BalanceRepository.EnsureAndLock")
	defer span.End()

	span.SetAttributes(
		attribute.String("db.user_id", userID),
		attribute.String("db.operation", "SELECT FOR UPDATE"),
		attribute.String("db.table", "balances"),
	)

	ensureQuery := `
		INSERT IGNORE INTO balances (user_id, amount, version)
		VALUES (?, 0, 0)
	`

	if _, err := tx.ExecContext(ctx, ensureQuery, userID); err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return 0, wrapStoreErr("failed to ensure balance row", err)
	}

	lockQuery := `
		SELECT amount FROM balances WHERE user_id = ? FOR UPDATE
	`

	var amount int64
	if err := tx.QueryRowContext(ctx, lockQuery, userID).Scan(&amount); err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return 0, wrapStoreErr("failed to lock balance row", err)
	}

	span.SetAttributes(attribute.Int64("db.amount", amount))
	span.SetStatus(otelcodes.Ok, "balance row locked")
	return amount, nil
}
