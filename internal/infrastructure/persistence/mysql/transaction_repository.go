package mysql

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"credit-server/internal/domain/transaction"
)

// TransactionRepository MySQL実装のTransactionRepository
type TransactionRepository struct {
	db     *DB
	tracer trace.Tracer
}

// NewTransactionRepository 新しいTransactionRepositoryを作成
func NewTransactionRepository(db *DB) *TransactionRepository {
	return &TransactionRepository{
		db:     db,
		tracer: otel.Tracer("transaction-repository"),
	}
}

// Save トランザクションをアトミック単位内で追記
func (r *TransactionRepository) Save(ctx context.Context, tx *sql.Tx, t *transaction.Transaction) error {
	ctx, span := r.tracer.Start(ctx, "TransactionRepository.Save")
	defer span.End()

	span.SetAttributes(
		attribute.String("db.transaction_id", t.TransactionID()),
		attribute.String("db.user_id", t.UserID()),
		attribute.String("db.transaction_type", t.TransactionType().String()),
		attribute.Int64("db.delta", t.Delta()),
		attribute.String("db.operation", "INSERT"),
		attribute.String("db.table", "transactions"),
	)

	query := `
		INSERT INTO transactions (
			transaction_id, user_id, transaction_type,
			delta, balance_after, description, metadata, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	var metadataJSON []byte
	var err error
	if t.Metadata() != nil {
		metadataJSON, err = json.Marshal(t.Metadata())
		if err != nil {
			span.RecordError(err)
			span.SetStatus(otelcodes.Error, err.Error())
			return fmt.Errorf("failed to marshal metadata: %w", err)
		}
	}

	_, err = tx.ExecContext(ctx, query,
		t.TransactionID(),
		t.UserID(),
		t.TransactionType().String(),
		t.Delta(),
		t.BalanceAfter(),
		t.Description(),
		string(metadataJSON),
		t.CreatedAt(),
	)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		if isDuplicateKey(err) {
			return transaction.ErrDuplicateTransactionID
		}
		return wrapStoreErr("failed to save transaction", err)
	}

	span.SetStatus(otelcodes.Ok, "transaction saved")
	return nil
}

// FindByTransactionID トランザクションIDでトランザクションを取得
func (r *TransactionRepository) FindByTransactionID(ctx context.Context, transactionID string) (*transaction.Transaction, error) {
	ctx, span := r.tracer.Start(ctx, "TransactionRepository.FindByTransactionID")
	defer span.End()

	span.SetAttributes(
		attribute.String("db.transaction_id", transactionID),
		attribute.String("db.operation", "SELECT"),
		attribute.String("db.table", "transactions"),
	)

	query := `
		SELECT
			transaction_id, user_id, transaction_type,
			delta, balance_after, description, metadata, created_at
		FROM transactions
		WHERE transaction_id = ?
	`

	t, err := r.scanOne(r.db.QueryRowContext(ctx, query, transactionID))
	if err == sql.ErrNoRows {
		span.SetStatus(otelcodes.Ok, "transaction not found")
		return nil, transaction.ErrTransactionNotFound
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, err
	}

	span.SetStatus(otelcodes.Ok, "transaction found")
	return t, nil
}

// FindByUserID ユーザーIDでトランザクション一覧を取得（コミット順の降順、ページネーション対応）
func (r *TransactionRepository) FindByUserID(ctx context.Context, userID string, transactionType transaction.TransactionType, limit, offset int) ([]*transaction.Transaction, error) {
	ctx, span := r.tracer.Start(ctx, "TransactionRepository.FindByUserID")
	defer span.End()

	span.SetAttributes(
		attribute.String("db.user_id", userID),
		attribute.Int("db.limit", limit),
		attribute.Int("db.offset", offset),
		attribute.String("db.operation", "SELECT"),
		attribute.String("db.table", "transactions"),
	)

	// created_atの同値はidで解決する（idは挿入順で単調増加）
	query := `
		SELECT
			transaction_id, user_id, transaction_type,
			delta, balance_after, description, metadata, created_at
		FROM transactions
		WHERE user_id = ?
		ORDER BY created_at DESC, id DESC
		LIMIT ? OFFSET ?
	`
	args := []interface{}{userID, limit, offset}

	if transactionType != "" {
		query = `
		SELECT
			transaction_id, user_id, transaction_type,
			delta, balance_after, description, metadata, created_at
		FROM transactions
		WHERE user_id = ? AND transaction_type = ?
		ORDER BY created_at DESC, id DESC
		LIMIT ? OFFSET ?
	`
		args = []interface{}{userID, transactionType.String(), limit, offset}
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, wrapStoreErr("failed to query transactions", err)
	}
	defer rows.Close()

	var transactions []*transaction.Transaction
	for rows.Next() {
		t, err := r.scanOne(rows)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(otelcodes.Error, err.Error())
			return nil, err
		}
		transactions = append(transactions, t)
	}

	if err := rows.Err(); err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, wrapStoreErr("failed to iterate transactions", err)
	}

	span.SetAttributes(attribute.Int("db.rows", len(transactions)))
	span.SetStatus(otelcodes.Ok, "transactions found")
	return transactions, nil
}

// CountByUserID ユーザーIDでトランザクション総件数を取得
func (r *TransactionRepository) CountByUserID(ctx context.Context, userID string, transactionType transaction.TransactionType) (int, error) {
	ctx, span := r.tracer.Start(ctx, "TransactionRepository.CountByUserID")
	defer span.End()

	span.SetAttributes(
		attribute.String("db.user_id", userID),
		attribute.String("db.operation", "SELECT COUNT"),
		attribute.String("db.table", "transactions"),
	)

	query := `SELECT COUNT(*) FROM transactions WHERE user_id = ?`
	args := []interface{}{userID}

	if transactionType != "" {
		query = `SELECT COUNT(*) FROM transactions WHERE user_id = ? AND transaction_type = ?`
		args = []interface{}{userID, transactionType.String()}
	}

	var total int
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&total); err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return 0, wrapStoreErr("failed to count transactions", err)
	}

	span.SetAttributes(attribute.Int("db.total", total))
	span.SetStatus(otelcodes.Ok, "transactions counted")
	return total, nil
}

// ExistsTodayByType 当日（サーバーUTC基準の暦日）に指定タイプのトランザクションが存在するかチェック
func (r *TransactionRepository) ExistsTodayByType(ctx context.Context, tx *sql.Tx, userID string, transactionType transaction.TransactionType) (bool, error) {
	ctx, span := r.tracer.Start(ctx, "TransactionRepository.ExistsTodayByType")
	defer span.End()

	span.SetAttributes(
		attribute.String("db.user_id", userID),
		attribute.String("db.transaction_type", transactionType.String()),
		attribute.String("db.operation", "SELECT EXISTS"),
		attribute.String("db.table", "transactions"),
	)

	query := `
		SELECT EXISTS(
			SELECT 1 FROM transactions
			WHERE user_id = ? AND transaction_type = ? AND created_at >= UTC_DATE()
		)
	`

	var exists bool
	if err := tx.QueryRowContext(ctx, query, userID, transactionType.String()).Scan(&exists); err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return false, wrapStoreErr("failed to check transaction existence", err)
	}

	span.SetAttributes(attribute.Bool("db.exists", exists))
	span.SetStatus(otelcodes.Ok, "existence checked")
	return exists, nil
}

// rowScanner QueryRowとrows.Nextの両方を受けるためのスキャナ
type rowScanner interface {
	Scan(dest ...interface{}) error
}

// scanOne 1行をTransactionエンティティに復元
func (r *TransactionRepository) scanOne(row rowScanner) (*transaction.Transaction, error) {
	var dbTransactionID, dbUserID, dbTransactionType string
	var delta, balanceAfter int64
	var description sql.NullString
	var metadataJSON sql.NullString
	var createdAt time.Time

	err := row.Scan(
		&dbTransactionID,
		&dbUserID,
		&dbTransactionType,
		&delta,
		&balanceAfter,
		&description,
		&metadataJSON,
		&createdAt,
	)
	if err == sql.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, wrapStoreErr("failed to scan transaction", err)
	}

	tt, err := transaction.NewTransactionType(dbTransactionType)
	if err != nil {
		return nil, fmt.Errorf("invalid transaction type: %w", err)
	}

	var metadata map[string]interface{}
	if metadataJSON.Valid && metadataJSON.String != "" {
		if err := json.Unmarshal([]byte(metadataJSON.String), &metadata); err != nil {
			return nil, fmt.Errorf("failed to unmarshal metadata: %w", err)
		}
	}

	return transaction.ReconstructTransaction(
		dbTransactionID,
		dbUserID,
		tt,
		delta,
		balanceAfter,
		description.String,
		metadata,
		createdAt,
	), nil
}
