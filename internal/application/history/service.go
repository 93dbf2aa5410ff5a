package history

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"credit-server/internal/domain/balance"
	"credit-server/internal/domain/transaction"
	otelinfra "credit-server/internal/infrastructure/observability/otel"
)

const (
	defaultLimit = 50
	maxLimit     = 100
)

// HistoryApplicationService トランザクション履歴のアプリケーションサービス
//
// ログの読み取り専用ビュー。並び順は新しいものから、タイプによる
// 絞り込みとページネーションはストア側のクエリで行う
type HistoryApplicationService struct {
	transactionRepo transaction.TransactionRepository
	logger          *otelinfra.Logger
	tracer          trace.Tracer
}

// NewHistoryApplicationService 新しいHistoryApplicationServiceを作成
func NewHistoryApplicationService(
	transactionRepo transaction.TransactionRepository,
	logger *otelinfra.Logger,
) *HistoryApplicationService {
	return &HistoryApplicationService{
		transactionRepo: transactionRepo,
		logger:          logger,
		tracer:          otel.Tracer("history-service"),
	}
}

// GetTransactionHistory ユーザーのトランザクション履歴を取得
func (s *HistoryApplicationService) GetTransactionHistory(ctx context.Context, req *GetTransactionHistoryRequest) (*GetTransactionHistoryResponse, error) {
	ctx, span := s.tracer.Start(ctx, "HistoryApplicationService.GetTransactionHistory")
	defer span.End()

	span.SetAttributes(
		attribute.String("user_id", req.UserID),
		attribute.String("transaction_type", req.Type),
		attribute.Int("limit", req.Limit),
		attribute.Int("offset", req.Offset),
	)

	if !balance.ValidUserID(req.UserID) {
		err := balance.ErrInvalidUserID
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, err
	}

	var transactionType transaction.TransactionType
	if req.Type != "" {
		tt, err := transaction.NewTransactionType(req.Type)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(otelcodes.Error, err.Error())
			return nil, transaction.ErrInvalidTransactionType
		}
		transactionType = tt
	}

	limit := req.Limit
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	offset := req.Offset
	if offset < 0 {
		offset = 0
	}

	transactions, err := s.transactionRepo.FindByUserID(ctx, req.UserID, transactionType, limit, offset)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		s.logger.Error(ctx, "Failed to get transaction history", err, map[string]interface{}{
			"user_id": req.UserID,
		})
		return nil, fmt.Errorf("failed to get transaction history: %w", err)
	}

	total, err := s.transactionRepo.CountByUserID(ctx, req.UserID, transactionType)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, fmt.Errorf("failed to count transactions: %w", err)
	}

	records := make([]*TransactionRecord, 0, len(transactions))
	for _, t := range transactions {
		records = append(records, toRecord(t))
	}

	return &GetTransactionHistoryResponse{
		UserID:       req.UserID,
		Transactions: records,
		Total:        total,
		Limit:        limit,
		Offset:       offset,
	}, nil
}

// GetTransaction トランザクションIDで単体取得
func (s *HistoryApplicationService) GetTransaction(ctx context.Context, req *GetTransactionRequest) (*GetTransactionResponse, error) {
	ctx, span := s.tracer.Start(ctx, "HistoryApplicationService.GetTransaction")
	defer span.End()

	span.SetAttributes(
		attribute.String("transaction_id", req.TransactionID),
	)

	t, err := s.transactionRepo.FindByTransactionID(ctx, req.TransactionID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, err
	}

	return &GetTransactionResponse{
		Transaction: toRecord(t),
	}, nil
}

func toRecord(t *transaction.Transaction) *TransactionRecord {
	return &TransactionRecord{
		TransactionID: t.TransactionID(),
		UserID:        t.UserID(),
		Type:          t.TransactionType().String(),
		Delta:         t.Delta(),
		BalanceAfter:  t.BalanceAfter(),
		Description:   t.Description(),
		Metadata:      t.Metadata(),
		CreatedAt:     t.CreatedAt(),
	}
}
