package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"credit-server/internal/domain/balance"
	"credit-server/internal/domain/service"
	"credit-server/internal/domain/transaction"
	otelinfra "credit-server/internal/infrastructure/observability/otel"
)

// LedgerApplicationService レジャーエンジンのアプリケーションサービス
//
// 残高のガード付き更新とトランザクションの追記を1つのアトミック単位として
// 実行する唯一の書き込み経路。残高の読み取り結果を減算のゲートに使うことは
// なく、残高不足の判定は常にアトミック単位の中で行われる
type LedgerApplicationService struct {
	balanceRepo     balance.BalanceRepository
	transactionRepo transaction.TransactionRepository
	txManager       transaction.TransactionManager
	creditService   *service.CreditService
	logger          *otelinfra.Logger
	metrics         *otelinfra.Metrics
	tracer          trace.Tracer
	maxRetries      int
}

// NewLedgerApplicationService 新しいLedgerApplicationServiceを作成
func NewLedgerApplicationService(
	balanceRepo balance.BalanceRepository,
	transactionRepo transaction.TransactionRepository,
	txManager transaction.TransactionManager,
	creditService *service.CreditService,
	logger *otelinfra.Logger,
	metrics *otelinfra.Metrics,
) *LedgerApplicationService {
	return &LedgerApplicationService{
		balanceRepo:     balanceRepo,
		transactionRepo: transactionRepo,
		txManager:       txManager,
		creditService:   creditService,
		logger:          logger,
		metrics:         metrics,
		tracer:          otel.Tracer("ledger-service"),
		maxRetries:      3,
	}
}

// AdjustBalance 残高を調整する（符号とタイプでパラメータ化された単一の基本操作）
//
// (a)現在残高の読み取り、(b)マイナス残高になる減算の拒否、(c)新残高の書き込み、
// (d)トランザクション行の追記、を1つのアトミック単位として実行する。
// 成功時は調整後の残高を返すので、呼び出し側は表示のための再読み取りを必要としない
func (s *LedgerApplicationService) AdjustBalance(ctx context.Context, req *AdjustBalanceRequest) (*AdjustBalanceResponse, error) {
	ctx, span := s.tracer.Start(ctx, "LedgerApplicationService.AdjustBalance")
	defer span.End()

	span.SetAttributes(
		attribute.String("user_id", req.UserID),
		attribute.Int64("delta", req.Delta),
		attribute.String("transaction_type", req.Type),
	)

	s.logger.Info(ctx, "Adjusting balance", map[string]interface{}{
		"user_id":          req.UserID,
		"delta":            req.Delta,
		"transaction_type": req.Type,
	})

	// バリデーション
	if !balance.ValidUserID(req.UserID) {
		err := balance.ErrInvalidUserID
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, err
	}
	if req.Delta == 0 {
		err := balance.ErrInvalidAmount
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, err
	}

	transactionType, err := transaction.NewTransactionType(req.Type)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, transaction.ErrInvalidTransactionType
	}

	// トランザクションIDを生成
	transactionID := s.generateTransactionID()

	var result *AdjustBalanceResponse
	err = s.withRetry(ctx, func() error {
		return s.txManager.WithTransaction(ctx, func(tx *sql.Tx) error {
			// ガード付き条件更新: チェックと書き込みは分離されない
			newBalance, err := s.balanceRepo.AdjustWithGuard(ctx, tx, req.UserID, req.Delta)
			if err != nil {
				return err
			}

			txn, err := transaction.NewTransaction(
				transactionID,
				req.UserID,
				transactionType,
				req.Delta,
				newBalance,
				req.Description,
				req.Metadata,
			)
			if err != nil {
				return fmt.Errorf("failed to create transaction entity: %w", err)
			}

			if err := s.transactionRepo.Save(ctx, tx, txn); err != nil {
				return fmt.Errorf("failed to save transaction: %w", err)
			}

			result = &AdjustBalanceResponse{
				TransactionID: transactionID,
				NewBalance:    newBalance,
			}

			return nil
		})
	})

	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		if errors.Is(err, balance.ErrInsufficientFunds) {
			s.logger.Warn(ctx, "Debit rejected: insufficient funds", map[string]interface{}{
				"user_id": req.UserID,
				"delta":   req.Delta,
			})
			s.metrics.RecordInsufficientFunds(ctx, req.UserID)
			return nil, err
		}
		s.logger.Error(ctx, "Failed to adjust balance", err, map[string]interface{}{
			"user_id": req.UserID,
			"delta":   req.Delta,
		})
		s.metrics.RecordError(ctx, "adjust_failed")
		return nil, err
	}

	// メトリクス記録
	s.metrics.RecordTransaction(ctx, transactionType.String())
	s.metrics.RecordBalance(ctx, req.UserID, result.NewBalance)

	s.logger.Info(ctx, "Balance adjusted successfully", map[string]interface{}{
		"user_id":        req.UserID,
		"transaction_id": transactionID,
		"new_balance":    result.NewBalance,
	})

	return result, nil
}

// UseCredits クレジットを消費する
//
// amountは正の消費量。残高不足は残高を変更せずErrInsufficientFundsで拒否される
func (s *LedgerApplicationService) UseCredits(ctx context.Context, req *UseCreditsRequest) (*UseCreditsResponse, error) {
	ctx, span := s.tracer.Start(ctx, "LedgerApplicationService.UseCredits")
	defer span.End()

	span.SetAttributes(
		attribute.String("user_id", req.UserID),
		attribute.Int64("amount", req.Amount),
		attribute.String("feature", req.Feature),
	)

	if req.Amount <= 0 {
		err := balance.ErrInvalidAmount
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, err
	}

	resp, err := s.AdjustBalance(ctx, &AdjustBalanceRequest{
		UserID:      req.UserID,
		Delta:       -req.Amount,
		Type:        transaction.TransactionTypeUsage.String(),
		Description: req.Feature,
		Metadata:    req.Metadata,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, err
	}

	return &UseCreditsResponse{
		TransactionID: resp.TransactionID,
		NewBalance:    resp.NewBalance,
	}, nil
}

// AddCredits クレジットを付与する
//
// amountは正の付与量。typeはusage以外の加算タイプでなければならない
func (s *LedgerApplicationService) AddCredits(ctx context.Context, req *AddCreditsRequest) (*AddCreditsResponse, error) {
	ctx, span := s.tracer.Start(ctx, "LedgerApplicationService.AddCredits")
	defer span.End()

	span.SetAttributes(
		attribute.String("user_id", req.UserID),
		attribute.Int64("amount", req.Amount),
		attribute.String("transaction_type", req.Type),
	)

	if req.Amount <= 0 {
		err := balance.ErrInvalidAmount
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, err
	}

	transactionType, err := transaction.NewTransactionType(req.Type)
	if err != nil || !transactionType.IsCredit() {
		err := transaction.ErrInvalidTransactionType
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, err
	}

	resp, err := s.AdjustBalance(ctx, &AdjustBalanceRequest{
		UserID:      req.UserID,
		Delta:       req.Amount,
		Type:        transactionType.String(),
		Description: req.Description,
		Metadata:    req.Metadata,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, err
	}

	return &AddCreditsResponse{
		TransactionID: resp.TransactionID,
		NewBalance:    resp.NewBalance,
	}, nil
}

// GetBalance 残高を取得（レコードが存在しないユーザーは残高0）
func (s *LedgerApplicationService) GetBalance(ctx context.Context, req *GetBalanceRequest) (*GetBalanceResponse, error) {
	ctx, span := s.tracer.Start(ctx, "LedgerApplicationService.GetBalance")
	defer span.End()

	span.SetAttributes(
		attribute.String("user_id", req.UserID),
	)

	if !balance.ValidUserID(req.UserID) {
		err := balance.ErrInvalidUserID
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, err
	}

	amount, err := s.creditService.GetBalance(ctx, req.UserID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		s.logger.Error(ctx, "Failed to get balance", err, map[string]interface{}{
			"user_id": req.UserID,
		})
		return nil, fmt.Errorf("failed to get balance: %w", err)
	}

	s.metrics.RecordBalance(ctx, req.UserID, amount)

	return &GetBalanceResponse{
		UserID:  req.UserID,
		Balance: amount,
	}, nil
}

// withRetry 一時的なストア障害に対する有界リトライ
//
// アトミック単位は適用されずに失敗するため再試行は安全。残高不足や
// バリデーションエラーなどの業務的な拒否は再試行しない
func (s *LedgerApplicationService) withRetry(ctx context.Context, fn func() error) error {
	var lastErr error
	for attempt := 0; attempt < s.maxRetries; attempt++ {
		if attempt > 0 {
			// 指数バックオフ
			backoff := time.Duration(math.Pow(2, float64(attempt-1))) * 10 * time.Millisecond
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
		}

		err := fn()
		if err == nil {
			return nil
		}
		if !errors.Is(err, balance.ErrStoreUnavailable) {
			return err
		}
		lastErr = err
	}
	return lastErr
}

// generateTransactionID トランザクションIDを生成
func (s *LedgerApplicationService) generateTransactionID() string {
	return fmt.Sprintf("txn_%s", uuid.NewString())
}
