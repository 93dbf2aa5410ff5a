package bonus

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"credit-server/internal/domain/balance"
	"credit-server/internal/domain/transaction"
	"credit-server/internal/infrastructure/config"
	otelinfra "credit-server/internal/infrastructure/observability/otel"
)

// ErrBonusDisabled デイリーボーナスが無効化されているエラー
var ErrBonusDisabled = errors.New("daily bonus is disabled")

// errAlreadyGranted アトミック単位を巻き戻すための内部センチネル
// 並行挿入が一意制約で弾かれた場合、残高の加算ごとロールバックさせてから
// 「付与済み」として正常応答する
var errAlreadyGranted = errors.New("daily bonus already granted")

// DailyBonusApplicationService デイリーボーナスのアプリケーションサービス
//
// 「当日分をまだ付与していないか」のチェックと付与そのものを、残高行の
// ロックで直列化された同一のアトミック単位内で行う。2つの並行呼び出しが
// 両方とも「未付与」を観測して両方付与することはない
type DailyBonusApplicationService struct {
	balanceRepo     balance.BalanceRepository
	transactionRepo transaction.TransactionRepository
	txManager       transaction.TransactionManager
	cfg             *config.DailyBonusConfig
	logger          *otelinfra.Logger
	metrics         *otelinfra.Metrics
	tracer          trace.Tracer
}

// NewDailyBonusApplicationService 新しいDailyBonusApplicationServiceを作成
func NewDailyBonusApplicationService(
	balanceRepo balance.BalanceRepository,
	transactionRepo transaction.TransactionRepository,
	txManager transaction.TransactionManager,
	cfg *config.DailyBonusConfig,
	logger *otelinfra.Logger,
	metrics *otelinfra.Metrics,
) *DailyBonusApplicationService {
	return &DailyBonusApplicationService{
		balanceRepo:     balanceRepo,
		transactionRepo: transactionRepo,
		txManager:       txManager,
		cfg:             cfg,
		logger:          logger,
		metrics:         metrics,
		tracer:          otel.Tracer("daily-bonus-service"),
	}
}

// GrantDailyBonus デイリーボーナスを付与する（1ユーザー1暦日1回、冪等）
//
// 暦日の境界はサーバー時刻（UTC正規化）で判定する。タイムゾーンの
// パーソナライズは行わない
func (s *DailyBonusApplicationService) GrantDailyBonus(ctx context.Context, req *GrantDailyBonusRequest) (*GrantDailyBonusResponse, error) {
	ctx, span := s.tracer.Start(ctx, "DailyBonusApplicationService.GrantDailyBonus")
	defer span.End()

	span.SetAttributes(
		attribute.String("user_id", req.UserID),
		attribute.Int64("amount", req.Amount),
	)

	if !s.cfg.Enabled {
		err := ErrBonusDisabled
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, err
	}

	if !balance.ValidUserID(req.UserID) {
		err := balance.ErrInvalidUserID
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, err
	}

	amount := req.Amount
	if amount <= 0 {
		amount = s.cfg.Amount
	}

	s.logger.Info(ctx, "Granting daily bonus", map[string]interface{}{
		"user_id": req.UserID,
		"amount":  amount,
		"reason":  req.Reason,
	})

	// トランザクションIDを生成
	transactionID := s.generateTransactionID()

	result := &GrantDailyBonusResponse{}
	err := s.txManager.WithTransaction(ctx, func(tx *sql.Tx) error {
		// 残高行のロックが同一ユーザーのチェックと付与を直列化する
		if _, err := s.balanceRepo.EnsureAndLock(ctx, tx, req.UserID); err != nil {
			return err
		}

		exists, err := s.transactionRepo.ExistsTodayByType(ctx, tx, req.UserID, transaction.TransactionTypeFree)
		if err != nil {
			return fmt.Errorf("failed to check daily bonus marker: %w", err)
		}
		if exists {
			// 付与済み: 変更なしで正常終了
			result.Granted = false
			return nil
		}

		newBalance, err := s.balanceRepo.AdjustWithGuard(ctx, tx, req.UserID, amount)
		if err != nil {
			return err
		}

		txn, err := transaction.NewTransaction(
			transactionID,
			req.UserID,
			transaction.TransactionTypeFree,
			amount,
			newBalance,
			req.Reason,
			nil,
		)
		if err != nil {
			return fmt.Errorf("failed to create transaction entity: %w", err)
		}

		if err := s.transactionRepo.Save(ctx, tx, txn); err != nil {
			// ストレージ層の一意制約で並行挿入が弾かれた場合は残高加算ごと巻き戻す
			if errors.Is(err, transaction.ErrDuplicateTransactionID) {
				return errAlreadyGranted
			}
			return fmt.Errorf("failed to save transaction: %w", err)
		}

		result.Granted = true
		result.TransactionID = transactionID
		result.NewBalance = newBalance
		return nil
	})

	if errors.Is(err, errAlreadyGranted) {
		result.Granted = false
		err = nil
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		s.logger.Error(ctx, "Failed to grant daily bonus", err, map[string]interface{}{
			"user_id": req.UserID,
		})
		s.metrics.RecordError(ctx, "daily_bonus_failed")
		return nil, err
	}

	s.metrics.RecordDailyBonusGrant(ctx, result.Granted)
	if result.Granted {
		s.metrics.RecordTransaction(ctx, transaction.TransactionTypeFree.String())
		s.metrics.RecordBalance(ctx, req.UserID, result.NewBalance)
		s.logger.Info(ctx, "Daily bonus granted", map[string]interface{}{
			"user_id":        req.UserID,
			"transaction_id": transactionID,
			"new_balance":    result.NewBalance,
		})
	} else {
		s.logger.Info(ctx, "Daily bonus already granted today", map[string]interface{}{
			"user_id": req.UserID,
		})
	}

	return result, nil
}

// generateTransactionID トランザクションIDを生成
func (s *DailyBonusApplicationService) generateTransactionID() string {
	return fmt.Sprintf("txn_%s", uuid.NewString())
}
