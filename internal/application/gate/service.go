package gate

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"credit-server/internal/application/ledger"
	"credit-server/internal/domain/balance"
	"credit-server/internal/domain/service"
	otelinfra "credit-server/internal/infrastructure/observability/otel"
)

// UsageGateApplicationService 利用ゲートのアプリケーションサービス
//
// HasEnoughCreditsは事前チェック用の参考値を返すだけで、減算の可否は
// 保証しない。唯一の強制ポイントはConsume内のアトミックな減算であり、
// UIはチェックを省略してConsumeを直接呼んでも安全性は変わらない
type UsageGateApplicationService struct {
	creditService *service.CreditService
	ledgerService *ledger.LedgerApplicationService
	logger        *otelinfra.Logger
	tracer        trace.Tracer
}

// NewUsageGateApplicationService 新しいUsageGateApplicationServiceを作成
func NewUsageGateApplicationService(
	creditService *service.CreditService,
	ledgerService *ledger.LedgerApplicationService,
	logger *otelinfra.Logger,
) *UsageGateApplicationService {
	return &UsageGateApplicationService{
		creditService: creditService,
		ledgerService: ledgerService,
		logger:        logger,
		tracer:        otel.Tracer("usage-gate-service"),
	}
}

// HasEnoughCredits 指定量の残高があるかの参考値を返す
func (s *UsageGateApplicationService) HasEnoughCredits(ctx context.Context, req *HasEnoughCreditsRequest) (*HasEnoughCreditsResponse, error) {
	ctx, span := s.tracer.Start(ctx, "UsageGateApplicationService.HasEnoughCredits")
	defer span.End()

	span.SetAttributes(
		attribute.String("user_id", req.UserID),
		attribute.Int64("amount", req.Amount),
	)

	if !balance.ValidUserID(req.UserID) {
		err := balance.ErrInvalidUserID
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, err
	}

	if req.Amount <= 0 {
		err := balance.ErrInvalidAmount
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, err
	}

	current, err := s.creditService.GetBalance(ctx, req.UserID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, err
	}

	return &HasEnoughCreditsResponse{
		UserID:  req.UserID,
		Allowed: current >= req.Amount,
		Balance: current,
	}, nil
}

// Consume 機能の実行コストを消費する
//
// 消費はtype=usageの減算としてレジャーに記録される。残高不足は
// 残高を変更せずにErrInsufficientFundsとなる
func (s *UsageGateApplicationService) Consume(ctx context.Context, req *ConsumeRequest) (*ConsumeResponse, error) {
	ctx, span := s.tracer.Start(ctx, "UsageGateApplicationService.Consume")
	defer span.End()

	span.SetAttributes(
		attribute.String("user_id", req.UserID),
		attribute.Int64("amount", req.Amount),
		attribute.String("feature", req.Feature),
	)

	resp, err := s.ledgerService.UseCredits(ctx, &ledger.UseCreditsRequest{
		UserID:   req.UserID,
		Amount:   req.Amount,
		Feature:  req.Feature,
		Metadata: req.Metadata,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, err
	}

	return &ConsumeResponse{
		TransactionID: resp.TransactionID,
		NewBalance:    resp.NewBalance,
	}, nil
}
