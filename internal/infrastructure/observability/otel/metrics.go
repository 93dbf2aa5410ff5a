package otel

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics メトリクス定義
type Metrics struct {
	// トランザクション数
	TransactionCount metric.Int64Counter

	// 残高の分布
	CreditBalance metric.Int64Gauge

	// 残高不足による拒否件数
	InsufficientFundsCount metric.Int64Counter

	// デイリーボーナス付与件数
	DailyBonusGrantCount metric.Int64Counter

	// リクエスト数
	RequestCount metric.Int64Counter

	// レスポンス時間
	ResponseTime metric.Float64Histogram

	// エラー率
	ErrorCount metric.Int64Counter
}

// NewMetrics 新しいMetricsを作成
func NewMetrics(meterName string) (*Metrics, error) {
	meter := otel.Meter(meterName)

	transactionCount, err := meter.Int64Counter(
		"credit_transactions_total",
		metric.WithDescription("Total number of credit transactions"),
	)
	if err != nil {
		return nil, err
	}

	creditBalance, err := meter.Int64Gauge(
		"credit_balance",
		metric.WithDescription("Current credit balance"),
	)
	if err != nil {
		return nil, err
	}

	insufficientFundsCount, err := meter.Int64Counter(
		"insufficient_funds_total",
		metric.WithDescription("Total number of debits rejected for insufficient funds"),
	)
	if err != nil {
		return nil, err
	}

	dailyBonusGrantCount, err := meter.Int64Counter(
		"daily_bonus_grants_total",
		metric.WithDescription("Total number of daily bonus grants"),
	)
	if err != nil {
		return nil, err
	}

	requestCount, err := meter.Int64Counter(
		"requests_total",
		metric.WithDescription("Total number of requests"),
	)
	if err != nil {
		return nil, err
	}

	responseTime, err := meter.Float64Histogram(
		"response_time_seconds",
		metric.WithDescription("Response time in seconds"),
	)
	if err != nil {
		return nil, err
	}

	errorCount, err := meter.Int64Counter(
		"errors_total",
		metric.WithDescription("Total number of errors"),
	)
	if err != nil {
		return nil, err
	}

	return &Metrics{
		TransactionCount:       transactionCount,
		CreditBalance:          creditBalance,
		InsufficientFundsCount: insufficientFundsCount,
		DailyBonusGrantCount:   dailyBonusGrantCount,
		RequestCount:           requestCount,
		ResponseTime:           responseTime,
		ErrorCount:             errorCount,
	}, nil
}

// RecordTransaction トランザクションを記録
func (m *Metrics) RecordTransaction(ctx context.Context, transactionType string) {
	m.TransactionCount.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("transaction_type", transactionType),
		),
	)
}

// RecordBalance 残高を記録
func (m *Metrics) RecordBalance(ctx context.Context, userID string, amount int64) {
	m.CreditBalance.Record(ctx, amount,
		metric.WithAttributes(
			attribute.String("user_id", userID),
		),
	)
}

// RecordInsufficientFunds 残高不足による拒否を記録
func (m *Metrics) RecordInsufficientFunds(ctx context.Context, userID string) {
	m.InsufficientFundsCount.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("user_id", userID),
		),
	)
}

// RecordDailyBonusGrant デイリーボーナスの付与を記録
func (m *Metrics) RecordDailyBonusGrant(ctx context.Context, granted bool) {
	m.DailyBonusGrantCount.Add(ctx, 1,
		metric.WithAttributes(
			attribute.Bool("granted", granted),
		),
	)
}

// RecordRequest リクエストを記録
func (m *Metrics) RecordRequest(ctx context.Context, method, path string) {
	m.RequestCount.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("method", method),
			attribute.String("path", path),
		),
	)
}

// RecordResponseTime レスポンス時間を記録
func (m *Metrics) RecordResponseTime(ctx context.Context, method, path string, seconds float64) {
	m.ResponseTime.Record(ctx, seconds,
		metric.WithAttributes(
			attribute.String("method", method),
			attribute.String("path", path),
		),
	)
}

// RecordError エラーを記録
func (m *Metrics) RecordError(ctx context.Context, errorType string) {
	m.ErrorCount.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("error_type", errorType),
		),
	)
}
