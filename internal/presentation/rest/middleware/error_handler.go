package middleware

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	otelinfra "credit-server/internal/infrastructure/observability/otel"

	"credit-server/internal/application/bonus"
	"credit-server/internal/domain/balance"
	"credit-server/internal/domain/transaction"
)

// ErrorResponse エラーレスポンス
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// ErrorHandlerMiddleware エラーハンドリングミドルウェア
func ErrorHandlerMiddleware(logger *otelinfra.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			err := next(c)
			if err == nil {
				return nil
			}

			// エラーハンドリング
			return handleError(c, err, logger)
		}
	}
}

// handleError エラーを処理して適切なHTTPレスポンスを返す
func handleError(c echo.Context, err error, logger *otelinfra.Logger) error {
	ctx := c.Request().Context()

	// ドメインエラーの判定と処理
	if errors.Is(err, balance.ErrInsufficientFunds) {
		logger.Warn(ctx, "Insufficient funds", map[string]interface{}{
			"error": err.Error(),
		})
		return c.JSON(http.StatusConflict, ErrorResponse{
			Error:   "insufficient_funds",
			Message: err.Error(),
		})
	}

	if errors.Is(err, balance.ErrInvalidAmount) {
		logger.Warn(ctx, "Invalid amount", map[string]interface{}{
			"error": err.Error(),
		})
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_amount",
			Message: err.Error(),
		})
	}

	if errors.Is(err, balance.ErrInvalidUserID) || errors.Is(err, transaction.ErrInvalidUserID) {
		logger.Warn(ctx, "Invalid user ID", map[string]interface{}{
			"error": err.Error(),
		})
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_user_id",
			Message: err.Error(),
		})
	}

	if errors.Is(err, balance.ErrAmountTooLarge) {
		logger.Warn(ctx, "Amount too large", map[string]interface{}{
			"error": err.Error(),
		})
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "amount_too_large",
			Message: err.Error(),
		})
	}

	if errors.Is(err, balance.ErrBalanceOutOfRange) {
		logger.Warn(ctx, "Balance out of range", map[string]interface{}{
			"error": err.Error(),
		})
		return c.JSON(http.StatusConflict, ErrorResponse{
			Error:   "balance_out_of_range",
			Message: err.Error(),
		})
	}

	if errors.Is(err, transaction.ErrInvalidTransactionType) {
		logger.Warn(ctx, "Invalid transaction type", map[string]interface{}{
			"error": err.Error(),
		})
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_transaction_type",
			Message: err.Error(),
		})
	}

	if errors.Is(err, transaction.ErrTransactionNotFound) {
		logger.Warn(ctx, "Transaction not found", map[string]interface{}{
			"error": err.Error(),
		})
		return c.JSON(http.StatusNotFound, ErrorResponse{
			Error:   "transaction_not_found",
			Message: err.Error(),
		})
	}

	if errors.Is(err, transaction.ErrDuplicateTransactionID) {
		logger.Warn(ctx, "Duplicate transaction ID", map[string]interface{}{
			"error": err.Error(),
		})
		return c.JSON(http.StatusConflict, ErrorResponse{
			Error:   "duplicate_transaction_id",
			Message: err.Error(),
		})
	}

	if errors.Is(err, bonus.ErrBonusDisabled) {
		logger.Warn(ctx, "Daily bonus disabled", map[string]interface{}{
			"error": err.Error(),
		})
		return c.JSON(http.StatusForbidden, ErrorResponse{
			Error:   "bonus_disabled",
			Message: err.Error(),
		})
	}

	if errors.Is(err, balance.ErrStoreUnavailable) {
		logger.Error(ctx, "Store unavailable", err, map[string]interface{}{
			"path": c.Request().URL.Path,
		})
		return c.JSON(http.StatusServiceUnavailable, ErrorResponse{
			Error:   "store_unavailable",
			Message: "The service is temporarily unavailable, please retry",
		})
	}

	// EchoのHTTPエラー
	var httpErr *echo.HTTPError
	if errors.As(err, &httpErr) {
		logger.Warn(ctx, "HTTP error", map[string]interface{}{
			"status_code": httpErr.Code,
			"message":     httpErr.Message,
		})
		message := ""
		if msg, ok := httpErr.Message.(string); ok {
			message = msg
		} else {
			message = http.StatusText(httpErr.Code)
		}
		return c.JSON(httpErr.Code, ErrorResponse{
			Error:   http.StatusText(httpErr.Code),
			Message: message,
		})
	}

	// 予期しないエラー
	logger.Error(ctx, "Internal server error", err, map[string]interface{}{
		"path": c.Request().URL.Path,
	})
	return c.JSON(http.StatusInternalServerError, ErrorResponse{
		Error:   "internal_server_error",
		Message: "An unexpected error occurred",
	})
}
