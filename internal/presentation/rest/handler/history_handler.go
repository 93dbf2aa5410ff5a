package handler

import (
	"net/http"
	"strconv"
	"time"

	historyapp "credit-server/internal/application/history"

	"github.com/labstack/echo/v4"
)

// HistoryHandler 履歴関連ハンドラー
type HistoryHandler struct {
	historyService *historyapp.HistoryApplicationService
}

// NewHistoryHandler 新しいHistoryHandlerを作成
func NewHistoryHandler(historyService *historyapp.HistoryApplicationService) *HistoryHandler {
	return &HistoryHandler{
		historyService: historyService,
	}
}

// GetTransactionHistory トランザクション履歴取得ハンドラー（ユーザーAPI用）
// @Summary トランザクション履歴を取得
// @Description 自分のトランザクション履歴を新しい順に取得します。ページネーションとタイプによるフィルタリングに対応しています
// @Tags history
// @Accept json
// @Produce json
// @Security Bearer
// @Param limit query int false "取得件数（デフォルト: 50, 最大: 100)" default(50) example(50)
// @Param offset query int false "オフセット（デフォルト: 0)" default(0) example(0)
// @Param type query string false "トランザクションタイプでフィルタ" example(usage)
// @Success 200 {object} TransactionHistoryResponse "履歴取得成功"
// @Failure 400 {object} ErrorResponse "不正なリクエスト"
// @Failure 401 {object} ErrorResponse "認証エラー"
// @Router /me/transactions [get]
func (h *HistoryHandler) GetTransactionHistory(c echo.Context) error {
	// トークンからuser_idを取得
	userID, ok := c.Get("user_id").(string)
	if !ok || userID == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "user_id not found in token")
	}

	return h.getTransactionHistoryInternal(c, userID)
}

// GetTransactionHistoryAdmin トランザクション履歴取得ハンドラー（管理API用）
// @Summary トランザクション履歴を取得（管理API）
// @Description 指定されたユーザーのトランザクション履歴を新しい順に取得します
// @Tags admin
// @Accept json
// @Produce json
// @Param user_id path string true "ユーザーID" example(user123)
// @Param X-API-Key header string true "APIキー"
// @Param limit query int false "取得件数（デフォルト: 50, 最大: 100)" default(50) example(50)
// @Param offset query int false "オフセット（デフォルト: 0)" default(0) example(0)
// @Param type query string false "トランザクションタイプでフィルタ" example(usage)
// @Success 200 {object} TransactionHistoryResponse "履歴取得成功"
// @Failure 400 {object} ErrorResponse "不正なリクエスト"
// @Failure 401 {object} ErrorResponse "認証エラー"
// @Router /admin/users/{user_id}/transactions [get]
func (h *HistoryHandler) GetTransactionHistoryAdmin(c echo.Context) error {
	userID := c.Param("user_id")
	if userID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "user_id is required")
	}

	return h.getTransactionHistoryInternal(c, userID)
}

// GetTransaction トランザクション単体取得ハンドラー（管理API用）
// @Summary トランザクションを取得（管理API）
// @Description トランザクションIDでトランザクションを取得します
// @Tags admin
// @Accept json
// @Produce json
// @Param transaction_id path string true "トランザクションID" example(txn_9f1c2b)
// @Param X-API-Key header string true "APIキー"
// @Success 200 {object} TransactionResponse "取得成功"
// @Failure 404 {object} ErrorResponse "トランザクションが見つからない"
// @Router /admin/transactions/{transaction_id} [get]
func (h *HistoryHandler) GetTransaction(c echo.Context) error {
	transactionID := c.Param("transaction_id")
	if transactionID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "transaction_id is required")
	}

	resp, err := h.historyService.GetTransaction(c.Request().Context(), &historyapp.GetTransactionRequest{
		TransactionID: transactionID,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, TransactionResponse{
		Transaction: toTransactionItem(resp.Transaction),
	})
}

// getTransactionHistoryInternal トランザクション履歴取得の内部実装
func (h *HistoryHandler) getTransactionHistoryInternal(c echo.Context, userID string) error {
	// クエリパラメータを取得
	limit := 50 // デフォルト値
	if limitStr := c.QueryParam("limit"); limitStr != "" {
		var err error
		limit, err = strconv.Atoi(limitStr)
		if err != nil || limit < 1 || limit > 100 {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid limit parameter")
		}
	}

	offset := 0 // デフォルト値
	if offsetStr := c.QueryParam("offset"); offsetStr != "" {
		var err error
		offset, err = strconv.Atoi(offsetStr)
		if err != nil || offset < 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid offset parameter")
		}
	}

	transactionType := c.QueryParam("type")

	resp, err := h.historyService.GetTransactionHistory(c.Request().Context(), &historyapp.GetTransactionHistoryRequest{
		UserID: userID,
		Type:   transactionType,
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		return err
	}

	// トランザクションをレスポンス形式に変換
	transactions := make([]TransactionItem, len(resp.Transactions))
	for i, txn := range resp.Transactions {
		transactions[i] = toTransactionItem(txn)
	}

	return c.JSON(http.StatusOK, TransactionHistoryResponse{
		UserID:       resp.UserID,
		Transactions: transactions,
		Total:        resp.Total,
		Limit:        resp.Limit,
		Offset:       resp.Offset,
	})
}

func toTransactionItem(txn *historyapp.TransactionRecord) TransactionItem {
	return TransactionItem{
		TransactionID: txn.TransactionID,
		Type:          txn.Type,
		Delta:         strconv.FormatInt(txn.Delta, 10),
		BalanceAfter:  strconv.FormatInt(txn.BalanceAfter, 10),
		Description:   txn.Description,
		Metadata:      txn.Metadata,
		CreatedAt:     txn.CreatedAt.UTC().Format(time.RFC3339),
	}
}
