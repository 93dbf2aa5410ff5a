package handler

import (
	"net/http"
	"strconv"

	gateapp "credit-server/internal/application/gate"
	ledgerapp "credit-server/internal/application/ledger"

	"github.com/labstack/echo/v4"
)

// CreditHandler クレジット関連ハンドラー
type CreditHandler struct {
	ledgerService *ledgerapp.LedgerApplicationService
	gateService   *gateapp.UsageGateApplicationService
}

// NewCreditHandler 新しいCreditHandlerを作成
func NewCreditHandler(
	ledgerService *ledgerapp.LedgerApplicationService,
	gateService *gateapp.UsageGateApplicationService,
) *CreditHandler {
	return &CreditHandler{
		ledgerService: ledgerService,
		gateService:   gateService,
	}
}

// GetBalance 残高取得ハンドラー（ユーザーAPI用）
// @Summary 残高を取得
// @Description 自分のクレジット残高を取得します
// @Tags credits
// @Accept json
// @Produce json
// @Security Bearer
// @Success 200 {object} BalanceResponse "残高取得成功"
// @Failure 401 {object} ErrorResponse "認証エラー"
// @Router /me/balance [get]
func (h *CreditHandler) GetBalance(c echo.Context) error {
	// トークンからuser_idを取得
	userID, ok := c.Get("user_id").(string)
	if !ok || userID == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "user_id not found in token")
	}

	resp, err := h.ledgerService.GetBalance(c.Request().Context(), &ledgerapp.GetBalanceRequest{
		UserID: userID,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, BalanceResponse{
		UserID:  resp.UserID,
		Balance: strconv.FormatInt(resp.Balance, 10),
	})
}

// CheckCredits 残高事前チェックハンドラー（ユーザーAPI用）
// @Summary 残高が足りているかチェック
// @Description 指定量の残高があるかの参考値を返します。消費の成功を保証するものではありません
// @Tags credits
// @Accept json
// @Produce json
// @Security Bearer
// @Param amount query string true "必要量" example(30)
// @Success 200 {object} CheckCreditsResponse "チェック成功"
// @Failure 400 {object} ErrorResponse "不正なリクエスト"
// @Failure 401 {object} ErrorResponse "認証エラー"
// @Router /me/credits/check [get]
func (h *CreditHandler) CheckCredits(c echo.Context) error {
	userID, ok := c.Get("user_id").(string)
	if !ok || userID == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "user_id not found in token")
	}

	amountStr := c.QueryParam("amount")
	amount, err := strconv.ParseInt(amountStr, 10, 64)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid amount parameter")
	}

	resp, err := h.gateService.HasEnoughCredits(c.Request().Context(), &gateapp.HasEnoughCreditsRequest{
		UserID: userID,
		Amount: amount,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, CheckCreditsResponse{
		UserID:  resp.UserID,
		Allowed: resp.Allowed,
		Balance: strconv.FormatInt(resp.Balance, 10),
	})
}

// UseCredits クレジット消費ハンドラー（ユーザーAPI用）
// @Summary クレジットを消費
// @Description 機能実行のコストとしてクレジットを消費します。残高不足の場合は409を返します
// @Tags credits
// @Accept json
// @Produce json
// @Security Bearer
// @Param request body UseCreditsRequest true "クレジット消費リクエスト"
// @Success 200 {object} UseCreditsResponse "消費成功"
// @Failure 400 {object} ErrorResponse "不正なリクエスト"
// @Failure 401 {object} ErrorResponse "認証エラー"
// @Failure 409 {object} ErrorResponse "残高不足"
// @Router /me/credits/use [post]
func (h *CreditHandler) UseCredits(c echo.Context) error {
	userID, ok := c.Get("user_id").(string)
	if !ok || userID == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "user_id not found in token")
	}

	var reqBody UseCreditsRequest
	if err := c.Bind(&reqBody); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	amount, err := strconv.ParseInt(reqBody.Amount, 10, 64)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid amount format")
	}

	resp, err := h.gateService.Consume(c.Request().Context(), &gateapp.ConsumeRequest{
		UserID:   userID,
		Amount:   amount,
		Feature:  reqBody.Feature,
		Metadata: reqBody.Metadata,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, UseCreditsResponse{
		TransactionID: resp.TransactionID,
		NewBalance:    strconv.FormatInt(resp.NewBalance, 10),
	})
}

// GetBalanceAdmin 残高取得ハンドラー（管理API用）
// @Summary 残高を取得（管理API）
// @Description 指定されたユーザーのクレジット残高を取得します
// @Tags admin
// @Accept json
// @Produce json
// @Param user_id path string true "ユーザーID" example(user123)
// @Param X-API-Key header string true "APIキー"
// @Success 200 {object} BalanceResponse "残高取得成功"
// @Failure 400 {object} ErrorResponse "不正なリクエスト"
// @Failure 401 {object} ErrorResponse "認証エラー"
// @Router /admin/users/{user_id}/balance [get]
func (h *CreditHandler) GetBalanceAdmin(c echo.Context) error {
	userID := c.Param("user_id")
	if userID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "user_id is required")
	}

	resp, err := h.ledgerService.GetBalance(c.Request().Context(), &ledgerapp.GetBalanceRequest{
		UserID: userID,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, BalanceResponse{
		UserID:  resp.UserID,
		Balance: strconv.FormatInt(resp.Balance, 10),
	})
}

// AddCredits クレジット付与ハンドラー（管理API用）
// @Summary クレジットを付与（管理API）
// @Description 指定されたユーザーにクレジットを付与します
// @Tags admin
// @Accept json
// @Produce json
// @Param user_id path string true "ユーザーID" example(user123)
// @Param X-API-Key header string true "APIキー"
// @Param request body AddCreditsRequest true "クレジット付与リクエスト"
// @Success 200 {object} AddCreditsResponse "付与成功"
// @Failure 400 {object} ErrorResponse "不正なリクエスト"
// @Failure 401 {object} ErrorResponse "認証エラー"
// @Router /admin/users/{user_id}/credits/add [post]
func (h *CreditHandler) AddCredits(c echo.Context) error {
	userID := c.Param("user_id")
	if userID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "user_id is required")
	}

	var reqBody AddCreditsRequest
	if err := c.Bind(&reqBody); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	amount, err := strconv.ParseInt(reqBody.Amount, 10, 64)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid amount format")
	}

	resp, err := h.ledgerService.AddCredits(c.Request().Context(), &ledgerapp.AddCreditsRequest{
		UserID:      userID,
		Amount:      amount,
		Type:        reqBody.Type,
		Description: reqBody.Description,
		Metadata:    reqBody.Metadata,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, AddCreditsResponse{
		TransactionID: resp.TransactionID,
		NewBalance:    strconv.FormatInt(resp.NewBalance, 10),
	})
}

// AdjustBalance 残高調整ハンドラー（管理API用）
// @Summary 残高を調整（管理API）
// @Description 符号付きのdeltaで残高を直接調整します
// @Tags admin
// @Accept json
// @Produce json
// @Param user_id path string true "ユーザーID" example(user123)
// @Param X-API-Key header string true "APIキー"
// @Param request body AdjustBalanceRequest true "残高調整リクエスト"
// @Success 200 {object} AdjustBalanceResponse "調整成功"
// @Failure 400 {object} ErrorResponse "不正なリクエスト"
// @Failure 401 {object} ErrorResponse "認証エラー"
// @Failure 409 {object} ErrorResponse "残高不足"
// @Router /admin/users/{user_id}/balance/adjust [post]
func (h *CreditHandler) AdjustBalance(c echo.Context) error {
	userID := c.Param("user_id")
	if userID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "user_id is required")
	}

	var reqBody AdjustBalanceRequest
	if err := c.Bind(&reqBody); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	delta, err := strconv.ParseInt(reqBody.Delta, 10, 64)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid delta format")
	}

	resp, err := h.ledgerService.AdjustBalance(c.Request().Context(), &ledgerapp.AdjustBalanceRequest{
		UserID:      userID,
		Delta:       delta,
		Type:        reqBody.Type,
		Description: reqBody.Description,
		Metadata:    reqBody.Metadata,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, AdjustBalanceResponse{
		TransactionID: resp.TransactionID,
		NewBalance:    strconv.FormatInt(resp.NewBalance, 10),
	})
}
