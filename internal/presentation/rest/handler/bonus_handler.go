package handler

import (
	"net/http"
	"strconv"

	bonusapp "credit-server/internal/application/bonus"

	"github.com/labstack/echo/v4"
)

// BonusHandler デイリーボーナス関連ハンドラー
type BonusHandler struct {
	bonusService *bonusapp.DailyBonusApplicationService
}

// NewBonusHandler 新しいBonusHandlerを作成
func NewBonusHandler(bonusService *bonusapp.DailyBonusApplicationService) *BonusHandler {
	return &BonusHandler{
		bonusService: bonusService,
	}
}

// ClaimDailyBonus デイリーボーナス請求ハンドラー（ユーザーAPI用）
// @Summary デイリーボーナスを請求
// @Description 1暦日（サーバーUTC基準）につき1回だけ無償クレジットを付与します。
// @Description 当日すでに付与済みの場合はgranted:falseを返します（エラーではありません）
// @Tags bonus
// @Accept json
// @Produce json
// @Security Bearer
// @Success 200 {object} DailyBonusResponse "請求処理成功"
// @Failure 401 {object} ErrorResponse "認証エラー"
// @Failure 403 {object} ErrorResponse "ボーナス無効"
// @Router /me/bonus/daily [post]
func (h *BonusHandler) ClaimDailyBonus(c echo.Context) error {
	// トークンからuser_idを取得
	userID, ok := c.Get("user_id").(string)
	if !ok || userID == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "user_id not found in token")
	}

	resp, err := h.bonusService.GrantDailyBonus(c.Request().Context(), &bonusapp.GrantDailyBonusRequest{
		UserID: userID,
		Reason: "daily bonus",
	})
	if err != nil {
		return err
	}

	result := DailyBonusResponse{
		Granted: resp.Granted,
	}
	if resp.Granted {
		result.TransactionID = resp.TransactionID
		result.NewBalance = strconv.FormatInt(resp.NewBalance, 10)
	}

	return c.JSON(http.StatusOK, result)
}
