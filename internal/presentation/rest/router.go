package rest

import (
	authapp "credit-server/internal/application/auth"
	bonusapp "credit-server/internal/application/bonus"
	gateapp "credit-server/internal/application/gate"
	historyapp "credit-server/internal/application/history"
	ledgerapp "credit-server/internal/application/ledger"
	"credit-server/internal/infrastructure/config"
	otelinfra "credit-server/internal/infrastructure/observability/otel"
	"credit-server/internal/presentation/rest/handler"
	restmiddleware "credit-server/internal/presentation/rest/middleware"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

// HealthChecker ヘルスチェック可能なストア
type HealthChecker interface {
	HealthCheck() error
}

// Router REST APIルーター
type Router struct {
	echo           *echo.Echo
	authHandler    *handler.AuthHandler
	creditHandler  *handler.CreditHandler
	bonusHandler   *handler.BonusHandler
	historyHandler *handler.HistoryHandler
}

// NewRouter 新しいRouterを作成
func NewRouter(
	cfg *config.Config,
	logger *otelinfra.Logger,
	metrics *otelinfra.Metrics,
	db HealthChecker,
	authService *authapp.AuthApplicationService,
	ledgerService *ledgerapp.LedgerApplicationService,
	gateService *gateapp.UsageGateApplicationService,
	bonusService *bonusapp.DailyBonusApplicationService,
	historyService *historyapp.HistoryApplicationService,
) (*Router, error) {
	e := echo.New()

	// Echoのデフォルトエラーハンドラーを無効化（カスタムエラーハンドラーを使用）
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		// エラーハンドリングミドルウェアで処理される
	}

	// ミドルウェアの設定
	setupMiddleware(e, cfg, logger, metrics)

	// ハンドラーの作成
	authHandler := handler.NewAuthHandler(authService)
	creditHandler := handler.NewCreditHandler(ledgerService, gateService)
	bonusHandler := handler.NewBonusHandler(bonusService)
	historyHandler := handler.NewHistoryHandler(historyService)

	// ルーティングの設定
	setupRoutes(e, cfg, logger, db, authHandler, creditHandler, bonusHandler, historyHandler)

	// Swagger UI / ReDoc統合
	SetupSwagger(e)

	return &Router{
		echo:           e,
		authHandler:    authHandler,
		creditHandler:  creditHandler,
		bonusHandler:   bonusHandler,
		historyHandler: historyHandler,
	}, nil
}

// setupMiddleware ミドルウェアを設定
func setupMiddleware(e *echo.Echo, cfg *config.Config, logger *otelinfra.Logger, metrics *otelinfra.Metrics) {
	// リカバリーミドルウェア
	e.Use(middleware.Recover())

	// CORS設定
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"}, // 本番環境では適切に設定
		AllowMethods: []string{echo.GET, echo.POST, echo.PUT, echo.DELETE, echo.OPTIONS},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))

	// リクエストIDの設定
	e.Use(middleware.RequestID())

	// セキュリティヘッダー
	e.Use(restmiddleware.SecurityHeadersMiddleware())

	// トレーシングミドルウェア
	e.Use(restmiddleware.TracingMiddleware())

	// ログミドルウェア
	e.Use(restmiddleware.LoggingMiddleware(logger))

	// メトリクスミドルウェア
	e.Use(restmiddleware.MetricsMiddleware(metrics))

	// エラーハンドリングミドルウェア
	e.Use(restmiddleware.ErrorHandlerMiddleware(logger))
}

// setupRoutes ルーティングを設定
func setupRoutes(
	e *echo.Echo,
	cfg *config.Config,
	logger *otelinfra.Logger,
	db HealthChecker,
	authHandler *handler.AuthHandler,
	creditHandler *handler.CreditHandler,
	bonusHandler *handler.BonusHandler,
	historyHandler *handler.HistoryHandler,
) {
	// API v1グループ
	api := e.Group("/api/v1")

	// トークン発行エンドポイント（開発環境専用）
	if cfg.Environment == "development" {
		api.POST("/auth/token", authHandler.GenerateToken)
	}

	// 認証が必要なユーザーエンドポイント
	authGroup := api.Group("", restmiddleware.AuthMiddleware(&cfg.JWT, logger))
	authGroup.GET("/me/balance", creditHandler.GetBalance)
	authGroup.GET("/me/credits/check", creditHandler.CheckCredits)
	authGroup.POST("/me/credits/use", creditHandler.UseCredits)
	authGroup.POST("/me/bonus/daily", bonusHandler.ClaimDailyBonus)
	authGroup.GET("/me/transactions", historyHandler.GetTransactionHistory)

	// 管理APIエンドポイント（X-API-Key認証）
	adminGroup := api.Group("/admin", restmiddleware.APIKeyMiddleware(&cfg.AdminAPI, logger))
	adminGroup.GET("/users/:user_id/balance", creditHandler.GetBalanceAdmin)
	adminGroup.POST("/users/:user_id/credits/add", creditHandler.AddCredits)
	adminGroup.POST("/users/:user_id/balance/adjust", creditHandler.AdjustBalance)
	adminGroup.GET("/users/:user_id/transactions", historyHandler.GetTransactionHistoryAdmin)
	adminGroup.GET("/transactions/:transaction_id", historyHandler.GetTransaction)

	// ヘルスチェックエンドポイント（認証不要）
	e.GET("/health", func(c echo.Context) error {
		if err := db.HealthCheck(); err != nil {
			return c.JSON(503, map[string]string{"status": "unhealthy"})
		}
		return c.JSON(200, map[string]string{"status": "ok"})
	})
}

// Start サーバーを起動
func (r *Router) Start(address string) error {
	return r.echo.Start(address)
}

// Shutdown サーバーをシャットダウン
func (r *Router) Shutdown() error {
	return r.echo.Close()
}
