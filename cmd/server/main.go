package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	authapp "credit-server/internal/application/auth"
	bonusapp "credit-server/internal/application/bonus"
	gateapp "credit-server/internal/application/gate"
	historyapp "credit-server/internal/application/history"
	ledgerapp "credit-server/internal/application/ledger"
	"credit-server/internal/domain/service"
	"credit-server/internal/infrastructure/config"
	otelinfra "credit-server/internal/infrastructure/observability/otel"
	"credit-server/internal/infrastructure/persistence/mysql"
	grpcserver "credit-server/internal/presentation/grpc"
	"credit-server/internal/presentation/rest"
)

func main() {
	// 設定の読み込み
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// OpenTelemetryの初期化
	tracerShutdown, err := otelinfra.InitTracer(&cfg.OpenTelemetry)
	if err != nil {
		log.Fatalf("Failed to initialize tracer: %v", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tracerShutdown(ctx); err != nil {
			log.Printf("Failed to shutdown tracer: %v", err)
		}
	}()

	meterShutdown, err := otelinfra.InitMeter(&cfg.OpenTelemetry)
	if err != nil {
		log.Fatalf("Failed to initialize meter: %v", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := meterShutdown(ctx); err != nil {
			log.Printf("Failed to shutdown meter: %v", err)
		}
	}()

	// ロガーとメトリクスの初期化
	tracer := otelinfra.Tracer("credit-server")
	logger := otelinfra.NewLogger(tracer)
	metrics, err := otelinfra.NewMetrics("credit-server")
	if err != nil {
		log.Fatalf("Failed to create metrics: %v", err)
	}

	// データベース接続の初期化
	db, err := mysql.NewDB(&cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	// リポジトリの初期化
	balanceRepo := mysql.NewBalanceRepository(db)
	transactionRepo := mysql.NewTransactionRepository(db)

	// トランザクションマネージャーの初期化
	txManager := mysql.NewTransactionManager(db)

	// ドメインサービスの初期化
	creditService := service.NewCreditService(balanceRepo)

	// アプリケーションサービスの初期化
	authAppService := authapp.NewAuthApplicationService(&cfg.JWT, logger)

	ledgerAppService := ledgerapp.NewLedgerApplicationService(
		balanceRepo,
		transactionRepo,
		txManager,
		creditService,
		logger,
		metrics,
	)

	gateAppService := gateapp.NewUsageGateApplicationService(
		creditService,
		ledgerAppService,
		logger,
	)

	bonusAppService := bonusapp.NewDailyBonusApplicationService(
		balanceRepo,
		transactionRepo,
		txManager,
		&cfg.DailyBonus,
		logger,
		metrics,
	)

	historyAppService := historyapp.NewHistoryApplicationService(
		transactionRepo,
		logger,
	)

	// REST APIルーターの初期化
	router, err := rest.NewRouter(
		cfg,
		logger,
		metrics,
		db,
		authAppService,
		ledgerAppService,
		gateAppService,
		bonusAppService,
		historyAppService,
	)
	if err != nil {
		log.Fatalf("Failed to create router: %v", err)
	}

	// gRPCサーバーの初期化
	grpcSrv, err := grpcserver.NewServer(cfg)
	if err != nil {
		log.Fatalf("Failed to create gRPC server: %v", err)
	}

	// サーバーアドレスの設定
	address := fmt.Sprintf(":%d", cfg.Server.Port)

	// グレースフルシャットダウンの設定
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	// REST APIサーバーを別ゴルーチンで起動
	go func() {
		log.Printf("REST API server starting on %s", address)
		if err := router.Start(address); err != nil {
			log.Printf("REST API server error: %v", err)
		}
	}()

	// gRPCサーバーを別ゴルーチンで起動
	go func() {
		if err := grpcSrv.Start(); err != nil {
			log.Printf("gRPC server error: %v", err)
		}
	}()

	// シグナルを待機
	<-quit
	log.Println("Shutting down servers...")

	// グレースフルシャットダウン
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// REST APIサーバーのシャットダウン
	if err := router.Shutdown(); err != nil {
		log.Printf("Error shutting down REST API server: %v", err)
	}

	// gRPCサーバーのシャットダウン
	if err := grpcSrv.Stop(shutdownCtx); err != nil {
		log.Printf("Error shutting down gRPC server: %v", err)
	}

	log.Println("Servers stopped")
}
