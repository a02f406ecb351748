// Package main はAPIサーバーのエントリポイント。
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"data-anonymization-service/config"
	"data-anonymization-service/internal/handler"
	"data-anonymization-service/internal/infra"
	"data-anonymization-service/internal/middleware"
	"data-anonymization-service/internal/repository"
	"data-anonymization-service/internal/usecase"
)

func main() {
	ctx := context.Background()

	// .envファイルを読み込む（存在しない場合は無視）
	// 既存の環境変数は上書きしない
	_ = godotenv.Load()

	// 設定読み込み
	cfg := config.Load()

	// ログレベル設定
	var logLevel slog.Level
	switch cfg.LogLevel {
	case "DEBUG":
		logLevel = slog.LevelDebug
	case "WARN":
		logLevel = slog.LevelWarn
	case "ERROR":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	// トレーサー初期化（ロガー設定の前に実行）
	tp, err := infra.InitTracer(ctx, cfg)
	if err != nil {
		slog.Error("failed to init tracer", "error", err)
		os.Exit(1)
	}
	if tp != nil {
		defer func() {
			if err := tp.Shutdown(ctx); err != nil {
				slog.Error("failed to shutdown tracer", "error", err)
			}
		}()
	}

	// トレース情報付きロガーを設定
	infra.SetupLogger(cfg, logLevel)

	// 認証情報リゾルバの選択:
	// DATABASE_URLがあればKMS復号付きのDBバックエンド、なければsystemsファイル
	var resolver usecase.CredentialResolver
	if cfg.DatabaseURL != "" {
		db, err := infra.NewDB(cfg.DatabaseURL, cfg.OtelEnabled)
		if err != nil {
			slog.Error("failed to init database", "error", err)
			os.Exit(1)
		}

		kmsClient, err := infra.NewKMSClient(ctx, cfg.KMSKeyName)
		if err != nil {
			slog.Error("failed to init KMS client", "error", err)
			os.Exit(1)
		}
		defer func() {
			if closeErr := kmsClient.Close(); closeErr != nil {
				slog.Error("failed to close KMS client", "error", closeErr)
			}
		}()

		repo := repository.NewCredentialRepository(db)
		resolver = usecase.NewCredentialService(repo, kmsClient)
		slog.Info("using database credential store")
	} else {
		staticResolver, err := repository.NewStaticCredentialResolver(cfg.SystemsFile)
		if err != nil {
			slog.Error("failed to load systems file", "error", err, "path", cfg.SystemsFile)
			os.Exit(1)
		}
		resolver = staticResolver
		slog.Info("using static credential store", "systems", staticResolver.Len())
	}

	// DI
	auth := middleware.NewHMACAuth(resolver, time.Duration(cfg.TimestampWindowSeconds)*time.Second)
	anonymizationHandler := handler.NewAnonymizationHandler(usecase.AnonymizerOptions{
		MatchNumericStrings: cfg.MatchNumericStrings,
	})
	decryptionHandler := handler.NewDecryptionHandler()
	router := handler.NewRouter(anonymizationHandler, decryptionHandler, auth)

	var rootHandler http.Handler = router
	if cfg.OtelEnabled {
		rootHandler = otelhttp.NewHandler(router, "data-anonymization-service")
	}

	// サーバー起動
	server := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: rootHandler,
	}

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)
		<-sigCh

		slog.Info("shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("server shutdown error", "error", err)
		}
	}()

	slog.Info("starting server", "port", cfg.Port)
	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}
