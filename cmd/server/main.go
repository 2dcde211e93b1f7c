package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	authapp "shop-economy/internal/application/auth"
	"shop-economy/internal/application/economy"
	domainsave "shop-economy/internal/domain/savegame"
	"shop-economy/internal/domain/transaction"
	"shop-economy/internal/infrastructure/catalog"
	"shop-economy/internal/infrastructure/config"
	otelinfra "shop-economy/internal/infrastructure/observability/otel"
	"shop-economy/internal/infrastructure/persistence/mysql"
	"shop-economy/internal/infrastructure/persistence/sqlite"
	grpcserver "shop-economy/internal/presentation/grpc"
	"shop-economy/internal/presentation/rest"
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
	logger := otelinfra.NewLogger(otelinfra.Tracer("shop-economy"))
	level, err := otelinfra.ParseLogLevel(cfg.LogLevel)
	if err != nil {
		log.Fatalf("Invalid LOG_LEVEL: %v", err)
	}
	logger.SetLevel(level)
	metrics, err := otelinfra.NewMetrics("shop-economy")
	if err != nil {
		log.Fatalf("Failed to create metrics: %v", err)
	}

	ctx := context.Background()

	// アイテムカタログの読み込み
	items, err := catalog.LoadFile(cfg.Economy.CatalogPath)
	if err != nil {
		log.Fatalf("Failed to load item catalog: %v", err)
	}
	logger.Info(ctx, "Item catalog loaded", map[string]interface{}{
		"path":  cfg.Economy.CatalogPath,
		"items": items.Len(),
	})

	// 取引履歴・セーブスロットの保存先
	stores, err := openStores(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to open storage: %v", err)
	}
	defer stores.close()

	engine, err := economy.New(economy.Options{
		PriceFloor:      cfg.Economy.PriceFloor,
		PriceCeiling:    cfg.Economy.PriceCeiling,
		PriceCacheSize:  cfg.Economy.PriceCacheSize,
		DevToolsEnabled: cfg.Economy.DevToolsEnabled,
	}, economy.Dependencies{
		Catalog: items,
		Events:  stores.events,
		Slots:   stores.slots,
		Logger:  logger.With("economy"),
		Metrics: metrics,
	})
	if err != nil {
		log.Fatalf("Failed to build economy engine: %v", err)
	}

	authService := authapp.NewAuthApplicationService(&cfg.JWT, logger.With("auth"))

	// REST APIルーターの初期化
	router, err := rest.NewRouter(cfg, logger.With("rest"), metrics, engine, authService,
		rest.WithHealthCheck("storage", stores.health),
	)
	if err != nil {
		log.Fatalf("Failed to create router: %v", err)
	}

	// gRPCサーバーの初期化
	grpcSrv, err := grpcserver.NewServer(cfg, logger.With("grpc"), metrics, engine, authService)
	if err != nil {
		log.Fatalf("Failed to create gRPC server: %v", err)
	}

	address := fmt.Sprintf(":%d", cfg.Server.Port)

	// グレースフルシャットダウンの設定
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info(ctx, "REST API server starting", map[string]interface{}{"address": address})
		if err := router.Start(address); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error(ctx, "REST API server error", err, nil)
		}
	}()

	go func() {
		if err := grpcSrv.Start(); err != nil {
			logger.Error(ctx, "gRPC server error", err, nil)
		}
	}()

	<-quit
	logger.Info(ctx, "Shutting down servers", nil)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := router.Shutdown(shutdownCtx); err != nil {
		logger.Error(shutdownCtx, "Error shutting down REST API server", err, nil)
	}
	if err := grpcSrv.Stop(shutdownCtx); err != nil {
		logger.Error(shutdownCtx, "Error shutting down gRPC server", err, nil)
	}

	logger.Info(ctx, "Servers stopped", nil)
}

type storage struct {
	events transaction.EventRepository
	slots  domainsave.SaveSlotRepository
	health rest.HealthCheckFunc
	close  func()
}

// openStores 設定に応じてMySQLかSQLiteを開く
func openStores(ctx context.Context, cfg *config.Config) (*storage, error) {
	switch cfg.Save.Backend {
	case config.SaveBackendMySQL:
		db, err := mysql.NewDB(&cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to mysql: %w", err)
		}
		if err := db.Migrate(ctx); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to migrate mysql schema: %w", err)
		}
		return &storage{
			events: mysql.NewEventRepository(db),
			slots:  mysql.NewSaveSlotRepository(db),
			health: db.HealthCheck,
			close:  func() { db.Close() },
		}, nil
	case config.SaveBackendSQLite:
		db, err := sqlite.Open(ctx, cfg.SQLite.DSN())
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlite: %w", err)
		}
		return &storage{
			events: sqlite.NewEventRepository(db),
			slots:  sqlite.NewSaveSlotRepository(db),
			health: db.HealthCheck,
			close:  func() { db.Close() },
		}, nil
	default:
		return nil, fmt.Errorf("unknown save backend: %s", cfg.Save.Backend)
	}
}
