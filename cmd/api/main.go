package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"storefront/internal/config"
	"storefront/internal/handler"
	"storefront/internal/infra/cache"
	"storefront/internal/infra/db"
	"storefront/internal/infra/event"
	infraRepo "storefront/internal/infra/repository"
	"storefront/internal/infra/tracing"
	"storefront/internal/server"
	"storefront/internal/usecase"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

type uuidGenerator struct{}

func (g *uuidGenerator) NewID() string {
	return uuid.NewString()
}

type realClock struct{}

func (c *realClock) Now() time.Time {
	return time.Now()
}

func main() {
	//.envは無くてもよい（本番は環境変数）
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger, err := newLogger(cfg)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := tracing.Init("storefront", cfg.JaegerEndpoint, logger)
	if err != nil {
		logger.Fatal("tracing init failed", zap.Error(err))
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			logger.Warn("tracing shutdown failed", zap.Error(err))
		}
	}()

	//DB接続
	gormDB, err := db.Connect(cfg)
	if err != nil {
		logger.Fatal("db connect failed", zap.Error(err))
	}
	if err := db.Migrate(gormDB); err != nil {
		logger.Fatal("db migrate failed", zap.Error(err))
	}

	//売れ筋キャッシュ（REDIS_ADDRが無ければ使わない）
	var topSelling usecase.TopSellingCache = usecase.NoopTopSellingCache{}
	if cfg.RedisAddr != "" {
		rdb, err := cache.InitRedis(cfg.RedisAddr, cfg.RedisPassword, logger)
		if err != nil {
			logger.Warn("redis unavailable, top selling cache disabled", zap.Error(err))
		} else {
			defer rdb.Close()
			topSelling = cache.NewTopSellingRedisCache(rdb, cfg.TopSellingCacheTTL)
		}
	}

	//注文イベント（KAFKA_BROKERSが無ければ送らない）
	var events usecase.OrderEventPublisher = usecase.NoopOrderEventPublisher{}
	if len(cfg.KafkaBrokers) > 0 {
		producer, err := event.InitProducer(cfg.KafkaBrokers, logger)
		if err != nil {
			logger.Warn("kafka unavailable, order events disabled", zap.Error(err))
		} else {
			defer producer.Close()
			events = event.NewKafkaOrderEventPublisher(producer, cfg.OrderTopic, logger)
		}
	}

	//Repository（GORM実装）生成
	txm := infraRepo.NewTxManagerGorm(gormDB)
	productRepo := infraRepo.NewProductGormRepository(gormDB)
	favoriteRepo := infraRepo.NewFavoriteGormRepository(gormDB)

	//usecaseに渡す部品
	idGen := &uuidGenerator{}
	clock := &realClock{}
	retry := usecase.DefaultRetryPolicy()
	retry.MaxRetries = cfg.TxMaxRetries

	//Usecase生成
	orderUC := usecase.NewOrderUsecase(txm, usecase.NewInventoryLedger(), events, topSelling, clock, idGen, retry, logger)
	adminOrderUC := usecase.NewAdminOrderUsecase(txm)
	productUC := usecase.NewProductUsecase(txm, productRepo, topSelling, logger)
	reviewUC := usecase.NewReviewUsecase(txm, topSelling, clock, retry, logger)
	favoriteUC := usecase.NewFavoriteUsecase(favoriteRepo, logger)

	//Handler生成
	e := server.New(cfg, logger, server.Handlers{
		Product:      handler.NewProductHandler(productUC, reviewUC, favoriteUC),
		AdminProduct: handler.NewAdminProductHandler(productUC),
		Order:        handler.NewOrderHandler(orderUC),
		AdminOrder:   handler.NewAdminOrderHandler(adminOrderUC),
	})

	//Server起動
	addr := cfg.Port
	if addr != "" && addr[0] != ':' {
		addr = ":" + addr
	}

	if err := server.Start(ctx, e, addr, logger); err != nil {
		logger.Fatal("server error", zap.Error(err))
	}
	logger.Info("Server exited")
}

func newLogger(cfg config.Config) (*zap.Logger, error) {
	if cfg.GoEnv == "dev" {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
