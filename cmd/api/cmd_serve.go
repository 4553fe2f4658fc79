package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"refurbmarket/internal/config"
	"refurbmarket/internal/handler"
	"refurbmarket/internal/infra/cache"
	"refurbmarket/internal/infra/db"
	"refurbmarket/internal/infra/payment"
	infraRepo "refurbmarket/internal/infra/repository"
	"refurbmarket/internal/metrics"
	"refurbmarket/internal/server"
	"refurbmarket/internal/usecase"
	auth "refurbmarket/internal/usecase/auth_usecase"

	"github.com/labstack/echo/v4"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		//DB接続
		gdb, err := db.Connect(cfg)
		if err != nil {
			return err
		}
		if err := db.Migrate(gdb); err != nil {
			return err
		}

		m := metrics.New()
		e, closeFn, err := buildServer(ctx, cfg, gdb, m)
		defer closeFn()
		if err != nil {
			return err
		}

		slog.Info("server starting", "port", cfg.Port, "env", cfg.GoEnv, "driver", cfg.DBDriver)
		if err := server.Start(ctx, e, ":"+cfg.Port); err != nil {
			return err
		}
		slog.Info("server stopped")
		return nil
	},
}

// Repository → Usecase → Handler の順に組み立てる。closeはRedisの後始末
func buildServer(ctx context.Context, cfg config.Config, gdb *gorm.DB, m *metrics.Metrics) (*echo.Echo, func(), error) {
	closeFn := func() {}

	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, closeFn, err
	}

	//Repository（GORM実装）
	userRepo := infraRepo.NewUserGormRepository(gdb)
	productRepo := infraRepo.NewProductGormRepository(gdb)
	orderRepo := infraRepo.NewOrderGormRepository(gdb)
	auditRepo := infraRepo.NewAuditLogGormRepository(gdb)
	txm := infraRepo.NewTxManagerGorm(gdb)

	//商品詳細キャッシュ（REDIS_ADDRがあるときだけ）
	var productCache usecase.ProductCache
	if cfg.RedisAddr != "" {
		client, err := cache.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword)
		if err != nil {
			slog.Warn("redis unavailable, product cache disabled", "addr", cfg.RedisAddr, "error", err)
		} else {
			productCache = cache.NewRedisProductCache(client, cfg.ProductCacheTTL, m)
			closeFn = func() { _ = client.Close() }
		}
	}

	gateway, err := payment.NewMockGateway(cfg.PaymentSecret)
	if err != nil {
		return nil, closeFn, err
	}

	//bcrypt（登録・パスワード変更：Hash / ログイン：Verify）
	hasher := auth.NewBcryptPasswordHasher(cfg.BcryptCost)
	issuer, err := auth.NewJWTIssuer(cfg.JWTSecret, cfg.JWTExpiresIn)
	if err != nil {
		return nil, closeFn, err
	}
	clock := auth.SystemClock{}

	//Usecase
	registerUC := auth.NewRegisterUserUsecase(userRepo, hasher, issuer, clock)
	loginUC := auth.NewLoginUsecase(userRepo, hasher, issuer, clock)
	userUC := usecase.NewUserUsecase(userRepo, hasher, hasher)
	productUC := usecase.NewProductUsecase(productRepo, txm, productCache)
	orderUC := usecase.NewOrderUsecase(txm, orderRepo, productRepo, gateway, productCache, m)
	auditUC := usecase.NewAuditLogUsecase(auditRepo)

	//Handler
	handlers := server.Handlers{
		Auth:    handler.NewAuthHandler(registerUC, loginUC),
		User:    handler.NewUserHandler(userUC),
		Product: handler.NewProductHandler(productUC),
		Order:   handler.NewOrderHandler(orderUC),
		Admin:   handler.NewAdminHandler(auditUC),
		Health:  handler.NewHealthHandler(sqlDB),
	}

	e := server.New(server.Options{
		FEURL:         cfg.FEURL,
		AuthRateLimit: cfg.AuthRateLimit,
		Logger:        slog.Default(),
		Metrics:       m,
	}, handler.NewAuthChain(cfg.JWTSecret, userRepo), handlers)
	return e, closeFn, nil
}
