package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/billswap/backend/internal/config"
	"github.com/billswap/backend/internal/db"
	"github.com/billswap/backend/internal/events"
	apphttp "github.com/billswap/backend/internal/http"
	"github.com/billswap/backend/internal/http/handlers"
	"github.com/billswap/backend/internal/repositories"
	"github.com/billswap/backend/internal/services"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

func main() {
	log, _ := zap.NewProduction()
	defer log.Sync()

	cfg := config.Load()
	cfg.Validate(log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Database
	pool, err := db.NewPostgresPool(ctx, cfg.PostgresDSN, log)
	if err != nil {
		log.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer pool.Close()

	// Run migrations
	if err := db.RunMigrations(ctx, pool, "migrations", log); err != nil {
		log.Fatal("failed to run migrations", zap.Error(err))
	}

	// Redis
	rdb, err := db.NewRedisClient(ctx, cfg.RedisURL, log)
	if err != nil {
		log.Fatal("failed to connect to redis", zap.Error(err))
	}
	defer rdb.Close()

	// Repositories
	userRepo := repositories.NewUserRepo(pool)
	billRepo := repositories.NewBillRepo(pool)
	swapRepo := repositories.NewSwapRepo(pool)
	termsRepo := repositories.NewTermsRepo(pool)
	proofRepo := repositories.NewProofRepo(pool)
	disputeRepo := repositories.NewDisputeRepo(pool)
	extensionRepo := repositories.NewExtensionRepo(pool)
	trustRepo := repositories.NewTrustRepo(pool)
	collateralRepo := repositories.NewCollateralRepo(pool)
	auditRepo := repositories.NewAuditRepo(pool)

	// Events
	publisher := events.NewRedisPublisher(rdb, log)
	subscriber := events.NewRedisSubscriber(rdb, log)

	// Internal service clients
	notifyClient := services.NewNotifyClient(cfg.NotifyInternalURL, log)
	chatClient := services.NewChatClient(cfg.ChatInternalURL, log)
	paymentClient := services.NewPaymentClient(cfg.PaymentInternalURL, log)

	// Services
	trustService := services.NewTrustService(trustRepo, swapRepo, auditRepo, publisher, log)
	collateralService := services.NewCollateralService(collateralRepo, auditRepo, log)
	billService := services.NewBillService(billRepo, trustRepo, auditRepo, log)
	matchService := services.NewMatchService(billRepo, trustRepo, log)
	termsService := services.NewTermsService(termsRepo, swapRepo, auditRepo, chatClient, publisher, cfg, log)
	swapService := services.NewSwapService(swapRepo, billRepo, proofRepo, extensionRepo, auditRepo, trustService, collateralService, termsService, notifyClient, chatClient, paymentClient, publisher, cfg, log)
	disputeService := services.NewDisputeService(disputeRepo, swapRepo, auditRepo, trustService, collateralService, swapService, notifyClient, publisher, cfg, log)

	// Handlers
	authHandler := handlers.NewAuthHandler(userRepo, trustService, cfg, log)
	userHandler := handlers.NewUserHandler(userRepo, trustService, collateralService, log)
	billHandler := handlers.NewBillHandler(billService, log)
	matchHandler := handlers.NewMatchHandler(matchService, log)
	swapHandler := handlers.NewSwapHandler(swapService, log)
	termsHandler := handlers.NewTermsHandler(termsService, log)
	disputeHandler := handlers.NewDisputeHandler(disputeService, cfg, log)
	wsHub := handlers.NewWSHub(cfg, subscriber, log)

	// Start WS hub
	wsHub.Start(ctx)

	// Fiber app
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{"error": err.Error()})
		},
	})

	apphttp.SetupRouter(app, cfg, log, rdb, authHandler, userHandler, billHandler, matchHandler, swapHandler, termsHandler, disputeHandler, wsHub)

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")
		cancel()
		_ = app.Shutdown()
	}()

	addr := fmt.Sprintf(":%s", cfg.APIPort)
	log.Info("starting API server", zap.String("addr", addr))
	if err := app.Listen(addr); err != nil {
		log.Fatal("server error", zap.Error(err))
	}
}
