package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/billswap/backend/internal/config"
	"github.com/billswap/backend/internal/db"
	"github.com/billswap/backend/internal/events"
	"github.com/billswap/backend/internal/repositories"
	"github.com/billswap/backend/internal/services"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// The sweeper runs the time-driven jobs: expiring stale offers and terms,
// auto-accepting unreviewed proofs, settling swaps whose proof deadline
// passed, and expiring unanswered extension requests.
func main() {
	log, _ := zap.NewProduction()
	defer log.Sync()

	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := db.NewPostgresPool(ctx, cfg.PostgresDSN, log)
	if err != nil {
		log.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer pool.Close()

	rdb, err := db.NewRedisClient(ctx, cfg.RedisURL, log)
	if err != nil {
		log.Fatal("failed to connect to redis", zap.Error(err))
	}
	defer rdb.Close()

	// Repos
	swapRepo := repositories.NewSwapRepo(pool)
	billRepo := repositories.NewBillRepo(pool)
	termsRepo := repositories.NewTermsRepo(pool)
	proofRepo := repositories.NewProofRepo(pool)
	extensionRepo := repositories.NewExtensionRepo(pool)
	trustRepo := repositories.NewTrustRepo(pool)
	collateralRepo := repositories.NewCollateralRepo(pool)
	auditRepo := repositories.NewAuditRepo(pool)

	// Services
	publisher := events.NewRedisPublisher(rdb, log)
	notifyClient := services.NewNotifyClient(cfg.NotifyInternalURL, log)
	chatClient := services.NewChatClient(cfg.ChatInternalURL, log)
	paymentClient := services.NewPaymentClient(cfg.PaymentInternalURL, log)
	trustService := services.NewTrustService(trustRepo, swapRepo, auditRepo, publisher, log)
	collateralService := services.NewCollateralService(collateralRepo, auditRepo, log)
	termsService := services.NewTermsService(termsRepo, swapRepo, auditRepo, chatClient, publisher, cfg, log)
	swapService := services.NewSwapService(swapRepo, billRepo, proofRepo, extensionRepo, auditRepo, trustService, collateralService, termsService, notifyClient, chatClient, paymentClient, publisher, cfg, log)

	log.Info("sweeper started")

	// Minimal health endpoint for orchestration checks
	health := fiber.New(fiber.Config{DisableStartupMessage: true})
	health.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})
	go func() {
		if err := health.Listen(fmt.Sprintf(":%s", cfg.SweeperPort)); err != nil {
			log.Error("health server error", zap.Error(err))
		}
	}()

	offersTicker := time.NewTicker(cfg.SweepOffersInterval)
	termsTicker := time.NewTicker(cfg.SweepTermsInterval)
	proofsTicker := time.NewTicker(cfg.SweepProofsInterval)
	extensionsTicker := time.NewTicker(cfg.SweepExtensionsInterval)
	defer offersTicker.Stop()
	defer termsTicker.Stop()
	defer proofsTicker.Stop()
	defer extensionsTicker.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	for {
		select {
		case <-offersTicker.C:
			runSweep(ctx, log, "expired_offers", swapService.SweepExpiredOffers)
		case <-termsTicker.C:
			runSweep(ctx, log, "expired_terms", termsService.SweepExpired)
		case <-proofsTicker.C:
			// Auto-accept silent reviews first so the deadline sweep sees
			// their outcome instead of failing the swap.
			runSweep(ctx, log, "proof_reviews", swapService.SweepProofReviews)
			runSweep(ctx, log, "proof_deadlines", swapService.SweepProofDeadlines)
		case <-extensionsTicker.C:
			runSweep(ctx, log, "expired_extensions", swapService.SweepExtensions)
		case <-sigCh:
			log.Info("shutting down sweeper")
			cancel()
			_ = health.Shutdown()
			return
		case <-ctx.Done():
			return
		}
	}
}

func runSweep(ctx context.Context, log *zap.Logger, name string, fn func(context.Context) (int, error)) {
	n, err := fn(ctx)
	if err != nil {
		log.Error("sweep failed", zap.String("job", name), zap.Error(err))
		return
	}
	if n > 0 {
		log.Info("sweep done", zap.String("job", name), zap.Int("processed", n))
	}
}
