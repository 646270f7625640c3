package http

import (
	"time"

	"github.com/billswap/backend/internal/config"
	"github.com/billswap/backend/internal/http/handlers"
	"github.com/billswap/backend/internal/middleware"
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func SetupRouter(
	app *fiber.App,
	cfg *config.Config,
	log *zap.Logger,
	rdb *redis.Client,
	authHandler *handlers.AuthHandler,
	userHandler *handlers.UserHandler,
	billHandler *handlers.BillHandler,
	matchHandler *handlers.MatchHandler,
	swapHandler *handlers.SwapHandler,
	termsHandler *handlers.TermsHandler,
	disputeHandler *handlers.DisputeHandler,
	wsHub *handlers.WSHub,
) {
	// Global middleware
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, X-Request-ID",
	}))
	app.Use(middleware.RequestIDMiddleware())
	app.Use(middleware.LoggerMiddleware(log))

	// Health check
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	api := app.Group("/api/v1")

	// Auth (public)
	api.Post("/auth/login", authHandler.Login)

	api.Use(middleware.RateLimitMiddleware(rdb, 100, time.Minute))

	// Protected endpoints
	protected := api.Group("", middleware.AuthMiddleware(cfg, log))

	// User
	protected.Get("/me", userHandler.GetMe)
	protected.Post("/me/ping", userHandler.Ping)
	protected.Post("/me/collateral/stake", userHandler.StakeCredits)
	protected.Get("/users/:id/trust", userHandler.GetTrustProfile)

	// Bills
	protected.Post("/bills", billHandler.CreateBill)
	protected.Get("/bills/my", billHandler.MyBills)
	protected.Get("/bills/:id", billHandler.GetBill)
	protected.Put("/bills/:id", billHandler.UpdateBill)
	protected.Get("/bills/:id/matches", matchHandler.MatchesForBill)

	// Match feed across all of the caller's bills
	protected.Get("/matches", matchHandler.Feed)

	// Swaps
	protected.Post("/swaps", swapHandler.CreateOffer)
	protected.Get("/swaps", swapHandler.ListSwaps)
	protected.Get("/swaps/:id", swapHandler.GetSwap)
	protected.Post("/swaps/:id/accept", swapHandler.AcceptOffer)
	protected.Post("/swaps/:id/fee", swapHandler.ConfirmFee)
	protected.Post("/swaps/:id/cancel", swapHandler.Cancel)
	protected.Get("/swaps/:id/timeline", swapHandler.GetTimeline)

	// Terms negotiation
	protected.Post("/swaps/:id/terms", termsHandler.Propose)
	protected.Post("/swaps/:id/terms/counter", termsHandler.Counter)
	protected.Get("/swaps/:id/terms", termsHandler.ListForSwap)
	protected.Post("/terms/:termsId/accept", termsHandler.Accept)
	protected.Post("/terms/:termsId/reject", termsHandler.Reject)

	// Proofs
	protected.Post("/swaps/:id/proofs", swapHandler.SubmitProof)
	protected.Get("/swaps/:id/proofs", swapHandler.ListProofs)
	protected.Post("/proofs/:proofId/review", swapHandler.ReviewProof)

	// Deadline extensions
	protected.Post("/swaps/:id/extensions", swapHandler.RequestExtension)
	protected.Post("/extensions/:extensionId/respond", swapHandler.RespondExtension)

	// Disputes
	protected.Post("/swaps/:id/disputes", disputeHandler.File)
	protected.Get("/disputes/:id", disputeHandler.Get)

	// Arbitration (admin only)
	admin := protected.Group("/admin", middleware.AdminMiddleware(cfg))
	admin.Get("/disputes", disputeHandler.ListOpen)
	admin.Post("/disputes/:id/investigate", disputeHandler.Investigate)
	admin.Post("/disputes/:id/resolve", disputeHandler.Resolve)
	admin.Post("/disputes/:id/dismiss", disputeHandler.Dismiss)

	// WebSocket
	app.Use("/ws", handlers.WSUpgradeMiddleware())
	app.Get("/ws", websocket.New(wsHub.HandleWS))
}
