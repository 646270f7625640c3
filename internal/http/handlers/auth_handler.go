package handlers

import (
	"github.com/billswap/backend/internal/auth"
	"github.com/billswap/backend/internal/config"
	"github.com/billswap/backend/internal/http/dto"
	"github.com/billswap/backend/internal/repositories"
	"github.com/billswap/backend/internal/services"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type AuthHandler struct {
	userRepo *repositories.UserRepo
	trustSvc *services.TrustService
	cfg      *config.Config
	log      *zap.Logger
}

func NewAuthHandler(userRepo *repositories.UserRepo, trustSvc *services.TrustService, cfg *config.Config, log *zap.Logger) *AuthHandler {
	return &AuthHandler{userRepo: userRepo, trustSvc: trustSvc, cfg: cfg, log: log}
}

// Login verifies a signed identity-provider payload, upserts the user, and
// issues a session token. Verification flags from the payload land on the
// trust profile so tier bonuses apply immediately.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid request body"})
	}
	if req.Payload == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "payload is required"})
	}

	identity, err := auth.VerifyLoginPayload(req.Payload, h.cfg.IdentitySecret, h.cfg.IdentityLoginMaxAge)
	if err != nil {
		h.log.Debug("login payload rejected", zap.Error(err))
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Error: err.Error()})
	}

	var email, displayName *string
	if identity.Email != "" {
		email = &identity.Email
	}
	if identity.DisplayName != "" {
		displayName = &identity.DisplayName
	}

	user, err := h.userRepo.UpsertByExternalID(c.Context(), identity.Subject, email, displayName)
	if err != nil {
		h.log.Error("failed to upsert user", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: "internal server error"})
	}

	if _, err := h.trustSvc.SetVerification(c.Context(), user.ID, identity.IDVerified, identity.BankLinked, identity.WorkEmailVerified); err != nil {
		h.log.Error("failed to sync verification flags", zap.Error(err))
	}

	token, err := auth.GenerateJWT(h.cfg.JWTSecret, user.ID, user.ExternalID, h.cfg.JWTExpiration)
	if err != nil {
		h.log.Error("failed to generate jwt", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: "internal server error"})
	}

	return c.JSON(dto.AuthResponse{Token: token, User: user})
}
