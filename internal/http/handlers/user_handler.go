package handlers

import (
	"github.com/billswap/backend/internal/http/dto"
	"github.com/billswap/backend/internal/middleware"
	"github.com/billswap/backend/internal/repositories"
	"github.com/billswap/backend/internal/services"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type UserHandler struct {
	userRepo      *repositories.UserRepo
	trustSvc      *services.TrustService
	collateralSvc *services.CollateralService
	log           *zap.Logger
}

func NewUserHandler(
	userRepo *repositories.UserRepo,
	trustSvc *services.TrustService,
	collateralSvc *services.CollateralService,
	log *zap.Logger,
) *UserHandler {
	return &UserHandler{userRepo: userRepo, trustSvc: trustSvc, collateralSvc: collateralSvc, log: log}
}

func (h *UserHandler) GetMe(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)

	user, err := h.userRepo.GetByID(c.Context(), userID)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Error: "user not found"})
	}
	trust, err := h.trustSvc.GetProfile(c.Context(), userID)
	if err != nil {
		return respondError(c, err)
	}
	collateral, err := h.collateralSvc.GetBalance(c.Context(), userID)
	if err != nil {
		h.log.Error("failed to load collateral balance", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: "internal error"})
	}

	return c.JSON(dto.SuccessResponse{OK: true, Data: dto.MeResponse{
		User:       user,
		Trust:      trust,
		Collateral: collateral,
	}})
}

func (h *UserHandler) Ping(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	_ = h.userRepo.UpdateLastActive(c.Context(), userID)
	return c.JSON(dto.SuccessResponse{OK: true})
}

// StakeCredits tops up the caller's stakeable credit balance for
// credit-forfeit swap agreements.
func (h *UserHandler) StakeCredits(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)

	var req dto.StakeCreditsRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid request body"})
	}

	entry, err := h.collateralSvc.Stake(c.Context(), userID, req.Credits)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: entry})
}

// GetTrustProfile exposes another user's public trust standing, for vetting
// a potential swap partner.
func (h *UserHandler) GetTrustProfile(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid user id"})
	}
	trust, err := h.trustSvc.GetProfile(c.Context(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: trust})
}
