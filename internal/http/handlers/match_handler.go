package handlers

import (
	"github.com/billswap/backend/internal/http/dto"
	"github.com/billswap/backend/internal/middleware"
	"github.com/billswap/backend/internal/services"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type MatchHandler struct {
	matchSvc *services.MatchService
	log      *zap.Logger
}

func NewMatchHandler(matchSvc *services.MatchService, log *zap.Logger) *MatchHandler {
	return &MatchHandler{matchSvc: matchSvc, log: log}
}

// MatchesForBill ranks counterpart bills for one of the caller's bills.
func (h *MatchHandler) MatchesForBill(c *fiber.Ctx) error {
	billID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid bill id"})
	}

	userID := middleware.GetUserID(c)
	matches, err := h.matchSvc.FindMatches(c.Context(), userID, billID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: matches})
}

// Feed ranks across all of the caller's active bills.
func (h *MatchHandler) Feed(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	matches, err := h.matchSvc.FindMatchesForUser(c.Context(), userID)
	if err != nil {
		h.log.Error("match feed failed", zap.Error(err))
		return respondError(c, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: matches})
}
