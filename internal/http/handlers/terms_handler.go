package handlers

import (
	"github.com/billswap/backend/internal/http/dto"
	"github.com/billswap/backend/internal/middleware"
	"github.com/billswap/backend/internal/services"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type TermsHandler struct {
	termsSvc *services.TermsService
	log      *zap.Logger
}

func NewTermsHandler(termsSvc *services.TermsService, log *zap.Logger) *TermsHandler {
	return &TermsHandler{termsSvc: termsSvc, log: log}
}

func parseTermsInput(c *fiber.Ctx) (services.ProposeTermsInput, error) {
	var req dto.ProposeTermsRequest
	if err := c.BodyParser(&req); err != nil {
		return services.ProposeTermsInput{}, err
	}
	return services.ProposeTermsInput{
		InitiatorFeeMinor:    req.InitiatorFeeMinor,
		CounterpartyFeeMinor: req.CounterpartyFeeMinor,
		ProofWindowHours:     req.ProofWindowHours,
		FallbackPenalty:      req.FallbackPenalty,
	}, nil
}

func (h *TermsHandler) Propose(c *fiber.Ctx) error {
	swapID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid swap id"})
	}
	input, err := parseTermsInput(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid request body"})
	}

	userID := middleware.GetUserID(c)
	terms, err := h.termsSvc.Propose(c.Context(), swapID, userID, input)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.SuccessResponse{OK: true, Data: terms})
}

func (h *TermsHandler) Counter(c *fiber.Ctx) error {
	swapID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid swap id"})
	}
	input, err := parseTermsInput(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid request body"})
	}

	userID := middleware.GetUserID(c)
	terms, err := h.termsSvc.Counter(c.Context(), swapID, userID, input)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.SuccessResponse{OK: true, Data: terms})
}

func (h *TermsHandler) Accept(c *fiber.Ctx) error {
	termsID, err := uuid.Parse(c.Params("termsId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid terms id"})
	}

	userID := middleware.GetUserID(c)
	terms, err := h.termsSvc.Accept(c.Context(), termsID, userID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: terms})
}

func (h *TermsHandler) Reject(c *fiber.Ctx) error {
	termsID, err := uuid.Parse(c.Params("termsId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid terms id"})
	}

	userID := middleware.GetUserID(c)
	terms, err := h.termsSvc.Reject(c.Context(), termsID, userID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: terms})
}

func (h *TermsHandler) ListForSwap(c *fiber.Ctx) error {
	swapID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid swap id"})
	}

	userID := middleware.GetUserID(c)
	terms, err := h.termsSvc.ListForSwap(c.Context(), swapID, userID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: terms})
}
