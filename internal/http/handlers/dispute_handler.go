package handlers

import (
	"strconv"

	"github.com/billswap/backend/internal/config"
	"github.com/billswap/backend/internal/http/dto"
	"github.com/billswap/backend/internal/middleware"
	"github.com/billswap/backend/internal/services"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type DisputeHandler struct {
	disputeSvc *services.DisputeService
	cfg        *config.Config
	log        *zap.Logger
}

func NewDisputeHandler(disputeSvc *services.DisputeService, cfg *config.Config, log *zap.Logger) *DisputeHandler {
	return &DisputeHandler{disputeSvc: disputeSvc, cfg: cfg, log: log}
}

func (h *DisputeHandler) File(c *fiber.Ctx) error {
	swapID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid swap id"})
	}

	var req dto.FileDisputeRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid request body"})
	}

	userID := middleware.GetUserID(c)
	dispute, err := h.disputeSvc.File(c.Context(), swapID, userID, services.FileDisputeInput{
		Reason:  req.Reason,
		Details: req.Details,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.SuccessResponse{OK: true, Data: dispute})
}

func (h *DisputeHandler) Get(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid dispute id"})
	}
	userID := middleware.GetUserID(c)
	arbiter := h.cfg.IsAdmin(middleware.GetExternalID(c))
	dispute, err := h.disputeSvc.Get(c.Context(), id, userID, arbiter)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: dispute})
}

// ListOpen is the arbiter queue.
func (h *DisputeHandler) ListOpen(c *fiber.Ctx) error {
	limit, offset := 20, 0
	if v := c.Query("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			limit = n
		}
	}
	if v := c.Query("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			offset = n
		}
	}

	disputes, err := h.disputeSvc.ListOpen(c.Context(), limit, offset)
	if err != nil {
		h.log.Error("list open disputes failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: "internal error"})
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: disputes})
}

func (h *DisputeHandler) Investigate(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid dispute id"})
	}

	arbiterID := middleware.GetUserID(c)
	dispute, err := h.disputeSvc.Investigate(c.Context(), id, arbiterID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: dispute})
}

func (h *DisputeHandler) Resolve(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid dispute id"})
	}

	var req dto.ResolveDisputeRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid request body"})
	}
	atFault, err := uuid.Parse(req.AtFaultUserID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid at_fault_user_id"})
	}

	arbiterID := middleware.GetUserID(c)
	dispute, err := h.disputeSvc.Resolve(c.Context(), id, arbiterID, atFault, req.Resolution)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: dispute})
}

func (h *DisputeHandler) Dismiss(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid dispute id"})
	}

	var req dto.DismissDisputeRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid request body"})
	}

	arbiterID := middleware.GetUserID(c)
	dispute, err := h.disputeSvc.Dismiss(c.Context(), id, arbiterID, req.Resolution)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: dispute})
}
