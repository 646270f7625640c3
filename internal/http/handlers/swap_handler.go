package handlers

import (
	"strconv"

	"github.com/billswap/backend/internal/http/dto"
	"github.com/billswap/backend/internal/middleware"
	"github.com/billswap/backend/internal/repositories"
	"github.com/billswap/backend/internal/services"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type SwapHandler struct {
	swapSvc *services.SwapService
	log     *zap.Logger
}

func NewSwapHandler(swapSvc *services.SwapService, log *zap.Logger) *SwapHandler {
	return &SwapHandler{swapSvc: swapSvc, log: log}
}

func (h *SwapHandler) CreateOffer(c *fiber.Ctx) error {
	var req dto.CreateOfferRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid request body"})
	}
	billID, err := uuid.Parse(req.BillID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid bill_id"})
	}

	userID := middleware.GetUserID(c)
	swap, err := h.swapSvc.CreateOffer(c.Context(), userID, billID)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.SuccessResponse{OK: true, Data: swap})
}

func (h *SwapHandler) AcceptOffer(c *fiber.Ctx) error {
	swapID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid swap id"})
	}

	var req dto.AcceptOfferRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid request body"})
	}

	var billID *uuid.UUID
	if req.BillID != nil {
		id, err := uuid.Parse(*req.BillID)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid bill_id"})
		}
		billID = &id
	}

	userID := middleware.GetUserID(c)
	swap, err := h.swapSvc.AcceptOffer(c.Context(), swapID, userID, billID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: swap})
}

func (h *SwapHandler) ConfirmFee(c *fiber.Ctx) error {
	swapID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid swap id"})
	}

	var req dto.ConfirmFeeRequest
	if err := c.BodyParser(&req); err != nil || req.ChargeReference == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "charge_reference is required"})
	}

	userID := middleware.GetUserID(c)
	swap, err := h.swapSvc.ConfirmFee(c.Context(), swapID, userID, req.ChargeReference)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: swap})
}

func (h *SwapHandler) Cancel(c *fiber.Ctx) error {
	swapID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid swap id"})
	}

	userID := middleware.GetUserID(c)
	swap, err := h.swapSvc.Cancel(c.Context(), swapID, userID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: swap})
}

func (h *SwapHandler) GetSwap(c *fiber.Ctx) error {
	swapID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid swap id"})
	}

	userID := middleware.GetUserID(c)
	swap, err := h.swapSvc.GetSwap(c.Context(), swapID, userID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: swap})
}

func (h *SwapHandler) ListSwaps(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	filter := repositories.SwapFilter{ParticipantUserID: &userID, Limit: 20}

	if v := c.Query("status"); v != "" {
		filter.Status = &v
	}
	if c.Query("active") == "true" {
		filter.ActiveOnly = true
	}
	if v := c.Query("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			filter.Limit = n
		}
	}
	if v := c.Query("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			filter.Offset = n
		}
	}

	swaps, err := h.swapSvc.ListSwaps(c.Context(), filter)
	if err != nil {
		h.log.Error("list swaps failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: "internal error"})
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: swaps})
}

func (h *SwapHandler) SubmitProof(c *fiber.Ctx) error {
	swapID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid swap id"})
	}

	var req dto.SubmitProofRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid request body"})
	}

	userID := middleware.GetUserID(c)
	proof, err := h.swapSvc.SubmitProof(c.Context(), swapID, userID, req.ProofType, req.URL)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.SuccessResponse{OK: true, Data: proof})
}

func (h *SwapHandler) ListProofs(c *fiber.Ctx) error {
	swapID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid swap id"})
	}

	userID := middleware.GetUserID(c)
	proofs, err := h.swapSvc.ListProofs(c.Context(), swapID, userID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: proofs})
}

func (h *SwapHandler) ReviewProof(c *fiber.Ctx) error {
	proofID, err := uuid.Parse(c.Params("proofId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid proof id"})
	}

	var req dto.ReviewProofRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid request body"})
	}

	userID := middleware.GetUserID(c)
	proof, err := h.swapSvc.ReviewProof(c.Context(), proofID, userID, req.Accept)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: proof})
}

func (h *SwapHandler) GetTimeline(c *fiber.Ctx) error {
	swapID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid swap id"})
	}

	userID := middleware.GetUserID(c)
	timeline, err := h.swapSvc.GetTimeline(c.Context(), swapID, userID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: timeline})
}

func (h *SwapHandler) RequestExtension(c *fiber.Ctx) error {
	swapID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid swap id"})
	}

	var req dto.RequestExtensionRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid request body"})
	}

	userID := middleware.GetUserID(c)
	ext, err := h.swapSvc.RequestExtension(c.Context(), swapID, userID, req.ExtraHours)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.SuccessResponse{OK: true, Data: ext})
}

func (h *SwapHandler) RespondExtension(c *fiber.Ctx) error {
	extID, err := uuid.Parse(c.Params("extensionId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid extension id"})
	}

	var req dto.RespondExtensionRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid request body"})
	}

	userID := middleware.GetUserID(c)
	ext, err := h.swapSvc.RespondExtension(c.Context(), extID, userID, req.Approve)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: ext})
}
