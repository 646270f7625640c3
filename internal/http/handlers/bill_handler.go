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

type BillHandler struct {
	billSvc *services.BillService
	log     *zap.Logger
}

func NewBillHandler(billSvc *services.BillService, log *zap.Logger) *BillHandler {
	return &BillHandler{billSvc: billSvc, log: log}
}

func (h *BillHandler) CreateBill(c *fiber.Ctx) error {
	var req dto.CreateBillRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid request body"})
	}

	userID := middleware.GetUserID(c)
	bill, err := h.billSvc.CreateBill(c.Context(), userID, services.CreateBillInput{
		AmountMinor: req.AmountMinor,
		Category:    req.Category,
		Provider:    req.Provider,
		DueDate:     req.DueDate,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.SuccessResponse{OK: true, Data: bill})
}

func (h *BillHandler) GetBill(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid bill id"})
	}
	bill, err := h.billSvc.GetBill(c.Context(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: bill})
}

func (h *BillHandler) MyBills(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	filter := repositories.BillFilter{UserID: &userID, Limit: 50}

	if v := c.Query("status"); v != "" {
		filter.Status = &v
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

	bills, err := h.billSvc.ListBills(c.Context(), filter)
	if err != nil {
		h.log.Error("list bills failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: "internal error"})
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: bills})
}

func (h *BillHandler) UpdateBill(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid bill id"})
	}

	var req dto.UpdateBillRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid request body"})
	}

	userID := middleware.GetUserID(c)
	bill, err := h.billSvc.UpdateBill(c.Context(), userID, id, services.UpdateBillInput{
		AmountMinor: req.AmountMinor,
		Provider:    req.Provider,
		DueDate:     req.DueDate,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: bill})
}
