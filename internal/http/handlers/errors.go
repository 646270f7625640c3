package handlers

import (
	"github.com/billswap/backend/internal/apperr"
	"github.com/billswap/backend/internal/http/dto"
	"github.com/gofiber/fiber/v2"
)

// respondError maps the service error taxonomy onto HTTP statuses. Anything
// outside the taxonomy is a 500 with a generic body; the details stay in the
// logs.
func respondError(c *fiber.Ctx, err error) error {
	kind := apperr.KindOf(err)
	status := fiber.StatusInternalServerError
	msg := "internal error"

	switch kind {
	case apperr.KindUnauthenticated:
		status = fiber.StatusUnauthorized
	case apperr.KindUnauthorized:
		status = fiber.StatusForbidden
	case apperr.KindValidationFailed:
		status = fiber.StatusBadRequest
	case apperr.KindNotFound:
		status = fiber.StatusNotFound
	case apperr.KindInvalidState, apperr.KindExpired:
		status = fiber.StatusUnprocessableEntity
	case apperr.KindConflict:
		status = fiber.StatusConflict
	case apperr.KindInsufficientCollateral:
		status = fiber.StatusPaymentRequired
	}

	if kind != apperr.KindUnknown {
		msg = err.Error()
	}
	return c.Status(status).JSON(dto.ErrorResponse{Error: msg, Code: kind.String()})
}
