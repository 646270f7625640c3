package handlers

import (
	"encoding/json"
	"errors"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/billswap/backend/internal/apperr"
	"github.com/billswap/backend/internal/http/dto"
	"github.com/gofiber/fiber/v2"
)

func TestRespondErrorStatusMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"unauthenticated", apperr.Unauthenticated("no token"), fiber.StatusUnauthorized, "unauthenticated"},
		{"unauthorized", apperr.Unauthorized("not yours"), fiber.StatusForbidden, "unauthorized"},
		{"validation", apperr.Validation("bad amount"), fiber.StatusBadRequest, "validation_failed"},
		{"not found", apperr.NotFound("no such swap"), fiber.StatusNotFound, "not_found"},
		{"invalid state", apperr.InvalidState("swap is completed"), fiber.StatusUnprocessableEntity, "invalid_state"},
		{"expired", apperr.Expired("offer deadline passed"), fiber.StatusUnprocessableEntity, "expired"},
		{"conflict", apperr.Conflict("swap changed concurrently"), fiber.StatusConflict, "conflict"},
		{"insufficient collateral", apperr.InsufficientCollateral("need 120 points"), fiber.StatusPaymentRequired, "insufficient_collateral"},
		{"unknown", errors.New("pgx: connection refused"), fiber.StatusInternalServerError, "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := fiber.New()
			app.Get("/", func(c *fiber.Ctx) error {
				return respondError(c, tt.err)
			})

			resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
			if err != nil {
				t.Fatalf("app.Test: %v", err)
			}
			defer resp.Body.Close()

			if resp.StatusCode != tt.wantStatus {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.wantStatus)
			}

			var body dto.ErrorResponse
			if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
				t.Fatalf("decode body: %v", err)
			}
			if body.Code != tt.wantCode {
				t.Errorf("code = %q, want %q", body.Code, tt.wantCode)
			}
		})
	}
}

func TestRespondErrorHidesInternalDetails(t *testing.T) {
	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error {
		return respondError(c, errors.New("dial tcp 10.0.0.5:5432: connection refused"))
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	var body dto.ErrorResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if strings.Contains(body.Error, "10.0.0.5") {
		t.Errorf("internal details leaked to client: %q", body.Error)
	}
	if body.Error != "internal error" {
		t.Errorf("error = %q, want generic message", body.Error)
	}
}
