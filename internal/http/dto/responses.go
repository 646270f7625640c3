package dto

import "github.com/billswap/backend/internal/models"

type SuccessResponse struct {
	OK   bool `json:"ok"`
	Data any  `json:"data,omitempty"`
}

type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

type AuthResponse struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

type MeResponse struct {
	User       *models.User            `json:"user"`
	Trust      *models.TrustProfile    `json:"trust"`
	Collateral *models.CollateralEntry `json:"collateral"`
}
