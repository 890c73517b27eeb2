package handler

import (
	"github.com/shopspring/decimal"

	"github.com/pharmapos/backend/internal/interfaces/http/dto"
)

// APIResponse mirrors dto.Response with a typed data field for OpenAPI
// documentation only; runtime responses are built through dto.
// @Description Standard API response wrapper with typed data field
type APIResponse[T any] struct {
	Success bool           `json:"success"`
	Data    T              `json:"data,omitempty"`
	Error   *dto.ErrorInfo `json:"error,omitempty"`
	Meta    *dto.Meta      `json:"meta,omitempty"`
}

// ErrorResponse documents the error envelope
// @Description Standard error response
type ErrorResponse struct {
	Success bool           `json:"success" example:"false"`
	Error   *dto.ErrorInfo `json:"error,omitempty"`
}

// toDecimal converts a request float into the decimal type the
// application layer works with
func toDecimal(f float64) decimal.Decimal {
	return decimal.NewFromFloat(f)
}
