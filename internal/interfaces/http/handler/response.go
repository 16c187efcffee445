package handler

import "github.com/shopfront/backend/internal/interfaces/http/dto"

// Swagger-only shapes of dto.Response with the payload type spelled out.

// APIResponse is a successful envelope carrying T
type APIResponse[T any] struct {
	Success bool      `json:"success" example:"true"`
	Data    T         `json:"data,omitempty"`
	Meta    *dto.Meta `json:"meta,omitempty"`
}

// ErrorResponse is a failed envelope
type ErrorResponse struct {
	Success bool           `json:"success" example:"false"`
	Error   *dto.ErrorInfo `json:"error"`
}
