package rest

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/keychainmdip/dex-market/internal/domain"
	"github.com/keychainmdip/dex-market/internal/logger"
)

// ErrorCode represents a standardized error code
type ErrorCode string

const (
	// Client errors (4xx)
	errCodeBadRequest        ErrorCode = "bad_request"
	errCodeValidationFailed  ErrorCode = "validation_failed"
	errCodeUnauthorized      ErrorCode = "unauthorized"
	errCodeForbidden         ErrorCode = "forbidden"
	errCodeInsufficientFunds ErrorCode = "insufficient_funds"
	errCodeNotFound          ErrorCode = "not_found"
	errCodeConflict          ErrorCode = "conflict"

	// Server errors (5xx)
	errCodeInternalError ErrorCode = "internal_error"
	errCodeUpstreamError ErrorCode = "upstream_error"
)

// errorResponse represents a standardized error response
type errorResponse struct {
	Error errorDetail `json:"error"`
}

// errorDetail contains error information
type errorDetail struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Details string    `json:"details,omitempty"`
}

// respondWithError sends a standardized error response
func respondWithError(c *gin.Context, statusCode int, code ErrorCode, message string, details ...string) {
	response := errorResponse{
		Error: errorDetail{
			Code:    code,
			Message: message,
		},
	}

	if len(details) > 0 {
		response.Error.Details = details[0]
	}

	c.JSON(statusCode, response)
}

// respondBadRequest sends a 400 Bad Request response
func respondBadRequest(c *gin.Context, message string, details ...string) {
	respondWithError(c, http.StatusBadRequest, errCodeBadRequest, message, details...)
}

// respondUnauthorized sends a 401 Unauthorized response
func respondUnauthorized(c *gin.Context, message string) {
	respondWithError(c, http.StatusUnauthorized, errCodeUnauthorized, message)
}

// respondDomainError maps an engine error to its HTTP shape
func respondDomainError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrValidation):
		respondWithError(c, http.StatusBadRequest, errCodeValidationFailed, "Validation failed", err.Error())
	case errors.Is(err, domain.ErrConflict):
		respondWithError(c, http.StatusBadRequest, errCodeConflict, "Conflict", err.Error())
	case errors.Is(err, domain.ErrUnauthenticated):
		respondWithError(c, http.StatusUnauthorized, errCodeUnauthorized, "Authentication required")
	case errors.Is(err, domain.ErrInsufficientFunds):
		respondWithError(c, http.StatusForbidden, errCodeInsufficientFunds, "Insufficient credits", err.Error())
	case errors.Is(err, domain.ErrForbidden):
		respondWithError(c, http.StatusForbidden, errCodeForbidden, "Forbidden", err.Error())
	case errors.Is(err, domain.ErrNotFound):
		respondWithError(c, http.StatusNotFound, errCodeNotFound, "Not found")
	case errors.Is(err, domain.ErrUpstream):
		logger.Error(err, zap.String("path", c.Request.URL.Path))
		respondWithError(c, http.StatusInternalServerError, errCodeUpstreamError, "Upstream service failed")
	default:
		logger.Error(err, zap.String("path", c.Request.URL.Path))
		respondWithError(c, http.StatusInternalServerError, errCodeInternalError, "Internal server error")
	}
}
