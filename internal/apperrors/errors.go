package apperrors

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/plankhq/plank-api/internal/models"
	"gorm.io/gorm"
)

// Error codes
const (
	ErrCodeUnauthorized = "UNAUTHORIZED"
	ErrCodeForbidden    = "FORBIDDEN"
	ErrCodeInvalidInput = "INVALID_INPUT"
	ErrCodeNotFound     = "NOT_FOUND"
	ErrCodeConflict     = "CONFLICT"
	ErrCodeInternal     = "INTERNAL_ERROR"
)

// Service-layer error taxonomy. Adapters map these onto protocol
// responses; nothing below the handler layer knows about HTTP.
var (
	// ErrNotFound covers both "does not exist" and "exists outside the
	// caller's visible scope". The two are deliberately indistinguishable
	// so responses never confirm the existence of foreign resources.
	ErrNotFound = errors.New("not found")
	// ErrForbidden means the target is visible but the role or quota
	// check failed.
	ErrForbidden = errors.New("forbidden")
	// ErrValidation is malformed or semantically invalid input.
	ErrValidation = errors.New("validation failed")
	// ErrIntegrity marks attempts to defy a storage invariant. These are
	// programming errors and surface as 500s.
	ErrIntegrity = errors.New("integrity violation")
)

// NotFoundf wraps ErrNotFound with context.
func NotFoundf(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrNotFound}, args...)...)
}

// Forbiddenf wraps ErrForbidden with context.
func Forbiddenf(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrForbidden}, args...)...)
}

// Validationf wraps ErrValidation with context.
func Validationf(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrValidation}, args...)...)
}

// APIError represents a standardized API error response
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// Error implements the error interface
func (e *APIError) Error() string {
	return e.Message
}

func NewAPIError(code, message string) *APIError {
	return &APIError{Code: code, Message: message}
}

// RespondWithError sends an error response
func RespondWithError(c *gin.Context, statusCode int, err *APIError) {
	c.JSON(statusCode, err)
}

// Unauthorized sends a 401 response
func Unauthorized(c *gin.Context, message string) {
	if message == "" {
		message = "Authentication required"
	}
	RespondWithError(c, http.StatusUnauthorized, NewAPIError(ErrCodeUnauthorized, message))
}

// Forbidden sends a 403 response
func Forbidden(c *gin.Context, message string) {
	if message == "" {
		message = "Access denied"
	}
	RespondWithError(c, http.StatusForbidden, NewAPIError(ErrCodeForbidden, message))
}

// NotFound sends a 404 response
func NotFound(c *gin.Context, message string) {
	if message == "" {
		message = "Resource not found"
	}
	RespondWithError(c, http.StatusNotFound, NewAPIError(ErrCodeNotFound, message))
}

// BadRequest sends a 400 response
func BadRequest(c *gin.Context, message string) {
	if message == "" {
		message = "Invalid request"
	}
	RespondWithError(c, http.StatusBadRequest, NewAPIError(ErrCodeInvalidInput, message))
}

// InternalError sends a 500 response
func InternalError(c *gin.Context, message string) {
	if message == "" {
		message = "Internal server error"
	}
	RespondWithError(c, http.StatusInternalServerError, NewAPIError(ErrCodeInternal, message))
}

// Respond maps a service-layer error onto the matching HTTP response.
func Respond(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrNotFound) || errors.Is(err, gorm.ErrRecordNotFound):
		NotFound(c, "")
	case errors.Is(err, ErrForbidden):
		Forbidden(c, "")
	case errors.Is(err, ErrValidation):
		BadRequest(c, err.Error())
	case errors.Is(err, ErrIntegrity),
		errors.Is(err, models.ErrTaskNumberImmutable),
		errors.Is(err, models.ErrTaskWorkspaceMismatch):
		InternalError(c, "")
	default:
		InternalError(c, "")
	}
}
