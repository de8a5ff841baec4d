package respond

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"filing-backend/internal/shared/apperr"
	"filing-backend/internal/shared/telemetry"
)

// ErrorBody defines the standardized error object.
type ErrorBody struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

// ErrorResponse wraps the error body.
type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

// Error sends a standardized error response.
func Error(c *gin.Context, status int, code, message string, details interface{}) {
	fields := map[string]any{
		"status":     status,
		"code":       code,
		"message":    message,
		"path":       c.Request.URL.Path,
		"method":     c.Request.Method,
		"request_id": c.GetString("requestId"),
	}
	if userID := c.GetString("userId"); userID != "" {
		fields["user_id"] = userID
	}
	if isGuest, ok := c.Get("isGuest"); ok {
		fields["is_guest"] = isGuest
	}
	telemetry.Error("http.error", fields)
	c.Set("errorCode", code)

	c.AbortWithStatusJSON(status, ErrorResponse{
		Error: ErrorBody{
			Code:    code,
			Message: message,
			Details: details,
		},
	})
}

// AppError maps a pipeline error kind to a status and code.
func AppError(c *gin.Context, err error) {
	status, code := StatusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		msg = http.StatusText(status)
		if kind := apperr.KindOf(err); kind != "" {
			msg = string(kind) + " failure"
		}
	}
	Error(c, status, code, msg, nil)
}

// StatusFor returns the HTTP status and error code for err.
func StatusFor(err error) (int, string) {
	switch {
	case errors.Is(err, apperr.ErrInput):
		return http.StatusBadRequest, "input_error"
	case errors.Is(err, apperr.ErrExtraction):
		return http.StatusUnprocessableEntity, "extraction_error"
	case errors.Is(err, apperr.ErrReaggregation):
		return http.StatusInternalServerError, "reaggregation_error"
	case errors.Is(err, apperr.ErrPersistence):
		return http.StatusInternalServerError, "persistence_error"
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "timeout"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}
