package http

import (
	"errors"
	"fmt"
	"net/http"

	apperrors "secure-drive/pkg/errors"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

const msgInternalServerError = "Internal server error"

// NewHTTPErrorHandler maps errors returned by handlers and middleware to the
// failure envelope. Sentinels decide the status; 5xx messages never reach the
// client.
func NewHTTPErrorHandler(logger *zap.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code, message := statusFor(err)

		requestID := c.Response().Header().Get(echo.HeaderXRequestID)
		if requestID == "" {
			requestID = "unknown"
		}

		fields := []zap.Field{
			zap.String("request_id", requestID),
			zap.Int("status", code),
			zap.String("path", c.Path()),
			zap.Error(err),
		}
		if code >= http.StatusInternalServerError {
			logger.Error("internal_server_error", fields...)
			message = msgInternalServerError
		} else {
			logger.Warn("client_error", fields...)
		}

		if err := c.JSON(code, map[string]any{
			"status":     "fail",
			"error":      message,
			"request_id": requestID,
		}); err != nil {
			logger.Error("write error response", zap.Error(err))
		}
	}
}

func statusFor(err error) (int, string) {
	var httpErr *echo.HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.Code, fmt.Sprintf("%v", httpErr.Message)
	}

	code := http.StatusInternalServerError
	message := msgInternalServerError

	var appErr *apperrors.AppError
	hasAppErr := errors.As(err, &appErr)

	switch {
	case errors.Is(err, apperrors.ErrValidation):
		code, message = http.StatusBadRequest, "Validation error"
	case errors.Is(err, apperrors.ErrUnauthorized):
		code, message = http.StatusUnauthorized, "Unauthorized"
	case errors.Is(err, apperrors.ErrForbidden):
		code, message = http.StatusForbidden, "Forbidden"
	case errors.Is(err, apperrors.ErrNotFound):
		code, message = http.StatusNotFound, "Resource not found"
	case errors.Is(err, apperrors.ErrLedgerWriteFailed):
		if hasAppErr && appErr.Rejected {
			code = http.StatusBadRequest
		}
	}

	if hasAppErr && code < http.StatusInternalServerError {
		message = appErr.Message
	}

	return code, message
}
