package handler

import (
	"github.com/labstack/echo/v4"
)

const (
	jsonKeyStatus    = "status"
	jsonKeyData      = "data"
	jsonKeyError     = "error"
	jsonKeyRequestID = "request_id"

	statusSuccess = "success"
	statusFail    = "fail"
)

func respondSuccess(c echo.Context, status int, data any) error {
	return c.JSON(status, map[string]any{
		jsonKeyStatus: statusSuccess,
		jsonKeyData:   data,
	})
}

// respondFail writes the failure envelope with extra fields merged in.
func respondFail(c echo.Context, status int, message string, extra map[string]any) error {
	body := map[string]any{
		jsonKeyStatus:    statusFail,
		jsonKeyError:     message,
		jsonKeyRequestID: c.Response().Header().Get(echo.HeaderXRequestID),
	}
	for k, v := range extra {
		body[k] = v
	}
	return c.JSON(status, body)
}
