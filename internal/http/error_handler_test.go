package http

import (
	"encoding/json"
	"errors"
	stdhttp "net/http"
	"net/http/httptest"
	"testing"

	apperrors "secure-drive/pkg/errors"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestHTTPErrorHandler(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		code    int
		message string
	}{
		{"validation", apperrors.Validation("folder name is required"), stdhttp.StatusBadRequest, "folder name is required"},
		{"unauthorized", apperrors.Unauthorized("invalid signature"), stdhttp.StatusUnauthorized, "invalid signature"},
		{"forbidden", apperrors.Forbidden("access denied"), stdhttp.StatusForbidden, "access denied"},
		{"not found", apperrors.NotFound("content not found"), stdhttp.StatusNotFound, "content not found"},
		{"dependency", apperrors.DependencyUnavailable("content store unavailable", errors.New("dial tcp")), stdhttp.StatusInternalServerError, msgInternalServerError},
		{"ledger rejected", apperrors.LedgerRejected("insufficient funds", errors.New("rpc")), stdhttp.StatusBadRequest, "ledger write failed: insufficient funds"},
		{"ledger unreachable", apperrors.LedgerUnreachable(errors.New("eof")), stdhttp.StatusInternalServerError, msgInternalServerError},
		{"echo error", echo.NewHTTPError(stdhttp.StatusRequestEntityTooLarge, "Request Entity Too Large"), stdhttp.StatusRequestEntityTooLarge, "Request Entity Too Large"},
		{"plain", errors.New("boom"), stdhttp.StatusInternalServerError, msgInternalServerError},
	}

	h := NewHTTPErrorHandler(zap.NewNop())
	e := echo.New()

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(stdhttp.MethodGet, "/", nil)
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)
			c.Response().Header().Set(echo.HeaderXRequestID, "rid")

			h(tt.err, c)

			assert.Equal(t, tt.code, rec.Code)
			var body map[string]string
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, "fail", body["status"])
			assert.Equal(t, tt.message, body["error"])
			assert.Equal(t, "rid", body["request_id"])
		})
	}
}
