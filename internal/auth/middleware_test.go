package auth

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	apperrors "secure-drive/pkg/errors"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "k9#Tq2vX!m4Lp8Rz@w6Yb1Nc3Hf5Jd7Gs0"

func runRequireJWT(t *testing.T, authHeader string) (echo.Context, error) {
	t.Helper()

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/files/files", nil)
	if authHeader != "" {
		req.Header.Set(echo.HeaderAuthorization, authHeader)
	}
	c := e.NewContext(req, httptest.NewRecorder())

	mw := NewMiddleware(NewJWTService(testSecret, time.Hour))
	err := mw.RequireJWT()(func(c echo.Context) error { return nil })(c)
	return c, err
}

func TestRequireJWTSetsWallet(t *testing.T) {
	svc := NewJWTService(testSecret, time.Hour)
	userID := uuid.New()
	lower := "0xabcdefabcdefabcdefabcdefabcdefabcdefabcd"
	token, err := svc.Generate(userID, lower)
	require.NoError(t, err)

	c, err := runRequireJWT(t, "Bearer "+token)
	require.NoError(t, err)

	gotUser, err := GetUserID(c)
	require.NoError(t, err)
	assert.Equal(t, userID, gotUser)

	wallet, err := GetWalletAddress(c)
	require.NoError(t, err)
	assert.Equal(t, common.HexToAddress(lower).Hex(), wallet)
}

func TestRequireJWTRejects(t *testing.T) {
	other := NewJWTService("another-secret-with-enough-entropy-123!", time.Hour)
	foreign, err := other.Generate(uuid.New(), "")
	require.NoError(t, err)

	expired, err := NewJWTService(testSecret, -time.Minute).Generate(uuid.New(), "")
	require.NoError(t, err)

	for name, header := range map[string]string{
		"missing":        "",
		"wrong scheme":   "Basic abc",
		"garbage":        "Bearer not.a.jwt",
		"foreign secret": "Bearer " + foreign,
		"expired":        "Bearer " + expired,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := runRequireJWT(t, header)
			assert.True(t, errors.Is(err, apperrors.ErrUnauthorized))
		})
	}
}

func TestGetWalletAddressMissing(t *testing.T) {
	token, err := NewJWTService(testSecret, time.Hour).Generate(uuid.New(), "")
	require.NoError(t, err)

	c, err := runRequireJWT(t, "Bearer "+token)
	require.NoError(t, err)

	_, err = GetWalletAddress(c)
	assert.True(t, errors.Is(err, apperrors.ErrValidation))
}

func TestRequireJWTRejectsMalformedWallet(t *testing.T) {
	token, err := NewJWTService(testSecret, time.Hour).Generate(uuid.New(), "0x1234")
	require.NoError(t, err)

	_, err = runRequireJWT(t, "Bearer "+token)
	assert.True(t, errors.Is(err, apperrors.ErrUnauthorized))
}
