package auth

import (
	"strings"

	apperrors "secure-drive/pkg/errors"
	"secure-drive/pkg/validator"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

type Middleware struct {
	jwtService *JWTService
}

func NewMiddleware(jwtService *JWTService) *Middleware {
	return &Middleware{jwtService: jwtService}
}

func (m *Middleware) RequireJWT() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token := extractBearerToken(c)
			if token == "" {
				return apperrors.Unauthorized(msgMissingAuthorization)
			}

			claims, err := m.jwtService.Verify(token)
			if err != nil {
				return apperrors.Unauthorized(msgInvalidOrExpiredToken)
			}

			c.Set(ContextKeyUserID, claims.UserID)
			if claims.WalletAddress != "" {
				if validator.WalletAddress(claims.WalletAddress) != nil {
					return apperrors.Unauthorized(msgInvalidWalletAddress)
				}
				c.Set(ContextKeyWalletAddress, common.HexToAddress(claims.WalletAddress).Hex())
			}

			return next(c)
		}
	}
}

func extractBearerToken(c echo.Context) string {
	authHeader := c.Request().Header.Get(headerAuthorization)
	if authHeader == "" {
		return ""
	}

	parts := strings.Fields(authHeader)
	if len(parts) != authHeaderParts || strings.ToLower(parts[0]) != bearerScheme {
		return ""
	}

	return parts[1]
}

func GetUserID(c echo.Context) (uuid.UUID, error) {
	userID := c.Get(ContextKeyUserID)
	if userID == nil {
		return uuid.Nil, apperrors.Unauthorized(msgUserNotAuthenticated)
	}

	id, ok := userID.(uuid.UUID)
	if !ok {
		return uuid.Nil, apperrors.InternalServer("invalid user ID in context", nil)
	}

	return id, nil
}

// GetWalletAddress returns the checksummed owner address of the session.
// A session without one is a client error, not an auth failure.
func GetWalletAddress(c echo.Context) (string, error) {
	address, ok := c.Get(ContextKeyWalletAddress).(string)
	if !ok || address == "" {
		return "", apperrors.Validation(msgWalletNotFound)
	}
	return address, nil
}
