package middleware

import (
	"time"

	"secure-drive/internal/audit"
	"secure-drive/internal/auth"
	"secure-drive/pkg/logger"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// RequestLogger logs one line per request. Sensitive headers are redacted.
func RequestLogger(log *zap.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			err := next(c)
			if err != nil {
				c.Error(err)
			}

			req := c.Request()
			fields := []zap.Field{
				zap.String("request_id", GetRequestID(c)),
				zap.String("method", req.Method),
				zap.String("path", req.URL.Path),
				zap.Int("status", c.Response().Status),
				zap.Int64("bytes_out", c.Response().Size),
				zap.Duration("latency", time.Since(start)),
				zap.String("remote_ip", c.RealIP()),
			}
			if wallet, werr := auth.GetWalletAddress(c); werr == nil {
				fields = append(fields, zap.String("wallet", wallet))
			}
			if ce := log.Check(zap.DebugLevel, "request headers"); ce != nil {
				ce.Write(zap.Any("headers", logger.SanitizeHeaders(req.Header)))
			}

			log.Info("request", fields...)
			return nil
		}
	}
}

// AuditMeta attaches request metadata to the request context for the audit
// trail.
func AuditMeta() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			ctx := audit.WithRequestMeta(req.Context(), audit.RequestMeta{
				RequestID: GetRequestID(c),
				IPAddress: c.RealIP(),
				UserAgent: req.UserAgent(),
			})
			c.SetRequest(req.WithContext(ctx))
			return next(c)
		}
	}
}
