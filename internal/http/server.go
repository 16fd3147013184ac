package http

import (
	"context"
	stdhttp "net/http"
	"strconv"

	"secure-drive/internal/auth"
	"secure-drive/internal/config"
	"secure-drive/internal/http/handler"
	"secure-drive/internal/http/middleware"
	"secure-drive/pkg/metrics"
	"secure-drive/pkg/profiling"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
)

const (
	jsonKeyStatus     = "status"
	jsonKeyLedgerMode = "ledgerMode"
	statusOK          = "ok"

	// multipart framing on top of the file itself
	multipartOverhead = 1 << 20

	globalRatePerSecond = 50
	globalRateBurst     = 100
	writeRatePerSecond  = 2
	writeRateBurst      = 10
)

type ServerDependencies struct {
	Config     *config.Config
	Logger     *zap.Logger
	Metrics    *metrics.Metrics
	JWTService *auth.JWTService
	Uploader   handler.Uploader
	Retriever  handler.Retriever
	Ledger     handler.LedgerModer
}

type Server struct {
	echo *echo.Echo
	deps *ServerDependencies
}

func NewServer(deps *ServerDependencies) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.HTTPErrorHandler = NewHTTPErrorHandler(deps.Logger)

	e.Server.ReadTimeout = deps.Config.Server.ReadTimeout
	e.Server.WriteTimeout = deps.Config.Server.WriteTimeout

	// Request ID first so every log line carries it.
	e.Use(middleware.RequestID())
	e.Use(middleware.SecurityHeaders())
	e.Use(middleware.RequestLogger(deps.Logger))
	e.Use(deps.Metrics.Middleware())
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins:  deps.Config.Server.CORSOrigins,
		AllowMethods:  []string{stdhttp.MethodGet, stdhttp.MethodPost, stdhttp.MethodOptions},
		AllowHeaders:  []string{echo.HeaderContentType, echo.HeaderAuthorization, "signature", "message", echo.HeaderXRequestedWith},
		ExposeHeaders: []string{echo.HeaderContentDisposition, echo.HeaderXRequestID},
	}))
	e.Use(echomiddleware.BodyLimit(strconv.FormatInt(deps.Config.App.MaxUploadSize+multipartOverhead, 10) + "B"))
	e.Use(middleware.AuditMeta())
	e.Use(middleware.NewRateLimiter(globalRatePerSecond, globalRateBurst).Middleware())

	authMiddleware := auth.NewMiddleware(deps.JWTService)
	writeLimiter := middleware.NewRateLimiter(writeRatePerSecond, writeRateBurst)
	fileHandler := handler.NewFileHandler(deps.Uploader, deps.Retriever)

	e.GET("/health", healthCheck(deps.Ledger))
	e.GET("/metrics", echo.WrapHandler(deps.Metrics.Handler()))
	if deps.Config.Observability.ProfilingEnabled {
		profiling.Register(e)
	}

	files := e.Group("/files")
	files.GET("/ipfs-health", fileHandler.ContentHealth)

	authed := files.Group("")
	authed.Use(authMiddleware.RequireJWT())

	authed.POST("/upload", fileHandler.Upload, writeLimiter.Middleware())
	authed.POST("/folder", fileHandler.CreateFolder, writeLimiter.Middleware())
	authed.GET("/files", fileHandler.ListFiles)
	authed.GET("/folders", fileHandler.ListFolders)
	authed.GET("/download/:contentId", fileHandler.Download)
	authed.GET("/view/:contentId", fileHandler.View)
	authed.GET("/gateway/:contentId", fileHandler.Gateway)

	return &Server{
		echo: e,
		deps: deps,
	}
}

func (s *Server) Start(address string) error {
	return s.echo.Start(address)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

// Handler exposes the router for in-process use.
func (s *Server) Handler() stdhttp.Handler {
	return s.echo
}

func healthCheck(ledger handler.LedgerModer) echo.HandlerFunc {
	return func(c echo.Context) error {
		return c.JSON(stdhttp.StatusOK, map[string]string{
			jsonKeyStatus:     statusOK,
			jsonKeyLedgerMode: string(ledger.LedgerMode()),
		})
	}
}
