package app

import (
	"context"
	"errors"
	stdhttp "net/http"

	"secure-drive/internal/config"
	httpserver "secure-drive/internal/http"
	"secure-drive/internal/ledger"
	"secure-drive/pkg/tracing"

	"go.uber.org/zap"
)

const serverAddrPrefix = ":"

// Service represents the secure drive application
type Service struct {
	config  *config.Config
	logger  *zap.Logger
	tracing *tracing.Provider
	ledger  ledger.Ledger
	server  *httpserver.Server
	closers []closer
}

// Start serves HTTP until Shutdown is called.
func (s *Service) Start() error {
	addr := serverAddrPrefix + s.config.Server.Port
	s.logger.Info("starting HTTP server", zap.String("addr", addr))

	if err := s.server.Start(addr); err != nil && !errors.Is(err, stdhttp.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests, then releases backends, the audit
// pool and the tracer.
func (s *Service) Shutdown(ctx context.Context) error {
	err := s.server.Shutdown(ctx)
	s.release(ctx)
	return err
}

func (s *Service) LedgerMode() ledger.Mode {
	return s.ledger.Mode()
}

// Handler exposes the HTTP router.
func (s *Service) Handler() stdhttp.Handler {
	return s.server.Handler()
}

func (s *Service) release(ctx context.Context) {
	for i := len(s.closers) - 1; i >= 0; i-- {
		c := s.closers[i]
		if err := c.fn(ctx); err != nil {
			s.logger.Error("failed to close resource", zap.String("resource", c.name), zap.Error(err))
		}
	}
	s.closers = nil

	if s.tracing != nil {
		s.tracing.Shutdown(ctx)
		s.tracing = nil
	}
}
