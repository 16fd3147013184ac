package app

import (
	"context"
	"errors"
	"fmt"
	stdhttp "net/http"

	"secure-drive/internal/audit"
	"secure-drive/internal/auth"
	"secure-drive/internal/config"
	"secure-drive/internal/content"
	"secure-drive/internal/drive"
	httpserver "secure-drive/internal/http"
	"secure-drive/internal/ledger"
	boltstore "secure-drive/internal/storage/bolt"
	"secure-drive/internal/storage/ipfs"
	s3store "secure-drive/internal/storage/s3"
	"secure-drive/pkg/metrics"
	"secure-drive/pkg/tracing"

	"go.uber.org/zap"
)

var errSimulatedLedgerInProduction = errors.New("ledger is not reachable and simulated mode is not allowed in production")

// InitializeService wires up all dependencies and returns a configured Service
func InitializeService(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Service, error) {
	return initialize(ctx, cfg, logger, ledger.DialEthereum)
}

func initialize(ctx context.Context, cfg *config.Config, logger *zap.Logger, dial ledger.Dialer) (svc *Service, err error) {
	s := &Service{config: cfg, logger: logger}
	defer func() {
		if err != nil {
			s.release(context.Background())
		}
	}()

	provider, err := tracing.Init(cfg.Observability.TracingEnabled, logger.Named("tracing"))
	if err != nil {
		return nil, fmt.Errorf("failed to init tracing: %w", err)
	}
	s.tracing = provider

	m := metrics.New()

	handle, err := openBackend(cfg, logger.Named("storage"))
	if err != nil {
		return nil, err
	}
	if handle.close != nil {
		s.closers = append(s.closers, closer{name: "content backend", fn: handle.close})
	}

	store := content.NewStore(handle.backend, content.Options{
		Fallback:      !cfg.App.Production(),
		Timeout:       cfg.Content.Timeout,
		LocalGateway:  cfg.Content.IPFS.LocalGateway,
		PublicGateway: cfg.Content.IPFS.PublicGateway,
		OnFallback:    m.ContentFallbacks.Inc,
	}, logger.Named("content"))

	led := ledger.Open(ctx, cfg.Ledger, dial, logger.Named("ledger"))
	simulated := led.Mode() == ledger.ModeSimulated
	if simulated {
		if cfg.App.Production() {
			return nil, errSimulatedLedgerInProduction
		}
		m.LedgerSimulated.Set(1)
	}

	recorder, err := s.openAudit(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}

	tracer := provider.Tracer()
	verifier := auth.NewVerifier(simulated && !cfg.App.Production(), logger.Named("auth"))

	pipeline := drive.NewPipeline(drive.PipelineDeps{
		Verifier:      verifier,
		Store:         store,
		Ledger:        led,
		Audit:         recorder,
		Metrics:       m,
		Tracer:        tracer,
		Logger:        logger.Named("pipeline"),
		MaxUploadSize: cfg.App.MaxUploadSize,
	})
	gate := drive.NewGate(drive.GateDeps{
		Store:   store,
		Ledger:  led,
		Audit:   recorder,
		Metrics: m,
		Tracer:  tracer,
		Logger:  logger.Named("gate"),
	})

	s.ledger = led
	s.server = httpserver.NewServer(&httpserver.ServerDependencies{
		Config:     cfg,
		Logger:     logger.Named("http"),
		Metrics:    m,
		JWTService: auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.ExpiryDuration),
		Uploader:   pipeline,
		Retriever:  gate,
		Ledger:     gate,
	})

	logger.Info("service initialized",
		zap.String("environment", cfg.App.Environment),
		zap.String("content_backend", cfg.Content.Backend),
		zap.String("ledger_mode", string(led.Mode())),
		zap.Bool("audit", cfg.Database.Enabled()),
		zap.Bool("tracing", cfg.Observability.TracingEnabled))

	return s, nil
}

func openBackend(cfg *config.Config, logger *zap.Logger) (backendHandle, error) {
	switch cfg.Content.Backend {
	case config.BackendBolt:
		store, err := boltstore.Open(cfg.Content.Bolt.Path)
		if err != nil {
			return backendHandle{}, err
		}
		return backendHandle{
			backend: store,
			close:   func(context.Context) error { return store.Close() },
		}, nil

	case config.BackendS3:
		client, err := s3store.NewClient(cfg.Content.S3)
		if err != nil {
			return backendHandle{}, err
		}
		return backendHandle{backend: client}, nil

	default:
		httpClient := &stdhttp.Client{Timeout: cfg.Content.Timeout}
		return backendHandle{
			backend: ipfs.NewClient(cfg.Content.IPFS.APIURL, cfg.Content.IPFS.MFSDir, httpClient, logger),
		}, nil
	}
}

// openAudit returns the audit recorder. Without DATABASE_URL audit events
// are dropped.
func (s *Service) openAudit(ctx context.Context, cfg config.DatabaseConfig) (audit.Recorder, error) {
	if !cfg.Enabled() {
		return audit.Nop{}, nil
	}

	if err := audit.Migrate(ctx, cfg.URL); err != nil {
		return nil, err
	}

	pool, err := audit.NewPool(ctx, cfg)
	if err != nil {
		return nil, err
	}

	auditLogger := audit.NewLogger(pool, s.logger.Named("audit"))
	s.closers = append(s.closers, closer{name: "audit", fn: func(context.Context) error {
		auditLogger.Wait()
		pool.Close()
		return nil
	}})

	return auditLogger, nil
}
