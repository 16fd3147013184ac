package content

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	apperrors "secure-drive/pkg/errors"

	"go.uber.org/zap"
)

const (
	placeholderPrefix    = "dev-"
	placeholderSuffixLen = 9
	placeholderAlphabet  = "0123456789abcdefghijklmnopqrstuvwxyz"

	// StandInPayload is returned for every placeholder id.
	StandInPayload = "Development mode: File content not available (IPFS not running)"

	msgStoreUnavailable = "content store unavailable"
	msgInvalidContentID = "invalid content id"
	msgContentNotFound  = "content not found"
)

// Backend is a content-addressed blob store. Add must return the same id for
// the same bytes. Cat returns an error wrapping apperrors.ErrNotFound when the
// id is unknown.
type Backend interface {
	Add(ctx context.Context, data []byte, name string) (string, error)
	Cat(ctx context.Context, id string) ([]byte, error)
	Ping(ctx context.Context) error
}

type Options struct {
	// Fallback enables placeholder ids when the backend is down. Never set
	// in production.
	Fallback      bool
	Timeout       time.Duration
	LocalGateway  string
	PublicGateway string
	// OnFallback is called once per placeholder handed out.
	OnFallback func()
}

// Store wraps a Backend with timeouts, the development fallback and gateway
// URL construction.
type Store struct {
	backend Backend
	opts    Options
	logger  *zap.Logger
	now     func() time.Time

	// placeholder id -> original file name
	names sync.Map
}

func NewStore(backend Backend, opts Options, logger *zap.Logger) *Store {
	return &Store{
		backend: backend,
		opts:    opts,
		logger:  logger,
		now:     time.Now,
	}
}

// Put stores data and returns its content id. When the backend fails and the
// fallback is enabled, a placeholder id is returned instead.
func (s *Store) Put(ctx context.Context, data []byte, name string) (string, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	id, err := s.backend.Add(ctx, data, name)
	if err == nil {
		return id, nil
	}

	if !s.opts.Fallback {
		return "", apperrors.DependencyUnavailable(msgStoreUnavailable, err)
	}

	id = s.newPlaceholder()
	s.names.Store(id, name)
	s.logger.Warn("content store unavailable, using placeholder id",
		zap.String("placeholder", id),
		zap.String("file_name", name),
		zap.Error(err))
	if s.opts.OnFallback != nil {
		s.opts.OnFallback()
	}

	return id, nil
}

// Get returns the bytes for id. Placeholders never reach the backend.
func (s *Store) Get(ctx context.Context, id string) ([]byte, error) {
	if IsPlaceholder(id) {
		return []byte(StandInPayload), nil
	}
	if !ValidID(id) {
		return nil, apperrors.Validation(msgInvalidContentID)
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	data, err := s.backend.Cat(ctx, id)
	switch {
	case err == nil:
		return data, nil
	case errors.Is(err, apperrors.ErrNotFound):
		return nil, apperrors.NotFound(msgContentNotFound)
	default:
		return nil, apperrors.DependencyUnavailable(msgStoreUnavailable, err)
	}
}

// Health probes the backend.
func (s *Store) Health(ctx context.Context) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	return s.backend.Ping(ctx)
}

// GatewayURL builds the HTTP gateway address for id.
func (s *Store) GatewayURL(id string, public bool) string {
	base := s.opts.LocalGateway
	if public {
		base = s.opts.PublicGateway
	}
	return strings.TrimRight(base, "/") + "/" + id
}

// PlaceholderName returns the file name recorded when id was handed out.
func (s *Store) PlaceholderName(id string) (string, bool) {
	v, ok := s.names.Load(id)
	if !ok {
		return "", false
	}
	return v.(string), true
}

// IsPlaceholder reports whether id was synthesized by the fallback.
func IsPlaceholder(id string) bool {
	return strings.HasPrefix(id, placeholderPrefix)
}

func (s *Store) newPlaceholder() string {
	var b strings.Builder
	for range placeholderSuffixLen {
		b.WriteByte(placeholderAlphabet[rand.IntN(len(placeholderAlphabet))])
	}
	return fmt.Sprintf("%s%d-%s", placeholderPrefix, s.now().UnixMilli(), b.String())
}

func (s *Store) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.opts.Timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.opts.Timeout)
}
