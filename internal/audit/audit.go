package audit

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
)

// ResourceType represents the type of resource being acted upon
type ResourceType string

const (
	ResourceTypeFile   ResourceType = "file"
	ResourceTypeFolder ResourceType = "folder"
)

// Action represents the action being performed
type Action string

const (
	ActionUpload   Action = "upload"
	ActionCreate   Action = "create"
	ActionDownload Action = "download"
	ActionView     Action = "view"
	ActionGateway  Action = "gateway"
)

// Status represents the outcome of an action
type Status string

const (
	StatusSuccess Status = "success"
	StatusFailure Status = "failure"
	StatusDenied  Status = "denied"
)

const recordTimeout = 2 * time.Second

// Event represents an audit event
type Event struct {
	ID           uuid.UUID
	EventType    string
	ActorAddress string
	ResourceType ResourceType
	ResourceID   string
	Action       Action
	Status       Status
	IPAddress    string
	UserAgent    string
	RequestID    string
	Metadata     map[string]any
	ErrorMessage string
	CreatedAt    time.Time
}

// Recorder accepts audit events without blocking the caller.
type Recorder interface {
	Record(ctx context.Context, event *Event)
}

// DB is the subset of *pgxpool.Pool the logger writes through.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Logger handles audit logging
type Logger struct {
	db     DB
	logger *zap.Logger
	wg     sync.WaitGroup
}

func NewLogger(db DB, logger *zap.Logger) *Logger {
	return &Logger{db: db, logger: logger}
}

// Log records an audit event synchronously
func (l *Logger) Log(ctx context.Context, event *Event) error {
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}
	if event.EventType == "" {
		event.EventType = string(event.Action) + "_" + string(event.ResourceType)
	}

	var metadataJSON []byte
	if event.Metadata != nil {
		var err error
		metadataJSON, err = json.Marshal(event.Metadata)
		if err != nil {
			return err
		}
	}

	query := `
		INSERT INTO audit_events (
			id, event_type, actor_address, resource_type, resource_id,
			action, status, ip_address, user_agent, request_id, metadata, error_message, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`

	_, err := l.db.Exec(ctx, query,
		event.ID,
		event.EventType,
		event.ActorAddress,
		event.ResourceType,
		event.ResourceID,
		event.Action,
		event.Status,
		event.IPAddress,
		event.UserAgent,
		event.RequestID,
		metadataJSON,
		event.ErrorMessage,
		event.CreatedAt,
	)

	return err
}

// Record logs the event in the background, filling request details from ctx.
// Failures are logged and never reach the caller.
func (l *Logger) Record(ctx context.Context, event *Event) {
	if meta, ok := RequestMetaFrom(ctx); ok {
		event.IPAddress = meta.IPAddress
		event.UserAgent = meta.UserAgent
		event.RequestID = meta.RequestID
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), recordTimeout)
	l.wg.Add(1)
	go func() {
		defer l.wg.Done()
		defer cancel()
		if err := l.Log(ctx, event); err != nil {
			l.logger.Warn("audit log failed",
				zap.String("event_type", event.EventType),
				zap.String("request_id", event.RequestID),
				zap.Error(err))
		}
	}()
}

// Wait blocks until background writes finish.
func (l *Logger) Wait() {
	l.wg.Wait()
}

// Nop discards events; used when no database is configured.
type Nop struct{}

func (Nop) Record(context.Context, *Event) {}

type RequestMeta struct {
	IPAddress string
	UserAgent string
	RequestID string
}

type requestMetaKey struct{}

func WithRequestMeta(ctx context.Context, meta RequestMeta) context.Context {
	return context.WithValue(ctx, requestMetaKey{}, meta)
}

func RequestMetaFrom(ctx context.Context) (RequestMeta, bool) {
	meta, ok := ctx.Value(requestMetaKey{}).(RequestMeta)
	return meta, ok
}
