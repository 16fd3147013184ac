package drive

import (
	"context"
	"errors"
	"strings"

	"secure-drive/internal/audit"
	"secure-drive/internal/domain/file"
	"secure-drive/internal/ledger"
	apperrors "secure-drive/pkg/errors"
	"secure-drive/pkg/metrics"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const (
	msgNotOwned         = "access denied"
	msgMissingContentID = "content id is required"
)

type Retrieval struct {
	File file.Descriptor
	Data []byte
}

type GatewayInfo struct {
	GatewayURL    string `json:"gatewayUrl"`
	LocalGateway  string `json:"localGateway"`
	PublicGateway string `json:"publicGateway"`
	FileName      string `json:"fileName"`
	FileType      string `json:"fileType"`
}

type GateDeps struct {
	Store   ContentStore
	Ledger  ledger.Ledger
	Audit   audit.Recorder
	Metrics *metrics.Metrics
	Tracer  trace.Tracer
	Logger  *zap.Logger
}

// Gate authorizes reads against the requester's own ledger records before
// touching the content store.
type Gate struct {
	deps GateDeps
}

func NewGate(deps GateDeps) *Gate {
	return &Gate{deps: deps}
}

// Retrieve returns the bytes and descriptor for contentID when requester owns
// it. Ids outside the requester's file list are Forbidden whether or not the
// blob exists.
func (g *Gate) Retrieve(ctx context.Context, contentID, requester string, mode file.RetrievalMode) (*Retrieval, error) {
	ctx, span := g.deps.Tracer.Start(ctx, "drive.Retrieve", trace.WithAttributes(
		attribute.String("content_id", contentID),
		attribute.String("mode", string(mode)),
	))
	defer span.End()

	action := audit.ActionDownload
	if mode == file.ModeView {
		action = audit.ActionView
	}

	descriptor, err := g.authorize(ctx, contentID, requester)
	if err != nil {
		g.finish(ctx, span, mode, action, contentID, requester, err)
		return nil, err
	}

	data, err := g.deps.Store.Get(ctx, contentID)
	if err != nil {
		g.finish(ctx, span, mode, action, contentID, requester, err)
		return nil, err
	}

	g.finish(ctx, span, mode, action, contentID, requester, nil)
	return &Retrieval{File: descriptor, Data: data}, nil
}

// Gateway returns gateway URLs for an owned content id.
func (g *Gate) Gateway(ctx context.Context, contentID, requester string, usePublic bool) (*GatewayInfo, error) {
	ctx, span := g.deps.Tracer.Start(ctx, "drive.Gateway", trace.WithAttributes(attribute.String("content_id", contentID)))
	defer span.End()

	descriptor, err := g.authorize(ctx, contentID, requester)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "gateway")
		g.recordAccess(ctx, audit.ActionGateway, contentID, requester, err)
		return nil, err
	}

	local := g.deps.Store.GatewayURL(contentID, false)
	public := g.deps.Store.GatewayURL(contentID, true)
	info := &GatewayInfo{
		GatewayURL:    local,
		LocalGateway:  local,
		PublicGateway: public,
		FileName:      descriptor.FileName,
		FileType:      descriptor.FileType,
	}
	if usePublic {
		info.GatewayURL = public
	}

	g.recordAccess(ctx, audit.ActionGateway, contentID, requester, nil)
	return info, nil
}

// PublicURL is the public gateway address for contentID. No ownership check.
func (g *Gate) PublicURL(contentID string) string {
	return g.deps.Store.GatewayURL(contentID, true)
}

func (g *Gate) ListFiles(ctx context.Context, owner string) ([]file.Descriptor, error) {
	ctx, span := g.deps.Tracer.Start(ctx, "drive.ListFiles")
	defer span.End()
	return g.deps.Ledger.FilesByOwner(ctx, owner)
}

func (g *Gate) ListFolders(ctx context.Context, owner string) ([]file.Folder, error) {
	ctx, span := g.deps.Tracer.Start(ctx, "drive.ListFolders")
	defer span.End()
	return g.deps.Ledger.FoldersByOwner(ctx, owner)
}

func (g *Gate) ContentHealth(ctx context.Context) error {
	return g.deps.Store.Health(ctx)
}

func (g *Gate) LedgerMode() ledger.Mode {
	return g.deps.Ledger.Mode()
}

func (g *Gate) authorize(ctx context.Context, contentID, requester string) (file.Descriptor, error) {
	if strings.TrimSpace(contentID) == "" {
		return file.Descriptor{}, apperrors.Validation(msgMissingContentID)
	}

	files, err := g.deps.Ledger.FilesByOwner(ctx, requester)
	if err != nil {
		return file.Descriptor{}, err
	}

	for _, f := range files {
		if f.ContentID == contentID && strings.EqualFold(f.Uploader, requester) {
			return f, nil
		}
	}

	return file.Descriptor{}, apperrors.Forbidden(msgNotOwned)
}

func (g *Gate) finish(ctx context.Context, span trace.Span, mode file.RetrievalMode, action audit.Action, contentID, requester string, err error) {
	outcome := metrics.OutcomeSuccess
	switch {
	case err == nil:
	case errors.Is(err, apperrors.ErrForbidden):
		outcome = metrics.OutcomeForbidden
	case IsRejected(err):
		outcome = metrics.OutcomeRejected
	default:
		outcome = metrics.OutcomeStoreFailed
	}
	g.deps.Metrics.Retrievals.WithLabelValues(string(mode), outcome).Inc()

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, outcome)
		g.deps.Logger.Info("retrieval refused",
			zap.String("content_id", contentID),
			zap.String("requester", requester),
			zap.String("outcome", outcome),
			zap.Error(err))
	}
	g.recordAccess(ctx, action, contentID, requester, err)
}

func (g *Gate) recordAccess(ctx context.Context, action audit.Action, contentID, requester string, err error) {
	event := &audit.Event{
		ActorAddress: requester,
		ResourceType: audit.ResourceTypeFile,
		ResourceID:   contentID,
		Action:       action,
		Status:       audit.StatusSuccess,
	}
	if err != nil {
		event.Status = audit.StatusFailure
		if errors.Is(err, apperrors.ErrForbidden) {
			event.Status = audit.StatusDenied
		}
		event.ErrorMessage = err.Error()
	}
	g.deps.Audit.Record(ctx, event)
}
