package drive

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"secure-drive/internal/audit"
	"secure-drive/internal/domain/file"
	"secure-drive/internal/ledger"
	apperrors "secure-drive/pkg/errors"
	"secure-drive/pkg/metrics"
	"secure-drive/pkg/validator"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// Stage is a step of the upload state machine.
type Stage string

const (
	StageReceived         Stage = "received"
	StageSignatureChecked Stage = "signature_checked"
	StageContentStored    Stage = "content_stored"
	StageLedgerCommitted  Stage = "ledger_committed"
	StageDone             Stage = "done"
)

const (
	msgInvalidSignature = "invalid signature"
	msgMissingSignature = "signature and message headers are required"
)

type UploadInput struct {
	Data     []byte
	FileName string
	FileType string
	FolderID string
	Request  file.SignedRequest
}

type UploadResult struct {
	File    file.Descriptor `json:"file"`
	Receipt file.Receipt    `json:"transaction"`
}

type FolderInput struct {
	FolderName string
	Request    file.SignedRequest
}

type FolderResult struct {
	Folder  file.Folder  `json:"folder"`
	Receipt file.Receipt `json:"transaction"`
}

type PipelineDeps struct {
	Verifier      SignatureVerifier
	Store         ContentStore
	Ledger        ledger.Ledger
	Audit         audit.Recorder
	Metrics       *metrics.Metrics
	Tracer        trace.Tracer
	Logger        *zap.Logger
	MaxUploadSize int64
}

// Pipeline runs writes: signature check, content storage, ledger commit.
// A failed ledger commit leaves the stored blob in place.
type Pipeline struct {
	deps  PipelineDeps
	now   func() time.Time
	newID func() string
}

func NewPipeline(deps PipelineDeps) *Pipeline {
	return &Pipeline{
		deps:  deps,
		now:   time.Now,
		newID: func() string { return uuid.NewString() },
	}
}

func (p *Pipeline) Upload(ctx context.Context, in UploadInput) (*UploadResult, error) {
	ctx, span := p.deps.Tracer.Start(ctx, "drive.Upload")
	defer span.End()

	owner := in.Request.ClaimedAddress
	log := p.deps.Logger.With(zap.String("owner", owner), zap.String("file_name", in.FileName))
	stage := StageReceived

	fail := func(outcome string, err error) (*UploadResult, error) {
		span.RecordError(err)
		span.SetStatus(codes.Error, string(stage))
		p.deps.Metrics.Uploads.WithLabelValues(outcome).Inc()
		p.deps.Audit.Record(ctx, &audit.Event{
			ActorAddress: owner,
			ResourceType: audit.ResourceTypeFile,
			Action:       audit.ActionUpload,
			Status:       auditStatus(outcome),
			ErrorMessage: err.Error(),
			Metadata:     map[string]any{"stage": string(stage), "file_name": in.FileName},
		})
		log.Warn("upload failed", zap.String("stage", string(stage)), zap.Error(err))
		return nil, err
	}

	fileType, folderID, err := p.validateUpload(&in)
	if err != nil {
		return fail(metrics.OutcomeRejected, err)
	}

	if err := p.checkSignature(in.Request); err != nil {
		return fail(metrics.OutcomeRejected, err)
	}
	stage = StageSignatureChecked
	span.AddEvent(string(stage))

	contentID, err := p.deps.Store.Put(ctx, in.Data, in.FileName)
	if err != nil {
		return fail(metrics.OutcomeStoreFailed, err)
	}
	stage = StageContentStored
	span.AddEvent(string(stage), trace.WithAttributes(attribute.String("content_id", contentID)))

	descriptor := file.Descriptor{
		FileID:     p.newID(),
		ContentID:  contentID,
		FileName:   in.FileName,
		FileType:   fileType,
		FileSize:   int64(len(in.Data)),
		FolderID:   folderID,
		UploadTime: p.now().Unix(),
		Uploader:   owner,
	}

	receipt, err := p.deps.Ledger.WriteFile(ctx, descriptor)
	if err != nil {
		log.Warn("content stored but not recorded on ledger", zap.String("content_id", contentID))
		return fail(metrics.OutcomeLedgerError, err)
	}
	stage = StageLedgerCommitted
	span.AddEvent(string(stage), trace.WithAttributes(attribute.String("tx", receipt.TxHash)))

	stage = StageDone
	p.deps.Metrics.Uploads.WithLabelValues(metrics.OutcomeSuccess).Inc()
	p.deps.Audit.Record(ctx, &audit.Event{
		ActorAddress: owner,
		ResourceType: audit.ResourceTypeFile,
		ResourceID:   descriptor.FileID,
		Action:       audit.ActionUpload,
		Status:       audit.StatusSuccess,
		Metadata: map[string]any{
			"content_id": contentID,
			"size":       descriptor.FileSize,
			"tx":         receipt.TxHash,
			"tx_status":  receipt.Status,
		},
	})
	log.Info("file uploaded",
		zap.String("file_id", descriptor.FileID),
		zap.String("content_id", contentID),
		zap.String("tx", receipt.TxHash))

	return &UploadResult{File: descriptor, Receipt: receipt}, nil
}

func (p *Pipeline) CreateFolder(ctx context.Context, in FolderInput) (*FolderResult, error) {
	ctx, span := p.deps.Tracer.Start(ctx, "drive.CreateFolder")
	defer span.End()

	owner := in.Request.ClaimedAddress
	name := strings.TrimSpace(in.FolderName)

	fail := func(err error) (*FolderResult, error) {
		span.RecordError(err)
		span.SetStatus(codes.Error, "create folder")
		p.deps.Audit.Record(ctx, &audit.Event{
			ActorAddress: owner,
			ResourceType: audit.ResourceTypeFolder,
			Action:       audit.ActionCreate,
			Status:       audit.StatusFailure,
			ErrorMessage: err.Error(),
			Metadata:     map[string]any{"folder_name": name},
		})
		p.deps.Logger.Warn("folder creation failed", zap.String("owner", owner), zap.Error(err))
		return nil, err
	}

	if err := validator.FolderName(name); err != nil {
		return fail(apperrors.Validation(err.Error()))
	}
	if err := p.checkSignature(in.Request); err != nil {
		return fail(err)
	}

	folder := file.Folder{
		FolderID:    p.newID(),
		FolderName:  name,
		CreatedTime: p.now().Unix(),
		Creator:     owner,
	}

	receipt, err := p.deps.Ledger.WriteFolder(ctx, folder)
	if err != nil {
		return fail(err)
	}

	p.deps.Audit.Record(ctx, &audit.Event{
		ActorAddress: owner,
		ResourceType: audit.ResourceTypeFolder,
		ResourceID:   folder.FolderID,
		Action:       audit.ActionCreate,
		Status:       audit.StatusSuccess,
		Metadata:     map[string]any{"folder_name": name, "tx": receipt.TxHash},
	})
	p.deps.Logger.Info("folder created",
		zap.String("owner", owner),
		zap.String("folder_id", folder.FolderID),
		zap.String("tx", receipt.TxHash))

	return &FolderResult{Folder: folder, Receipt: receipt}, nil
}

// validateUpload normalises the request in place and returns the resolved
// MIME type and folder id.
func (p *Pipeline) validateUpload(in *UploadInput) (string, string, error) {
	if err := validator.FileName(in.FileName); err != nil {
		return "", "", apperrors.Validation(err.Error())
	}
	if err := validator.FileSize(int64(len(in.Data)), p.deps.MaxUploadSize); err != nil {
		return "", "", apperrors.Validation(err.Error())
	}

	folderID := strings.TrimSpace(in.FolderID)
	if folderID == "" {
		folderID = file.RootFolderID
	}
	if err := validator.FolderID(folderID); err != nil {
		return "", "", apperrors.Validation(err.Error())
	}

	fileType := strings.TrimSpace(in.FileType)
	if fileType == "" || validator.ContentType(fileType) != nil {
		fileType = http.DetectContentType(in.Data)
	}

	return fileType, folderID, nil
}

func (p *Pipeline) checkSignature(req file.SignedRequest) error {
	if req.Message == "" || len(req.Signature) == 0 {
		return apperrors.Validation(msgMissingSignature)
	}
	if !p.deps.Verifier.Verify(req.Message, req.Signature, req.ClaimedAddress) {
		return apperrors.Unauthorized(msgInvalidSignature)
	}
	return nil
}

func auditStatus(outcome string) audit.Status {
	if outcome == metrics.OutcomeRejected {
		return audit.StatusDenied
	}
	return audit.StatusFailure
}

// IsRejected reports whether err is a client-side rejection rather than a
// dependency failure.
func IsRejected(err error) bool {
	return errors.Is(err, apperrors.ErrValidation) || errors.Is(err, apperrors.ErrUnauthorized)
}
