package handler

import (
	"context"

	"secure-drive/internal/domain/file"
	"secure-drive/internal/drive"
	"secure-drive/internal/ledger"
)

// Consumer-side interfaces defined by handlers

type Uploader interface {
	Upload(ctx context.Context, in drive.UploadInput) (*drive.UploadResult, error)
	CreateFolder(ctx context.Context, in drive.FolderInput) (*drive.FolderResult, error)
}

type Retriever interface {
	Retrieve(ctx context.Context, contentID, requester string, mode file.RetrievalMode) (*drive.Retrieval, error)
	Gateway(ctx context.Context, contentID, requester string, usePublic bool) (*drive.GatewayInfo, error)
	PublicURL(contentID string) string
	ListFiles(ctx context.Context, owner string) ([]file.Descriptor, error)
	ListFolders(ctx context.Context, owner string) ([]file.Folder, error)
	ContentHealth(ctx context.Context) error
}

type LedgerModer interface {
	LedgerMode() ledger.Mode
}
