// Package ledger records file and folder metadata in an append-only store
// keyed by owner address. Live mode talks to a deployed contract over
// JSON-RPC; Simulated mode acknowledges writes without persisting them.
package ledger

import (
	"context"

	"secure-drive/internal/domain/file"
)

type Mode string

const (
	ModeLive      Mode = "live"
	ModeSimulated Mode = "simulated"
)

type Ledger interface {
	WriteFile(ctx context.Context, d file.Descriptor) (file.Receipt, error)
	WriteFolder(ctx context.Context, f file.Folder) (file.Receipt, error)
	FilesByOwner(ctx context.Context, owner string) ([]file.Descriptor, error)
	FoldersByOwner(ctx context.Context, owner string) ([]file.Folder, error)
	Mode() Mode
}
