package ledger

import (
	"context"
	"crypto/rand"

	"secure-drive/internal/domain/file"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"go.uber.org/zap"
)

const txHashLen = 32

// Simulated acknowledges every write with a synthetic receipt and keeps
// nothing. Reads always come back empty.
type Simulated struct {
	logger *zap.Logger
}

func NewSimulated(logger *zap.Logger) *Simulated {
	return &Simulated{logger: logger}
}

func (s *Simulated) Mode() Mode { return ModeSimulated }

func (s *Simulated) WriteFile(_ context.Context, d file.Descriptor) (file.Receipt, error) {
	s.logger.Info("simulating ledger upload",
		zap.String("file_id", d.FileID),
		zap.String("file_name", d.FileName),
		zap.String("uploader", d.Uploader))
	return syntheticReceipt(), nil
}

func (s *Simulated) WriteFolder(_ context.Context, f file.Folder) (file.Receipt, error) {
	s.logger.Info("simulating ledger folder creation",
		zap.String("folder_id", f.FolderID),
		zap.String("folder_name", f.FolderName),
		zap.String("creator", f.Creator))
	return syntheticReceipt(), nil
}

func (s *Simulated) FilesByOwner(context.Context, string) ([]file.Descriptor, error) {
	return []file.Descriptor{}, nil
}

func (s *Simulated) FoldersByOwner(context.Context, string) ([]file.Folder, error) {
	return []file.Folder{}, nil
}

func syntheticReceipt() file.Receipt {
	b := make([]byte, txHashLen)
	_, _ = rand.Read(b)
	return file.Receipt{
		TxHash: hexutil.Encode(b),
		Status: file.StatusDevelopmentMode,
	}
}
