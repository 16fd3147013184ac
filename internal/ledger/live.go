package ledger

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"secure-drive/internal/domain/file"
	apperrors "secure-drive/pkg/errors"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/rpc"
	"go.uber.org/zap"
)

const (
	msgNoSigner         = "no signing key configured"
	msgTxReverted       = "transaction reverted"
	errPackCallFmt      = "pack %s: %w"
	errCallFmt          = "call %s: %w"
	errUnpackFmt        = "unpack %s: %w"
	errDecodeRecordsFmt = "decode %s: %w"
)

// Backend is the subset of an Ethereum client the live ledger needs.
// *ethclient.Client satisfies it.
type Backend interface {
	bind.ContractBackend
	bind.DeployBackend
	ChainID(ctx context.Context) (*big.Int, error)
}

type LiveOptions struct {
	GasLimit     uint64
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// Live reads and writes the registry contract. A nil transactor makes every
// write fail with a ledger rejection.
type Live struct {
	backend    Backend
	address    common.Address
	contract   *bind.BoundContract
	transactor *bind.TransactOpts
	opts       LiveOptions
	logger     *zap.Logger
}

func NewLive(backend Backend, address common.Address, transactor *bind.TransactOpts, opts LiveOptions, logger *zap.Logger) *Live {
	return &Live{
		backend:    backend,
		address:    address,
		contract:   bind.NewBoundContract(address, contractABI, backend, backend, backend),
		transactor: transactor,
		opts:       opts,
		logger:     logger,
	}
}

func (l *Live) Mode() Mode { return ModeLive }

func (l *Live) WriteFile(ctx context.Context, d file.Descriptor) (file.Receipt, error) {
	return l.transact(ctx, methodUploadFile,
		common.HexToAddress(d.Uploader),
		d.FileID,
		d.ContentID,
		d.FileName,
		d.FileType,
		big.NewInt(d.FileSize),
		d.FolderID,
	)
}

func (l *Live) WriteFolder(ctx context.Context, f file.Folder) (file.Receipt, error) {
	return l.transact(ctx, methodCreateFolder,
		common.HexToAddress(f.Creator),
		f.FolderID,
		f.FolderName,
	)
}

// transact sends a write and waits for it to be mined. The wait is detached
// from the caller's cancellation so a client disconnect cannot abandon a
// transaction that is already in flight.
func (l *Live) transact(ctx context.Context, method string, args ...any) (file.Receipt, error) {
	if l.transactor == nil {
		return file.Receipt{}, apperrors.LedgerRejected(msgNoSigner, nil)
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), l.opts.WriteTimeout)
	defer cancel()

	opts := *l.transactor
	opts.Context = ctx
	opts.GasLimit = l.opts.GasLimit

	tx, err := l.contract.Transact(&opts, method, args...)
	if err != nil {
		l.logger.Error("ledger transaction failed to send", zap.String("method", method), zap.Error(err))
		return file.Receipt{}, classifySendError(err)
	}

	receipt, err := bind.WaitMined(ctx, l.backend, tx)
	if err != nil {
		l.logger.Error("ledger transaction not mined",
			zap.String("method", method),
			zap.String("tx", tx.Hash().Hex()),
			zap.Error(err))
		return file.Receipt{}, apperrors.LedgerUnreachable(err)
	}

	if receipt.Status != types.ReceiptStatusSuccessful {
		l.logger.Warn("ledger transaction reverted",
			zap.String("method", method),
			zap.String("tx", tx.Hash().Hex()))
		return file.Receipt{}, apperrors.LedgerRejected(msgTxReverted, fmt.Errorf("tx %s", tx.Hash().Hex()))
	}

	l.logger.Info("ledger transaction confirmed",
		zap.String("method", method),
		zap.String("tx", tx.Hash().Hex()),
		zap.Uint64("block", receipt.BlockNumber.Uint64()))

	return file.Receipt{
		TxHash:      tx.Hash().Hex(),
		Status:      file.StatusConfirmed,
		BlockNumber: receipt.BlockNumber.Uint64(),
		GasUsed:     receipt.GasUsed,
	}, nil
}

// classifySendError separates errors reported by the node (the node saw the
// transaction and refused it) from transport failures.
func classifySendError(err error) error {
	var rpcErr rpc.Error
	if errors.As(err, &rpcErr) {
		return apperrors.LedgerRejected(rpcErr.Error(), err)
	}
	msg := strings.ToLower(err.Error())
	for _, reason := range []string{"insufficient funds", "execution reverted", "nonce too low", "intrinsic gas too low"} {
		if strings.Contains(msg, reason) {
			return apperrors.LedgerRejected(reason, err)
		}
	}
	return apperrors.LedgerUnreachable(err)
}

func (l *Live) FilesByOwner(ctx context.Context, owner string) ([]file.Descriptor, error) {
	var raw []fileTuple
	if err := l.call(ctx, methodGetUserFiles, &raw, common.HexToAddress(owner)); err != nil {
		return nil, err
	}

	out := make([]file.Descriptor, 0, len(raw))
	for _, t := range raw {
		d, err := decodeFileRecord(t)
		if err != nil {
			return nil, apperrors.DependencyUnavailable("ledger returned malformed record", fmt.Errorf(errDecodeRecordsFmt, methodGetUserFiles, err))
		}
		if !strings.EqualFold(d.Uploader, owner) {
			l.logger.Warn("ledger returned record of another owner", zap.String("file_id", d.FileID))
			continue
		}
		out = append(out, d)
	}
	return out, nil
}

func (l *Live) FoldersByOwner(ctx context.Context, owner string) ([]file.Folder, error) {
	var raw []folderTuple
	if err := l.call(ctx, methodGetUserFolders, &raw, common.HexToAddress(owner)); err != nil {
		return nil, err
	}

	out := make([]file.Folder, 0, len(raw))
	for _, t := range raw {
		f, err := decodeFolderRecord(t)
		if err != nil {
			return nil, apperrors.DependencyUnavailable("ledger returned malformed record", fmt.Errorf(errDecodeRecordsFmt, methodGetUserFolders, err))
		}
		if !strings.EqualFold(f.Creator, owner) {
			l.logger.Warn("ledger returned folder of another owner", zap.String("folder_id", f.FolderID))
			continue
		}
		out = append(out, f)
	}
	return out, nil
}

func (l *Live) call(ctx context.Context, method string, out any, args ...any) error {
	input, err := contractABI.Pack(method, args...)
	if err != nil {
		return apperrors.InternalServer("ledger call", fmt.Errorf(errPackCallFmt, method, err))
	}

	ctx, cancel := context.WithTimeout(ctx, l.opts.ReadTimeout)
	defer cancel()

	data, err := l.backend.CallContract(ctx, ethereum.CallMsg{To: &l.address, Data: input}, nil)
	if err != nil {
		return apperrors.DependencyUnavailable("ledger unreachable", fmt.Errorf(errCallFmt, method, err))
	}

	if err := contractABI.UnpackIntoInterface(out, method, data); err != nil {
		return apperrors.DependencyUnavailable("ledger returned malformed data", fmt.Errorf(errUnpackFmt, method, err))
	}
	return nil
}
