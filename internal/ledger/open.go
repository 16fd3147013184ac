package ledger

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"secure-drive/internal/config"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"go.uber.org/zap"
)

var contractAddressRegex = regexp.MustCompile(`^0x[0-9a-fA-F]{40}$`)

// Dialer connects to a ledger node.
type Dialer func(ctx context.Context, rawURL string) (Backend, error)

// DialEthereum is the production Dialer.
func DialEthereum(ctx context.Context, rawURL string) (Backend, error) {
	return ethclient.DialContext(ctx, rawURL)
}

// Open selects the ledger mode once for the life of the process. Any problem
// reaching a deployed contract yields a Simulated ledger.
func Open(ctx context.Context, cfg config.LedgerConfig, dial Dialer, logger *zap.Logger) Ledger {
	simulated := func(reason string, err error) Ledger {
		fields := []zap.Field{zap.String("reason", reason)}
		if err != nil {
			fields = append(fields, zap.Error(err))
		}
		logger.Warn("ledger running in simulated mode, writes are not persisted", fields...)
		return NewSimulated(logger)
	}

	if !ValidContractAddress(cfg.ContractAddress) {
		return simulated("contract address not configured", nil)
	}
	address := common.HexToAddress(cfg.ContractAddress)

	backend, err := dial(ctx, cfg.RPCURL)
	if err != nil {
		return simulated("ledger node unreachable", err)
	}

	probeCtx, cancel := context.WithTimeout(ctx, cfg.ProbeTimeout)
	defer cancel()

	code, err := backend.CodeAt(probeCtx, address, nil)
	if err != nil {
		return simulated("ledger node unreachable", err)
	}
	if len(code) == 0 {
		return simulated("no contract deployed at address", nil)
	}

	transactor, err := newTransactor(probeCtx, backend, cfg.PrivateKey)
	if err != nil {
		logger.Error("ledger signer unavailable, writes will be rejected", zap.Error(err))
	}

	logger.Info("ledger connected",
		zap.String("rpc_url", cfg.RPCURL),
		zap.String("contract", address.Hex()),
		zap.Bool("can_write", transactor != nil))

	return NewLive(backend, address, transactor, LiveOptions{
		GasLimit:     cfg.GasLimit,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}, logger)
}

// ValidContractAddress rejects malformed and zero addresses.
func ValidContractAddress(s string) bool {
	if !contractAddressRegex.MatchString(s) {
		return false
	}
	return common.HexToAddress(s) != (common.Address{})
}

func newTransactor(ctx context.Context, backend Backend, hexKey string) (*bind.TransactOpts, error) {
	if hexKey == "" {
		return nil, fmt.Errorf("LEDGER_PRIVATE_KEY not set")
	}
	key, err := crypto.HexToECDSA(strings.TrimPrefix(hexKey, "0x"))
	if err != nil {
		return nil, fmt.Errorf("parse private key: %w", err)
	}
	chainID, err := backend.ChainID(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch chain id: %w", err)
	}
	return bind.NewKeyedTransactorWithChainID(key, chainID)
}
