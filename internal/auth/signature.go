package auth

import (
	"crypto/ecdsa"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"go.uber.org/zap"
)

// legacyRecoveryOffset is added to V by wallets that follow the pre-EIP-155
// convention (27/28 instead of 0/1).
const legacyRecoveryOffset = 27

// Verifier checks personal-sign (EIP-191) signatures. It holds no state
// besides its bypass flag and is safe for concurrent use.
type Verifier struct {
	bypass bool
	logger *zap.Logger
}

// NewVerifier builds a verifier. bypass accepts every signature and must only
// be enabled for a simulated ledger outside production.
func NewVerifier(bypass bool, logger *zap.Logger) *Verifier {
	if bypass {
		logger.Warn("signature verification bypass enabled")
	}
	return &Verifier{bypass: bypass, logger: logger}
}

// Verify reports whether signature over message recovers to claimedAddress.
// Empty inputs fail even when the bypass is on.
func (v *Verifier) Verify(message string, signature []byte, claimedAddress string) bool {
	if message == "" || len(signature) == 0 || claimedAddress == "" {
		return false
	}

	if v.bypass {
		v.logger.Warn("signature check skipped", zap.String("claimed_address", claimedAddress))
		return true
	}

	if !common.IsHexAddress(claimedAddress) {
		return false
	}
	if len(signature) != crypto.SignatureLength {
		return false
	}

	sig := make([]byte, crypto.SignatureLength)
	copy(sig, signature)
	if sig[crypto.RecoveryIDOffset] >= legacyRecoveryOffset {
		sig[crypto.RecoveryIDOffset] -= legacyRecoveryOffset
	}
	if sig[crypto.RecoveryIDOffset] > 1 {
		return false
	}

	pub, err := crypto.SigToPub(accounts.TextHash([]byte(message)), sig)
	if err != nil {
		v.logger.Debug("signature recovery failed", zap.Error(err))
		return false
	}

	recovered := crypto.PubkeyToAddress(*pub).Hex()
	return strings.EqualFold(recovered, claimedAddress)
}

// ParseSignature decodes a 0x-prefixed hex signature header.
func ParseSignature(s string) ([]byte, error) {
	sig, err := hexutil.Decode(strings.TrimSpace(s))
	if err != nil {
		return nil, fmt.Errorf(msgSignatureInvalidHex, err)
	}
	if len(sig) != crypto.SignatureLength {
		return nil, fmt.Errorf(msgSignatureLength, crypto.SignatureLength, len(sig))
	}
	return sig, nil
}

// SignMessage produces a wallet-style personal-sign signature (V in 27/28).
func SignMessage(key *ecdsa.PrivateKey, message string) ([]byte, error) {
	sig, err := crypto.Sign(accounts.TextHash([]byte(message)), key)
	if err != nil {
		return nil, err
	}
	sig[crypto.RecoveryIDOffset] += legacyRecoveryOffset
	return sig, nil
}
