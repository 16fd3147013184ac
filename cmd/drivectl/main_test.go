package main

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"secure-drive/internal/auth"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// Well-known development key (first account of the default local node).
const devKey = "0xac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"

func TestAddress(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, run([]string{"address", "--key", devKey}, &out))
	assert.Equal(t, "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266", strings.TrimSpace(out.String()))
}

func TestSignVerifies(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, run([]string{"sign", "--key", devKey, "--message", "Upload file: a.txt at 1"}, &out))

	sig, err := auth.ParseSignature(strings.TrimSpace(out.String()))
	require.NoError(t, err)

	key, err := crypto.HexToECDSA(strings.TrimPrefix(devKey, "0x"))
	require.NoError(t, err)
	address := crypto.PubkeyToAddress(key.PublicKey).Hex()

	assert.True(t, auth.NewVerifier(false, zap.NewNop()).Verify("Upload file: a.txt at 1", sig, address))
}

func TestToken(t *testing.T) {
	const secret = "k9#Tq2vX!m4Lp8Rz@w6Yb1Nc3Hf5Jd7Gs0"
	t.Setenv(envJWTSecret, secret)

	var out bytes.Buffer
	err := run([]string{"token", "--wallet", "0xf39fd6e51aad88f6f4ce6ab8827279cfffb92266", "--env-file", t.TempDir() + "/missing.env"}, &out)
	require.NoError(t, err)

	claims, err := auth.NewJWTService(secret, time.Hour).Verify(strings.TrimSpace(out.String()))
	require.NoError(t, err)
	assert.Equal(t, "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266", claims.WalletAddress)
}

func TestUsageErrors(t *testing.T) {
	var out bytes.Buffer
	assert.ErrorIs(t, run(nil, &out), errUsage)
	assert.ErrorIs(t, run([]string{"frobnicate"}, &out), errUsage)
	assert.Error(t, run([]string{"token", "--wallet", "nope"}, &out))
	assert.Error(t, run([]string{"sign", "--key", devKey}, &out))
	assert.Error(t, run([]string{"address", "--key", "zz"}, &out))
}
