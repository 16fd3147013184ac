// drivectl is a developer helper for exercising the secure-drive API by hand.
//
//	drivectl token --wallet 0x...            mint a session token (needs JWT_SECRET)
//	drivectl sign --key <hex> --message "…"  produce the signature header
//	drivectl address --key <hex>             print the address of a key
package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"secure-drive/internal/auth"
	"secure-drive/pkg/validator"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
)

const envJWTSecret = "JWT_SECRET"

var errUsage = errors.New("usage: drivectl <token|sign|address> [flags]")

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, out io.Writer) error {
	if len(args) == 0 {
		return errUsage
	}

	switch args[0] {
	case "token":
		return runToken(args[1:], out)
	case "sign":
		return runSign(args[1:], out)
	case "address":
		return runAddress(args[1:], out)
	default:
		return fmt.Errorf("unknown command %q\n%w", args[0], errUsage)
	}
}

func runToken(args []string, out io.Writer) error {
	var wallet, userID, envFile string
	var expiry time.Duration

	flagSet := pflag.NewFlagSet("token", pflag.ContinueOnError)
	flagSet.StringVar(&wallet, "wallet", "", "wallet address the session is bound to")
	flagSet.StringVar(&userID, "user", "", "user id (random when empty)")
	flagSet.DurationVar(&expiry, "expiry", time.Hour, "token lifetime")
	flagSet.StringVar(&envFile, "env-file", ".env", "optional .env file providing JWT_SECRET")
	if err := flagSet.Parse(args); err != nil {
		return err
	}

	if err := validator.WalletAddress(wallet); err != nil {
		return err
	}

	_ = godotenv.Load(envFile)
	secret := os.Getenv(envJWTSecret)
	if secret == "" {
		return fmt.Errorf("%s is not set", envJWTSecret)
	}

	id := uuid.New()
	if userID != "" {
		parsed, err := uuid.Parse(userID)
		if err != nil {
			return fmt.Errorf("invalid user id: %w", err)
		}
		id = parsed
	}

	token, err := auth.NewJWTService(secret, expiry).Generate(id, common.HexToAddress(wallet).Hex())
	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(out, token)
	return err
}

func runSign(args []string, out io.Writer) error {
	var keyHex, message string

	flagSet := pflag.NewFlagSet("sign", pflag.ContinueOnError)
	flagSet.StringVar(&keyHex, "key", "", "hex private key")
	flagSet.StringVar(&message, "message", "", "message to sign")
	if err := flagSet.Parse(args); err != nil {
		return err
	}
	if message == "" {
		return errors.New("--message is required")
	}

	key, err := crypto.HexToECDSA(strings.TrimPrefix(keyHex, "0x"))
	if err != nil {
		return fmt.Errorf("invalid key: %w", err)
	}

	sig, err := auth.SignMessage(key, message)
	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(out, hexutil.Encode(sig))
	return err
}

func runAddress(args []string, out io.Writer) error {
	var keyHex string

	flagSet := pflag.NewFlagSet("address", pflag.ContinueOnError)
	flagSet.StringVar(&keyHex, "key", "", "hex private key")
	if err := flagSet.Parse(args); err != nil {
		return err
	}

	key, err := crypto.HexToECDSA(strings.TrimPrefix(keyHex, "0x"))
	if err != nil {
		return fmt.Errorf("invalid key: %w", err)
	}

	_, err = fmt.Fprintln(out, crypto.PubkeyToAddress(key.PublicKey).Hex())
	return err
}
