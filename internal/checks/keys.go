package checks

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/tyler-smith/go-bip39"

	"github.com/roach88/migsmoke/internal/harness"
)

// MnemonicDerivation generates a 12-word BIP-39 mnemonic and derives its seed.
func MnemonicDerivation(context.Context) error {
	entropy, err := bip39.NewEntropy(128)
	if err != nil {
		return fmt.Errorf("generate entropy: %w", err)
	}

	mnemonic, err := bip39.NewMnemonic(entropy)
	if err != nil {
		return fmt.Errorf("encode mnemonic: %w", err)
	}
	if n := len(strings.Fields(mnemonic)); n != 12 {
		return fmt.Errorf("mnemonic has %d words, want 12", n)
	}
	if !bip39.IsMnemonicValid(mnemonic) {
		return errors.New("generated mnemonic failed validation")
	}

	if n := len(bip39.NewSeed(mnemonic, "")); n != 64 {
		return fmt.Errorf("seed is %d bytes, want 64", n)
	}
	return nil
}

// SolanaKeypair generates an ed25519 keypair and constructs an RPC client for rpcURL.
func SolanaKeypair(rpcURL string) harness.Procedure {
	return func(context.Context) error {
		key, err := solana.NewRandomPrivateKey()
		if err != nil {
			return fmt.Errorf("generate keypair: %w", err)
		}

		pub := key.PublicKey()
		if pub == (solana.PublicKey{}) {
			return errors.New("derived zero public key")
		}

		parsed, err := solana.PublicKeyFromBase58(pub.String())
		if err != nil {
			return fmt.Errorf("parse base58 public key: %w", err)
		}
		if parsed != pub {
			return fmt.Errorf("base58 round trip gave %s, want %s", parsed, pub)
		}

		if rpc.New(rpcURL) == nil {
			return fmt.Errorf("rpc client for %s is nil", rpcURL)
		}
		return nil
	}
}
