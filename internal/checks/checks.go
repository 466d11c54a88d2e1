// Package checks holds the migration smoke checks and builds the default suite.
//
// Each check calls straight into a third-party library and verifies a literal
// result or the presence of an API. None of them needs a running node or
// server: RPC clients dial lazily, and the HTTP check talks to a loopback
// server it starts itself.
package checks

import (
	"github.com/roach88/migsmoke/internal/config"
	"github.com/roach88/migsmoke/internal/harness"
)

// Check names, in registration order.
const (
	NameModuleVersion   = "go-ethereum module version"
	NameClientInit      = "Ethereum client initialization"
	NameChecksumAddress = "Checksum address conversion"
	NameWeiConversion   = "Wei conversion"
	NameAccountCreation = "Account creation"
	NameTxSigning       = "Transaction signing"
	NameMethodSurface   = "Client method surface"
	NameMnemonic        = "Mnemonic derivation"
	NameSolana          = "Solana library import"
	NameCryptography    = "Cryptography library"
	NameDatabase        = "Database libraries"
	NameHTTP            = "HTTP libraries"
)

// Register adds the default migration suite to h.
func Register(h *harness.Harness, cfg *config.Config) {
	h.Register(NameModuleVersion, ModuleVersion(GethModulePath, cfg.Ethereum.MinVersion))
	h.Register(NameClientInit, ClientInit(cfg.Ethereum.RPCURL))
	h.Register(NameChecksumAddress, ChecksumAddress)
	h.Register(NameWeiConversion, WeiConversion)
	h.Register(NameAccountCreation, AccountCreation)
	h.Register(NameTxSigning, TransactionSigning(cfg.Ethereum.ChainID))
	h.Register(NameMethodSurface, MethodSurface)
	h.Register(NameMnemonic, MnemonicDerivation)
	h.Register(NameSolana, SolanaKeypair(cfg.Solana.RPCURL))
	h.Register(NameCryptography, Cryptography)
	h.Register(NameDatabase, DatabaseLibraries)
	h.Register(NameHTTP, HTTPLibraries(cfg.Redis.Addr))
}
