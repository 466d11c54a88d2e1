package checks

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"reflect"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/params"
	"github.com/holiman/uint256"

	"github.com/roach88/migsmoke/internal/harness"
)

// ChecksumFixture is an EIP-55 mixed-case address.
const ChecksumFixture = "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed"

// ClientInit dials rpcURL. HTTP dials are lazy, so no node has to be listening.
func ClientInit(rpcURL string) harness.Procedure {
	return func(ctx context.Context) error {
		client, err := ethclient.DialContext(ctx, rpcURL)
		if err != nil {
			return fmt.Errorf("dial %s: %w", rpcURL, err)
		}
		defer client.Close()

		if client.Client() == nil {
			return errors.New("ethclient has no underlying rpc client")
		}
		return nil
	}
}

// ChecksumAddress verifies EIP-55 checksum encoding of a lower-cased address.
func ChecksumAddress(context.Context) error {
	lower := strings.ToLower(ChecksumFixture)
	if !common.IsHexAddress(lower) {
		return fmt.Errorf("%s not recognised as a hex address", lower)
	}

	if got := common.HexToAddress(lower).Hex(); got != ChecksumFixture {
		return fmt.Errorf("checksum mismatch: got %s, want %s", got, ChecksumFixture)
	}

	mixed, err := common.NewMixedcaseAddressFromString(ChecksumFixture)
	if err != nil {
		return fmt.Errorf("parse mixed-case address: %w", err)
	}
	if !mixed.ValidChecksum() {
		return fmt.Errorf("%s reported as invalid checksum", ChecksumFixture)
	}
	return nil
}

// ToWei converts a decimal amount expressed in unit (e.g. params.Ether) to wei.
// The result must be a whole number of wei.
func ToWei(amount string, unit *big.Int) (*big.Int, error) {
	r, ok := new(big.Rat).SetString(amount)
	if !ok {
		return nil, fmt.Errorf("invalid amount %q", amount)
	}
	r.Mul(r, new(big.Rat).SetInt(unit))
	if !r.IsInt() {
		return nil, fmt.Errorf("%s is not a whole number of wei", amount)
	}
	return new(big.Int).Set(r.Num()), nil
}

// FromWei converts wei to an exact amount in unit.
func FromWei(wei, unit *big.Int) *big.Rat {
	return new(big.Rat).SetFrac(wei, unit)
}

// WeiConversion verifies ether/wei conversion with math/big and uint256.
func WeiConversion(context.Context) error {
	const want = "1500000000000000000"
	ether := big.NewInt(params.Ether)

	wei, err := ToWei("1.5", ether)
	if err != nil {
		return err
	}
	if wei.String() != want {
		return fmt.Errorf("1.5 ether = %s wei, want %s", wei, want)
	}

	u, overflow := uint256.FromBig(wei)
	if overflow {
		return fmt.Errorf("%s wei overflows uint256", wei)
	}
	if u.Dec() != want {
		return fmt.Errorf("uint256 disagrees: %s, want %s", u.Dec(), want)
	}

	back, exact := FromWei(wei, ether).Float64()
	if !exact || back != 1.5 {
		return fmt.Errorf("round trip gave %v ether (exact=%t), want 1.5", back, exact)
	}

	gwei, err := ToWei("1", big.NewInt(params.GWei))
	if err != nil {
		return err
	}
	if gwei.Cmp(big.NewInt(1_000_000_000)) != 0 {
		return fmt.Errorf("1 gwei = %s wei, want 1000000000", gwei)
	}
	return nil
}

// AccountCreation verifies secp256k1 key generation and address derivation.
func AccountCreation(context.Context) error {
	key, err := crypto.GenerateKey()
	if err != nil {
		return fmt.Errorf("generate key: %w", err)
	}

	addr := crypto.PubkeyToAddress(key.PublicKey)
	if addr == (common.Address{}) {
		return errors.New("derived zero address")
	}
	if hex := addr.Hex(); len(hex) != 42 || !strings.HasPrefix(hex, "0x") {
		return fmt.Errorf("address %q is not 0x + 40 hex chars", hex)
	}
	if n := len(crypto.FromECDSA(key)); n != 32 {
		return fmt.Errorf("private key is %d bytes, want 32", n)
	}
	return nil
}

// TransactionSigning signs a legacy value transfer for chainID and recovers the sender.
func TransactionSigning(chainID int64) harness.Procedure {
	return func(context.Context) error {
		key, err := crypto.GenerateKey()
		if err != nil {
			return fmt.Errorf("generate key: %w", err)
		}

		to := common.Address{}
		tx := types.NewTx(&types.LegacyTx{
			Nonce:    0,
			To:       &to,
			Value:    big.NewInt(params.Ether),
			Gas:      21000,
			GasPrice: big.NewInt(params.GWei),
		})

		signer := types.LatestSignerForChainID(big.NewInt(chainID))
		signed, err := types.SignTx(tx, signer, key)
		if err != nil {
			return fmt.Errorf("sign transaction: %w", err)
		}

		raw, err := signed.MarshalBinary()
		if err != nil {
			return fmt.Errorf("encode signed transaction: %w", err)
		}
		if len(raw) == 0 {
			return errors.New("signed transaction encoded to zero bytes")
		}
		if signed.Hash() == (common.Hash{}) {
			return errors.New("signed transaction has zero hash")
		}
		if signed.ChainId().Cmp(big.NewInt(chainID)) != 0 {
			return fmt.Errorf("signed chain id %s, want %d", signed.ChainId(), chainID)
		}

		from, err := types.Sender(signer, signed)
		if err != nil {
			return fmt.Errorf("recover sender: %w", err)
		}
		if want := crypto.PubkeyToAddress(key.PublicKey); from != want {
			return fmt.Errorf("recovered sender %s, want %s", from.Hex(), want.Hex())
		}
		return nil
	}
}

// clientInterfaces are the go-ethereum interfaces *ethclient.Client is expected to satisfy.
var clientInterfaces = []struct {
	name      string
	satisfied func(any) bool
}{
	{"ethereum.ChainReader", func(c any) bool { _, ok := c.(ethereum.ChainReader); return ok }},
	{"ethereum.TransactionReader", func(c any) bool { _, ok := c.(ethereum.TransactionReader); return ok }},
	{"ethereum.ChainStateReader", func(c any) bool { _, ok := c.(ethereum.ChainStateReader); return ok }},
	{"ethereum.ChainSyncReader", func(c any) bool { _, ok := c.(ethereum.ChainSyncReader); return ok }},
	{"ethereum.ContractCaller", func(c any) bool { _, ok := c.(ethereum.ContractCaller); return ok }},
	{"ethereum.GasEstimator", func(c any) bool { _, ok := c.(ethereum.GasEstimator); return ok }},
	{"ethereum.GasPricer", func(c any) bool { _, ok := c.(ethereum.GasPricer); return ok }},
	{"ethereum.LogFilterer", func(c any) bool { _, ok := c.(ethereum.LogFilterer); return ok }},
	{"ethereum.TransactionSender", func(c any) bool { _, ok := c.(ethereum.TransactionSender); return ok }},
	{"ethereum.PendingStateReader", func(c any) bool { _, ok := c.(ethereum.PendingStateReader); return ok }},
}

// clientMethods are method names callers of the client rely on.
var clientMethods = []string{
	"BlockByNumber",
	"BalanceAt",
	"NonceAt",
	"SendTransaction",
	"TransactionReceipt",
	"ChainID",
	"SuggestGasTipCap",
}

// MethodSurface verifies the ethclient API surface by interface and method name.
func MethodSurface(context.Context) error {
	var client any = (*ethclient.Client)(nil)

	var missing []string
	for _, iface := range clientInterfaces {
		if !iface.satisfied(client) {
			missing = append(missing, iface.name)
		}
	}

	typ := reflect.TypeOf(client)
	for _, m := range clientMethods {
		if _, ok := typ.MethodByName(m); !ok {
			missing = append(missing, m)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("ethclient.Client is missing: %s", strings.Join(missing, ", "))
	}
	return nil
}
