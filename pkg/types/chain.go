// Package types holds the shared identifiers and value objects used across
// the inventory core: chain IDs, token addresses, and fill descriptors.
package types

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// ChainID identifies an EVM chain. The hub chain is just another ChainID
// distinguished only by InventoryConfig.HubChainID.
type ChainID uint64

// L1Token is the canonical hub-chain address for an asset.
type L1Token = common.Address

// L2Token is the per-chain mirror address for the same asset, resolved via
// the hub-pool client.
type L2Token = common.Address

// Relayer is the address whose inventory this core manages.
type Relayer = common.Address

// WethSymbol is the well-known symbol the native-gas unwrap cycle (C6)
// looks for among configured L1 tokens.
const WethSymbol = "WETH"

// NativeGasToken is the sentinel token address the native-gas unwrap cycle
// (C6) passes to the token client when it wants the chain's native gas
// balance rather than an ERC-20 balance, following the convention (shared
// with most EVM balance-aggregator APIs) of addressing native currency at
// the zero address.
var NativeGasToken = common.Address{}

// TokenInfo mirrors the hub-pool client's tokenInfoFor result.
type TokenInfo struct {
	Symbol   string
	Decimals uint8
}

// ZeroAmount is a convenience zero *big.Int, since *big.Int has no usable
// zero value (nil) for arithmetic.
func ZeroAmount() *big.Int { return big.NewInt(0) }
