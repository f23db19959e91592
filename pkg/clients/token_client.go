// Package clients defines the interfaces the inventory core depends on:
// the token client, hub-pool client, cross-chain-transfer client, adapter
// manager, and bundle data client, plus the raw on-chain balance reader.
// All six are specified only as interfaces here — concrete implementations
// live in pkg/onchain, pkg/xchaintransfer, and pkg/bundlefeed.
package clients

import (
	"context"
	"math/big"

	"github.com/nullbridge/relay-inventory/pkg/types"
)

// TokenClient is the balance-tracking surface the core reads and writes.
// Its local balance counters are shared with other subsystems (e.g. the
// filler); the inventory core decrements them when it reserves capital for
// a cross-chain transfer.
type TokenClient interface {
	// Balance returns the relayer's balance of token on chain.
	Balance(ctx context.Context, chain types.ChainID, token types.L2Token) (*big.Int, error)

	// DecrementLocalBalance reserves amt of token on chain against the
	// locally tracked balance, without touching chain state. Called by the
	// rebalance executor (C5) the instant a candidate is accepted.
	DecrementLocalBalance(ctx context.Context, chain types.ChainID, token types.L2Token, amt *big.Int) error

	// ShortfallTotalRequirement returns the outstanding fill obligations
	// the relayer has already committed to on chain for token.
	ShortfallTotalRequirement(ctx context.Context, chain types.ChainID, token types.L2Token) (*big.Int, error)
}

// OnChainReader is the raw on-chain token/ERC-20 reading surface (spec.md
// §1), kept distinct from TokenClient because TokenClient nets its reads
// against locally reserved decrements. Callers that need to detect genuine
// external balance movement rather than their own cycle's reservations
// read through here instead.
type OnChainReader interface {
	// RawBalance returns token's on-chain balance on chain, straight from
	// the chain's RPC surface with no local overlay applied.
	RawBalance(ctx context.Context, chain types.ChainID, token types.L2Token) (*big.Int, error)
}
