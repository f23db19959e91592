package clients

import (
	"context"
	"math/big"

	"github.com/nullbridge/relay-inventory/pkg/types"
)

// TxResult is the minimal result every adapter submission returns.
type TxResult struct {
	Hash string
}

// WrapConfig carries the global wrap-ether settings from InventoryConfig
// that the companion wrap cycle needs at its interface (spec §3/§6).
type WrapConfig struct {
	WrapEtherThreshold *big.Int
	WrapEtherTarget    *big.Int
}

// AdapterManager is the submission surface for canonical-bridge transfers
// and native-gas unwraps. When simMode is true, submissions are simulated
// rather than broadcast, but all core bookkeeping still occurs.
type AdapterManager interface {
	// SendTokenCrossChain submits a canonical-bridge deposit of amount of
	// l1Token from the hub to chain, on behalf of relayer.
	SendTokenCrossChain(ctx context.Context, relayer types.Relayer, chain types.ChainID, l1Token types.L1Token, amount *big.Int, simMode bool) (TxResult, error)

	// SetL1TokenApprovals ensures the relayer has approved the canonical
	// bridge contracts for each of l1Tokens.
	SetL1TokenApprovals(ctx context.Context, relayer types.Relayer, l1Tokens []types.L1Token) error

	// WrapEthIfAboveThreshold is the companion wrap cycle's entrypoint,
	// specified only at this interface per spec §1/§6.
	WrapEthIfAboveThreshold(ctx context.Context, config WrapConfig, simMode bool) error

	// UnwrapWeth submits an unwrap of amount of WETH to native gas on
	// chain, on behalf of relayer.
	UnwrapWeth(ctx context.Context, relayer types.Relayer, chain types.ChainID, amount *big.Int, simMode bool) (TxResult, error)
}
