package clients

import (
	"context"
	"math/big"

	"github.com/nullbridge/relay-inventory/pkg/types"
)

// CrossChainTransferClient tracks canonical-bridge transfers that have been
// submitted but not yet credited on the destination chain. The virtual
// balance calculator (C1) folds these into balanceOn so the planner and
// selector don't over-send while a transfer is still finalizing.
type CrossChainTransferClient interface {
	// OutstandingCrossChainTransferAmount returns the amount of l1Token
	// already in flight toward chain for relayer.
	OutstandingCrossChainTransferAmount(ctx context.Context, relayer types.Relayer, chain types.ChainID, l1Token types.L1Token) (*big.Int, error)

	// IncreaseOutstandingTransfer records a newly accepted rebalance
	// transfer. Called by the rebalance executor (C5) before submission,
	// so that a failed submission still biases the next cycle toward
	// under-sending rather than over-sending.
	IncreaseOutstandingTransfer(ctx context.Context, relayer types.Relayer, l1Token types.L1Token, amount *big.Int, chain types.ChainID) error

	// Update refreshes outstanding-transfer state for l1Tokens from the
	// underlying bridge adapters (e.g. polling for finalization).
	Update(ctx context.Context, l1Tokens []types.L1Token) error
}
