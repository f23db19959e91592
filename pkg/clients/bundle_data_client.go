package clients

import (
	"context"
	"math/big"

	"github.com/nullbridge/relay-inventory/pkg/types"
)

// RefundSet is an opaque batch of per-chain refunds, as returned by one
// bundle. The core never inspects its internals directly — it always goes
// through TotalRefund.
type RefundSet struct {
	BundleID string
	Refunds  map[types.ChainID]map[types.L1Token]*big.Int
}

// BundleDataClient reports refunds the relayer is owed from settled and
// upcoming bundle settlements.
type BundleDataClient interface {
	// PendingRefundsFromValidBundles returns refund sets from bundles that
	// have already been validated on-chain.
	PendingRefundsFromValidBundles(ctx context.Context, relayer types.Relayer) ([]RefundSet, error)

	// NextBundleRefunds returns refund sets from the next one or two
	// upcoming (not-yet-validated) bundles.
	NextBundleRefunds(ctx context.Context, relayer types.Relayer) ([]RefundSet, error)

	// TotalRefund sums the refund owed to relayer on chain for token across
	// every set in sets.
	TotalRefund(sets []RefundSet, relayer types.Relayer, chain types.ChainID, token types.L1Token) *big.Int
}
