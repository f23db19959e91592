package inventory

import (
	"context"
	"math/big"

	"github.com/nullbridge/relay-inventory/pkg/fixedpoint"
	"github.com/nullbridge/relay-inventory/pkg/types"
)

// balanceOn computes the virtual balance of l1Token on chain (C1). A
// non-hub chain not managed for this token contributes zero. The hub chain
// always contributes, regardless of tokenConfig (spec.md §9 "Hub-chain
// handling in enabled chains").
func (c *Core) balanceOn(ctx context.Context, chain types.ChainID, l1Token types.L1Token) (*big.Int, error) {
	if chain != c.cfg.HubChainID {
		if _, ok := c.cfg.ChainConfigFor(l1Token, chain); !ok {
			return big.NewInt(0), nil
		}
	}

	l2Token, err := c.hubPool.L2TokenFor(ctx, l1Token, chain)
	if err != nil {
		return nil, err
	}

	onChain, err := c.tokenClient.Balance(ctx, chain, l2Token)
	if err != nil {
		return nil, err
	}

	outstanding, err := c.xferClient.OutstandingCrossChainTransferAmount(ctx, c.relayer, chain, l1Token)
	if err != nil {
		return nil, err
	}

	return new(big.Int).Add(onChain, outstanding), nil
}

// cumulativeBalance sums balanceOn over every chain enabled for l1Token
// (the hub plus every chain with a tokenConfig entry).
func (c *Core) cumulativeBalance(ctx context.Context, l1Token types.L1Token) (*big.Int, error) {
	total := big.NewInt(0)
	for _, chain := range c.enabledChains(l1Token) {
		bal, err := c.balanceOn(ctx, chain, l1Token)
		if err != nil {
			return nil, err
		}
		total.Add(total, bal)
	}
	return total, nil
}

// shortfall returns the outstanding fill obligations the relayer has
// already committed to on chain for l1Token.
func (c *Core) shortfall(ctx context.Context, chain types.ChainID, l1Token types.L1Token) (*big.Int, error) {
	l2Token, err := c.hubPool.L2TokenFor(ctx, l1Token, chain)
	if err != nil {
		return nil, err
	}
	return c.tokenClient.ShortfallTotalRequirement(ctx, chain, l2Token)
}

// currentAllocPct computes (balanceOn - shortfall) * S / cumulative,
// returning the fixed-point zero when cumulative is zero.
func (c *Core) currentAllocPct(ctx context.Context, chain types.ChainID, l1Token types.L1Token) (fixedpoint.Pct, error) {
	balance, err := c.balanceOn(ctx, chain, l1Token)
	if err != nil {
		return fixedpoint.Zero(), err
	}
	short, err := c.shortfall(ctx, chain, l1Token)
	if err != nil {
		return fixedpoint.Zero(), err
	}
	cumulative, err := c.cumulativeBalance(ctx, l1Token)
	if err != nil {
		return fixedpoint.Zero(), err
	}

	net := new(big.Int).Sub(balance, short)
	return fixedpoint.Ratio(net, cumulative), nil
}
