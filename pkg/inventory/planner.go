package inventory

import (
	"context"
	"fmt"
	"sort"

	"github.com/nullbridge/relay-inventory/pkg/fixedpoint"
	"github.com/nullbridge/relay-inventory/pkg/types"
)

// planRebalance computes the ordered list of under-allocated L2 chains
// that would need a hub→chain transfer to reach target, per spec.md §4.4.
// Iteration order is deterministic (sorted by L1Token address, then by
// ChainID) so that hub-balance gating in the executor is reproducible.
func (c *Core) planRebalance(ctx context.Context) ([]RebalanceCandidate, error) {
	if !c.cfg.Enabled {
		c.logDisabledOnce(ctx)
		return nil, nil
	}

	distribution, err := c.tokenDistribution(ctx)
	if err != nil {
		return nil, err
	}
	c.log.Debug().Str("distribution", fmt.Sprint(distribution)).Msg("considering rebalance")

	var candidates []RebalanceCandidate

	for _, l1Token := range c.sortedManagedTokens() {
		cumulative, err := c.cumulativeBalance(ctx, l1Token)
		if err != nil {
			return nil, err
		}
		if cumulative.Sign() <= 0 {
			continue
		}

		l2Hub, err := c.hubPool.L2TokenFor(ctx, l1Token, c.cfg.HubChainID)
		if err != nil {
			return nil, err
		}

		// hubBalance is the literal tokenClient.balance(hub, l1Token) called
		// for by spec.md §4.4, not the virtual balance used elsewhere in
		// planning: it must not include outstanding cross-chain transfers,
		// since those haven't landed on the hub yet to be spent again.
		hubBalance, err := c.tokenClient.Balance(ctx, c.cfg.HubChainID, l2Hub)
		if err != nil {
			return nil, err
		}

		// rawHubBalance is an overlay-free snapshot of the same balance,
		// taken once per l1Token so the executor's pre-submission drift
		// check (C5) can tell genuine external movement apart from this
		// cycle's own DecrementLocalBalance reservations against earlier
		// candidates for this same token.
		rawHubBalance, err := c.onchainReader.RawBalance(ctx, c.cfg.HubChainID, l2Hub)
		if err != nil {
			return nil, err
		}

		for _, chain := range c.sortedL2Chains(l1Token) {
			chainCfg := c.cfg.TokenConfig[l1Token][chain]

			currentAlloc, err := c.currentAllocPct(ctx, chain, l1Token)
			if err != nil {
				return nil, err
			}

			if currentAlloc.Cmp(chainCfg.ThresholdPct) >= 0 {
				continue
			}

			amount := fixedpoint.ApplyTo(chainCfg.TargetPct.Sub(currentAlloc), cumulative)
			if amount.Sign() <= 0 {
				continue
			}

			candidates = append(candidates, RebalanceCandidate{
				ChainID:           chain,
				L1Token:           l1Token,
				ThresholdPct:      chainCfg.ThresholdPct,
				TargetPct:         chainCfg.TargetPct,
				CurrentAllocPct:   currentAlloc,
				Balance:           hubBalance,
				RawHubBalance:     rawHubBalance,
				CumulativeBalance: cumulative,
				Amount:            amount,
			})
		}
	}

	return candidates, nil
}

// sortedL2Chains returns the non-hub chains managed for l1Token, in
// ascending ChainID order.
func (c *Core) sortedL2Chains(l1Token types.L1Token) []types.ChainID {
	byChain := c.cfg.TokenConfig[l1Token]
	chains := make([]types.ChainID, 0, len(byChain))
	for chain := range byChain {
		if chain == c.cfg.HubChainID {
			continue
		}
		chains = append(chains, chain)
	}
	sort.Slice(chains, func(i, j int) bool { return chains[i] < chains[j] })
	return chains
}
