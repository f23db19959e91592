package inventory

import (
	"context"
	"sort"

	"github.com/nullbridge/relay-inventory/pkg/fixedpoint"
	"github.com/nullbridge/relay-inventory/pkg/types"
)

// chainDistribution computes, for each chain either enabled or managed for
// l1Token, its share of the cumulative virtual balance (C2). Unmanaged
// non-hub chains are omitted entirely.
func (c *Core) chainDistribution(ctx context.Context, l1Token types.L1Token) (map[types.ChainID]fixedpoint.Pct, error) {
	cumulative, err := c.cumulativeBalance(ctx, l1Token)
	if err != nil {
		return nil, err
	}

	dist := make(map[types.ChainID]fixedpoint.Pct)
	if cumulative.Sign() == 0 {
		return dist, nil
	}

	for _, chain := range c.enabledChains(l1Token) {
		balance, err := c.balanceOn(ctx, chain, l1Token)
		if err != nil {
			return nil, err
		}
		dist[chain] = fixedpoint.Ratio(balance, cumulative)
	}
	return dist, nil
}

// tokenDistribution computes chainDistribution for every managed L1 token,
// iterated in a deterministic (sorted-by-address) order.
func (c *Core) tokenDistribution(ctx context.Context) (map[types.L1Token]map[types.ChainID]fixedpoint.Pct, error) {
	result := make(map[types.L1Token]map[types.ChainID]fixedpoint.Pct, len(c.cfg.TokenConfig))
	for _, l1 := range c.sortedManagedTokens() {
		dist, err := c.chainDistribution(ctx, l1)
		if err != nil {
			return nil, err
		}
		result[l1] = dist
	}
	return result, nil
}

func (c *Core) sortedManagedTokens() []types.L1Token {
	tokens := make([]types.L1Token, 0, len(c.cfg.TokenConfig))
	for l1 := range c.cfg.TokenConfig {
		tokens = append(tokens, l1)
	}
	sort.Slice(tokens, func(i, j int) bool {
		return tokens[i].Hex() < tokens[j].Hex()
	})
	return tokens
}
