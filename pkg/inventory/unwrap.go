package inventory

import (
	"context"
	"fmt"
	"math/big"

	"github.com/nullbridge/relay-inventory/pkg/types"
)

// nativeExcludedChains lists chains whose native gas token is not the
// canonical wrapped-native pair and so are never candidates for the unwrap
// cycle (spec.md §4.6 step 1). Populated by operators wiring up chains
// whose gas token diverges from WETH's pairing (e.g. a chain whose gas
// token is a different asset entirely).
var nativeExcludedChains = map[types.ChainID]bool{}

// UnwrapWethIfNeeded runs one native-gas replenishment cycle (C6): for
// every non-hub chain managed for WETH, check whether native gas has fallen below the
// configured threshold and, if so, plan and submit an unwrap of the L2
// wrapped-native token to cover the gap.
func (c *Core) UnwrapWethIfNeeded(ctx context.Context) (*UnwrapResult, error) {
	if !c.cfg.Enabled {
		c.logDisabledOnce(ctx)
		return &UnwrapResult{}, nil
	}

	weth, ok, err := c.wethL1Token(ctx)
	if err != nil {
		return nil, err
	}
	if !ok {
		return &UnwrapResult{}, nil
	}

	result := &UnwrapResult{}

	for _, chain := range c.sortedL2Chains(weth) {
		if nativeExcludedChains[chain] {
			continue
		}

		chainCfg := c.cfg.TokenConfig[weth][chain]
		if chainCfg.UnwrapWethThreshold == nil || chainCfg.UnwrapWethTarget == nil {
			continue
		}

		l2Weth, err := c.hubPool.L2TokenFor(ctx, weth, chain)
		if err != nil {
			return nil, err
		}
		nativeBalance, err := c.tokenClient.Balance(ctx, chain, types.NativeGasToken)
		if err != nil {
			return nil, err
		}

		if nativeBalance.Cmp(chainCfg.UnwrapWethThreshold) >= 0 {
			continue
		}

		amount := new(big.Int).Sub(chainCfg.UnwrapWethTarget, nativeBalance)
		if amount.Sign() <= 0 {
			continue
		}

		wethBalance, err := c.tokenClient.Balance(ctx, chain, l2Weth)
		if err != nil {
			return nil, err
		}

		cand := UnwrapCandidate{
			ChainID:         chain,
			Threshold:       chainCfg.UnwrapWethThreshold,
			Target:          chainCfg.UnwrapWethTarget,
			L2NativeBalance: nativeBalance,
			Amount:          amount,
		}

		if wethBalance.Cmp(amount) < 0 {
			result.Unexecuted = append(result.Unexecuted, UnwrapOutcome{Candidate: cand, SkipReason: "insufficient L2 wrapped balance"})
			continue
		}

		if err := c.tokenClient.DecrementLocalBalance(ctx, chain, l2Weth, amount); err != nil {
			return nil, err
		}

		tx, err := c.adapter.UnwrapWeth(ctx, c.relayer, chain, amount, c.simMode)
		if err != nil {
			c.log.Error().Err(err).Uint64("chainId", uint64(chain)).Msg("unwrap submission failed")
			result.Accepted = append(result.Accepted, UnwrapOutcome{Candidate: cand, Executed: false, SkipReason: "submission failed"})
			continue
		}

		result.Accepted = append(result.Accepted, UnwrapOutcome{Candidate: cand, Executed: true, TxHash: tx.Hash})
	}

	return result, nil
}

// wethL1Token resolves the configured L1 token whose symbol matches the
// well-known wrapped-native marker. A TokenInfoFor failure means the
// hub-pool configuration is broken and is fatal to the cycle (spec.md §7
// "MissingTokenInfo"), not a token to silently skip past.
func (c *Core) wethL1Token(ctx context.Context) (types.L1Token, bool, error) {
	for _, l1 := range c.sortedManagedTokens() {
		info, err := c.hubPool.TokenInfoFor(ctx, l1)
		if err != nil {
			return types.L1Token{}, false, fmt.Errorf("%w: %s: %w", ErrMissingTokenInfo, l1.Hex(), err)
		}
		if info.Symbol == types.WethSymbol {
			return l1, true, nil
		}
	}
	return types.L1Token{}, false, nil
}
