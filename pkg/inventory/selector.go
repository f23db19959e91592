package inventory

import (
	"context"
	"math/big"

	"github.com/nullbridge/relay-inventory/pkg/fixedpoint"
	"github.com/nullbridge/relay-inventory/pkg/types"
)

// DetermineRefundChainId chooses the chain on which the relayer should
// request its refund for fill, per spec.md §4.3.
func (c *Core) DetermineRefundChainId(ctx context.Context, fill types.FillDescriptor) (types.ChainID, error) {
	if !c.cfg.Enabled {
		c.logDisabledOnce(ctx)
		return fill.DestinationChainID, nil
	}

	equivalent, err := c.hubPool.AreTokensEquivalent(ctx, fill.InputToken, fill.OriginChainID, fill.OutputToken, fill.DestinationChainID)
	if err != nil {
		return 0, err
	}
	if !equivalent {
		return 0, ErrTokenMismatch
	}

	l1Token := fill.L1Token
	if l1Token == nil {
		resolved, err := c.hubPool.L1TokenFor(ctx, fill.OutputToken, fill.DestinationChainID)
		if err != nil {
			return 0, err
		}
		l1Token = &resolved
	}

	_, destManaged := c.cfg.ChainConfigFor(*l1Token, fill.DestinationChainID)
	_, originManaged := c.cfg.ChainConfigFor(*l1Token, fill.OriginChainID)
	if !destManaged && !originManaged {
		return fill.DestinationChainID, nil
	}

	refundsByChain, cumulativeRefunds, err := c.refundsPerChain(ctx, *l1Token)
	if err != nil {
		return 0, err
	}
	cumulativeVirtual, err := c.cumulativeBalance(ctx, *l1Token)
	if err != nil {
		return 0, err
	}

	chainsToEvaluate := []types.ChainID{fill.DestinationChainID}
	if fill.OriginChainID != c.cfg.HubChainID {
		chainsToEvaluate = append(chainsToEvaluate, fill.OriginChainID)
	}

	for _, chain := range chainsToEvaluate {
		chainCfg, ok := c.cfg.ChainConfigFor(*l1Token, chain)
		if !ok {
			continue
		}

		chainVirt, err := c.balanceOn(ctx, chain, *l1Token)
		if err != nil {
			return 0, err
		}
		short, err := c.shortfall(ctx, chain, *l1Token)
		if err != nil {
			return 0, err
		}
		chainVirt = new(big.Int).Sub(chainVirt, short)

		if chain == fill.DestinationChainID {
			chainVirt = new(big.Int).Sub(chainVirt, fill.OutputAmount)
		}
		refund := refundsByChain[chain]
		if refund == nil {
			refund = big.NewInt(0)
		}
		chainVirtPost := new(big.Int).Add(chainVirt, refund)

		cumVirtWithShortfall := new(big.Int).Sub(cumulativeVirtual, short)
		cumVirtWithShortfall.Add(cumVirtWithShortfall, cumulativeRefunds)
		cumVirtPost := new(big.Int).Sub(cumVirtWithShortfall, fill.OutputAmount)

		if cumVirtPost.Sign() == 0 {
			return c.cfg.HubChainID, nil
		}

		expectedPct := fixedpoint.Ratio(chainVirtPost, cumVirtPost)
		if expectedPct.Cmp(chainCfg.TargetPct) <= 0 {
			return chain, nil
		}
	}

	return c.cfg.HubChainID, nil
}
