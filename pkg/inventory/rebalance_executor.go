package inventory

import (
	"context"
	"math/big"

	"github.com/nullbridge/relay-inventory/pkg/types"
)

// RebalanceInventoryIfNeeded runs one full rebalance cycle (C4 planning +
// C5 gating/execution), per spec.md §4.4/§4.5.
func (c *Core) RebalanceInventoryIfNeeded(ctx context.Context) (*RebalanceResult, error) {
	if !c.cfg.Enabled {
		c.logDisabledOnce(ctx)
		return &RebalanceResult{}, nil
	}

	candidates, err := c.planRebalance(ctx)
	if err != nil {
		return nil, err
	}

	result := &RebalanceResult{}
	// unallocated tracks, per L1 token, the hub balance not yet reserved by
	// an earlier candidate in this same cycle. Seeded from each candidate's
	// planning-time snapshot the first time that token is seen.
	unallocated := make(map[types.L1Token]*big.Int)

	for _, cand := range candidates {
		remaining, seen := unallocated[cand.L1Token]
		if !seen {
			remaining = new(big.Int).Set(cand.Balance)
			unallocated[cand.L1Token] = remaining
		}

		if cand.Amount.Cmp(remaining) > 0 {
			c.log.Warn().
				Str("l1Token", cand.L1Token.Hex()).
				Uint64("chainId", uint64(cand.ChainID)).
				Str("amount", cand.Amount.String()).
				Str("unallocated", remaining.String()).
				Msg("rebalance candidate exceeds unallocated hub balance")
			result.Unexecuted = append(result.Unexecuted, RebalanceOutcome{Candidate: cand, SkipReason: "unallocated hub balance insufficient"})
			continue
		}

		l2Hub, err := c.hubPool.L2TokenFor(ctx, cand.L1Token, c.cfg.HubChainID)
		if err != nil {
			return nil, err
		}
		// Reread through the overlay-free surface, not tokenClient.Balance:
		// an earlier candidate for this same l1Token in this same cycle may
		// have already called DecrementLocalBalance against the hub, and
		// that reservation must not look like external balance drift here.
		rawNow, err := c.onchainReader.RawBalance(ctx, c.cfg.HubChainID, l2Hub)
		if err != nil {
			return nil, err
		}
		if rawNow.Cmp(cand.RawHubBalance) != 0 {
			c.log.Warn().
				Str("l1Token", cand.L1Token.Hex()).
				Uint64("chainId", uint64(cand.ChainID)).
				Msg("hub balance changed since planning, skipping candidate")
			result.Unexecuted = append(result.Unexecuted, RebalanceOutcome{Candidate: cand, SkipReason: "balance changed"})
			continue
		}

		unallocated[cand.L1Token] = new(big.Int).Sub(remaining, cand.Amount)

		if err := c.tokenClient.DecrementLocalBalance(ctx, c.cfg.HubChainID, l2Hub, cand.Amount); err != nil {
			return nil, err
		}
		if err := c.xferClient.IncreaseOutstandingTransfer(ctx, c.relayer, cand.L1Token, cand.Amount, cand.ChainID); err != nil {
			return nil, err
		}

		tx, err := c.adapter.SendTokenCrossChain(ctx, c.relayer, cand.ChainID, cand.L1Token, cand.Amount, c.simMode)
		if err != nil {
			c.log.Error().Err(err).
				Str("l1Token", cand.L1Token.Hex()).
				Uint64("chainId", uint64(cand.ChainID)).
				Msg("rebalance submission failed")
			result.Accepted = append(result.Accepted, RebalanceOutcome{Candidate: cand, Executed: false, SkipReason: "submission failed"})
			continue
		}

		result.Accepted = append(result.Accepted, RebalanceOutcome{Candidate: cand, Executed: true, TxHash: tx.Hash})
	}

	return result, nil
}
