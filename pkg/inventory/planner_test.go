package inventory

import (
	"context"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nullbridge/relay-inventory/pkg/types"
)

func TestPlanRebalanceOnlyEmitsUnderThresholdChainsWithPositiveAmount(t *testing.T) {
	hub := types.ChainID(1)
	chainA := types.ChainID(10)
	chainB := types.ChainID(137)
	l1 := addr(1)

	stub := newStubEnv(hub, l1, chainA, chainB)
	stub.onChainBalance[hub] = big.NewInt(100)
	stub.onChainBalance[chainA] = big.NewInt(5) // under threshold
	stub.onChainBalance[chainB] = big.NewInt(95)
	stub.cfg.TokenConfig[l1][chainA].TargetPct = pct(5, 10)
	stub.cfg.TokenConfig[l1][chainA].ThresholdPct = pct(4, 10)
	stub.cfg.TokenConfig[l1][chainB].TargetPct = pct(4, 10)
	stub.cfg.TokenConfig[l1][chainB].ThresholdPct = pct(3, 10)

	core := stub.core()
	candidates, err := core.planRebalance(context.Background())
	require.NoError(t, err)

	require.Len(t, candidates, 1)
	cand := candidates[0]
	assert.Equal(t, chainA, cand.ChainID)
	assert.True(t, cand.CurrentAllocPct.Cmp(cand.ThresholdPct) < 0)
	assert.True(t, cand.Amount.Sign() > 0)
}

