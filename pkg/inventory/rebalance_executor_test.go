package inventory

import (
	"context"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nullbridge/relay-inventory/pkg/types"
)

func TestRebalanceExecutorGatingScenarioS5(t *testing.T) {
	hub := types.ChainID(1)
	chainA := types.ChainID(10)
	chainB := types.ChainID(137)
	l1 := addr(1)

	stub := newStubEnv(hub, l1, chainA, chainB)
	stub.onChainBalance[hub] = big.NewInt(800)
	stub.onChainBalance[chainA] = big.NewInt(0)
	stub.onChainBalance[chainB] = big.NewInt(0)
	stub.cfg.TokenConfig[l1][chainA].TargetPct = pct(3, 4)    // 0.75
	stub.cfg.TokenConfig[l1][chainA].ThresholdPct = pct(1, 10) // 0.1
	stub.cfg.TokenConfig[l1][chainB].TargetPct = pct(5, 8)    // 0.625
	stub.cfg.TokenConfig[l1][chainB].ThresholdPct = pct(1, 10)

	core := stub.core()
	result, err := core.RebalanceInventoryIfNeeded(context.Background())
	require.NoError(t, err)

	require.Len(t, result.Accepted, 1)
	assert.Equal(t, chainA, result.Accepted[0].Candidate.ChainID)
	assert.Equal(t, big.NewInt(600).String(), result.Accepted[0].Candidate.Amount.String())
	assert.True(t, result.Accepted[0].Executed)

	require.Len(t, result.Unexecuted, 1)
	assert.Equal(t, chainB, result.Unexecuted[0].Candidate.ChainID)
	assert.Equal(t, "unallocated hub balance insufficient", result.Unexecuted[0].SkipReason)

	require.Len(t, stub.sent, 1)
	assert.Equal(t, chainA, stub.sent[0].chain)
	assert.Equal(t, big.NewInt(600).String(), stub.sent[0].amount.String())
}

// changingRawBalanceReader returns the original hub balance for the first
// read (planning's snapshot) and a changed value on every read thereafter
// (simulating an external mutation between planning and execution), to
// exercise the balance-changed guard (scenario S6). This drives the
// overlay-free reader, not the token balance tracker, since that is what
// the executor's drift check reads from.
type changingRawBalanceReader struct {
	inner     *stubOnChainReader
	hub       types.ChainID
	flipAfter int
	changedTo *big.Int
	hubCalls  int
}

func (r *changingRawBalanceReader) RawBalance(ctx context.Context, chain types.ChainID, token types.L2Token) (*big.Int, error) {
	if chain == r.hub {
		r.hubCalls++
		if r.hubCalls > r.flipAfter {
			return new(big.Int).Set(r.changedTo), nil
		}
	}
	return r.inner.RawBalance(ctx, chain, token)
}

func TestRebalanceExecutorBalanceChangedScenarioS6(t *testing.T) {
	hub := types.ChainID(1)
	chainA := types.ChainID(10)
	l1 := addr(1)

	stub := newStubEnv(hub, l1, chainA)
	stub.onChainBalance[hub] = big.NewInt(500)
	stub.onChainBalance[chainA] = big.NewInt(0)
	stub.cfg.TokenConfig[l1][chainA].TargetPct = pct(1, 5)     // 0.2 -> amount = 0.2*500=100
	stub.cfg.TokenConfig[l1][chainA].ThresholdPct = pct(1, 10) // 0.1

	rawReader := &changingRawBalanceReader{
		inner:     &stubOnChainReader{stub},
		hub:       hub,
		flipAfter: 1, // planning takes one raw snapshot; the executor's recheck sees the change
		changedTo: big.NewInt(450),
	}

	core := NewCore(stub.cfg, addr(0xA11CE), &stubTokenClient{stub}, rawReader, &stubHubPool{stub}, &stubXferClient{stub}, &stubAdapter{stub}, &stubBundleData{}, true)

	result, err := core.RebalanceInventoryIfNeeded(context.Background())
	require.NoError(t, err)

	require.Empty(t, result.Accepted)
	require.Len(t, result.Unexecuted, 1)
	assert.Equal(t, "balance changed", result.Unexecuted[0].SkipReason)
	assert.Equal(t, big.NewInt(100).String(), result.Unexecuted[0].Candidate.Amount.String())

	assert.Empty(t, stub.sent)
	assert.Nil(t, stub.outstanding[chainA])
}

// TestRebalanceExecutorTwoCandidatesSameTokenNoExternalDrift reproduces the
// scenario the balance-changed guard must NOT trip on: two accepted
// candidates for the same l1Token in one cycle, with no external balance
// movement at all. The first candidate's DecrementLocalBalance reservation
// must not look like drift to the second candidate's recheck.
func TestRebalanceExecutorTwoCandidatesSameTokenNoExternalDrift(t *testing.T) {
	hub := types.ChainID(1)
	chainA := types.ChainID(10)
	chainB := types.ChainID(137)
	l1 := addr(1)

	stub := newStubEnv(hub, l1, chainA, chainB)
	stub.onChainBalance[hub] = big.NewInt(1000)
	stub.onChainBalance[chainA] = big.NewInt(0)
	stub.onChainBalance[chainB] = big.NewInt(0)
	stub.cfg.TokenConfig[l1][chainA].TargetPct = pct(3, 10)    // 0.3 -> amount = 300
	stub.cfg.TokenConfig[l1][chainA].ThresholdPct = pct(1, 10) // 0.1
	stub.cfg.TokenConfig[l1][chainB].TargetPct = pct(1, 5)     // 0.2 -> amount = 200
	stub.cfg.TokenConfig[l1][chainB].ThresholdPct = pct(1, 10)

	core := stub.core()
	result, err := core.RebalanceInventoryIfNeeded(context.Background())
	require.NoError(t, err)

	require.Empty(t, result.Unexecuted)
	require.Len(t, result.Accepted, 2)
	for _, outcome := range result.Accepted {
		assert.True(t, outcome.Executed)
	}

	require.Len(t, stub.sent, 2)
}
