package inventory

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nullbridge/relay-inventory/pkg/types"
)

func TestUnwrapWethIfNeededPlansAndSubmitsWhenBelowThreshold(t *testing.T) {
	hub := types.ChainID(1)
	chainA := types.ChainID(10)
	weth := addr(0xE7)

	stub := newStubEnv(hub, weth, chainA)
	stub.nativeBalance[chainA] = big.NewInt(5) // native balance below threshold
	stub.onChainBalance[chainA] = big.NewInt(100) // ample wrapped-token balance to cover the unwrap
	stub.cfg.TokenConfig[weth][chainA].UnwrapWethThreshold = big.NewInt(10)
	stub.cfg.TokenConfig[weth][chainA].UnwrapWethTarget = big.NewInt(20)

	core := stub.core()
	core.hubPool = &wethAwareHubPool{stubHubPool{stub}, weth}

	result, err := core.UnwrapWethIfNeeded(context.Background())
	require.NoError(t, err)

	require.Len(t, result.Accepted, 1)
	assert.Equal(t, chainA, result.Accepted[0].Candidate.ChainID)
	assert.Equal(t, big.NewInt(15).String(), result.Accepted[0].Candidate.Amount.String()) // 20-5
	assert.True(t, result.Accepted[0].Executed)
}

func TestUnwrapWethIfNeededUnexecutedWhenWrappedBalanceInsufficient(t *testing.T) {
	hub := types.ChainID(1)
	chainA := types.ChainID(10)
	weth := addr(0xE7)

	stub := newStubEnv(hub, weth, chainA)
	stub.nativeBalance[chainA] = big.NewInt(5)
	stub.onChainBalance[chainA] = big.NewInt(2) // not enough wrapped balance to cover amount=15
	stub.cfg.TokenConfig[weth][chainA].UnwrapWethThreshold = big.NewInt(10)
	stub.cfg.TokenConfig[weth][chainA].UnwrapWethTarget = big.NewInt(20)

	core := stub.core()
	core.hubPool = &wethAwareHubPool{stubHubPool{stub}, weth}

	result, err := core.UnwrapWethIfNeeded(context.Background())
	require.NoError(t, err)

	assert.Empty(t, result.Accepted)
	require.Len(t, result.Unexecuted, 1)
	assert.Equal(t, "insufficient L2 wrapped balance", result.Unexecuted[0].SkipReason)
}

func TestUnwrapWethIfNeededSkipsChainsMissingThresholdConfig(t *testing.T) {
	hub := types.ChainID(1)
	chainA := types.ChainID(10)
	weth := addr(0xE7)

	stub := newStubEnv(hub, weth, chainA)
	stub.nativeBalance[chainA] = big.NewInt(1)
	// no UnwrapWethThreshold/Target configured

	core := stub.core()
	core.hubPool = &wethAwareHubPool{stubHubPool{stub}, weth}

	result, err := core.UnwrapWethIfNeeded(context.Background())
	require.NoError(t, err)
	assert.Empty(t, result.Accepted)
	assert.Empty(t, result.Unexecuted)
}

func TestUnwrapWethIfNeededFailsCycleWhenTokenInfoLookupErrors(t *testing.T) {
	hub := types.ChainID(1)
	chainA := types.ChainID(10)
	weth := addr(0xE7)

	stub := newStubEnv(hub, weth, chainA)

	core := stub.core()
	core.hubPool = &erroringTokenInfoHubPool{stubHubPool{stub}}

	result, err := core.UnwrapWethIfNeeded(context.Background())
	assert.Nil(t, result)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMissingTokenInfo)
}

type erroringTokenInfoHubPool struct {
	stubHubPool
}

func (h *erroringTokenInfoHubPool) TokenInfoFor(ctx context.Context, l1Token types.L1Token) (types.TokenInfo, error) {
	return types.TokenInfo{}, errors.New("rpc: connection refused")
}

type wethAwareHubPool struct {
	stubHubPool
	weth types.L1Token
}

func (h *wethAwareHubPool) TokenInfoFor(ctx context.Context, l1Token types.L1Token) (types.TokenInfo, error) {
	if l1Token == h.weth {
		return types.TokenInfo{Symbol: types.WethSymbol, Decimals: 18}, nil
	}
	return types.TokenInfo{Symbol: "TOK", Decimals: 18}, nil
}
