package inventory

import (
	"context"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nullbridge/relay-inventory/pkg/clients"
	"github.com/nullbridge/relay-inventory/pkg/config"
	"github.com/nullbridge/relay-inventory/pkg/fixedpoint"
	"github.com/nullbridge/relay-inventory/pkg/types"
)

func TestCumulativeBalanceEqualsSumOfBalanceOn(t *testing.T) {
	hub := types.ChainID(1)
	chainA := types.ChainID(10)
	chainB := types.ChainID(137)
	l1 := addr(1)

	stub := newStubEnv(hub, l1, chainA, chainB)
	stub.onChainBalance[hub] = big.NewInt(100)
	stub.onChainBalance[chainA] = big.NewInt(40)
	stub.onChainBalance[chainB] = big.NewInt(20)
	stub.outstanding[chainA] = big.NewInt(5)

	core := stub.core()
	ctx := context.Background()

	cumulative, err := core.cumulativeBalance(ctx, l1)
	require.NoError(t, err)

	sum := big.NewInt(0)
	for _, chain := range []types.ChainID{hub, chainA, chainB} {
		b, err := core.balanceOn(ctx, chain, l1)
		require.NoError(t, err)
		sum.Add(sum, b)
	}

	assert.Equal(t, 0, cumulative.Cmp(sum))
	assert.Equal(t, big.NewInt(165).String(), cumulative.String()) // 100+45+20
}

func TestBalanceOnUnmanagedNonHubChainIsZero(t *testing.T) {
	hub := types.ChainID(1)
	chainA := types.ChainID(10)
	unmanaged := types.ChainID(999)
	l1 := addr(1)

	stub := newStubEnv(hub, l1, chainA)
	core := stub.core()

	bal, err := core.balanceOn(context.Background(), unmanaged, l1)
	require.NoError(t, err)
	assert.Equal(t, 0, bal.Sign())
}

func TestCurrentAllocPctZeroWhenCumulativeZero(t *testing.T) {
	hub := types.ChainID(1)
	l1 := addr(1)

	stub := newStubEnv(hub, l1)
	core := stub.core()

	pct, err := core.currentAllocPct(context.Background(), hub, l1)
	require.NoError(t, err)
	assert.True(t, pct.IsZero())
}

// --- test fixtures shared across the inventory package's tests ---

func addr(n int64) types.L1Token {
	b := big.NewInt(n).Bytes()
	var a types.L1Token
	copy(a[20-len(b):], b)
	return a
}

type stubEnv struct {
	hub            types.ChainID
	l1             types.L1Token
	chains         []types.ChainID
	onChainBalance map[types.ChainID]*big.Int // the "true" on-chain balance, read by stubOnChainReader
	localDelta     map[types.ChainID]*big.Int // reservations recorded via DecrementLocalBalance this cycle
	nativeBalance  map[types.ChainID]*big.Int
	outstanding    map[types.ChainID]*big.Int
	shortfalls     map[types.ChainID]*big.Int
	cfg            *config.InventoryConfig
	sent           []sentTransfer
}

func newStubEnv(hub types.ChainID, l1 types.L1Token, l2Chains ...types.ChainID) *stubEnv {
	tokenCfg := map[types.ChainID]*config.TokenChainConfig{
		hub: {TargetPct: fixedpoint.Zero(), ThresholdPct: fixedpoint.Zero()},
	}
	for _, c := range l2Chains {
		tokenCfg[c] = &config.TokenChainConfig{TargetPct: fixedpoint.Zero(), ThresholdPct: fixedpoint.Zero()}
	}

	return &stubEnv{
		hub:            hub,
		l1:             l1,
		chains:         append([]types.ChainID{hub}, l2Chains...),
		onChainBalance: map[types.ChainID]*big.Int{},
		localDelta:     map[types.ChainID]*big.Int{},
		nativeBalance:  map[types.ChainID]*big.Int{},
		outstanding:    map[types.ChainID]*big.Int{},
		shortfalls:     map[types.ChainID]*big.Int{},
		cfg: &config.InventoryConfig{
			HubChainID: hub,
			Enabled:    true,
			TokenConfig: map[types.L1Token]map[types.ChainID]*config.TokenChainConfig{
				l1: tokenCfg,
			},
		},
	}
}

func (s *stubEnv) core() *Core {
	return NewCore(s.cfg, addr(0xA11CE), &stubTokenClient{s}, &stubOnChainReader{s}, &stubHubPool{s}, &stubXferClient{s}, &stubAdapter{s}, &stubBundleData{}, true)
}

type sentTransfer struct {
	chain  types.ChainID
	amount *big.Int
}

type stubAdapter struct{ s *stubEnv }

func (a *stubAdapter) SendTokenCrossChain(ctx context.Context, relayer types.Relayer, chain types.ChainID, l1Token types.L1Token, amount *big.Int, simMode bool) (clients.TxResult, error) {
	a.s.sent = append(a.s.sent, sentTransfer{chain: chain, amount: amount})
	return clients.TxResult{Hash: "0xsimulated"}, nil
}

func (a *stubAdapter) SetL1TokenApprovals(ctx context.Context, relayer types.Relayer, l1Tokens []types.L1Token) error {
	return nil
}

func (a *stubAdapter) WrapEthIfAboveThreshold(ctx context.Context, config clients.WrapConfig, simMode bool) error {
	return nil
}

func (a *stubAdapter) UnwrapWeth(ctx context.Context, relayer types.Relayer, chain types.ChainID, amount *big.Int, simMode bool) (clients.TxResult, error) {
	return clients.TxResult{Hash: "0xunwrap"}, nil
}

type stubBundleData struct{}

func (b *stubBundleData) PendingRefundsFromValidBundles(ctx context.Context, relayer types.Relayer) ([]clients.RefundSet, error) {
	return nil, nil
}

func (b *stubBundleData) NextBundleRefunds(ctx context.Context, relayer types.Relayer) ([]clients.RefundSet, error) {
	return nil, nil
}

func (b *stubBundleData) TotalRefund(sets []clients.RefundSet, relayer types.Relayer, chain types.ChainID, token types.L1Token) *big.Int {
	return big.NewInt(0)
}

// stubTokenClient is the overlay-aware token balance tracker: Balance nets
// the true on-chain balance against whatever this cycle has already
// reserved via DecrementLocalBalance, mirroring onchain.TokenClient's
// localBalanceOverlay.
type stubTokenClient struct{ s *stubEnv }

func (t *stubTokenClient) Balance(ctx context.Context, chain types.ChainID, token types.L2Token) (*big.Int, error) {
	if token == types.NativeGasToken {
		if b, ok := t.s.nativeBalance[chain]; ok {
			return new(big.Int).Set(b), nil
		}
		return big.NewInt(0), nil
	}
	onChain := big.NewInt(0)
	if b, ok := t.s.onChainBalance[chain]; ok {
		onChain = new(big.Int).Set(b)
	}
	if d, ok := t.s.localDelta[chain]; ok {
		onChain.Add(onChain, d)
	}
	return onChain, nil
}

func (t *stubTokenClient) DecrementLocalBalance(ctx context.Context, chain types.ChainID, token types.L2Token, amt *big.Int) error {
	cur := t.s.localDelta[chain]
	if cur == nil {
		cur = big.NewInt(0)
	}
	t.s.localDelta[chain] = new(big.Int).Sub(cur, amt)
	return nil
}

func (t *stubTokenClient) ShortfallTotalRequirement(ctx context.Context, chain types.ChainID, token types.L2Token) (*big.Int, error) {
	if s, ok := t.s.shortfalls[chain]; ok {
		return new(big.Int).Set(s), nil
	}
	return big.NewInt(0), nil
}

// stubOnChainReader is the overlay-free raw reader: it never sees
// DecrementLocalBalance reservations, only s.onChainBalance, the "true"
// on-chain state a test mutates to simulate external balance movement.
type stubOnChainReader struct{ s *stubEnv }

func (r *stubOnChainReader) RawBalance(ctx context.Context, chain types.ChainID, token types.L2Token) (*big.Int, error) {
	if token == types.NativeGasToken {
		if b, ok := r.s.nativeBalance[chain]; ok {
			return new(big.Int).Set(b), nil
		}
		return big.NewInt(0), nil
	}
	if b, ok := r.s.onChainBalance[chain]; ok {
		return new(big.Int).Set(b), nil
	}
	return big.NewInt(0), nil
}

type stubHubPool struct{ s *stubEnv }

func (h *stubHubPool) ChainID() types.ChainID { return h.s.hub }

func (h *stubHubPool) L2TokenFor(ctx context.Context, l1Token types.L1Token, chain types.ChainID) (types.L2Token, error) {
	return l1Token, nil
}

func (h *stubHubPool) L1TokenFor(ctx context.Context, l2Token types.L2Token, chain types.ChainID) (types.L1Token, error) {
	return l2Token, nil
}

func (h *stubHubPool) AreTokensEquivalent(ctx context.Context, tokenA types.L2Token, chainA types.ChainID, tokenB types.L2Token, chainB types.ChainID) (bool, error) {
	return tokenA == tokenB, nil
}

func (h *stubHubPool) L2TokenEnabledForL1Token(ctx context.Context, l1 types.L1Token, chain types.ChainID) (bool, error) {
	_, ok := h.s.cfg.ChainConfigFor(l1, chain)
	return ok, nil
}

func (h *stubHubPool) TokenInfoFor(ctx context.Context, l1Token types.L1Token) (types.TokenInfo, error) {
	return types.TokenInfo{Symbol: "TOK", Decimals: 18}, nil
}

type stubXferClient struct{ s *stubEnv }

func (x *stubXferClient) OutstandingCrossChainTransferAmount(ctx context.Context, relayer types.Relayer, chain types.ChainID, l1Token types.L1Token) (*big.Int, error) {
	if a, ok := x.s.outstanding[chain]; ok {
		return new(big.Int).Set(a), nil
	}
	return big.NewInt(0), nil
}

func (x *stubXferClient) IncreaseOutstandingTransfer(ctx context.Context, relayer types.Relayer, l1Token types.L1Token, amount *big.Int, chain types.ChainID) error {
	cur := x.s.outstanding[chain]
	if cur == nil {
		cur = big.NewInt(0)
	}
	x.s.outstanding[chain] = new(big.Int).Add(cur, amount)
	return nil
}

func (x *stubXferClient) Update(ctx context.Context, l1Tokens []types.L1Token) error {
	return nil
}
