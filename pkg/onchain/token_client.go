package onchain

import (
	"context"
	"math/big"

	"github.com/nullbridge/relay-inventory/pkg/clients"
	"github.com/nullbridge/relay-inventory/pkg/types"
)

// ShortfallSource reports outstanding fill obligations the relayer has
// committed to but not yet satisfied. The filler subsystem (out of scope
// for this core) is the natural implementer; TokenClient only needs to
// read it.
type ShortfallSource interface {
	ShortfallTotalRequirement(ctx context.Context, chain types.ChainID, token types.L2Token) (*big.Int, error)
}

// TokenClient is the onchain-backed clients.TokenClient: ERC-20/native
// balance reads over RPC, with a local decrement overlay so the core sees
// its own reservations immediately (spec.md §4.5 "the mechanism that makes
// repeated cycles safe").
type TokenClient struct {
	rpc        ChainClients
	relayer    types.Relayer
	overlay    *localBalanceOverlay
	shortfalls ShortfallSource
}

// NewTokenClient builds a TokenClient. shortfalls may be nil; in that case
// ShortfallTotalRequirement always returns zero, which is appropriate for
// a relayer process with no filler subsystem wired in yet.
func NewTokenClient(rpc ChainClients, relayer types.Relayer, shortfalls ShortfallSource) *TokenClient {
	return &TokenClient{
		rpc:        rpc,
		relayer:    relayer,
		overlay:    newLocalBalanceOverlay(),
		shortfalls: shortfalls,
	}
}

var _ clients.TokenClient = (*TokenClient)(nil)
var _ clients.OnChainReader = (*TokenClient)(nil)

// Balance returns the relayer's balance of token on chain, netted against
// any local decrements reserved earlier in this cycle. token ==
// types.NativeGasToken requests the chain's native gas balance instead of
// an ERC-20 read.
func (t *TokenClient) Balance(ctx context.Context, chain types.ChainID, token types.L2Token) (*big.Int, error) {
	client, err := t.rpc.get(chain)
	if err != nil {
		return nil, err
	}

	var onChain *big.Int
	if token == types.NativeGasToken {
		onChain, err = nativeBalanceOf(ctx, client, t.relayer)
	} else {
		onChain, err = erc20BalanceOf(ctx, client, token, t.relayer)
	}
	if err != nil {
		return nil, err
	}

	return t.overlay.apply(chain, token, onChain), nil
}

// DecrementLocalBalance reserves amt of token on chain against the locally
// tracked balance, without touching chain state.
func (t *TokenClient) DecrementLocalBalance(ctx context.Context, chain types.ChainID, token types.L2Token, amt *big.Int) error {
	t.overlay.decrement(chain, token, amt)
	return nil
}

// RawBalance returns token's on-chain balance on chain straight from RPC,
// bypassing the local decrement overlay entirely. Unlike Balance, two calls
// to RawBalance within the same cycle will disagree only if the balance
// actually moved on chain, never because of this process's own reservations.
func (t *TokenClient) RawBalance(ctx context.Context, chain types.ChainID, token types.L2Token) (*big.Int, error) {
	client, err := t.rpc.get(chain)
	if err != nil {
		return nil, err
	}

	if token == types.NativeGasToken {
		return nativeBalanceOf(ctx, client, t.relayer)
	}
	return erc20BalanceOf(ctx, client, token, t.relayer)
}

// ShortfallTotalRequirement delegates to the configured shortfall source,
// or returns zero if none is wired in.
func (t *TokenClient) ShortfallTotalRequirement(ctx context.Context, chain types.ChainID, token types.L2Token) (*big.Int, error) {
	if t.shortfalls == nil {
		return big.NewInt(0), nil
	}
	return t.shortfalls.ShortfallTotalRequirement(ctx, chain, token)
}
