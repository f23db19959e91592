package onchain

import (
	"context"
	"fmt"
	"sync"

	"github.com/nullbridge/relay-inventory/pkg/clients"
	"github.com/nullbridge/relay-inventory/pkg/types"
)

// TokenPairing is the static L1<->L2 address mapping for one L1 token on
// one chain. In the real hub-pool contract this is on-chain state; this
// core treats it as configuration the operator supplies alongside
// InventoryConfig, since resolving it is out of scope (spec.md §1).
type TokenPairing struct {
	L1Token types.L1Token
	Chain   types.ChainID
	L2Token types.L2Token
}

// HubPoolClient is the onchain-backed clients.HubPoolClient: token address
// resolution from a static pairing table, with symbol/decimals metadata
// fetched lazily over RPC and cached.
type HubPoolClient struct {
	hub    types.ChainID
	rpc    ChainClients
	l1ToL2 map[types.L1Token]map[types.ChainID]types.L2Token
	l2ToL1 map[types.ChainID]map[types.L2Token]types.L1Token

	mu        sync.Mutex
	infoCache map[types.L1Token]types.TokenInfo
}

// NewHubPoolClient builds a HubPoolClient from a static set of pairings.
func NewHubPoolClient(hub types.ChainID, rpc ChainClients, pairings []TokenPairing) *HubPoolClient {
	h := &HubPoolClient{
		hub:       hub,
		rpc:       rpc,
		l1ToL2:    make(map[types.L1Token]map[types.ChainID]types.L2Token),
		l2ToL1:    make(map[types.ChainID]map[types.L2Token]types.L1Token),
		infoCache: make(map[types.L1Token]types.TokenInfo),
	}
	for _, p := range pairings {
		if h.l1ToL2[p.L1Token] == nil {
			h.l1ToL2[p.L1Token] = make(map[types.ChainID]types.L2Token)
		}
		h.l1ToL2[p.L1Token][p.Chain] = p.L2Token

		if h.l2ToL1[p.Chain] == nil {
			h.l2ToL1[p.Chain] = make(map[types.L2Token]types.L1Token)
		}
		h.l2ToL1[p.Chain][p.L2Token] = p.L1Token
	}
	return h
}

var _ clients.HubPoolClient = (*HubPoolClient)(nil)

func (h *HubPoolClient) ChainID() types.ChainID { return h.hub }

func (h *HubPoolClient) L2TokenFor(ctx context.Context, l1Token types.L1Token, chain types.ChainID) (types.L2Token, error) {
	byChain, ok := h.l1ToL2[l1Token]
	if !ok {
		return types.L2Token{}, fmt.Errorf("onchain: no pairing for L1 token %s", l1Token.Hex())
	}
	l2, ok := byChain[chain]
	if !ok {
		return types.L2Token{}, fmt.Errorf("onchain: L1 token %s has no mirror on chain %d", l1Token.Hex(), chain)
	}
	return l2, nil
}

func (h *HubPoolClient) L1TokenFor(ctx context.Context, l2Token types.L2Token, chain types.ChainID) (types.L1Token, error) {
	byToken, ok := h.l2ToL1[chain]
	if !ok {
		return types.L1Token{}, fmt.Errorf("onchain: no pairings registered for chain %d", chain)
	}
	l1, ok := byToken[l2Token]
	if !ok {
		return types.L1Token{}, fmt.Errorf("onchain: L2 token %s on chain %d has no known L1 token", l2Token.Hex(), chain)
	}
	return l1, nil
}

func (h *HubPoolClient) AreTokensEquivalent(ctx context.Context, tokenA types.L2Token, chainA types.ChainID, tokenB types.L2Token, chainB types.ChainID) (bool, error) {
	l1A, err := h.L1TokenFor(ctx, tokenA, chainA)
	if err != nil {
		return false, err
	}
	l1B, err := h.L1TokenFor(ctx, tokenB, chainB)
	if err != nil {
		return false, err
	}
	return l1A == l1B, nil
}

func (h *HubPoolClient) L2TokenEnabledForL1Token(ctx context.Context, l1 types.L1Token, chain types.ChainID) (bool, error) {
	byChain, ok := h.l1ToL2[l1]
	if !ok {
		return false, nil
	}
	_, ok = byChain[chain]
	return ok, nil
}

func (h *HubPoolClient) TokenInfoFor(ctx context.Context, l1Token types.L1Token) (types.TokenInfo, error) {
	h.mu.Lock()
	if info, ok := h.infoCache[l1Token]; ok {
		h.mu.Unlock()
		return info, nil
	}
	h.mu.Unlock()

	hubToken, err := h.L2TokenFor(ctx, l1Token, h.hub)
	if err != nil {
		return types.TokenInfo{}, err
	}
	rpc, err := h.rpc.get(h.hub)
	if err != nil {
		return types.TokenInfo{}, err
	}

	symbol, err := erc20Symbol(ctx, rpc, hubToken)
	if err != nil {
		return types.TokenInfo{}, err
	}
	decimals, err := erc20Decimals(ctx, rpc, hubToken)
	if err != nil {
		return types.TokenInfo{}, err
	}

	info := types.TokenInfo{Symbol: symbol, Decimals: decimals}

	h.mu.Lock()
	h.infoCache[l1Token] = info
	h.mu.Unlock()

	return info, nil
}
