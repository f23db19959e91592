// Package onchain implements the inventory core's collaborator interfaces
// against real EVM chains via go-ethereum, the way gswap-arb/pkg/bridge
// talks to Ethereum: a small inline ERC-20 ABI, ethclient for RPC reads,
// and accounts/abi/bind + crypto for signed submissions.
package onchain

import (
	"context"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/nullbridge/relay-inventory/pkg/logging"
	"github.com/nullbridge/relay-inventory/pkg/types"
)

// erc20ABI covers the handful of ERC-20 calls the inventory core needs:
// reading a balance and (for the adapter manager) approving spenders.
const erc20ABI = `[
	{"constant":true,"inputs":[{"name":"owner","type":"address"}],"name":"balanceOf","outputs":[{"name":"","type":"uint256"}],"type":"function"},
	{"constant":false,"inputs":[{"name":"spender","type":"address"},{"name":"amount","type":"uint256"}],"name":"approve","outputs":[{"name":"","type":"bool"}],"type":"function"},
	{"constant":true,"inputs":[{"name":"owner","type":"address"},{"name":"spender","type":"address"}],"name":"allowance","outputs":[{"name":"","type":"uint256"}],"type":"function"},
	{"constant":true,"inputs":[],"name":"decimals","outputs":[{"name":"","type":"uint8"}],"type":"function"},
	{"constant":true,"inputs":[],"name":"symbol","outputs":[{"name":"","type":"string"}],"type":"function"}
]`

var parsedERC20ABI abi.ABI

func init() {
	parsed, err := abi.JSON(stringsReader(erc20ABI))
	if err != nil {
		panic(fmt.Sprintf("onchain: invalid embedded ERC-20 ABI: %v", err))
	}
	parsedERC20ABI = parsed
}

// ChainClients maps a ChainID to the ethclient connected to that chain's
// RPC endpoint. The relayer process dials one client per configured chain
// at startup and shares this map across every onchain collaborator.
type ChainClients map[types.ChainID]*ethclient.Client

func (cc ChainClients) get(chain types.ChainID) (*ethclient.Client, error) {
	client, ok := cc[chain]
	if !ok {
		return nil, fmt.Errorf("onchain: no RPC client configured for chain %d", chain)
	}
	return client, nil
}

// erc20BalanceOf reads balanceOf(owner) for token on the chain behind rpc.
func erc20BalanceOf(ctx context.Context, rpc *ethclient.Client, token, owner common.Address) (*big.Int, error) {
	data, err := parsedERC20ABI.Pack("balanceOf", owner)
	if err != nil {
		return nil, fmt.Errorf("pack balanceOf: %w", err)
	}

	result, err := rpc.CallContract(ctx, callMsg(token, data), nil)
	if err != nil {
		return nil, fmt.Errorf("call balanceOf: %w", err)
	}

	out, err := parsedERC20ABI.Unpack("balanceOf", result)
	if err != nil {
		return nil, fmt.Errorf("unpack balanceOf: %w", err)
	}

	balance, ok := out[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("unexpected balanceOf return type %T", out[0])
	}
	return balance, nil
}

// nativeBalanceOf reads the chain's native gas balance for owner.
func nativeBalanceOf(ctx context.Context, rpc *ethclient.Client, owner common.Address) (*big.Int, error) {
	return rpc.BalanceAt(ctx, owner, nil)
}

// erc20Symbol reads the ERC-20 symbol() string for token.
func erc20Symbol(ctx context.Context, rpc *ethclient.Client, token common.Address) (string, error) {
	data, err := parsedERC20ABI.Pack("symbol")
	if err != nil {
		return "", fmt.Errorf("pack symbol: %w", err)
	}
	result, err := rpc.CallContract(ctx, callMsg(token, data), nil)
	if err != nil {
		return "", fmt.Errorf("call symbol: %w", err)
	}
	out, err := parsedERC20ABI.Unpack("symbol", result)
	if err != nil {
		return "", fmt.Errorf("unpack symbol: %w", err)
	}
	symbol, ok := out[0].(string)
	if !ok {
		return "", fmt.Errorf("unexpected symbol return type %T", out[0])
	}
	return symbol, nil
}

// erc20Decimals reads the ERC-20 decimals() value for token.
func erc20Decimals(ctx context.Context, rpc *ethclient.Client, token common.Address) (uint8, error) {
	data, err := parsedERC20ABI.Pack("decimals")
	if err != nil {
		return 0, fmt.Errorf("pack decimals: %w", err)
	}
	result, err := rpc.CallContract(ctx, callMsg(token, data), nil)
	if err != nil {
		return 0, fmt.Errorf("call decimals: %w", err)
	}
	out, err := parsedERC20ABI.Unpack("decimals", result)
	if err != nil {
		return 0, fmt.Errorf("unpack decimals: %w", err)
	}
	decimals, ok := out[0].(uint8)
	if !ok {
		return 0, fmt.Errorf("unexpected decimals return type %T", out[0])
	}
	return decimals, nil
}

var log = logging.For("onchain")

// localBalanceOverlay tracks the in-process decrements the rebalance
// executor and unwrap cycle apply to a chain's ERC-20/native balance
// before submission (spec.md §4.5/§4.6), layered on top of whatever the
// RPC reports so the core sees its own reservations immediately rather
// than waiting for the transaction to land.
type localBalanceOverlay struct {
	mu      sync.Mutex
	deltas  map[overlayKey]*big.Int
}

type overlayKey struct {
	chain types.ChainID
	token common.Address
}

func newLocalBalanceOverlay() *localBalanceOverlay {
	return &localBalanceOverlay{deltas: make(map[overlayKey]*big.Int)}
}

func (o *localBalanceOverlay) apply(chain types.ChainID, token common.Address, onChain *big.Int) *big.Int {
	o.mu.Lock()
	defer o.mu.Unlock()
	delta, ok := o.deltas[overlayKey{chain, token}]
	if !ok {
		return onChain
	}
	return new(big.Int).Add(onChain, delta)
}

func (o *localBalanceOverlay) decrement(chain types.ChainID, token common.Address, amt *big.Int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	key := overlayKey{chain, token}
	cur, ok := o.deltas[key]
	if !ok {
		cur = big.NewInt(0)
	}
	o.deltas[key] = new(big.Int).Sub(cur, amt)
}
