package onchain

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/nullbridge/relay-inventory/pkg/clients"
	nbtypes "github.com/nullbridge/relay-inventory/pkg/types"
)

// canonicalBridgeABI covers the single call the rebalance executor needs:
// depositing an L1 token into the canonical bridge bound for chain.
const canonicalBridgeABI = `[
	{"inputs":[{"name":"token","type":"address"},{"name":"amount","type":"uint256"},{"name":"destinationChainId","type":"uint256"},{"name":"recipient","type":"address"}],"name":"deposit","outputs":[],"stateMutability":"nonpayable","type":"function"}
]`

// wethABI covers WETH9's deposit/withdraw pair, used by the wrap and
// unwrap cycles (C6 and its hub-side companion).
const wethABI = `[
	{"inputs":[],"name":"deposit","outputs":[],"stateMutability":"payable","type":"function"},
	{"inputs":[{"name":"wad","type":"uint256"}],"name":"withdraw","outputs":[],"stateMutability":"nonpayable","type":"function"}
]`

var (
	parsedBridgeABI abi.ABI
	parsedWethABI   abi.ABI
)

func init() {
	parsed, err := abi.JSON(stringsReader(canonicalBridgeABI))
	if err != nil {
		panic(fmt.Sprintf("onchain: invalid embedded bridge ABI: %v", err))
	}
	parsedBridgeABI = parsed

	parsed, err = abi.JSON(stringsReader(wethABI))
	if err != nil {
		panic(fmt.Sprintf("onchain: invalid embedded WETH ABI: %v", err))
	}
	parsedWethABI = parsed
}

// ChainAddresses pins the addresses AdapterManager needs to reach on a
// given chain: the canonical bridge deposit contract, and (where the chain
// has a wrapped-native token) its WETH9 contract.
type ChainAddresses struct {
	Bridge common.Address
	Weth   common.Address
}

// AdapterManager is the onchain-backed clients.AdapterManager: signed
// contract calls over go-ethereum's accounts/abi/bind, grounded on
// bridge.go's approve-then-call flow (bridgeWithApproval).
type AdapterManager struct {
	rpc        ChainClients
	hub        nbtypes.ChainID
	privateKey *ecdsa.PrivateKey
	addrs      map[nbtypes.ChainID]ChainAddresses
}

// NewAdapterManager builds an AdapterManager signing with privateKey.
func NewAdapterManager(rpc ChainClients, hub nbtypes.ChainID, privateKey *ecdsa.PrivateKey, addrs map[nbtypes.ChainID]ChainAddresses) *AdapterManager {
	return &AdapterManager{rpc: rpc, hub: hub, privateKey: privateKey, addrs: addrs}
}

var _ clients.AdapterManager = (*AdapterManager)(nil)

// SendTokenCrossChain deposits amount of l1Token into the canonical bridge
// on the hub chain, destined for chain. In simMode the call is not
// broadcast; the caller (the rebalance executor) still records the
// candidate as accepted, matching the bookkeeping-before-submission
// ordering the executor already applies for its own state.
func (a *AdapterManager) SendTokenCrossChain(ctx context.Context, relayer nbtypes.Relayer, chain nbtypes.ChainID, l1Token nbtypes.L1Token, amount *big.Int, simMode bool) (clients.TxResult, error) {
	addrs, ok := a.addrs[chain]
	if !ok {
		return clients.TxResult{}, fmt.Errorf("onchain: no bridge contract configured for destination chain %d", chain)
	}

	if simMode {
		return clients.TxResult{Hash: simulatedTxHash("deposit", l1Token, chain, amount)}, nil
	}

	hubRPC, err := a.rpc.get(a.hub)
	if err != nil {
		return clients.TxResult{}, err
	}

	if err := a.approveIfNeeded(ctx, hubRPC, l1Token, addrs.Bridge, amount); err != nil {
		return clients.TxResult{}, fmt.Errorf("approve bridge: %w", err)
	}

	auth, err := a.keyedTransactor(ctx, hubRPC)
	if err != nil {
		return clients.TxResult{}, err
	}

	bridgeContract := bind.NewBoundContract(addrs.Bridge, parsedBridgeABI, hubRPC, hubRPC, hubRPC)
	tx, err := bridgeContract.Transact(auth, "deposit", l1Token, amount, new(big.Int).SetUint64(uint64(chain)), relayer)
	if err != nil {
		return clients.TxResult{}, fmt.Errorf("deposit: %w", err)
	}

	receipt, err := bind.WaitMined(ctx, hubRPC, tx)
	if err != nil {
		return clients.TxResult{}, fmt.Errorf("wait for deposit: %w", err)
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return clients.TxResult{}, fmt.Errorf("deposit transaction reverted")
	}

	return clients.TxResult{Hash: tx.Hash().Hex()}, nil
}

// SetL1TokenApprovals ensures the relayer has approved the hub-chain
// canonical bridge for each of l1Tokens, across every configured
// destination's bridge contract address (a canonical bridge deployment
// commonly shares one hub-side contract across destinations, but this
// loop tolerates per-destination contracts too).
func (a *AdapterManager) SetL1TokenApprovals(ctx context.Context, relayer nbtypes.Relayer, l1Tokens []nbtypes.L1Token) error {
	hubRPC, err := a.rpc.get(a.hub)
	if err != nil {
		return err
	}

	maxApproval := new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))
	seen := make(map[common.Address]bool)
	for _, addrs := range a.addrs {
		if seen[addrs.Bridge] {
			continue
		}
		seen[addrs.Bridge] = true
		for _, token := range l1Tokens {
			if err := a.approveIfNeeded(ctx, hubRPC, token, addrs.Bridge, maxApproval); err != nil {
				return fmt.Errorf("approve %s: %w", token.Hex(), err)
			}
		}
	}
	return nil
}

func (a *AdapterManager) approveIfNeeded(ctx context.Context, rpc *ethclient.Client, token, spender common.Address, amount *big.Int) error {
	owner := crypto.PubkeyToAddress(a.privateKey.PublicKey)

	allowanceData, err := parsedERC20ABI.Pack("allowance", owner, spender)
	if err != nil {
		return fmt.Errorf("pack allowance: %w", err)
	}
	result, err := rpc.CallContract(ctx, callMsg(token, allowanceData), nil)
	if err != nil {
		return fmt.Errorf("call allowance: %w", err)
	}
	out, err := parsedERC20ABI.Unpack("allowance", result)
	if err != nil {
		return fmt.Errorf("unpack allowance: %w", err)
	}
	current, ok := out[0].(*big.Int)
	if !ok {
		return fmt.Errorf("unexpected allowance return type %T", out[0])
	}
	if current.Cmp(amount) >= 0 {
		return nil
	}

	auth, err := a.keyedTransactor(ctx, rpc)
	if err != nil {
		return err
	}
	tokenContract := bind.NewBoundContract(token, parsedERC20ABI, rpc, rpc, rpc)
	tx, err := tokenContract.Transact(auth, "approve", spender, amount)
	if err != nil {
		return fmt.Errorf("approve: %w", err)
	}
	receipt, err := bind.WaitMined(ctx, rpc, tx)
	if err != nil {
		return fmt.Errorf("wait for approval: %w", err)
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return fmt.Errorf("approval transaction reverted")
	}
	return nil
}

// WrapEthIfAboveThreshold wraps the hub chain's native gas balance into
// WETH whenever it exceeds config.WrapEtherThreshold, wrapping down to
// config.WrapEtherTarget. This is the hub-side companion to the L2 unwrap
// cycle: native ETH accumulates on the hub and is periodically converted
// into WETH, a bridgeable ERC-20.
func (a *AdapterManager) WrapEthIfAboveThreshold(ctx context.Context, cfg clients.WrapConfig, simMode bool) error {
	if cfg.WrapEtherThreshold == nil || cfg.WrapEtherThreshold.Sign() <= 0 {
		return nil
	}
	addrs, ok := a.addrs[a.hub]
	if !ok || (addrs.Weth == common.Address{}) {
		return nil
	}

	rpc, err := a.rpc.get(a.hub)
	if err != nil {
		return err
	}
	owner := crypto.PubkeyToAddress(a.privateKey.PublicKey)
	native, err := nativeBalanceOf(ctx, rpc, owner)
	if err != nil {
		return fmt.Errorf("read native balance: %w", err)
	}
	if native.Cmp(cfg.WrapEtherThreshold) < 0 {
		return nil
	}

	target := cfg.WrapEtherTarget
	if target == nil {
		target = big.NewInt(0)
	}
	amount := new(big.Int).Sub(native, target)
	if amount.Sign() <= 0 {
		return nil
	}

	if simMode {
		return nil
	}

	auth, err := a.keyedTransactor(ctx, rpc)
	if err != nil {
		return err
	}
	auth.Value = amount

	wethContract := bind.NewBoundContract(addrs.Weth, parsedWethABI, rpc, rpc, rpc)
	tx, err := wethContract.Transact(auth, "deposit")
	if err != nil {
		return fmt.Errorf("wrap deposit: %w", err)
	}
	receipt, err := bind.WaitMined(ctx, rpc, tx)
	if err != nil {
		return fmt.Errorf("wait for wrap: %w", err)
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return fmt.Errorf("wrap transaction reverted")
	}
	return nil
}

// UnwrapWeth calls WETH9.withdraw(amount) on chain, converting the
// relayer's wrapped balance back into native gas.
func (a *AdapterManager) UnwrapWeth(ctx context.Context, relayer nbtypes.Relayer, chain nbtypes.ChainID, amount *big.Int, simMode bool) (clients.TxResult, error) {
	addrs, ok := a.addrs[chain]
	if !ok || (addrs.Weth == common.Address{}) {
		return clients.TxResult{}, fmt.Errorf("onchain: no WETH contract configured for chain %d", chain)
	}

	if simMode {
		return clients.TxResult{Hash: simulatedTxHash("unwrap", addrs.Weth, chain, amount)}, nil
	}

	rpc, err := a.rpc.get(chain)
	if err != nil {
		return clients.TxResult{}, err
	}

	auth, err := a.keyedTransactor(ctx, rpc)
	if err != nil {
		return clients.TxResult{}, err
	}

	wethContract := bind.NewBoundContract(addrs.Weth, parsedWethABI, rpc, rpc, rpc)
	tx, err := wethContract.Transact(auth, "withdraw", amount)
	if err != nil {
		return clients.TxResult{}, fmt.Errorf("unwrap withdraw: %w", err)
	}
	receipt, err := bind.WaitMined(ctx, rpc, tx)
	if err != nil {
		return clients.TxResult{}, fmt.Errorf("wait for unwrap: %w", err)
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return clients.TxResult{}, fmt.Errorf("unwrap transaction reverted")
	}

	return clients.TxResult{Hash: tx.Hash().Hex()}, nil
}

func (a *AdapterManager) keyedTransactor(ctx context.Context, rpc *ethclient.Client) (*bind.TransactOpts, error) {
	chainID, err := rpc.ChainID(ctx)
	if err != nil {
		return nil, fmt.Errorf("read chain id: %w", err)
	}
	auth, err := bind.NewKeyedTransactorWithChainID(a.privateKey, chainID)
	if err != nil {
		return nil, fmt.Errorf("build transactor: %w", err)
	}
	auth.Context = ctx
	return auth, nil
}

// simulatedTxHash derives a deterministic pseudo-hash for a simMode
// submission, so callers still have something to log without ever
// broadcasting a transaction.
func simulatedTxHash(kind string, token common.Address, chain nbtypes.ChainID, amount *big.Int) string {
	payload := []byte(fmt.Sprintf("sim:%s:%s:%d:%s", kind, token.Hex(), chain, amount.String()))
	return crypto.Keccak256Hash(payload).Hex()
}
