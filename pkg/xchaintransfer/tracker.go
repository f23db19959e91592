// Package xchaintransfer implements an in-memory clients.CrossChainTransferClient:
// a mutex-guarded ledger of bridge deposits that haven't yet been credited
// on their destination chain.
package xchaintransfer

import (
	"context"
	"math/big"
	"sync"

	"github.com/nullbridge/relay-inventory/pkg/clients"
	"github.com/nullbridge/relay-inventory/pkg/types"
)

// FinalityChecker reports how much of the previously recorded deposits has
// landed on its destination chain so far. Production wiring would poll the canonical
// bridge's deposit-finalized event; this core only needs the interface.
type FinalityChecker interface {
	IsFinalized(ctx context.Context, relayer types.Relayer, chain types.ChainID, l1Token types.L1Token) (*big.Int, error)
}

type key struct {
	l1Token types.L1Token
	chain   types.ChainID
}

// Tracker is the in-memory CrossChainTransferClient. Entries accumulate via
// IncreaseOutstandingTransfer and drain via Update, which asks an optional
// FinalityChecker how much of each outstanding balance has landed.
type Tracker struct {
	mu       sync.Mutex
	balances map[key]*big.Int
	checker  FinalityChecker
}

// NewTracker builds a Tracker. checker may be nil, in which case Update is
// a no-op and outstanding transfers never drain: Tracker has no other
// method that lowers an entry.
func NewTracker(checker FinalityChecker) *Tracker {
	return &Tracker{balances: make(map[key]*big.Int), checker: checker}
}

var _ clients.CrossChainTransferClient = (*Tracker)(nil)

func (t *Tracker) OutstandingCrossChainTransferAmount(ctx context.Context, relayer types.Relayer, chain types.ChainID, l1Token types.L1Token) (*big.Int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	amt, ok := t.balances[key{l1Token, chain}]
	if !ok {
		return big.NewInt(0), nil
	}
	return new(big.Int).Set(amt), nil
}

func (t *Tracker) IncreaseOutstandingTransfer(ctx context.Context, relayer types.Relayer, l1Token types.L1Token, amount *big.Int, chain types.ChainID) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	k := key{l1Token, chain}
	cur, ok := t.balances[k]
	if !ok {
		cur = big.NewInt(0)
	}
	t.balances[k] = new(big.Int).Add(cur, amount)
	return nil
}

// Update asks the finality checker, for every l1Token, how much of the
// outstanding balance on each chain it's tracking has landed, and
// subtracts the landed amount so balanceOn (C1) stops double counting it.
func (t *Tracker) Update(ctx context.Context, l1Tokens []types.L1Token) error {
	if t.checker == nil {
		return nil
	}

	t.mu.Lock()
	keys := make([]key, 0, len(t.balances))
	for k := range t.balances {
		keys = append(keys, k)
	}
	t.mu.Unlock()

	wanted := make(map[types.L1Token]bool, len(l1Tokens))
	for _, tok := range l1Tokens {
		wanted[tok] = true
	}

	for _, k := range keys {
		if !wanted[k.l1Token] {
			continue
		}
		landed, err := t.checker.IsFinalized(ctx, types.Relayer{}, k.chain, k.l1Token)
		if err != nil {
			return err
		}
		if landed == nil || landed.Sign() <= 0 {
			continue
		}

		t.mu.Lock()
		cur, ok := t.balances[k]
		if ok {
			remaining := new(big.Int).Sub(cur, landed)
			if remaining.Sign() <= 0 {
				delete(t.balances, k)
			} else {
				t.balances[k] = remaining
			}
		}
		t.mu.Unlock()
	}
	return nil
}
