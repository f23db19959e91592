// Package inventory implements the virtual-balance model, refund-chain
// selection, rebalance planning/execution, and native-gas unwrap cycle for
// a relayer's cross-chain working capital.
package inventory

import (
	"math/big"

	"github.com/nullbridge/relay-inventory/pkg/fixedpoint"
	"github.com/nullbridge/relay-inventory/pkg/types"
)

// RebalanceCandidate is one hub→L2 transfer the planner (C4) would make to
// close an allocation gap, per spec.md §3 "Rebalance plan entry".
type RebalanceCandidate struct {
	ChainID           types.ChainID
	L1Token           types.L1Token
	ThresholdPct      fixedpoint.Pct
	TargetPct         fixedpoint.Pct
	CurrentAllocPct   fixedpoint.Pct
	Balance           *big.Int // hub-chain balance at planning time, via the token balance tracker
	RawHubBalance     *big.Int // hub-chain balance at planning time, via an overlay-free on-chain read
	CumulativeBalance *big.Int
	Amount            *big.Int
}

// RebalanceOutcome is the result of attempting to execute one candidate
// (C5): exactly one of TxHash or SkipReason is meaningful.
type RebalanceOutcome struct {
	Candidate RebalanceCandidate
	Executed  bool
	TxHash    string
	// SkipReason is one of: "unallocated hub balance insufficient" (hub
	// balance insufficient at the time this candidate's turn came up),
	// "balance changed", or, on an accepted candidate whose submission
	// errored, "submission failed".
	SkipReason string
}

// RebalanceResult is the full outcome of one rebalanceInventoryIfNeeded
// cycle, partitioned for reporting.
type RebalanceResult struct {
	Accepted   []RebalanceOutcome
	Unexecuted []RebalanceOutcome
}

// UnwrapCandidate is one planned L2 WETH→native unwrap (C6), per spec.md
// §3 "Unwrap plan entry".
type UnwrapCandidate struct {
	ChainID        types.ChainID
	Threshold      *big.Int
	Target         *big.Int
	L2NativeBalance *big.Int
	Amount         *big.Int
}

// UnwrapOutcome is the result of attempting to submit one UnwrapCandidate.
type UnwrapOutcome struct {
	Candidate  UnwrapCandidate
	Executed   bool
	TxHash     string
	SkipReason string
}

// UnwrapResult is the full outcome of one unwrapWethIfNeeded cycle.
type UnwrapResult struct {
	Accepted   []UnwrapOutcome
	Unexecuted []UnwrapOutcome
}
