package inventory

import "errors"

// Sentinel errors for the core's operations, checked with errors.Is at the
// call sites that need to branch on them (spec.md §7).
var (
	// ErrTokenMismatch is raised by the refund selector when a fill's input
	// and output tokens are not declared equivalent by the hub-pool client.
	ErrTokenMismatch = errors.New("inventory: input and output tokens are not equivalent")

	// ErrMissingTokenInfo is raised when the hub-pool client has no
	// symbol/decimals metadata for a managed L1 token. Fatal to the cycle
	// that triggers it — the configuration is broken.
	ErrMissingTokenInfo = errors.New("inventory: no token metadata for configured L1 token")

	// ErrBalanceChanged marks a rebalance candidate skipped because the
	// on-chain hub balance no longer matches the planner's snapshot.
	ErrBalanceChanged = errors.New("inventory: on-chain balance changed since planning")

	// ErrDisabled is not a failure; it signals that inventory management
	// is turned off and callers should take the disabled-path default.
	ErrDisabled = errors.New("inventory: management disabled")
)
