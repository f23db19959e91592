package types

import "math/big"

// FillDescriptor describes a pending fill whose refund chain the selector
// (C3) must choose. L1Token is optional: if the caller already resolved it,
// passing it in skips the hub-pool lookup.
type FillDescriptor struct {
	OriginChainID      ChainID
	DestinationChainID ChainID
	InputToken         L2Token
	OutputToken        L2Token
	OutputAmount       *big.Int
	DepositID          uint64
	L1Token            *L1Token // optional precomputed L1 token
}
