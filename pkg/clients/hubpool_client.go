package clients

import (
	"context"

	"github.com/nullbridge/relay-inventory/pkg/types"
)

// HubPoolClient maps L1 tokens to their per-chain L2 mirrors and answers
// questions about token equivalence and metadata.
type HubPoolClient interface {
	// ChainID returns the hub chain ID.
	ChainID() types.ChainID

	// L2TokenFor resolves the L2 mirror of l1Token on chain.
	L2TokenFor(ctx context.Context, l1Token types.L1Token, chain types.ChainID) (types.L2Token, error)

	// L1TokenFor resolves the canonical L1 token for an L2 mirror on chain.
	L1TokenFor(ctx context.Context, l2Token types.L2Token, chain types.ChainID) (types.L1Token, error)

	// AreTokensEquivalent reports whether tokenA on chainA and tokenB on
	// chainB are mirrors of the same L1 token.
	AreTokensEquivalent(ctx context.Context, tokenA types.L2Token, chainA types.ChainID, tokenB types.L2Token, chainB types.ChainID) (bool, error)

	// L2TokenEnabledForL1Token reports whether l1 is configured and
	// enabled on chain.
	L2TokenEnabledForL1Token(ctx context.Context, l1 types.L1Token, chain types.ChainID) (bool, error)

	// TokenInfoFor returns symbol/decimals metadata for an L1 token.
	// Implementations return an error when no metadata is configured for a
	// managed token — this is the MissingTokenInfo condition (spec §7),
	// fatal to the cycle that triggers it.
	TokenInfoFor(ctx context.Context, l1Token types.L1Token) (types.TokenInfo, error)
}
