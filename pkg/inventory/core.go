package inventory

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/nullbridge/relay-inventory/pkg/clients"
	"github.com/nullbridge/relay-inventory/pkg/config"
	"github.com/nullbridge/relay-inventory/pkg/logging"
	"github.com/nullbridge/relay-inventory/pkg/types"
)

// Core holds the collaborator handles and configuration shared by the
// virtual-balance calculator, distribution calculator, refund selector,
// rebalance planner/executor, and unwrap cycle. It is constructed once per
// process; its only in-memory state across calls is the per-cycle refund
// cache and a one-shot "disabled" log latch (spec.md §3 "Lifecycle").
type Core struct {
	cfg     *config.InventoryConfig
	relayer types.Relayer

	tokenClient   clients.TokenClient
	onchainReader clients.OnChainReader
	hubPool       clients.HubPoolClient
	xferClient    clients.CrossChainTransferClient
	adapter       clients.AdapterManager
	bundleData    clients.BundleDataClient

	simMode bool

	// baseLog is the unadorned component logger; log is baseLog stamped
	// with the current cycle's correlation ID, refreshed on every
	// ResetCycle so every log line within a cycle can be grep'd together.
	baseLog zerolog.Logger
	log     zerolog.Logger

	mu             sync.Mutex
	refunds        *refundCache
	disabledLogged bool
}

// NewCore builds a Core. cfg is expected to already be resolved and
// validated (config.LoadFromFile does both).
func NewCore(
	cfg *config.InventoryConfig,
	relayer types.Relayer,
	tokenClient clients.TokenClient,
	onchainReader clients.OnChainReader,
	hubPool clients.HubPoolClient,
	xferClient clients.CrossChainTransferClient,
	adapter clients.AdapterManager,
	bundleData clients.BundleDataClient,
	simMode bool,
) *Core {
	base := logging.For("inventory")
	return &Core{
		cfg:           cfg,
		relayer:       relayer,
		tokenClient:   tokenClient,
		onchainReader: onchainReader,
		hubPool:       hubPool,
		xferClient:    xferClient,
		adapter:       adapter,
		bundleData:    bundleData,
		simMode:       simMode,
		baseLog:       base,
		log:           base,
		refunds:       newRefundCache(),
	}
}

// ResetCycle clears the per-cycle refund cache (C7) and stamps a fresh
// correlation ID onto the component logger, so every log line emitted by
// the upcoming rebalance/unwrap cycle can be grep'd together.
func (c *Core) ResetCycle() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.refunds = newRefundCache()
	c.log = c.baseLog.With().Str("cycleId", uuid.New().String()).Logger()
}

func (c *Core) logDisabledOnce(ctx context.Context) {
	c.mu.Lock()
	already := c.disabledLogged
	c.disabledLogged = true
	c.mu.Unlock()

	if !already {
		c.log.Info().Msg("inventory management disabled")
	}
}

func (c *Core) enabledChains(l1Token types.L1Token) []types.ChainID {
	byChain, ok := c.cfg.TokenConfig[l1Token]
	if !ok {
		return []types.ChainID{c.cfg.HubChainID}
	}
	chains := make([]types.ChainID, 0, len(byChain)+1)
	seenHub := false
	for chain := range byChain {
		chains = append(chains, chain)
		if chain == c.cfg.HubChainID {
			seenHub = true
		}
	}
	if !seenHub {
		chains = append(chains, c.cfg.HubChainID)
	}
	return chains
}
