// Package bundlefeed implements clients.BundleDataClient against a relayer
// hub API: an HTTP poll for the two refund-set queries, kept warm between
// polls by a websocket feed of bundle-settlement events. Modeled on
// gswap-arb/pkg/providers/websocket's poller-plus-live-feed split.
package bundlefeed

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"net/http"
	"sync"
	"time"

	"github.com/nullbridge/relay-inventory/pkg/clients"
	"github.com/nullbridge/relay-inventory/pkg/logging"
	"github.com/nullbridge/relay-inventory/pkg/types"
)

var log = logging.For("bundlefeed")

// Client is the HTTP-backed clients.BundleDataClient. It polls a relayer
// hub's REST API for refund sets and caches the last successful response
// per query, so a transient poll failure doesn't stall the refund cache's
// single-flight fetch (pkg/inventory's C7).
type Client struct {
	baseURL string
	http    *http.Client

	mu           sync.RWMutex
	cachedValid  []clients.RefundSet
	cachedNext   []clients.RefundSet
}

// NewClient builds a Client against baseURL, e.g. "https://hub.example.com".
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 15 * time.Second},
	}
}

var _ clients.BundleDataClient = (*Client)(nil)

type refundSetDTO struct {
	BundleID string                                        `json:"bundleId"`
	Refunds  map[string]map[string]string                  `json:"refunds"` // chainId -> l1Token -> amount
}

func (c *Client) fetch(ctx context.Context, path string, relayer types.Relayer) ([]clients.RefundSet, error) {
	url := fmt.Sprintf("%s%s?relayer=%s", c.baseURL, path, relayer.Hex())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("bundlefeed: build request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("bundlefeed: request %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("bundlefeed: %s returned status %d", path, resp.StatusCode)
	}

	var dtos []refundSetDTO
	if err := json.NewDecoder(resp.Body).Decode(&dtos); err != nil {
		return nil, fmt.Errorf("bundlefeed: decode %s: %w", path, err)
	}

	return toRefundSets(dtos)
}

func toRefundSets(dtos []refundSetDTO) ([]clients.RefundSet, error) {
	sets := make([]clients.RefundSet, 0, len(dtos))
	for _, dto := range dtos {
		set := clients.RefundSet{
			BundleID: dto.BundleID,
			Refunds:  make(map[types.ChainID]map[types.L1Token]*big.Int),
		}
		for chainStr, byToken := range dto.Refunds {
			var chain uint64
			if _, err := fmt.Sscanf(chainStr, "%d", &chain); err != nil {
				return nil, fmt.Errorf("bundlefeed: invalid chain id %q: %w", chainStr, err)
			}
			tokenMap := make(map[types.L1Token]*big.Int, len(byToken))
			for tokenHex, amountStr := range byToken {
				amount, ok := new(big.Int).SetString(amountStr, 10)
				if !ok {
					return nil, fmt.Errorf("bundlefeed: invalid refund amount %q", amountStr)
				}
				tokenMap[hexToAddress(tokenHex)] = amount
			}
			set.Refunds[types.ChainID(chain)] = tokenMap
		}
		sets = append(sets, set)
	}
	return sets, nil
}

// PendingRefundsFromValidBundles polls the hub for refund sets from
// already-validated bundles, updating the live-feed cache on success.
func (c *Client) PendingRefundsFromValidBundles(ctx context.Context, relayer types.Relayer) ([]clients.RefundSet, error) {
	sets, err := c.fetch(ctx, "/bundles/valid/refunds", relayer)
	if err != nil {
		if cached := c.cachedValidSets(); cached != nil {
			log.Warn().Err(err).Msg("valid-bundle refund poll failed, serving cached sets")
			return cached, nil
		}
		return nil, err
	}
	c.mu.Lock()
	c.cachedValid = sets
	c.mu.Unlock()
	return sets, nil
}

// NextBundleRefunds polls the hub for refund sets from the next one or two
// upcoming bundles.
func (c *Client) NextBundleRefunds(ctx context.Context, relayer types.Relayer) ([]clients.RefundSet, error) {
	sets, err := c.fetch(ctx, "/bundles/next/refunds", relayer)
	if err != nil {
		if cached := c.cachedNextSets(); cached != nil {
			log.Warn().Err(err).Msg("next-bundle refund poll failed, serving cached sets")
			return cached, nil
		}
		return nil, err
	}
	c.mu.Lock()
	c.cachedNext = sets
	c.mu.Unlock()
	return sets, nil
}

func (c *Client) cachedValidSets() []clients.RefundSet {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.cachedValid
}

func (c *Client) cachedNextSets() []clients.RefundSet {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.cachedNext
}

// TotalRefund sums the refund owed to relayer on chain for token across
// every set in sets. It is pure and does not touch the network, matching
// clients.BundleDataClient's contract that the core never inspects a
// RefundSet's internals directly.
func (c *Client) TotalRefund(sets []clients.RefundSet, relayer types.Relayer, chain types.ChainID, token types.L1Token) *big.Int {
	total := big.NewInt(0)
	for _, set := range sets {
		byToken, ok := set.Refunds[chain]
		if !ok {
			continue
		}
		amount, ok := byToken[token]
		if !ok || amount == nil {
			continue
		}
		total.Add(total, amount)
	}
	return total
}
