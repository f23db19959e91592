package bundlefeed

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gorilla/websocket"
)

func hexToAddress(s string) common.Address { return common.HexToAddress(s) }

// bundleSettledEvent is the payload the hub pushes over the live feed
// whenever a bundle transitions state; it carries the same shape the poll
// endpoints return so the live feed can just replace the cache wholesale.
type bundleSettledEvent struct {
	Kind    string         `json:"kind"` // "valid" or "next"
	Bundles []refundSetDTO `json:"bundles"`
}

// LiveFeed keeps a Client's cached refund sets warm by subscribing to the
// hub's websocket feed. PendingRefundsFromValidBundles/NextBundleRefunds
// still poll on every call; the cache they fall back to when a poll fails
// is then the latest pushed state rather than the last poll's result.
// It does not touch pkg/inventory's per-cycle refund cache. Connection handling follows
// gswap-arb's WebSocket providers: dial, read loop, exponential-ish
// reconnect with a capped delay.
type LiveFeed struct {
	url    string
	client *Client

	mu     sync.Mutex
	conn   *websocket.Conn
	cancel context.CancelFunc

	reconnectDelay    time.Duration
	maxReconnectDelay time.Duration
}

// NewLiveFeed builds a LiveFeed that updates client's cache as events
// arrive from url (a "wss://" endpoint).
func NewLiveFeed(url string, client *Client) *LiveFeed {
	return &LiveFeed{
		url:               url,
		client:            client,
		reconnectDelay:    time.Second,
		maxReconnectDelay: 30 * time.Second,
	}
}

// Run connects and processes events until ctx is canceled, reconnecting on
// drop. It blocks; callers should invoke it in its own goroutine.
func (f *LiveFeed) Run(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	f.mu.Lock()
	f.cancel = cancel
	f.mu.Unlock()

	delay := f.reconnectDelay
	for {
		if ctx.Err() != nil {
			return
		}

		if err := f.connectAndRead(ctx); err != nil {
			log.Warn().Err(err).Dur("retry_in", delay).Msg("bundle feed disconnected, reconnecting")
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(delay):
		}

		delay *= 2
		if delay > f.maxReconnectDelay {
			delay = f.maxReconnectDelay
		}
	}
}

// Stop tears down the feed's connection and stops reconnect attempts.
func (f *LiveFeed) Stop() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.cancel != nil {
		f.cancel()
	}
	if f.conn != nil {
		f.conn.Close()
		f.conn = nil
	}
}

func (f *LiveFeed) connectAndRead(ctx context.Context) error {
	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, _, err := dialer.DialContext(ctx, f.url, nil)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}

	f.mu.Lock()
	f.conn = conn
	f.mu.Unlock()

	log.Info().Str("url", f.url).Msg("connected to bundle feed")

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("read: %w", err)
		}

		var event bundleSettledEvent
		if err := json.Unmarshal(message, &event); err != nil {
			log.Warn().Err(err).Msg("dropping malformed bundle feed message")
			continue
		}

		sets, err := toRefundSets(event.Bundles)
		if err != nil {
			log.Warn().Err(err).Msg("dropping bundle feed event with invalid refund set")
			continue
		}

		f.client.mu.Lock()
		switch event.Kind {
		case "valid":
			f.client.cachedValid = sets
		case "next":
			f.client.cachedNext = sets
		}
		f.client.mu.Unlock()
	}
}
