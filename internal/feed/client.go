package feed

import (
	"fmt"
	"sync"

	"reversion/internal/exchange"
	"reversion/internal/models"
	"reversion/pkg/utils"
)

// client.go - wires exchange.WSReconnectManager to the venue's combined
// stream and dispatches typed events into the Strategy Core's mailbox.
// Connection handling (backoff, ping, resubscribe) is entirely the
// teacher's; this file only supplies the message handler and the
// feed_unavailable signal the exhausted-retries callback raises.

// Handlers is the set of callbacks the Strategy Core registers to receive
// typed events off the feed. Unset is equivalent to a no-op.
type Handlers struct {
	OnLiquidation    func(models.Liquidation)
	OnTrade          func(models.Trade)
	OnBookTicker     func(models.BookTicker)
	OnFeedUnavailable func()
}

// Client owns the venue WebSocket connection and the per-symbol caches fed
// by it.
type Client struct {
	Cache *Cache

	mgr      *exchange.WSReconnectManager
	symbols  []string
	log      *utils.Logger

	mu       sync.RWMutex
	handlers Handlers

	unavailable bool
}

// NewClient builds a feed client for wsURL subscribing to streams for the
// given symbols. The caller must call SetHandlers before Connect if it wants
// to receive events (handlers may also be set after, they just miss
// anything dispatched in between).
func NewClient(wsURL string, symbols []string, log *utils.Logger) *Client {
	cfg := exchange.DefaultWSReconnectConfig()
	mgr := exchange.NewWSReconnectManager("venue-feed", wsURL, cfg)

	c := &Client{
		Cache:   NewCache(symbols),
		mgr:     mgr,
		symbols: symbols,
		log:     log,
	}

	mgr.SetOnMessage(c.handleMessage)
	mgr.SetOnConnect(func() {
		c.mu.Lock()
		c.unavailable = false
		c.mu.Unlock()
		if log != nil {
			log.Info("feed connected")
		}
	})
	mgr.SetOnDisconnect(func(err error) {
		if log != nil && err != nil {
			log.Warn("feed disconnected", utils.Err(err))
		}
	})
	mgr.SetOnExhausted(c.handleExhausted)

	for _, sym := range symbols {
		mgr.AddSubscription(streamSubscription(sym))
	}

	return c
}

// streamSubscription is the combined-stream subscribe frame for one
// symbol's aggTrade and bookTicker channels plus the shared forceOrder feed.
func streamSubscription(symbol string) map[string]interface{} {
	lower := toLower(symbol)
	return map[string]interface{}{
		"method": "SUBSCRIBE",
		"params": []string{
			lower + "@aggTrade",
			lower + "@bookTicker",
			"!forceOrder@arr",
		},
	}
}

func toLower(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c + ('a' - 'A')
		}
	}
	return string(b)
}

// SetHandlers registers the typed-event callbacks.
func (c *Client) SetHandlers(h Handlers) {
	c.mu.Lock()
	c.handlers = h
	c.mu.Unlock()
}

// Connect dials the venue stream. Reconnect, backoff, and resubscribe are
// handled internally by the WSReconnectManager.
func (c *Client) Connect() error {
	if err := c.mgr.Connect(); err != nil {
		return fmt.Errorf("feed connect: %w", err)
	}
	for _, sym := range c.symbols {
		if err := c.mgr.Send(streamSubscription(sym)); err != nil {
			return fmt.Errorf("feed subscribe %s: %w", sym, err)
		}
	}
	return nil
}

// Close tears down the underlying connection.
func (c *Client) Close() error {
	return c.mgr.Close()
}

// Unavailable reports whether the feed has exhausted its reconnect budget.
// The Strategy Core consults this to stop admitting new entries while
// continuing to monitor any open position through the last cached prices.
func (c *Client) Unavailable() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.unavailable
}

func (c *Client) handleExhausted() {
	c.mu.Lock()
	c.unavailable = true
	h := c.handlers.OnFeedUnavailable
	c.mu.Unlock()

	if c.log != nil {
		c.log.Error("feed_unavailable: reconnect attempts exhausted")
	}
	if h != nil {
		h()
	}
}

// handleMessage parses one inbound frame and, on success, updates the
// relevant cache and fans the typed event out to the registered handler.
// Parse errors are logged and skipped; per spec they never drop the
// connection.
func (c *Client) handleMessage(raw []byte) {
	evt, err := parseFrame(raw)
	if err != nil {
		if c.log != nil {
			c.log.Warn("feed frame parse error", utils.Err(err))
		}
		return
	}
	if evt == nil {
		return
	}

	c.mu.RLock()
	h := c.handlers
	c.mu.RUnlock()

	switch {
	case evt.Liquidation != nil:
		if h.OnLiquidation != nil {
			h.OnLiquidation(*evt.Liquidation)
		}
	case evt.Trade != nil:
		c.Cache.OnTrade(*evt.Trade)
		if h.OnTrade != nil {
			h.OnTrade(*evt.Trade)
		}
	case evt.BookTicker != nil:
		c.Cache.OnBookTicker(*evt.BookTicker)
		if h.OnBookTicker != nil {
			h.OnBookTicker(*evt.BookTicker)
		}
	}
}
