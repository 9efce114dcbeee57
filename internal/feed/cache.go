package feed

import (
	"math"
	"sync"
	"time"

	"reversion/internal/models"
)

// cache.go - per-symbol state the Market Feed maintains from the venue
// streams: last trade price, last book ticker, a bounded price-history log,
// and a bounded trade-volume log. Rolling Statistics reads these caches
// through snapshot methods; it never reaches into the maps directly.

const (
	priceHistoryTTL  = 5 * time.Minute
	volumeWindowCap  = 1000
	staleBookTimeout = 2 * time.Second
	// staleSpreadSentinel is returned by SpreadBps when the book has gone
	// stale; spec requires spread checks to fail safe, so this must sort
	// above any configured max_spread_bps.
	staleSpreadSentinel = math.MaxFloat64
)

// PricePoint is one sample in a symbol's price-history log.
type PricePoint struct {
	Price     float64
	Timestamp time.Time
}

// SymbolCache holds one symbol's rolling feed state.
type SymbolCache struct {
	mu sync.RWMutex

	lastTrade    models.Trade
	haveTrade    bool
	lastBook     models.BookTicker
	lastBookTime time.Time
	haveBook     bool

	priceHistory []PricePoint
	volumeWindow []float64 // per-trade notional, most recent appended last
}

func newSymbolCache() *SymbolCache {
	return &SymbolCache{
		priceHistory: make([]PricePoint, 0, 256),
		volumeWindow: make([]float64, 0, volumeWindowCap),
	}
}

// onBookTicker updates the book cache. Mid price is derived on read, not
// stored separately, so there is a single source of truth for bid/ask.
func (c *SymbolCache) onBookTicker(bt models.BookTicker) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastBook = bt
	c.lastBookTime = bt.Timestamp
	c.haveBook = true
}

// onTrade appends to the price-history log (evicting entries older than
// priceHistoryTTL) and the volume window (evicting beyond volumeWindowCap),
// and updates the last-trade cache.
func (c *SymbolCache) onTrade(t models.Trade) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.lastTrade = t
	c.haveTrade = true

	c.priceHistory = append(c.priceHistory, PricePoint{Price: t.Price, Timestamp: t.Timestamp})
	cutoff := t.Timestamp.Add(-priceHistoryTTL)
	evictBefore := 0
	for evictBefore < len(c.priceHistory) && c.priceHistory[evictBefore].Timestamp.Before(cutoff) {
		evictBefore++
	}
	if evictBefore > 0 {
		c.priceHistory = append(c.priceHistory[:0], c.priceHistory[evictBefore:]...)
	}

	c.volumeWindow = append(c.volumeWindow, t.Notional())
	if len(c.volumeWindow) > volumeWindowCap {
		excess := len(c.volumeWindow) - volumeWindowCap
		c.volumeWindow = append(c.volumeWindow[:0], c.volumeWindow[excess:]...)
	}
}

// mid returns (bid+ask)/2 and whether a book snapshot exists at all.
func (c *SymbolCache) mid() (float64, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if !c.haveBook {
		return 0, false
	}
	return c.lastBook.Mid(), true
}

// spreadBps returns (ask-bid)/mid in basis points, or staleSpreadSentinel if
// the book is missing or hasn't updated within staleBookTimeout.
func (c *SymbolCache) spreadBps(now time.Time) float64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if !c.haveBook {
		return staleSpreadSentinel
	}
	if now.Sub(c.lastBookTime) > staleBookTimeout {
		return staleSpreadSentinel
	}
	mid := c.lastBook.Mid()
	if mid <= 0 {
		return staleSpreadSentinel
	}
	return (c.lastBook.AskPrice - c.lastBook.BidPrice) / mid * 10000
}

// priceHistorySnapshot returns a copy of the price-history log, oldest first.
func (c *SymbolCache) priceHistorySnapshot() []PricePoint {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]PricePoint, len(c.priceHistory))
	copy(out, c.priceHistory)
	return out
}

// volumeWindowSnapshot returns a copy of the volume window, oldest first.
func (c *SymbolCache) volumeWindowSnapshot() []float64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]float64, len(c.volumeWindow))
	copy(out, c.volumeWindow)
	return out
}

func (c *SymbolCache) lastTradePrice() (float64, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if !c.haveTrade {
		return 0, false
	}
	return c.lastTrade.Price, true
}

// Cache fans out per-symbol state for every configured symbol. A plain
// mutex-guarded map is enough here: the spec bounds the configured symbol
// set to at most three, so the contention the teacher's FNV-sharded
// PriceTracker was built to avoid never materializes.
type Cache struct {
	mu      sync.RWMutex
	symbols map[string]*SymbolCache
}

// NewCache creates a Cache pre-populated with the given configured symbols.
func NewCache(symbols []string) *Cache {
	c := &Cache{symbols: make(map[string]*SymbolCache, len(symbols))}
	for _, s := range symbols {
		c.symbols[s] = newSymbolCache()
	}
	return c
}

func (c *Cache) get(symbol string) *SymbolCache {
	c.mu.RLock()
	sc, ok := c.symbols[symbol]
	c.mu.RUnlock()
	if ok {
		return sc
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if sc, ok := c.symbols[symbol]; ok {
		return sc
	}
	sc = newSymbolCache()
	c.symbols[symbol] = sc
	return sc
}

// OnBookTicker routes a BookTicker event into its symbol's cache.
func (c *Cache) OnBookTicker(bt models.BookTicker) {
	c.get(bt.Symbol).onBookTicker(bt)
}

// OnTrade routes a Trade event into its symbol's cache.
func (c *Cache) OnTrade(t models.Trade) {
	c.get(t.Symbol).onTrade(t)
}

// Mid returns the current mid price for symbol, if a book snapshot exists.
func (c *Cache) Mid(symbol string) (float64, bool) {
	return c.get(symbol).mid()
}

// SpreadBps returns the current spread in basis points for symbol.
func (c *Cache) SpreadBps(symbol string, now time.Time) float64 {
	return c.get(symbol).spreadBps(now)
}

// PriceHistory returns a snapshot of symbol's price-history log.
func (c *Cache) PriceHistory(symbol string) []PricePoint {
	return c.get(symbol).priceHistorySnapshot()
}

// VolumeWindow returns a snapshot of symbol's volume window.
func (c *Cache) VolumeWindow(symbol string) []float64 {
	return c.get(symbol).volumeWindowSnapshot()
}

// LastTradePrice returns the most recent trade price for symbol.
func (c *Cache) LastTradePrice(symbol string) (float64, bool) {
	return c.get(symbol).lastTradePrice()
}
