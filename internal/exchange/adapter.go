package exchange

import (
	"context"
	"time"
)

// adapter.go - the Execution Adapter capability the Strategy Core drives.
// Two implementations share this interface: Live (signs authenticated
// requests to the venue) and Paper (synthesizes fills against the feed's
// mid price). Grounded on this package's existing Exchange interface
// (interface.go), narrowed to the single-venue, single-position operations
// spec.md §4.3 actually names.

// AdapterSide is the order side, distinct from the position side used
// elsewhere so BUY/SELL never gets confused with LONG/SHORT.
type AdapterSide string

const (
	AdapterBuy  AdapterSide = "BUY"
	AdapterSell AdapterSide = "SELL"
)

// AdapterPosition mirrors one venue position entry.
type AdapterPosition struct {
	Symbol        string
	SignedQty     float64 // positive = long, negative = short
	EntryPrice    float64
	UnrealizedPnl float64
	Leverage      int
}

// AdapterOrderStatus is the outcome of a market_order/limit_ioc call.
type AdapterOrderStatus string

const (
	OrderFilled        AdapterOrderStatus = "FILLED"
	OrderPartiallyFilled AdapterOrderStatus = "PARTIALLY_FILLED"
	OrderRejected      AdapterOrderStatus = "REJECTED"
	OrderExpired       AdapterOrderStatus = "EXPIRED" // IOC with no fill
)

// OrderResult is the outcome of market_order/limit_ioc.
type OrderResult struct {
	AvgPrice    float64
	ExecutedQty float64
	Status      AdapterOrderStatus
	LatencyMs   int64
}

// Adapter is the Execution Adapter's abstract capability. Paper and Live
// both implement it; the Strategy Core never branches on which one it has.
type Adapter struct {
	impl adapterImpl
}

// adapterImpl is the internal interface both Live and Paper satisfy; it's
// kept unexported so callers depend on the concrete Adapter wrapper, which
// gives us a stable seam for adding cross-cutting behavior (rate limiting,
// retry) later without changing every call site.
type adapterImpl interface {
	SetLeverage(ctx context.Context, symbol string, leverage int) error
	GetEquity(ctx context.Context) (float64, error)
	GetPositions(ctx context.Context) ([]AdapterPosition, error)
	MarketOrder(ctx context.Context, symbol string, side AdapterSide, qty float64) (OrderResult, error)
	LimitIOC(ctx context.Context, symbol string, side AdapterSide, qty, price float64) (OrderResult, error)
	CloseAll(ctx context.Context) error
	Name() string
}

// newAdapter wraps a concrete implementation (Live or Paper).
func newAdapter(impl adapterImpl) *Adapter {
	return &Adapter{impl: impl}
}

func (a *Adapter) Name() string { return a.impl.Name() }

func (a *Adapter) SetLeverage(ctx context.Context, symbol string, leverage int) error {
	return a.impl.SetLeverage(ctx, symbol, leverage)
}

func (a *Adapter) GetEquity(ctx context.Context) (float64, error) {
	return a.impl.GetEquity(ctx)
}

func (a *Adapter) GetPositions(ctx context.Context) ([]AdapterPosition, error) {
	return a.impl.GetPositions(ctx)
}

func (a *Adapter) MarketOrder(ctx context.Context, symbol string, side AdapterSide, qty float64) (OrderResult, error) {
	return a.impl.MarketOrder(ctx, symbol, side, qty)
}

func (a *Adapter) LimitIOC(ctx context.Context, symbol string, side AdapterSide, qty, price float64) (OrderResult, error) {
	return a.impl.LimitIOC(ctx, symbol, side, qty, price)
}

func (a *Adapter) CloseAll(ctx context.Context) error {
	return a.impl.CloseAll(ctx)
}

func elapsedMs(start time.Time) int64 {
	return time.Since(start).Milliseconds()
}
