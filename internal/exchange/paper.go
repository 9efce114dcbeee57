package exchange

import (
	"context"
	"fmt"
	"math/rand"
)

// paper.go - the Paper adapter. Synthesizes fills against the live mid
// price with uniform random slippage in [0.01%, 0.03%] in the adverse
// direction, reports zero network latency, and keeps no position ledger of
// its own - the Strategy Core's Open Position slot is the only source of
// truth for what's "open" in paper mode. GetPositions and CloseAll are
// therefore stubs: the core never needs the adapter to tell it what it
// already owns, and flatten in paper mode goes through MarketOrder
// directly against the core's tracked position rather than through
// CloseAll.

// MidPriceFunc returns the current mid price for symbol, mirroring
// feed.Cache.Mid without introducing an import cycle between exchange and
// feed (feed imports exchange for the reconnect manager).
type MidPriceFunc func(symbol string) (float64, bool)

// Paper is the simulated adapter used when VenueConfig.Mode == "paper".
type Paper struct {
	mid      MidPriceFunc
	equity   float64
	leverage map[string]int
}

// NewPaper builds a Paper adapter seeded with a fixed equity baseline (the
// operator-configured paper balance) and a mid-price source.
func NewPaper(equity float64, mid MidPriceFunc) *Paper {
	return &Paper{
		mid:      mid,
		equity:   equity,
		leverage: make(map[string]int),
	}
}

func (p *Paper) Name() string { return "paper" }

func (p *Paper) SetLeverage(ctx context.Context, symbol string, leverage int) error {
	p.leverage[symbol] = leverage
	return nil
}

func (p *Paper) GetEquity(ctx context.Context) (float64, error) {
	return p.equity, nil
}

func (p *Paper) GetPositions(ctx context.Context) ([]AdapterPosition, error) {
	return nil, nil
}

func (p *Paper) MarketOrder(ctx context.Context, symbol string, side AdapterSide, qty float64) (OrderResult, error) {
	mid, ok := p.mid(symbol)
	if !ok || mid <= 0 {
		return OrderResult{Status: OrderRejected}, fmt.Errorf("paper: no mid price for %s", symbol)
	}
	fill := applySlippage(mid, side)
	return OrderResult{
		AvgPrice:    fill,
		ExecutedQty: qty,
		Status:      OrderFilled,
		LatencyMs:   0,
	}, nil
}

// LimitIOC in paper mode fills immediately at the slipped mid (as
// MarketOrder does) if the requested price crosses the simulated mid,
// else reports OrderExpired - there is no real
// order book to rest an unfilled IOC against.
func (p *Paper) LimitIOC(ctx context.Context, symbol string, side AdapterSide, qty, price float64) (OrderResult, error) {
	mid, ok := p.mid(symbol)
	if !ok || mid <= 0 {
		return OrderResult{Status: OrderRejected}, fmt.Errorf("paper: no mid price for %s", symbol)
	}

	crosses := (side == AdapterBuy && price >= mid) || (side == AdapterSell && price <= mid)
	if !crosses {
		return OrderResult{Status: OrderExpired}, nil
	}

	fill := applySlippage(mid, side)
	return OrderResult{
		AvgPrice:    fill,
		ExecutedQty: qty,
		Status:      OrderFilled,
		LatencyMs:   0,
	}, nil
}

func (p *Paper) CloseAll(ctx context.Context) error {
	return nil
}

// applySlippage moves price against the taker by a uniform random amount
// in [0.01%, 0.03%]: buys fill slightly above mid, sells slightly below.
func applySlippage(mid float64, side AdapterSide) float64 {
	slipPct := 0.0001 + rand.Float64()*0.0002
	if side == AdapterBuy {
		return mid * (1 + slipPct)
	}
	return mid * (1 - slipPct)
}

// NewPaperAdapter wraps a Paper implementation as the public Adapter type.
func NewPaperAdapter(equity float64, mid MidPriceFunc) *Adapter {
	return newAdapter(NewPaper(equity, mid))
}
