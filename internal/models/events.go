package models

import "time"

// Side of a liquidation, trade, or position.
type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

// PositionSide is the direction of an Open Position.
type PositionSide string

const (
	PositionLong  PositionSide = "LONG"
	PositionShort PositionSide = "SHORT"
)

// Liquidation is a forced-order event from the venue's !forceOrder@arr stream.
type Liquidation struct {
	Symbol    string
	Side      Side
	Price     float64
	Quantity  float64
	Timestamp time.Time
}

// Notional is price*quantity, the USD size of the forced order.
func (l Liquidation) Notional() float64 {
	return l.Price * l.Quantity
}

// Trade is an aggregate-trade tick from the <sym>@aggTrade stream.
type Trade struct {
	Symbol       string
	Price        float64
	Quantity     float64
	IsBuyerMaker bool
	Timestamp    time.Time
}

// Notional is the USD size of the trade.
func (t Trade) Notional() float64 {
	return t.Price * t.Quantity
}

// BookTicker is a top-of-book snapshot from the <sym>@bookTicker stream.
type BookTicker struct {
	Symbol    string
	BidPrice  float64
	BidQty    float64
	AskPrice  float64
	AskQty    float64
	Timestamp time.Time
}

// Mid returns (bid+ask)/2.
func (b BookTicker) Mid() float64 {
	return (b.BidPrice + b.AskPrice) / 2
}
