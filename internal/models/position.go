package models

import "time"

// OpenPosition is the single live position, if any. The Strategy Core holds
// the sole mutable reference to this slot; there is never more than one.
type OpenPosition struct {
	Symbol    string
	Side      PositionSide
	EntryPrice float64
	Quantity  float64
	EntryTime time.Time
	TradeID   int64
}

// ExitReason classifies why a position was closed.
type ExitReason string

const (
	ExitTP       ExitReason = "TP"
	ExitSL       ExitReason = "SL"
	ExitTimeStop ExitReason = "TIME_STOP"
	ExitManual   ExitReason = "MANUAL"
	ExitFlatten  ExitReason = "FLATTEN"
)

// TradeRecord is the persisted lifecycle row for one position: opened, then
// updated in place on close. Immutable once ExitReason is set.
type TradeRecord struct {
	ID             int64      `json:"id" db:"id"`
	Symbol         string     `json:"symbol" db:"symbol"`
	Side           PositionSide `json:"side" db:"side"`
	EntryPrice     float64    `json:"entry_price" db:"entry_price"`
	ExitPrice      float64    `json:"exit_price" db:"exit_price"`
	Quantity       float64    `json:"quantity" db:"quantity"`
	PnlUSDT        float64    `json:"pnl_usdt" db:"pnl_usdt"`
	PnlPct         float64    `json:"pnl_pct" db:"pnl_pct"`
	DurationS      int64      `json:"duration_s" db:"duration_s"`
	Fees           float64    `json:"fees" db:"fees"`
	SlippageEstPct float64    `json:"slippage_est_pct" db:"slippage_est_pct"`
	ExitReason     ExitReason `json:"exit_reason,omitempty" db:"exit_reason"`
	EntryTS        time.Time  `json:"entry_ts" db:"entry_ts"`
	ExitTS         time.Time  `json:"exit_ts,omitempty" db:"exit_ts"`
	SetupID        string     `json:"setup_id" db:"setup_id"`
}

// IsOpen reports whether the record has not yet been closed.
func (t *TradeRecord) IsOpen() bool {
	return t.ExitReason == ""
}
