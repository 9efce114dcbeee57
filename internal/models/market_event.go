package models

import "time"

// MarketEvent is the persisted gate-decision breakdown for one Liquidation,
// whether or not it resulted in an entry. Every factor is recorded so the
// reader can reconstruct exactly why a signal passed or was rejected.
type MarketEvent struct {
	ID        int64     `json:"id" db:"id"`
	Symbol    string     `json:"symbol" db:"symbol"`
	Timestamp time.Time  `json:"timestamp" db:"timestamp"`

	LiqSide     Side    `json:"liq_side" db:"liq_side"`
	LiqPrice    float64 `json:"liq_price" db:"liq_price"`
	LiqNotional float64 `json:"liq_notional" db:"liq_notional"`

	LiqSizeOK    bool    `json:"liq_size_ok" db:"liq_size_ok"`
	VolumeMult   float64 `json:"volume_mult" db:"volume_mult"`
	VolumeOK     bool    `json:"volume_ok" db:"volume_ok"`
	SpreadBps    float64 `json:"spread_bps" db:"spread_bps"`
	SpreadOK     bool    `json:"spread_ok" db:"spread_ok"`
	PriceDelta   float64 `json:"price_delta" db:"price_delta"`
	MomentumOK   bool    `json:"momentum_ok" db:"momentum_ok"`
	Exhaustion   int     `json:"exhaustion" db:"exhaustion"`
	ExhaustionOK bool    `json:"exhaustion_ok" db:"exhaustion_ok"`

	RiskAdmitted bool   `json:"risk_admitted" db:"risk_admitted"`
	Passed       bool   `json:"passed" db:"passed"`
	RejectReason string `json:"reject_reason,omitempty" db:"reject_reason"`
}
