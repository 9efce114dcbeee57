package strategy

import (
	"context"
	"time"

	"reversion/internal/exchange"
	"reversion/internal/metrics"
	"reversion/internal/models"
	"reversion/pkg/utils"
)

// monitor.go - the 100ms position monitor (spec.md §4.5). Grounded on
// internal/bot/engine.go's positionEventLoop, narrowed from "one loop per
// pair" to "one tick handler for the single open position slot".

// onTick evaluates the exit conditions against the current mid price, in
// TP -> SL -> TIME_STOP priority, first match wins. A no-op when there is
// no open position.
func (c *Core) onTick(ctx context.Context, now time.Time) {
	if c.position == nil {
		return
	}

	mid, ok := c.cache.Mid(c.position.Symbol)
	if !ok || mid <= 0 {
		return
	}

	pnlPct := pnlPercent(*c.position, mid)

	switch {
	case pnlPct >= c.params.TPPct:
		c.closePosition(ctx, mid, models.ExitTP, now)
	case pnlPct <= -c.params.SLPct:
		c.closePosition(ctx, mid, models.ExitSL, now)
	case now.Sub(c.position.EntryTime) >= time.Duration(c.params.TimeStopSeconds)*time.Second:
		c.closePosition(ctx, mid, models.ExitTimeStop, now)
	}
}

// pnlPercent returns (current-entry)/entry for LONG, negated for SHORT.
func pnlPercent(pos models.OpenPosition, currentPrice float64) float64 {
	pct := (currentPrice - pos.EntryPrice) / pos.EntryPrice
	if pos.Side == models.PositionShort {
		return -pct
	}
	return pct
}

// closePosition submits the opposing market order, computes realized pnl
// and fees, updates the Trade Record, notifies the Risk Governor, and
// clears the Open Position slot. referencePrice is used as the fallback
// exit price if the adapter doesn't report one (e.g. a Paper fill that
// still reports AvgPrice, so this only matters on adapter error paths
// upstream of this call, which never reach here).
func (c *Core) closePosition(ctx context.Context, referencePrice float64, reason models.ExitReason, now time.Time) {
	pos := *c.position

	closingSide := exchange.AdapterSell
	if pos.Side == models.PositionShort {
		closingSide = exchange.AdapterBuy
	}

	res, err := c.submitWithTimeout(ctx, pos.Symbol, closingSide, pos.Quantity)
	exitPrice := referencePrice
	if err == nil && res.AvgPrice > 0 {
		exitPrice = res.AvgPrice
	} else if err != nil && c.log != nil {
		c.log.Error("exit order failed, recording at reference price",
			utils.String("symbol", pos.Symbol), utils.Err(err))
	}

	pnlPct := pnlPercent(pos, exitPrice)
	pnlUSDT := pos.EntryPrice * pos.Quantity * pnlPct
	fees := absFloat(pnlUSDT) * c.params.TakerFeeRate
	durationS := int64(now.Sub(pos.EntryTime).Seconds())

	closed := models.TradeRecord{
		ID:         pos.TradeID,
		Symbol:     pos.Symbol,
		Side:       pos.Side,
		EntryPrice: pos.EntryPrice,
		ExitPrice:  exitPrice,
		Quantity:   pos.Quantity,
		PnlUSDT:    pnlUSDT,
		PnlPct:     pnlPct,
		DurationS:  durationS,
		Fees:       fees,
		ExitReason: reason,
		EntryTS:    pos.EntryTime,
		ExitTS:     now,
	}
	c.sink.RecordTradeClosed(closed)
	if c.push != nil {
		c.push.BroadcastTradeClosed(closed)
	}

	c.governor.OnTradeClosed(pnlUSDT - fees)
	day := c.governor.Snapshot()
	c.sink.RecordMetrics(models.MetricsSnapshot{
		Timestamp:         now,
		PnlTodayUSDT:      day.PnlToday,
		TradeCountToday:   day.TradeCountToday,
		WinCount:          day.RealizedWins,
		LossCount:         day.RealizedLosses,
		ConsecutiveLosses: day.ConsecutiveLosses,
		EquityBaseline:    day.EquityBaseline,
	})
	metrics.RecordTradeClosed(pos.Symbol, string(reason), pnlUSDT-fees)
	c.position = nil

	if c.log != nil {
		c.log.Info("position closed",
			utils.String("symbol", pos.Symbol),
			utils.String("reason", string(reason)),
			utils.Float64("pnl_usdt", pnlUSDT),
			utils.Float64("fees", fees))
	}
}

// flatten force-exits any open position with reason FLATTEN. Called from
// the control-plane flatten command and from shutdown.
func (c *Core) flatten(ctx context.Context, reason models.ExitReason) {
	if c.position == nil {
		return
	}
	mid, ok := c.cache.Mid(c.position.Symbol)
	if !ok || mid <= 0 {
		mid = c.position.EntryPrice
	}
	c.closePosition(ctx, mid, reason, time.Now())
}
