package strategy

import (
	"context"
	"strings"
	"time"

	"reversion/internal/exchange"
	"reversion/internal/metrics"
	"reversion/internal/models"
	"reversion/pkg/utils"
)

// entry.go - the Liquidation handler, run only from the mailbox loop.
// Grounded on internal/bot/engine.go's checkArbitrageOpportunity/
// executeEntry pair, narrowed to a single venue and a single open position.

// onLiquidation runs the entry gate (spec.md §4.5 steps 1-10). It only
// evaluates when the core is RUNNING with no open position; a liquidation
// arriving in any other state is dropped with no Market Event, matching the
// teacher's isReady fast-path check before touching any shared state.
func (c *Core) onLiquidation(ctx context.Context, liq models.Liquidation) {
	if !AcceptsEntries(c.state) || c.position != nil {
		return
	}

	now := time.Now()
	metrics.LiquidationsDetected.WithLabelValues(liq.Symbol).Inc()
	if until, ok := c.cooldown[liq.Symbol]; ok && now.Before(until) {
		return
	}

	me := evaluateSignal(c.cache, c.params, liq, now)
	me.Symbol = liq.Symbol
	me.Timestamp = now

	decision, riskReasons := c.governor.Admit()
	me.RiskAdmitted = decision == models.Admit
	qualityPassed := signalQualityPassed(me)
	me.Passed = qualityPassed && me.RiskAdmitted

	reasons := rejectionReason(me, c.params, liq.Symbol)
	if decision != models.Admit && len(riskReasons) > 0 {
		if reasons != "" {
			reasons += "; "
		}
		reasons += strings.Join(riskReasons, "; ")
	}
	me.RejectReason = reasons

	c.sink.RecordMarketEvent(me)
	metrics.RecordMarketEvent(liq.Symbol, me.Passed)

	if decision == models.RejectAndPause {
		c.transition(models.StatePausedRiskLimit, "risk_governor_reject_and_pause")
		return
	}
	if !me.Passed {
		return
	}

	side := entrySide(liq.Side)
	c.executeEntry(ctx, liq.Symbol, side, now)
}

// executeEntry sizes and submits the entry order, then records the Trade
// Record and arms the symbol's cooldown. A sizing or submission failure
// leaves the core RUNNING with no position, ready for the next liquidation.
func (c *Core) executeEntry(ctx context.Context, symbol string, side models.PositionSide, now time.Time) {
	mid, ok := c.cache.Mid(symbol)
	if !ok || mid <= 0 {
		if c.log != nil {
			c.log.Warn("entry skipped: no mid price available", utils.String("symbol", symbol))
		}
		return
	}

	equityBaseline := c.governor.Snapshot().EquityBaseline
	qty := sizeEntry(equityBaseline, c.params.RiskPerTradePct, c.params.SLPct, mid)
	if qty <= 0 {
		return
	}

	orderSide := exchange.AdapterBuy
	if side == models.PositionShort {
		orderSide = exchange.AdapterSell
	}

	res, err := c.submitWithTimeout(ctx, symbol, orderSide, qty)
	if err != nil {
		if c.log != nil {
			c.log.Error("entry order failed", utils.String("symbol", symbol), utils.Err(err))
		}
		return
	}

	entryPrice := res.AvgPrice
	if entryPrice <= 0 {
		entryPrice = mid
	}
	executedQty := res.ExecutedQty
	if executedQty <= 0 {
		executedQty = qty
	}

	c.governor.OnTradeOpened()
	c.cooldown[symbol] = now.Add(time.Duration(c.params.SymbolCooldownSeconds) * time.Second)

	tradeID := c.sink.RecordTradeOpened(models.TradeRecord{
		Symbol:     symbol,
		Side:       side,
		EntryPrice: entryPrice,
		Quantity:   executedQty,
		EntryTS:    now,
	})

	c.position = &models.OpenPosition{
		Symbol:     symbol,
		Side:       side,
		EntryPrice: entryPrice,
		Quantity:   executedQty,
		EntryTime:  now,
		TradeID:    tradeID,
	}

	if c.log != nil {
		c.log.Info("position opened",
			utils.String("symbol", symbol),
			utils.String("side", string(side)),
			utils.Float64("entry_price", entryPrice),
			utils.Float64("quantity", executedQty))
	}
}
