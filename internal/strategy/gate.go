package strategy

import (
	"fmt"
	"strings"
	"time"

	"reversion/internal/feed"
	"reversion/internal/models"
	"reversion/internal/stats"
)

// gate.go - the entry gate (spec.md §4.5 steps 1-8). Grounded on
// internal/bot/arbitrage.go's EntryConditions/CheckEntryConditions shape: a
// result struct recording every factor plus an early "cannot enter"
// reason. Unlike the teacher's version this always computes all five
// factors rather than short-circuiting, because spec.md §4.5 step 6
// requires the Market Event to record every factor's raw value regardless
// of which one failed. The teacher's sync.Pool for EntryConditions is
// dropped: that optimization amortizes an allocation rate of 100+/sec
// across many concurrently-tracked pairs; this gate fires once per
// liquidation on at most three symbols, an allocation rate low enough that
// pooling buys nothing.

// evaluateSignal computes the five boolean factors and their raw values for
// a candidate liquidation, without consulting the Risk Governor or cooldown
// - those are the core's job, not the gate's, so this function stays a pure
// function of the feed caches and config.
func evaluateSignal(cache *feed.Cache, cfg StrategyParams, liq models.Liquidation, now time.Time) models.MarketEvent {
	me := models.MarketEvent{
		LiqSide:     liq.Side,
		LiqPrice:    liq.Price,
		LiqNotional: liq.Notional(),
	}

	minLiq := cfg.MinLiqUSD[liq.Symbol]
	me.LiqSizeOK = me.LiqNotional >= minLiq

	avgVol := stats.AvgVolume(cache, liq.Symbol)
	recentVol := stats.RecentVolume(cache, liq.Symbol, 60)
	volumeMult := 0.0
	if avgVol > 0 {
		volumeMult = recentVol / avgVol
	}
	me.VolumeMult = volumeMult
	me.VolumeOK = volumeMult >= cfg.VolumeMult

	me.SpreadBps = stats.SpreadBps(cache, liq.Symbol, now)
	maxSpread := cfg.MaxSpreadBps[liq.Symbol]
	me.SpreadOK = me.SpreadBps <= maxSpread

	me.PriceDelta = stats.PriceDelta(cache, liq.Symbol, 60, now)
	me.MomentumOK = absFloat(me.PriceDelta) < 0.5

	me.Exhaustion = stats.ExhaustionCandles(cache, liq.Symbol, now)
	me.ExhaustionOK = me.Exhaustion >= 1

	return me
}

// signalQualityPassed is the conjunction of the five boolean factors.
func signalQualityPassed(me models.MarketEvent) bool {
	return me.LiqSizeOK && me.VolumeOK && me.SpreadOK && me.MomentumOK && me.ExhaustionOK
}

// rejectionReason concatenates every failing factor's description, joined
// by "; ", matching spec.md §8 S2's exact expectation
// ('rejection_reason contains "Spread 6.0bps > 3bps"').
func rejectionReason(me models.MarketEvent, cfg StrategyParams, symbol string) string {
	var reasons []string
	if !me.LiqSizeOK {
		reasons = append(reasons, fmt.Sprintf("Liquidation notional %.0f < min_liq_usd %.0f", me.LiqNotional, cfg.MinLiqUSD[symbol]))
	}
	if !me.VolumeOK {
		reasons = append(reasons, fmt.Sprintf("Volume multiple %.2fx < required %.2fx", me.VolumeMult, cfg.VolumeMult))
	}
	if !me.SpreadOK {
		reasons = append(reasons, fmt.Sprintf("Spread %.1fbps > %gbps", me.SpreadBps, cfg.MaxSpreadBps[symbol]))
	}
	if !me.MomentumOK {
		reasons = append(reasons, fmt.Sprintf("Momentum |%.2f%%| >= 0.5%%", me.PriceDelta))
	}
	if !me.ExhaustionOK {
		reasons = append(reasons, "Exhaustion candles < 1")
	}
	return strings.Join(reasons, "; ")
}

// entrySide reverses the liquidation's direction: a forced SELL (long
// liquidated) implies the crowd is being shaken out to the downside, so the
// reversion trade goes LONG, and vice versa.
func entrySide(liqSide models.Side) models.PositionSide {
	if liqSide == models.SideSell {
		return models.PositionLong
	}
	return models.PositionShort
}

func absFloat(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}
