// Package risk implements the Risk Governor: the sole owner of the Risk
// Day's counters and the admission gate every candidate trade must clear
// before the Strategy Core is allowed to open a position.
package risk

import (
	"math"
	"sync"
	"time"

	"reversion/internal/models"
	"reversion/pkg/utils"
)

// Config bounds the Risk Governor's admission checks, sourced from
// internal/config's validated StrategyConfig.
type Config struct {
	MaxTradesPerDay                    int
	MaxConsecutiveLosses              int
	DailyMaxLossPct                    float64
	PauseAfterConsecutiveLossesMinutes int
}

// Governor holds the Risk Day and answers admit/close/rollover queries. The
// Strategy Core is the only caller; all methods assume single-threaded
// access from the core's mailbox, matching spec.md's single-mailbox model -
// the mutex here guards against the Control Plane and the HTTP status
// surface reading RiskDay concurrently, not against concurrent writers.
type Governor struct {
	mu     sync.RWMutex
	day    models.RiskDay
	config Config
	log    *utils.Logger

	pausedAt time.Time
	paused   bool
}

// NewGovernor creates a Governor with equityBaseline seeded at startup from
// the adapter's get_equity() call.
func NewGovernor(config Config, equityBaseline float64, now time.Time, log *utils.Logger) *Governor {
	return &Governor{
		config: config,
		log:    log,
		day: models.RiskDay{
			DayStartTS:     utils.GetDayStartFrom(now),
			EquityBaseline: equityBaseline,
		},
	}
}

// Snapshot returns a copy of the current Risk Day.
func (g *Governor) Snapshot() models.RiskDay {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.day
}

// IsPaused reports whether the governor is in its risk-pause hold.
func (g *Governor) IsPaused() bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.paused
}

// Admit evaluates the admission conjunction for a new candidate trade:
//
//	trade_count_today < max_trades_per_day           else RejectSignal
//	consecutive_losses < max_consecutive_losses      else RejectAndPause
//	|min(0, pnl_today)| / equity_baseline < daily_max_loss_pct  else RejectAndPause
func (g *Governor) Admit() (models.Decision, []string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	var reasons []string

	if g.day.TradeCountToday >= g.config.MaxTradesPerDay {
		reasons = append(reasons, "max_trades_per_day reached")
		return models.RejectSignal, reasons
	}

	if g.day.ConsecutiveLosses >= g.config.MaxConsecutiveLosses {
		reasons = append(reasons, "max_consecutive_losses reached")
		g.enterPause()
		return models.RejectAndPause, reasons
	}

	if g.day.EquityBaseline > 0 {
		drawdownPct := math.Abs(math.Min(0, g.day.PnlToday)) / g.day.EquityBaseline
		if drawdownPct >= g.config.DailyMaxLossPct {
			reasons = append(reasons, "daily_max_loss_pct breached")
			g.enterPause()
			return models.RejectAndPause, reasons
		}
	}

	return models.Admit, nil
}

// enterPause marks the day paused; caller holds g.mu.
func (g *Governor) enterPause() {
	if g.paused {
		return
	}
	g.paused = true
	g.pausedAt = time.Now()
	if g.log != nil {
		g.log.Warn("risk governor entering pause",
			utils.Int("consecutive_losses", g.day.ConsecutiveLosses),
			utils.Float64("pnl_today", g.day.PnlToday))
	}
}

// CooldownExpired reports whether pause_after_consecutive_losses_minutes
// has elapsed since the pause began. Only meaningful while IsPaused.
func (g *Governor) CooldownExpired(now time.Time) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if !g.paused {
		return true
	}
	return now.Sub(g.pausedAt) >= time.Duration(g.config.PauseAfterConsecutiveLossesMinutes)*time.Minute
}

// OnTradeOpened increments trade_count_today. Called at entry execution, not
// at close, so the count reflects trades entered today regardless of how
// they're later resolved.
func (g *Governor) OnTradeOpened() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.day.TradeCountToday++
}

// OnTradeClosed updates pnl_today and consecutive_losses (reset on
// non-negative pnl, incremented on negative), and realized_wins/losses.
func (g *Governor) OnTradeClosed(pnl float64) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.day.PnlToday += pnl

	if pnl >= 0 {
		g.day.ConsecutiveLosses = 0
		g.day.RealizedWins++
	} else {
		g.day.ConsecutiveLosses++
		g.day.RealizedLosses++
	}
}

// MaybeRollover snapshots and resets the Risk Day if now crosses the UTC
// day boundary. equityBaseline should be the adapter's fresh get_equity()
// read; callers that can't reach the adapter synchronously may pass the
// previous baseline plus realized pnl_today.
func (g *Governor) MaybeRollover(now time.Time, equityBaseline float64) (rolled bool, previous models.RiskDay) {
	g.mu.Lock()
	defer g.mu.Unlock()

	todayStart := utils.GetDayStartFrom(now)
	if !todayStart.After(g.day.DayStartTS) {
		return false, models.RiskDay{}
	}

	previous = g.day
	g.day = models.RiskDay{
		DayStartTS:     todayStart,
		EquityBaseline: equityBaseline,
	}
	g.paused = false
	g.pausedAt = time.Time{}

	if g.log != nil {
		g.log.Info("risk day rolled over",
			utils.Float64("previous_pnl", previous.PnlToday),
			utils.Int("previous_trades", previous.TradeCountToday))
	}
	return true, previous
}

// ResumeFromPause clears the pause hold; callers must have already checked
// CooldownExpired or a day rollover. Manual resume from PAUSED_RISK_LIMIT is
// rejected by the Control Plane before this is ever called for that reason.
func (g *Governor) ResumeFromPause() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.paused = false
	g.pausedAt = time.Time{}
}
