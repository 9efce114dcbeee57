// Package strategy implements the Strategy Core: the single-mailbox task
// that serializes Liquidation handling, position monitoring, exits, and
// control commands onto one logical consumer. Grounded on
// internal/bot/engine.go's Engine, replacing its N-shard worker-pool model
// (built to parallelize across many concurrently-tracked pairs) with a
// single consumer goroutine, since spec requires the Open Position slot and
// Risk Day never be mutated concurrently. The teacher's Run/periodicTasks
// split survives as the core's main mailbox loop plus three feeder
// goroutines (tick, control-plane poll, heartbeat) that only ever write to
// the mailbox, never to core state directly.
package strategy

import (
	"context"
	"fmt"
	"time"

	"reversion/internal/exchange"
	"reversion/internal/feed"
	"reversion/internal/metrics"
	"reversion/internal/models"
	"reversion/internal/risk"
	"reversion/pkg/utils"
)

const (
	mailboxCapacity    = 256
	controlPollPeriod  = 5 * time.Second
	heartbeatPeriod    = 5 * time.Second
	monitorTickPeriod  = 100 * time.Millisecond
	shutdownFlattenCap = 10 * time.Second
)

// Broadcaster pushes the same events the Sink persists out over a live
// channel, in addition to persisting them. Nil-safe: a Core built without
// one simply doesn't push. Grounded on internal/wsops.Hub, which satisfies
// this interface without the strategy package importing it back.
type Broadcaster interface {
	BroadcastHeartbeat(models.HealthCheck)
	BroadcastTradeClosed(models.TradeRecord)
	BroadcastBotStateChanged(models.BotStateRecord)
}

// Core owns the Open Position slot, the Risk Day (via the Governor), the
// current Bot State, and the per-symbol cooldown map. Every field it
// mutates is touched only from the goroutine running Run's select loop.
type Core struct {
	params StrategyParams
	log    *utils.Logger

	cache  *feed.Cache
	client *feed.Client

	liveAdapter   *exchange.Adapter
	paperAdapter  *exchange.Adapter
	activeAdapter *exchange.Adapter
	mode          string

	governor *risk.Governor
	sink     Sink
	push     Broadcaster

	state    models.BotState
	position *models.OpenPosition
	cooldown map[string]time.Time

	mailbox chan mailboxEvent

	sinkHealthy bool
}

// Config bundles everything NewCore needs beyond the pieces constructed
// independently (cache, governor, adapters) so main wires them once.
type Config struct {
	Params       StrategyParams
	Cache        *feed.Cache
	Client       *feed.Client
	LiveAdapter  *exchange.Adapter // nil if live mode is unconfigured
	PaperAdapter *exchange.Adapter
	StartMode    string // models.ModePaper or models.ModeLive
	Governor     *risk.Governor
	Sink         Sink
	Push         Broadcaster // optional; nil disables the live push channel
	Log          *utils.Logger
}

// NewCore builds a Core in state BOOTING. Call Run to start it.
func NewCore(cfg Config) *Core {
	active := cfg.PaperAdapter
	if cfg.StartMode == models.ModeLive {
		active = cfg.LiveAdapter
	}
	return &Core{
		params:        cfg.Params,
		log:           cfg.Log,
		cache:         cfg.Cache,
		client:        cfg.Client,
		liveAdapter:   cfg.LiveAdapter,
		paperAdapter:  cfg.PaperAdapter,
		activeAdapter: active,
		mode:          cfg.StartMode,
		governor:      cfg.Governor,
		sink:          cfg.Sink,
		push:          cfg.Push,
		state:         models.StateBooting,
		cooldown:      make(map[string]time.Time),
		mailbox:       make(chan mailboxEvent, mailboxCapacity),
		sinkHealthy:   true,
	}
}

// State returns the current Bot State. Safe to call from another goroutine
// only for read-only status reporting (e.g. the /healthz handler); it is a
// plain field read, not synchronized, so callers must tolerate a torn read
// racing with the mailbox goroutine - acceptable here since BotState is a
// string-backed value that never appears half-written.
func (c *Core) State() models.BotState { return c.state }

// Post enqueues an externally-sourced event (feed callback, tick source,
// control poller) into the mailbox. Feed callbacks run on the feed
// goroutine; Post must never block the feed, so it drops the event on a
// full mailbox rather than waiting - a saturated mailbox means the core is
// already behind, and blocking the feed goroutine would make it worse.
func (c *Core) Post(evt mailboxEvent) {
	select {
	case c.mailbox <- evt:
	default:
		if c.log != nil {
			c.log.Warn("mailbox full, dropping event")
		}
	}
}

// Run boots the core, starts the feeder goroutines, and runs the mailbox
// loop until ctx is cancelled. On cancellation it flattens any open
// position (bounded by shutdownFlattenCap) before returning.
func (c *Core) Run(ctx context.Context) error {
	if err := c.boot(ctx); err != nil {
		c.transition(models.StateError, err.Error())
		return err
	}

	c.wireFeedHandlers()
	if err := c.client.Connect(); err != nil {
		c.transition(models.StateError, "feed connect failed: "+err.Error())
		return err
	}

	go c.tickLoop(ctx)
	go c.controlLoop(ctx)
	go c.heartbeatLoop(ctx)

	for {
		select {
		case <-ctx.Done():
			c.onShutdownSignal()
			return ctx.Err()
		case evt := <-c.mailbox:
			c.handleEvent(ctx, evt)
			if c.state == models.StateShutdown {
				return nil
			}
		}
	}
}

// boot runs the BOOTING -> RUNNING checks: adapter reachability (skipped in
// paper mode) and risk day initialization. Feed readiness is asynchronous
// (Connect is called by Run after boot) so boot does not wait on it; the
// core accepts entries once the feed delivers its first event regardless.
func (c *Core) boot(ctx context.Context) error {
	equity := c.governor.Snapshot().EquityBaseline
	if c.mode == models.ModeLive {
		if c.liveAdapter == nil {
			return fmt.Errorf("start_mode live but no live adapter configured")
		}
		eq, err := c.liveAdapter.GetEquity(ctx)
		if err != nil {
			return fmt.Errorf("adapter unreachable at boot: %w", err)
		}
		equity = eq

		if err := c.reconcilePositions(ctx); err != nil {
			return fmt.Errorf("boot reconciliation failed: %w", err)
		}
	}
	if equity <= 0 {
		equity = c.governor.Snapshot().EquityBaseline
	}
	c.transition(models.StateRunning, "boot complete")
	if c.log != nil {
		c.log.Info("strategy core booted", utils.String("mode", c.mode), utils.Float64("equity_baseline", equity))
	}
	return nil
}

func (c *Core) wireFeedHandlers() {
	c.client.SetHandlers(feed.Handlers{
		OnLiquidation: func(l models.Liquidation) { c.Post(liquidationEvent(l)) },
		OnTrade:       func(t models.Trade) { c.Post(tradeEvent(t)) },
		OnBookTicker:  func(b models.BookTicker) { c.Post(bookTickerEvent(b)) },
		OnFeedUnavailable: func() { c.Post(feedUnavailableEvent()) },
	})
}

func (c *Core) tickLoop(ctx context.Context) {
	ticker := time.NewTicker(monitorTickPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			c.Post(tick(now))
		}
	}
}

func (c *Core) controlLoop(ctx context.Context) {
	ticker := time.NewTicker(controlPollPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			cmds, err := c.sink.FetchPendingCommands(ctx)
			if err != nil {
				if c.log != nil {
					c.log.Warn("control poll failed", utils.Err(err))
				}
				continue
			}
			for _, cmd := range cmds {
				c.Post(commandEvent(cmd))
			}
		}
	}
}

func (c *Core) heartbeatLoop(ctx context.Context) {
	ticker := time.NewTicker(heartbeatPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.Post(mailboxEvent{})
		}
	}
}

// handleEvent is the mailbox's single dispatch point. Every code path that
// touches c.position, c.state, or c.governor's writers runs from here.
func (c *Core) handleEvent(ctx context.Context, evt mailboxEvent) {
	switch {
	case evt.liquidation != nil:
		c.onLiquidation(ctx, *evt.liquidation)
	case evt.tick != nil:
		c.onTick(ctx, evt.tick.At)
	case evt.command != nil:
		c.onCommand(ctx, *evt.command)
	case evt.feedDown:
		c.onFeedDown()
	case evt.trade != nil, evt.bookTicker != nil:
		// Cache already updated synchronously by the feed client before
		// this was posted; nothing further to do on the mailbox side.
	default:
		c.onHeartbeatTick()
	}
}

func (c *Core) onFeedDown() {
	if c.log != nil {
		c.log.Error("feed_unavailable: entries suspended, monitoring continues on cached prices")
	}
}

func (c *Core) onHeartbeatTick() {
	day := c.governor.Snapshot()
	health := models.HealthCheck{
		Timestamp:        time.Now(),
		BotState:         c.state,
		FeedConnected:    c.client != nil && !c.client.Unavailable(),
		AdapterReachable: c.activeAdapter != nil,
		SinkHealthy:      c.sinkHealthy,
	}
	c.sink.RecordHealth(health)
	if c.push != nil {
		c.push.BroadcastHeartbeat(health)
	}
	c.sink.RecordMetrics(models.MetricsSnapshot{
		Timestamp:         health.Timestamp,
		PnlTodayUSDT:      day.PnlToday,
		TradeCountToday:   day.TradeCountToday,
		WinCount:          day.RealizedWins,
		LossCount:         day.RealizedLosses,
		ConsecutiveLosses: day.ConsecutiveLosses,
		EquityBaseline:    day.EquityBaseline,
	})
	c.sinkHealthy = c.sink.Healthy()

	if rolled, previous := c.governor.MaybeRollover(health.Timestamp, day.EquityBaseline); rolled {
		if c.log != nil {
			c.log.Info("risk day rolled over", utils.Float64("previous_pnl", previous.PnlToday))
		}
		if c.state == models.StatePausedRiskLimit {
			c.transition(models.StateRunning, "risk day rollover")
		}
	} else if c.state == models.StatePausedRiskLimit && c.governor.CooldownExpired(health.Timestamp) {
		c.governor.ResumeFromPause()
		c.transition(models.StateRunning, "risk pause cooldown expired")
	}
}

func (c *Core) onCommand(ctx context.Context, cmd models.ControlCommand) {
	applied, result := c.applyCommand(ctx, cmd)
	if err := c.sink.ApplyCommand(ctx, cmd, applied, result); err != nil && c.log != nil {
		c.log.Warn("failed to mark control command applied", utils.Err(err))
	}
}

func (c *Core) applyCommand(ctx context.Context, cmd models.ControlCommand) (bool, string) {
	switch cmd.Command {
	case models.CommandPause:
		if c.state != models.StateRunning {
			return true, "already " + string(c.state)
		}
		c.transition(models.StatePausedManual, "operator pause")
		return true, "paused"
	case models.CommandResume:
		if c.state == models.StatePausedRiskLimit {
			return false, "resume rejected: bot is PAUSED_RISK_LIMIT, resumes only on cooldown expiry or day rollover"
		}
		if c.state != models.StatePausedManual {
			return true, "already " + string(c.state)
		}
		c.transition(models.StateRunning, "operator resume")
		return true, "resumed"
	case models.CommandFlatten:
		c.flatten(ctx, models.ExitFlatten)
		c.transition(models.StatePausedManual, "operator flatten")
		return true, "flattened"
	case models.CommandSetMode:
		return c.setMode(cmd.Mode)
	default:
		return false, "unknown command: " + cmd.Command
	}
}

func (c *Core) setMode(mode string) (bool, string) {
	if mode != models.ModePaper && mode != models.ModeLive {
		return false, "unknown mode: " + mode
	}
	if mode == models.ModeLive && c.liveAdapter == nil {
		return false, "live mode unavailable: no live adapter configured"
	}
	if mode == c.mode {
		return true, "mode unchanged"
	}
	if c.log != nil {
		c.log.Warn("trading mode changed", utils.String("from", c.mode), utils.String("to", mode))
	}
	c.mode = mode
	if mode == models.ModeLive {
		c.activeAdapter = c.liveAdapter
	} else {
		c.activeAdapter = c.paperAdapter
	}
	return true, "mode changed to " + mode
}

// onShutdownSignal runs flatten against a fresh context bounded by
// shutdownFlattenCap, since the ctx that just fired Done can't be used to
// bound further work. The adapter call inside flatten is not cancellable
// once in flight per spec; the timeout only bounds how long Run waits for
// it to start winding down.
func (c *Core) onShutdownSignal() {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownFlattenCap)
	defer cancel()
	if c.position != nil {
		c.flatten(shutdownCtx, models.ExitFlatten)
	}
	c.transition(models.StateShutdown, "termination signal")
}

// transition validates and applies a state change, logging and persisting a
// BotStateRecord on every move. An illegal transition is logged but still
// forced through to ERROR, since refusing to move at all would leave the
// core stuck mid-shutdown or mid-pause with no way out.
func (c *Core) transition(to models.BotState, reason string) {
	from := c.state
	if from == to {
		return
	}
	if !CanTransition(from, to) {
		if c.log != nil {
			c.log.Error("illegal state transition attempted", utils.String("from", string(from)), utils.String("to", string(to)))
		}
		to = models.StateError
		reason = "illegal transition " + string(from) + "->" + string(to)
	}
	metrics.RecordBotState(string(from), string(to))
	c.state = to
	if c.log != nil {
		c.log.Info("bot state transition", utils.String("from", string(from)), utils.String("to", string(to)), utils.String("reason", reason))
	}
	rec := models.BotStateRecord{
		State:     to,
		PrevState: from,
		Reason:    reason,
		Timestamp: time.Now(),
	}
	c.sink.RecordBotState(rec)
	if c.push != nil {
		c.push.BroadcastBotStateChanged(rec)
	}
}
