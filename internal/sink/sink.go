// Package sink implements the strategy.Sink interface: the Event Sink that
// persists everything the Strategy Core emits without ever blocking the
// mailbox loop on a database round trip.
//
// Trade opens/closes and control-command handling write through
// synchronously (a dropped trade row or a silently-ignored pause command is
// unacceptable); Market Events, health checks, metrics snapshots, and logs
// go through bounded per-stream queues drained by one writer goroutine each,
// grounded on internal/bot/channel_helpers.go's non-blocking-select pattern.
package sink

import (
	"context"
	"database/sql"

	"reversion/internal/metrics"
	"reversion/internal/models"
	"reversion/internal/repository"
	"reversion/pkg/utils"
)

const queueCapacity = 4096

// Sink wires the strategy.Sink interface to the repository layer.
type Sink struct {
	log *utils.Logger

	trades   *repository.TradeRepository
	events   *repository.MarketEventRepository
	states   *repository.BotStateRepository
	health   *repository.HealthCheckRepository
	snapshots *repository.MetricsRepository
	logs     *repository.LogEntryRepository
	commands *repository.ControlCommandRepository
	configs  *repository.ConfigRepository

	marketEventCh chan models.MarketEvent
	botStateCh    chan models.BotStateRecord
	healthCh      chan models.HealthCheck
	metricsCh     chan models.MetricsSnapshot
	logCh         chan models.LogEntry

	healthy chan bool
	done    chan struct{}
}

// New builds a Sink over db and starts its writer goroutines. Stop the
// returned Sink's Close to drain and stop them.
func New(db *sql.DB, log *utils.Logger) *Sink {
	s := &Sink{
		log:       log,
		trades:    repository.NewTradeRepository(db),
		events:    repository.NewMarketEventRepository(db),
		states:    repository.NewBotStateRepository(db),
		health:    repository.NewHealthCheckRepository(db),
		snapshots: repository.NewMetricsRepository(db),
		logs:      repository.NewLogEntryRepository(db),
		commands:  repository.NewControlCommandRepository(db),
		configs:   repository.NewConfigRepository(db),

		marketEventCh: make(chan models.MarketEvent, queueCapacity),
		botStateCh:    make(chan models.BotStateRecord, queueCapacity),
		healthCh:      make(chan models.HealthCheck, queueCapacity),
		metricsCh:     make(chan models.MetricsSnapshot, queueCapacity),
		logCh:         make(chan models.LogEntry, queueCapacity/4),

		healthy: make(chan bool, 1),
		done:    make(chan struct{}),
	}
	s.healthy <- true

	go s.drainMarketEvents()
	go s.drainBotStates()
	go s.drainHealth()
	go s.drainMetrics()
	go s.drainLogs()

	return s
}

// Close stops accepting new work and waits for nothing in particular: the
// queues are drained best-effort and the process is expected to exit right
// after.
func (s *Sink) Close() {
	close(s.done)
}

func (s *Sink) enqueue(stream string, depth int, ok bool) {
	metrics.RecordQueueDepth(stream, depth)
	if !ok {
		metrics.RecordBufferOverflow(stream)
	}
}

func (s *Sink) RecordMarketEvent(me models.MarketEvent) {
	select {
	case s.marketEventCh <- me:
		s.enqueue("market_event", len(s.marketEventCh), true)
	default:
		s.enqueue("market_event", len(s.marketEventCh), false)
	}
}

func (s *Sink) RecordBotState(rec models.BotStateRecord) {
	select {
	case s.botStateCh <- rec:
		s.enqueue("bot_state", len(s.botStateCh), true)
	default:
		s.enqueue("bot_state", len(s.botStateCh), false)
	}
}

func (s *Sink) RecordHealth(h models.HealthCheck) {
	select {
	case s.healthCh <- h:
		s.enqueue("health", len(s.healthCh), true)
	default:
		s.enqueue("health", len(s.healthCh), false)
	}
}

func (s *Sink) RecordMetrics(m models.MetricsSnapshot) {
	select {
	case s.metricsCh <- m:
		s.enqueue("metrics", len(s.metricsCh), true)
	default:
		s.enqueue("metrics", len(s.metricsCh), false)
	}
}

// RecordLog drops the oldest queued line rather than the newest on overflow:
// logs are diagnostic, and the most recent line is the one worth keeping.
func (s *Sink) RecordLog(level models.LogLevel, component, message string) {
	entry := models.LogEntry{Level: level, Component: component, Message: message}
	select {
	case s.logCh <- entry:
		s.enqueue("log", len(s.logCh), true)
	default:
		select {
		case <-s.logCh:
		default:
		}
		select {
		case s.logCh <- entry:
		default:
		}
		s.enqueue("log", len(s.logCh), false)
	}
}

// RecordTradeOpened writes through synchronously and returns the assigned
// row ID, used as OpenPosition.TradeID for the later Close call.
func (s *Sink) RecordTradeOpened(tr models.TradeRecord) int64 {
	if err := s.trades.Open(&tr); err != nil {
		metrics.RecordWriteError("trade")
		if s.log != nil {
			s.log.Error("failed to persist opened trade", utils.String("symbol", tr.Symbol), utils.Err(err))
		}
		return 0
	}
	return tr.ID
}

// RecordTradeClosed writes through synchronously; a dropped close would
// leave a trade row permanently open.
func (s *Sink) RecordTradeClosed(tr models.TradeRecord) {
	if err := s.trades.Close(&tr); err != nil {
		metrics.RecordWriteError("trade")
		if s.log != nil {
			s.log.Error("failed to persist closed trade", utils.Int64("trade_id", tr.ID), utils.Err(err))
		}
	}
}

// FetchPendingCommands reads through synchronously; the Control Plane polls
// this every 5s and the round trip is not on any latency-sensitive path.
func (s *Sink) FetchPendingCommands(ctx context.Context) ([]models.ControlCommand, error) {
	return s.commands.FetchPending()
}

func (s *Sink) ApplyCommand(ctx context.Context, cmd models.ControlCommand, applied bool, result string) error {
	return s.commands.MarkApplied(cmd.ID, applied, result)
}

// ListOpenTrades reads through synchronously; called once at boot to
// reconcile the Open Position slot against the venue's live positions, not
// on any latency-sensitive path.
func (s *Sink) ListOpenTrades(ctx context.Context) ([]models.TradeRecord, error) {
	open, err := s.trades.ListOpen()
	if err != nil {
		return nil, err
	}
	out := make([]models.TradeRecord, len(open))
	for i, tr := range open {
		out[i] = *tr
	}
	return out, nil
}

// Configs exposes the sink's config repository as the narrow interface
// internal/config's ResolveVersion needs, so main wires config persistence
// through the same Sink that owns every other repository rather than
// constructing a second one.
func (s *Sink) Configs() *repository.ConfigRepository {
	return s.configs
}

// Healthy reports whether the most recent write on the market-event,
// bot-state, health or metrics stream succeeded (true before any such
// write). Trade and log write failures do not change it.
func (s *Sink) Healthy() bool {
	select {
	case v := <-s.healthy:
		s.healthy <- v
		return v
	default:
		return true
	}
}

func (s *Sink) setHealthy(v bool) {
	select {
	case <-s.healthy:
	default:
	}
	s.healthy <- v
}

func (s *Sink) drainMarketEvents() {
	for {
		select {
		case <-s.done:
			return
		case me := <-s.marketEventCh:
			if err := s.events.Insert(&me); err != nil {
				metrics.RecordWriteError("market_event")
				s.setHealthy(false)
			} else {
				s.setHealthy(true)
			}
		}
	}
}

func (s *Sink) drainBotStates() {
	for {
		select {
		case <-s.done:
			return
		case rec := <-s.botStateCh:
			if err := s.states.Insert(&rec); err != nil {
				metrics.RecordWriteError("bot_state")
				s.setHealthy(false)
			} else {
				s.setHealthy(true)
			}
		}
	}
}

func (s *Sink) drainHealth() {
	for {
		select {
		case <-s.done:
			return
		case h := <-s.healthCh:
			if err := s.health.Insert(&h); err != nil {
				metrics.RecordWriteError("health")
				s.setHealthy(false)
			} else {
				s.setHealthy(true)
			}
		}
	}
}

func (s *Sink) drainMetrics() {
	for {
		select {
		case <-s.done:
			return
		case m := <-s.metricsCh:
			if err := s.snapshots.Insert(&m); err != nil {
				metrics.RecordWriteError("metrics")
				s.setHealthy(false)
			} else {
				s.setHealthy(true)
			}
		}
	}
}

func (s *Sink) drainLogs() {
	for {
		select {
		case <-s.done:
			return
		case e := <-s.logCh:
			if err := s.logs.Insert(&e); err != nil {
				metrics.RecordWriteError("log")
			}
		}
	}
}
