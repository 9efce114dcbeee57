package strategy

import (
	"context"

	"reversion/internal/models"
)

// sink.go defines the Event Sink capability the core writes through. The
// interface lives here rather than in internal/sink so the core depends on
// a narrow contract instead of the concrete queue implementation - mirrors
// how internal/exchange's MidPriceFunc keeps Paper from importing
// internal/feed. internal/sink implements this without importing
// internal/strategy, so there's no cycle.
type Sink interface {
	// RecordMarketEvent appends a gate-decision row. Never blocks: the
	// implementation must enqueue into a bounded, non-blocking queue.
	RecordMarketEvent(models.MarketEvent)

	// RecordTradeOpened persists the open half of a trade lifecycle row and
	// returns the assigned ID, used as OpenPosition.TradeID.
	RecordTradeOpened(models.TradeRecord) int64

	// RecordTradeClosed updates the same row in place with exit fields.
	RecordTradeClosed(models.TradeRecord)

	RecordBotState(models.BotStateRecord)
	RecordHealth(models.HealthCheck)
	RecordMetrics(models.MetricsSnapshot)
	RecordLog(level models.LogLevel, component, message string)

	// FetchPendingCommands drains unapplied rows off the control channel.
	FetchPendingCommands(ctx context.Context) ([]models.ControlCommand, error)
	// ApplyCommand marks a command row applied with its outcome.
	ApplyCommand(ctx context.Context, cmd models.ControlCommand, applied bool, result string) error

	// ListOpenTrades returns every Trade Record with no exit recorded, used
	// once at boot to reconcile the Open Position slot against the venue's
	// live positions.
	ListOpenTrades(ctx context.Context) ([]models.TradeRecord, error)

	// Healthy reports whether the sink's own writes are currently landing.
	Healthy() bool
}
