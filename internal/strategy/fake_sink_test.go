package strategy

import (
	"context"

	"reversion/internal/models"
)

// fakeSink is an in-memory Sink for white-box tests of the mailbox
// handlers. It never blocks and records everything it's given.
type fakeSink struct {
	marketEvents []models.MarketEvent
	opened       []models.TradeRecord
	closed       []models.TradeRecord
	states       []models.BotStateRecord
	nextID       int64
	healthy      bool
	openTrades   []models.TradeRecord
}

func newFakeSink() *fakeSink {
	return &fakeSink{healthy: true}
}

func (f *fakeSink) RecordMarketEvent(me models.MarketEvent) { f.marketEvents = append(f.marketEvents, me) }

func (f *fakeSink) RecordTradeOpened(tr models.TradeRecord) int64 {
	f.nextID++
	tr.ID = f.nextID
	f.opened = append(f.opened, tr)
	return f.nextID
}

func (f *fakeSink) RecordTradeClosed(tr models.TradeRecord) { f.closed = append(f.closed, tr) }
func (f *fakeSink) RecordBotState(s models.BotStateRecord)  { f.states = append(f.states, s) }
func (f *fakeSink) RecordHealth(models.HealthCheck)          {}
func (f *fakeSink) RecordMetrics(models.MetricsSnapshot)     {}
func (f *fakeSink) RecordLog(models.LogLevel, string, string) {}

func (f *fakeSink) FetchPendingCommands(ctx context.Context) ([]models.ControlCommand, error) {
	return nil, nil
}
func (f *fakeSink) ApplyCommand(ctx context.Context, cmd models.ControlCommand, applied bool, result string) error {
	return nil
}

func (f *fakeSink) ListOpenTrades(ctx context.Context) ([]models.TradeRecord, error) {
	return f.openTrades, nil
}

func (f *fakeSink) Healthy() bool { return f.healthy }
