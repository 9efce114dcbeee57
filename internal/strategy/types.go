package strategy

import (
	"time"

	"reversion/internal/models"
)

// types.go - the typed event variant the core's mailbox carries. Each
// concrete event type from the feed, the 100ms tick source, and the
// control-plane poller gets wrapped in a mailboxEvent before being posted,
// so the core's single receive loop can switch on exactly one shape instead
// of five differently-typed channels (spec.md §9's re-architecture note:
// replace the teacher's untyped callback emitter with a typed event model).

type mailboxEvent struct {
	liquidation *models.Liquidation
	trade       *models.Trade
	bookTicker  *models.BookTicker
	tick        *tickEvent
	command     *models.ControlCommand
	feedDown    bool
}

// tickEvent is the 100ms position-monitor heartbeat. It carries no payload;
// the monitor reads current state off the feed cache when it fires.
type tickEvent struct {
	At time.Time
}

func liquidationEvent(l models.Liquidation) mailboxEvent  { return mailboxEvent{liquidation: &l} }
func tradeEvent(t models.Trade) mailboxEvent              { return mailboxEvent{trade: &t} }
func bookTickerEvent(b models.BookTicker) mailboxEvent    { return mailboxEvent{bookTicker: &b} }
func tick(at time.Time) mailboxEvent                      { return mailboxEvent{tick: &tickEvent{At: at}} }
func commandEvent(c models.ControlCommand) mailboxEvent   { return mailboxEvent{command: &c} }
func feedUnavailableEvent() mailboxEvent                  { return mailboxEvent{feedDown: true} }
