// Package metrics holds the Prometheus vectors shared by the Strategy Core
// and the Event Sink. Grounded on internal/bot/metrics.go's promauto
// top-level var pattern; split into its own package (the teacher keeps
// these in package bot) because both internal/strategy and internal/sink
// need to record against the same vectors without importing each other.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// LiquidationsDetected counts inbound forceOrder events per symbol.
var LiquidationsDetected = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "reversion",
		Subsystem: "feed",
		Name:      "liquidations_detected_total",
		Help:      "Number of liquidation events observed on the feed",
	},
	[]string{"symbol"},
)

// MarketEventsTotal counts entry-gate evaluations by outcome.
var MarketEventsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "reversion",
		Subsystem: "strategy",
		Name:      "market_events_total",
		Help:      "Number of entry-gate evaluations by outcome",
	},
	[]string{"symbol", "passed"}, // passed: yes, no
)

// TradesTotal counts closed trades by exit reason.
var TradesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "reversion",
		Subsystem: "strategy",
		Name:      "trades_total",
		Help:      "Number of closed trades by exit reason",
	},
	[]string{"symbol", "exit_reason"},
)

// PnlTotal is cumulative realized PnL in USDT.
var PnlTotal = promauto.NewGauge(
	prometheus.GaugeOpts{
		Namespace: "reversion",
		Subsystem: "strategy",
		Name:      "pnl_total_usdt",
		Help:      "Total realized PnL in USDT",
	},
)

// BotStateGauge is 1 for the currently active state's label, 0 otherwise.
var BotStateGauge = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: "reversion",
		Subsystem: "strategy",
		Name:      "bot_state",
		Help:      "Current bot state (1=active, 0=inactive) per state label",
	},
	[]string{"state"},
)

// SinkBufferOverflows counts dropped enqueues per stream.
var SinkBufferOverflows = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "reversion",
		Subsystem: "sink",
		Name:      "buffer_overflows_total",
		Help:      "Number of Event Sink queue overflows (events dropped)",
	},
	[]string{"stream"},
)

// SinkQueueDepth is the current backlog per stream, sampled on enqueue.
var SinkQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: "reversion",
		Subsystem: "sink",
		Name:      "queue_depth",
		Help:      "Current depth of an Event Sink stream queue",
	},
	[]string{"stream"},
)

// SinkWriteErrors counts persistence failures per stream.
var SinkWriteErrors = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "reversion",
		Subsystem: "sink",
		Name:      "write_errors_total",
		Help:      "Number of Event Sink persistence failures",
	},
	[]string{"stream"},
)

// RecordBotState flips the gauge for the new state on and the previous off.
func RecordBotState(prev, current string) {
	if prev != "" {
		BotStateGauge.WithLabelValues(prev).Set(0)
	}
	BotStateGauge.WithLabelValues(current).Set(1)
}

// RecordTradeClosed updates TradesTotal and PnlTotal for one closed trade.
func RecordTradeClosed(symbol, exitReason string, pnl float64) {
	TradesTotal.WithLabelValues(symbol, exitReason).Inc()
	PnlTotal.Add(pnl)
}

// RecordMarketEvent updates the entry-gate outcome counter.
func RecordMarketEvent(symbol string, passed bool) {
	label := "no"
	if passed {
		label = "yes"
	}
	MarketEventsTotal.WithLabelValues(symbol, label).Inc()
}

// RecordBufferOverflow records a dropped Event Sink enqueue.
func RecordBufferOverflow(stream string) {
	SinkBufferOverflows.WithLabelValues(stream).Inc()
}

// RecordQueueDepth samples a stream's current backlog.
func RecordQueueDepth(stream string, depth int) {
	SinkQueueDepth.WithLabelValues(stream).Set(float64(depth))
}

// RecordWriteError records a persistence failure for a stream.
func RecordWriteError(stream string) {
	SinkWriteErrors.WithLabelValues(stream).Inc()
}
