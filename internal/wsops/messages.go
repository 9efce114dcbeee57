package wsops

import (
	"time"

	"reversion/internal/models"
)

// MessageType identifies the shape of a pushed event.
type MessageType string

const (
	// MessageTypeHeartbeat mirrors the same HealthCheck fields the Control
	// Plane persists every 5s, pushed live instead of polled.
	MessageTypeHeartbeat MessageType = "heartbeat"

	// MessageTypeTradeClosed fires once per closed position.
	MessageTypeTradeClosed MessageType = "tradeClosed"

	// MessageTypeBotStateChanged fires on every Strategy Core transition.
	MessageTypeBotStateChanged MessageType = "botStateChanged"
)

// BaseMessage is embedded by every pushed message.
type BaseMessage struct {
	Type      MessageType `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
}

// HeartbeatMessage mirrors models.HealthCheck.
type HeartbeatMessage struct {
	BaseMessage
	BotState         models.BotState `json:"bot_state"`
	FeedConnected    bool            `json:"feed_connected"`
	AdapterReachable bool            `json:"adapter_reachable"`
	SinkHealthy      bool            `json:"sink_healthy"`
}

// NewHeartbeatMessage builds a HeartbeatMessage from a HealthCheck row.
func NewHeartbeatMessage(h models.HealthCheck) *HeartbeatMessage {
	return &HeartbeatMessage{
		BaseMessage:      BaseMessage{Type: MessageTypeHeartbeat, Timestamp: h.Timestamp},
		BotState:         h.BotState,
		FeedConnected:    h.FeedConnected,
		AdapterReachable: h.AdapterReachable,
		SinkHealthy:      h.SinkHealthy,
	}
}

// TradeClosedMessage mirrors the exit half of a TradeRecord.
type TradeClosedMessage struct {
	BaseMessage
	Symbol     string            `json:"symbol"`
	Side       models.PositionSide `json:"side"`
	ExitReason models.ExitReason `json:"exit_reason"`
	PnlUSDT    float64           `json:"pnl_usdt"`
	PnlPct     float64           `json:"pnl_pct"`
}

// NewTradeClosedMessage builds a TradeClosedMessage from a closed TradeRecord.
func NewTradeClosedMessage(tr models.TradeRecord) *TradeClosedMessage {
	return &TradeClosedMessage{
		BaseMessage: BaseMessage{Type: MessageTypeTradeClosed, Timestamp: tr.ExitTS},
		Symbol:      tr.Symbol,
		Side:        tr.Side,
		ExitReason:  tr.ExitReason,
		PnlUSDT:     tr.PnlUSDT,
		PnlPct:      tr.PnlPct,
	}
}

// BotStateChangedMessage mirrors a BotStateRecord transition.
type BotStateChangedMessage struct {
	BaseMessage
	State     models.BotState `json:"state"`
	PrevState models.BotState `json:"prev_state"`
	Reason    string          `json:"reason"`
}

// NewBotStateChangedMessage builds a BotStateChangedMessage from a transition record.
func NewBotStateChangedMessage(s models.BotStateRecord) *BotStateChangedMessage {
	return &BotStateChangedMessage{
		BaseMessage: BaseMessage{Type: MessageTypeBotStateChanged, Timestamp: s.Timestamp},
		State:       s.State,
		PrevState:   s.PrevState,
		Reason:      s.Reason,
	}
}
