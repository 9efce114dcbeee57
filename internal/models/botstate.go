package models

import "time"

// BotState is a state in the Strategy Core's state machine.
type BotState string

const (
	StateBooting         BotState = "BOOTING"
	StateRunning         BotState = "RUNNING"
	StatePausedManual    BotState = "PAUSED_MANUAL"
	StatePausedRiskLimit BotState = "PAUSED_RISK_LIMIT"
	StateError           BotState = "ERROR"
	StateShutdown        BotState = "SHUTDOWN"
)

// BotStateRecord is an append-only history row written on every transition.
type BotStateRecord struct {
	ID            int64     `json:"id" db:"id"`
	State         BotState  `json:"state" db:"state"`
	PrevState     BotState  `json:"prev_state,omitempty" db:"prev_state"`
	Reason        string    `json:"reason,omitempty" db:"reason"`
	LastError     string    `json:"last_error,omitempty" db:"last_error"`
	LastErrorTS   time.Time `json:"last_error_ts,omitempty" db:"last_error_ts"`
	Timestamp     time.Time `json:"timestamp" db:"timestamp"`
}

// HealthCheck is a periodic snapshot of subsystem reachability, written at
// the same cadence as the heartbeat so the two are trivially joinable.
type HealthCheck struct {
	ID              int64     `json:"id" db:"id"`
	Timestamp       time.Time `json:"timestamp" db:"timestamp"`
	BotState        BotState  `json:"bot_state" db:"bot_state"`
	FeedConnected   bool      `json:"feed_connected" db:"feed_connected"`
	AdapterReachable bool     `json:"adapter_reachable" db:"adapter_reachable"`
	SinkHealthy     bool      `json:"sink_healthy" db:"sink_healthy"`
}

// MetricsSnapshot is a point-in-time cumulative totals row, written on each
// trade close and every heartbeat.
type MetricsSnapshot struct {
	ID               int64     `json:"id" db:"id"`
	Timestamp        time.Time `json:"timestamp" db:"timestamp"`
	PnlTodayUSDT     float64   `json:"pnl_today_usdt" db:"pnl_today_usdt"`
	TradeCountToday  int       `json:"trade_count_today" db:"trade_count_today"`
	WinCount         int       `json:"win_count" db:"win_count"`
	LossCount        int       `json:"loss_count" db:"loss_count"`
	ConsecutiveLosses int      `json:"consecutive_losses" db:"consecutive_losses"`
	EquityBaseline   float64   `json:"equity_baseline" db:"equity_baseline"`
}

// LogLevel is the severity of a persisted LogEntry.
type LogLevel string

const (
	LogInfo  LogLevel = "INFO"
	LogWarn  LogLevel = "WARN"
	LogError LogLevel = "ERROR"
)

// LogEntry is a persisted structured log line, distinct from the process
// logger's stderr/file stream (see pkg/utils.Logger).
type LogEntry struct {
	ID        int64     `json:"id" db:"id"`
	Timestamp time.Time `json:"timestamp" db:"timestamp"`
	Level     LogLevel  `json:"level" db:"level"`
	Component string    `json:"component" db:"component"`
	Message   string    `json:"message" db:"message"`
}

// ControlCommand is a single write to the external control channel.
type ControlCommand struct {
	ID        int64     `json:"id" db:"id"`
	Timestamp time.Time `json:"timestamp" db:"timestamp"`
	Command   string    `json:"command" db:"command"` // pause, resume, flatten, set_mode
	Mode      string    `json:"mode,omitempty" db:"mode"`
	Applied   bool      `json:"applied" db:"applied"`
	Result    string    `json:"result,omitempty" db:"result"`
}

// Control command names.
const (
	CommandPause   = "pause"
	CommandResume  = "resume"
	CommandFlatten = "flatten"
	CommandSetMode = "set_mode"
)

// Trading modes.
const (
	ModePaper = "paper"
	ModeLive  = "live"
)
