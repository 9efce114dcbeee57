package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds the full application configuration, loaded once at startup.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Security SecurityConfig
	Venue    VenueConfig
	Strategy StrategyConfig
	Logging  LoggingConfig

	// Version is left at its zero value by Load; call ResolveVersion once a
	// database handle exists to compare against the configs table's latest
	// row and assign the real value.
	Version int
}

// ServerConfig - HTTP server settings for the thin control/health surface.
type ServerConfig struct {
	Port     int
	Host     string
	UseHTTPS bool
	CertFile string
	KeyFile  string
}

// DatabaseConfig - connection settings for the Event Sink's Postgres store.
type DatabaseConfig struct {
	Driver   string
	Host     string
	Port     int
	Name     string
	User     string
	Password string
	SSLMode  string
}

// SecurityConfig - secrets and encryption settings.
type SecurityConfig struct {
	JWTSecret      string
	EncryptionKey  string
	SessionTimeout int

	// ControlSecretHash is a bcrypt hash of the shared secret the thin
	// control/health HTTP surface checks on every POST /control/{command}.
	// Generated once with pkg/crypto.HashPassword and stored in the
	// environment, never the plaintext secret itself.
	ControlSecretHash string
}

// VenueConfig - credentials and endpoints for the execution adapter.
type VenueConfig struct {
	APIKey     string
	APISecret  string
	Mode       string // "paper" or "live"
	Testnet    bool
	BaseURL    string
	TestnetURL string
	WSURL      string

	// PaperEquity seeds both the Paper adapter's simulated balance and the
	// Risk Governor's equity baseline when StartMode is paper.
	PaperEquity float64
}

// StrategyConfig - every numeric bound the Strategy Core, Risk Governor, and
// Market Feed need, validated inclusive at Load() time.
type StrategyConfig struct {
	Symbols               []string
	EnableSecondSymbol    bool
	EnableMomentumVariant bool

	Leverage                           int
	RiskPerTradePct                    float64
	DailyMaxLossPct                    float64
	MaxTradesPerDay                    int
	MaxConsecutiveLosses               int
	PauseAfterConsecutiveLossesMinutes int
	MaxMarginPerTradePct               float64

	LiqWindowSeconds      int
	MinLiqUSD             map[string]float64
	VolumeLookback        int
	VolumeMult            float64
	ExhaustionCandles     int
	MaxSpreadBps          map[string]float64
	SymbolCooldownSeconds int

	TPPct                float64
	SLPct                float64
	TimeStopSeconds      int
	EntryFillTimeoutMs   int
	UseMarketIfNotFilled bool

	// TakerFeeRate is the placeholder fee model's configurable input:
	// fees = |pnl| * TakerFeeRate. See DESIGN.md Open Question 1.
	TakerFeeRate float64

	// RecoveryFlattenOrphaned chooses the boot-time reconciliation policy
	// for a live position found with no matching Open Position slot: false
	// adopts it, true flattens it immediately.
	RecoveryFlattenOrphaned bool

	// WS* settings are loaded from the environment but not read by the
	// Market Feed, which uses its own fixed reconnect schedule and
	// stale-book timeout.
	WSReconnectBase    time.Duration
	WSReconnectMax     time.Duration
	WSMaxReconnects    int
	WSPingInterval     time.Duration
	WSStaleBookTimeout time.Duration
}

// LoggingConfig - process-local logger settings.
type LoggingConfig struct {
	Level  string
	Format string
	Output string
}

// Load reads configuration from the environment, applying defaults and
// validating every bound before returning.
func Load() (*Config, error) {
	symbols := getEnvAsList("SYMBOLS", []string{"BTCUSDT"})

	cfg := &Config{
		Server: ServerConfig{
			Port:     getEnvAsInt("SERVER_PORT", 8080),
			Host:     getEnv("SERVER_HOST", "0.0.0.0"),
			UseHTTPS: getEnvAsBool("USE_HTTPS", false),
			CertFile: getEnv("CERT_FILE", ""),
			KeyFile:  getEnv("KEY_FILE", ""),
		},
		Database: DatabaseConfig{
			Driver:   getEnv("DB_DRIVER", "postgres"),
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvAsInt("DB_PORT", 5432),
			Name:     getEnv("DB_NAME", "reversion"),
			User:     getEnv("DB_USER", "user"),
			Password: getEnv("DB_PASSWORD", "password"),
			SSLMode:  getEnv("DB_SSL_MODE", "disable"),
		},
		Security: SecurityConfig{
			JWTSecret:         getEnv("JWT_SECRET", "change-me-in-production"),
			EncryptionKey:     getEnv("ENCRYPTION_KEY", ""),
			SessionTimeout:    getEnvAsInt("SESSION_TIMEOUT", 3600),
			ControlSecretHash: getEnv("CONTROL_SECRET_HASH", ""),
		},
		Venue: VenueConfig{
			APIKey:     getEnv("VENUE_API_KEY", ""),
			APISecret:  getEnv("VENUE_API_SECRET", ""),
			Mode:       getEnv("TRADING_MODE", "paper"),
			Testnet:    getEnvAsBool("VENUE_TESTNET", false),
			BaseURL:    getEnv("VENUE_BASE_URL", "https://fapi.binance.com"),
			TestnetURL: getEnv("VENUE_TESTNET_URL", "https://testnet.binancefuture.com"),
			WSURL:      getEnv("VENUE_WS_URL", "wss://fstream.binance.com/stream"),
			PaperEquity: getEnvAsFloat("PAPER_EQUITY", 10000),
		},
		Strategy: StrategyConfig{
			Symbols:               symbols,
			EnableSecondSymbol:    getEnvAsBool("ENABLE_SECOND_SYMBOL", false),
			EnableMomentumVariant: getEnvAsBool("ENABLE_MOMENTUM_VARIANT", false),

			Leverage:                           getEnvAsInt("LEVERAGE", 2),
			RiskPerTradePct:                    getEnvAsFloat("RISK_PER_TRADE_PCT", 0.005),
			DailyMaxLossPct:                    getEnvAsFloat("DAILY_MAX_LOSS_PCT", 0.02),
			MaxTradesPerDay:                    getEnvAsInt("MAX_TRADES_PER_DAY", 10),
			MaxConsecutiveLosses:                getEnvAsInt("MAX_CONSECUTIVE_LOSSES", 3),
			PauseAfterConsecutiveLossesMinutes: getEnvAsInt("PAUSE_AFTER_CONSECUTIVE_LOSSES_MINUTES", 60),
			MaxMarginPerTradePct:               getEnvAsFloat("MAX_MARGIN_PER_TRADE_PCT", 0.2),

			LiqWindowSeconds:      getEnvAsInt("LIQ_WINDOW_SECONDS", 60),
			MinLiqUSD:             getEnvAsFloatMap("MIN_LIQ_USD", symbols, 1_000_000),
			VolumeLookback:        getEnvAsInt("VOLUME_LOOKBACK", 20),
			VolumeMult:            getEnvAsFloat("VOLUME_MULT", 2.0),
			ExhaustionCandles:     getEnvAsInt("EXHAUSTION_CANDLES", 1),
			MaxSpreadBps:          getEnvAsFloatMap("MAX_SPREAD_BPS", symbols, 3.0),
			SymbolCooldownSeconds: getEnvAsInt("SYMBOL_COOLDOWN_SECONDS", 180),

			TPPct:                getEnvAsFloat("TP_PCT", 0.0035),
			SLPct:                getEnvAsFloat("SL_PCT", 0.0045),
			TimeStopSeconds:      getEnvAsInt("TIME_STOP_SECONDS", 150),
			EntryFillTimeoutMs:   getEnvAsInt("ENTRY_FILL_TIMEOUT_MS", 800),
			UseMarketIfNotFilled: getEnvAsBool("USE_MARKET_IF_NOT_FILLED", true),

			TakerFeeRate: getEnvAsFloat("TAKER_FEE_RATE", 0.0004),

			RecoveryFlattenOrphaned: getEnvAsBool("RECOVERY_FLATTEN_ORPHANED", false),

			WSReconnectBase:    getEnvAsDuration("WS_RECONNECT_BASE", 1*time.Second),
			WSReconnectMax:     getEnvAsDuration("WS_RECONNECT_MAX", 32*time.Second),
			WSMaxReconnects:    getEnvAsInt("WS_MAX_RECONNECTS", 10),
			WSPingInterval:     getEnvAsDuration("WS_PING_INTERVAL", 30*time.Second),
			WSStaleBookTimeout: getEnvAsDuration("WS_STALE_BOOK_TIMEOUT", 2*time.Second),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
			Output: getEnv("LOG_OUTPUT", ""),
		},
	}

	if err := cfg.validateSecurity(); err != nil {
		return nil, err
	}
	if err := cfg.validateRanges(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validateSecurity() error {
	if c.Security.EncryptionKey == "" {
		return fmt.Errorf("ENCRYPTION_KEY is required for encrypting the venue API secret")
	}
	if len(c.Security.EncryptionKey) != 32 {
		return fmt.Errorf("ENCRYPTION_KEY must be exactly 32 bytes for AES-256")
	}
	if c.Security.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required for control-channel auth")
	}
	if c.Security.JWTSecret == "change-me-in-production" {
		return fmt.Errorf("JWT_SECRET must be changed from default value in production")
	}
	if len(c.Security.JWTSecret) < 32 {
		return fmt.Errorf("JWT_SECRET must be at least 32 characters for security")
	}
	if c.Venue.Mode == "live" && (c.Venue.APIKey == "" || c.Venue.APISecret == "") {
		return fmt.Errorf("VENUE_API_KEY and VENUE_API_SECRET are required in live mode")
	}
	if c.Security.ControlSecretHash == "" {
		return fmt.Errorf("CONTROL_SECRET_HASH is required to authenticate control commands")
	}
	return nil
}

func (c *Config) validateRanges() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("SERVER_PORT must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Database.Port < 1 || c.Database.Port > 65535 {
		return fmt.Errorf("DB_PORT must be between 1 and 65535, got %d", c.Database.Port)
	}
	if len(c.Strategy.Symbols) == 0 {
		return fmt.Errorf("SYMBOLS must name at least one symbol")
	}
	if len(c.Strategy.Symbols) > 3 {
		return fmt.Errorf("SYMBOLS supports at most 3 symbols, got %d", len(c.Strategy.Symbols))
	}

	s := c.Strategy
	if err := inRangeInt("LEVERAGE", s.Leverage, 1, 3); err != nil {
		return err
	}
	if err := inRangeFloat("RISK_PER_TRADE_PCT", s.RiskPerTradePct, 0.001, 0.01); err != nil {
		return err
	}
	if err := inRangeFloat("DAILY_MAX_LOSS_PCT", s.DailyMaxLossPct, 0.005, 0.05); err != nil {
		return err
	}
	if err := inRangeInt("MAX_TRADES_PER_DAY", s.MaxTradesPerDay, 1, 20); err != nil {
		return err
	}
	if err := inRangeInt("MAX_CONSECUTIVE_LOSSES", s.MaxConsecutiveLosses, 1, 10); err != nil {
		return err
	}
	if err := inRangeInt("PAUSE_AFTER_CONSECUTIVE_LOSSES_MINUTES", s.PauseAfterConsecutiveLossesMinutes, 15, 180); err != nil {
		return err
	}
	if err := inRangeFloat("MAX_MARGIN_PER_TRADE_PCT", s.MaxMarginPerTradePct, 0.05, 0.5); err != nil {
		return err
	}
	if err := inRangeInt("LIQ_WINDOW_SECONDS", s.LiqWindowSeconds, 30, 120); err != nil {
		return err
	}
	if err := inRangeInt("VOLUME_LOOKBACK", s.VolumeLookback, 10, 50); err != nil {
		return err
	}
	if err := inRangeFloat("VOLUME_MULT", s.VolumeMult, 1.5, 5); err != nil {
		return err
	}
	if err := inRangeInt("EXHAUSTION_CANDLES", s.ExhaustionCandles, 1, 5); err != nil {
		return err
	}
	if err := inRangeInt("SYMBOL_COOLDOWN_SECONDS", s.SymbolCooldownSeconds, 60, 600); err != nil {
		return err
	}
	if err := inRangeFloat("TP_PCT", s.TPPct, 0.0025, 0.0045); err != nil {
		return err
	}
	if err := inRangeFloat("SL_PCT", s.SLPct, 0.0035, 0.0050); err != nil {
		return err
	}
	if err := inRangeInt("TIME_STOP_SECONDS", s.TimeStopSeconds, 120, 180); err != nil {
		return err
	}
	if err := inRangeInt("ENTRY_FILL_TIMEOUT_MS", s.EntryFillTimeoutMs, 200, 2000); err != nil {
		return err
	}
	if c.Venue.Mode != "paper" && c.Venue.Mode != "live" {
		return fmt.Errorf("TRADING_MODE must be paper or live, got %q", c.Venue.Mode)
	}
	return nil
}

func inRangeInt(name string, v, lo, hi int) error {
	if v < lo || v > hi {
		return fmt.Errorf("%s must be between %d and %d, got %d", name, lo, hi, v)
	}
	return nil
}

func inRangeFloat(name string, v, lo, hi float64) error {
	if v < lo || v > hi {
		return fmt.Errorf("%s must be between %v and %v, got %v", name, lo, hi, v)
	}
	return nil
}

// DSN returns the Postgres connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}

// DSNWithoutPassword is safe to log.
func (d DatabaseConfig) DSNWithoutPassword() string {
	return fmt.Sprintf("host=%s port=%d user=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Name, d.SSLMode)
}

// ActiveBaseURL returns the venue REST base URL for the configured mode.
func (v VenueConfig) ActiveBaseURL() string {
	if v.Mode == "paper" && v.Testnet {
		return v.TestnetURL
	}
	return v.BaseURL
}

// Helpers for reading environment variables.

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsList(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	parts := strings.Split(valueStr, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}

// getEnvAsFloatMap parses a "SYMBOL:VALUE,SYMBOL:VALUE" env var into a
// per-symbol map, defaulting every configured symbol to defaultValue first.
func getEnvAsFloatMap(key string, symbols []string, defaultValue float64) map[string]float64 {
	out := make(map[string]float64, len(symbols))
	for _, sym := range symbols {
		out[sym] = defaultValue
	}

	valueStr := os.Getenv(key)
	if valueStr == "" {
		return out
	}
	for _, pair := range strings.Split(valueStr, ",") {
		kv := strings.SplitN(strings.TrimSpace(pair), ":", 2)
		if len(kv) != 2 {
			continue
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(kv[1]), 64)
		if err != nil {
			continue
		}
		out[strings.TrimSpace(kv[0])] = v
	}
	return out
}
