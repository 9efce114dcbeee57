package strategy

import (
	"time"

	"reversion/internal/config"
)

// StrategyParams is the subset of config.StrategyConfig the gate, sizing,
// and monitor read on every event. Kept as its own small struct (rather
// than passing *config.Config everywhere) so this package's dependency on
// internal/config is a single conversion at construction time.
type StrategyParams struct {
	Symbols []string

	RiskPerTradePct float64
	MinLiqUSD       map[string]float64
	VolumeMult      float64
	MaxSpreadBps    map[string]float64

	TPPct                float64
	SLPct                float64
	TimeStopSeconds      int
	SymbolCooldownSeconds int

	EntryFillTimeout     time.Duration
	UseMarketIfNotFilled bool

	TakerFeeRate float64

	Leverage int

	// RecoveryFlattenOrphaned controls boot-time reconciliation: false (the
	// default) adopts an orphaned live position into the Open Position
	// slot; true force-closes it immediately instead.
	RecoveryFlattenOrphaned bool
}

// ParamsFromConfig projects the validated config into StrategyParams.
func ParamsFromConfig(cfg *config.StrategyConfig) StrategyParams {
	return StrategyParams{
		Symbols:               cfg.Symbols,
		RiskPerTradePct:       cfg.RiskPerTradePct,
		MinLiqUSD:             cfg.MinLiqUSD,
		VolumeMult:            cfg.VolumeMult,
		MaxSpreadBps:          cfg.MaxSpreadBps,
		TPPct:                 cfg.TPPct,
		SLPct:                 cfg.SLPct,
		TimeStopSeconds:       cfg.TimeStopSeconds,
		SymbolCooldownSeconds: cfg.SymbolCooldownSeconds,
		EntryFillTimeout:      time.Duration(cfg.EntryFillTimeoutMs) * time.Millisecond,
		UseMarketIfNotFilled:  cfg.UseMarketIfNotFilled,
		TakerFeeRate:          cfg.TakerFeeRate,
		Leverage:              cfg.Leverage,
		RecoveryFlattenOrphaned: cfg.RecoveryFlattenOrphaned,
	}
}
