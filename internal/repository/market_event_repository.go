package repository

import (
	"database/sql"

	"reversion/internal/models"
)

// market_event_repository.go - append-only store for the entry gate's
// per-Liquidation factor breakdown (spec.md §4.7).

type MarketEventRepository struct {
	db *sql.DB
}

func NewMarketEventRepository(db *sql.DB) *MarketEventRepository {
	return &MarketEventRepository{db: db}
}

func (r *MarketEventRepository) Insert(me *models.MarketEvent) error {
	query := `
		INSERT INTO market_events (
			symbol, timestamp, liq_side, liq_price, liq_notional,
			liq_size_ok, volume_mult, volume_ok, spread_bps, spread_ok,
			price_delta, momentum_ok, exhaustion, exhaustion_ok,
			risk_admitted, passed, reject_reason
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17)
		RETURNING id`

	return r.db.QueryRow(
		query,
		me.Symbol, me.Timestamp, me.LiqSide, me.LiqPrice, me.LiqNotional,
		me.LiqSizeOK, me.VolumeMult, me.VolumeOK, me.SpreadBps, me.SpreadOK,
		me.PriceDelta, me.MomentumOK, me.Exhaustion, me.ExhaustionOK,
		me.RiskAdmitted, me.Passed, me.RejectReason,
	).Scan(&me.ID)
}

// ListRecent returns the most recent Market Events, newest first.
func (r *MarketEventRepository) ListRecent(limit int) ([]*models.MarketEvent, error) {
	query := `
		SELECT id, symbol, timestamp, liq_side, liq_price, liq_notional,
		       liq_size_ok, volume_mult, volume_ok, spread_bps, spread_ok,
		       price_delta, momentum_ok, exhaustion, exhaustion_ok,
		       risk_admitted, passed, reject_reason
		FROM market_events
		ORDER BY timestamp DESC
		LIMIT $1`

	rows, err := r.db.Query(query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.MarketEvent
	for rows.Next() {
		me := &models.MarketEvent{}
		if err := rows.Scan(
			&me.ID, &me.Symbol, &me.Timestamp, &me.LiqSide, &me.LiqPrice, &me.LiqNotional,
			&me.LiqSizeOK, &me.VolumeMult, &me.VolumeOK, &me.SpreadBps, &me.SpreadOK,
			&me.PriceDelta, &me.MomentumOK, &me.Exhaustion, &me.ExhaustionOK,
			&me.RiskAdmitted, &me.Passed, &me.RejectReason,
		); err != nil {
			return nil, err
		}
		out = append(out, me)
	}
	return out, rows.Err()
}
