package repository

import (
	"database/sql"

	"reversion/internal/models"
)

// metrics_repository.go - cumulative-totals snapshots, written on each
// trade close and every 5s heartbeat.

type MetricsRepository struct {
	db *sql.DB
}

func NewMetricsRepository(db *sql.DB) *MetricsRepository {
	return &MetricsRepository{db: db}
}

func (r *MetricsRepository) Insert(m *models.MetricsSnapshot) error {
	query := `
		INSERT INTO metrics_snapshots (
			timestamp, pnl_today_usdt, trade_count_today, win_count, loss_count,
			consecutive_losses, equity_baseline
		) VALUES ($1,$2,$3,$4,$5,$6,$7)
		RETURNING id`

	return r.db.QueryRow(
		query, m.Timestamp, m.PnlTodayUSDT, m.TradeCountToday, m.WinCount, m.LossCount,
		m.ConsecutiveLosses, m.EquityBaseline,
	).Scan(&m.ID)
}

func (r *MetricsRepository) Latest() (*models.MetricsSnapshot, error) {
	query := `
		SELECT id, timestamp, pnl_today_usdt, trade_count_today, win_count, loss_count,
		       consecutive_losses, equity_baseline
		FROM metrics_snapshots
		ORDER BY timestamp DESC
		LIMIT 1`

	m := &models.MetricsSnapshot{}
	err := r.db.QueryRow(query).Scan(
		&m.ID, &m.Timestamp, &m.PnlTodayUSDT, &m.TradeCountToday, &m.WinCount, &m.LossCount,
		&m.ConsecutiveLosses, &m.EquityBaseline,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return m, nil
}
