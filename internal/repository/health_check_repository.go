package repository

import (
	"database/sql"

	"reversion/internal/models"
)

// health_check_repository.go - periodic subsystem-reachability snapshots,
// written on the same 5s cadence as the heartbeat.

type HealthCheckRepository struct {
	db *sql.DB
}

func NewHealthCheckRepository(db *sql.DB) *HealthCheckRepository {
	return &HealthCheckRepository{db: db}
}

func (r *HealthCheckRepository) Insert(h *models.HealthCheck) error {
	query := `
		INSERT INTO health_checks (timestamp, bot_state, feed_connected, adapter_reachable, sink_healthy)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`

	return r.db.QueryRow(query, h.Timestamp, h.BotState, h.FeedConnected, h.AdapterReachable, h.SinkHealthy).Scan(&h.ID)
}

func (r *HealthCheckRepository) Latest() (*models.HealthCheck, error) {
	query := `
		SELECT id, timestamp, bot_state, feed_connected, adapter_reachable, sink_healthy
		FROM health_checks
		ORDER BY timestamp DESC
		LIMIT 1`

	h := &models.HealthCheck{}
	err := r.db.QueryRow(query).Scan(&h.ID, &h.Timestamp, &h.BotState, &h.FeedConnected, &h.AdapterReachable, &h.SinkHealthy)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return h, nil
}
