package repository

import (
	"database/sql"

	"reversion/internal/models"
)

// bot_state_repository.go - append-only Bot State transition history.

type BotStateRepository struct {
	db *sql.DB
}

func NewBotStateRepository(db *sql.DB) *BotStateRepository {
	return &BotStateRepository{db: db}
}

func (r *BotStateRepository) Insert(s *models.BotStateRecord) error {
	query := `
		INSERT INTO bot_state_records (state, prev_state, reason, last_error, last_error_ts, timestamp)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`

	return r.db.QueryRow(
		query, s.State, s.PrevState, s.Reason, s.LastError, s.LastErrorTS, s.Timestamp,
	).Scan(&s.ID)
}

// Latest returns the most recent transition, if any.
func (r *BotStateRepository) Latest() (*models.BotStateRecord, error) {
	query := `
		SELECT id, state, prev_state, reason, last_error, last_error_ts, timestamp
		FROM bot_state_records
		ORDER BY timestamp DESC
		LIMIT 1`

	s := &models.BotStateRecord{}
	err := r.db.QueryRow(query).Scan(&s.ID, &s.State, &s.PrevState, &s.Reason, &s.LastError, &s.LastErrorTS, &s.Timestamp)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return s, nil
}
