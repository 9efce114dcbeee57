package repository

import (
	"database/sql"

	"reversion/internal/models"
)

// log_entry_repository.go - the Event Sink's persisted structured log
// stream, distinct from the process logger (pkg/utils.Logger).

type LogEntryRepository struct {
	db *sql.DB
}

func NewLogEntryRepository(db *sql.DB) *LogEntryRepository {
	return &LogEntryRepository{db: db}
}

func (r *LogEntryRepository) Insert(e *models.LogEntry) error {
	query := `
		INSERT INTO log_entries (timestamp, level, component, message)
		VALUES ($1, $2, $3, $4)
		RETURNING id`

	return r.db.QueryRow(query, e.Timestamp, e.Level, e.Component, e.Message).Scan(&e.ID)
}

func (r *LogEntryRepository) ListRecent(limit int) ([]*models.LogEntry, error) {
	query := `
		SELECT id, timestamp, level, component, message
		FROM log_entries
		ORDER BY timestamp DESC
		LIMIT $1`

	rows, err := r.db.Query(query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.LogEntry
	for rows.Next() {
		e := &models.LogEntry{}
		if err := rows.Scan(&e.ID, &e.Timestamp, &e.Level, &e.Component, &e.Message); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
