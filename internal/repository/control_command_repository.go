package repository

import (
	"database/sql"
	"errors"
	"time"

	"reversion/internal/models"
)

// control_command_repository.go - the external control channel an
// out-of-process operator writes to (spec.md §4.6). The Control Plane
// polls FetchPending every 5s and marks rows applied once handled.

var ErrControlCommandNotFound = errors.New("control command not found")

type ControlCommandRepository struct {
	db *sql.DB
}

func NewControlCommandRepository(db *sql.DB) *ControlCommandRepository {
	return &ControlCommandRepository{db: db}
}

// Enqueue inserts a new unapplied command row. Called by the control HTTP
// handler, not by the Strategy Core.
func (r *ControlCommandRepository) Enqueue(cmd *models.ControlCommand) error {
	query := `
		INSERT INTO control_commands (timestamp, command, mode, applied, result)
		VALUES ($1, $2, $3, false, '')
		RETURNING id`

	cmd.Timestamp = time.Now()
	return r.db.QueryRow(query, cmd.Timestamp, cmd.Command, cmd.Mode).Scan(&cmd.ID)
}

// FetchPending returns every unapplied command, oldest first.
func (r *ControlCommandRepository) FetchPending() ([]models.ControlCommand, error) {
	query := `
		SELECT id, timestamp, command, mode, applied, result
		FROM control_commands
		WHERE applied = false
		ORDER BY timestamp`

	rows, err := r.db.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.ControlCommand
	for rows.Next() {
		var c models.ControlCommand
		if err := rows.Scan(&c.ID, &c.Timestamp, &c.Command, &c.Mode, &c.Applied, &c.Result); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// MarkApplied records the outcome of handling one command.
func (r *ControlCommandRepository) MarkApplied(id int64, applied bool, result string) error {
	query := `UPDATE control_commands SET applied = $1, result = $2 WHERE id = $3`

	res, err := r.db.Exec(query, applied, result, id)
	if err != nil {
		return err
	}
	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrControlCommandNotFound
	}
	return nil
}
