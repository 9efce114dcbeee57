package repository

import (
	"database/sql"

	"reversion/internal/models"
)

// config_repository.go - persistence for the configs table: one row per
// distinct configuration snapshot, versioned monotonically by the caller.
// Grounded on health_check_repository.go's Insert/Latest shape.

type ConfigRepository struct {
	db *sql.DB
}

func NewConfigRepository(db *sql.DB) *ConfigRepository {
	return &ConfigRepository{db: db}
}

// Insert persists a new configs row and assigns pc.ID.
func (r *ConfigRepository) Insert(pc *models.PersistedConfig) error {
	query := `
		INSERT INTO configs (version, payload)
		VALUES ($1, $2)
		RETURNING id`

	return r.db.QueryRow(query, pc.Version, pc.Payload).Scan(&pc.ID)
}

// Latest returns the highest-versioned configs row, or nil if the table is
// empty (first boot ever, nothing persisted yet).
func (r *ConfigRepository) Latest() (*models.PersistedConfig, error) {
	query := `
		SELECT id, version, payload
		FROM configs
		ORDER BY version DESC
		LIMIT 1`

	pc := &models.PersistedConfig{}
	err := r.db.QueryRow(query).Scan(&pc.ID, &pc.Version, &pc.Payload)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return pc, nil
}
