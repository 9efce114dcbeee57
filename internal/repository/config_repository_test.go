package repository

import (
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"

	"reversion/internal/models"
)

func TestConfigRepositoryInsert(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create mock: %v", err)
	}
	defer db.Close()

	payload := []byte(`{"Strategy":{}}`)
	mock.ExpectQuery(`INSERT INTO configs`).
		WithArgs(2, payload).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(7))

	repo := NewConfigRepository(db)
	pc := &models.PersistedConfig{Version: 2, Payload: payload}
	if err := repo.Insert(pc); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if pc.ID != 7 {
		t.Fatalf("ID = %d, want 7", pc.ID)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestConfigRepositoryLatest(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create mock: %v", err)
	}
	defer db.Close()

	payload := []byte(`{"Strategy":{}}`)
	mock.ExpectQuery(`SELECT .+ FROM configs ORDER BY version DESC LIMIT 1`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "version", "payload"}).AddRow(7, 2, payload))

	repo := NewConfigRepository(db)
	pc, err := repo.Latest()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if pc == nil || pc.Version != 2 {
		t.Fatalf("got %+v, want version 2", pc)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestConfigRepositoryLatestNoRows(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create mock: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery(`SELECT .+ FROM configs ORDER BY version DESC LIMIT 1`).
		WillReturnError(sql.ErrNoRows)

	repo := NewConfigRepository(db)
	pc, err := repo.Latest()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if pc != nil {
		t.Fatalf("expected nil, got %+v", pc)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}
