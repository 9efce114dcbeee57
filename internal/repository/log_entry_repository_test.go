package repository

import (
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"reversion/internal/models"
)

func TestLogEntryRepositoryInsert(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create mock: %v", err)
	}
	defer db.Close()

	now := time.Now()
	mock.ExpectQuery(`INSERT INTO log_entries`).
		WithArgs(now, models.LogWarn, "strategy", "cooldown active").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))

	repo := NewLogEntryRepository(db)
	e := &models.LogEntry{
		Timestamp: now,
		Level:     models.LogWarn,
		Component: "strategy",
		Message:   "cooldown active",
	}
	if err := repo.Insert(e); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if e.ID != 1 {
		t.Fatalf("ID = %d, want 1", e.ID)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestLogEntryRepositoryListRecent(t *testing.T) {
	now := time.Now()

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create mock: %v", err)
	}
	defer db.Close()

	rows := sqlmock.NewRows([]string{"id", "timestamp", "level", "component", "message"}).
		AddRow(1, now, "WARN", "strategy", "cooldown active")
	mock.ExpectQuery(`SELECT .+ FROM log_entries ORDER BY timestamp DESC LIMIT \$1`).
		WithArgs(50).
		WillReturnRows(rows)

	repo := NewLogEntryRepository(db)
	result, err := repo.ListRecent(50)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result) != 1 || result[0].Component != "strategy" {
		t.Fatalf("unexpected result: %+v", result)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}
