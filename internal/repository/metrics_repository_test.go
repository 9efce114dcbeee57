package repository

import (
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"reversion/internal/models"
)

func TestMetricsRepositoryInsert(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create mock: %v", err)
	}
	defer db.Close()

	now := time.Now()
	mock.ExpectQuery(`INSERT INTO metrics_snapshots`).
		WithArgs(now, -12.5, 3, 1, 2, 2, 1000.0).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))

	repo := NewMetricsRepository(db)
	m := &models.MetricsSnapshot{
		Timestamp:         now,
		PnlTodayUSDT:      -12.5,
		TradeCountToday:   3,
		WinCount:          1,
		LossCount:         2,
		ConsecutiveLosses: 2,
		EquityBaseline:    1000.0,
	}
	if err := repo.Insert(m); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m.ID != 1 {
		t.Fatalf("ID = %d, want 1", m.ID)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestMetricsRepositoryLatestNoRows(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create mock: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery(`SELECT .+ FROM metrics_snapshots ORDER BY timestamp DESC LIMIT 1`).
		WillReturnError(sql.ErrNoRows)

	repo := NewMetricsRepository(db)
	result, err := repo.Latest()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != nil {
		t.Fatalf("expected nil, got %+v", result)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}
