package repository

import (
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"reversion/internal/models"
)

func TestMarketEventRepositoryInsert(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create mock: %v", err)
	}
	defer db.Close()

	now := time.Now()
	mock.ExpectQuery(`INSERT INTO market_events`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))

	repo := NewMarketEventRepository(db)
	me := &models.MarketEvent{
		Symbol:    "BTCUSDT",
		Timestamp: now,
		LiqSide:   models.SideSell,
		LiqPrice:  95600.0,
		Passed:    true,
	}
	if err := repo.Insert(me); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if me.ID != 1 {
		t.Fatalf("ID = %d, want 1", me.ID)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestMarketEventRepositoryListRecent(t *testing.T) {
	now := time.Now()

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create mock: %v", err)
	}
	defer db.Close()

	rows := sqlmock.NewRows([]string{
		"id", "symbol", "timestamp", "liq_side", "liq_price", "liq_notional",
		"liq_size_ok", "volume_mult", "volume_ok", "spread_bps", "spread_ok",
		"price_delta", "momentum_ok", "exhaustion", "exhaustion_ok",
		"risk_admitted", "passed", "reject_reason",
	}).AddRow(1, "BTCUSDT", now, "SELL", 95600.0, 120000.0, true, 3.2, true, 4.1, true,
		0.004, true, 2, true, true, true, "")
	mock.ExpectQuery(`SELECT .+ FROM market_events ORDER BY timestamp DESC LIMIT \$1`).
		WithArgs(20).
		WillReturnRows(rows)

	repo := NewMarketEventRepository(db)
	result, err := repo.ListRecent(20)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result) != 1 || result[0].Symbol != "BTCUSDT" {
		t.Fatalf("unexpected result: %+v", result)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}
