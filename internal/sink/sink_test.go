package sink

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"reversion/internal/models"
)

func TestRecordTradeOpenedReturnsAssignedID(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create mock: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery(`INSERT INTO trade_records`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(7))

	s := New(db, nil)
	defer s.Close()

	id := s.RecordTradeOpened(models.TradeRecord{Symbol: "BTCUSDT", Side: models.PositionLong})
	if id != 7 {
		t.Fatalf("RecordTradeOpened = %d, want 7", id)
	}
}

func TestRecordTradeOpenedWriteFailureReturnsZero(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create mock: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery(`INSERT INTO trade_records`).
		WillReturnError(errors.New("connection refused"))

	s := New(db, nil)
	defer s.Close()

	id := s.RecordTradeOpened(models.TradeRecord{Symbol: "BTCUSDT"})
	if id != 0 {
		t.Fatalf("RecordTradeOpened = %d, want 0 on write failure", id)
	}
}

func TestRecordMarketEventDrainsAsynchronously(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create mock: %v", err)
	}
	defer db.Close()

	done := make(chan struct{})
	mock.ExpectQuery(`INSERT INTO market_events`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))

	s := New(db, nil)
	defer s.Close()

	s.RecordMarketEvent(models.MarketEvent{Symbol: "BTCUSDT", Timestamp: time.Now()})

	go func() {
		for i := 0; i < 50; i++ {
			if mock.ExpectationsWereMet() == nil {
				close(done)
				return
			}
			time.Sleep(2 * time.Millisecond)
		}
		close(done)
	}()
	<-done

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("market event was not drained in time: %v", err)
	}
}

func TestFetchPendingCommandsPassesThrough(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create mock: %v", err)
	}
	defer db.Close()

	rows := sqlmock.NewRows([]string{"id", "timestamp", "command", "mode", "applied", "result"}).
		AddRow(1, time.Now(), "pause", "", false, "")
	mock.ExpectQuery(`SELECT .+ FROM control_commands WHERE applied = false`).WillReturnRows(rows)

	s := New(db, nil)
	defer s.Close()

	cmds, err := s.FetchPendingCommands(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cmds) != 1 {
		t.Fatalf("expected 1 pending command, got %d", len(cmds))
	}
}

func TestListOpenTradesPassesThrough(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create mock: %v", err)
	}
	defer db.Close()

	rows := sqlmock.NewRows([]string{"id", "symbol", "side", "entry_price", "quantity", "entry_ts", "setup_id"}).
		AddRow(3, "BTCUSDT", models.PositionLong, 50000.0, 0.1, time.Now(), "setup-1")
	mock.ExpectQuery(`SELECT .+ FROM trade_records WHERE exit_reason`).WillReturnRows(rows)

	s := New(db, nil)
	defer s.Close()

	open, err := s.ListOpenTrades(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(open) != 1 || open[0].Symbol != "BTCUSDT" {
		t.Fatalf("got %+v, want one open BTCUSDT trade", open)
	}
}

func TestConfigsExposesRepository(t *testing.T) {
	db, _, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create mock: %v", err)
	}
	defer db.Close()

	s := New(db, nil)
	defer s.Close()

	if s.Configs() == nil {
		t.Fatal("expected Configs() to return a non-nil repository")
	}
}

func TestHealthyDefaultsTrue(t *testing.T) {
	db, _, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create mock: %v", err)
	}
	defer db.Close()

	s := New(db, nil)
	defer s.Close()

	if !s.Healthy() {
		t.Fatal("expected Healthy() to default true")
	}
}
