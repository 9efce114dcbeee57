package repository

import (
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"reversion/internal/models"
)

func TestTradeRepositoryOpen(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create mock: %v", err)
	}
	defer db.Close()

	now := time.Now()
	mock.ExpectQuery(`INSERT INTO trade_records`).
		WithArgs("BTCUSDT", models.PositionLong, 95600.0, 0.01, now, "setup-1").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))

	repo := NewTradeRepository(db)
	tr := &models.TradeRecord{
		Symbol:     "BTCUSDT",
		Side:       models.PositionLong,
		EntryPrice: 95600.0,
		Quantity:   0.01,
		EntryTS:    now,
		SetupID:    "setup-1",
	}
	if err := repo.Open(tr); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tr.ID != 1 {
		t.Fatalf("ID = %d, want 1", tr.ID)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestTradeRepositoryClose(t *testing.T) {
	tests := []struct {
		name        string
		id          int64
		mockSetup   func(mock sqlmock.Sqlmock)
		expectError error
	}{
		{
			name: "success",
			id:   1,
			mockSetup: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(`UPDATE trade_records SET exit_price`).
					WillReturnResult(sqlmock.NewResult(0, 1))
			},
			expectError: nil,
		},
		{
			name: "not found",
			id:   999,
			mockSetup: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(`UPDATE trade_records SET exit_price`).
					WillReturnResult(sqlmock.NewResult(0, 0))
			},
			expectError: ErrTradeNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			if err != nil {
				t.Fatalf("failed to create mock: %v", err)
			}
			defer db.Close()

			tt.mockSetup(mock)

			repo := NewTradeRepository(db)
			tr := &models.TradeRecord{ID: tt.id, ExitReason: models.ExitTP}
			err = repo.Close(tr)

			if tt.expectError != nil {
				if !errors.Is(err, tt.expectError) {
					t.Errorf("expected error %v, got %v", tt.expectError, err)
				}
			} else if err != nil {
				t.Errorf("unexpected error: %v", err)
			}

			if err := mock.ExpectationsWereMet(); err != nil {
				t.Errorf("unfulfilled expectations: %v", err)
			}
		})
	}
}

func TestTradeRepositoryGetByID(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name        string
		id          int64
		mockSetup   func(mock sqlmock.Sqlmock)
		expectError error
	}{
		{
			name: "success",
			id:   1,
			mockSetup: func(mock sqlmock.Sqlmock) {
				rows := sqlmock.NewRows([]string{
					"id", "symbol", "side", "entry_price", "exit_price", "quantity", "pnl_usdt", "pnl_pct",
					"duration_s", "fees", "slippage_est_pct", "exit_reason", "entry_ts", "exit_ts", "setup_id",
				}).AddRow(1, "BTCUSDT", "LONG", 95600.0, 96200.0, 0.01, 6.0, 0.0063, 42, 0.3, 0.02, "TP", now, now, "setup-1")
				mock.ExpectQuery(`SELECT .+ FROM trade_records WHERE id = \$1`).
					WithArgs(int64(1)).
					WillReturnRows(rows)
			},
			expectError: nil,
		},
		{
			name: "not found",
			id:   999,
			mockSetup: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`SELECT .+ FROM trade_records WHERE id = \$1`).
					WithArgs(int64(999)).
					WillReturnError(sql.ErrNoRows)
			},
			expectError: ErrTradeNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			if err != nil {
				t.Fatalf("failed to create mock: %v", err)
			}
			defer db.Close()

			tt.mockSetup(mock)

			repo := NewTradeRepository(db)
			result, err := repo.GetByID(tt.id)

			if tt.expectError != nil {
				if !errors.Is(err, tt.expectError) {
					t.Errorf("expected error %v, got %v", tt.expectError, err)
				}
			} else {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				if result.Symbol != "BTCUSDT" {
					t.Errorf("Symbol = %s, want BTCUSDT", result.Symbol)
				}
			}

			if err := mock.ExpectationsWereMet(); err != nil {
				t.Errorf("unfulfilled expectations: %v", err)
			}
		})
	}
}

func TestTradeRepositoryListOpen(t *testing.T) {
	now := time.Now()

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create mock: %v", err)
	}
	defer db.Close()

	rows := sqlmock.NewRows([]string{"id", "symbol", "side", "entry_price", "quantity", "entry_ts", "setup_id"}).
		AddRow(1, "BTCUSDT", "LONG", 95600.0, 0.01, now, "setup-1")
	mock.ExpectQuery(`SELECT .+ FROM trade_records WHERE exit_reason`).WillReturnRows(rows)

	repo := NewTradeRepository(db)
	result, err := repo.ListOpen()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result) != 1 {
		t.Fatalf("expected 1 open trade, got %d", len(result))
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestTradeRepositoryListRecent(t *testing.T) {
	now := time.Now()

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create mock: %v", err)
	}
	defer db.Close()

	rows := sqlmock.NewRows([]string{
		"id", "symbol", "side", "entry_price", "exit_price", "quantity", "pnl_usdt", "pnl_pct",
		"duration_s", "fees", "slippage_est_pct", "exit_reason", "entry_ts", "exit_ts", "setup_id",
	}).AddRow(1, "BTCUSDT", "LONG", 95600.0, 96200.0, 0.01, 6.0, 0.0063, 42, 0.3, 0.02, "TP", now, now, "setup-1")
	mock.ExpectQuery(`SELECT .+ FROM trade_records ORDER BY entry_ts DESC LIMIT \$1`).
		WithArgs(10).
		WillReturnRows(rows)

	repo := NewTradeRepository(db)
	result, err := repo.ListRecent(10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result) != 1 {
		t.Fatalf("expected 1 trade, got %d", len(result))
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}
