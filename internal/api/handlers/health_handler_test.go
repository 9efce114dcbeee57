package handlers

import (
	"database/sql"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"reversion/internal/repository"
)

func TestHealthHandlerGetHealthzOK(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create mock: %v", err)
	}
	defer db.Close()

	rows := sqlmock.NewRows([]string{"id", "timestamp", "bot_state", "feed_connected", "adapter_reachable", "sink_healthy"}).
		AddRow(1, time.Now(), "RUNNING", true, true, true)
	mock.ExpectQuery(`SELECT .+ FROM health_checks ORDER BY timestamp DESC LIMIT 1`).WillReturnRows(rows)

	handler := NewHealthHandler(repository.NewHealthCheckRepository(db))

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	w := httptest.NewRecorder()

	handler.GetHealthz(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
}

func TestHealthHandlerGetHealthzDegraded(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create mock: %v", err)
	}
	defer db.Close()

	rows := sqlmock.NewRows([]string{"id", "timestamp", "bot_state", "feed_connected", "adapter_reachable", "sink_healthy"}).
		AddRow(1, time.Now(), "ERROR", false, true, true)
	mock.ExpectQuery(`SELECT .+ FROM health_checks ORDER BY timestamp DESC LIMIT 1`).WillReturnRows(rows)

	handler := NewHealthHandler(repository.NewHealthCheckRepository(db))

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	w := httptest.NewRecorder()

	handler.GetHealthz(w, req)

	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusServiceUnavailable)
	}
}

func TestHealthHandlerGetHealthzNoRowsYet(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create mock: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery(`SELECT .+ FROM health_checks ORDER BY timestamp DESC LIMIT 1`).
		WillReturnError(sql.ErrNoRows)

	handler := NewHealthHandler(repository.NewHealthCheckRepository(db))

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	w := httptest.NewRecorder()

	handler.GetHealthz(w, req)

	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusServiceUnavailable)
	}
}
