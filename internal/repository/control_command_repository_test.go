package repository

import (
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"reversion/internal/models"
)

func TestControlCommandRepositoryEnqueue(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create mock: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery(`INSERT INTO control_commands`).
		WithArgs(sqlmock.AnyArg(), "pause", "").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))

	repo := NewControlCommandRepository(db)
	cmd := &models.ControlCommand{Command: models.CommandPause}
	if err := repo.Enqueue(cmd); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cmd.ID != 1 {
		t.Fatalf("ID = %d, want 1", cmd.ID)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestControlCommandRepositoryFetchPending(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create mock: %v", err)
	}
	defer db.Close()

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "timestamp", "command", "mode", "applied", "result"}).
		AddRow(1, now, "pause", "", false, "")
	mock.ExpectQuery(`SELECT .+ FROM control_commands WHERE applied = false`).WillReturnRows(rows)

	repo := NewControlCommandRepository(db)
	cmds, err := repo.FetchPending()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cmds) != 1 || cmds[0].Command != "pause" {
		t.Fatalf("unexpected result: %+v", cmds)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestControlCommandRepositoryMarkApplied(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create mock: %v", err)
	}
	defer db.Close()

	mock.ExpectExec(`UPDATE control_commands SET applied = \$1, result = \$2 WHERE id = \$3`).
		WithArgs(true, "paused", int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	repo := NewControlCommandRepository(db)
	if err := repo.MarkApplied(1, true, "paused"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestControlCommandRepositoryMarkAppliedNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create mock: %v", err)
	}
	defer db.Close()

	mock.ExpectExec(`UPDATE control_commands SET applied = \$1, result = \$2 WHERE id = \$3`).
		WithArgs(true, "paused", int64(999)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	repo := NewControlCommandRepository(db)
	err = repo.MarkApplied(999, true, "paused")
	if err != ErrControlCommandNotFound {
		t.Fatalf("err = %v, want ErrControlCommandNotFound", err)
	}
}
