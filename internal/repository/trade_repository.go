package repository

import (
	"database/sql"
	"errors"

	"reversion/internal/models"
)

// trade_repository.go - persistence for the Trade Record lifecycle (opened,
// then updated in place on close). Grounded on pair_repository.go's plain
// database/sql Create/Update shape.

var ErrTradeNotFound = errors.New("trade record not found")

type TradeRepository struct {
	db *sql.DB
}

func NewTradeRepository(db *sql.DB) *TradeRepository {
	return &TradeRepository{db: db}
}

// Open inserts the open half of a Trade Record and returns its ID.
func (r *TradeRepository) Open(tr *models.TradeRecord) error {
	query := `
		INSERT INTO trade_records (symbol, side, entry_price, quantity, entry_ts, setup_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`

	return r.db.QueryRow(
		query,
		tr.Symbol,
		tr.Side,
		tr.EntryPrice,
		tr.Quantity,
		tr.EntryTS,
		tr.SetupID,
	).Scan(&tr.ID)
}

// Close updates the row in place with the exit fields.
func (r *TradeRepository) Close(tr *models.TradeRecord) error {
	query := `
		UPDATE trade_records
		SET exit_price = $1, pnl_usdt = $2, pnl_pct = $3, duration_s = $4, fees = $5,
		    slippage_est_pct = $6, exit_reason = $7, exit_ts = $8
		WHERE id = $9`

	result, err := r.db.Exec(
		query,
		tr.ExitPrice,
		tr.PnlUSDT,
		tr.PnlPct,
		tr.DurationS,
		tr.Fees,
		tr.SlippageEstPct,
		tr.ExitReason,
		tr.ExitTS,
		tr.ID,
	)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrTradeNotFound
	}
	return nil
}

// GetByID returns one Trade Record.
func (r *TradeRepository) GetByID(id int64) (*models.TradeRecord, error) {
	query := `
		SELECT id, symbol, side, entry_price, exit_price, quantity, pnl_usdt, pnl_pct,
		       duration_s, fees, slippage_est_pct, exit_reason, entry_ts, exit_ts, setup_id
		FROM trade_records
		WHERE id = $1`

	tr := &models.TradeRecord{}
	err := r.db.QueryRow(query, id).Scan(
		&tr.ID, &tr.Symbol, &tr.Side, &tr.EntryPrice, &tr.ExitPrice, &tr.Quantity,
		&tr.PnlUSDT, &tr.PnlPct, &tr.DurationS, &tr.Fees, &tr.SlippageEstPct,
		&tr.ExitReason, &tr.EntryTS, &tr.ExitTS, &tr.SetupID,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTradeNotFound
		}
		return nil, err
	}
	return tr, nil
}

// ListOpen returns every Trade Record with no exit_reason set, used at boot
// to reconcile against the venue's live position on recovery.
func (r *TradeRepository) ListOpen() ([]*models.TradeRecord, error) {
	query := `
		SELECT id, symbol, side, entry_price, quantity, entry_ts, setup_id
		FROM trade_records
		WHERE exit_reason = '' OR exit_reason IS NULL
		ORDER BY entry_ts`

	rows, err := r.db.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.TradeRecord
	for rows.Next() {
		tr := &models.TradeRecord{}
		if err := rows.Scan(&tr.ID, &tr.Symbol, &tr.Side, &tr.EntryPrice, &tr.Quantity, &tr.EntryTS, &tr.SetupID); err != nil {
			return nil, err
		}
		out = append(out, tr)
	}
	return out, rows.Err()
}

// ListRecent returns the most recent trades, newest first, for status
// reporting.
func (r *TradeRepository) ListRecent(limit int) ([]*models.TradeRecord, error) {
	query := `
		SELECT id, symbol, side, entry_price, exit_price, quantity, pnl_usdt, pnl_pct,
		       duration_s, fees, slippage_est_pct, exit_reason, entry_ts, exit_ts, setup_id
		FROM trade_records
		ORDER BY entry_ts DESC
		LIMIT $1`

	rows, err := r.db.Query(query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.TradeRecord
	for rows.Next() {
		tr := &models.TradeRecord{}
		if err := rows.Scan(
			&tr.ID, &tr.Symbol, &tr.Side, &tr.EntryPrice, &tr.ExitPrice, &tr.Quantity,
			&tr.PnlUSDT, &tr.PnlPct, &tr.DurationS, &tr.Fees, &tr.SlippageEstPct,
			&tr.ExitReason, &tr.EntryTS, &tr.ExitTS, &tr.SetupID,
		); err != nil {
			return nil, err
		}
		out = append(out, tr)
	}
	return out, rows.Err()
}
