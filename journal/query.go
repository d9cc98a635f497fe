package journal

import (
	"database/sql"
	"fmt"
	"time"
)

// GetRun returns a single run summary by ID.
func (j *SQLite) GetRun(runID string) (RunRecord, error) {
	var rec RunRecord

	row := j.db.QueryRow(`
		SELECT run_id, strategy, dataset, created, start_time, end_time,
		       initial_cash, final_equity, total_return, annual_return, max_drawdown,
		       trades, wins, losses, win_rate
		FROM runs
		WHERE run_id = ?`, runID)

	err := scanRun(row.Scan, &rec)
	if err != nil {
		if err == sql.ErrNoRows {
			return RunRecord{}, fmt.Errorf("run %q not found", runID)
		}
		return RunRecord{}, err
	}
	return rec, nil
}

// ListRuns returns all run summaries, most recent first.
func (j *SQLite) ListRuns() ([]RunRecord, error) {
	rows, err := j.db.Query(`
		SELECT run_id, strategy, dataset, created, start_time, end_time,
		       initial_cash, final_equity, total_return, annual_return, max_drawdown,
		       trades, wins, losses, win_rate
		FROM runs
		ORDER BY created DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []RunRecord
	for rows.Next() {
		var rec RunRecord
		if err := scanRun(rows.Scan, &rec); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// ListFillsByRun returns a run's fills (and rejections) in time order.
// ULID fill IDs are time-sortable, which keeps same-timestamp fills in
// execution order.
func (j *SQLite) ListFillsByRun(runID string) ([]FillRecord, error) {
	rows, err := j.db.Query(`
		SELECT fill_id, run_id, symbol, side, quantity, price, fee, realized, status, reason, time
		FROM fills
		WHERE run_id = ?
		ORDER BY fill_id ASC`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []FillRecord
	for rows.Next() {
		var rec FillRecord
		if err := rows.Scan(
			&rec.FillID,
			&rec.RunID,
			&rec.Symbol,
			&rec.Side,
			&rec.Quantity,
			&rec.Price,
			&rec.Fee,
			&rec.Realized,
			&rec.Status,
			&rec.Reason,
			&rec.Time,
		); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// ListEquityByRun returns a run's equity curve within [start, end); zero
// bounds disable that side of the filter.
func (j *SQLite) ListEquityByRun(runID string, start, end time.Time) ([]EquityRecord, error) {
	query := `
		SELECT run_id, time, cash, equity, drawdown
		FROM equity
		WHERE run_id = ?`
	args := []any{runID}

	if !start.IsZero() {
		query += " AND time >= ?"
		args = append(args, start)
	}
	if !end.IsZero() {
		query += " AND time < ?"
		args = append(args, end)
	}
	query += " ORDER BY time ASC"

	rows, err := j.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []EquityRecord
	for rows.Next() {
		var rec EquityRecord
		if err := rows.Scan(&rec.RunID, &rec.Time, &rec.Cash, &rec.Equity, &rec.Drawdown); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func scanRun(scan func(...any) error, rec *RunRecord) error {
	return scan(
		&rec.RunID,
		&rec.Strategy,
		&rec.Dataset,
		&rec.Created,
		&rec.Start,
		&rec.End,
		&rec.InitialCash,
		&rec.FinalEquity,
		&rec.TotalReturn,
		&rec.AnnualReturn,
		&rec.MaxDrawdown,
		&rec.Trades,
		&rec.Wins,
		&rec.Losses,
		&rec.WinRate,
	)
}
