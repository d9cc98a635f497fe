package journal

import (
	"database/sql"

	_ "github.com/mattn/go-sqlite3"
)

// SQLite persists records to a sqlite database, creating the schema on
// open if needed.
type SQLite struct {
	db *sql.DB
}

func NewSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, err
	}

	return &SQLite{db: db}, nil
}

func (j *SQLite) RecordFill(r FillRecord) error {
	_, err := j.db.Exec(`
		INSERT INTO fills
		(fill_id, run_id, symbol, side, quantity, price, fee, realized, status, reason, time)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.FillID, r.RunID, r.Symbol, r.Side, r.Quantity, r.Price,
		r.Fee, r.Realized, r.Status, r.Reason, r.Time,
	)
	return err
}

func (j *SQLite) RecordEquity(r EquityRecord) error {
	_, err := j.db.Exec(`
		INSERT INTO equity
		(run_id, time, cash, equity, drawdown)
		VALUES (?, ?, ?, ?, ?)`,
		r.RunID, r.Time, r.Cash, r.Equity, r.Drawdown,
	)
	return err
}

func (j *SQLite) RecordRun(r RunRecord) error {
	_, err := j.db.Exec(`
		INSERT INTO runs
		(run_id, strategy, dataset, created, start_time, end_time,
		 initial_cash, final_equity, total_return, annual_return, max_drawdown,
		 trades, wins, losses, win_rate)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.RunID, r.Strategy, r.Dataset, r.Created, r.Start, r.End,
		r.InitialCash, r.FinalEquity, r.TotalReturn, r.AnnualReturn, r.MaxDrawdown,
		r.Trades, r.Wins, r.Losses, r.WinRate,
	)
	return err
}

func (j *SQLite) Close() error {
	return j.db.Close()
}
