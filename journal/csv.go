package journal

import (
	"encoding/csv"
	"os"
	"strconv"
	"time"
)

// CSV writes fills and equity to two CSV files, flushing per record so a
// partial run still leaves usable output. Run summaries are not persisted
// in CSV form; use the SQLite journal for queryable history.
type CSV struct {
	fills  *csv.Writer
	equity *csv.Writer
	ff, ef *os.File
}

func NewCSV(fillsPath, equityPath string) (*CSV, error) {
	ff, err := os.Create(fillsPath)
	if err != nil {
		return nil, err
	}
	ef, err := os.Create(equityPath)
	if err != nil {
		ff.Close()
		return nil, err
	}

	fw := csv.NewWriter(ff)
	ew := csv.NewWriter(ef)

	if err := fw.Write([]string{"fill_id", "run_id", "symbol", "side", "quantity", "price", "fee", "realized", "status", "reason", "time"}); err != nil {
		return nil, err
	}
	if err := ew.Write([]string{"run_id", "time", "cash", "equity", "drawdown"}); err != nil {
		return nil, err
	}

	fw.Flush()
	if err := fw.Error(); err != nil {
		return nil, err
	}
	ew.Flush()
	if err := ew.Error(); err != nil {
		return nil, err
	}

	return &CSV{fills: fw, equity: ew, ff: ff, ef: ef}, nil
}

func (j *CSV) RecordFill(r FillRecord) error {
	err := j.fills.Write([]string{
		r.FillID,
		r.RunID,
		r.Symbol,
		r.Side,
		f(r.Quantity),
		f(r.Price),
		f(r.Fee),
		f(r.Realized),
		r.Status,
		r.Reason,
		r.Time.Format(time.RFC3339),
	})
	if err != nil {
		return err
	}
	j.fills.Flush()
	return j.fills.Error()
}

func (j *CSV) RecordEquity(r EquityRecord) error {
	err := j.equity.Write([]string{
		r.RunID,
		r.Time.Format(time.RFC3339),
		f(r.Cash),
		f(r.Equity),
		f(r.Drawdown),
	})
	if err != nil {
		return err
	}
	j.equity.Flush()
	return j.equity.Error()
}

func (j *CSV) RecordRun(RunRecord) error { return nil }

func (j *CSV) Close() error {
	j.fills.Flush()
	j.equity.Flush()
	err1 := j.ff.Close()
	err2 := j.ef.Close()
	if err1 != nil {
		return err1
	}
	return err2
}

func f(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
