package feed

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/quantbench/backsim/market"
)

// CSVFeed reads canonical bar CSV rows:
//
//	time,symbol,open,high,low,close,volume
//
// where time is RFC3339 or RFC3339Nano. Rows must be sorted by time;
// consecutive rows sharing a timestamp are grouped into one BarSet. A
// header row ("time,...") is allowed. Empty/short rows are skipped.
//
// It optionally filters bars to [From, To) if provided.
type CSVFeed struct {
	f    *os.File
	r    *csv.Reader
	from time.Time
	to   time.Time

	sawFirst bool
	pending  *market.Bar // first bar of the next set, read past the boundary
	lastTime time.Time
	done     bool
}

// NewCSVFeed opens a bar CSV for replay. Zero from/to disable filtering.
func NewCSVFeed(path string, from, to time.Time) (*CSVFeed, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	return &CSVFeed{f: f, r: r, from: from, to: to}, nil
}

func (f *CSVFeed) Close() error {
	if f.f != nil {
		return f.f.Close()
	}
	return nil
}

// Next returns the next BarSet: all consecutive rows sharing a timestamp.
func (f *CSVFeed) Next() (market.BarSet, bool, error) {
	if f.done && f.pending == nil {
		return market.BarSet{}, false, nil
	}

	var bars []market.Bar
	if f.pending != nil {
		bars = append(bars, *f.pending)
		f.pending = nil
	}

	for {
		b, ok, err := f.readBar()
		if err != nil {
			return market.BarSet{}, false, err
		}
		if !ok {
			f.done = true
			break
		}

		if len(bars) == 0 {
			bars = append(bars, b)
			continue
		}
		if b.Time.Equal(bars[0].Time) {
			bars = append(bars, b)
			continue
		}
		if b.Time.Before(bars[0].Time) {
			return market.BarSet{}, false, fmt.Errorf("csv feed: timestamps not increasing at %s", b.Time.Format(time.RFC3339))
		}
		f.pending = &b
		break
	}

	if len(bars) == 0 {
		return market.BarSet{}, false, nil
	}

	if !f.lastTime.IsZero() && !bars[0].Time.After(f.lastTime) {
		return market.BarSet{}, false, fmt.Errorf("csv feed: duplicate timestamp %s", bars[0].Time.Format(time.RFC3339))
	}
	f.lastTime = bars[0].Time

	set, err := market.NewBarSet(bars[0].Time, bars...)
	if err != nil {
		return market.BarSet{}, false, fmt.Errorf("csv feed: %w", err)
	}
	return set, true, nil
}

// readBar reads rows until it produces one in-range bar, or hits EOF.
func (f *CSVFeed) readBar() (market.Bar, bool, error) {
	for {
		row, err := f.r.Read()
		if err == io.EOF {
			return market.Bar{}, false, nil
		}
		if err != nil {
			return market.Bar{}, false, err
		}
		if len(row) == 0 {
			continue
		}

		// Allow a single header row
		if !f.sawFirst {
			f.sawFirst = true
			if strings.EqualFold(strings.TrimSpace(row[0]), "time") {
				continue
			}
		}

		b, ok, err := parseBarRow(row)
		if err != nil {
			return market.Bar{}, false, err
		}
		if !ok {
			continue
		}
		if !inRange(b.Time, f.from, f.to) {
			continue
		}
		return b, true, nil
	}
}

func parseBarRow(row []string) (market.Bar, bool, error) {
	// Need at least: time,symbol,open,high,low,close
	if len(row) < 6 {
		return market.Bar{}, false, nil
	}

	ts := strings.TrimSpace(row[0])
	if ts == "" {
		return market.Bar{}, false, nil
	}
	t, err := time.Parse(time.RFC3339, ts)
	if err != nil {
		t2, err2 := time.Parse(time.RFC3339Nano, ts)
		if err2 != nil {
			return market.Bar{}, false, fmt.Errorf("bad time %q: %w", ts, err)
		}
		t = t2
	}

	sym := strings.TrimSpace(row[1])
	if sym == "" {
		return market.Bar{}, false, nil
	}

	fields := make([]float64, 4)
	names := []string{"open", "high", "low", "close"}
	for i := 0; i < 4; i++ {
		v, err := strconv.ParseFloat(strings.TrimSpace(row[2+i]), 64)
		if err != nil {
			return market.Bar{}, false, fmt.Errorf("bad %s %q: %w", names[i], row[2+i], err)
		}
		fields[i] = v
	}

	var volume float64
	if len(row) > 6 {
		v, err := strconv.ParseFloat(strings.TrimSpace(row[6]), 64)
		if err != nil {
			return market.Bar{}, false, fmt.Errorf("bad volume %q: %w", row[6], err)
		}
		volume = v
	}

	return market.Bar{
		Symbol: sym,
		Time:   t,
		Open:   fields[0],
		High:   fields[1],
		Low:    fields[2],
		Close:  fields[3],
		Volume: volume,
	}, true, nil
}

func inRange(t, from, to time.Time) bool {
	if !from.IsZero() && t.Before(from) {
		return false
	}
	if !to.IsZero() && !t.Before(to) {
		return false
	}
	return true
}
