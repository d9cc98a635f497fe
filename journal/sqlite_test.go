package journal

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDB(t *testing.T) *SQLite {
	t.Helper()
	j, err := NewSQLite(filepath.Join(t.TempDir(), "test.sqlite"))
	require.NoError(t, err)
	t.Cleanup(func() { j.Close() })
	return j
}

func sampleFill(runID, fillID string, at time.Time) FillRecord {
	return FillRecord{
		RunID:    runID,
		FillID:   fillID,
		Symbol:   "AAA",
		Side:     "BUY",
		Quantity: 100,
		Price:    10.5,
		Fee:      1.05,
		Status:   StatusFilled,
		Time:     at,
	}
}

func TestSQLiteFillRoundTrip(t *testing.T) {
	j := newTestDB(t)
	now := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, j.RecordFill(sampleFill("run-1", "01AAA", now)))
	require.NoError(t, j.RecordFill(sampleFill("run-1", "01AAB", now)))
	require.NoError(t, j.RecordFill(sampleFill("run-2", "01AAC", now)))

	rej := FillRecord{
		RunID: "run-1", FillID: "01AAD", Symbol: "BBB", Side: "SELL",
		Status: StatusRejected, Reason: "SETTLEMENT_VIOLATION", Time: now,
	}
	require.NoError(t, j.RecordFill(rej))

	fills, err := j.ListFillsByRun("run-1")
	require.NoError(t, err)
	require.Len(t, fills, 3)

	// ULID ordering keeps execution order
	assert.Equal(t, "01AAA", fills[0].FillID)
	assert.Equal(t, StatusRejected, fills[2].Status)
	assert.Equal(t, "SETTLEMENT_VIOLATION", fills[2].Reason)
	assert.Zero(t, fills[2].Quantity)
}

func TestSQLiteEquityRange(t *testing.T) {
	j := newTestDB(t)
	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		require.NoError(t, j.RecordEquity(EquityRecord{
			RunID:  "run-1",
			Time:   base.AddDate(0, 0, i),
			Cash:   1000,
			Equity: 1000 + float64(i),
		}))
	}

	all, err := j.ListEquityByRun("run-1", time.Time{}, time.Time{})
	require.NoError(t, err)
	assert.Len(t, all, 5)

	window, err := j.ListEquityByRun("run-1", base.AddDate(0, 0, 1), base.AddDate(0, 0, 4))
	require.NoError(t, err)
	require.Len(t, window, 3)
	assert.InDelta(t, 1001, window[0].Equity, 1e-9)
}

func TestSQLiteRunRoundTrip(t *testing.T) {
	j := newTestDB(t)
	created := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)

	rec := RunRecord{
		RunID:        "run-1",
		Strategy:     "sma-cross",
		Dataset:      "bars.csv",
		Created:      created,
		Start:        created.AddDate(0, -1, 0),
		End:          created,
		InitialCash:  1_000_000,
		FinalEquity:  1_050_000,
		TotalReturn:  0.05,
		AnnualReturn: 0.8,
		MaxDrawdown:  0.02,
		Trades:       10,
		Wins:         6,
		Losses:       4,
		WinRate:      0.6,
	}
	require.NoError(t, j.RecordRun(rec))

	got, err := j.GetRun("run-1")
	require.NoError(t, err)
	assert.Equal(t, rec.Strategy, got.Strategy)
	assert.InDelta(t, rec.TotalReturn, got.TotalReturn, 1e-12)
	assert.Equal(t, rec.Trades, got.Trades)
	assert.True(t, got.Start.Equal(rec.Start))

	_, err = j.GetRun("missing")
	require.Error(t, err)

	runs, err := j.ListRuns()
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "run-1", runs[0].RunID)
}
