package engine

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/quantbench/backsim/config"
	"github.com/quantbench/backsim/feed"
	"github.com/quantbench/backsim/indicators"
	"github.com/quantbench/backsim/internal/id"
	"github.com/quantbench/backsim/journal"
	"github.com/quantbench/backsim/metrics"
	"github.com/quantbench/backsim/portfolio"
)

// Result is what a completed run hands to its consumer: the summary
// statistics, the equity curve, and the trade log. Everything in it is
// immutable once Run returns, so consumers may read it concurrently.
type Result struct {
	RunID      string
	Summary    metrics.Summary
	Curve      []metrics.Point
	Fills      []portfolio.Fill
	Rejections int
}

// Runner drives one backtest: bar by bar it marks prices, assembles the
// strategy context, resolves intents, executes fills, and records metrics.
// Processing is strictly sequential — one bar completes before the next
// begins — which is what makes sell-before-buy and same-bar cash
// visibility deterministic without any locking.
type Runner struct {
	cfg     *config.Config
	feed    feed.Feed
	strat   Strategy
	table   *indicators.Table
	jnl     journal.Journal
	log     *zap.Logger
	dataset string
	runID   string
}

// Option configures a Runner.
type Option func(*Runner)

// WithIndicators attaches a precomputed indicator table.
func WithIndicators(t *indicators.Table) Option {
	return func(r *Runner) { r.table = t }
}

// WithJournal persists fills, equity and the run summary. Defaults to an
// in-memory journal.
func WithJournal(j journal.Journal) Option {
	return func(r *Runner) { r.jnl = j }
}

// WithLogger attaches a logger. Defaults to a no-op logger.
func WithLogger(l *zap.Logger) Option {
	return func(r *Runner) { r.log = l }
}

// WithDataset labels the run's data source in the journal.
func WithDataset(name string) Option {
	return func(r *Runner) { r.dataset = name }
}

// NewRunner validates the configuration and assembles a run. Configuration
// errors are fatal here, before the loop ever starts.
func NewRunner(cfg *config.Config, f feed.Feed, strat Strategy, opts ...Option) (*Runner, error) {
	if cfg == nil {
		return nil, fmt.Errorf("runner: config is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("runner: %w", err)
	}
	if f == nil {
		return nil, fmt.Errorf("runner: feed is required")
	}
	if strat == nil {
		return nil, fmt.Errorf("runner: strategy is required")
	}

	r := &Runner{
		cfg:   cfg,
		feed:  f,
		strat: strat,
		jnl:   journal.NewMemory(),
		log:   zap.NewNop(),
		runID: id.New(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// RunID returns the identifier this run journals under.
func (r *Runner) RunID() string { return r.runID }

// Run executes the backtest loop. The context is only checked between
// bars: aborting there leaves the ledger fully consistent, since every
// bar is applied atomically before the next begins.
func (r *Runner) Run(ctx context.Context) (*Result, error) {
	defer r.feed.Close()

	pf, err := portfolio.NewState(r.cfg.InitialCash)
	if err != nil {
		return nil, fmt.Errorf("runner: %w", err)
	}

	resolver := NewResolver(r.cfg)
	exec := New(r.cfg, r.log)
	recorder := metrics.NewRecorder(r.cfg.InitialCash)
	store := NewStore()

	r.log.Info("run starting",
		zap.String("run_id", r.runID),
		zap.String("strategy", r.strat.Name()),
		zap.Float64("initial_cash", r.cfg.InitialCash),
	)

	if s, ok := r.strat.(Starter); ok {
		if err := s.OnStart(store); err != nil {
			return nil, fmt.Errorf("runner: strategy %s on start: %w", r.strat.Name(), err)
		}
	}

	listener, _ := r.strat.(TradeListener)

	var (
		lastTime   time.Time
		rejections int
	)
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		set, ok, err := r.feed.Next()
		if err != nil {
			return nil, fmt.Errorf("runner: feed: %w", err)
		}
		if !ok {
			break
		}
		if !lastTime.IsZero() && !set.Time.After(lastTime) {
			return nil, fmt.Errorf("runner: bar %s not after %s",
				set.Time.Format(time.RFC3339), lastTime.Format(time.RFC3339))
		}
		lastTime = set.Time

		// Mark every symbol that has a bar. Absent symbols keep their
		// previous mark so equity never silently drops to zero on a gap.
		for _, sym := range set.Symbols() {
			b, _ := set.Bar(sym)
			pf.MarkPrice(sym, b.Close)
		}

		bctx := newContext(set.Time, set, pf, r.table, store, r.cfg.Benchmark)
		if err := r.strat.OnBar(bctx); err != nil {
			return nil, fmt.Errorf("runner: strategy %s on bar %s: %w",
				r.strat.Name(), set.Time.Format(time.RFC3339), err)
		}

		orders, rejected := resolver.Resolve(set.Time, set, pf, bctx.take())
		execs := exec.ExecuteBatch(set.Time, set, pf, orders)
		execs = append(rejected, execs...)

		for _, ex := range execs {
			if ex.Rejected {
				rejections++
			} else {
				recorder.RecordFill(ex.Fill)
			}
			if err := r.jnl.RecordFill(fillRecord(r.runID, ex)); err != nil {
				return nil, fmt.Errorf("runner: journal fill: %w", err)
			}
			if listener != nil {
				listener.OnTrade(ex)
			}
		}

		point := recorder.RecordBar(set.Time, pf.Cash(), pf.Equity())
		if err := r.jnl.RecordEquity(journal.EquityRecord{
			RunID:    r.runID,
			Time:     point.Time,
			Cash:     point.Cash,
			Equity:   point.Equity,
			Drawdown: point.Drawdown,
		}); err != nil {
			return nil, fmt.Errorf("runner: journal equity: %w", err)
		}
	}

	if s, ok := r.strat.(Stopper); ok {
		if err := s.OnStop(store); err != nil {
			return nil, fmt.Errorf("runner: strategy %s on stop: %w", r.strat.Name(), err)
		}
	}

	summary := recorder.Summary()
	if err := r.jnl.RecordRun(journal.RunRecord{
		RunID:        r.runID,
		Strategy:     r.strat.Name(),
		Dataset:      r.dataset,
		Created:      time.Now().UTC(),
		Start:        summary.Start,
		End:          summary.End,
		InitialCash:  summary.InitialCash,
		FinalEquity:  summary.FinalEquity,
		TotalReturn:  summary.TotalReturn,
		AnnualReturn: summary.AnnualReturn,
		MaxDrawdown:  summary.MaxDrawdown,
		Trades:       summary.Trades,
		Wins:         summary.Wins,
		Losses:       summary.Losses,
		WinRate:      summary.WinRate,
	}); err != nil {
		return nil, fmt.Errorf("runner: journal run: %w", err)
	}

	r.log.Info("run complete",
		zap.String("run_id", r.runID),
		zap.Float64("final_equity", summary.FinalEquity),
		zap.Float64("total_return", summary.TotalReturn),
		zap.Int("trades", summary.Trades),
		zap.Int("rejections", rejections),
	)

	return &Result{
		RunID:      r.runID,
		Summary:    summary,
		Curve:      recorder.Curve(),
		Fills:      recorder.Fills(),
		Rejections: rejections,
	}, nil
}

func fillRecord(runID string, ex Execution) journal.FillRecord {
	status := journal.StatusFilled
	if ex.Rejected {
		status = journal.StatusRejected
	}
	return journal.FillRecord{
		RunID:    runID,
		FillID:   ex.Fill.ID,
		Symbol:   ex.Fill.Symbol,
		Side:     ex.Fill.Side.String(),
		Quantity: ex.Fill.Quantity,
		Price:    ex.Fill.Price,
		Fee:      ex.Fill.Fee,
		Realized: ex.Fill.Realized,
		Status:   status,
		Reason:   string(ex.Reason),
		Time:     ex.Fill.Time,
	}
}
