// Package feed supplies bar data to the run loop. Feeds must yield BarSets
// in strictly increasing timestamp order with no duplicates; a symbol with
// no bar on a timestamp is simply absent from that set, never carried
// forward stale.
package feed

import "github.com/quantbench/backsim/market"

// Feed yields one BarSet at a time and returns ok=false at end of data.
// Implementations should be deterministic.
type Feed interface {
	Next() (set market.BarSet, ok bool, err error)
	Close() error
}

// SliceFeed replays a pre-built sequence of BarSets. Used by tests and by
// callers that assemble bars in memory.
type SliceFeed struct {
	sets []market.BarSet
	i    int
}

// FromSets builds a SliceFeed. The caller is responsible for ordering.
func FromSets(sets ...market.BarSet) *SliceFeed {
	return &SliceFeed{sets: sets}
}

func (f *SliceFeed) Next() (market.BarSet, bool, error) {
	if f.i >= len(f.sets) {
		return market.BarSet{}, false, nil
	}
	set := f.sets[f.i]
	f.i++
	return set, true, nil
}

func (f *SliceFeed) Close() error { return nil }

// Drain reads a feed to exhaustion. Used to build indicator tables over
// the full bar history before a run starts.
func Drain(f Feed) ([]market.BarSet, error) {
	var out []market.BarSet
	for {
		set, ok, err := f.Next()
		if err != nil {
			return nil, err
		}
		if !ok {
			return out, nil
		}
		out = append(out, set)
	}
}
