// Package exposure implements the ExposureBuilder stage: a single forward
// pass that produces one Snapshot per bar from the finalized Position set.
package exposure

import (
	"github.com/sawpanic/backtestengine/internal/bars"
	"github.com/sawpanic/backtestengine/internal/position"
)

// Snapshot is an immutable per-bar exposure/equity record.
type Snapshot struct {
	Timestamp      float64
	LongExposure   float64
	ShortExposure  float64
	TotalExposure  float64
	RealizedEquity float64
	FloatingPnL    float64
	TotalEquity    float64
}

// Build produces N snapshots in bar order using the O(N+M) running-sum
// optimization described for the floating-PnL pass: rather than rescanning
// all M positions on every bar, per-side running sums of size and
// size*entry_price are updated only at entry/exit bars.
func Build(s *bars.Series, positions []*position.Position, initialEquity float64) []Snapshot {
	n := s.Len()

	entriesAt := make([][]*position.Position, n)
	exitsAt := make([][]*position.Position, n)
	for _, p := range positions {
		entriesAt[p.EntryIndex] = append(entriesAt[p.EntryIndex], p)
		if p.IsClosed {
			exitsAt[p.ExitIndex] = append(exitsAt[p.ExitIndex], p)
		}
	}

	snapshots := make([]Snapshot, n)
	var longExposure, shortExposure, cumRealized float64
	var longSumSize, longSumNotional, shortSumSize, shortSumNotional float64

	for i := 0; i < n; i++ {
		for _, p := range entriesAt[i] {
			if p.Side == position.Long {
				longExposure += p.Size
				longSumSize += p.Size
				longSumNotional += p.Size * p.EntryPrice
			} else {
				shortExposure += p.Size
				shortSumSize += p.Size
				shortSumNotional += p.Size * p.EntryPrice
			}
		}
		for _, p := range exitsAt[i] {
			if p.Side == position.Long {
				longExposure -= p.Size
				longSumSize -= p.Size
				longSumNotional -= p.Size * p.EntryPrice
			} else {
				shortExposure -= p.Size
				shortSumSize -= p.Size
				shortSumNotional -= p.Size * p.EntryPrice
			}
			cumRealized += p.PnL
		}

		price := s.Close[i]
		floatingPnL := price*longSumSize - longSumNotional + shortSumNotional - price*shortSumSize

		snapshots[i] = Snapshot{
			Timestamp:      s.Timestamp[i],
			LongExposure:   longExposure,
			ShortExposure:  shortExposure,
			TotalExposure:  longExposure + shortExposure,
			RealizedEquity: cumRealized,
			FloatingPnL:    floatingPnL,
			TotalEquity:    initialEquity + cumRealized + floatingPnL,
		}
	}

	return snapshots
}
