package exposure_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sawpanic/backtestengine/internal/bars"
	"github.com/sawpanic/backtestengine/internal/exposure"
	"github.com/sawpanic/backtestengine/internal/position"
)

func naiveFloatingPnL(s *bars.Series, positions []*position.Position, bar int) float64 {
	var pnl float64
	for _, p := range positions {
		opened := p.EntryIndex <= bar
		stillOpenAtBar := !p.IsClosed || p.ExitIndex > bar
		if !opened || !stillOpenAtBar {
			continue
		}
		price := s.Close[bar]
		if p.Side == position.Long {
			pnl += price*p.Size - p.Size*p.EntryPrice
		} else {
			pnl += p.Size*p.EntryPrice - price*p.Size
		}
	}
	return pnl
}

func fixture() (*bars.Series, []*position.Position) {
	n := 6
	s := &bars.Series{
		Timestamp: []float64{1, 2, 3, 4, 5, 6},
		Close:     []float64{100, 102, 98, 105, 101, 103},
	}
	_ = n

	positions := []*position.Position{
		{Side: position.Long, EntryIndex: 0, EntryPrice: 100, Size: 2, ExitIndex: 3, ExitPrice: 105, IsClosed: true, PnL: 10},
		{Side: position.Short, EntryIndex: 1, EntryPrice: 102, Size: 1, ExitIndex: 4, ExitPrice: 101, IsClosed: true, PnL: 1},
		{Side: position.Long, EntryIndex: 2, EntryPrice: 98, Size: 3, IsClosed: false},
	}
	return s, positions
}

func TestBuildFloatingPnLMatchesNaiveSum(t *testing.T) {
	s, positions := fixture()
	snapshots := exposure.Build(s, positions, 1000)

	for i, snap := range snapshots {
		want := naiveFloatingPnL(s, positions, i)
		require.InDelta(t, want, snap.FloatingPnL, 1e-9, "bar %d", i)
	}
}

func TestBuildTotalEquityIncludesInitialEquity(t *testing.T) {
	s, positions := fixture()
	snapshots := exposure.Build(s, positions, 1000)

	last := snapshots[len(snapshots)-1]
	require.InDelta(t, 1000+last.RealizedEquity+last.FloatingPnL, last.TotalEquity, 1e-9)
}

func TestBuildFinalExposureMatchesOpenPositions(t *testing.T) {
	s, positions := fixture()
	snapshots := exposure.Build(s, positions, 1000)

	var wantLong, wantShort float64
	for _, p := range positions {
		if p.IsClosed {
			continue
		}
		if p.Side == position.Long {
			wantLong += p.Size
		} else {
			wantShort += p.Size
		}
	}

	last := snapshots[len(snapshots)-1]
	require.InDelta(t, wantLong, last.LongExposure, 1e-9)
	require.InDelta(t, wantShort, last.ShortExposure, 1e-9)
}

func TestBuildRealizedEquityIsMonotoneAtExitBars(t *testing.T) {
	s, positions := fixture()
	snapshots := exposure.Build(s, positions, 1000)

	for i := 1; i < len(snapshots); i++ {
		require.GreaterOrEqual(t, snapshots[i].RealizedEquity, snapshots[i-1].RealizedEquity)
	}
}
