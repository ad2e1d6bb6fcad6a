package entryscan_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sawpanic/backtestengine/internal/bars"
	"github.com/sawpanic/backtestengine/internal/entryscan"
	"github.com/sawpanic/backtestengine/internal/position"
)

func flat(n int, v float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func TestScanEmitsOnePositionPerSignalBar(t *testing.T) {
	n := 5
	s := &bars.Series{
		Timestamp:      []float64{1, 2, 3, 4, 5},
		Open:           []float64{10, 11, 12, 13, 14},
		LongSignal:     []bool{true, false, true, false, false},
		ShortSignal:    []bool{false, false, false, true, false},
		LongTP:         flat(n, 20),
		LongSL:         flat(n, 5),
		ShortTP:        flat(n, 5),
		ShortSL:        flat(n, 20),
		LongSize:       flat(n, 2),
		ShortSize:      flat(n, 3),
		ExpirationTime: flat(n, bars.NoExpiration),
	}

	positions, err := entryscan.Scan(s, 0, 0)
	require.NoError(t, err)
	require.Len(t, positions, 3)

	// bar 0 -> fill at bar 1
	require.Equal(t, 1, positions[0].EntryIndex)
	require.Equal(t, 11.0, positions[0].EntryPrice)
	require.Equal(t, position.Long, positions[0].Side)
	require.Equal(t, s.Timestamp[1], positions[0].PositionID)

	// bar 2 -> fill at bar 3
	require.Equal(t, 3, positions[1].EntryIndex)
	require.Equal(t, position.Long, positions[1].Side)

	// bar 3 short -> fill at bar 4
	require.Equal(t, 4, positions[2].EntryIndex)
	require.Equal(t, position.Short, positions[2].Side)
	require.Equal(t, 3.0, positions[2].Size)
}

func TestScanAppliesSlippageAndFeeWithCorrectSign(t *testing.T) {
	n := 2
	s := &bars.Series{
		Timestamp:      []float64{1, 2},
		Open:           []float64{100, 200},
		LongSignal:     []bool{true, false},
		ShortSignal:    []bool{false, false},
		LongTP:         flat(n, 300),
		LongSL:         flat(n, 1),
		ShortTP:        flat(n, 1),
		ShortSL:        flat(n, 300),
		LongSize:       flat(n, 2),
		ShortSize:      flat(n, 0),
		ExpirationTime: flat(n, bars.NoExpiration),
	}

	positions, err := entryscan.Scan(s, 0.01, 0.02)
	require.NoError(t, err)
	require.Len(t, positions, 1)

	p := positions[0]
	wantEntryPrice := 200.0 * 1.02
	require.InDelta(t, wantEntryPrice, p.EntryPrice, 1e-9)
	require.InDelta(t, wantEntryPrice-200.0, p.SlippageEntry, 1e-9)
	require.InDelta(t, 2*wantEntryPrice*0.01, p.FeeEntry, 1e-9)
}

func TestScanClampsLastBarSignalToSameBar(t *testing.T) {
	n := 2
	s := &bars.Series{
		Timestamp:      []float64{1, 2},
		Open:           []float64{100, 200},
		LongSignal:     []bool{false, true},
		ShortSignal:    []bool{false, false},
		LongTP:         flat(n, 300),
		LongSL:         flat(n, 1),
		ShortTP:        flat(n, 1),
		ShortSL:        flat(n, 300),
		LongSize:       flat(n, 1),
		ShortSize:      flat(n, 0),
		ExpirationTime: flat(n, bars.NoExpiration),
	}

	positions, err := entryscan.Scan(s, 0, 0)
	require.NoError(t, err)
	require.Len(t, positions, 1)
	require.Equal(t, 1, positions[0].EntryIndex)
	require.Equal(t, 200.0, positions[0].EntryPrice)
}

func TestScanRejectsExpirationBeforeEntryTimestamp(t *testing.T) {
	n := 2
	s := &bars.Series{
		Timestamp:      []float64{1, 2},
		Open:           []float64{100, 200},
		LongSignal:     []bool{true, false},
		ShortSignal:    []bool{false, false},
		LongTP:         flat(n, 300),
		LongSL:         flat(n, 1),
		ShortTP:        flat(n, 1),
		ShortSL:        flat(n, 300),
		LongSize:       flat(n, 1),
		ShortSize:      flat(n, 0),
		ExpirationTime: []float64{1.5, bars.NoExpiration},
	}

	_, err := entryscan.Scan(s, 0, 0)
	require.Error(t, err)
}
