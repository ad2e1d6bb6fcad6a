// Package bars holds the bar-indexed input arrays and the InputValidator
// that must pass before any other stage runs.
package bars

import (
	"math"

	"github.com/sawpanic/backtestengine/internal/bterr"
)

// NoExpiration is the sentinel value callers use in ExpirationTime to mean
// "this signal has no deadline". It decays to "unset" for the expiration
// check, matching the host-boundary contract in spec §6.
var NoExpiration = math.Inf(1)

// Series bundles the seven parallel timestamp/OHLC/signal arrays plus the
// per-signal parameter arrays, all of length N.
type Series struct {
	Timestamp []float64
	Open      []float64
	High      []float64
	Low       []float64
	Close     []float64

	LongSignal  []bool
	ShortSignal []bool

	LongTP  []float64
	LongSL  []float64
	ShortTP []float64
	ShortSL []float64

	LongSize  []float64
	ShortSize []float64

	// ExpirationTime[i] is the deadline aligned to signal bar i, or
	// NoExpiration when the signal has none.
	ExpirationTime []float64
}

// Len returns N, the common bar count, using Timestamp as the reference
// length. Validate must be called before this is meaningful.
func (s *Series) Len() int {
	return len(s.Timestamp)
}

// HasExpiration reports whether signal bar i carries a real deadline.
func (s *Series) HasExpiration(i int) bool {
	return !math.IsInf(s.ExpirationTime[i], 1)
}

// Validate runs the five ordered InputValidator checks from spec §4.1 and
// returns the common length N on success. Checks run in order and the first
// offending bar of the first failing check is returned as the error; no
// partial results are produced downstream.
func (s *Series) Validate() (int, error) {
	n := len(s.Timestamp)

	arrays := map[string]int{
		"open":            len(s.Open),
		"high":            len(s.High),
		"low":             len(s.Low),
		"close":           len(s.Close),
		"long_signal":     len(s.LongSignal),
		"short_signal":    len(s.ShortSignal),
		"long_tp":         len(s.LongTP),
		"long_sl":         len(s.LongSL),
		"short_tp":        len(s.ShortTP),
		"short_sl":        len(s.ShortSL),
		"long_size":       len(s.LongSize),
		"short_size":      len(s.ShortSize),
		"expiration_time": len(s.ExpirationTime),
	}
	if n < 1 {
		return 0, bterr.New(bterr.KindLengthMismatch, -1, "timestamp array must have length >= 1, got %d", n)
	}
	for name, length := range arrays {
		if length != n {
			return 0, bterr.New(bterr.KindLengthMismatch, -1, "%q length %d != expected %d", name, length, n)
		}
	}

	for i := 0; i < n; i++ {
		if !isFinitePositive(s.Open[i]) || !isFinitePositive(s.High[i]) ||
			!isFinitePositive(s.Low[i]) || !isFinitePositive(s.Close[i]) {
			return 0, bterr.New(bterr.KindNonFinitePrice, i, "non-finite or non-positive price at bar %d", i)
		}
	}

	for i := 0; i+1 < n; i++ {
		if s.Timestamp[i+1] <= s.Timestamp[i] {
			return 0, bterr.New(bterr.KindTimestampsNotIncreasing, i+1, "timestamp %f <= preceding timestamp %f", s.Timestamp[i+1], s.Timestamp[i])
		}
	}

	for i := 0; i < n; i++ {
		if s.LongSignal[i] && s.ShortSignal[i] {
			return 0, bterr.New(bterr.KindSignalConflict, i, "both long_signal and short_signal true")
		}
	}

	for i := 0; i < n; i++ {
		if s.HasExpiration(i) && s.ExpirationTime[i] < s.Timestamp[i] {
			return 0, bterr.New(bterr.KindExpirationInPast, i, "expiration_time %f < timestamp %f", s.ExpirationTime[i], s.Timestamp[i])
		}
	}

	return n, nil
}

func isFinitePositive(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v > 0
}
