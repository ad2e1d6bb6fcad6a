// Package telemetry exposes the Prometheus metrics a backtest run updates.
// Naming and label shape follow the same convention the pack's trading bot
// uses for its own exit-reason/equity metrics.
package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/sawpanic/backtestengine/internal/position"
)

var (
	runDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "backtest_run_duration_seconds",
		Help:    "Wall-clock duration of a full backtest run.",
		Buckets: prometheus.DefBuckets,
	})

	positionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "backtest_positions_total",
			Help: "Positions opened, by side.",
		},
		[]string{"side"},
	)

	exitReasonsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "backtest_exit_reasons_total",
			Help: "Closed positions split by exit reason and side.",
		},
		[]string{"reason", "side"},
	)

	finalEquity = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "backtest_final_equity",
		Help: "Total equity at the last bar of the most recent run.",
	})
)

func init() {
	prometheus.MustRegister(runDuration, positionsTotal, exitReasonsTotal, finalEquity)
}

// ObserveRun records one completed run's duration, per-side position
// counts, per-reason exit counts, and final equity.
func ObserveRun(duration time.Duration, positions []*position.Position, equity float64) {
	runDuration.Observe(duration.Seconds())
	finalEquity.Set(equity)

	for _, p := range positions {
		positionsTotal.WithLabelValues(p.Side.String()).Inc()
		if p.IsClosed {
			exitReasonsTotal.WithLabelValues(p.ExitCondition.String(), p.Side.String()).Inc()
		}
	}
}
