// Package metrics implements the MetricsAggregator stage: per-trade stats
// partitioned by all/long/short, and time-series stats from the overall
// equity curve, which all three sides share.
package metrics

import (
	"math"
	"sort"

	"github.com/sawpanic/backtestengine/internal/exposure"
	"github.com/sawpanic/backtestengine/internal/position"
)

// TradeMetrics summarizes one side's closed trades.
type TradeMetrics struct {
	Count            int
	WinRate          float64
	LossRate         float64
	AvgTradeReturn   float64
	AvgTradePnL      float64
	ProfitFactor     float64
	Expectancy       float64
	AvgDuration      float64
	TradeReturns     []float64
	TradePnLs        []float64
	Durations        []float64
}

// TimeSeriesMetrics summarizes the bar-to-bar equity curve.
type TimeSeriesMetrics struct {
	Returns          []float64
	MeanReturn       float64
	Volatility       float64
	Sharpe           float64
	CumulativeReturn float64
	MaxDrawdown      float64
}

// SideMetrics bundles trade- and time-series-level stats for one side.
type SideMetrics struct {
	TotalReturn float64
	TotalPnL    float64
	Trade       TradeMetrics
	TimeSeries  TimeSeriesMetrics
}

// Summary is the full metrics document: overall plus each side.
type Summary struct {
	Overall SideMetrics
	Long    SideMetrics
	Short   SideMetrics
}

// Aggregate builds the Summary from the finalized closed positions and the
// full exposure curve. closed may include positions of both sides; it is
// partitioned internally.
func Aggregate(closed []*position.Position, snapshots []exposure.Snapshot) Summary {
	longs := make([]*position.Position, 0, len(closed))
	shorts := make([]*position.Position, 0, len(closed))
	for _, p := range closed {
		if p.Side == position.Long {
			longs = append(longs, p)
		} else {
			shorts = append(shorts, p)
		}
	}

	tmAll := computeTradeMetrics(closed)
	tmLong := computeTradeMetrics(longs)
	tmShort := computeTradeMetrics(shorts)
	ts := computeTimeSeries(snapshots)

	totalReturn := ts.CumulativeReturn
	var totalPnL float64
	if len(snapshots) > 0 {
		final := snapshots[len(snapshots)-1]
		totalPnL = final.RealizedEquity + final.FloatingPnL
	}

	return Summary{
		Overall: SideMetrics{
			TotalReturn: totalReturn,
			TotalPnL:    totalPnL,
			Trade:       tmAll,
			TimeSeries:  ts,
		},
		Long: SideMetrics{
			TotalReturn: totalReturn,
			TotalPnL:    sum(tmLong.TradePnLs),
			Trade:       tmLong,
			TimeSeries:  ts,
		},
		Short: SideMetrics{
			TotalReturn: totalReturn,
			TotalPnL:    sum(tmShort.TradePnLs),
			Trade:       tmShort,
			TimeSeries:  ts,
		},
	}
}

func computeTradeMetrics(trades []*position.Position) TradeMetrics {
	ordered := make([]*position.Position, len(trades))
	copy(ordered, trades)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].ExitIndex < ordered[j].ExitIndex })

	n := len(ordered)
	returns := make([]float64, 0, n)
	pnls := make([]float64, 0, n)
	durations := make([]float64, 0, n)

	var sumWins, sumLosses float64
	var wins, losses int

	for _, p := range ordered {
		pnls = append(pnls, p.PnL)

		notional := p.EntryPrice * p.Size
		var r float64
		if notional != 0 {
			r = p.PnL / notional
		}
		returns = append(returns, r)

		switch {
		case p.PnL > 0:
			sumWins += p.PnL
			wins++
		case p.PnL < 0:
			sumLosses += -p.PnL
			losses++
		}

		durations = append(durations, float64(p.Duration()))
	}

	nf := float64(n)
	var winRate, lossRate, avgReturn, avgPnL, avgDuration float64
	if n > 0 {
		winRate = float64(wins) / nf
		lossRate = float64(losses) / nf
		avgReturn = sum(returns) / nf
		avgPnL = sum(pnls) / nf
		avgDuration = sum(durations) / nf
	}

	profitFactor := math.Inf(1)
	if sumLosses > 0 {
		profitFactor = sumWins / sumLosses
	}

	return TradeMetrics{
		Count:          n,
		WinRate:        winRate,
		LossRate:       lossRate,
		AvgTradeReturn: avgReturn,
		AvgTradePnL:    avgPnL,
		ProfitFactor:   profitFactor,
		Expectancy:     avgReturn,
		AvgDuration:    avgDuration,
		TradeReturns:   returns,
		TradePnLs:      pnls,
		Durations:      durations,
	}
}

func computeTimeSeries(snapshots []exposure.Snapshot) TimeSeriesMetrics {
	n := len(snapshots)
	if n == 0 {
		return TimeSeriesMetrics{}
	}

	returns := make([]float64, 0, n-1)
	for i := 1; i < n; i++ {
		prev := snapshots[i-1].TotalEquity
		cur := snapshots[i].TotalEquity
		var r float64
		if prev != 0 {
			r = (cur - prev) / prev
		}
		returns = append(returns, r)
	}

	m := float64(len(returns))
	var meanReturn float64
	if m > 0 {
		meanReturn = sum(returns) / m
	}

	var volatility float64
	if m > 1 {
		var sq float64
		for _, r := range returns {
			d := r - meanReturn
			sq += d * d
		}
		volatility = math.Sqrt(sq / (m - 1))
	}

	var sharpe float64
	if volatility != 0 {
		sharpe = meanReturn / volatility
	}

	var cumulativeReturn float64
	if initial := snapshots[0].TotalEquity; initial != 0 {
		cumulativeReturn = snapshots[n-1].TotalEquity/initial - 1
	}

	peak := snapshots[0].TotalEquity
	var maxDrawdown float64
	for _, snap := range snapshots {
		if snap.TotalEquity > peak {
			peak = snap.TotalEquity
		}
		var dd float64
		if peak > 0 {
			dd = (peak - snap.TotalEquity) / peak
		}
		if dd > maxDrawdown {
			maxDrawdown = dd
		}
	}

	return TimeSeriesMetrics{
		Returns:          returns,
		MeanReturn:       meanReturn,
		Volatility:       volatility,
		Sharpe:           sharpe,
		CumulativeReturn: cumulativeReturn,
		MaxDrawdown:      maxDrawdown,
	}
}

func sum(xs []float64) float64 {
	var total float64
	for _, x := range xs {
		total += x
	}
	return total
}
