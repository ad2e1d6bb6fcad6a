package barsio

import (
	"encoding/json"
	"io"
	"math"

	"github.com/sawpanic/backtestengine/internal/engine"
	"github.com/sawpanic/backtestengine/internal/exposure"
	"github.com/sawpanic/backtestengine/internal/metrics"
	"github.com/sawpanic/backtestengine/internal/position"
)

// positionDoc is the JSON-friendly projection of a Position, using the
// field names named in spec §3 rather than the Go struct's field names.
type positionDoc struct {
	PositionID     float64 `json:"position_id"`
	Side           string  `json:"side"`
	EntryIndex     int     `json:"entry_index"`
	EntryPrice     float64 `json:"entry_price"`
	SlippageEntry  float64 `json:"slippage_entry"`
	FeeEntry       float64 `json:"fee_entry"`
	Size           float64 `json:"size"`
	TP             float64 `json:"tp"`
	SL             float64 `json:"sl"`
	HasExpiration  bool    `json:"has_expiration"`
	ExpirationTime float64 `json:"expiration_time,omitempty"`
	ExitIndex      int     `json:"exit_index,omitempty"`
	ExitPrice      float64 `json:"exit_price,omitempty"`
	ExitCondition  string  `json:"exit_condition,omitempty"`
	SlippageExit   float64 `json:"slippage_exit,omitempty"`
	FeeExit        float64 `json:"fee_exit,omitempty"`
	PnL            float64 `json:"pnl,omitempty"`
	AbsoluteReturn float64 `json:"absolute_return,omitempty"`
	RealReturn     float64 `json:"real_return,omitempty"`
	IsClosed       bool    `json:"is_closed"`
}

func toPositionDoc(p *position.Position) positionDoc {
	return positionDoc{
		PositionID:     p.PositionID,
		Side:           p.Side.String(),
		EntryIndex:     p.EntryIndex,
		EntryPrice:     p.EntryPrice,
		SlippageEntry:  p.SlippageEntry,
		FeeEntry:       p.FeeEntry,
		Size:           p.Size,
		TP:             p.TP,
		SL:             p.SL,
		HasExpiration:  p.HasExpiration,
		ExpirationTime: p.ExpirationTime,
		ExitIndex:      p.ExitIndex,
		ExitPrice:      p.ExitPrice,
		ExitCondition:  p.ExitCondition.String(),
		SlippageExit:   p.SlippageExit,
		FeeExit:        p.FeeExit,
		PnL:            p.PnL,
		AbsoluteReturn: p.AbsoluteReturn,
		RealReturn:     p.RealReturn,
		IsClosed:       p.IsClosed,
	}
}

type snapshotDoc struct {
	Timestamp      float64 `json:"timestamp"`
	LongExposure   float64 `json:"long_exposure"`
	ShortExposure  float64 `json:"short_exposure"`
	TotalExposure  float64 `json:"total_exposure"`
	RealizedEquity float64 `json:"realized_equity"`
	FloatingPnL    float64 `json:"floating_pnl"`
	TotalEquity    float64 `json:"total_equity"`
}

func toSnapshotDoc(s exposure.Snapshot) snapshotDoc {
	return snapshotDoc{
		Timestamp:      s.Timestamp,
		LongExposure:   s.LongExposure,
		ShortExposure:  s.ShortExposure,
		TotalExposure:  s.TotalExposure,
		RealizedEquity: s.RealizedEquity,
		FloatingPnL:    s.FloatingPnL,
		TotalEquity:    s.TotalEquity,
	}
}

type tradeMetricsDoc struct {
	Count          int       `json:"count"`
	WinRate        float64   `json:"win_rate"`
	LossRate       float64   `json:"loss_rate"`
	AvgTradeReturn float64   `json:"avg_trade_return"`
	AvgTradePnL    float64   `json:"avg_trade_pnl"`
	ProfitFactor   *float64  `json:"profit_factor"`
	Expectancy     float64   `json:"expectancy"`
	AvgDuration    float64   `json:"avg_duration"`
	TradeReturns   []float64 `json:"trade_returns"`
	TradePnLs      []float64 `json:"trade_pnls"`
	Durations      []float64 `json:"durations"`
}

func toTradeMetricsDoc(m metrics.TradeMetrics) tradeMetricsDoc {
	// JSON cannot encode +Inf, so an infinite profit factor (no losing
	// trades) is written as null.
	var profitFactor *float64
	if !math.IsInf(m.ProfitFactor, 0) {
		pf := m.ProfitFactor
		profitFactor = &pf
	}
	return tradeMetricsDoc{
		Count:          m.Count,
		WinRate:        m.WinRate,
		LossRate:       m.LossRate,
		AvgTradeReturn: m.AvgTradeReturn,
		AvgTradePnL:    m.AvgTradePnL,
		ProfitFactor:   profitFactor,
		Expectancy:     m.Expectancy,
		AvgDuration:    m.AvgDuration,
		TradeReturns:   m.TradeReturns,
		TradePnLs:      m.TradePnLs,
		Durations:      m.Durations,
	}
}

type timeSeriesMetricsDoc struct {
	Returns          []float64 `json:"returns"`
	MeanReturn       float64   `json:"mean_return"`
	Volatility       float64   `json:"volatility"`
	Sharpe           float64   `json:"sharpe"`
	CumulativeReturn float64   `json:"cumulative_return"`
	MaxDrawdown      float64   `json:"max_drawdown"`
}

func toTimeSeriesMetricsDoc(m metrics.TimeSeriesMetrics) timeSeriesMetricsDoc {
	return timeSeriesMetricsDoc{
		Returns:          m.Returns,
		MeanReturn:       m.MeanReturn,
		Volatility:       m.Volatility,
		Sharpe:           m.Sharpe,
		CumulativeReturn: m.CumulativeReturn,
		MaxDrawdown:      m.MaxDrawdown,
	}
}

type sideMetricsDoc struct {
	TotalReturn float64              `json:"total_return"`
	TotalPnL    float64              `json:"total_pnl"`
	TradeMetrics tradeMetricsDoc     `json:"trade_metrics"`
	TimeMetrics  timeSeriesMetricsDoc `json:"time_metrics"`
}

func toSideMetricsDoc(m metrics.SideMetrics) sideMetricsDoc {
	return sideMetricsDoc{
		TotalReturn:  m.TotalReturn,
		TotalPnL:     m.TotalPnL,
		TradeMetrics: toTradeMetricsDoc(m.Trade),
		TimeMetrics:  toTimeSeriesMetricsDoc(m.TimeSeries),
	}
}

// resultDoc is the JSON shape of a Result, matching the external contract
// field names named in spec §2/§3/§6.
type resultDoc struct {
	RunID              string         `json:"run_id"`
	ClosedPositions    []positionDoc  `json:"closed_positions"`
	OpenPositions      []positionDoc  `json:"open_positions"`
	ExposureTimeSeries []snapshotDoc  `json:"exposure_time_series"`
	Metrics            struct {
		Overall sideMetricsDoc `json:"overall"`
		Long    sideMetricsDoc `json:"long"`
		Short   sideMetricsDoc `json:"short"`
	} `json:"metrics"`
}

// WriteResultJSON marshals a Result into the documented JSON shape.
func WriteResultJSON(w io.Writer, result *engine.Result) error {
	doc := resultDoc{RunID: result.RunID}
	for _, p := range result.ClosedPositions {
		doc.ClosedPositions = append(doc.ClosedPositions, toPositionDoc(p))
	}
	for _, p := range result.OpenPositions {
		doc.OpenPositions = append(doc.OpenPositions, toPositionDoc(p))
	}
	for _, s := range result.ExposureTimeSeries {
		doc.ExposureTimeSeries = append(doc.ExposureTimeSeries, toSnapshotDoc(s))
	}
	doc.Metrics.Overall = toSideMetricsDoc(result.Metrics.Overall)
	doc.Metrics.Long = toSideMetricsDoc(result.Metrics.Long)
	doc.Metrics.Short = toSideMetricsDoc(result.Metrics.Short)

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}
