// Package engine implements the Orchestrator: it sequences validator,
// entry scanner, exit simulator, exposure builder, and metrics aggregator,
// and assembles the single result document.
package engine

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/sawpanic/backtestengine/internal/bars"
	"github.com/sawpanic/backtestengine/internal/config"
	"github.com/sawpanic/backtestengine/internal/entryscan"
	"github.com/sawpanic/backtestengine/internal/exitsim"
	"github.com/sawpanic/backtestengine/internal/exposure"
	"github.com/sawpanic/backtestengine/internal/metrics"
	"github.com/sawpanic/backtestengine/internal/position"
	"github.com/sawpanic/backtestengine/internal/telemetry"
)

// Request is the full input to one backtest run.
type Request struct {
	Series *bars.Series
	Config config.RunConfig
}

// Result is the assembled output document. Field names mirror the
// external contract named in spec §2/§3.
type Result struct {
	RunID              string
	ClosedPositions    []*position.Position
	OpenPositions      []*position.Position
	ExposureTimeSeries []exposure.Snapshot
	Metrics            metrics.Summary
}

// Run executes the full pipeline. It is a pure function of req: no
// persisted state is read or written. Validation failures are fatal and no
// partial result is returned.
func Run(ctx context.Context, req Request) (*Result, error) {
	start := time.Now()
	runID := uuid.NewString()
	logger := log.With().Str("run_id", runID).Logger()

	n, err := req.Series.Validate()
	if err != nil {
		logger.Error().Err(err).Msg("input validation failed")
		return nil, err
	}

	positions, err := entryscan.Scan(req.Series, req.Config.EntryFeeRate, req.Config.SlippageRate)
	if err != nil {
		logger.Error().Err(err).Msg("entry scan failed")
		return nil, err
	}

	if err := exitsim.Simulate(ctx, req.Series, positions, req.Config.ExitFeeRate, req.Config.SlippageRate, req.Config.Workers); err != nil {
		logger.Error().Err(err).Msg("exit simulation aborted")
		return nil, err
	}

	snapshots := exposure.Build(req.Series, positions, req.Config.InitialEquity)

	closed := make([]*position.Position, 0, len(positions))
	open := make([]*position.Position, 0, len(positions))
	for _, p := range positions {
		if p.IsClosed {
			closed = append(closed, p)
		} else {
			open = append(open, p)
		}
	}

	summary := metrics.Aggregate(closed, snapshots)

	var finalEquity float64
	if len(snapshots) > 0 {
		finalEquity = snapshots[len(snapshots)-1].TotalEquity
	}
	duration := time.Since(start)
	telemetry.ObserveRun(duration, positions, finalEquity)

	logger.Info().
		Int("bars", n).
		Int("positions", len(positions)).
		Int("closed", len(closed)).
		Int("open", len(open)).
		Dur("duration", duration).
		Msg("backtest run complete")

	return &Result{
		RunID:              runID,
		ClosedPositions:    closed,
		OpenPositions:      open,
		ExposureTimeSeries: snapshots,
		Metrics:            summary,
	}, nil
}
