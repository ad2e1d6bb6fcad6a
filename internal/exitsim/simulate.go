// Package exitsim implements the ExitSimulator stage: for each open
// Position, scan bars forward applying the fixed SL -> TP -> EXP
// precedence rule, then write back the exit fields exactly once.
//
// Positions are independent given the read-only bar arrays, so the
// per-position scan runs across a bounded worker pool; results are
// order-independent and deterministic regardless of Workers.
package exitsim

import (
	"context"
	"math"

	"golang.org/x/sync/errgroup"

	"github.com/sawpanic/backtestengine/internal/bars"
	"github.com/sawpanic/backtestengine/internal/position"
)

// Simulate mutates each position in place, closing it when an SL, TP, or
// expiration predicate fires. Workers <= 1 runs sequentially.
func Simulate(ctx context.Context, s *bars.Series, positions []*position.Position, exitFeeRate, slippageRate float64, workers int) error {
	if workers < 1 {
		workers = 1
	}
	n := s.Len()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for _, p := range positions {
		p := p
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}
			simulateOne(p, s, n, exitFeeRate, slippageRate)
			return nil
		})
	}

	return g.Wait()
}

// simulateOne walks bars from entry_index to the end, applying the fixed
// SL > TP > EXP precedence when multiple predicates fire on the same bar.
func simulateOne(p *position.Position, s *bars.Series, n int, exitFeeRate, slippageRate float64) {
	if p.IsClosed {
		return
	}

	for j := p.EntryIndex; j < n; j++ {
		var hitSL, hitTP bool
		if p.Side == position.Long {
			hitSL = s.Low[j] <= p.SL
			hitTP = s.High[j] >= p.TP
		} else {
			hitSL = s.High[j] >= p.SL
			hitTP = s.Low[j] <= p.TP
		}
		expired := p.HasExpiration && s.Timestamp[j] >= p.ExpirationTime

		if !hitSL && !hitTP && !expired {
			continue
		}

		var rawExit float64
		var condition position.ExitCondition
		switch {
		case hitSL:
			rawExit, condition = p.SL, position.ExitSL
		case hitTP:
			rawExit, condition = p.TP, position.ExitTP
		default:
			rawExit, condition = s.Close[j], position.ExitEXP
		}

		exitPrice := exitFill(p.Side, rawExit, slippageRate)
		slippageExit := math.Abs(rawExit - exitPrice)
		feeExit := p.Size * exitPrice * exitFeeRate

		var grossPnL float64
		if p.Side == position.Long {
			grossPnL = (exitPrice - p.EntryPrice) * p.Size
		} else {
			grossPnL = (p.EntryPrice - exitPrice) * p.Size
		}
		pnl := grossPnL - (p.FeeEntry + feeExit)

		var absoluteReturn float64
		if p.EntryPrice != 0 {
			absoluteReturn = exitPrice/p.EntryPrice - 1
		}
		var realReturn float64
		if notional := p.EntryPrice * p.Size; notional != 0 {
			realReturn = pnl / notional
		}

		p.ExitIndex = j
		p.ExitPrice = exitPrice
		p.ExitCondition = condition
		p.SlippageExit = slippageExit
		p.FeeExit = feeExit
		p.PnL = pnl
		p.AbsoluteReturn = absoluteReturn
		p.RealReturn = realReturn
		p.IsClosed = true
		return
	}
}

// exitFill applies exit slippage, the opposite sign convention to entry:
// longs sell down, shorts buy back up.
func exitFill(side position.Side, raw, slippageRate float64) float64 {
	if side == position.Long {
		return raw * (1 - slippageRate)
	}
	return raw * (1 + slippageRate)
}
