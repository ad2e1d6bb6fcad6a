// Package entryscan implements the EntryScanner stage: a sequential,
// bar-ascending scan that turns signal bars into Positions with next-bar
// fill semantics.
package entryscan

import (
	"github.com/sawpanic/backtestengine/internal/bars"
	"github.com/sawpanic/backtestengine/internal/bterr"
	"github.com/sawpanic/backtestengine/internal/position"
)

// Scan emits one Position per active signal bar, in bar-ascending order.
// Callers must have already run Series.Validate successfully.
func Scan(s *bars.Series, entryFeeRate, slippageRate float64) ([]*position.Position, error) {
	n := s.Len()
	positions := make([]*position.Position, 0, n)

	for i := 0; i < n; i++ {
		long := s.LongSignal[i]
		short := s.ShortSignal[i]
		if !long && !short {
			continue
		}

		entryIndex := i + 1
		if entryIndex >= n {
			entryIndex = n - 1
		}
		entryTimestamp := s.Timestamp[entryIndex]
		rawOpen := s.Open[entryIndex]

		side := position.Long
		tp, sl, size := s.LongTP[i], s.LongSL[i], s.LongSize[i]
		if short {
			side = position.Short
			tp, sl, size = s.ShortTP[i], s.ShortSL[i], s.ShortSize[i]
		}

		hasExpiration := s.HasExpiration(i)
		expirationTime := s.ExpirationTime[i]
		if hasExpiration && expirationTime < entryTimestamp {
			// Defensive: Series.Validate already checks this against the
			// signal bar's own timestamp; re-check against the (possibly
			// later) entry-bar timestamp after the fill-bar clamp.
			return nil, bterr.New(bterr.KindExpirationInPast, i, "expiration_time %f < entry timestamp %f", expirationTime, entryTimestamp)
		}

		entryPrice, slippageEntry := fillPrice(side, rawOpen, slippageRate)
		feeEntry := size * entryPrice * entryFeeRate

		positions = append(positions, &position.Position{
			PositionID:     entryTimestamp,
			Side:           side,
			EntryIndex:     entryIndex,
			EntryPrice:     entryPrice,
			SlippageEntry:  slippageEntry,
			FeeEntry:       feeEntry,
			Size:           size,
			TP:             tp,
			SL:             sl,
			HasExpiration:  hasExpiration,
			ExpirationTime: expirationTime,
			IsClosed:       false,
		})
	}

	return positions, nil
}

// fillPrice applies entry slippage with the sign convention fixed by side:
// longs pay up, shorts receive less. slippageEntry is always >= 0.
func fillPrice(side position.Side, raw, slippageRate float64) (price, slippage float64) {
	if side == position.Long {
		price = raw * (1 + slippageRate)
		return price, price - raw
	}
	price = raw * (1 - slippageRate)
	return price, raw - price
}
