// Package series implements the per-symbol range-bar state machine and the
// batch/streaming drivers over it.
package series

import (
	"github.com/pkg/errors"

	"github.com/tickforge/rangebar/internal/domain"
)

const (
	// MinThresholdBps and MaxThresholdBps bound the accepted threshold range:
	// 0.01% to 100% of the bar open.
	MinThresholdBps = 1
	MaxThresholdBps = 10_000
)

var (
	// ErrInvalidThreshold is returned for a threshold outside [1, 10000] bps.
	ErrInvalidThreshold = errors.New("threshold out of range [1, 10000] basis points")
	// ErrInvalidTrade is returned when a trade violates the ordering contract
	// of the open bar: non-decreasing timestamps, strictly increasing ids.
	ErrInvalidTrade = errors.New("trade violates input ordering")
	// ErrCancelled is returned when a streaming run is cancelled cooperatively.
	ErrCancelled = errors.New("processing cancelled")
)

// RangeBarState is the single-symbol state machine. It holds at most one open
// bar plus the breach band precomputed from that bar's open, so memory is O(1)
// in trade count. Not safe for concurrent use; run one instance per symbol.
//
// The band [lower, upper] is derived once, from the open, and never
// recomputed from evolving high/low values. A bar therefore closes based only
// on information causally prior to its creation plus the current trade.
type RangeBarState struct {
	thresholdBps uint32

	bar   *domain.RangeBar
	upper domain.FixedPoint
	lower domain.FixedPoint
}

// NewRangeBarState creates a state machine for the given threshold.
// The threshold is immutable for the lifetime of the instance.
func NewRangeBarState(thresholdBps uint32) (*RangeBarState, error) {
	if thresholdBps < MinThresholdBps || thresholdBps > MaxThresholdBps {
		return nil, errors.Wrapf(ErrInvalidThreshold, "%d bps", thresholdBps)
	}
	return &RangeBarState{thresholdBps: thresholdBps}, nil
}

// ThresholdBps returns the configured threshold in basis points.
func (s *RangeBarState) ThresholdBps() uint32 {
	return s.thresholdBps
}

// Ingest advances the state machine by one trade. A completed bar, if any, is
// appended to out; the caller owns the buffer. The breaching trade is included
// in the bar it closes, and no new bar is opened on that same trade — the next
// trade starts the next bar.
//
// After a non-nil error the state is unspecified-but-safe: discard it and
// start fresh. Flush remains legal.
func (s *RangeBarState) Ingest(trade *domain.TradeRecord, out *[]domain.RangeBar) error {
	if s.bar == nil {
		return s.open(trade)
	}

	if trade.TimestampMs < s.bar.CloseTimeMs {
		return errors.Wrapf(ErrInvalidTrade,
			"trade %d timestamp %d precedes last ingested time %d",
			trade.AggTradeID, trade.TimestampMs, s.bar.CloseTimeMs)
	}
	if trade.AggTradeID <= s.bar.LastAggID {
		return errors.Wrapf(ErrInvalidTrade,
			"trade id %d not greater than last ingested id %d",
			trade.AggTradeID, s.bar.LastAggID)
	}

	if err := s.accumulate(trade); err != nil {
		return err
	}

	if trade.Price > s.upper || trade.Price < s.lower {
		*out = append(*out, *s.bar)
		s.bar = nil
	}
	return nil
}

// Flush emits the currently-open bar as-is, if any. Used at end of input.
func (s *RangeBarState) Flush(out *[]domain.RangeBar) {
	if s.bar != nil {
		*out = append(*out, *s.bar)
		s.bar = nil
	}
}

// open starts a new bar on the first trade after Empty and fixes the breach
// band from its open price.
func (s *RangeBarState) open(trade *domain.TradeRecord) error {
	turnover, err := trade.Price.Mul(trade.Volume)
	if err != nil {
		return errors.Wrap(err, "turnover")
	}

	delta, err := trade.Price.MulBps(s.thresholdBps)
	if err != nil {
		return errors.Wrap(err, "threshold offset")
	}
	upper, err := trade.Price.Add(delta)
	if err != nil {
		return errors.Wrap(err, "upper bound")
	}
	lower, err := trade.Price.Sub(delta)
	if err != nil {
		return errors.Wrap(err, "lower bound")
	}

	bar := &domain.RangeBar{
		Open:        trade.Price,
		High:        trade.Price,
		Low:         trade.Price,
		Close:       trade.Price,
		Volume:      trade.Volume,
		Turnover:    turnover,
		OpenTimeMs:  trade.TimestampMs,
		CloseTimeMs: trade.TimestampMs,
		FirstAggID:  trade.AggTradeID,
		LastAggID:   trade.AggTradeID,
		TradeCount:  1,
	}
	if !trade.IsBuyerMaker {
		bar.BuyVolume = trade.Volume
		bar.BuyTurnover = turnover
	}

	s.bar = bar
	s.upper = upper
	s.lower = lower
	return nil
}

// accumulate folds one trade into the open bar. The same path serves in-band
// trades and the breaching trade, so the closing bar's high/low/close reflect
// the breach price.
func (s *RangeBarState) accumulate(trade *domain.TradeRecord) error {
	turnover, err := trade.Price.Mul(trade.Volume)
	if err != nil {
		return errors.Wrap(err, "turnover")
	}

	bar := s.bar
	if bar.Volume, err = bar.Volume.Add(trade.Volume); err != nil {
		return errors.Wrap(err, "volume accumulation")
	}
	if bar.Turnover, err = bar.Turnover.Add(turnover); err != nil {
		return errors.Wrap(err, "turnover accumulation")
	}
	if !trade.IsBuyerMaker {
		if bar.BuyVolume, err = bar.BuyVolume.Add(trade.Volume); err != nil {
			return errors.Wrap(err, "buy volume accumulation")
		}
		if bar.BuyTurnover, err = bar.BuyTurnover.Add(turnover); err != nil {
			return errors.Wrap(err, "buy turnover accumulation")
		}
	}

	if trade.Price > bar.High {
		bar.High = trade.Price
	}
	if trade.Price < bar.Low {
		bar.Low = trade.Price
	}
	bar.Close = trade.Price
	bar.CloseTimeMs = trade.TimestampMs
	bar.LastAggID = trade.AggTradeID
	bar.TradeCount++
	return nil
}
