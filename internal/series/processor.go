package series

import (
	"context"

	"github.com/pkg/errors"

	"github.com/tickforge/rangebar/internal/domain"
)

// BarSink receives completed bars as they are produced. A sink that blocks
// pauses ingestion; no bars are dropped. A sink error aborts the run.
type BarSink func(domain.RangeBar) error

// StreamOptions configures a streaming run.
type StreamOptions struct {
	// FlushOnCancel emits the open bar before returning ErrCancelled.
	FlushOnCancel bool
}

// Processor drives a RangeBarState over slices or streams of trades.
// The batch entry point is a thin wrapper over the same transition function;
// only one partial bar is ever resident.
type Processor struct {
	state *RangeBarState
}

// NewProcessor creates a processor with its own state machine.
func NewProcessor(thresholdBps uint32) (*Processor, error) {
	state, err := NewRangeBarState(thresholdBps)
	if err != nil {
		return nil, err
	}
	return &Processor{state: state}, nil
}

// ProcessTrades ingests a chronologically sorted slice of trades and returns
// every completed bar, the flushed tail included.
func (p *Processor) ProcessTrades(trades []domain.TradeRecord) ([]domain.RangeBar, error) {
	bars := make([]domain.RangeBar, 0, len(trades)/16+1)
	for i := range trades {
		if err := p.state.Ingest(&trades[i], &bars); err != nil {
			return nil, errors.Wrapf(err, "trade %d", trades[i].AggTradeID)
		}
	}
	p.state.Flush(&bars)
	return bars, nil
}

// ProcessStream drives the state machine one trade at a time, forwarding
// completed bars to the sink without materializing the bar list. Memory is
// O(1) in trade count. Cancellation is cooperative: the context is checked
// between trades, and on cancel the open bar is flushed only when
// opts.FlushOnCancel is set.
//
// The trades channel closing ends the run normally: the open bar is flushed
// to the sink and a nil error is returned.
func (p *Processor) ProcessStream(ctx context.Context, trades <-chan domain.TradeRecord, sink BarSink, opts StreamOptions) error {
	out := make([]domain.RangeBar, 0, 1)

	drain := func() error {
		for i := range out {
			if err := sink(out[i]); err != nil {
				return errors.Wrap(err, "sink")
			}
		}
		out = out[:0]
		return nil
	}

	for {
		select {
		case <-ctx.Done():
			if opts.FlushOnCancel {
				p.state.Flush(&out)
				if err := drain(); err != nil {
					return err
				}
			}
			return errors.Wrap(ErrCancelled, ctx.Err().Error())
		case trade, ok := <-trades:
			if !ok {
				p.state.Flush(&out)
				return drain()
			}
			if err := p.state.Ingest(&trade, &out); err != nil {
				return errors.Wrapf(err, "trade %d", trade.AggTradeID)
			}
			if err := drain(); err != nil {
				return err
			}
		}
	}
}
