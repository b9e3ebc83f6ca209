package stats

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tickforge/rangebar/internal/domain"
)

func mustFP(t *testing.T, s string) domain.FixedPoint {
	t.Helper()
	fp, err := domain.ParseFixedPoint(s)
	require.NoError(t, err)
	return fp
}

func sampleTrades(t *testing.T) []domain.TradeRecord {
	t.Helper()
	return []domain.TradeRecord{
		{AggTradeID: 1, Price: mustFP(t, "100"), Volume: mustFP(t, "2"), TimestampMs: 1000, IsBuyerMaker: false},
		{AggTradeID: 2, Price: mustFP(t, "200"), Volume: mustFP(t, "1"), TimestampMs: 2000, IsBuyerMaker: true},
		{AggTradeID: 3, Price: mustFP(t, "150"), Volume: mustFP(t, "3"), TimestampMs: 4000, IsBuyerMaker: false},
	}
}

func TestStreamingStatsUpdate(t *testing.T) {
	s := NewStreamingStats()
	require.False(t, s.HasData())

	trades := sampleTrades(t)
	for i := range trades {
		s.Update(&trades[i])
	}

	require.True(t, s.HasData())
	assert.Equal(t, uint64(3), s.TradeCount())
	assert.Equal(t, uint64(2), s.BuyTradeCount())

	assert.True(t, s.TotalVolume().Equal(decimal.NewFromInt(6)))
	// turnover: 100*2 + 200*1 + 150*3 = 850
	assert.True(t, s.TotalTurnover().Equal(decimal.NewFromInt(850)))
	assert.True(t, s.BuyVolume().Equal(decimal.NewFromInt(5)))
	assert.True(t, s.SellVolume().Equal(decimal.NewFromInt(1)))

	assert.Equal(t, mustFP(t, "100"), s.MinPrice())
	assert.Equal(t, mustFP(t, "200"), s.MaxPrice())
	assert.Equal(t, mustFP(t, "1"), s.MinVolume())
	assert.Equal(t, mustFP(t, "3"), s.MaxVolume())

	assert.InDelta(t, 150.0, s.MeanPrice(), 1e-9)
	assert.InDelta(t, 2500.0, s.PriceVariance(), 1e-6)
	assert.InDelta(t, 50.0, s.PriceStdDev(), 1e-6)
	assert.InDelta(t, 2.0, s.MeanVolume(), 1e-9)

	// vwap = 850 / 6
	assert.True(t, s.VWAP().Equal(decimal.RequireFromString("141.66666667")), "got %s", s.VWAP())
	assert.True(t, s.BuySellVolumeRatio().Equal(decimal.NewFromInt(5)))

	assert.InDelta(t, 3.0, s.DataSpanSeconds(), 1e-9)
	assert.InDelta(t, 1.0, s.TradingFrequencyHz(), 1e-9)
}

func TestStreamingStatsEmpty(t *testing.T) {
	s := NewStreamingStats()
	assert.Equal(t, float64(0), s.PriceVariance())
	assert.Equal(t, float64(0), s.DataSpanSeconds())
	assert.Equal(t, float64(0), s.TradingFrequencyHz())
	assert.True(t, s.VWAP().IsZero())
	assert.True(t, s.BuySellVolumeRatio().IsZero())
}

// Merging per-chunk accumulators must match a single pass over the stream.
func TestStreamingStatsMerge(t *testing.T) {
	trades := sampleTrades(t)
	extra := []domain.TradeRecord{
		{AggTradeID: 4, Price: mustFP(t, "90"), Volume: mustFP(t, "4"), TimestampMs: 5000, IsBuyerMaker: true},
		{AggTradeID: 5, Price: mustFP(t, "210.5"), Volume: mustFP(t, "0.5"), TimestampMs: 9000, IsBuyerMaker: false},
	}

	single := NewStreamingStats()
	for i := range trades {
		single.Update(&trades[i])
	}
	for i := range extra {
		single.Update(&extra[i])
	}

	left := NewStreamingStats()
	for i := range trades {
		left.Update(&trades[i])
	}
	right := NewStreamingStats()
	for i := range extra {
		right.Update(&extra[i])
	}
	left.Merge(right)

	assert.Equal(t, single.TradeCount(), left.TradeCount())
	assert.Equal(t, single.BuyTradeCount(), left.BuyTradeCount())
	assert.True(t, single.TotalVolume().Equal(left.TotalVolume()))
	assert.True(t, single.TotalTurnover().Equal(left.TotalTurnover()))
	assert.Equal(t, single.MinPrice(), left.MinPrice())
	assert.Equal(t, single.MaxPrice(), left.MaxPrice())
	assert.InDelta(t, single.MeanPrice(), left.MeanPrice(), 1e-9)
	assert.InDelta(t, single.PriceVariance(), left.PriceVariance(), 1e-6)
	assert.InDelta(t, single.MeanVolume(), left.MeanVolume(), 1e-9)
	assert.InDelta(t, single.VolumeVariance(), left.VolumeVariance(), 1e-6)
	assert.InDelta(t, single.DataSpanSeconds(), left.DataSpanSeconds(), 1e-9)
}

func TestStreamingStatsMergeIntoEmpty(t *testing.T) {
	trades := sampleTrades(t)
	filled := NewStreamingStats()
	for i := range trades {
		filled.Update(&trades[i])
	}

	empty := NewStreamingStats()
	empty.Merge(filled)
	assert.Equal(t, filled.TradeCount(), empty.TradeCount())
	assert.True(t, filled.TotalVolume().Equal(empty.TotalVolume()))

	// Merging an empty accumulator is a no-op.
	before := filled.TradeCount()
	filled.Merge(NewStreamingStats())
	assert.Equal(t, before, filled.TradeCount())
}
