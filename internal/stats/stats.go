// Package stats accumulates O(1) streaming statistics over a trade stream:
// exact volume/turnover totals and taker-side splits, min/max tracking, and
// numerically stable mean/variance via Welford's method.
package stats

import (
	"math"

	"github.com/shopspring/decimal"

	"github.com/tickforge/rangebar/internal/domain"
)

// vwapPrecision bounds the fractional digits of the VWAP quotient.
const vwapPrecision = 8

// StreamingStats is a mergeable statistics accumulator. Monetary totals are
// exact decimals; distribution moments use Welford's online algorithm in
// float64, which is stable for billion-trade inputs.
type StreamingStats struct {
	tradeCount uint64

	totalVolume   decimal.Decimal
	totalTurnover decimal.Decimal

	buyVolume     decimal.Decimal
	buyTurnover   decimal.Decimal
	sellVolume    decimal.Decimal
	sellTurnover  decimal.Decimal
	buyTradeCount uint64

	minPrice  domain.FixedPoint
	maxPrice  domain.FixedPoint
	minVolume domain.FixedPoint
	maxVolume domain.FixedPoint

	priceMean  float64
	priceM2    float64
	volumeMean float64
	volumeM2   float64

	firstTimestampMs int64
	lastTimestampMs  int64
}

// NewStreamingStats returns an empty accumulator.
func NewStreamingStats() *StreamingStats {
	return &StreamingStats{
		firstTimestampMs: math.MaxInt64,
		lastTimestampMs:  math.MinInt64,
	}
}

// Update folds one trade into the accumulator.
func (s *StreamingStats) Update(trade *domain.TradeRecord) {
	volume := trade.Volume.Decimal()
	turnover := trade.Price.Decimal().Mul(volume)

	s.totalVolume = s.totalVolume.Add(volume)
	s.totalTurnover = s.totalTurnover.Add(turnover)
	if trade.IsBuyerMaker {
		s.sellVolume = s.sellVolume.Add(volume)
		s.sellTurnover = s.sellTurnover.Add(turnover)
	} else {
		s.buyVolume = s.buyVolume.Add(volume)
		s.buyTurnover = s.buyTurnover.Add(turnover)
		s.buyTradeCount++
	}

	if s.tradeCount == 0 {
		s.minPrice, s.maxPrice = trade.Price, trade.Price
		s.minVolume, s.maxVolume = trade.Volume, trade.Volume
	} else {
		if trade.Price < s.minPrice {
			s.minPrice = trade.Price
		}
		if trade.Price > s.maxPrice {
			s.maxPrice = trade.Price
		}
		if trade.Volume < s.minVolume {
			s.minVolume = trade.Volume
		}
		if trade.Volume > s.maxVolume {
			s.maxVolume = trade.Volume
		}
	}

	s.tradeCount++
	price, _ := trade.Price.Decimal().Float64()
	vol, _ := volume.Float64()
	n := float64(s.tradeCount)

	delta := price - s.priceMean
	s.priceMean += delta / n
	s.priceM2 += delta * (price - s.priceMean)

	delta = vol - s.volumeMean
	s.volumeMean += delta / n
	s.volumeM2 += delta * (vol - s.volumeMean)

	if trade.TimestampMs < s.firstTimestampMs {
		s.firstTimestampMs = trade.TimestampMs
	}
	if trade.TimestampMs > s.lastTimestampMs {
		s.lastTimestampMs = trade.TimestampMs
	}
}

// HasData reports whether at least one trade has been accumulated.
func (s *StreamingStats) HasData() bool {
	return s.tradeCount > 0
}

// TradeCount returns the number of accumulated trades.
func (s *StreamingStats) TradeCount() uint64 {
	return s.tradeCount
}

// BuyTradeCount returns the number of buyer-initiated trades.
func (s *StreamingStats) BuyTradeCount() uint64 {
	return s.buyTradeCount
}

// TotalVolume returns the exact volume sum.
func (s *StreamingStats) TotalVolume() decimal.Decimal {
	return s.totalVolume
}

// TotalTurnover returns the exact price*volume sum.
func (s *StreamingStats) TotalTurnover() decimal.Decimal {
	return s.totalTurnover
}

// BuyVolume returns the exact buyer-initiated volume sum.
func (s *StreamingStats) BuyVolume() decimal.Decimal {
	return s.buyVolume
}

// SellVolume returns the exact seller-initiated volume sum.
func (s *StreamingStats) SellVolume() decimal.Decimal {
	return s.sellVolume
}

// MinPrice returns the lowest observed price.
func (s *StreamingStats) MinPrice() domain.FixedPoint { return s.minPrice }

// MaxPrice returns the highest observed price.
func (s *StreamingStats) MaxPrice() domain.FixedPoint { return s.maxPrice }

// MinVolume returns the smallest observed trade volume.
func (s *StreamingStats) MinVolume() domain.FixedPoint { return s.minVolume }

// MaxVolume returns the largest observed trade volume.
func (s *StreamingStats) MaxVolume() domain.FixedPoint { return s.maxVolume }

// MeanPrice returns the running arithmetic mean of trade prices.
func (s *StreamingStats) MeanPrice() float64 {
	return s.priceMean
}

// PriceVariance returns the sample variance of trade prices.
func (s *StreamingStats) PriceVariance() float64 {
	if s.tradeCount < 2 {
		return 0
	}
	return s.priceM2 / float64(s.tradeCount-1)
}

// PriceStdDev returns the sample standard deviation of trade prices.
func (s *StreamingStats) PriceStdDev() float64 {
	return math.Sqrt(s.PriceVariance())
}

// MeanVolume returns the running arithmetic mean of trade volumes.
func (s *StreamingStats) MeanVolume() float64 {
	return s.volumeMean
}

// VolumeVariance returns the sample variance of trade volumes.
func (s *StreamingStats) VolumeVariance() float64 {
	if s.tradeCount < 2 {
		return 0
	}
	return s.volumeM2 / float64(s.tradeCount-1)
}

// VolumeStdDev returns the sample standard deviation of trade volumes.
func (s *StreamingStats) VolumeStdDev() float64 {
	return math.Sqrt(s.VolumeVariance())
}

// VWAP returns the volume-weighted average price, zero when no volume.
func (s *StreamingStats) VWAP() decimal.Decimal {
	if s.totalVolume.IsZero() {
		return decimal.Zero
	}
	return s.totalTurnover.DivRound(s.totalVolume, vwapPrecision)
}

// BuySellVolumeRatio returns buy volume over sell volume, zero when no sells.
func (s *StreamingStats) BuySellVolumeRatio() decimal.Decimal {
	if s.sellVolume.IsZero() {
		return decimal.Zero
	}
	return s.buyVolume.DivRound(s.sellVolume, vwapPrecision)
}

// DataSpanSeconds returns the time covered by the accumulated trades.
func (s *StreamingStats) DataSpanSeconds() float64 {
	if s.tradeCount == 0 || s.lastTimestampMs <= s.firstTimestampMs {
		return 0
	}
	return float64(s.lastTimestampMs-s.firstTimestampMs) / 1000.0
}

// TradingFrequencyHz returns trades per second over the data span.
func (s *StreamingStats) TradingFrequencyHz() float64 {
	span := s.DataSpanSeconds()
	if span == 0 {
		return 0
	}
	return float64(s.tradeCount) / span
}

// Merge combines another accumulator into this one, for example per-file
// accumulators of a multi-file run. The other accumulator is not modified.
func (s *StreamingStats) Merge(other *StreamingStats) {
	if other == nil || other.tradeCount == 0 {
		return
	}
	if s.tradeCount == 0 {
		*s = *other
		return
	}

	s.totalVolume = s.totalVolume.Add(other.totalVolume)
	s.totalTurnover = s.totalTurnover.Add(other.totalTurnover)
	s.buyVolume = s.buyVolume.Add(other.buyVolume)
	s.buyTurnover = s.buyTurnover.Add(other.buyTurnover)
	s.sellVolume = s.sellVolume.Add(other.sellVolume)
	s.sellTurnover = s.sellTurnover.Add(other.sellTurnover)
	s.buyTradeCount += other.buyTradeCount

	if other.minPrice < s.minPrice {
		s.minPrice = other.minPrice
	}
	if other.maxPrice > s.maxPrice {
		s.maxPrice = other.maxPrice
	}
	if other.minVolume < s.minVolume {
		s.minVolume = other.minVolume
	}
	if other.maxVolume > s.maxVolume {
		s.maxVolume = other.maxVolume
	}

	// Chan et al. parallel combination of Welford aggregates.
	na, nb := float64(s.tradeCount), float64(other.tradeCount)
	n := na + nb

	delta := other.priceMean - s.priceMean
	s.priceMean += delta * nb / n
	s.priceM2 += other.priceM2 + delta*delta*na*nb/n

	delta = other.volumeMean - s.volumeMean
	s.volumeMean += delta * nb / n
	s.volumeM2 += other.volumeM2 + delta*delta*na*nb/n

	s.tradeCount += other.tradeCount

	if other.firstTimestampMs < s.firstTimestampMs {
		s.firstTimestampMs = other.firstTimestampMs
	}
	if other.lastTimestampMs > s.lastTimestampMs {
		s.lastTimestampMs = other.lastTimestampMs
	}
}
