// Package indicators computes technical indicators (EMA, RSI, ATR) over
// completed range-bar series. Range bars are event-driven rather than
// time-driven, so indicator periods count bars, not wall-clock intervals.
// It uses the cinar/indicator library for the computations.
package indicators

import (
	"fmt"

	"github.com/cinar/indicator/v2/helper"
	"github.com/cinar/indicator/v2/momentum"
	"github.com/cinar/indicator/v2/trend"
	"github.com/cinar/indicator/v2/volatility"
	"github.com/shopspring/decimal"

	"github.com/tickforge/rangebar/internal/domain"
)

// Closes extracts the close series of a bar sequence as decimals.
func Closes(bars []domain.RangeBar) []decimal.Decimal {
	closes := make([]decimal.Decimal, len(bars))
	for i := range bars {
		closes[i] = bars[i].Close.Decimal()
	}
	return closes
}

// EMA calculates the Exponential Moving Average of bar closes.
func EMA(bars []domain.RangeBar, period int) ([]decimal.Decimal, error) {
	if len(bars) < period {
		return nil, fmt.Errorf("not enough bars: need %d, got %d", period, len(bars))
	}

	closesFloat := decimalsToFloat64(Closes(bars))

	ema := trend.NewEmaWithPeriod[float64](period)
	inputChan := helper.SliceToChan(closesFloat)
	outputChan := ema.Compute(inputChan)
	emaFloat := helper.ChanToSlice(outputChan)

	return float64ToDecimals(emaFloat), nil
}

// RSI calculates the Relative Strength Index of bar closes.
func RSI(bars []domain.RangeBar, period int) ([]decimal.Decimal, error) {
	if len(bars) < period+1 {
		return nil, fmt.Errorf("not enough bars for RSI: need %d, got %d", period+1, len(bars))
	}

	closesFloat := decimalsToFloat64(Closes(bars))

	rsi := momentum.NewRsiWithPeriod[float64](period)
	inputChan := helper.SliceToChan(closesFloat)
	outputChan := rsi.Compute(inputChan)
	rsiFloat := helper.ChanToSlice(outputChan)

	return float64ToDecimals(rsiFloat), nil
}

// ATR calculates the Average True Range over bar high/low/close.
// On range bars ATR converges toward the threshold band width, so deviations
// from it flag gap-driven bars.
func ATR(bars []domain.RangeBar, period int) ([]decimal.Decimal, error) {
	if len(bars) < period+1 {
		return nil, fmt.Errorf("not enough bars for ATR: need %d, got %d", period+1, len(bars))
	}

	highs := make([]float64, len(bars))
	lows := make([]float64, len(bars))
	closes := make([]float64, len(bars))

	for i := range bars {
		highs[i], _ = bars[i].High.Decimal().Float64()
		lows[i], _ = bars[i].Low.Decimal().Float64()
		closes[i], _ = bars[i].Close.Decimal().Float64()
	}

	atr := volatility.NewAtrWithPeriod[float64](period)
	highChan := helper.SliceToChan(highs)
	lowChan := helper.SliceToChan(lows)
	closeChan := helper.SliceToChan(closes)
	outputChan := atr.Compute(highChan, lowChan, closeChan)
	atrFloat := helper.ChanToSlice(outputChan)

	return float64ToDecimals(atrFloat), nil
}

// decimalsToFloat64 converts a slice of decimal.Decimal to []float64.
func decimalsToFloat64(decimals []decimal.Decimal) []float64 {
	result := make([]float64, len(decimals))
	for i, d := range decimals {
		result[i], _ = d.Float64()
	}
	return result
}

// float64ToDecimals converts a slice of float64 to []decimal.Decimal.
func float64ToDecimals(floats []float64) []decimal.Decimal {
	result := make([]decimal.Decimal, len(floats))
	for i, f := range floats {
		result[i] = decimal.NewFromFloat(f)
	}
	return result
}
