package domain

// RangeBar is an OHLCV summary whose lifetime is bounded by a fixed price
// band around its open. It is mutated in place while open and emitted as an
// immutable value once a trade breaches the band (or on flush).
type RangeBar struct {
	Open  FixedPoint `json:"open"`
	High  FixedPoint `json:"high"`
	Low   FixedPoint `json:"low"`
	Close FixedPoint `json:"close"`

	// Volume and Turnover accumulate every trade of the bar, the breaching
	// trade included. BuyVolume/BuyTurnover count only buyer-initiated trades.
	Volume      FixedPoint `json:"volume"`
	Turnover    FixedPoint `json:"turnover"`
	BuyVolume   FixedPoint `json:"buy_volume"`
	BuyTurnover FixedPoint `json:"buy_turnover"`

	OpenTimeMs  int64 `json:"open_time"`
	CloseTimeMs int64 `json:"close_time"`

	FirstAggID int64  `json:"first_agg_id"`
	LastAggID  int64  `json:"last_agg_id"`
	TradeCount uint64 `json:"trade_count"`
}
