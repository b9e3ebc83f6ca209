package domain

// TradeRecord is one aggregated trade as published by the exchange: a rollup
// of matched orders at one price in one instant. Immutable once constructed;
// the pipeline borrows records read-only.
type TradeRecord struct {
	// AggTradeID is the exchange-side monotonic aggregate trade id.
	AggTradeID int64
	// Price of the aggregated fill.
	Price FixedPoint
	// Volume is the total base-asset quantity of the rollup.
	Volume FixedPoint
	// FirstTradeID and LastTradeID bound the underlying raw trades.
	FirstTradeID int64
	LastTradeID  int64
	// TimestampMs is milliseconds since the Unix epoch.
	TimestampMs int64
	// IsBuyerMaker is true when the buyer was the resting order,
	// i.e. the trade was seller-initiated.
	IsBuyerMaker bool
}
