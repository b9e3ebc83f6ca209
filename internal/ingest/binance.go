package ingest

import (
	"github.com/adshao/go-binance/v2/futures"
	"github.com/pkg/errors"

	"github.com/tickforge/rangebar/internal/domain"
)

// TradeFromAggTrade converts a go-binance UM futures aggregate trade into a
// TradeRecord, parsing the SDK's string price and quantity exactly. Pure
// conversion: the caller owns transport and pagination.
func TradeFromAggTrade(agg *futures.AggTrade) (domain.TradeRecord, error) {
	price, err := domain.ParseFixedPoint(agg.Price)
	if err != nil {
		return domain.TradeRecord{}, errors.Wrapf(err, "agg trade %d price", agg.AggTradeID)
	}
	volume, err := domain.ParseFixedPoint(agg.Quantity)
	if err != nil {
		return domain.TradeRecord{}, errors.Wrapf(err, "agg trade %d quantity", agg.AggTradeID)
	}

	return domain.TradeRecord{
		AggTradeID:   agg.AggTradeID,
		Price:        price,
		Volume:       volume,
		FirstTradeID: agg.FirstTradeID,
		LastTradeID:  agg.LastTradeID,
		TimestampMs:  agg.Timestamp,
		IsBuyerMaker: agg.IsBuyerMaker,
	}, nil
}

// TradeFromWsAggTradeEvent converts a websocket aggregate-trade event.
// The event's trade time (T), not the event time, becomes the timestamp.
func TradeFromWsAggTradeEvent(event *futures.WsAggTradeEvent) (domain.TradeRecord, error) {
	price, err := domain.ParseFixedPoint(event.Price)
	if err != nil {
		return domain.TradeRecord{}, errors.Wrapf(err, "ws agg trade %d price", event.AggregateTradeID)
	}
	volume, err := domain.ParseFixedPoint(event.Quantity)
	if err != nil {
		return domain.TradeRecord{}, errors.Wrapf(err, "ws agg trade %d quantity", event.AggregateTradeID)
	}

	return domain.TradeRecord{
		AggTradeID:   event.AggregateTradeID,
		Price:        price,
		Volume:       volume,
		FirstTradeID: event.FirstTradeID,
		LastTradeID:  event.LastTradeID,
		TimestampMs:  event.TradeTime,
		IsBuyerMaker: event.Maker,
	}, nil
}
