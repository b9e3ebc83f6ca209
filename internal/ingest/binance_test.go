package ingest

import (
	"testing"

	"github.com/adshao/go-binance/v2/futures"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tickforge/rangebar/internal/domain"
)

func TestTradeFromAggTrade(t *testing.T) {
	agg := &futures.AggTrade{
		AggTradeID:   123456789,
		Price:        "50000.12345",
		Quantity:     "1.50000000",
		FirstTradeID: 100,
		LastTradeID:  105,
		Timestamp:    1609459200000,
		IsBuyerMaker: true,
	}

	trade, err := TradeFromAggTrade(agg)
	require.NoError(t, err)
	assert.Equal(t, int64(123456789), trade.AggTradeID)
	assert.Equal(t, "50000.12345", trade.Price.String())
	assert.Equal(t, "1.5", trade.Volume.String())
	assert.Equal(t, int64(100), trade.FirstTradeID)
	assert.Equal(t, int64(105), trade.LastTradeID)
	assert.Equal(t, int64(1609459200000), trade.TimestampMs)
	assert.True(t, trade.IsBuyerMaker)
}

func TestTradeFromAggTradeBadPrice(t *testing.T) {
	agg := &futures.AggTrade{AggTradeID: 1, Price: "1e5", Quantity: "1"}
	_, err := TradeFromAggTrade(agg)
	require.ErrorIs(t, err, domain.ErrBadDecimal)
}

func TestTradeFromWsAggTradeEvent(t *testing.T) {
	event := &futures.WsAggTradeEvent{
		Event:            "aggTrade",
		Time:             1609459200100,
		Symbol:           "BTCUSDT",
		AggregateTradeID: 42,
		Price:            "100.80000001",
		Quantity:         "0.25",
		FirstTradeID:     7,
		LastTradeID:      9,
		TradeTime:        1609459200000,
		Maker:            false,
	}

	trade, err := TradeFromWsAggTradeEvent(event)
	require.NoError(t, err)
	assert.Equal(t, int64(42), trade.AggTradeID)
	assert.Equal(t, "100.80000001", trade.Price.String())
	assert.Equal(t, "0.25", trade.Volume.String())
	// Trade time, not event time.
	assert.Equal(t, int64(1609459200000), trade.TimestampMs)
	assert.False(t, trade.IsBuyerMaker)
}

func TestTradeFromWsAggTradeEventBadQuantity(t *testing.T) {
	event := &futures.WsAggTradeEvent{AggregateTradeID: 1, Price: "100", Quantity: ""}
	_, err := TradeFromWsAggTradeEvent(event)
	require.ErrorIs(t, err, domain.ErrEmptyDecimal)
}
