// Package ingest turns external aggregated-trade representations — Binance
// aggTrades CSV archives and go-binance SDK values — into TradeRecords.
package ingest

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/pkg/errors"

	"github.com/tickforge/rangebar/internal/domain"
)

// csvColumns are the Binance aggTrades archive columns.
var csvColumns = []string{"a", "p", "q", "f", "l", "T", "m"}

// CSVReader streams aggTrades rows from a Binance archive CSV
// (header a,p,q,f,l,T,m). Prices and volumes go through the exact
// fixed-point parser; a malformed row fails the read with its row number,
// nothing is skipped silently.
type CSVReader struct{}

// NewCSVReader creates a reader.
func NewCSVReader() *CSVReader {
	return &CSVReader{}
}

// Stream reads trades one row at a time and hands each to fn. fn returning an
// error stops the read. Memory stays bounded regardless of file size.
func (r *CSVReader) Stream(rd io.Reader, fn func(domain.TradeRecord) error) error {
	cr := csv.NewReader(rd)
	cr.ReuseRecord = true

	header, err := cr.Read()
	if err != nil {
		return errors.Wrap(err, "read CSV header")
	}
	cols, err := columnIndex(header)
	if err != nil {
		return err
	}

	row := 1
	for {
		record, err := cr.Read()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return errors.Wrapf(err, "read CSV row %d", row+1)
		}
		row++

		trade, err := parseRow(record, cols)
		if err != nil {
			return errors.Wrapf(err, "CSV row %d", row)
		}
		if err := fn(trade); err != nil {
			return err
		}
	}
}

// ReadAll collects every trade of the file into a slice.
func (r *CSVReader) ReadAll(rd io.Reader) ([]domain.TradeRecord, error) {
	var trades []domain.TradeRecord
	err := r.Stream(rd, func(t domain.TradeRecord) error {
		trades = append(trades, t)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return trades, nil
}

func columnIndex(header []string) (map[string]int, error) {
	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[name] = i
	}
	for _, name := range csvColumns {
		if _, ok := cols[name]; !ok {
			return nil, errors.Errorf("CSV header missing column %q", name)
		}
	}
	return cols, nil
}

func parseRow(record []string, cols map[string]int) (domain.TradeRecord, error) {
	var trade domain.TradeRecord
	var err error

	if trade.AggTradeID, err = strconv.ParseInt(record[cols["a"]], 10, 64); err != nil {
		return trade, errors.Wrap(err, "column a")
	}
	if trade.Price, err = domain.ParseFixedPoint(record[cols["p"]]); err != nil {
		return trade, errors.Wrap(err, "column p")
	}
	if trade.Volume, err = domain.ParseFixedPoint(record[cols["q"]]); err != nil {
		return trade, errors.Wrap(err, "column q")
	}
	if trade.FirstTradeID, err = strconv.ParseInt(record[cols["f"]], 10, 64); err != nil {
		return trade, errors.Wrap(err, "column f")
	}
	if trade.LastTradeID, err = strconv.ParseInt(record[cols["l"]], 10, 64); err != nil {
		return trade, errors.Wrap(err, "column l")
	}
	if trade.TimestampMs, err = strconv.ParseInt(record[cols["T"]], 10, 64); err != nil {
		return trade, errors.Wrap(err, "column T")
	}
	if trade.IsBuyerMaker, err = parseArchiveBool(record[cols["m"]]); err != nil {
		return trade, errors.Wrap(err, "column m")
	}
	return trade, nil
}

// parseArchiveBool accepts the Python-style booleans that appear in archive
// dumps alongside the lowercase forms.
func parseArchiveBool(s string) (bool, error) {
	switch s {
	case "True", "true":
		return true, nil
	case "False", "false":
		return false, nil
	default:
		return false, errors.Errorf("invalid boolean value %q", s)
	}
}
