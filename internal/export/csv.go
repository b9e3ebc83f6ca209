// Package export serializes completed range bars to the artifact formats the
// surrounding tooling consumes: CSV and JSON. Prices and volumes use the
// fixed-point canonical decimal form, so any faithful decoder reproduces the
// in-memory bars exactly on round-trip.
package export

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/pkg/errors"

	"github.com/tickforge/rangebar/internal/domain"
)

// CSVColumns is the canonical column order of exported bar files.
var CSVColumns = []string{
	"open_time", "close_time",
	"open", "high", "low", "close",
	"volume", "turnover", "trade_count",
	"first_agg_id", "last_agg_id",
	"buy_volume", "buy_turnover",
}

// WriteCSV writes bars with the canonical header and column order.
func WriteCSV(w io.Writer, bars []domain.RangeBar) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(CSVColumns); err != nil {
		return errors.Wrap(err, "write CSV header")
	}
	for i := range bars {
		b := &bars[i]
		record := []string{
			strconv.FormatInt(b.OpenTimeMs, 10),
			strconv.FormatInt(b.CloseTimeMs, 10),
			b.Open.String(),
			b.High.String(),
			b.Low.String(),
			b.Close.String(),
			b.Volume.String(),
			b.Turnover.String(),
			strconv.FormatUint(b.TradeCount, 10),
			strconv.FormatInt(b.FirstAggID, 10),
			strconv.FormatInt(b.LastAggID, 10),
			b.BuyVolume.String(),
			b.BuyTurnover.String(),
		}
		if err := cw.Write(record); err != nil {
			return errors.Wrapf(err, "write CSV bar %d", i)
		}
	}

	cw.Flush()
	return errors.Wrap(cw.Error(), "flush CSV")
}

// ReadCSV parses a file previously produced by WriteCSV.
func ReadCSV(r io.Reader) ([]domain.RangeBar, error) {
	cr := csv.NewReader(r)

	header, err := cr.Read()
	if err != nil {
		return nil, errors.Wrap(err, "read CSV header")
	}
	if len(header) != len(CSVColumns) {
		return nil, errors.Errorf("unexpected CSV header width %d", len(header))
	}

	var bars []domain.RangeBar
	row := 1
	for {
		record, err := cr.Read()
		if err == io.EOF {
			return bars, nil
		}
		if err != nil {
			return nil, errors.Wrapf(err, "read CSV row %d", row+1)
		}
		row++

		bar, err := parseBarRecord(record)
		if err != nil {
			return nil, errors.Wrapf(err, "CSV row %d", row)
		}
		bars = append(bars, bar)
	}
}

func parseBarRecord(record []string) (domain.RangeBar, error) {
	var b domain.RangeBar
	var err error

	if b.OpenTimeMs, err = strconv.ParseInt(record[0], 10, 64); err != nil {
		return b, errors.Wrap(err, "open_time")
	}
	if b.CloseTimeMs, err = strconv.ParseInt(record[1], 10, 64); err != nil {
		return b, errors.Wrap(err, "close_time")
	}
	if b.Open, err = domain.ParseFixedPoint(record[2]); err != nil {
		return b, errors.Wrap(err, "open")
	}
	if b.High, err = domain.ParseFixedPoint(record[3]); err != nil {
		return b, errors.Wrap(err, "high")
	}
	if b.Low, err = domain.ParseFixedPoint(record[4]); err != nil {
		return b, errors.Wrap(err, "low")
	}
	if b.Close, err = domain.ParseFixedPoint(record[5]); err != nil {
		return b, errors.Wrap(err, "close")
	}
	if b.Volume, err = domain.ParseFixedPoint(record[6]); err != nil {
		return b, errors.Wrap(err, "volume")
	}
	if b.Turnover, err = domain.ParseFixedPoint(record[7]); err != nil {
		return b, errors.Wrap(err, "turnover")
	}
	if b.TradeCount, err = strconv.ParseUint(record[8], 10, 64); err != nil {
		return b, errors.Wrap(err, "trade_count")
	}
	if b.FirstAggID, err = strconv.ParseInt(record[9], 10, 64); err != nil {
		return b, errors.Wrap(err, "first_agg_id")
	}
	if b.LastAggID, err = strconv.ParseInt(record[10], 10, 64); err != nil {
		return b, errors.Wrap(err, "last_agg_id")
	}
	if b.BuyVolume, err = domain.ParseFixedPoint(record[11]); err != nil {
		return b, errors.Wrap(err, "buy_volume")
	}
	if b.BuyTurnover, err = domain.ParseFixedPoint(record[12]); err != nil {
		return b, errors.Wrap(err, "buy_turnover")
	}
	return b, nil
}
