package export

import (
	"encoding/json"
	"io"

	"github.com/pkg/errors"

	"github.com/tickforge/rangebar/internal/domain"
)

// jsonDocument is the artifact layout of exported JSON files: the bar list
// plus the metadata the downstream analyzers read.
type jsonDocument struct {
	Symbol       string            `json:"symbol"`
	ThresholdBps uint32            `json:"threshold_bps"`
	BarCount     int               `json:"bar_count"`
	Bars         []domain.RangeBar `json:"range_bars"`
}

// WriteJSON writes bars with symbol and threshold metadata.
func WriteJSON(w io.Writer, symbol string, thresholdBps uint32, bars []domain.RangeBar) error {
	doc := jsonDocument{
		Symbol:       symbol,
		ThresholdBps: thresholdBps,
		BarCount:     len(bars),
		Bars:         bars,
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return errors.Wrap(enc.Encode(doc), "encode JSON bars")
}

// ReadJSON parses a file previously produced by WriteJSON.
func ReadJSON(r io.Reader) (symbol string, thresholdBps uint32, bars []domain.RangeBar, err error) {
	var doc jsonDocument
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return "", 0, nil, errors.Wrap(err, "decode JSON bars")
	}
	return doc.Symbol, doc.ThresholdBps, doc.Bars, nil
}
