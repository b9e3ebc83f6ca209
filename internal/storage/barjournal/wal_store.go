// Package barjournal persists completed range bars in a write-ahead log so an
// interrupted export run can resume from the last journaled bar instead of
// reprocessing the trade archive.
package barjournal

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"github.com/vadiminshakov/gowal"

	"github.com/tickforge/rangebar/internal/domain"
)

const (
	DefaultDir   = "./wal/rangebars"
	segmentLimit = 1000
	maxSegments  = 100

	barKeyPrefix = "bar_"
)

// BarRecord bundles a journaled bar with the WAL index it was written at.
type BarRecord struct {
	Index  uint64
	Symbol string
	Bar    domain.RangeBar
}

// WALStore persists completed bars in a WAL.
type WALStore struct {
	wal *gowal.Wal
	mu  sync.RWMutex
}

// NewWALStore initializes a WAL-backed bar journal.
func NewWALStore(dir string) (*WALStore, error) {
	if dir == "" {
		dir = DefaultDir
	}

	cfg := gowal.Config{
		Dir:              dir,
		Prefix:           "bars_",
		SegmentThreshold: segmentLimit,
		MaxSegments:      maxSegments,
		IsInSyncDiskMode: true,
	}

	wal, err := gowal.NewWAL(cfg)
	if err != nil {
		return nil, errors.Wrap(err, "init bar journal WAL")
	}

	return &WALStore{wal: wal}, nil
}

// Append writes one completed bar to the journal.
func (s *WALStore) Append(symbol string, bar domain.RangeBar) error {
	if s == nil || s.wal == nil {
		return errors.New("bar journal is not initialized")
	}
	if symbol == "" {
		return fmt.Errorf("bar journal symbol is required")
	}

	payload, err := json.Marshal(bar)
	if err != nil {
		return errors.Wrap(err, "marshal bar")
	}

	key := fmt.Sprintf("%s%s", barKeyPrefix, symbol)

	s.mu.Lock()
	defer s.mu.Unlock()

	nextIndex := s.wal.CurrentIndex() + 1
	return s.wal.Write(nextIndex, key, payload)
}

// BarsAfter returns all bars journaled after the provided WAL index.
func (s *WALStore) BarsAfter(index uint64) ([]BarRecord, error) {
	if s == nil || s.wal == nil {
		return nil, errors.New("bar journal is not initialized")
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	current := s.wal.CurrentIndex()
	if current <= index {
		return nil, nil
	}

	records := make([]BarRecord, 0, current-index)
	for idx := index + 1; idx <= current; idx++ {
		key, payload, err := s.wal.Get(idx)
		if err != nil {
			continue
		}

		if !strings.HasPrefix(key, barKeyPrefix) {
			continue
		}

		var bar domain.RangeBar
		if err := json.Unmarshal(payload, &bar); err != nil {
			return nil, errors.Wrap(err, "decode journaled bar")
		}
		records = append(records, BarRecord{
			Index:  idx,
			Symbol: strings.TrimPrefix(key, barKeyPrefix),
			Bar:    bar,
		})
	}

	return records, nil
}

// CurrentIndex returns the latest WAL index stored.
func (s *WALStore) CurrentIndex() uint64 {
	if s == nil || s.wal == nil {
		return 0
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.wal.CurrentIndex()
}

// Close closes the underlying WAL.
func (s *WALStore) Close() error {
	if s == nil || s.wal == nil {
		return errors.New("bar journal is not initialized")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.wal.Close()
}
