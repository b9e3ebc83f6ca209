// Command rangebar constructs range bars from Binance UM Futures aggTrades
// archives and exports them as CSV and/or JSON artifacts. Jobs are described
// via YAML configuration or command-line flags.
//
// Usage:
//
//	rangebar --config jobs.yaml
//	rangebar --symbol BTCUSDT --threshold 80 --input aggtrades.csv --output ./out
//
// Each error kind maps to a distinct exit code: 1 configuration, 2 malformed
// decimal input, 3 invalid trade ordering, 4 arithmetic overflow, 5 invalid
// threshold, 6 cancelled, 7 I/O.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/tickforge/rangebar/config"
	"github.com/tickforge/rangebar/internal/domain"
	"github.com/tickforge/rangebar/internal/export"
	"github.com/tickforge/rangebar/internal/ingest"
	"github.com/tickforge/rangebar/internal/series"
	"github.com/tickforge/rangebar/internal/stats"
	"github.com/tickforge/rangebar/internal/storage/barjournal"
)

const (
	exitConfig    = 1
	exitParse     = 2
	exitTrade     = 3
	exitOverflow  = 4
	exitThreshold = 5
	exitCancelled = 6
	exitIO        = 7
)

func main() {
	configs, err := config.Get()
	if err != nil {
		log.Println(err)
		if errors.Is(err, series.ErrInvalidThreshold) {
			os.Exit(exitThreshold)
		}
		os.Exit(exitConfig)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		log.Println(err)
		os.Exit(exitIO)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	for _, cfg := range configs {
		jobLogger := logger.With(
			zap.String("symbol", cfg.Symbol),
			zap.Uint32("threshold_bps", cfg.ThresholdBps),
		)
		if err := runJob(ctx, jobLogger, cfg); err != nil {
			jobLogger.Error("export job failed", zap.Error(err))
			os.Exit(exitCode(err))
		}
	}
}

func runJob(ctx context.Context, logger *zap.Logger, cfg config.Config) error {
	input, err := os.Open(cfg.Input)
	if err != nil {
		return errors.Wrap(err, "open input")
	}
	defer input.Close()

	processor, err := series.NewProcessor(cfg.ThresholdBps)
	if err != nil {
		return err
	}

	var journal *barjournal.WALStore
	if cfg.JournalDir != "" {
		journal, err = barjournal.NewWALStore(cfg.JournalDir)
		if err != nil {
			return err
		}
		defer journal.Close()
	}

	logger.Info("starting export job", zap.String("input", cfg.Input))

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	runStats := stats.NewStreamingStats()
	trades := make(chan domain.TradeRecord, 1024)
	readErr := make(chan error, 1)

	go func() {
		defer close(trades)
		readErr <- ingest.NewCSVReader().Stream(input, func(t domain.TradeRecord) error {
			runStats.Update(&t)
			select {
			case trades <- t:
				return nil
			case <-runCtx.Done():
				return runCtx.Err()
			}
		})
	}()

	var bars []domain.RangeBar
	sink := func(bar domain.RangeBar) error {
		if journal != nil {
			if err := journal.Append(cfg.Symbol, bar); err != nil {
				return err
			}
		}
		bars = append(bars, bar)
		return nil
	}

	streamErr := processor.ProcessStream(runCtx, trades, sink, series.StreamOptions{
		FlushOnCancel: cfg.FlushOnCancel,
	})
	cancel()
	if readerErr := <-readErr; streamErr == nil && readerErr != nil && !errors.Is(readerErr, context.Canceled) {
		return errors.Wrap(readerErr, "read trades")
	}
	if streamErr != nil {
		return streamErr
	}

	for _, format := range cfg.Formats {
		path, err := writeArtifact(cfg, format, bars)
		if err != nil {
			return err
		}
		logger.Info("wrote bars", zap.String("path", path), zap.Int("bars", len(bars)))
	}

	logger.Info("export job complete",
		zap.Uint64("trades", runStats.TradeCount()),
		zap.Int("bars", len(bars)),
		zap.String("vwap", runStats.VWAP().String()),
		zap.Float64("span_seconds", runStats.DataSpanSeconds()),
		zap.Float64("trades_per_second", runStats.TradingFrequencyHz()),
	)
	return nil
}

func writeArtifact(cfg config.Config, format config.Format, bars []domain.RangeBar) (string, error) {
	name := fmt.Sprintf("um_%s_rangebar_%dbps.%s", cfg.Symbol, cfg.ThresholdBps, format)
	path := filepath.Join(cfg.OutputDir, name)

	f, err := os.Create(path)
	if err != nil {
		return "", errors.Wrapf(err, "create %s", path)
	}
	defer f.Close()

	switch format {
	case config.FormatCSV:
		err = export.WriteCSV(f, bars)
	case config.FormatJSON:
		err = export.WriteJSON(f, cfg.Symbol, cfg.ThresholdBps, bars)
	default:
		err = errors.Errorf("unsupported format %q", format)
	}
	if err != nil {
		return "", err
	}
	return path, nil
}

func exitCode(err error) int {
	switch {
	case errors.Is(err, domain.ErrEmptyDecimal),
		errors.Is(err, domain.ErrBadDecimal),
		errors.Is(err, domain.ErrTooManyFractionalDigits):
		return exitParse
	case errors.Is(err, series.ErrInvalidTrade):
		return exitTrade
	case errors.Is(err, domain.ErrOverflow):
		return exitOverflow
	case errors.Is(err, series.ErrInvalidThreshold):
		return exitThreshold
	case errors.Is(err, series.ErrCancelled):
		return exitCancelled
	default:
		return exitIO
	}
}
