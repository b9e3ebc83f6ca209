// Package config loads export job configuration from a YAML file or, as a
// fallback, from command-line flags.
package config

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/tickforge/rangebar/internal/series"
)

// Format is an output artifact format.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
)

// Config describes one export job: one symbol, one threshold, one input file.
type Config struct {
	Symbol        string
	ThresholdBps  uint32
	Input         string
	OutputDir     string
	Formats       []Format
	JournalDir    string
	FlushOnCancel bool
}

type ConfigTmp struct {
	Symbol           string   `yaml:"symbol"`
	ThresholdBpsStr  string   `yaml:"threshold_bps"`
	Input            string   `yaml:"input"`
	OutputDir        string   `yaml:"output_dir"`
	Formats          []string `yaml:"formats,omitempty"`
	JournalDir       string   `yaml:"journal_dir,omitempty"`
	FlushOnCancelStr string   `yaml:"flush_on_cancel,omitempty"`
}

// Get parses configuration: --config points at a YAML job list, otherwise the
// individual flags describe a single job.
func Get() ([]Config, error) {
	configPath := flag.String("config", "", "path to yaml config")
	symbol := flag.String("symbol", "BTCUSDT", "instrument symbol, example: BTCUSDT")
	thresholdBps := flag.Uint("threshold", 80, "range threshold in basis points, example: 80 means 0.8%")
	input := flag.String("input", "", "path to aggTrades CSV file")
	outputDir := flag.String("output", ".", "directory for exported bar files")
	formats := flag.String("formats", "csv", "comma-separated output formats: csv,json")
	journalDir := flag.String("journal", "", "bar journal WAL directory, empty disables journaling")
	flushOnCancel := flag.Bool("flush-on-cancel", false, "emit the open bar when the run is cancelled")
	flag.Parse()

	if *configPath != "" {
		return getYaml(*configPath)
	}

	if *input == "" {
		return nil, fmt.Errorf("either --config or --input must be provided")
	}

	parsedFormats, err := parseFormats(strings.Split(*formats, ","))
	if err != nil {
		return nil, err
	}
	if err := validateThreshold(uint64(*thresholdBps)); err != nil {
		return nil, err
	}

	return []Config{
		{
			Symbol:        *symbol,
			ThresholdBps:  uint32(*thresholdBps),
			Input:         *input,
			OutputDir:     *outputDir,
			Formats:       parsedFormats,
			JournalDir:    *journalDir,
			FlushOnCancel: *flushOnCancel,
		},
	}, nil
}

func getYaml(path string) ([]Config, error) {
	var configsTmp []ConfigTmp
	var configs []Config

	f, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(f, &configsTmp); err != nil {
		return nil, err
	}

	for _, c := range configsTmp {
		if c.Symbol == "" {
			return nil, fmt.Errorf("missing 'symbol' param in yaml config")
		}
		if c.Input == "" {
			return nil, fmt.Errorf("missing 'input' param in yaml config for symbol %s", c.Symbol)
		}

		newConfig := Config{
			Symbol:     c.Symbol,
			Input:      c.Input,
			OutputDir:  c.OutputDir,
			JournalDir: c.JournalDir,
		}
		if newConfig.OutputDir == "" {
			newConfig.OutputDir = "."
		}

		if c.ThresholdBpsStr == "" {
			newConfig.ThresholdBps = 80 // Default: 0.8%
		} else {
			bps, err := strconv.ParseUint(c.ThresholdBpsStr, 10, 32)
			if err != nil {
				return nil, fmt.Errorf("incorrect 'threshold_bps' param in yaml config (must be an unsigned integer), error: %w", err)
			}
			if err := validateThreshold(bps); err != nil {
				return nil, err
			}
			newConfig.ThresholdBps = uint32(bps)
		}

		if len(c.Formats) == 0 {
			newConfig.Formats = []Format{FormatCSV}
		} else {
			formats, err := parseFormats(c.Formats)
			if err != nil {
				return nil, err
			}
			newConfig.Formats = formats
		}

		if c.FlushOnCancelStr != "" {
			flush, err := strconv.ParseBool(c.FlushOnCancelStr)
			if err != nil {
				return nil, fmt.Errorf("incorrect 'flush_on_cancel' param in yaml config (must be a boolean), error: %w", err)
			}
			newConfig.FlushOnCancel = flush
		}

		configs = append(configs, newConfig)
	}
	return configs, nil
}

func validateThreshold(bps uint64) error {
	if bps < series.MinThresholdBps || bps > series.MaxThresholdBps {
		return fmt.Errorf("invalid threshold %d: %w", bps, series.ErrInvalidThreshold)
	}
	return nil
}

func parseFormats(raw []string) ([]Format, error) {
	formats := make([]Format, 0, len(raw))
	for _, f := range raw {
		switch Format(strings.TrimSpace(f)) {
		case FormatCSV:
			formats = append(formats, FormatCSV)
		case FormatJSON:
			formats = append(formats, FormatJSON)
		default:
			return nil, fmt.Errorf("unsupported output format %q", f)
		}
	}
	return formats, nil
}
