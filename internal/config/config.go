// Package config loads autocut settings from an optional YAML file and the environment
package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/kelseyhightower/envconfig"
	"github.com/linuxmatters/autocut/internal/processor"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// DefaultFile is looked up in the working directory when no path is given
const DefaultFile = "autocut.yaml"

// ErrInvalid is wrapped by every validation failure
var ErrInvalid = errors.New("invalid configuration")

// EnvPrefix prefixes every environment override, e.g. AUTOCUT_SCAN_START
const EnvPrefix = "AUTOCUT"

// Config is the file representation of the run settings.
// Every setting can also be overridden from the environment.
type Config struct {
	LogLevel string         `yaml:"log_level" split_words:"true"` // logrus level name: debug, info, warn, error
	Analysis AnalysisConfig `yaml:"analysis" ignored:"true"`
	Extract  ExtractConfig  `yaml:"extract" ignored:"true"`
}

// AnalysisConfig holds the detection and calibration settings
type AnalysisConfig struct {
	Threshold    *float64 `yaml:"threshold" split_words:"true"`     // dBFS; calibrated when unset
	BinWidth     float64  `yaml:"bin_width" split_words:"true"`     // seconds per bin
	LoudRun      int      `yaml:"loud_run" split_words:"true"`      // loud bins before a segment opens
	SilentRun    int      `yaml:"silent_run" split_words:"true"`    // silent bins before a segment closes
	Margin       int      `yaml:"margin" split_words:"true"`        // bins the boundaries are moved back by
	ScanStart    float64  `yaml:"scan_start" split_words:"true"`    // calibration window start, seconds
	ScanDuration float64  `yaml:"scan_duration" split_words:"true"` // calibration window length, seconds; 0 scans everything
}

// ExtractConfig holds the clip extraction settings
type ExtractConfig struct {
	Workers    int    `yaml:"workers" split_words:"true"`     // concurrent ffmpeg processes
	OutputDir  string `yaml:"output_dir" split_words:"true"`  // parent of the clip directory
	OutputBase string `yaml:"output_base" split_words:"true"` // clip base name
	DryRun     bool   `yaml:"dry_run" split_words:"true"`
}

// Default returns the built-in settings
func Default() *Config {
	return &Config{
		LogLevel: "info",
		Analysis: AnalysisConfig{
			BinWidth:     processor.DefaultBinWidth,
			LoudRun:      processor.DefaultLoudRun,
			SilentRun:    processor.DefaultSilentRun,
			Margin:       processor.DefaultMargin,
			ScanStart:    processor.DefaultScanStart,
			ScanDuration: processor.DefaultScanDuration,
		},
		Extract: ExtractConfig{
			Workers: processor.DefaultWorkers,
		},
	}
}

// Load reads the YAML file at path over the defaults. An empty path tries
// DefaultFile and falls back to the defaults when it does not exist.
// Environment overrides are applied after the file, then the result is validated.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		if _, err := os.Stat(DefaultFile); err == nil {
			path = DefaultFile
		}
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	if err := cfg.applyEnvOverrides(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the detector or extractor cannot run with
func (c *Config) Validate() error {
	var errs []error

	a := c.Analysis
	if !(a.BinWidth > 0) {
		errs = append(errs, fmt.Errorf("%w: analysis.bin_width must be positive, got %v", ErrInvalid, a.BinWidth))
	}
	if a.LoudRun < 1 {
		errs = append(errs, fmt.Errorf("%w: analysis.loud_run must be at least 1, got %d", ErrInvalid, a.LoudRun))
	}
	if a.SilentRun < 1 {
		errs = append(errs, fmt.Errorf("%w: analysis.silent_run must be at least 1, got %d", ErrInvalid, a.SilentRun))
	}
	if a.Margin < 0 {
		errs = append(errs, fmt.Errorf("%w: analysis.margin must not be negative, got %d", ErrInvalid, a.Margin))
	}
	if a.ScanStart < 0 || a.ScanDuration < 0 {
		errs = append(errs, fmt.Errorf("%w: analysis scan window must not be negative", ErrInvalid))
	}
	if c.Extract.Workers < 1 {
		errs = append(errs, fmt.Errorf("%w: extract.workers must be at least 1, got %d", ErrInvalid, c.Extract.Workers))
	}
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, fmt.Errorf("%w: log_level: %v", ErrInvalid, err))
	}

	return errors.Join(errs...)
}

// Level returns the configured log level, Info when unparseable
func (c *Config) Level() logrus.Level {
	level, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		return logrus.InfoLevel
	}
	return level
}

// ProcessorConfig converts the file settings into a processor run configuration
func (c *Config) ProcessorConfig() *processor.Config {
	pc := processor.DefaultConfig()
	pc.Detector = processor.DetectorConfig{
		BinWidth:  c.Analysis.BinWidth,
		LoudRun:   c.Analysis.LoudRun,
		SilentRun: c.Analysis.SilentRun,
		Margin:    c.Analysis.Margin,
	}
	if c.Analysis.Threshold != nil {
		pc.Threshold = *c.Analysis.Threshold
		pc.HasThreshold = true
	}
	pc.Scan = processor.ScanWindow{
		Start:    c.Analysis.ScanStart,
		Duration: c.Analysis.ScanDuration,
	}
	pc.Workers = c.Extract.Workers
	pc.OutputDir = c.Extract.OutputDir
	pc.OutputBase = c.Extract.OutputBase
	pc.DryRun = c.Extract.DryRun
	return pc
}

// applyEnvOverrides applies the AUTOCUT_* environment variables that are set.
// Sections share the prefix, so AUTOCUT_WORKERS rather than AUTOCUT_EXTRACT_WORKERS.
func (c *Config) applyEnvOverrides() error {
	var errs []error
	for _, section := range []any{c, &c.Analysis, &c.Extract} {
		if err := envconfig.Process(EnvPrefix, section); err != nil {
			errs = append(errs, fmt.Errorf("%w: %v", ErrInvalid, err))
		}
	}
	return errors.Join(errs...)
}
