// Package processor turns loudness measurements into cut segments and extracts them
package processor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"time"

	"github.com/linuxmatters/autocut/internal/audio"
	"github.com/sirupsen/logrus"
)

// ErrInputNotFound is returned when the input media file does not exist
var ErrInputNotFound = errors.New("file does not exist")

// ErrCalibrationFailed is returned when the scan window holds no finite levels
var ErrCalibrationFailed = errors.New("could not calibrate noise threshold")

// DefaultWorkers is the number of segments extracted concurrently
const DefaultWorkers = 8

// Options are the run-wide switches, passed explicitly to every stage
type Options struct {
	DryRun  bool // skip ffmpeg extraction, still write the manifest
	Verbose bool // print the manifest after a dry run
	Trace   bool // log every bin mean during analysis
}

// Config holds everything one run needs
type Config struct {
	Options

	Detector DetectorConfig

	// Threshold is the noise threshold in dBFS. When HasThreshold is false
	// the threshold is calibrated from Scan.
	Threshold    float64
	HasThreshold bool
	Scan         ScanWindow

	Workers    int    // concurrent extractions
	OutputBase string // clip base name, defaults to the input name
	OutputDir  string // parent of the clip directory, defaults to the working directory
}

// DefaultConfig returns the configuration used when no file or flags override it
func DefaultConfig() *Config {
	return &Config{
		Detector: DefaultDetectorConfig(),
		Scan: ScanWindow{
			Start:    DefaultScanStart,
			Duration: DefaultScanDuration,
		},
		Workers: DefaultWorkers,
	}
}

// ProgressFunc reports analysis progress: pass number and name, the media
// position reached in seconds, and the latest level in dBFS
type ProgressFunc func(pass int, passName string, position float64, level float64)

// Pass numbers reported through ProgressFunc
const (
	PassCalibrate = 1
	PassAnalyze   = 2
	PassCut       = 3
)

// ThresholdFunc is told the noise threshold before the analysis pass starts
type ThresholdFunc func(threshold float64, calibrated bool)

// Dependencies are the collaborators of Process. Only Open and Cutter are required.
type Dependencies struct {
	Open      SourceOpener
	Cutter    audio.Cutter
	Log       logrus.FieldLogger
	Out       io.Writer // dry-run manifest printout
	Progress  ProgressFunc
	Threshold ThresholdFunc
	Clip      ClipFunc
}

// Result is the outcome of Process
type Result struct {
	Input       string
	Threshold   float64
	Calibration *Calibration // nil when the threshold was given
	Analysis    *Analysis
	Extraction  *Extraction // nil when no segments were found

	CalibrationTime time.Duration
	AnalysisTime    time.Duration
	ExtractionTime  time.Duration
}

// ValidateInput checks that the input media file exists
func ValidateInput(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrInputNotFound, path)
		}
		return fmt.Errorf("failed to stat input: %w", err)
	}
	if info.IsDir() {
		return fmt.Errorf("%w: %s is a directory", ErrInputNotFound, path)
	}
	return nil
}

// Process runs calibration (when no threshold is given), analysis and extraction
// for one input file. Any analysis error is fatal; extraction failures are
// reported per clip in the result.
func Process(ctx context.Context, input string, cfg *Config, deps Dependencies) (*Result, error) {
	if err := ValidateInput(input); err != nil {
		return nil, err
	}
	log := deps.Log
	if log == nil {
		log = logrus.StandardLogger()
	}

	analyzer := NewAnalyzer(deps.Open, cfg.Detector, cfg.Options, log)
	analyzer.Progress = deps.Progress

	result := &Result{Input: input, Threshold: cfg.Threshold}

	if !cfg.HasThreshold {
		start := time.Now()
		calibration, err := analyzer.CalibrateFile(ctx, input, cfg.Scan)
		if err != nil {
			return nil, err
		}
		result.CalibrationTime = time.Since(start)
		result.Calibration = calibration
		if !calibration.Valid() {
			return nil, fmt.Errorf("%w: no finite levels in %.1fs window at %.1fs",
				ErrCalibrationFailed, cfg.Scan.Duration, cfg.Scan.Start)
		}
		result.Threshold = calibration.Threshold
		log.WithFields(logrus.Fields{
			"max":    formatLevel(calibration.Max),
			"min":    formatLevel(calibration.Min),
			"mean":   formatLevel(calibration.Mean),
			"stable": formatLevel(calibration.StableBound),
		}).Infof("calibrated noise threshold: %.2f dB", calibration.Threshold)
	}

	if deps.Threshold != nil {
		deps.Threshold(result.Threshold, result.Calibration != nil)
	}

	start := time.Now()
	analysis, err := analyzer.AnalyzeFile(ctx, input, result.Threshold)
	if err != nil {
		return nil, err
	}
	result.AnalysisTime = time.Since(start)
	result.Analysis = analysis

	if len(analysis.Segments) == 0 {
		log.Warn("no cuts received")
		return result, nil
	}

	naming := NewNaming(input, cfg.OutputBase, cfg.OutputDir)
	extractor := NewExtractor(deps.Cutter, cfg.Workers, cfg.Options, log)
	extractor.Out = deps.Out
	extractor.Clip = deps.Clip

	start = time.Now()
	extraction, err := extractor.ExtractSegments(ctx, input, analysis.Segments, naming)
	if err != nil {
		return nil, err
	}
	result.ExtractionTime = time.Since(start)
	result.Extraction = extraction

	// Cuts stopped by an interrupt show up as failed clips; report the interrupt itself
	if err := ctx.Err(); err != nil {
		return result, fmt.Errorf("extraction interrupted: %w", err)
	}
	return result, nil
}

// formatLevel renders a dBFS value for log fields
func formatLevel(v float64) string {
	if math.IsNaN(v) {
		return "n/a"
	}
	return fmt.Sprintf("%.2f", v)
}
