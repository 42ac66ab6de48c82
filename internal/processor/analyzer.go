package processor

import (
	"context"
	"fmt"
	"math"

	"github.com/linuxmatters/autocut/internal/audio"
	"github.com/sirupsen/logrus"
)

// progressInterval is the number of samples between progress updates
const progressInterval = 100

// LevelSource yields loudness samples in stream order.
// ReadSample returns nil at the end of the stream.
type LevelSource interface {
	ReadSample() (*audio.Sample, error)
	Close() error
}

// SourceOpener opens a level source for an input file
type SourceOpener func(ctx context.Context, input string) (LevelSource, error)

// FFprobeSource opens level sources by running the ffprobe binary at ffprobePath
func FFprobeSource(ffprobePath string) SourceOpener {
	return func(ctx context.Context, input string) (LevelSource, error) {
		return audio.OpenLevels(ctx, ffprobePath, input)
	}
}

// Analysis is the outcome of one analysis pass
type Analysis struct {
	Threshold float64
	Samples   int
	Bins      int
	Segments  []Segment

	// Unterminated is set when the stream ended inside a loud region.
	// That trailing segment is not part of Segments.
	Unterminated bool
	OpenStart    float64
}

// Analyzer reads loudness levels and runs calibration and segment detection
type Analyzer struct {
	open SourceOpener
	cfg  DetectorConfig
	opts Options
	log  logrus.FieldLogger

	// Progress is called periodically during a pass. Optional.
	Progress ProgressFunc
}

// NewAnalyzer creates an analyzer that reads levels through open
func NewAnalyzer(open SourceOpener, cfg DetectorConfig, opts Options, log logrus.FieldLogger) *Analyzer {
	return &Analyzer{
		open: open,
		cfg:  cfg,
		opts: opts,
		log:  log,
	}
}

// AnalyzeFile buckets every sample of input into bins and detects segments
// against threshold. Bins are built in one pass, read once, then discarded.
func (a *Analyzer) AnalyzeFile(ctx context.Context, input string, threshold float64) (*Analysis, error) {
	a.log.Infof("analyzing audio of %s ...", input)

	aggregator := NewAggregator(a.cfg.BinWidth)
	samples := 0
	err := a.readSamples(ctx, input, PassAnalyze, "Analyzing", func(s audio.Sample) bool {
		aggregator.Add(s)
		samples++
		return true
	})
	if err != nil {
		return nil, err
	}

	a.log.Info("processing cuts ...")
	detector := NewDetector(threshold, a.cfg)
	bins := aggregator.Bins()
	for _, bin := range bins {
		if a.opts.Trace {
			a.log.Infof("trace: %.1f: %v", bin.Time, bin.Mean)
		}
		detector.Feed(bin)
	}

	analysis := &Analysis{
		Threshold: threshold,
		Samples:   samples,
		Bins:      len(bins),
		Segments:  detector.Segments(),
	}
	if start, open := detector.OpenStart(); open {
		analysis.Unterminated = true
		analysis.OpenStart = start
		a.log.WithField("start", fmt.Sprintf("%.2f", start)).
			Debug("stream ended inside a loud region; trailing segment dropped")
	}

	a.log.Infof("found %d cuts", len(analysis.Segments))
	return analysis, nil
}

// CalibrateFile reads the samples inside window and derives a noise threshold.
// Reading stops at the first sample past the end of the window.
func (a *Analyzer) CalibrateFile(ctx context.Context, input string, window ScanWindow) (*Calibration, error) {
	a.log.Infof("calibrating noise threshold on %.1fs of %s ...", window.Duration, input)

	var samples []audio.Sample
	err := a.readSamples(ctx, input, PassCalibrate, "Calibrating", func(s audio.Sample) bool {
		if window.Passed(s.Time) {
			return false
		}
		if window.Contains(s.Time) {
			samples = append(samples, s)
		}
		return true
	})
	if err != nil {
		return nil, err
	}

	calibration := Calibrate(samples)
	return &calibration, nil
}

// readSamples feeds every sample of input to fn until fn returns false or
// the stream ends
func (a *Analyzer) readSamples(ctx context.Context, input string, pass int, passName string, fn func(audio.Sample) bool) error {
	source, err := a.open(ctx, input)
	if err != nil {
		return fmt.Errorf("failed to open level source: %w", err)
	}

	count := 0
	for {
		sample, err := source.ReadSample()
		if err != nil {
			source.Close()
			return fmt.Errorf("failed to read levels: %w", err)
		}
		if sample == nil {
			break
		}

		if count%progressInterval == 0 && a.Progress != nil {
			level := sample.Level
			if math.IsInf(level, 0) || math.IsNaN(level) {
				level = 0
			}
			a.Progress(pass, passName, sample.Time, level)
		}
		count++

		if !fn(*sample) {
			break
		}
	}

	if err := source.Close(); err != nil {
		return fmt.Errorf("level source failed: %w", err)
	}
	return nil
}
