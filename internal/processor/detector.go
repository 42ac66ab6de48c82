package processor

import "math"

// Default hysteresis parameters, in bins
const (
	DefaultLoudRun   = 3 // consecutive loud bins before a segment opens
	DefaultSilentRun = 5 // consecutive silent bins before a segment closes
	DefaultMargin    = 3 // boundary compensation for the run-length delay
)

// DetectorConfig holds the hysteresis parameters of the segment detector
type DetectorConfig struct {
	BinWidth  float64 // seconds per bin
	LoudRun   int     // L: loud bins required to start recording
	SilentRun int     // S: silent bins required to stop recording
	Margin    int     // M: bins the reported boundaries are moved back by
}

// DefaultDetectorConfig returns the 0.1s / L=3 / S=5 / M=3 configuration
func DefaultDetectorConfig() DetectorConfig {
	return DetectorConfig{
		BinWidth:  DefaultBinWidth,
		LoudRun:   DefaultLoudRun,
		SilentRun: DefaultSilentRun,
		Margin:    DefaultMargin,
	}
}

// Segment is a detected region of sustained sound, in seconds
type Segment struct {
	Start float64
	End   float64
}

// Duration returns the length of the segment in seconds
func (s Segment) Duration() float64 {
	return s.End - s.Start
}

// Detector is a hysteresis noise gate over loudness bins.
//
// A bin is loud when its mean is finite and its integer part exceeds the
// threshold. The gate opens on exactly LoudRun consecutive loud bins and
// closes on exactly SilentRun consecutive silent bins, so one run never
// produces more than one boundary.
type Detector struct {
	cfg       DetectorConfig
	threshold float64

	recording   bool
	loudCount   int
	silentCount int
	start       float64
	segments    []Segment
}

// NewDetector creates a detector in the idle state
func NewDetector(threshold float64, cfg DetectorConfig) *Detector {
	return &Detector{cfg: cfg, threshold: threshold}
}

// IsLoud reports whether a bin mean counts as sound for the given threshold.
// The mean is truncated toward zero before the strict comparison.
func IsLoud(mean, threshold float64) bool {
	if math.IsInf(mean, 0) || math.IsNaN(mean) {
		return false
	}
	return math.Trunc(mean) > threshold
}

// Feed advances the state machine by one bin
func (d *Detector) Feed(bin Bin) {
	if IsLoud(bin.Mean, d.threshold) {
		d.loudCount++
		d.silentCount = 0
	} else {
		d.silentCount++
		d.loudCount = 0
	}

	w := d.cfg.BinWidth
	switch {
	case !d.recording && d.loudCount == d.cfg.LoudRun:
		d.start = snap(bin.Time - w*float64(d.cfg.LoudRun+d.cfg.Margin))
		// Back-dating never reaches into the previous segment
		if n := len(d.segments); n > 0 && d.start < d.segments[n-1].End {
			d.start = d.segments[n-1].End
		}
		d.recording = true
	case d.recording && d.silentCount == d.cfg.SilentRun:
		end := snap(bin.Time - w*float64(d.cfg.SilentRun-d.cfg.Margin))
		d.recording = false
		d.segments = append(d.segments, Segment{Start: d.start, End: end})
	}
}

// Recording reports whether a segment is open. A segment still open when
// the bins run out is never emitted.
func (d *Detector) Recording() bool {
	return d.recording
}

// OpenStart returns the start of the open segment, if any
func (d *Detector) OpenStart() (float64, bool) {
	return d.start, d.recording
}

// Segments returns the closed segments. A first segment whose back-dated
// start fell before zero is an artifact of the stream start and is dropped.
func (d *Detector) Segments() []Segment {
	segments := d.segments
	if len(segments) > 0 && segments[0].Start < 0 {
		segments = segments[1:]
	}
	out := make([]Segment, len(segments))
	copy(out, segments)
	return out
}

// snap rounds a boundary to the microsecond so that a start of 0.6-6*0.1
// is zero rather than a tiny negative number
func snap(t float64) float64 {
	return math.Round(t*1e6) / 1e6
}

// Detect runs the detector over bins and returns the closed segments
func Detect(bins []Bin, threshold float64, cfg DetectorConfig) []Segment {
	d := NewDetector(threshold, cfg)
	for _, bin := range bins {
		d.Feed(bin)
	}
	return d.Segments()
}
