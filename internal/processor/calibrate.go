package processor

import (
	"math"

	"github.com/linuxmatters/autocut/internal/audio"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// stableBias is how far the suggested threshold moves from the stable
// quiet level toward the window mean
const stableBias = 0.3

// Default calibration window, in seconds
const (
	DefaultScanStart    = 0.0
	DefaultScanDuration = 30.0
)

// ScanWindow selects the [Start, Start+Duration) range of the stream used for
// calibration. A non-positive Duration scans to the end of the stream.
type ScanWindow struct {
	Start    float64
	Duration float64
}

// Contains reports whether t lies inside the window
func (w ScanWindow) Contains(t float64) bool {
	return t >= w.Start && (w.Duration <= 0 || t < w.Start+w.Duration)
}

// Passed reports whether t lies beyond the end of the window
func (w ScanWindow) Passed(t float64) bool {
	return w.Duration > 0 && t >= w.Start+w.Duration
}

// Calibration summarises the loudness of a scan window and suggests a noise threshold
type Calibration struct {
	Count  int // samples in the window
	Finite int // samples with a finite level

	Max  float64 // loudest sample, may be +Inf
	Min  float64 // quietest finite sample
	Mean float64 // mean of finite samples, NaN when there are none

	// StableBound is the quietest stable plateau: the below-mean sample
	// that differs least from the sample before it
	StableBound float64

	// Threshold is the suggested noise threshold, 30% of the way from
	// StableBound toward Mean
	Threshold float64
}

// Valid reports whether a usable threshold was derived
func (c Calibration) Valid() bool {
	return !math.IsNaN(c.Threshold) && !math.IsInf(c.Threshold, 0)
}

// Calibrate derives noise-floor statistics from the samples of one scan window,
// in stream order
func Calibrate(samples []audio.Sample) Calibration {
	c := Calibration{
		Count:       len(samples),
		Max:         math.NaN(),
		Min:         math.NaN(),
		Mean:        math.NaN(),
		StableBound: math.NaN(),
		Threshold:   math.NaN(),
	}

	levels := make([]float64, 0, len(samples))
	finite := make([]float64, 0, len(samples))
	for _, s := range samples {
		if math.IsNaN(s.Level) {
			continue
		}
		levels = append(levels, s.Level)
		if !math.IsInf(s.Level, 0) {
			finite = append(finite, s.Level)
		}
	}
	c.Finite = len(finite)

	if len(levels) > 0 {
		c.Max = floats.Max(levels)
	}
	if len(finite) == 0 {
		return c
	}

	c.Min = floats.Min(finite)
	c.Mean = stat.Mean(finite, nil)
	c.StableBound = stableBound(samples, c.Mean)
	if math.IsNaN(c.StableBound) {
		c.StableBound = c.Min
	}
	c.Threshold = c.StableBound - stableBias*(c.StableBound-c.Mean)

	return c
}

// stableBound scans for the below-mean sample with the smallest absolute
// step from its predecessor. Both samples must be finite; the first of equal
// steps wins. Returns NaN when no such pair exists.
func stableBound(samples []audio.Sample, mean float64) float64 {
	bound := math.NaN()
	bestStep := math.Inf(1)

	for i := 1; i < len(samples); i++ {
		cur, prev := samples[i].Level, samples[i-1].Level
		if !isFinite(cur) || !isFinite(prev) || cur >= mean {
			continue
		}
		if step := math.Abs(cur - prev); step < bestStep {
			bestStep = step
			bound = cur
		}
	}
	return bound
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
