package processor

import (
	"math"

	"github.com/linuxmatters/autocut/internal/audio"
)

// DefaultBinWidth is the width of one loudness bin in seconds
const DefaultBinWidth = 0.1

// Bin is the mean loudness of all samples that snapped to one bin time
type Bin struct {
	Time float64 // bin time in seconds, a multiple of the bin width at the width's precision
	Mean float64 // mean RMS level in dBFS; ±Inf when an infinite sample was averaged in
}

// bucket accumulates the samples of one bin. index is round(timestamp / width).
type bucket struct {
	index int64
	sum   float64
	count int
}

// Aggregator buckets loudness samples into fixed-width time bins.
//
// Bins keep first-seen order. A sample that jitters backwards into an
// earlier bin is merged into that bin by index, not appended.
type Aggregator struct {
	width    float64
	scale    float64 // 10^decimals of width, at least 10
	buckets  []bucket
	position map[int64]int // bin index -> position in buckets
}

// NewAggregator creates an aggregator with the given bin width in seconds.
// A non-positive width falls back to DefaultBinWidth.
func NewAggregator(width float64) *Aggregator {
	if width <= 0 || math.IsNaN(width) || math.IsInf(width, 0) {
		width = DefaultBinWidth
	}
	return &Aggregator{
		width:    width,
		scale:    decimalScale(width),
		position: make(map[int64]int),
	}
}

// maxBinDecimals bounds the precision bin times are rounded to
const maxBinDecimals = 6

// decimalScale returns 10^d for the fewest decimals d (at least one) that
// represent width exactly, e.g. 10 for 0.1 and 0.5, 100 for 0.05 and 0.25
func decimalScale(width float64) float64 {
	scale := 10.0
	for d := 1; d < maxBinDecimals; d++ {
		scaled := width * scale
		if math.Abs(scaled-math.Round(scaled)) < 1e-9 {
			break
		}
		scale *= 10
	}
	return scale
}

// Add accumulates one sample into its bin. All levels are accepted, including ±Inf.
func (a *Aggregator) Add(s audio.Sample) {
	index := int64(math.Round(s.Time / a.width))

	pos, ok := a.position[index]
	if !ok {
		pos = len(a.buckets)
		a.position[index] = pos
		a.buckets = append(a.buckets, bucket{index: index})
	}

	a.buckets[pos].sum += s.Level
	a.buckets[pos].count++
}

// Len returns the number of bins seen so far
func (a *Aggregator) Len() int {
	return len(a.buckets)
}

// Bins finalises every bucket to its mean, in first-seen order
func (a *Aggregator) Bins() []Bin {
	bins := make([]Bin, len(a.buckets))
	for i, b := range a.buckets {
		bins[i] = Bin{
			Time: a.binTime(b.index),
			Mean: b.sum / float64(b.count),
		}
	}
	return bins
}

// binTime converts a bin index to seconds rounded to the precision of the
// width, which removes the drift of index*width for widths like 0.1
func (a *Aggregator) binTime(index int64) float64 {
	return math.Round(float64(index)*a.width*a.scale) / a.scale
}
