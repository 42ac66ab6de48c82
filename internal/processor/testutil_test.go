package processor

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/linuxmatters/autocut/internal/audio"
)

// window is a [start, end) span of a synthetic recording, in seconds
type window struct {
	start, end float64
}

// speechSamples returns ffprobe-like samples every 25ms over duration seconds.
// Samples inside any loud window get the loud level, the rest the quiet level.
func speechSamples(duration, loudLevel, quietLevel float64, loud ...window) []audio.Sample {
	n := int(duration * 40)
	samples := make([]audio.Sample, n)
	for i := range samples {
		t := float64(i) / 40
		level := quietLevel
		for _, w := range loud {
			if t >= w.start && t < w.end {
				level = loudLevel
				break
			}
		}
		samples[i] = audio.Sample{Time: t, Level: level}
	}
	return samples
}

// fakeSource replays samples, optionally failing once errAt samples were read
type fakeSource struct {
	samples []audio.Sample
	pos     int
	err     error
	errAt   int
	closed  bool
}

func (f *fakeSource) ReadSample() (*audio.Sample, error) {
	if f.err != nil && f.pos == f.errAt {
		return nil, f.err
	}
	if f.pos >= len(f.samples) {
		return nil, nil
	}
	s := f.samples[f.pos]
	f.pos++
	return &s, nil
}

func (f *fakeSource) Close() error {
	f.closed = true
	return nil
}

// fakeOpener hands out fresh sources over the same samples and keeps them for inspection
type fakeOpener struct {
	samples []audio.Sample
	err     error
	errAt   int
	opened  []*fakeSource
}

func (o *fakeOpener) open(ctx context.Context, input string) (LevelSource, error) {
	src := &fakeSource{samples: o.samples, err: o.err, errAt: o.errAt}
	o.opened = append(o.opened, src)
	return src, nil
}

// fakeCutter records concurrency and fails cuts whose start is in fail
type fakeCutter struct {
	mu          sync.Mutex
	delay       time.Duration
	fail        map[float64]bool
	calls       int
	inFlight    int
	maxInFlight int
}

func (c *fakeCutter) Cut(ctx context.Context, input string, start, end float64, output string) error {
	c.mu.Lock()
	c.calls++
	c.inFlight++
	if c.inFlight > c.maxInFlight {
		c.maxInFlight = c.inFlight
	}
	c.mu.Unlock()

	time.Sleep(c.delay)

	c.mu.Lock()
	c.inFlight--
	c.mu.Unlock()

	if c.fail[start] {
		return fmt.Errorf("%w: exit status 1", audio.ErrCutFailed)
	}
	return os.WriteFile(output, []byte("clip"), 0o644)
}

// touchInput creates an empty media file that only needs to exist
func touchInput(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, nil, 0o644); err != nil {
		t.Fatalf("failed to create input: %v", err)
	}
	return path
}

// TestAudioOptions configures the synthetic recording to generate
type TestAudioOptions struct {
	DurationSecs float64  // Total duration in seconds
	SampleRate   int      // Sample rate (default: 44100)
	ToneFreq     float64  // Sine wave frequency in Hz
	ToneLevel    float64  // Tone level in dBFS (e.g., -20.0)
	Bursts       []window // Spans carrying the tone; everything else is digital silence
}

// generateTestAudio writes a mono 16-bit WAV file of tone bursts separated by
// silence and returns its path inside a test temp dir
func generateTestAudio(t *testing.T, opts TestAudioOptions) string {
	t.Helper()

	if opts.SampleRate == 0 {
		opts.SampleRate = 44100
	}
	if opts.DurationSecs == 0 {
		opts.DurationSecs = 5.0
	}

	totalSamples := int(opts.DurationSecs * float64(opts.SampleRate))
	data := make([]int, totalSamples)

	// dBFS to linear amplitude, 0 dBFS = full scale
	toneAmp := math.Pow(10.0, opts.ToneLevel/20.0)
	maxInt16 := float64(math.MaxInt16)

	for i := range data {
		t := float64(i) / float64(opts.SampleRate)
		for _, b := range opts.Bursts {
			if t >= b.start && t < b.end {
				data[i] = int(toneAmp * maxInt16 * math.Sin(2.0*math.Pi*opts.ToneFreq*t))
				break
			}
		}
	}

	path := filepath.Join(t.TempDir(), "autocut-test.wav")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create test audio: %v", err)
	}
	defer f.Close()

	enc := wav.NewEncoder(f, opts.SampleRate, 16, 1, 1)
	buf := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: 1, SampleRate: opts.SampleRate},
		Data:           data,
		SourceBitDepth: 16,
	}
	if err := enc.Write(buf); err != nil {
		t.Fatalf("failed to write WAV data: %v", err)
	}
	if err := enc.Close(); err != nil {
		t.Fatalf("failed to finalise WAV file: %v", err)
	}

	return path
}
