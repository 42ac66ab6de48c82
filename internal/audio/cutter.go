package audio

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os/exec"
)

// ErrCutFailed is returned when ffmpeg could not extract a segment
var ErrCutFailed = errors.New("segment extraction failed")

// Cutter copies the [start, end) range of input, in seconds, into output
type Cutter interface {
	Cut(ctx context.Context, input string, start, end float64, output string) error
}

// CommandRunner runs an external command and returns its combined output
type CommandRunner interface {
	CombinedOutput(ctx context.Context, name string, args []string) ([]byte, error)
}

type execRunner struct{}

func (execRunner) CombinedOutput(ctx context.Context, name string, args []string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).CombinedOutput()
}

// FFmpegCutter extracts segments losslessly with "ffmpeg -c copy"
type FFmpegCutter struct {
	ffmpegPath string
	cmd        CommandRunner
}

// Compile-time interface check
var _ Cutter = (*FFmpegCutter)(nil)

// CutterOption configures an FFmpegCutter
type CutterOption func(*FFmpegCutter)

// WithCommandRunner replaces the runner used to invoke ffmpeg
func WithCommandRunner(r CommandRunner) CutterOption {
	return func(c *FFmpegCutter) {
		c.cmd = r
	}
}

// NewFFmpegCutter creates a cutter that runs the ffmpeg binary at ffmpegPath
func NewFFmpegCutter(ffmpegPath string, opts ...CutterOption) *FFmpegCutter {
	c := &FFmpegCutter{
		ffmpegPath: ffmpegPath,
		cmd:        execRunner{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Cut runs ffmpeg for one segment. The ffmpeg output is attached to the error.
func (c *FFmpegCutter) Cut(ctx context.Context, input string, start, end float64, output string) error {
	out, err := c.cmd.CombinedOutput(ctx, c.ffmpegPath, cutArgs(input, start, end, output))
	if err != nil {
		return fmt.Errorf("%w: %v\nOutput: %s", ErrCutFailed, err, string(out))
	}
	return nil
}

// cutArgs places -ss/-to after the input so the seek applies to the output,
// matching the cut points the analyser reported.
func cutArgs(input string, start, end float64, output string) []string {
	return []string{
		"-i", input,
		"-c", "copy",
		"-ss", formatTimestamp(start),
		"-to", formatTimestamp(end),
		output,
	}
}

// formatTimestamp formats seconds as HH:MM:SS.mmm for ffmpeg -ss/-to arguments.
// Negative values are clamped to zero.
func formatTimestamp(seconds float64) string {
	if seconds < 0 || math.IsNaN(seconds) {
		seconds = 0
	}
	ms := int64(math.Round(seconds * 1000))
	h := ms / 3_600_000
	m := ms / 60_000 % 60
	s := ms / 1000 % 60
	return fmt.Sprintf("%02d:%02d:%02d.%03d", h, m, s, ms%1000)
}
