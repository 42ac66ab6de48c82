// Package audio provides media I/O through the ffprobe and ffmpeg command line tools
package audio

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strconv"
	"strings"
)

// rmsLevelTag is the astats frame tag carrying the overall RMS level in dBFS
const rmsLevelTag = "lavfi.astats.Overall.RMS_level"

// Sample is a single loudness measurement from the level source
type Sample struct {
	Time  float64 // seconds from the start of the stream
	Level float64 // RMS level in dBFS, -Inf for digital silence
}

// LevelReader yields loudness samples from a CSV stream of
// "timestamp,level[,reserved...]" records
type LevelReader struct {
	scanner *bufio.Scanner
	line    int
	eof     bool

	// ctx ends the stream early; a reader cut short by it reports ctx.Err()
	ctx context.Context

	// Set only when the reader owns an ffprobe process
	cmd    *exec.Cmd
	cancel context.CancelFunc
	stderr *bytes.Buffer
}

// NewLevelReader parses loudness records from r
func NewLevelReader(r io.Reader) *LevelReader {
	return &LevelReader{scanner: bufio.NewScanner(r)}
}

// OpenLevels starts ffprobe on filename with a per-frame astats filter and
// returns a reader over its output. The caller must Close the reader.
// Cancelling ctx kills ffprobe; ReadSample and Close then return an error
// wrapping ctx.Err().
func OpenLevels(ctx context.Context, ffprobePath, filename string) (*LevelReader, error) {
	parent := ctx
	ctx, cancel := context.WithCancel(ctx)

	cmd := exec.CommandContext(ctx, ffprobePath, levelArgs(filename)...)
	stderr := &bytes.Buffer{}
	cmd.Stderr = stderr

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed to open ffprobe output: %w", err)
	}
	if err := cmd.Start(); err != nil {
		cancel()
		return nil, fmt.Errorf("failed to start ffprobe: %w", err)
	}

	reader := NewLevelReader(stdout)
	reader.ctx = parent
	reader.cmd = cmd
	reader.cancel = cancel
	reader.stderr = stderr
	return reader, nil
}

// levelArgs builds the ffprobe arguments that print one "pts_time,RMS_level"
// record per decoded audio frame. reset=1 makes every frame an independent measurement.
func levelArgs(filename string) []string {
	return []string{
		"-v", "error",
		"-f", "lavfi",
		"-i", fmt.Sprintf("amovie=%s,astats=metadata=1:reset=1", escapeFilterPath(filename)),
		"-show_entries", "frame=pts_time:frame_tags=" + rmsLevelTag,
		"-of", "csv=p=0",
	}
}

// escapeFilterPath escapes a file name for use as a filter option inside a
// filtergraph description: once for the option value, once for the graph.
func escapeFilterPath(path string) string {
	value := strings.NewReplacer(`\`, `\\`, `'`, `\'`, `:`, `\:`).Replace(path)

	var b strings.Builder
	for _, r := range value {
		switch r {
		case '\\', '\'', '[', ']', ',', ';':
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

// ReadSample returns the next sample.
// Returns nil when the end of the stream is reached.
func (r *LevelReader) ReadSample() (*Sample, error) {
	for r.scanner.Scan() {
		r.line++
		sample, ok, err := parseRecord(r.scanner.Text())
		if err != nil {
			return nil, fmt.Errorf("invalid level record on line %d: %w", r.line, err)
		}
		if !ok {
			continue
		}
		return &sample, nil
	}
	r.eof = true
	if err := r.interrupted(); err != nil {
		return nil, err
	}
	if err := r.scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read level records: %w", err)
	}
	return nil, nil
}

// interrupted reports a cancelled context as the reason the stream ended
func (r *LevelReader) interrupted() error {
	if r.ctx == nil || r.ctx.Err() == nil {
		return nil
	}
	return fmt.Errorf("level reading interrupted: %w", r.ctx.Err())
}

// parseRecord parses one CSV record. Blank records and frames without a
// level tag are skipped (ok=false).
func parseRecord(line string) (Sample, bool, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return Sample{}, false, nil
	}

	fields := strings.Split(line, ",")
	if len(fields) < 2 || strings.TrimSpace(fields[1]) == "" {
		return Sample{}, false, nil
	}

	timestamp, err := strconv.ParseFloat(strings.TrimSpace(fields[0]), 64)
	if err != nil {
		return Sample{}, false, fmt.Errorf("timestamp %q: %w", fields[0], err)
	}
	level, err := strconv.ParseFloat(strings.TrimSpace(fields[1]), 64)
	if err != nil {
		return Sample{}, false, fmt.Errorf("level %q: %w", fields[1], err)
	}

	return Sample{Time: timestamp, Level: level}, true, nil
}

// Close releases the ffprobe process, if any. A reader closed before the end
// of its stream stops ffprobe and does not report the resulting exit status.
// When the context was cancelled Close returns its error instead of the
// killed process status.
func (r *LevelReader) Close() error {
	if r.cmd == nil {
		return r.interrupted()
	}
	defer r.cancel()

	if !r.eof {
		r.cancel()
		_ = r.cmd.Wait()
		return r.interrupted()
	}

	err := r.cmd.Wait()
	if ierr := r.interrupted(); ierr != nil {
		return ierr
	}
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return fmt.Errorf("ffprobe failed: %w: %s", err, strings.TrimSpace(r.stderr.String()))
		}
		return fmt.Errorf("ffprobe failed: %w", err)
	}
	return nil
}
