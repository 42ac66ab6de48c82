package processor

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
)

func TestAnalyzeFile(t *testing.T) {
	opener := &fakeOpener{samples: speechSamples(10, -20, -70, window{2, 4}, window{6, 8})}
	log, _ := test.NewNullLogger()

	var progressCalls int
	analyzer := NewAnalyzer(opener.open, DefaultDetectorConfig(), Options{}, log)
	analyzer.Progress = func(pass int, passName string, position, level float64) {
		if pass != PassAnalyze {
			t.Errorf("progress pass = %d, want %d", pass, PassAnalyze)
		}
		progressCalls++
	}

	analysis, err := analyzer.AnalyzeFile(context.Background(), "talk.mp4", -40)
	if err != nil {
		t.Fatalf("AnalyzeFile failed: %v", err)
	}

	if analysis.Samples != 400 {
		t.Errorf("Samples = %d, want 400", analysis.Samples)
	}
	if progressCalls != 4 {
		t.Errorf("progress called %d times, want 4", progressCalls)
	}
	if analysis.Unterminated {
		t.Error("analysis unexpectedly unterminated")
	}

	if len(analysis.Segments) != 2 {
		t.Fatalf("got %d segments, want 2: %v", len(analysis.Segments), analysis.Segments)
	}
	for i, w := range []window{{2, 4}, {6, 8}} {
		seg := analysis.Segments[i]
		if seg.Start >= w.start || seg.Start < w.start-0.7 {
			t.Errorf("segment %d start = %v, want shortly before %v", i, seg.Start, w.start)
		}
		if seg.End <= w.end || seg.End > w.end+0.5 {
			t.Errorf("segment %d end = %v, want shortly after %v", i, seg.End, w.end)
		}
	}

	if len(opener.opened) != 1 || !opener.opened[0].closed {
		t.Error("level source was not opened once and closed")
	}
}

func TestAnalyzeFileUnterminated(t *testing.T) {
	opener := &fakeOpener{samples: speechSamples(5, -20, -70, window{2, 10})}
	log, _ := test.NewNullLogger()

	analysis, err := NewAnalyzer(opener.open, DefaultDetectorConfig(), Options{}, log).
		AnalyzeFile(context.Background(), "talk.mp4", -40)
	if err != nil {
		t.Fatalf("AnalyzeFile failed: %v", err)
	}
	if !analysis.Unterminated {
		t.Error("expected an unterminated segment")
	}
	if len(analysis.Segments) != 0 {
		t.Errorf("trailing segment was emitted: %v", analysis.Segments)
	}
	if analysis.OpenStart <= 0 || analysis.OpenStart >= 2 {
		t.Errorf("OpenStart = %v, want shortly before 2", analysis.OpenStart)
	}
}

func TestAnalyzeFileTrace(t *testing.T) {
	opener := &fakeOpener{samples: speechSamples(3, -20, -70, window{1, 2})}
	log, hook := test.NewNullLogger()

	analysis, err := NewAnalyzer(opener.open, DefaultDetectorConfig(), Options{Trace: true}, log).
		AnalyzeFile(context.Background(), "talk.mp4", -40)
	if err != nil {
		t.Fatalf("AnalyzeFile failed: %v", err)
	}

	traces := 0
	for _, entry := range hook.AllEntries() {
		if strings.HasPrefix(entry.Message, "trace: ") {
			traces++
		}
	}
	if traces != analysis.Bins {
		t.Errorf("logged %d trace lines, want one per bin (%d)", traces, analysis.Bins)
	}
}

func TestAnalyzeFileNoTraceByDefault(t *testing.T) {
	opener := &fakeOpener{samples: speechSamples(3, -20, -70, window{1, 2})}
	log, hook := test.NewNullLogger()

	if _, err := NewAnalyzer(opener.open, DefaultDetectorConfig(), Options{}, log).
		AnalyzeFile(context.Background(), "talk.mp4", -40); err != nil {
		t.Fatalf("AnalyzeFile failed: %v", err)
	}
	for _, entry := range hook.AllEntries() {
		if strings.HasPrefix(entry.Message, "trace: ") {
			t.Fatalf("unexpected trace line %q", entry.Message)
		}
	}
}

func TestAnalyzeFileSourceError(t *testing.T) {
	errBroken := errors.New("broken pipe")
	opener := &fakeOpener{
		samples: speechSamples(5, -20, -70),
		err:     errBroken,
		errAt:   50,
	}
	log, _ := test.NewNullLogger()

	_, err := NewAnalyzer(opener.open, DefaultDetectorConfig(), Options{}, log).
		AnalyzeFile(context.Background(), "talk.mp4", -40)
	if !errors.Is(err, errBroken) {
		t.Fatalf("error = %v, want wrapped %v", err, errBroken)
	}
	if !opener.opened[0].closed {
		t.Error("level source not closed after read error")
	}
}

func TestAnalyzeFileOpenError(t *testing.T) {
	errMissing := errors.New("ffprobe: not found")
	open := func(ctx context.Context, input string) (LevelSource, error) {
		return nil, errMissing
	}
	log, _ := test.NewNullLogger()

	_, err := NewAnalyzer(open, DefaultDetectorConfig(), Options{}, log).
		AnalyzeFile(context.Background(), "talk.mp4", -40)
	if !errors.Is(err, errMissing) {
		t.Fatalf("error = %v, want wrapped %v", err, errMissing)
	}
}

func TestCalibrateFileStopsAfterWindow(t *testing.T) {
	samples := speechSamples(10, -20, -70, window{1, 1.5})
	opener := &fakeOpener{samples: samples}
	log, _ := test.NewNullLogger()

	calibration, err := NewAnalyzer(opener.open, DefaultDetectorConfig(), Options{}, log).
		CalibrateFile(context.Background(), "talk.mp4", ScanWindow{Start: 0, Duration: 3})
	if err != nil {
		t.Fatalf("CalibrateFile failed: %v", err)
	}

	// 3s at 40 samples per second
	if calibration.Count != 120 {
		t.Errorf("Count = %d, want 120", calibration.Count)
	}
	src := opener.opened[0]
	if src.pos != 121 {
		t.Errorf("read %d samples, want reading to stop at the first sample past the window", src.pos)
	}
	if !src.closed {
		t.Error("level source not closed after early stop")
	}
	if calibration.Max != -20 || calibration.Min != -70 {
		t.Errorf("Max, Min = %v, %v; want -20, -70", calibration.Max, calibration.Min)
	}
	if !calibration.Valid() {
		t.Error("expected a valid calibration")
	}
}

func TestCalibrateFileSkipsBeforeWindow(t *testing.T) {
	samples := speechSamples(10, -20, -70, window{0, 2})
	opener := &fakeOpener{samples: samples}
	log, _ := test.NewNullLogger()

	calibration, err := NewAnalyzer(opener.open, DefaultDetectorConfig(), Options{}, log).
		CalibrateFile(context.Background(), "talk.mp4", ScanWindow{Start: 5, Duration: 2})
	if err != nil {
		t.Fatalf("CalibrateFile failed: %v", err)
	}
	if calibration.Count != 80 {
		t.Errorf("Count = %d, want 80", calibration.Count)
	}
	if calibration.Max != -70 {
		t.Errorf("Max = %v, want -70: loud samples before the window leaked in", calibration.Max)
	}
}

func TestAnalyzerLogsFoundCuts(t *testing.T) {
	opener := &fakeOpener{samples: speechSamples(10, -20, -70, window{2, 4})}
	log, hook := test.NewNullLogger()

	if _, err := NewAnalyzer(opener.open, DefaultDetectorConfig(), Options{}, log).
		AnalyzeFile(context.Background(), "talk.mp4", -40); err != nil {
		t.Fatalf("AnalyzeFile failed: %v", err)
	}

	last := hook.LastEntry()
	if last == nil || last.Message != "found 1 cuts" || last.Level != logrus.InfoLevel {
		t.Errorf("last log entry = %+v, want info \"found 1 cuts\"", last)
	}
}
