package logging

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/linuxmatters/autocut/internal/processor"
)

func sampleResult() *processor.Result {
	segments := []processor.Segment{{Start: 1.6, End: 4.2}, {Start: 5.6, End: 8.2}}
	return &processor.Result{
		Input:     "talk.mp4",
		Threshold: -52.4,
		Calibration: &processor.Calibration{
			Count: 1200, Finite: 1180,
			Max: -12.5, Min: -71.2, Mean: -41.0,
			StableBound: -65.0, Threshold: -57.8,
		},
		Analysis: &processor.Analysis{
			Threshold:    -57.8,
			Samples:      4000,
			Bins:         1000,
			Segments:     segments,
			Unterminated: true,
			OpenStart:    97.3,
		},
		Extraction: &processor.Extraction{
			Dir: "autocut_talk_123",
			Results: []processor.ClipResult{
				{Index: 0, Segment: segments[0], Name: "talk.1.mp4"},
				{Index: 1, Segment: segments[1], Name: "talk.2.mp4", Err: errors.New("exit status 1")},
			},
			Succeeded: 1,
		},
		CalibrationTime: 2 * time.Second,
		AnalysisTime:    90 * time.Second,
		ExtractionTime:  500 * time.Millisecond,
	}
}

func TestWriteReport(t *testing.T) {
	start := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	var buf bytes.Buffer
	writeReport(&buf, ReportData{
		InputPath: "/media/talk.mp4",
		StartTime: start,
		EndTime:   start.Add(93 * time.Second),
		Config:    processor.DefaultConfig(),
		Result:    sampleResult(),
	})
	out := buf.String()

	wants := []string{
		"Autocut Analysis Report",
		"File: talk.mp4",
		"Pass 1 (Calibrating): 2.0s",
		"Pass 2 (Analyzing):   1m 30s",
		"Total:                1m 33s",
		"Scan window: 30.0s from 0.0s",
		"Samples: 1200 (1180 finite)",
		"Stable bound",
		"+7.20 dB over stable bound",
		"Bins: 1000",
		"Segments: 2",
		"Trailing loud region from 97.30s",
		"talk.1.mp4",
		processor.NoFile,
		"Clips: 1 of 2 created",
	}
	for _, want := range wants {
		if !strings.Contains(out, want) {
			t.Errorf("report lacks %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "dry run") {
		t.Error("report claims a dry run")
	}
}

func TestWriteReportGivenThreshold(t *testing.T) {
	result := sampleResult()
	result.Calibration = nil
	result.Threshold = -40
	result.Extraction = nil

	var buf bytes.Buffer
	writeReport(&buf, ReportData{InputPath: "talk.mp4", Config: processor.DefaultConfig(), Result: result})
	out := buf.String()

	for _, want := range []string{
		"Pass 1 (Calibrating): skipped",
		"Pass 3 (Cutting):     skipped",
		"Threshold: -40.00 dBFS (given)",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("report lacks %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "Clips:") {
		t.Error("clip summary written without extraction")
	}
}

func TestWriteReportFailedRun(t *testing.T) {
	var buf bytes.Buffer
	writeReport(&buf, ReportData{InputPath: "talk.mp4"})
	if !strings.Contains(buf.String(), "Status: FAILED") {
		t.Errorf("failed run not reported:\n%s", buf.String())
	}
}

func TestGenerateReport(t *testing.T) {
	cfg := processor.DefaultConfig()
	cfg.OutputDir = t.TempDir()
	cfg.OutputBase = "keynote"

	path, err := GenerateReport(ReportData{
		InputPath: "/media/talk.mp4",
		Config:    cfg,
		Result:    sampleResult(),
	})
	if err != nil {
		t.Fatalf("GenerateReport failed: %v", err)
	}
	if want := filepath.Join(cfg.OutputDir, "keynote-autocut.log"); path != want {
		t.Errorf("path = %q, want %q", path, want)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("report not written: %v", err)
	}
	if !strings.HasPrefix(string(data), "Autocut Analysis Report") {
		t.Errorf("unexpected report contents:\n%s", data)
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{1500 * time.Millisecond, "1.5s"},
		{61 * time.Second, "1m 1s"},
		{3725 * time.Second, "1h 2m 5s"},
	}
	for _, tt := range tests {
		if got := formatDuration(tt.d); got != tt.want {
			t.Errorf("formatDuration(%v) = %q, want %q", tt.d, got, tt.want)
		}
	}
}
