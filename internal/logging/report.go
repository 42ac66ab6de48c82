package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/linuxmatters/autocut/internal/processor"
)

// ReportData contains everything needed to write an analysis report
type ReportData struct {
	InputPath string
	StartTime time.Time
	EndTime   time.Time
	Config    *processor.Config
	Result    *processor.Result
}

// ReportPath returns where the report for naming is written: <base>-autocut.log
// in the directory that holds the clip directory
func ReportPath(naming processor.Naming) string {
	return filepath.Join(naming.OutputDir, naming.Base+"-autocut.log")
}

// GenerateReport writes the analysis report for one run and returns its path.
//
// Report structure:
//  1. Header - file and timestamp
//  2. Processing Summary - pass timings
//  3. Noise Threshold - given or calibrated, with the calibration table
//  4. Analysis - sample and bin counts, trailing loud region
//  5. Segments - one row per segment with its clip outcome
func GenerateReport(data ReportData) (string, error) {
	if data.Config == nil {
		data.Config = processor.DefaultConfig()
	}
	naming := processor.NewNaming(data.InputPath, data.Config.OutputBase, data.Config.OutputDir)
	path := ReportPath(naming)

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create log file: %w", err)
	}
	defer f.Close()

	writeReport(f, data)
	return path, nil
}

func writeReport(w io.Writer, data ReportData) {
	writeReportHeader(w, data)
	writeProcessingSummary(w, data)

	if data.Result == nil {
		return
	}
	writeThreshold(w, data)
	writeAnalysis(w, data)
	writeSegments(w, data.Result)
}

// writeSection writes a section title with a dashed underline of the same length
func writeSection(w io.Writer, title string) {
	fmt.Fprintln(w, title)
	fmt.Fprintln(w, strings.Repeat("-", len(title)))
}

func writeReportHeader(w io.Writer, data ReportData) {
	fmt.Fprintln(w, "Autocut Analysis Report")
	fmt.Fprintln(w, "=======================")
	fmt.Fprintf(w, "File: %s\n", filepath.Base(data.InputPath))
	fmt.Fprintf(w, "Processed: %s\n", data.EndTime.Format("2006-01-02 15:04:05 MST"))
	if data.Config != nil && data.Config.DryRun {
		fmt.Fprintln(w, "Mode: dry run (no clips written)")
	}
	fmt.Fprintln(w, "")
}

func writeProcessingSummary(w io.Writer, data ReportData) {
	writeSection(w, "Processing Summary")

	r := data.Result
	if r == nil {
		fmt.Fprintln(w, "Status: FAILED")
		fmt.Fprintln(w, "")
		return
	}

	if r.Calibration != nil {
		fmt.Fprintf(w, "Pass 1 (Calibrating): %s\n", formatDuration(r.CalibrationTime))
	} else {
		fmt.Fprintln(w, "Pass 1 (Calibrating): skipped")
	}
	fmt.Fprintf(w, "Pass 2 (Analyzing):   %s\n", formatDuration(r.AnalysisTime))
	if r.Extraction != nil {
		fmt.Fprintf(w, "Pass 3 (Cutting):     %s\n", formatDuration(r.ExtractionTime))
	} else {
		fmt.Fprintln(w, "Pass 3 (Cutting):     skipped")
	}
	fmt.Fprintf(w, "Total:                %s\n", formatDuration(data.EndTime.Sub(data.StartTime)))
	fmt.Fprintln(w, "")
}

func writeThreshold(w io.Writer, data ReportData) {
	writeSection(w, "Noise Threshold")

	r := data.Result
	c := r.Calibration
	if c == nil {
		fmt.Fprintf(w, "Threshold: %s dBFS (given)\n", formatLevel(r.Threshold, 2))
		fmt.Fprintln(w, "")
		return
	}

	if data.Config != nil {
		scan := data.Config.Scan
		if scan.Duration > 0 {
			fmt.Fprintf(w, "Scan window: %.1fs from %.1fs\n", scan.Duration, scan.Start)
		} else {
			fmt.Fprintf(w, "Scan window: everything from %.1fs\n", scan.Start)
		}
	}
	fmt.Fprintf(w, "Samples: %d (%d finite)\n", c.Count, c.Finite)
	fmt.Fprintln(w, "")

	table := NewMetricTable("Level")
	table.AddLevelRow("Loudest", c.Max, "")
	table.AddLevelRow("Quietest", c.Min, "")
	table.AddLevelRow("Mean", c.Mean, "")
	table.AddLevelRow("Stable bound", c.StableBound, "smallest step below the mean")
	table.AddLevelRow("Threshold", c.Threshold,
		formatMetricSigned(c.Threshold-c.StableBound, 2)+" dB over stable bound")
	fmt.Fprint(w, table.String())
	fmt.Fprintln(w, "")
}

func writeAnalysis(w io.Writer, data ReportData) {
	writeSection(w, "Analysis")

	a := data.Result.Analysis
	if a == nil {
		fmt.Fprintln(w, "Status: not run")
		fmt.Fprintln(w, "")
		return
	}

	if data.Config != nil {
		d := data.Config.Detector
		fmt.Fprintf(w, "Bin width: %s (open after %d loud, close after %d silent, margin %d bins)\n",
			formatMetricWithUnit(d.BinWidth, 1, "s"), d.LoudRun, d.SilentRun, d.Margin)
	}
	fmt.Fprintf(w, "Samples: %d\n", a.Samples)
	fmt.Fprintf(w, "Bins: %d\n", a.Bins)
	fmt.Fprintf(w, "Segments: %d\n", len(a.Segments))
	if a.Unterminated {
		fmt.Fprintf(w, "Trailing loud region from %.2fs never closed and was dropped\n", a.OpenStart)
	}
	fmt.Fprintln(w, "")
}

func writeSegments(w io.Writer, r *processor.Result) {
	if r.Analysis == nil || len(r.Analysis.Segments) == 0 {
		return
	}
	writeSection(w, "Segments")

	table := NewMetricTable("Start", "End", "Length")
	for i, seg := range r.Analysis.Segments {
		note := ""
		if r.Extraction != nil && i < len(r.Extraction.Results) {
			res := r.Extraction.Results[i]
			if res.OK() {
				note = res.Name
			} else {
				note = processor.NoFile
			}
		}
		table.AddRow(fmt.Sprintf("#%d", i+1), []string{
			formatMetric(seg.Start, 2),
			formatMetric(seg.End, 2),
			formatMetric(seg.Duration(), 2),
		}, "s", note)
	}
	fmt.Fprint(w, table.String())
	fmt.Fprintln(w, "")

	if x := r.Extraction; x != nil {
		fmt.Fprintf(w, "Clips: %d of %d created\n", x.Succeeded, len(x.Results))
		fmt.Fprintf(w, "Directory: %s\n", x.Dir)
		fmt.Fprintln(w, "")
	}
}

// formatDuration formats a duration in a human-readable way
func formatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}

	minutes := int(d.Minutes())
	seconds := int(d.Seconds()) % 60

	if minutes < 60 {
		return fmt.Sprintf("%dm %ds", minutes, seconds)
	}

	hours := minutes / 60
	minutes = minutes % 60
	return fmt.Sprintf("%dh %dm %ds", hours, minutes, seconds)
}
