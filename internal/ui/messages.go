package ui

import (
	"github.com/linuxmatters/autocut/internal/processor"
)

// ProgressMsg represents a progress update from a reading pass
type ProgressMsg struct {
	Pass     int     // processor.PassCalibrate or processor.PassAnalyze
	PassName string  // "Calibrating" or "Analyzing"
	Position float64 // media position reached, in seconds
	Level    float64 // latest level in dBFS
}

// ThresholdMsg reports the noise threshold the analysis runs against
type ThresholdMsg struct {
	Threshold  float64
	Calibrated bool
}

// ClipMsg reports a clip starting or finishing extraction
type ClipMsg struct {
	Event processor.ClipEvent
}

// AllCompleteMsg indicates the run has finished
type AllCompleteMsg struct {
	Result     *processor.Result
	ReportPath string // empty unless a report was written
	Err        error
}
