// Package ui provides the Bubbletea terminal user interface for autocut
package ui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/linuxmatters/autocut/internal/processor"
	"github.com/sirupsen/logrus"
)

// Phase is the stage the run has reached
type Phase int

const (
	PhaseStarting Phase = iota
	PhaseCalibrating
	PhaseAnalyzing
	PhaseCutting
	PhaseComplete
	PhaseFailed
)

// ClipStatus is the extraction state of one clip
type ClipStatus int

const (
	ClipQueued ClipStatus = iota
	ClipCutting
	ClipDone
	ClipFailed
)

// ClipProgress tracks one clip
type ClipProgress struct {
	Name    string
	Segment processor.Segment
	Status  ClipStatus
	Err     error
}

// Spinner frames for the reading passes, whose length is unknown up front
var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// Model is the Bubbletea model for one autocut run
type Model struct {
	InputPath string
	DryRun    bool

	Phase      Phase
	PassName   string
	PhaseStart time.Time

	// Reading passes
	Position     float64 // seconds of media read
	CurrentLevel float64 // dBFS
	PeakLevel    float64 // dBFS
	spinnerIndex int

	// Analysis results
	Threshold  float64
	Calibrated bool

	// Extraction
	Clips     []ClipProgress
	Completed int
	Failed    int

	Result     *processor.Result
	ReportPath string
	Err        error

	StartTime time.Time
	Done      bool

	// Channel for receiving updates from the processor goroutine
	ProgressChan chan tea.Msg

	// Debug log, never nil
	log logrus.FieldLogger

	// Terminal dimensions
	Width  int
	Height int
}

// NewModel creates a UI model for input. Updates are read from ProgressChan.
func NewModel(input string, dryRun bool, log logrus.FieldLogger) Model {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return Model{
		InputPath:    input,
		DryRun:       dryRun,
		PeakLevel:    -120.0,
		StartTime:    time.Now(),
		PhaseStart:   time.Now(),
		ProgressChan: make(chan tea.Msg, 100),
		log:          log,
	}
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return waitForProgress(m.ProgressChan)
}

// Update handles messages and updates the model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height

	case ProgressMsg:
		m = updateReadProgress(m, msg)
		return m, waitForProgress(m.ProgressChan)

	case ThresholdMsg:
		m.Threshold = msg.Threshold
		m.Calibrated = msg.Calibrated
		m.log.Debugf("ui: threshold %.2f dB (calibrated %v)", msg.Threshold, msg.Calibrated)
		return m, waitForProgress(m.ProgressChan)

	case ClipMsg:
		m = updateClip(m, msg.Event)
		return m, waitForProgress(m.ProgressChan)

	case AllCompleteMsg:
		m.log.Debug("ui: run complete")
		m.Result = msg.Result
		m.ReportPath = msg.ReportPath
		m.Err = msg.Err
		m.Phase = PhaseComplete
		if msg.Err != nil {
			m.Phase = PhaseFailed
		}
		m.Done = true
		return m, tea.Quit
	}

	return m, nil
}

// View renders the UI
func (m Model) View() string {
	if m.Done {
		return renderCompletionSummary(m)
	}
	return renderProcessingView(m)
}

// updateReadProgress applies a progress update from a reading pass
func updateReadProgress(m Model, msg ProgressMsg) Model {
	phase := PhaseAnalyzing
	if msg.Pass == processor.PassCalibrate {
		phase = PhaseCalibrating
	}
	if phase != m.Phase {
		m.log.Debugf("ui: pass transition %d -> %d", m.Phase, phase)
		m.Phase = phase
		m.PhaseStart = time.Now()
		m.PeakLevel = -120.0
	}

	m.PassName = msg.PassName
	m.Position = msg.Position
	m.spinnerIndex = (m.spinnerIndex + 1) % len(spinnerFrames)

	if msg.Level != 0 {
		m.CurrentLevel = msg.Level
		if msg.Level > m.PeakLevel {
			m.PeakLevel = msg.Level
		}
	}
	return m
}

// updateClip applies a clip event, sizing the clip list on the first one
func updateClip(m Model, ev processor.ClipEvent) Model {
	if m.Phase != PhaseCutting {
		m.Phase = PhaseCutting
		m.PhaseStart = time.Now()
	}
	if len(m.Clips) < ev.Total {
		clips := make([]ClipProgress, ev.Total)
		copy(clips, m.Clips)
		m.Clips = clips
	}
	if ev.Index < 0 || ev.Index >= len(m.Clips) {
		return m
	}

	clip := &m.Clips[ev.Index]
	clip.Name = ev.Name
	clip.Segment = ev.Segment
	switch {
	case !ev.Done:
		clip.Status = ClipCutting
	case ev.Err != nil:
		clip.Status = ClipFailed
		clip.Err = ev.Err
		m.Failed++
	default:
		clip.Status = ClipDone
		m.Completed++
	}
	return m
}

// waitForProgress creates a command that waits for progress messages
func waitForProgress(progressChan chan tea.Msg) tea.Cmd {
	return func() tea.Msg {
		return <-progressChan
	}
}
