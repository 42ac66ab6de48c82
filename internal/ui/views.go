package ui

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

var (
	accentColor  = lipgloss.Color("#A40000")
	mutedColor   = lipgloss.Color("#888888")
	activeColor  = lipgloss.Color("#FFA500")
	successColor = lipgloss.Color("#00AA00")
)

// renderProcessingView renders the view while the run is in progress
func renderProcessingView(m Model) string {
	var b strings.Builder

	b.WriteString(renderHeader(m))
	b.WriteString("\n\n")

	switch m.Phase {
	case PhaseCutting:
		b.WriteString(renderClips(m))
	default:
		b.WriteString(renderReadDetails(m))
	}

	return b.String()
}

// renderHeader renders the application header
func renderHeader(m Model) string {
	title := lipgloss.NewStyle().
		Bold(true).
		Foreground(accentColor).
		Render("Autocut ✂ - Silence Splitter")

	mode := "Cutting"
	if m.DryRun {
		mode = "Dry run of"
	}
	subtitle := lipgloss.NewStyle().
		Foreground(mutedColor).
		Italic(true).
		Render(fmt.Sprintf("%s %s", mode, filepath.Base(m.InputPath)))

	return title + "\n" + subtitle
}

// renderReadDetails renders the calibration or analysis pass
func renderReadDetails(m Model) string {
	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(accentColor).
		Padding(0, 1).
		Width(60)

	var content strings.Builder

	step, name := 1, "Calibrating noise threshold"
	if m.Phase == PhaseAnalyzing {
		step, name = 2, "Finding segments"
	}
	if m.Phase == PhaseStarting {
		step, name = 0, "Starting ffprobe"
	}
	icon := lipgloss.NewStyle().Foreground(activeColor).Render(spinnerFrames[m.spinnerIndex])
	fmt.Fprintf(&content, "%s Pass %d/3: %s\n\n", icon, step, name)

	elapsed := time.Since(m.PhaseStart).Seconds()
	fmt.Fprintf(&content, "⏱  Read: %s | Elapsed: %.1fs\n", formatPosition(m.Position), elapsed)
	if m.CurrentLevel != 0 {
		fmt.Fprintf(&content, "📊 Level: %.1f dB | Peak: %.1f dB", m.CurrentLevel, m.PeakLevel)
	}
	if m.Phase == PhaseAnalyzing && m.Threshold != 0 {
		source := "given"
		if m.Calibrated {
			source = "calibrated"
		}
		fmt.Fprintf(&content, "\n🔇 Threshold: %.1f dB (%s)", m.Threshold, source)
	}

	return box.Render(content.String())
}

// renderClips renders the extraction pass
func renderClips(m Model) string {
	var b strings.Builder

	total := len(m.Clips)
	done := m.Completed + m.Failed
	progress := 0.0
	if total > 0 {
		progress = float64(done) / float64(total)
	}
	fmt.Fprintf(&b, "Pass 3/3: Cutting %d segments\n", total)
	b.WriteString(renderProgressBar(progress, 40))
	b.WriteString("\n\n")

	for _, clip := range m.Clips {
		if clip.Status == ClipCutting {
			b.WriteString(renderClipEntry(clip))
			b.WriteString("\n")
		}
	}

	footer := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(mutedColor).
		Padding(0, 1).
		Width(60).
		Render(fmt.Sprintf("%d of %d clips done (%d failed)", done, total, m.Failed))
	b.WriteString(footer)

	return b.String()
}

// renderClipEntry renders one clip line
func renderClipEntry(clip ClipProgress) string {
	span := fmt.Sprintf("(%.2f, %.2f)", clip.Segment.Start, clip.Segment.End)
	switch clip.Status {
	case ClipDone:
		icon := lipgloss.NewStyle().Foreground(successColor).Render("✓")
		return fmt.Sprintf(" %s %s %s", icon, clip.Name, span)
	case ClipFailed:
		icon := lipgloss.NewStyle().Foreground(accentColor).Render("✗")
		return fmt.Sprintf(" %s %s %s\n   Error: %v", icon, clip.Name, span, clip.Err)
	case ClipCutting:
		icon := lipgloss.NewStyle().Foreground(activeColor).Render("⚙")
		return fmt.Sprintf(" %s %s %s", icon, clip.Name, span)
	default:
		icon := lipgloss.NewStyle().Foreground(mutedColor).Render("○")
		return fmt.Sprintf(" %s %s", icon, clip.Name)
	}
}

// renderProgressBar renders a progress bar
func renderProgressBar(progress float64, width int) string {
	filled := int(progress * float64(width))
	empty := width - filled

	bar := strings.Repeat("█", filled) + strings.Repeat("░", empty)
	percentage := int(progress * 100)

	return fmt.Sprintf("%s %d%%", bar, percentage)
}

// renderCompletionSummary renders the final summary
func renderCompletionSummary(m Model) string {
	var b strings.Builder

	if m.Err != nil {
		header := lipgloss.NewStyle().Bold(true).Foreground(accentColor).Render("✗ Autocut failed")
		fmt.Fprintf(&b, "%s\n\n   %v\n", header, m.Err)
		return b.String()
	}

	header := lipgloss.NewStyle().
		Bold(true).
		Foreground(successColor).
		Render("✨ Processing Complete!")
	b.WriteString(header)
	b.WriteString("\n\n")

	r := m.Result
	if r == nil || r.Extraction == nil {
		b.WriteString("No segments found above the noise threshold.\n")
	} else {
		for _, clip := range m.Clips {
			b.WriteString(renderClipEntry(clip))
			b.WriteString("\n")
		}
		b.WriteString("\n")
		b.WriteString(strings.Repeat("─", 60))
		b.WriteString("\n")
		if m.DryRun {
			fmt.Fprintf(&b, "Dry run: %d segments found, nothing written\n", len(r.Extraction.Results))
		} else {
			fmt.Fprintf(&b, "%d of %d clips written to %s\n",
				r.Extraction.Succeeded, len(r.Extraction.Results), r.Extraction.Dir)
		}
	}

	if m.ReportPath != "" {
		fmt.Fprintf(&b, "Report: %s\n", m.ReportPath)
	}
	return b.String()
}

// formatPosition renders a media position as H:MM:SS.s or M:SS.s
func formatPosition(seconds float64) string {
	d := time.Duration(seconds * float64(time.Second))
	h := int(d.Hours())
	mins := int(d.Minutes()) % 60
	secs := d.Seconds() - float64(int(d.Minutes())*60)
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%04.1f", h, mins, secs)
	}
	return fmt.Sprintf("%d:%04.1f", mins, secs)
}
