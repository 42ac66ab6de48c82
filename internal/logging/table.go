// This file contains the aligned-column table used by the analysis report.

package logging

import (
	"fmt"
	"math"
	"strings"
)

// MetricRow is one row of a table. Values are pre-formatted so rows can mix
// precisions and placeholders.
type MetricRow struct {
	Label  string   // Row label, e.g., "Threshold"
	Values []string // One value per header
	Unit   string   // Unit suffix, e.g., "dBFS", "s", "" for unitless
	Note   string   // Optional trailing note (column only shown if any row has one)
}

// MetricTable renders rows as left-aligned labels followed by right-aligned values
type MetricTable struct {
	Headers []string
	Rows    []MetricRow
}

// NewMetricTable creates an empty table with the given column headers
func NewMetricTable(headers ...string) *MetricTable {
	return &MetricTable{Headers: headers}
}

// AddRow adds a row of pre-formatted values
func (t *MetricTable) AddRow(label string, values []string, unit string, note string) {
	t.Rows = append(t.Rows, MetricRow{Label: label, Values: values, Unit: unit, Note: note})
}

// AddLevelRow adds a single-column dBFS row
func (t *MetricTable) AddLevelRow(label string, level float64, note string) {
	t.AddRow(label, []string{formatLevel(level, 2)}, "dBFS", note)
}

// String renders the table. Missing values print as MissingValue.
func (t *MetricTable) String() string {
	if len(t.Rows) == 0 {
		return ""
	}

	labelWidth, unitWidth := 0, 0
	hasNote := false
	widths := make([]int, len(t.Headers))
	for i, h := range t.Headers {
		widths[i] = len(h)
	}
	for _, row := range t.Rows {
		labelWidth = max(labelWidth, len(row.Label))
		unitWidth = max(unitWidth, len(row.Unit))
		hasNote = hasNote || row.Note != ""
		for i := range widths {
			widths[i] = max(widths[i], len(cell(row, i)))
		}
	}

	var sb strings.Builder

	sb.WriteString(strings.Repeat(" ", labelWidth+2))
	for i, h := range t.Headers {
		fmt.Fprintf(&sb, "%*s  ", widths[i], h)
	}
	if hasNote {
		if unitWidth > 0 {
			sb.WriteString(strings.Repeat(" ", unitWidth+1))
		}
		sb.WriteString("Note")
	}
	sb.WriteString("\n")

	for _, row := range t.Rows {
		fmt.Fprintf(&sb, "%-*s  ", labelWidth, row.Label)
		for i := range widths {
			fmt.Fprintf(&sb, "%*s  ", widths[i], cell(row, i))
		}
		if unitWidth > 0 {
			fmt.Fprintf(&sb, "%-*s ", unitWidth, row.Unit)
		}
		if hasNote {
			sb.WriteString(row.Note)
		}
		sb.WriteString("\n")
	}

	return sb.String()
}

// cell returns value i of row, or MissingValue
func cell(row MetricRow, i int) string {
	if i < len(row.Values) && row.Values[i] != "" {
		return row.Values[i]
	}
	return MissingValue
}

// MissingValue is the placeholder for unavailable measurements
const MissingValue = "-"

// DigitalSilenceThreshold is the dBFS level at or below which a level is shown as silence.
// ffprobe reports -inf for true digital zero.
const DigitalSilenceThreshold = -120.0

// formatMetric formats a value to decimals places, MissingValue for NaN or Inf
func formatMetric(value float64, decimals int) string {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return MissingValue
	}
	return fmt.Sprintf("%.*f", decimals, value)
}

// formatLevel formats a dBFS level. Digital silence shows as "< -120" and +Inf
// (a clipped or broken measurement) as MissingValue.
func formatLevel(value float64, decimals int) string {
	if math.IsNaN(value) || math.IsInf(value, 1) {
		return MissingValue
	}
	if math.IsInf(value, -1) || value <= DigitalSilenceThreshold {
		return "< -120"
	}
	return fmt.Sprintf("%.*f", decimals, value)
}

// formatMetricSigned formats a value with an explicit sign, e.g. "+2.5"
func formatMetricSigned(value float64, decimals int) string {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return MissingValue
	}
	return fmt.Sprintf("%+.*f", decimals, value)
}

// formatMetricWithUnit returns "value unit", or just the value when unit is empty
func formatMetricWithUnit(value float64, decimals int, unit string) string {
	formatted := formatMetric(value, decimals)
	if formatted == MissingValue || unit == "" {
		return formatted
	}
	return formatted + " " + unit
}
