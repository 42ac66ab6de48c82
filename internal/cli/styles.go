// Package cli renders the terminal output that surrounds a run: help,
// version, errors and the final summary
package cli

import (
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// AppTitle heads the help and version output
const AppTitle = "Autocut ✂"

var (
	primaryColor = lipgloss.Color("#A40000")
	warningColor = lipgloss.Color("#FFA500")
	mutedColor   = lipgloss.Color("#888888")
	textColor    = lipgloss.Color("#FFFFFF")
)

var (
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(primaryColor)

	ErrorStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(primaryColor)

	WarningStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(warningColor)

	KeyStyle = lipgloss.NewStyle().
			Foreground(mutedColor)

	ValueStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(textColor)
)

// Output destinations, replaced in tests
var (
	stdout io.Writer = os.Stdout
	stderr io.Writer = os.Stderr
)

// PrintVersion prints the version with the Go toolchain and platform
func PrintVersion(version string) {
	fmt.Fprintln(stdout, TitleStyle.Render(AppTitle))
	printPairs(stdout,
		[2]string{"Version", version},
		[2]string{"Go", runtime.Version()},
		[2]string{"Platform", runtime.GOOS + "/" + runtime.GOARCH},
	)
}

// PrintError prints err to stderr. Joined errors are listed one per line
// under the first.
func PrintError(err error) {
	printMessage(ErrorStyle.Render("Error:"), err.Error())
}

// PrintWarning prints a warning to stderr
func PrintWarning(message string) {
	printMessage(WarningStyle.Render("Warning:"), message)
}

func printMessage(label, message string) {
	lines := strings.Split(strings.TrimRight(message, "\n"), "\n")
	fmt.Fprintf(stderr, "%s %s\n", label, lines[0])
	for _, line := range lines[1:] {
		fmt.Fprintf(stderr, "  - %s\n", line)
	}
}

// PrintSummary prints labelled values, one per line, with the values aligned
func PrintSummary(pairs ...[2]string) {
	printPairs(stdout, pairs...)
}

func printPairs(w io.Writer, pairs ...[2]string) {
	width := 0
	for _, p := range pairs {
		width = max(width, len(p[0])+1)
	}
	for _, p := range pairs {
		key := fmt.Sprintf("%-*s", width, p[0]+":")
		fmt.Fprintf(w, "%s %s\n", KeyStyle.Render(key), ValueStyle.Render(p[1]))
	}
}
