package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/charmbracelet/lipgloss"
)

var (
	helpDescStyle = lipgloss.NewStyle().
			Foreground(warningColor).
			Italic(true)

	helpSectionStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(warningColor)

	helpFlagStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#00AA00")).
			Bold(true)

	helpArgStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#00AAAA")).
			Bold(true)

	helpDefaultStyle = lipgloss.NewStyle().
				Foreground(mutedColor).
				Italic(true)

	helpPlainStyle = lipgloss.NewStyle()
)

// Example is one command line shown under "Examples:" in the help.
// Args is everything after the program name.
type Example struct {
	Args string
	Help string
}

// helpEntry is one left/right row of the arguments or flags section
type helpEntry struct {
	left  string
	right string
	def   string
}

// StyledHelpPrinter returns a kong help printer that renders arguments and
// flags in aligned columns, followed by the given examples
func StyledHelpPrinter(examples ...Example) kong.HelpPrinter {
	return func(_ kong.HelpOptions, ctx *kong.Context) error {
		model := ctx.Model

		var sb strings.Builder
		sb.WriteString(TitleStyle.Render(AppTitle))
		sb.WriteString("\n")
		if model.Help != "" {
			sb.WriteString(helpDescStyle.Render(model.Help))
			sb.WriteString("\n")
		}

		writeHelpSection(&sb, "Usage:", []helpEntry{{left: usageLine(model.Node, model.Name)}}, helpPlainStyle)
		writeHelpSection(&sb, "Arguments:", argumentEntries(model.Node), helpArgStyle)
		writeHelpSection(&sb, "Flags:", flagEntries(model.Node), helpFlagStyle)

		if len(examples) > 0 {
			rows := make([]helpEntry, 0, len(examples))
			for _, ex := range examples {
				rows = append(rows, helpEntry{left: model.Name + " " + ex.Args, right: ex.Help})
			}
			writeHelpSection(&sb, "Examples:", rows, helpPlainStyle)
		}

		sb.WriteString("\n")
		_, err := io.WriteString(ctx.Stdout, sb.String())
		return err
	}
}

// writeHelpSection writes a titled section with the right column aligned.
// Empty sections are skipped.
func writeHelpSection(sb *strings.Builder, title string, rows []helpEntry, leftStyle lipgloss.Style) {
	if len(rows) == 0 {
		return
	}

	width := 0
	for _, row := range rows {
		width = max(width, len(row.left))
	}

	sb.WriteString("\n")
	sb.WriteString(helpSectionStyle.Render(title))
	sb.WriteString("\n")
	for _, row := range rows {
		left := row.left
		if row.right != "" || row.def != "" {
			left = fmt.Sprintf("%-*s", width, left)
		}
		sb.WriteString("  ")
		sb.WriteString(leftStyle.Render(left))
		if row.right != "" {
			sb.WriteString("  ")
			sb.WriteString(row.right)
		}
		if row.def != "" {
			sb.WriteString(" ")
			sb.WriteString(helpDefaultStyle.Render("(default: " + row.def + ")"))
		}
		sb.WriteString("\n")
	}
}

// usageLine renders "name [flags] <arg>..." with optional arguments bracketed
func usageLine(node *kong.Node, name string) string {
	parts := []string{name, "[flags]"}
	for _, arg := range node.Positional {
		if arg.Required {
			parts = append(parts, "<"+arg.Name+">")
		} else {
			parts = append(parts, "[<"+arg.Name+">]")
		}
	}
	return strings.Join(parts, " ")
}

func argumentEntries(node *kong.Node) []helpEntry {
	var rows []helpEntry
	for _, arg := range node.Positional {
		rows = append(rows, helpEntry{left: "<" + arg.Name + ">", right: arg.Help})
	}
	return rows
}

func flagEntries(node *kong.Node) []helpEntry {
	rows := []helpEntry{{left: "-h, --help", right: "Show context-sensitive help."}}

	for _, f := range node.Flags {
		if f.Name == "help" || f.Hidden {
			continue
		}

		left := "    --" + f.Name
		if f.Short != 0 {
			left = fmt.Sprintf("-%c, --%s", f.Short, f.Name)
		}
		if !f.IsBool() {
			left += "=" + placeholder(f)
		}

		rows = append(rows, helpEntry{left: left, right: f.Help, def: f.Default})
	}
	return rows
}

// placeholder names the value of a flag: the placeholder tag when set,
// otherwise the flag name in upper case
func placeholder(f *kong.Flag) string {
	if f.PlaceHolder != "" {
		return strings.ToUpper(f.PlaceHolder)
	}
	return strings.ToUpper(strings.ReplaceAll(f.Name, "-", "_"))
}
