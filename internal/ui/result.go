package ui

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Detail is one key/value line of a result box. A slice keeps the order.
type Detail struct {
	Key   string
	Value string
}

// Result is a success or failure box printed at the end of a CLI command.
type Result struct {
	OK              bool
	Title           string
	Details         []Detail
	Error           error
	Troubleshooting []string
	Width           int
}

// Render returns the styled result box as a string
func (r Result) Render() string {
	width := r.Width
	if width < MinTerminalWidth {
		width = MinTerminalWidth
	}

	color, title := SuccessColor, SuccessTitleStyle.Render(fmt.Sprintf("%s  %s", SuccessMarker, r.Title))
	if !r.OK {
		color, title = ErrorColor, ErrorTitleStyle.Render(fmt.Sprintf("%s  FAILED  ─  %s", FailureMarker, r.Title))
	}

	lines := []string{"", title, ""}
	for _, d := range r.Details {
		lines = append(lines, row(d.Key, d.Value))
	}
	if r.Error != nil {
		lines = append(lines, ErrorMessageStyle.Render("Error: "+r.Error.Error()))
	}
	if len(r.Troubleshooting) > 0 {
		lines = append(lines, "")
		for _, tip := range r.Troubleshooting {
			lines = append(lines, TroubleshootingItemStyle.Render("  • "+tip))
		}
	}
	lines = append(lines, "")

	return lipgloss.NewStyle().
		Border(lipgloss.DoubleBorder()).
		BorderForeground(color).
		Width(width-2).
		Padding(0, 2).
		Render(strings.Join(lines, "\n"))
}

// PrintSuccess writes a success box to w
func PrintSuccess(w io.Writer, title string, details ...Detail) {
	width, _ := GetTerminalSize()
	_, _ = fmt.Fprintln(w, Result{OK: true, Title: title, Details: details, Width: width}.Render())
}

// PrintFailure writes a failure box with troubleshooting tips to w
func PrintFailure(w io.Writer, title string, err error, troubleshooting ...string) {
	width, _ := GetTerminalSize()
	_, _ = fmt.Fprintln(w, Result{Title: title, Error: err, Troubleshooting: troubleshooting, Width: width}.Render())
}
