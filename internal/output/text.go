package output

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jtraglia/ethspecify/internal/check"
)

var (
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	missingStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	passStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
)

// TextFormatter outputs the report as human-readable lines: every
// accumulated error, every missing reference sorted, then a pass line
// when the run is clean.
type TextFormatter struct{}

// NewTextFormatter creates a new TextFormatter.
func NewTextFormatter() *TextFormatter {
	return &TextFormatter{}
}

// Format renders the report.
func (f *TextFormatter) Format(report *check.Report) ([]byte, error) {
	var b strings.Builder

	for _, line := range report.Errors() {
		b.WriteString(errorStyle.Render(line))
		b.WriteByte('\n')
	}
	for _, ref := range report.Missing() {
		b.WriteString(missingStyle.Render("MISSING: " + ref))
		b.WriteByte('\n')
	}

	if report.Success() {
		line := fmt.Sprintf("All specification references (%d) are valid.", report.ExpectedRefs())
		b.WriteString(passStyle.Render(line))
		b.WriteByte('\n')
	}
	return []byte(b.String()), nil
}
