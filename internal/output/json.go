package output

import (
	"encoding/json"

	"github.com/jtraglia/ethspecify/internal/check"
)

// JSONFormatter outputs the report as indented JSON.
type JSONFormatter struct{}

// NewJSONFormatter creates a new JSONFormatter.
func NewJSONFormatter() *JSONFormatter {
	return &JSONFormatter{}
}

// Format marshals the report as indented JSON.
func (f *JSONFormatter) Format(report *check.Report) ([]byte, error) {
	return json.MarshalIndent(report, "", "  ")
}
