// Package output formats check reports for the terminal and for
// machine consumption.
package output

import (
	"github.com/jtraglia/ethspecify/internal/check"
)

// Formatter renders a check report into output bytes.
type Formatter interface {
	Format(report *check.Report) ([]byte, error)
}
