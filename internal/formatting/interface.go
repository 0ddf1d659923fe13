// Package formatting renders run results, plans and service reports for the
// command line.
//
// Every renderer writes to an io.Writer so commands can print to stdout while
// tests capture the output in a buffer. Table output uses go-pretty; the
// structured formats emit stable documents suited for scripts.
package formatting

import (
	"fmt"
	"io"
	"strings"

	"github.com/anchorbundle/anchor/internal/orchestrator"
	"github.com/anchorbundle/anchor/internal/services"
)

// OutputFormat represents the desired output format
type OutputFormat string

const (
	FormatTable OutputFormat = "table" // Rich table output
	FormatPlain OutputFormat = "plain" // One line per fact
	FormatJSON  OutputFormat = "json"  // JSON output
	FormatYAML  OutputFormat = "yaml"  // YAML output
)

// Formats lists the accepted values of the --output flag.
var Formats = []OutputFormat{FormatTable, FormatPlain, FormatJSON, FormatYAML}

// ParseFormat maps a flag value to an OutputFormat.
func ParseFormat(s string) (OutputFormat, error) {
	for _, f := range Formats {
		if strings.EqualFold(s, string(f)) {
			return f, nil
		}
	}
	return "", fmt.Errorf("unknown output format %q (expected one of table, plain, json, yaml)", s)
}

// Options configures the formatter behavior
type Options struct {
	Format OutputFormat
	Color  bool // Enable colored output
	Width  int  // Maximum width of free-text cells, 0 for the default
}

// Formatter renders the results of the anchor commands.
type Formatter interface {
	RunResult(w io.Writer, r orchestrator.RunResult) error
	Plan(w io.Writer, p orchestrator.Plan) error
	Reports(w io.Writer, reports []services.Report) error
	Inventory(w io.Writer, lines []string) error
	Files(w io.Writer, files []string) error
}

// New returns the formatter for options.Format. Unknown formats fall back to
// tables.
func New(options Options) Formatter {
	switch options.Format {
	case FormatJSON, FormatYAML:
		return &StructuredFormatter{options: options}
	case FormatPlain:
		return &PlainFormatter{options: options}
	default:
		return &TableFormatter{options: options}
	}
}
