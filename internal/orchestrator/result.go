package orchestrator

import (
	"fmt"
	"strings"

	"github.com/anchorbundle/anchor/internal/envreg"
	"github.com/anchorbundle/anchor/internal/pathrewrite"
	"github.com/anchorbundle/anchor/internal/services"
)

// RunResult is the outcome of one run.
type RunResult struct {
	RunID           string
	RestartRequired bool
	AggregateError  string
	ElapsedSeconds  float64

	Relocated       bool
	OldRoot         string
	Root            string
	FilesScanned    int
	Rewrite         pathrewrite.Result
	RegistryChanged []envreg.EntryName
	ServicesSkipped bool
	Services        []services.Outcome
	CertCreated     bool
	MarkerWritten   bool
}

// Failed reports whether any error was aggregated.
func (r RunResult) Failed() bool {
	return r.AggregateError != ""
}

// errorSections collects the aggregate error text. Sections are separated
// by a blank line.
type errorSections struct {
	sections []string
}

func (e *errorSections) add(header string, lines ...string) {
	var body []string
	for _, l := range lines {
		if l = strings.TrimRight(l, "\n"); l != "" {
			body = append(body, l)
		}
	}
	if len(body) == 0 {
		return
	}
	if header != "" {
		body = append([]string{header}, body...)
	}
	e.sections = append(e.sections, strings.Join(body, "\n"))
}

func (e *errorSections) addService(o services.Outcome) {
	if !o.Failed() {
		return
	}
	name := o.Label
	if name == "" {
		name = o.Service
	}
	e.add(fmt.Sprintf("Service %s failed:", name), strings.Split(o.ErrorText, "\n")...)
}

func (e *errorSections) String() string {
	return strings.Join(e.sections, "\n\n")
}
