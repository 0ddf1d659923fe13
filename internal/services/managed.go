package services

import (
	"strings"
	"time"

	"github.com/anchorbundle/anchor/internal/location"
)

// ManagedService is a service the bundle installs and starts.
type ManagedService struct {
	Name         string // OS service name
	DisplayName  string
	Product      string // Catalog product name
	Version      string
	Binary       string // Absolute path of the executable
	Args         string // Rendered argument string
	Port         int    // 0 when the service has no port
	SyntaxCheck  string // Arguments of the syntax check, "" for none
	StartTimeout time.Duration
	StopTimeout  time.Duration
}

// Label is the human readable name used in messages.
func (s ManagedService) Label() string {
	if s.Version != "" {
		return s.Product + " " + s.Version + " (" + s.Name + ")"
	}
	if s.Product != "" {
		return s.Product + " (" + s.Name + ")"
	}
	return s.Name
}

// CommandLine is the command the service is registered with.
func (s ManagedService) CommandLine() string {
	return strings.TrimSpace(s.Binary + " " + s.Args)
}

// Drifted reports whether a recorded command line differs from the one the
// service would be registered with now. Quotes and surrounding whitespace
// are ignored; Windows paths compare case-insensitively.
func (s ManagedService) Drifted(recorded string) bool {
	want := normalizeCommandLine(s.CommandLine())
	got := normalizeCommandLine(recorded)
	if location.IsWindowsPath(s.Binary) {
		return !strings.EqualFold(want, got)
	}
	return want != got
}

func normalizeCommandLine(s string) string {
	return strings.TrimSpace(strings.ReplaceAll(s, `"`, ""))
}

// Outcome is the result of reconciling one service.
type Outcome struct {
	Service          string
	Label            string
	AlreadyInstalled bool
	PathDrifted      bool
	PortConflict     bool
	PortOwner        string
	Installed        bool
	Started          bool
	ErrorText        string
	SyntaxDiagnostic string
	RestartRequired  bool
	FinalState       State
	Duration         time.Duration
}

// Failed reports whether the service ended with an error.
func (o Outcome) Failed() bool {
	return o.ErrorText != ""
}

func (o *Outcome) addError(line string) {
	if o.ErrorText != "" {
		o.ErrorText += "\n"
	}
	o.ErrorText += line
}
