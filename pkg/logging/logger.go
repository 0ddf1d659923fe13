package logging

// Logger is the line-oriented sink handed to the startup engine.
// Implementations must be safe for concurrent use.
type Logger interface {
	Log(line string)
}

// SubsystemLogger forwards lines to the package logger at info level,
// tagged with a fixed subsystem.
type SubsystemLogger struct {
	Subsystem string
}

// NewSubsystemLogger returns a Logger writing under subsystem.
func NewSubsystemLogger(subsystem string) *SubsystemLogger {
	return &SubsystemLogger{Subsystem: subsystem}
}

// Log implements Logger.
func (s *SubsystemLogger) Log(line string) {
	Info(s.Subsystem, "%s", line)
}

// Discard is a Logger that drops every line.
var Discard Logger = discard{}

type discard struct{}

func (discard) Log(string) {}
