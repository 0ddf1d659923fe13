// Package logging provides the structured logger shared by every anchor
// component.
//
// It wraps Go's slog package with a small subsystem-oriented API:
//
//	logging.InitForCLI(logging.LevelInfo, os.Stdout)
//	logging.Info("PathRewriter", "Rewrote %d file(s)", n)
//	logging.Error("RegistryReconciler", err, "Failed to write %s", name)
//
// During a startup run the CLI switches to InitForFile so that every line is
// also appended to the bundle's startup log. Call Close before the logs
// directory is rotated.
//
// Components that only need a line sink accept the Logger interface;
// SubsystemLogger adapts the package logger to it.
package logging
