// Package housekeeping cleans up after the previous session before the
// bundle starts: it archives logs, purges the temp directory, terminates
// leftover processes and makes sure the local root certificate exists.
package housekeeping

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/anchorbundle/anchor/internal/config"
	"github.com/anchorbundle/anchor/pkg/logging"
)

// ArchivesDirName is the folder below the logs directory holding archives.
const ArchivesDirName = "archives"

// archiveLayout names archive folders; it sorts chronologically.
const archiveLayout = "2006-01-02-150405"

// Report summarizes one Clean run.
type Report struct {
	Archive      string // Archive folder created, "" when nothing was archived
	LogsArchived int
	TmpRemoved   int
	Killed       []string
}

// Housekeeper performs the cleanup steps for one bundle.
type Housekeeper struct {
	Root        string
	LogsDir     string
	ScriptsLogs string
	TmpDir      string
	TmpKeep     []string
	MaxArchives int
	KillStale   bool
	SSL         CertificateOptions

	// Processes lists and terminates processes. Nil disables KillStale.
	Processes ProcessTable
	// Now is the clock used to name archives.
	Now func() time.Time

	rotateOnce sync.Once
	rotateErr  error
	rotated    Report
}

// New creates a Housekeeper for cfg. maxArchives overrides the configured
// archive count when it is zero or positive.
func New(cfg config.AnchorConfig, maxArchives int) *Housekeeper {
	if maxArchives < 0 {
		maxArchives = cfg.Bundle.MaxLogsArchives
	}
	return &Housekeeper{
		Root:        cfg.Bundle.Root,
		LogsDir:     cfg.Path(cfg.Bundle.LogsDir),
		ScriptsLogs: optionalPath(cfg, cfg.Bundle.ScriptsLogsDir),
		TmpDir:      cfg.Path(cfg.Bundle.TmpDir),
		TmpKeep:     cfg.Bundle.TmpKeep,
		MaxArchives: maxArchives,
		KillStale:   cfg.Bundle.KillStale,
		SSL: CertificateOptions{
			Dir:          cfg.Path(cfg.Bundle.SSLDir),
			Name:         cfg.SSL.Name,
			Organization: cfg.SSL.Organization,
			ValidDays:    cfg.SSL.ValidDays,
		},
		Processes: SystemProcesses{},
		Now:       time.Now,
	}
}

func optionalPath(cfg config.AnchorConfig, rel string) string {
	if rel == "" {
		return ""
	}
	return cfg.Path(rel)
}

// Clean rotates the logs (once per Housekeeper), purges the temp directory
// and terminates stale processes. It keeps going after a failure and
// returns every failure joined.
func (h *Housekeeper) Clean(ctx context.Context) (Report, error) {
	var errs []error

	report, err := h.RotateLogs()
	if err != nil {
		errs = append(errs, err)
	}

	removed, err := h.PurgeTmp()
	report.TmpRemoved = removed
	if err != nil {
		errs = append(errs, err)
	}

	if h.KillStale && h.Processes != nil {
		killed, err := KillUnder(ctx, h.Processes, h.Root)
		report.Killed = killed
		if err != nil {
			errs = append(errs, err)
		}
	}

	return report, errors.Join(errs...)
}

// RotateLogs moves the *.log files of the logs and scripts directories into
// a new timestamped archive and prunes old archives. Only the first call
// does any work; later calls return the first result.
func (h *Housekeeper) RotateLogs() (Report, error) {
	h.rotateOnce.Do(func() {
		h.rotated, h.rotateErr = h.rotate()
	})
	return h.rotated, h.rotateErr
}

func (h *Housekeeper) rotate() (Report, error) {
	var report Report
	if h.LogsDir == "" {
		return report, nil
	}

	now := time.Now
	if h.Now != nil {
		now = h.Now
	}
	archive := filepath.Join(h.LogsDir, ArchivesDirName, now().Format(archiveLayout))

	sources := []struct{ dir, dest string }{
		{h.LogsDir, archive},
	}
	if h.ScriptsLogs != "" {
		sources = append(sources, struct{ dir, dest string }{h.ScriptsLogs, filepath.Join(archive, "scripts")})
	}

	var errs []error
	for _, src := range sources {
		n, err := h.archiveLogs(src.dir, src.dest)
		report.LogsArchived += n
		if err != nil {
			errs = append(errs, err)
		}
	}
	if report.LogsArchived > 0 {
		report.Archive = archive
		logging.Info("Housekeeping", "Archived %d log file(s) to %s", report.LogsArchived, archive)
	}

	if err := pruneArchives(filepath.Join(h.LogsDir, ArchivesDirName), h.MaxArchives); err != nil {
		errs = append(errs, err)
	}
	return report, errors.Join(errs...)
}

// archiveLogs moves dir/*.log into dest, or deletes them when no archives
// are kept.
func (h *Housekeeper) archiveLogs(dir, dest string) (int, error) {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to list %s: %w", dir, err)
	}

	var errs []error
	moved := 0
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".log") {
			continue
		}
		src := filepath.Join(dir, e.Name())

		if h.MaxArchives == 0 {
			if err := os.Remove(src); err != nil {
				errs = append(errs, err)
			}
			continue
		}

		if err := os.MkdirAll(dest, 0o755); err != nil {
			return moved, fmt.Errorf("failed to create archive %s: %w", dest, err)
		}
		if err := os.Rename(src, filepath.Join(dest, e.Name())); err != nil {
			errs = append(errs, fmt.Errorf("failed to archive %s: %w", src, err))
			continue
		}
		moved++
	}
	return moved, errors.Join(errs...)
}

// pruneArchives removes all but the newest keep archive folders.
func pruneArchives(dir string, keep int) error {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() {
			names = append(names, e.Name())
		}
	}
	if len(names) <= keep {
		return nil
	}
	sort.Strings(names)

	var errs []error
	for _, name := range names[:len(names)-keep] {
		if err := os.RemoveAll(filepath.Join(dir, name)); err != nil {
			errs = append(errs, err)
			continue
		}
		logging.Debug("Housekeeping", "Removed log archive %s", name)
	}
	return errors.Join(errs...)
}

// PurgeTmp removes every entry of the temp directory except those named in
// TmpKeep (case-insensitive). It returns the number of entries removed.
func (h *Housekeeper) PurgeTmp() (int, error) {
	if h.TmpDir == "" {
		return 0, nil
	}
	entries, err := os.ReadDir(h.TmpDir)
	if os.IsNotExist(err) {
		return 0, os.MkdirAll(h.TmpDir, 0o755)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to list %s: %w", h.TmpDir, err)
	}

	keep := make(map[string]bool, len(h.TmpKeep))
	for _, k := range h.TmpKeep {
		keep[strings.ToLower(k)] = true
	}

	var errs []error
	removed := 0
	for _, e := range entries {
		if keep[strings.ToLower(e.Name())] {
			continue
		}
		if err := os.RemoveAll(filepath.Join(h.TmpDir, e.Name())); err != nil {
			errs = append(errs, err)
			continue
		}
		removed++
	}
	if removed > 0 {
		logging.Info("Housekeeping", "Purged %d entries from %s", removed, h.TmpDir)
	}
	return removed, errors.Join(errs...)
}

// EnsureCertificate creates the local root certificate when it is missing.
func (h *Housekeeper) EnsureCertificate() (bool, error) {
	return EnsureRootCertificate(h.SSL)
}
