// Package envreg keeps the bundle's environment values in the OS registry in
// step with the bundle's current location.
package envreg

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/anchorbundle/anchor/pkg/logging"
)

// EntryName identifies one of the managed environment values.
type EntryName string

const (
	InstallPath  EntryName = "InstallPath"
	BinariesPath EntryName = "BinariesPath"
	SystemPath   EntryName = "SystemPath"
)

// Names maps the managed entries to their OS value names.
type Names struct {
	InstallPath  string
	BinariesPath string
	SystemPath   string
}

// Token is the reference to the binaries value placed in the system path.
func (n Names) Token() string {
	return "%" + n.BinariesPath + "%"
}

type entrySpec struct {
	valueName func(Names) string
	kind      ValueKind
}

var entryTable = map[EntryName]entrySpec{
	InstallPath:  {valueName: func(n Names) string { return n.InstallPath }, kind: KindString},
	BinariesPath: {valueName: func(n Names) string { return n.BinariesPath }, kind: KindString},
	SystemPath:   {valueName: func(n Names) string { return n.SystemPath }, kind: KindExpandString},
}

// entryOrder is the order entries are planned and written in.
var entryOrder = []EntryName{InstallPath, BinariesPath, SystemPath}

// Entry is a managed value with what the registry holds and what it should
// hold.
type Entry struct {
	Name    EntryName
	Current string
	Desired string
}

// Desired carries the values computed from the bundle's current location.
type Desired struct {
	InstallPath  string
	BinariesPath string
}

// NewDesired builds the desired values for a bundle rooted at root whose
// enabled products expose binDirs. Duplicate directories are dropped.
func NewDesired(root string, binDirs []string) Desired {
	seen := make(map[string]bool, len(binDirs))
	var dirs []string
	for _, d := range binDirs {
		if d == "" || seen[strings.ToLower(d)] {
			continue
		}
		seen[strings.ToLower(d)] = true
		dirs = append(dirs, d)
	}
	return Desired{
		InstallPath:  root,
		BinariesPath: strings.Join(dirs, string(os.PathListSeparator)),
	}
}

// Outcome reports what Reconcile did.
type Outcome struct {
	Changed   []EntryName
	Refreshed []EntryName
	Errors    []string
}

// ErrorText joins the error lines, empty when everything succeeded.
func (o Outcome) ErrorText() string {
	return strings.Join(o.Errors, "\n")
}

// HasChanges reports whether any value was actually modified.
func (o Outcome) HasChanges() bool {
	return len(o.Changed) > 0
}

// Reconciler compares and writes the managed values. Writes are serialized.
type Reconciler struct {
	mu                sync.Mutex
	store             Store
	names             Names
	refreshSystemPath bool
}

// NewReconciler creates a reconciler over store. With refreshSystemPath set
// the system path is rewritten even when already correct.
func NewReconciler(store Store, names Names, refreshSystemPath bool) *Reconciler {
	return &Reconciler{
		store:             store,
		names:             names,
		refreshSystemPath: refreshSystemPath,
	}
}

// Plan reads the current values and derives the entries to reconcile.
func (r *Reconciler) Plan(d Desired) ([]Entry, error) {
	current := make(map[EntryName]string, len(entryOrder))
	for _, name := range entryOrder {
		valueName := entryTable[name].valueName(r.names)
		v, err := r.store.Get(valueName)
		if err != nil && !errors.Is(err, ErrNotFound) {
			return nil, fmt.Errorf("failed to read %s: %w", valueName, err)
		}
		current[name] = v
	}

	return []Entry{
		{Name: InstallPath, Current: current[InstallPath], Desired: d.InstallPath},
		{Name: BinariesPath, Current: current[BinariesPath], Desired: d.BinariesPath},
		{Name: SystemPath, Current: current[SystemPath], Desired: NormalizeSystemPath(current[SystemPath], r.names.Token())},
	}, nil
}

// Reconcile writes every entry whose current value differs from the desired
// one. A system path that is already correct is rewritten verbatim when
// refreshing is enabled, without being reported as changed. Write failures
// are reported in Outcome.Errors and never reported as changes.
func (r *Reconciler) Reconcile(entries []Entry) Outcome {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out Outcome
	for _, e := range entries {
		spec, ok := entryTable[e.Name]
		if !ok {
			out.Errors = append(out.Errors, fmt.Sprintf("unknown registry entry %q", e.Name))
			continue
		}
		valueName := spec.valueName(r.names)

		if e.Current == e.Desired {
			if e.Name != SystemPath || !r.refreshSystemPath {
				logging.Debug("RegistryReconciler", "%s is up to date", valueName)
				continue
			}
			if err := r.store.Set(valueName, e.Desired, spec.kind); err != nil {
				logging.Error("RegistryReconciler", err, "Failed to refresh %s", valueName)
				out.Errors = append(out.Errors, fmt.Sprintf("Failed to refresh %s: %v", valueName, err))
				continue
			}
			out.Refreshed = append(out.Refreshed, e.Name)
			continue
		}

		if err := r.store.Set(valueName, e.Desired, spec.kind); err != nil {
			logging.Error("RegistryReconciler", err, "Failed to write %s", valueName)
			out.Errors = append(out.Errors, fmt.Sprintf("Failed to write %s: %v", valueName, err))
			continue
		}
		logging.Info("RegistryReconciler", "Updated %s: %q -> %q", valueName, e.Current, e.Desired)
		out.Changed = append(out.Changed, e.Name)
	}
	return out
}

// Sync plans and reconciles in one step. A failed read is reported as an
// error without writing anything.
func (r *Reconciler) Sync(d Desired) Outcome {
	entries, err := r.Plan(d)
	if err != nil {
		logging.Error("RegistryReconciler", err, "Cannot read environment values")
		return Outcome{Errors: []string{err.Error()}}
	}
	return r.Reconcile(entries)
}

// NormalizeSystemPath removes every occurrence of token from a
// semicolon-separated path and puts it back once at the front. Other
// segments, empty ones included, are kept verbatim so a path that already
// has the token first is returned unchanged. The result is stable under
// repeated application.
func NormalizeSystemPath(current, token string) string {
	if strings.TrimSpace(current) == "" {
		return token
	}
	var kept []string
	for _, seg := range strings.Split(current, ";") {
		if strings.EqualFold(strings.TrimSpace(seg), token) {
			continue
		}
		kept = append(kept, seg)
	}
	if len(kept) == 0 {
		return token
	}
	return token + ";" + strings.Join(kept, ";")
}
