// Package pathscan finds the files that may embed the bundle's absolute
// install path and therefore need rewriting after a relocation.
package pathscan

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/anchorbundle/anchor/internal/location"
	"github.com/anchorbundle/anchor/pkg/logging"
)

// Rule selects files below Path. See Matches for the Includes semantics.
type Rule struct {
	Path      string
	Includes  []string
	Recursive bool
}

// Scanner walks rules concurrently and returns a de-duplicated, sorted list
// of matching files.
type Scanner struct {
	workers int
}

// NewScanner creates a scanner that walks at most workers rules at once.
func NewScanner(workers int) *Scanner {
	if workers < 1 {
		workers = 1
	}
	return &Scanner{workers: workers}
}

// Scan evaluates every rule. Unreadable directories are logged and skipped;
// the only error returned is the context's.
func (s *Scanner) Scan(ctx context.Context, rules []Rule) ([]string, error) {
	var (
		mu    sync.Mutex
		found = make(map[string]string) // resolved path -> reported path
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)

	for _, rule := range rules {
		rule := rule
		g.Go(func() error {
			files, err := scanRule(gctx, rule)
			if err != nil {
				return err
			}
			mu.Lock()
			for _, f := range files {
				key := resolve(f)
				if cur, ok := found[key]; ok {
					f = preferred(cur, f)
				}
				found[key] = f
			}
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]string, 0, len(found))
	for _, f := range found {
		out = append(out, f)
	}
	sort.Strings(out)

	logging.Debug("PathScanner", "Matched %d file(s) across %d rule(s)", len(out), len(rules))
	return out, nil
}

// walker holds the per-rule traversal state.
type walker struct {
	ctx      context.Context
	rule     Rule
	realRoot string
	visited  map[string]bool
	files    []string
}

func scanRule(ctx context.Context, rule Rule) ([]string, error) {
	root := filepath.Clean(rule.Path)

	info, err := os.Stat(root)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			logging.Debug("PathScanner", "Skipping missing path %s", root)
		} else {
			logging.Warn("PathScanner", "Cannot stat %s: %v", root, err)
		}
		return nil, nil
	}
	if !info.IsDir() {
		if Matches(filepath.Base(root), rule.Includes) {
			return []string{root}, nil
		}
		return nil, nil
	}

	realRoot, err := filepath.EvalSymlinks(root)
	if err != nil {
		realRoot = root
	}

	w := &walker{
		ctx:      ctx,
		rule:     rule,
		realRoot: realRoot,
		visited:  make(map[string]bool),
	}
	if err := w.walk(root); err != nil {
		return nil, err
	}
	return w.files, nil
}

func (w *walker) walk(dir string) error {
	if err := w.ctx.Err(); err != nil {
		return err
	}

	real, err := filepath.EvalSymlinks(dir)
	if err != nil {
		real = dir
	}
	if w.visited[real] {
		return nil
	}
	w.visited[real] = true

	entries, err := os.ReadDir(dir)
	if err != nil {
		logging.Warn("PathScanner", "Cannot read directory %s: %v", dir, err)
		return nil
	}

	// Links are followed after the plain entries so a directory is reported
	// under its own path rather than through a link pointing at it.
	var links []string
	for _, entry := range entries {
		path := filepath.Join(dir, entry.Name())
		mode := entry.Type()

		if mode&fs.ModeSymlink != 0 {
			links = append(links, path)
			continue
		}

		if entry.IsDir() {
			if w.rule.Recursive {
				if err := w.walk(path); err != nil {
					return err
				}
			}
			continue
		}

		if mode.IsRegular() && Matches(entry.Name(), w.rule.Includes) {
			w.files = append(w.files, path)
		}
	}

	for _, path := range links {
		if err := w.followLink(path); err != nil {
			return err
		}
	}
	return nil
}

// followLink handles a symlink or junction. Targets outside the rule root
// are never followed.
func (w *walker) followLink(path string) error {
	target, err := filepath.EvalSymlinks(path)
	if err != nil {
		logging.Debug("PathScanner", "Skipping dangling link %s", path)
		return nil
	}
	if !location.Within(w.realRoot, target) {
		logging.Debug("PathScanner", "Not following %s, target %s is outside %s", path, target, w.rule.Path)
		return nil
	}

	info, err := os.Stat(target)
	if err != nil {
		return nil
	}
	if info.IsDir() {
		if !w.rule.Recursive || w.visited[target] {
			return nil
		}
		return w.walk(path)
	}
	if info.Mode().IsRegular() && Matches(filepath.Base(path), w.rule.Includes) {
		w.files = append(w.files, path)
	}
	return nil
}

// resolve returns the link-free form of path, or path itself when it
// cannot be resolved.
func resolve(path string) string {
	if real, err := filepath.EvalSymlinks(path); err == nil {
		return real
	}
	return path
}

// preferred picks which of two paths to the same file is reported: the one
// going through fewer links wins, then the lexically smaller one.
func preferred(a, b string) string {
	if la, lb := linkCount(a), linkCount(b); la != lb {
		if la < lb {
			return a
		}
		return b
	}
	if b < a {
		return b
	}
	return a
}

// linkCount is the number of components of path that are links.
func linkCount(path string) int {
	n := 0
	for p := path; ; {
		if info, err := os.Lstat(p); err == nil && info.Mode()&fs.ModeSymlink != 0 {
			n++
		}
		parent := filepath.Dir(p)
		if parent == p {
			return n
		}
		p = parent
	}
}

// Matches applies include semantics to a file name:
//   - no includes, or an empty entry, matches everything
//   - an entry matches names equal to it or ending with it ("my.ini", ".conf")
//   - an entry starting with "!" excludes names ending with the remainder
//
// Comparison is case-insensitive. When only exclusions are given every other
// name matches.
func Matches(name string, includes []string) bool {
	lower := strings.ToLower(name)

	var positive, matched bool
	for _, inc := range includes {
		inc = strings.ToLower(inc)
		if strings.HasPrefix(inc, "!") {
			if suffix := inc[1:]; suffix != "" && strings.HasSuffix(lower, suffix) {
				return false
			}
			continue
		}
		positive = true
		if inc == "" || strings.HasSuffix(lower, inc) {
			matched = true
		}
	}
	return matched || !positive
}
