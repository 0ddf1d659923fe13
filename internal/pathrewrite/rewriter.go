// Package pathrewrite replaces a stale bundle root with the current one
// inside configuration files.
package pathrewrite

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/anchorbundle/anchor/internal/fsutil"
	"github.com/anchorbundle/anchor/internal/location"
	"github.com/anchorbundle/anchor/pkg/logging"
)

// Placeholders shipped in pristine configuration templates. They are
// replaced with the current root in Windows and slash form respectively.
const (
	WinPlaceholder  = "~ANCHOR_WIN_PATH~"
	UnixPlaceholder = "~ANCHOR_LIN_PATH~"
)

// Result summarizes a rewrite batch.
type Result struct {
	FilesChanged       int
	OccurrencesChanged int
	Failed             int
}

// Rewriter rewrites files in parallel.
type Rewriter struct {
	workers int
}

// New creates a rewriter processing up to workers files at once.
func New(workers int) *Rewriter {
	if workers < 1 {
		workers = 1
	}
	return &Rewriter{workers: workers}
}

// Rewrite replaces oldRoot with newRoot in every file. A file that cannot be
// read or written is logged, counted in Failed and left as is; the batch
// continues. Cancelling ctx stops scheduling further files.
func (r *Rewriter) Rewrite(ctx context.Context, files []string, oldRoot, newRoot string) Result {
	var (
		mu  sync.Mutex
		res Result
	)
	replacer := NewReplacer(oldRoot, newRoot)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers)

	for _, file := range files {
		file := file
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			n, err := replacer.RewriteFile(file)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				res.Failed++
				logging.Warn("PathRewriter", "Skipping %s: %v", file, err)
				return nil
			}
			if n > 0 {
				res.FilesChanged++
				res.OccurrencesChanged += n
				logging.Debug("PathRewriter", "Replaced %d occurrence(s) in %s", n, file)
			}
			return nil
		})
	}
	_ = g.Wait()

	logging.Info("PathRewriter", "Rewrote %d file(s), %d occurrence(s), %d failure(s)",
		res.FilesChanged, res.OccurrencesChanged, res.Failed)
	return res
}

type pair struct {
	old, new string
}

// Replacer holds the substitutions for one old/new root combination.
// It is immutable and safe for concurrent use.
type Replacer struct {
	pairs []pair
	fold  bool
}

// NewReplacer prepares the substitutions: the old root in backslash and
// forward slash form, and both placeholders. Windows roots match
// case-insensitively.
func NewReplacer(oldRoot, newRoot string) *Replacer {
	r := &Replacer{
		fold: location.IsWindowsPath(location.Normalize(oldRoot)),
	}
	winNew, unixNew := location.ToWindows(newRoot), location.ToUnix(newRoot)

	seen := make(map[string]bool)
	add := func(old, new string) {
		if old == "" || old == new || seen[old] {
			return
		}
		seen[old] = true
		r.pairs = append(r.pairs, pair{old: old, new: new})
	}
	if location.Normalize(oldRoot) != "" {
		add(location.ToWindows(oldRoot), winNew)
		add(location.ToUnix(oldRoot), unixNew)
	}
	add(WinPlaceholder, winNew)
	add(UnixPlaceholder, unixNew)
	return r
}

// Replace returns content with every substitution applied and the number of
// occurrences replaced. Text that already holds the new root is left alone,
// so applying Replace twice equals applying it once.
func (r *Replacer) Replace(content []byte) ([]byte, int) {
	total := 0
	for _, p := range r.pairs {
		var n int
		content, n = replaceAll(content, p.old, p.new, r.fold)
		total += n
	}
	return content, total
}

// RewriteFile applies Replace to a file and writes it back only when
// something changed.
func (r *Replacer) RewriteFile(path string) (int, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, err
	}
	if !info.Mode().IsRegular() {
		return 0, fmt.Errorf("not a regular file")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	out, n := r.Replace(data)
	if n == 0 {
		return 0, nil
	}
	if err := fsutil.WriteFileAtomic(path, out, info.Mode().Perm()); err != nil {
		return 0, fmt.Errorf("write failed: %w", err)
	}
	return n, nil
}

func replaceAll(content []byte, old, new string, fold bool) ([]byte, int) {
	hay, pat, cmpNew := content, []byte(old), []byte(new)
	if fold {
		hay, pat, cmpNew = asciiLower(content), asciiLower(pat), asciiLower(cmpNew)
	}
	if !bytes.Contains(hay, pat) {
		return content, 0
	}

	// Positions of old inside new, used to recognise text already rewritten.
	var offsets []int
	for i := 0; i+len(pat) <= len(cmpNew); i++ {
		if bytes.Equal(cmpNew[i:i+len(pat)], pat) {
			offsets = append(offsets, i)
		}
	}

	var out bytes.Buffer
	out.Grow(len(content))
	count, last, i := 0, 0, 0
	for {
		j := bytes.Index(hay[i:], pat)
		if j < 0 {
			break
		}
		j += i
		if alreadyNew(hay, j, offsets, cmpNew) {
			i = j + len(pat)
			continue
		}
		out.Write(content[last:j])
		out.WriteString(new)
		last = j + len(pat)
		i = last
		count++
	}
	if count == 0 {
		return content, 0
	}
	out.Write(content[last:])
	return out.Bytes(), count
}

func alreadyNew(hay []byte, at int, offsets []int, newText []byte) bool {
	for _, off := range offsets {
		start := at - off
		if start >= 0 && bytes.HasPrefix(hay[start:], newText) {
			return true
		}
	}
	return false
}

// asciiLower lowercases ASCII letters only, keeping byte offsets stable.
func asciiLower(b []byte) []byte {
	out := make([]byte, len(b))
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			c += 'a' - 'A'
		}
		out[i] = c
	}
	return out
}
