package app

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/anchorbundle/anchor/internal/config"
	"github.com/anchorbundle/anchor/internal/fsutil"
	"github.com/anchorbundle/anchor/pkg/logging"
)

// repoIndexDepth limits how deep below a repository directory repositories
// are searched for.
const repoIndexDepth = 3

// RepoIndexer records the git repositories found below the configured
// directories, for tools that offer them in a picker.
type RepoIndexer struct {
	Dirs   []string
	Output string
}

// NewRepoIndexer indexes cfg.Bundle.RepoDirs into core/tmp/repos.yaml.
func NewRepoIndexer(cfg config.AnchorConfig) *RepoIndexer {
	dirs := make([]string, 0, len(cfg.Bundle.RepoDirs))
	for _, d := range cfg.Bundle.RepoDirs {
		dirs = append(dirs, cfg.Path(d))
	}
	return &RepoIndexer{Dirs: dirs, Output: cfg.Path("core/tmp/repos.yaml")}
}

// Index implements orchestrator.RepoIndexer.
func (r *RepoIndexer) Index(ctx context.Context) error {
	var repos []string
	for _, dir := range r.Dirs {
		found, err := findRepos(ctx, dir)
		if err != nil {
			return err
		}
		repos = append(repos, found...)
	}
	sort.Strings(repos)

	if err := fsutil.WriteYAMLAtomic(r.Output, map[string][]string{"repositories": repos}); err != nil {
		return err
	}
	logging.Info("Bootstrap", "Indexed %d repositories", len(repos))
	return nil
}

func findRepos(ctx context.Context, root string) ([]string, error) {
	var repos []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root && os.IsNotExist(err) {
				return filepath.SkipDir
			}
			return nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if !d.IsDir() {
			return nil
		}
		if d.Name() == ".git" {
			repos = append(repos, filepath.Dir(path))
			return filepath.SkipDir
		}
		if rel, err := filepath.Rel(root, path); err == nil && depth(rel) >= repoIndexDepth {
			return filepath.SkipDir
		}
		return nil
	})
	return repos, err
}

func depth(rel string) int {
	if rel == "." {
		return 0
	}
	n := 1
	for _, c := range rel {
		if c == filepath.Separator {
			n++
		}
	}
	return n
}
