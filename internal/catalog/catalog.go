// Package catalog describes the products shipped in the bundle: where each
// one is installed, which version is active, and how its service, binaries
// directories and relocation scan rules are derived.
package catalog

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/hashicorp/go-version"

	"github.com/anchorbundle/anchor/internal/config"
	"github.com/anchorbundle/anchor/internal/pathscan"
	"github.com/anchorbundle/anchor/internal/services"
	"github.com/anchorbundle/anchor/internal/template"
	"github.com/anchorbundle/anchor/pkg/logging"
)

// Product is a configured product together with what was found on disk.
type Product struct {
	config.ProductConfig

	// Versions lists the installed version folders, oldest first.
	Versions []InstalledVersion
	// Active is the version in use, nil when nothing is installed.
	Active *InstalledVersion
}

// InstalledVersion is one version folder of a product.
type InstalledVersion struct {
	Folder  string // Folder name, e.g. apache2.4.58
	Version string // Parsed version, e.g. 2.4.58
	Dir     string // Absolute folder path
}

// Installed reports whether an active version was found.
func (p Product) Installed() bool {
	return p.Active != nil
}

// ExecutablePath is the absolute path of the active version's executable,
// or "" when the product has none or is not installed.
func (p Product) ExecutablePath() string {
	if p.Active == nil || p.Executable == "" {
		return ""
	}
	return filepath.Join(p.Active.Dir, filepath.FromSlash(p.Executable))
}

// ActiveVersion returns the active version string or "".
func (p Product) ActiveVersion() string {
	if p.Active == nil {
		return ""
	}
	return p.Active.Version
}

// Catalog is the set of products of one bundle. It is read-only once built
// and safe for concurrent use.
type Catalog struct {
	root      string
	lifecycle config.LifecycleConfig
	rules     []config.ScanRuleConfig

	products []Product
	byName   map[string]int
	engine   *template.Engine
	runner   CommandRunner
}

// Option configures a Catalog.
type Option func(*Catalog)

// WithRunner replaces the runner used for syntax checks.
func WithRunner(r CommandRunner) Option {
	return func(c *Catalog) { c.runner = r }
}

// New builds the catalog for cfg, discovering installed versions below the
// bundle root.
func New(cfg config.AnchorConfig, opts ...Option) (*Catalog, error) {
	c := &Catalog{
		root:      cfg.Bundle.Root,
		lifecycle: cfg.Lifecycle,
		rules:     cfg.Scan.Rules,
		byName:    make(map[string]int),
		engine:    template.New(),
		runner:    ExecRunner{},
	}
	for _, opt := range opts {
		opt(c)
	}

	for _, pc := range cfg.Products {
		p := Product{ProductConfig: pc}
		versions, err := discover(cfg.Path(pc.Dir))
		if err != nil {
			return nil, fmt.Errorf("failed to inspect %s: %w", pc.Name, err)
		}
		p.Versions = versions
		p.Active = selectVersion(versions, pc.Version)
		if pc.Version != "" && p.Active == nil && len(versions) > 0 {
			logging.Warn("Catalog", "Pinned version %s of %s is not installed", pc.Version, pc.Name)
		}

		c.byName[strings.ToLower(pc.Name)] = len(c.products)
		if pc.Service != nil && pc.Service.Name != "" {
			c.byName[strings.ToLower(pc.Service.Name)] = len(c.products)
		}
		c.products = append(c.products, p)
	}
	return c, nil
}

// Root returns the bundle root the catalog was built for.
func (c *Catalog) Root() string {
	return c.root
}

// Products returns every product in configuration order.
func (c *Catalog) Products() []Product {
	out := make([]Product, len(c.products))
	copy(out, c.products)
	return out
}

// Product looks a product up by product or service name, ignoring case.
func (c *Catalog) Product(name string) (Product, bool) {
	i, ok := c.byName[strings.ToLower(name)]
	if !ok {
		return Product{}, false
	}
	return c.products[i], true
}

// Port returns the configured port of a product, 0 when it has none.
func (c *Catalog) Port(name string) int {
	p, ok := c.Product(name)
	if !ok || p.Service == nil {
		return 0
	}
	return p.Service.Port
}

// IsEnabled reports whether name is a known and enabled product.
func (c *Catalog) IsEnabled(name string) bool {
	p, ok := c.Product(name)
	return ok && p.Enabled
}

// Inventory returns one line per product for the startup log.
func (c *Catalog) Inventory() []string {
	lines := make([]string, 0, len(c.products))
	for _, p := range c.products {
		v := p.ActiveVersion()
		if v == "" {
			v = "not installed"
		}
		state := "enabled"
		if !p.Enabled {
			state = "disabled"
		}
		lines = append(lines, fmt.Sprintf("%s %s (%s, %s)", p.Name, v, p.Kind, state))
	}
	return lines
}

// BinariesPaths returns the directories of enabled, installed products that
// belong on the binaries path, in configuration order.
func (c *Catalog) BinariesPaths() []string {
	var out []string
	for _, p := range c.products {
		if !p.Enabled || !p.Installed() {
			continue
		}
		for _, rel := range p.BinPaths {
			out = append(out, filepath.Join(p.Active.Dir, filepath.FromSlash(rel)))
		}
	}
	return out
}

// ScanRules returns the bundle level rules followed by every product rule,
// expanded for each installed version folder.
func (c *Catalog) ScanRules() []pathscan.Rule {
	var out []pathscan.Rule
	for _, r := range c.rules {
		out = append(out, pathscan.Rule{
			Path:      filepath.Join(c.root, filepath.FromSlash(r.Path)),
			Includes:  r.Includes,
			Recursive: r.Recursive,
		})
	}
	for _, p := range c.products {
		for _, v := range p.Versions {
			for _, r := range p.ScanRules {
				out = append(out, pathscan.Rule{
					Path:      filepath.Join(v.Dir, filepath.FromSlash(r.Path)),
					Includes:  r.Includes,
					Recursive: r.Recursive,
				})
			}
		}
	}
	return out
}

// ManagedServices returns the services of enabled, installed service
// products with their command lines rendered. A product whose command line
// fails to render is left out and its error joined into the returned error;
// the other services are still returned.
func (c *Catalog) ManagedServices() ([]services.ManagedService, error) {
	var (
		out  []services.ManagedService
		errs []error
	)
	for _, p := range c.products {
		if !p.Enabled || p.Kind != config.ProductKindService || p.Service == nil {
			continue
		}
		if !p.Installed() {
			logging.Warn("Catalog", "Service product %s is enabled but not installed", p.Name)
			continue
		}

		svc, err := c.managedService(p)
		if err != nil {
			logging.Error("Catalog", err, "Skipping service %s", p.Service.Name)
			errs = append(errs, err)
			continue
		}
		out = append(out, svc)
	}
	return out, errors.Join(errs...)
}

// AllServices returns the services of every service product regardless of
// whether it is enabled or installed. Rendering falls back to the raw
// argument text when a product has no active version.
func (c *Catalog) AllServices() []services.ManagedService {
	var out []services.ManagedService
	for _, p := range c.products {
		if p.Kind != config.ProductKindService || p.Service == nil {
			continue
		}
		svc, err := c.managedService(p)
		if err != nil {
			svc = services.ManagedService{
				Name:        p.Service.Name,
				DisplayName: p.Service.DisplayName,
				Product:     p.Name,
				Port:        p.Service.Port,
			}
		}
		out = append(out, svc)
	}
	return out
}

func (c *Catalog) managedService(p Product) (services.ManagedService, error) {
	sc := p.Service
	dir := ""
	if p.Active != nil {
		dir = p.Active.Dir
	}
	exe := p.ExecutablePath()

	ctx := template.NewContext(c.root, p.Name, p.ActiveVersion(), dir, exe, sc.Name, sc.Port)
	args, err := c.engine.Render(sc.Args, ctx)
	if err != nil {
		return services.ManagedService{}, fmt.Errorf("failed to render arguments of %s: %w", p.Name, err)
	}

	return services.ManagedService{
		Name:         sc.Name,
		DisplayName:  sc.DisplayName,
		Product:      p.Name,
		Version:      p.ActiveVersion(),
		Binary:       exe,
		Args:         args,
		Port:         sc.Port,
		SyntaxCheck:  sc.SyntaxCheck,
		StartTimeout: firstPositive(sc.StartTimeout, c.lifecycle.StartTimeout),
		StopTimeout:  firstPositive(sc.StopTimeout, c.lifecycle.StopTimeout),
	}, nil
}

func firstPositive(values ...time.Duration) time.Duration {
	for _, v := range values {
		if v > 0 {
			return v
		}
	}
	return 0
}

// discover lists the version folders of a product directory. A folder name
// is a version when the text from its first digit parses as one.
func discover(dir string) ([]InstalledVersion, error) {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	type parsed struct {
		iv InstalledVersion
		v  *version.Version
	}
	var found []parsed
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		v, ok := ParseFolderVersion(e.Name())
		if !ok {
			continue
		}
		found = append(found, parsed{
			iv: InstalledVersion{Folder: e.Name(), Version: v.Original(), Dir: filepath.Join(dir, e.Name())},
			v:  v,
		})
	}

	sort.SliceStable(found, func(i, j int) bool { return found[i].v.LessThan(found[j].v) })

	out := make([]InstalledVersion, len(found))
	for i, f := range found {
		out[i] = f.iv
	}
	return out, nil
}

// ParseFolderVersion extracts the version from a folder name such as
// "mysql-8.0.36" or "php8.3.1".
func ParseFolderVersion(folder string) (*version.Version, bool) {
	i := strings.IndexAny(folder, "0123456789")
	if i < 0 {
		return nil, false
	}
	v, err := version.NewVersion(folder[i:])
	if err != nil {
		return nil, false
	}
	return v, true
}

// selectVersion returns the pinned version when it is installed, the newest
// one when nothing is pinned, and nil otherwise.
func selectVersion(versions []InstalledVersion, pinned string) *InstalledVersion {
	if len(versions) == 0 {
		return nil
	}
	if pinned == "" {
		v := versions[len(versions)-1]
		return &v
	}

	want, err := version.NewVersion(pinned)
	for _, v := range versions {
		if v.Folder == pinned || v.Version == pinned {
			v := v
			return &v
		}
		if err == nil {
			if got, ok := ParseFolderVersion(v.Folder); ok && got.Equal(want) {
				v := v
				return &v
			}
		}
	}
	return nil
}
