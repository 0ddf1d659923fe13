// Package template renders the command lines and paths declared in
// anchor.yaml. Templates use text/template syntax with the sprig function
// library plus winpath and unixpath helpers.
package template

import (
	"bytes"
	"fmt"
	"sync"
	"text/template"

	"github.com/Masterminds/sprig/v3"

	"github.com/anchorbundle/anchor/internal/location"
)

// Context is the data available to a template.
type Context struct {
	Root     string // Bundle root in native form
	RootWin  string
	RootUnix string
	Name     string // Product name
	Version  string // Installed version
	Dir      string // Version directory in native form
	DirWin   string
	DirUnix  string
	Exe      string // Executable path in native form
	Service  string // OS service name
	Port     int
}

// NewContext fills the derived path forms of a Context.
func NewContext(root, name, version, dir, exe, service string, port int) Context {
	return Context{
		Root:     root,
		RootWin:  location.ToWindows(root),
		RootUnix: location.ToUnix(root),
		Name:     name,
		Version:  version,
		Dir:      dir,
		DirWin:   location.ToWindows(dir),
		DirUnix:  location.ToUnix(dir),
		Exe:      exe,
		Service:  service,
		Port:     port,
	}
}

// Engine renders templates, caching parsed templates by source text.
// Engine is safe for concurrent use.
type Engine struct {
	mu    sync.Mutex
	cache map[string]*template.Template
	funcs template.FuncMap
}

// New creates a new template engine
func New() *Engine {
	funcs := sprig.TxtFuncMap()
	funcs["winpath"] = location.ToWindows
	funcs["unixpath"] = location.ToUnix

	return &Engine{
		cache: make(map[string]*template.Template),
		funcs: funcs,
	}
}

// Render executes src against ctx. Referencing an unknown field is an error.
func (e *Engine) Render(src string, ctx Context) (string, error) {
	if src == "" {
		return "", nil
	}

	tmpl, err := e.parse(src)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, ctx); err != nil {
		return "", fmt.Errorf("failed to render %q: %w", src, err)
	}
	return buf.String(), nil
}

// Validate parses src without executing it.
func (e *Engine) Validate(src string) error {
	_, err := e.parse(src)
	return err
}

func (e *Engine) parse(src string) (*template.Template, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if tmpl, ok := e.cache[src]; ok {
		return tmpl, nil
	}
	tmpl, err := template.New("anchor").Funcs(e.funcs).Option("missingkey=error").Parse(src)
	if err != nil {
		return nil, fmt.Errorf("failed to parse template %q: %w", src, err)
	}
	e.cache[src] = tmpl
	return tmpl, nil
}
