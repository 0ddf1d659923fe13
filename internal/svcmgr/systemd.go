//go:build linux

package svcmgr

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/coreos/go-systemd/v22/dbus"

	"github.com/anchorbundle/anchor/internal/cmdline"
	"github.com/anchorbundle/anchor/internal/fsutil"
	"github.com/anchorbundle/anchor/internal/services"
	"github.com/anchorbundle/anchor/pkg/logging"
)

// DefaultUnitDir is where unit files are written.
const DefaultUnitDir = "/etc/systemd/system"

// Systemd controls services as systemd units over D-Bus. Unit files are
// owned by anchor and carry the registered command line in ExecStart.
type Systemd struct {
	UnitDir string
	errs    lastErrors
}

// New returns the controller for this host.
func New() services.Controller {
	return &Systemd{UnitDir: DefaultUnitDir}
}

func unitName(name string) string {
	return name + ".service"
}

func (s *Systemd) unitPath(name string) string {
	return filepath.Join(s.UnitDir, unitName(name))
}

func (s *Systemd) connect(ctx context.Context) (*dbus.Conn, error) {
	conn, err := dbus.NewWithContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to systemd: %w", err)
	}
	return conn, nil
}

// UnitFile renders the unit file for svc.
func UnitFile(svc services.ManagedService) string {
	var b strings.Builder
	b.WriteString("[Unit]\n")
	fmt.Fprintf(&b, "Description=%s\n", firstNonEmpty(svc.DisplayName, svc.Name))
	b.WriteString("After=network.target\n\n")
	b.WriteString("[Service]\n")
	fmt.Fprintf(&b, "ExecStart=%s\n", cmdline.Join(svc.Binary, svc.Args))
	fmt.Fprintf(&b, "WorkingDirectory=%s\n", filepath.Dir(svc.Binary))
	b.WriteString("Restart=no\n\n")
	b.WriteString("[Install]\n")
	b.WriteString("WantedBy=multi-user.target\n")
	return b.String()
}

// Install implements services.Controller.
func (s *Systemd) Install(ctx context.Context, svc services.ManagedService) error {
	if err := fsutil.WriteFileAtomic(s.unitPath(svc.Name), []byte(UnitFile(svc)), 0o644); err != nil {
		return s.errs.set(svc.Name, fmt.Errorf("failed to write unit file: %w", err))
	}

	conn, err := s.connect(ctx)
	if err != nil {
		return s.errs.set(svc.Name, err)
	}
	defer conn.Close()

	logging.Debug("ServiceLifecycle", "Wrote %s", s.unitPath(svc.Name))
	return s.errs.set(svc.Name, conn.ReloadContext(ctx))
}

// Start implements services.Controller.
func (s *Systemd) Start(ctx context.Context, name string) error {
	return s.errs.set(name, s.runJob(ctx, name, func(conn *dbus.Conn, ch chan<- string) (int, error) {
		return conn.StartUnitContext(ctx, unitName(name), "replace", ch)
	}))
}

// Stop implements services.Controller.
func (s *Systemd) Stop(ctx context.Context, name string) error {
	return s.errs.set(name, s.runJob(ctx, name, func(conn *dbus.Conn, ch chan<- string) (int, error) {
		return conn.StopUnitContext(ctx, unitName(name), "replace", ch)
	}))
}

func (s *Systemd) runJob(ctx context.Context, name string, job func(*dbus.Conn, chan<- string) (int, error)) error {
	conn, err := s.connect(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()

	ch := make(chan string, 1)
	if _, err := job(conn, ch); err != nil {
		return err
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case result := <-ch:
		if result != "done" {
			return fmt.Errorf("job for %s finished with result %q", unitName(name), result)
		}
		return nil
	}
}

// Remove implements services.Controller.
func (s *Systemd) Remove(ctx context.Context, name string) error {
	if err := os.Remove(s.unitPath(name)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return s.errs.set(name, err)
	}

	conn, err := s.connect(ctx)
	if err != nil {
		return s.errs.set(name, err)
	}
	defer conn.Close()
	return s.errs.set(name, conn.ReloadContext(ctx))
}

// Status implements services.Controller.
func (s *Systemd) Status(ctx context.Context, name string) (services.InstallStatus, error) {
	execStart, err := readExecStart(s.unitPath(name))
	if errors.Is(err, os.ErrNotExist) {
		return services.InstallStatus{}, nil
	}
	if err != nil {
		return services.InstallStatus{}, err
	}

	status := services.InstallStatus{Installed: true, CommandLine: execStart}

	conn, err := s.connect(ctx)
	if err != nil {
		return status, err
	}
	defer conn.Close()

	units, err := conn.ListUnitsByNamesContext(ctx, []string{unitName(name)})
	if err != nil {
		return status, err
	}
	for _, u := range units {
		if u.Name == unitName(name) && u.ActiveState == "active" {
			status.Running = true
		}
	}
	return status, nil
}

// LastError implements services.Controller.
func (s *Systemd) LastError(name string) string {
	return s.errs.get(name)
}

func readExecStart(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if v, ok := strings.CutPrefix(line, "ExecStart="); ok {
			return v, nil
		}
	}
	return "", sc.Err()
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
