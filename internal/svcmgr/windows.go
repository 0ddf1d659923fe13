//go:build windows

package svcmgr

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sys/windows"
	"golang.org/x/sys/windows/svc"
	"golang.org/x/sys/windows/svc/mgr"

	"github.com/anchorbundle/anchor/internal/cmdline"
	"github.com/anchorbundle/anchor/internal/services"
	"github.com/anchorbundle/anchor/pkg/logging"
)

// Windows controls services through the Service Control Manager.
type Windows struct {
	errs lastErrors
}

// New returns the controller for this host.
func New() services.Controller {
	return &Windows{}
}

func (w *Windows) open(name string) (*mgr.Mgr, *mgr.Service, error) {
	m, err := mgr.Connect()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to service manager: %w", err)
	}
	s, err := m.OpenService(name)
	if err != nil {
		_ = m.Disconnect()
		return nil, nil, err
	}
	return m, s, nil
}

// Install implements services.Controller.
func (w *Windows) Install(_ context.Context, s services.ManagedService) error {
	m, err := mgr.Connect()
	if err != nil {
		return w.errs.set(s.Name, fmt.Errorf("failed to connect to service manager: %w", err))
	}
	defer m.Disconnect()

	created, err := m.CreateService(s.Name, s.Binary, mgr.Config{
		DisplayName: s.DisplayName,
		StartType:   mgr.StartManual,
	}, cmdline.Split(s.Args)...)
	if err != nil {
		return w.errs.set(s.Name, err)
	}
	defer created.Close()

	logging.Debug("ServiceLifecycle", "Registered %s as %s", s.Name, s.CommandLine())
	return w.errs.set(s.Name, nil)
}

// Start implements services.Controller. It returns once the service reports
// running, or fails when it stops or ctx expires first.
func (w *Windows) Start(ctx context.Context, name string) error {
	m, s, err := w.open(name)
	if err != nil {
		return w.errs.set(name, err)
	}
	defer m.Disconnect()
	defer s.Close()

	if err := s.Start(); err != nil {
		return w.errs.set(name, err)
	}
	return w.errs.set(name, waitFor(ctx, s, svc.Running))
}

// Stop implements services.Controller.
func (w *Windows) Stop(ctx context.Context, name string) error {
	m, s, err := w.open(name)
	if err != nil {
		return w.errs.set(name, err)
	}
	defer m.Disconnect()
	defer s.Close()

	status, err := s.Query()
	if err != nil {
		return w.errs.set(name, err)
	}
	if status.State == svc.Stopped {
		return nil
	}
	if _, err := s.Control(svc.Stop); err != nil {
		return w.errs.set(name, err)
	}
	return w.errs.set(name, waitFor(ctx, s, svc.Stopped))
}

// Remove implements services.Controller.
func (w *Windows) Remove(_ context.Context, name string) error {
	m, s, err := w.open(name)
	if err != nil {
		if errors.Is(err, windows.ERROR_SERVICE_DOES_NOT_EXIST) {
			return nil
		}
		return w.errs.set(name, err)
	}
	defer m.Disconnect()
	defer s.Close()

	return w.errs.set(name, s.Delete())
}

// Status implements services.Controller.
func (w *Windows) Status(_ context.Context, name string) (services.InstallStatus, error) {
	m, s, err := w.open(name)
	if err != nil {
		if errors.Is(err, windows.ERROR_SERVICE_DOES_NOT_EXIST) {
			return services.InstallStatus{}, nil
		}
		return services.InstallStatus{}, err
	}
	defer m.Disconnect()
	defer s.Close()

	cfg, err := s.Config()
	if err != nil {
		return services.InstallStatus{}, err
	}
	status, err := s.Query()
	if err != nil {
		return services.InstallStatus{}, err
	}
	return services.InstallStatus{
		Installed:   true,
		Running:     status.State == svc.Running,
		CommandLine: cfg.BinaryPathName,
	}, nil
}

// LastError implements services.Controller.
func (w *Windows) LastError(name string) string {
	return w.errs.get(name)
}

func waitFor(ctx context.Context, s *mgr.Service, want svc.State) error {
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		status, err := s.Query()
		if err != nil {
			return err
		}
		if status.State == want {
			return nil
		}
		if want == svc.Running && status.State == svc.Stopped {
			return fmt.Errorf("service stopped during start (exit code %d)", status.Win32ExitCode)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
