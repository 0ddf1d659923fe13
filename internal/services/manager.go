package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/anchorbundle/anchor/pkg/logging"
)

// Timeouts applied when a service does not set its own.
const (
	DefaultStartTimeout = 30 * time.Second
	DefaultStopTimeout  = 20 * time.Second
)

// Manager drives the lifecycle of every managed service. Services are
// independent of each other and are processed by a bounded worker pool.
type Manager struct {
	controller Controller
	probe      PortProbe
	checker    SyntaxChecker
	workers    int

	mu       sync.RWMutex
	onChange StateChangeCallback
}

// NewManager creates a manager. checker may be nil when no product has a
// syntax check. workers below one means sequential processing.
func NewManager(controller Controller, probe PortProbe, checker SyntaxChecker, workers int) *Manager {
	if workers < 1 {
		workers = 1
	}
	return &Manager{
		controller: controller,
		probe:      probe,
		checker:    checker,
		workers:    workers,
	}
}

// SetStateChangeCallback sets the callback invoked on every transition.
// The callback may be called from several goroutines at once.
func (m *Manager) SetStateChangeCallback(cb StateChangeCallback) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onChange = cb
}

func (m *Manager) callback() StateChangeCallback {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.onChange
}

type indexedOutcome struct {
	index   int
	outcome Outcome
}

// Run reconciles every service and returns one outcome per service, in
// input order.
func (m *Manager) Run(ctx context.Context, svcs []ManagedService) []Outcome {
	results := make(chan indexedOutcome, len(svcs))
	outcomes := make([]Outcome, len(svcs))

	done := make(chan struct{})
	go func() {
		defer close(done)
		for r := range results {
			outcomes[r.index] = r.outcome
		}
	}()

	var g errgroup.Group
	g.SetLimit(m.workers)
	for i, svc := range svcs {
		i, svc := i, svc
		g.Go(func() error {
			results <- indexedOutcome{index: i, outcome: m.reconcile(ctx, svc)}
			return nil
		})
	}
	_ = g.Wait()
	close(results)
	<-done

	return outcomes
}

// RemoveAll stops and removes every installed service. It keeps going after
// a failure and returns all failures joined.
func (m *Manager) RemoveAll(ctx context.Context, svcs []ManagedService) error {
	var errs []error
	for _, svc := range svcs {
		status, err := m.controller.Status(ctx, svc.Name)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", svc.Name, err))
			continue
		}
		if !status.Installed {
			continue
		}
		if status.Running {
			if err := m.stop(ctx, svc); err != nil {
				logging.Warn("ServiceLifecycle", "Failed to stop %s before removal: %v", svc.Name, err)
			}
		}
		if err := m.controller.Remove(ctx, svc.Name); err != nil {
			errs = append(errs, fmt.Errorf("%s: %s", svc.Name, m.describe(svc.Name, err)))
			continue
		}
		logging.Info("ServiceLifecycle", "Removed service %s", svc.Label())
	}
	return errors.Join(errs...)
}

// StopAll stops every running service.
func (m *Manager) StopAll(ctx context.Context, svcs []ManagedService) error {
	var errs []error
	for _, svc := range svcs {
		status, err := m.controller.Status(ctx, svc.Name)
		if err != nil || !status.Running {
			continue
		}
		if err := m.stop(ctx, svc); err != nil {
			errs = append(errs, fmt.Errorf("%s: %s", svc.Name, m.describe(svc.Name, err)))
		}
	}
	return errors.Join(errs...)
}

// Report describes a service as the OS currently sees it.
type Report struct {
	Service ManagedService
	Status  InstallStatus
	Drifted bool
	Err     error
}

// Reports queries the status of every service without changing anything.
func (m *Manager) Reports(ctx context.Context, svcs []ManagedService) []Report {
	out := make([]Report, 0, len(svcs))
	for _, svc := range svcs {
		status, err := m.controller.Status(ctx, svc.Name)
		out = append(out, Report{
			Service: svc,
			Status:  status,
			Drifted: err == nil && status.Installed && svc.Drifted(status.CommandLine),
			Err:     err,
		})
	}
	return out
}

func (m *Manager) stop(ctx context.Context, svc ManagedService) error {
	stopCtx, cancel := context.WithTimeout(ctx, orDefault(svc.StopTimeout, DefaultStopTimeout))
	defer cancel()
	return m.controller.Stop(stopCtx, svc.Name)
}

// describe prefers the service manager's own error text.
func (m *Manager) describe(name string, err error) string {
	if text := m.controller.LastError(name); text != "" {
		return text
	}
	return err.Error()
}
