package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/anchorbundle/anchor/pkg/logging"
)

// reconcile walks one service through its lifecycle.
func (m *Manager) reconcile(ctx context.Context, svc ManagedService) (out Outcome) {
	began := time.Now()
	t := newTracker(svc.Name, m.callback())
	out = Outcome{Service: svc.Name, Label: svc.Label()}
	defer func() {
		out.FinalState = t.State()
		out.Duration = time.Since(began)
		if out.Failed() || out.RestartRequired {
			return
		}
		logging.Info("ServiceLifecycle", "%s service ready in %.3fs", svc.Label(), out.Duration.Seconds())
	}()

	status, err := m.controller.Status(ctx, svc.Name)
	if err != nil {
		out.addError(fmt.Sprintf("Failed to query service: %s", m.describe(svc.Name, err)))
		return out
	}

	switch {
	case !status.Installed:
		t.Transition(StateNotInstalled, nil)
	case svc.Drifted(status.CommandLine):
		out.PathDrifted = true
		logging.Info("ServiceLifecycle", "%s service has to be removed", svc.Label())
		logging.Debug("ServiceLifecycle", "-> expected: %s", svc.CommandLine())
		logging.Debug("ServiceLifecycle", "-> recorded: %s", status.CommandLine)
		t.Transition(StateInstalledDrifted, nil)
	default:
		out.AlreadyInstalled = true
		logging.Debug("ServiceLifecycle", "%s service already installed", svc.Label())
		t.Transition(StateInstalledClean, nil)
	}

	if out.PathDrifted {
		if status.Running {
			if err := m.stop(ctx, svc); err != nil {
				logging.Warn("ServiceLifecycle", "Failed to stop drifted service %s: %v", svc.Name, err)
			}
		}
		if err := m.controller.Remove(ctx, svc.Name); err != nil {
			reason := m.describe(svc.Name, err)
			out.addError(fmt.Sprintf("Failed to remove service: %s", reason))
			t.Transition(StateRemoveFailed, err)
			out.RestartRequired = true
			logging.Warn("ServiceLifecycle", "Need restart: could not remove %s: %s", svc.Name, reason)
			return out
		}
		t.Transition(StateRemoved, nil)
		status = InstallStatus{}
	}

	if out.AlreadyInstalled && status.Running {
		t.Transition(StateStarted, nil)
		out.Started = true
		return out
	}

	if svc.Port > 0 && m.probe != nil {
		if inUse, owner := m.probe.Probe(ctx, svc.Port); inUse {
			out.PortConflict = true
			out.PortOwner = owner
			out.addError(fmt.Sprintf("Port %d is used by %s", svc.Port, owner))
			t.Transition(StatePortBlocked, nil)
			return out
		}
	}

	if !status.Installed {
		t.Transition(StateInstalling, nil)
		if err := m.controller.Install(ctx, svc); err != nil {
			out.addError(fmt.Sprintf("Failed to install service: %s", m.describe(svc.Name, err)))
			t.Transition(StateInstallFailed, err)
		} else {
			out.Installed = true
		}
	}

	t.Transition(StateStarting, nil)
	startTimeout := orDefault(svc.StartTimeout, DefaultStartTimeout)
	startCtx, cancel := context.WithTimeout(ctx, startTimeout)
	err = m.controller.Start(startCtx, svc.Name)
	timedOut := errors.Is(startCtx.Err(), context.DeadlineExceeded)
	cancel()

	if err != nil || timedOut {
		reason := fmt.Sprintf("timed out after %s", startTimeout)
		if !timedOut {
			reason = m.describe(svc.Name, err)
		}
		out.addError(fmt.Sprintf("Failed to start service: %s", reason))
		t.Transition(StateStartFailed, err)

		if svc.SyntaxCheck != "" && m.checker != nil {
			res := m.checker.SyntaxCheck(ctx, svc.Product, svc.SyntaxCheck)
			if !res.OK {
				out.SyntaxDiagnostic = res.Output
				out.addError(fmt.Sprintf("Syntax check: %s", res.Output))
			}
		}
		return out
	}

	t.Transition(StateStarted, nil)
	out.Started = true
	return out
}

func orDefault(d, def time.Duration) time.Duration {
	if d <= 0 {
		return def
	}
	return d
}
