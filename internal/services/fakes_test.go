package services

import (
	"context"
	"errors"
	"sync"
	"time"
)

type fakeController struct {
	mu         sync.Mutex
	statuses   map[string]InstallStatus
	installErr map[string]error
	startErr   map[string]error
	removeErr  map[string]error
	lastErr    map[string]string
	startDelay time.Duration
	calls      []string
}

func newFakeController() *fakeController {
	return &fakeController{
		statuses:   make(map[string]InstallStatus),
		installErr: make(map[string]error),
		startErr:   make(map[string]error),
		removeErr:  make(map[string]error),
		lastErr:    make(map[string]string),
	}
}

func (f *fakeController) record(call string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
}

func (f *fakeController) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeController) Install(_ context.Context, svc ManagedService) error {
	f.record("install " + svc.Name)
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.installErr[svc.Name]; err != nil {
		return err
	}
	f.statuses[svc.Name] = InstallStatus{Installed: true, CommandLine: svc.CommandLine()}
	return nil
}

func (f *fakeController) Start(ctx context.Context, name string) error {
	f.record("start " + name)
	if f.startDelay > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(f.startDelay):
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.startErr[name]; err != nil {
		return err
	}
	st := f.statuses[name]
	st.Running = true
	f.statuses[name] = st
	return nil
}

func (f *fakeController) Stop(_ context.Context, name string) error {
	f.record("stop " + name)
	f.mu.Lock()
	defer f.mu.Unlock()
	st := f.statuses[name]
	st.Running = false
	f.statuses[name] = st
	return nil
}

func (f *fakeController) Remove(_ context.Context, name string) error {
	f.record("remove " + name)
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.removeErr[name]; err != nil {
		return err
	}
	delete(f.statuses, name)
	return nil
}

func (f *fakeController) Status(_ context.Context, name string) (InstallStatus, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if name == "broken" {
		return InstallStatus{}, errors.New("service manager unavailable")
	}
	return f.statuses[name], nil
}

func (f *fakeController) LastError(name string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastErr[name]
}

type fakeProbe struct {
	bound map[int]string
}

func (p fakeProbe) Probe(_ context.Context, port int) (bool, string) {
	owner, ok := p.bound[port]
	return ok, owner
}

type fakeChecker struct {
	results map[string]SyntaxResult
	calls   int
	mu      sync.Mutex
}

func (c *fakeChecker) SyntaxCheck(_ context.Context, product, _ string) SyntaxResult {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	return c.results[product]
}
