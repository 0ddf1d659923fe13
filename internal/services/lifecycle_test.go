package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func apache() ManagedService {
	return ManagedService{
		Name:        "anchorapache",
		Product:     "apache",
		Version:     "2.4.62",
		Binary:      `E:\anchor\bin\apache\apache2.4.62\bin\httpd.exe`,
		Args:        "-k runservice",
		Port:        80,
		SyntaxCheck: "-t",
	}
}

func mysql() ManagedService {
	return ManagedService{
		Name:        "anchormysql",
		Product:     "mysql",
		Binary:      `E:\anchor\bin\mysql\mysql8.4.0\bin\mysqld.exe`,
		Args:        "anchormysql",
		Port:        3306,
		SyntaxCheck: "--help --verbose",
	}
}

func TestFreshInstallAndStart(t *testing.T) {
	ctrl := newFakeController()
	m := NewManager(ctrl, fakeProbe{}, nil, 1)

	var mu sync.Mutex
	var transitions []State
	m.SetStateChangeCallback(func(name string, _, newState State, _ error) {
		mu.Lock()
		defer mu.Unlock()
		transitions = append(transitions, newState)
	})

	out := m.Run(context.Background(), []ManagedService{apache()})
	require.Len(t, out, 1)

	o := out[0]
	assert.True(t, o.Installed)
	assert.True(t, o.Started)
	assert.False(t, o.Failed())
	assert.Equal(t, StateStarted, o.FinalState)
	assert.Equal(t, []State{StateNotInstalled, StateInstalling, StateStarting, StateStarted}, transitions)
	assert.Equal(t, []string{"install anchorapache", "start anchorapache"}, ctrl.Calls())
}

func TestPortBlockedSkipsInstallAndStart(t *testing.T) {
	ctrl := newFakeController()
	m := NewManager(ctrl, fakeProbe{bound: map[int]string{80: "nginx.exe (4242)"}}, nil, 1)

	o := m.Run(context.Background(), []ManagedService{apache()})[0]

	assert.True(t, o.PortConflict)
	assert.Equal(t, "nginx.exe (4242)", o.PortOwner)
	assert.Contains(t, o.ErrorText, "80")
	assert.Contains(t, o.ErrorText, "nginx.exe (4242)")
	assert.False(t, o.Installed)
	assert.False(t, o.Started)
	assert.False(t, o.RestartRequired)
	assert.Equal(t, StatePortBlocked, o.FinalState)
	assert.Empty(t, ctrl.Calls())
}

func TestDriftWithFailedRemovalRequiresRestart(t *testing.T) {
	ctrl := newFakeController()
	ctrl.statuses["anchorapache"] = InstallStatus{Installed: true, CommandLine: `"D:\anchor\bin\apache\apache2.4.62\bin\httpd.exe" -k runservice`}
	ctrl.removeErr["anchorapache"] = errors.New("marked for deletion")
	m := NewManager(ctrl, fakeProbe{}, nil, 1)

	o := m.Run(context.Background(), []ManagedService{apache()})[0]

	assert.True(t, o.PathDrifted)
	assert.True(t, o.RestartRequired)
	assert.Equal(t, StateRemoveFailed, o.FinalState)
	assert.True(t, o.Failed())
	assert.Equal(t, "Failed to remove service: marked for deletion", o.ErrorText)
	assert.Equal(t, []string{"remove anchorapache"}, ctrl.Calls(), "no port check, install or start after a failed removal")
}

func TestDriftWithSuccessfulRemovalReinstalls(t *testing.T) {
	ctrl := newFakeController()
	ctrl.statuses["anchorapache"] = InstallStatus{Installed: true, Running: true, CommandLine: `D:\anchor\bin\apache\apache2.4.62\bin\httpd.exe -k runservice`}
	m := NewManager(ctrl, fakeProbe{}, nil, 1)

	o := m.Run(context.Background(), []ManagedService{apache()})[0]

	assert.True(t, o.PathDrifted)
	assert.False(t, o.RestartRequired)
	assert.True(t, o.Installed)
	assert.True(t, o.Started)
	assert.Equal(t, []string{"stop anchorapache", "remove anchorapache", "install anchorapache", "start anchorapache"}, ctrl.Calls())
}

func TestCleanInstalledServiceIsStartedWithoutInstall(t *testing.T) {
	ctrl := newFakeController()
	svc := apache()
	// quotes and case differences are not drift
	ctrl.statuses[svc.Name] = InstallStatus{Installed: true, CommandLine: `"e:\anchor\bin\apache\apache2.4.62\bin\httpd.exe" -k runservice `}
	m := NewManager(ctrl, fakeProbe{}, nil, 1)

	o := m.Run(context.Background(), []ManagedService{svc})[0]

	assert.True(t, o.AlreadyInstalled)
	assert.False(t, o.PathDrifted)
	assert.False(t, o.Installed)
	assert.True(t, o.Started)
	assert.Equal(t, []string{"start anchorapache"}, ctrl.Calls())
}

func TestRunningCleanServiceIsLeftAlone(t *testing.T) {
	ctrl := newFakeController()
	svc := apache()
	ctrl.statuses[svc.Name] = InstallStatus{Installed: true, Running: true, CommandLine: svc.CommandLine()}
	// its own port is bound, which must not count as a conflict
	m := NewManager(ctrl, fakeProbe{bound: map[int]string{80: "httpd.exe (1)"}}, nil, 1)

	o := m.Run(context.Background(), []ManagedService{svc})[0]

	assert.True(t, o.Started)
	assert.False(t, o.PortConflict)
	assert.Empty(t, ctrl.Calls())
}

func TestInstallAndStartFailuresKeepVerbatimText(t *testing.T) {
	ctrl := newFakeController()
	ctrl.installErr["anchormysql"] = errors.New("exit status 1")
	ctrl.startErr["anchormysql"] = errors.New("exit status 1")
	ctrl.lastErr["anchormysql"] = "The specified service already exists. (1073)"
	checker := &fakeChecker{results: map[string]SyntaxResult{"mysql": {OK: false, Output: "unknown variable 'foo=bar'"}}}
	m := NewManager(ctrl, fakeProbe{}, checker, 1)

	o := m.Run(context.Background(), []ManagedService{mysql()})[0]

	assert.Equal(t, StateStartFailed, o.FinalState)
	assert.Equal(t,
		"Failed to install service: The specified service already exists. (1073)\n"+
			"Failed to start service: The specified service already exists. (1073)\n"+
			"Syntax check: unknown variable 'foo=bar'",
		o.ErrorText)
	assert.Equal(t, "unknown variable 'foo=bar'", o.SyntaxDiagnostic)
	assert.Equal(t, 1, checker.calls)
}

func TestSyntaxCheckOKAddsNothing(t *testing.T) {
	ctrl := newFakeController()
	ctrl.startErr["anchorapache"] = errors.New("service did not respond")
	checker := &fakeChecker{results: map[string]SyntaxResult{"apache": {OK: true, Output: "Syntax OK"}}}
	m := NewManager(ctrl, fakeProbe{}, checker, 1)

	o := m.Run(context.Background(), []ManagedService{apache()})[0]

	assert.Equal(t, "Failed to start service: service did not respond", o.ErrorText)
	assert.Empty(t, o.SyntaxDiagnostic)
}

func TestStartTimeoutIsStartFailed(t *testing.T) {
	ctrl := newFakeController()
	ctrl.startDelay = time.Second
	svc := apache()
	svc.StartTimeout = 20 * time.Millisecond
	m := NewManager(ctrl, fakeProbe{}, nil, 1)

	o := m.Run(context.Background(), []ManagedService{svc})[0]

	assert.Equal(t, StateStartFailed, o.FinalState)
	assert.Contains(t, o.ErrorText, "timed out")
}

func TestStatusFailureIsReported(t *testing.T) {
	ctrl := newFakeController()
	svc := apache()
	svc.Name = "broken"
	m := NewManager(ctrl, fakeProbe{}, nil, 1)

	o := m.Run(context.Background(), []ManagedService{svc})[0]

	assert.Equal(t, StateUnchecked, o.FinalState)
	assert.Contains(t, o.ErrorText, "service manager unavailable")
	assert.Empty(t, ctrl.Calls())
}

func TestServicesAreIndependentAndOrdered(t *testing.T) {
	ctrl := newFakeController()
	ctrl.startErr["anchormysql"] = errors.New("boom")
	m := NewManager(ctrl, fakeProbe{bound: map[int]string{11211: "N/A"}}, nil, 3)

	memcached := ManagedService{Name: "anchormemcached", Product: "memcached", Binary: "/opt/anchor/memcached", Port: 11211}
	mailpit := ManagedService{Name: "anchormailpit", Product: "mailpit", Binary: "/opt/anchor/mailpit", Port: 8025}

	out := m.Run(context.Background(), []ManagedService{apache(), mysql(), memcached, mailpit})
	require.Len(t, out, 4)

	assert.Equal(t, "anchorapache", out[0].Service)
	assert.True(t, out[0].Started)
	assert.Equal(t, "anchormysql", out[1].Service)
	assert.Equal(t, StateStartFailed, out[1].FinalState)
	assert.Equal(t, "anchormemcached", out[2].Service)
	assert.Equal(t, StatePortBlocked, out[2].FinalState)
	assert.Equal(t, "anchormailpit", out[3].Service)
	assert.True(t, out[3].Started)
}

func TestInstallFailureDoesNotStopSiblings(t *testing.T) {
	ctrl := newFakeController()
	ctrl.installErr["anchormysql"] = errors.New("access denied")
	ctrl.startErr["anchormysql"] = errors.New("service does not exist")
	m := NewManager(ctrl, fakeProbe{}, nil, 3)

	mailpit := ManagedService{Name: "anchormailpit", Product: "mailpit", Binary: "/opt/anchor/mailpit", Port: 8025}

	out := m.Run(context.Background(), []ManagedService{apache(), mysql(), mailpit})
	require.Len(t, out, 3)

	assert.Equal(t, StateStartFailed, out[1].FinalState)
	assert.Contains(t, out[1].ErrorText, "Failed to install service: access denied")
	for _, o := range []Outcome{out[0], out[2]} {
		assert.Equal(t, StateStarted, o.FinalState, o.Service)
		assert.True(t, o.Installed, o.Service)
		assert.Empty(t, o.ErrorText, o.Service)
	}
}

func TestRemoveAll(t *testing.T) {
	ctrl := newFakeController()
	a, b := apache(), mysql()
	ctrl.statuses[a.Name] = InstallStatus{Installed: true, Running: true, CommandLine: a.CommandLine()}
	ctrl.statuses[b.Name] = InstallStatus{Installed: true, CommandLine: b.CommandLine()}
	ctrl.removeErr[b.Name] = errors.New("access denied")
	m := NewManager(ctrl, nil, nil, 1)

	err := m.RemoveAll(context.Background(), []ManagedService{a, b, {Name: "absent"}})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "anchormysql: access denied")
	assert.Equal(t, []string{"stop anchorapache", "remove anchorapache", "remove anchormysql"}, ctrl.Calls())
}

func TestReports(t *testing.T) {
	ctrl := newFakeController()
	a := apache()
	ctrl.statuses[a.Name] = InstallStatus{Installed: true, CommandLine: "somewhere else"}
	m := NewManager(ctrl, nil, nil, 1)

	reports := m.Reports(context.Background(), []ManagedService{a, mysql()})
	require.Len(t, reports, 2)
	assert.True(t, reports[0].Drifted)
	assert.False(t, reports[1].Status.Installed)
	assert.False(t, reports[1].Drifted)
}

func TestDrifted(t *testing.T) {
	svc := ManagedService{Binary: "/opt/anchor/bin/mailpit", Args: "--listen 127.0.0.1:8025"}
	assert.False(t, svc.Drifted(`"/opt/anchor/bin/mailpit" --listen 127.0.0.1:8025`))
	assert.True(t, svc.Drifted("/OPT/anchor/bin/mailpit --listen 127.0.0.1:8025"), "unix paths are case sensitive")
	assert.True(t, svc.Drifted(""))
}
