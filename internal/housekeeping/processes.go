package housekeeping

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/shirou/gopsutil/v3/process"

	"github.com/anchorbundle/anchor/internal/location"
	"github.com/anchorbundle/anchor/pkg/logging"
)

// ProcessInfo identifies a running process.
type ProcessInfo struct {
	PID  int32
	Name string
	Exe  string
}

// ProcessTable lists and terminates processes.
type ProcessTable interface {
	List(ctx context.Context) ([]ProcessInfo, error)
	Kill(ctx context.Context, pid int32) error
}

// SystemProcesses is the ProcessTable of the host, backed by gopsutil.
type SystemProcesses struct{}

// List implements ProcessTable. Processes whose executable cannot be read
// are skipped.
func (SystemProcesses) List(ctx context.Context) ([]ProcessInfo, error) {
	procs, err := process.ProcessesWithContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list processes: %w", err)
	}

	out := make([]ProcessInfo, 0, len(procs))
	for _, p := range procs {
		exe, err := p.ExeWithContext(ctx)
		if err != nil || exe == "" {
			continue
		}
		name, _ := p.NameWithContext(ctx)
		out = append(out, ProcessInfo{PID: p.Pid, Name: name, Exe: exe})
	}
	return out, nil
}

// Kill implements ProcessTable.
func (SystemProcesses) Kill(ctx context.Context, pid int32) error {
	p, err := process.NewProcessWithContext(ctx, pid)
	if err != nil {
		return err
	}
	return p.KillWithContext(ctx)
}

// KillUnder terminates every process whose executable lives below root,
// except the current process. It returns "name (pid)" for each process
// killed.
func KillUnder(ctx context.Context, table ProcessTable, root string) ([]string, error) {
	if root == "" {
		return nil, nil
	}
	procs, err := table.List(ctx)
	if err != nil {
		return nil, err
	}

	self := int32(os.Getpid())
	var (
		killed []string
		errs   []error
	)
	for _, p := range procs {
		if p.PID == self || !location.Within(root, p.Exe) {
			continue
		}
		label := fmt.Sprintf("%s (%d)", p.Name, p.PID)
		if err := table.Kill(ctx, p.PID); err != nil {
			errs = append(errs, fmt.Errorf("failed to kill %s: %w", label, err))
			continue
		}
		logging.Info("Housekeeping", "Killed stale process %s", label)
		killed = append(killed, label)
	}
	return killed, errors.Join(errs...)
}
