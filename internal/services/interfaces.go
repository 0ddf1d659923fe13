package services

import "context"

// InstallStatus is what the OS service manager reports for a service.
type InstallStatus struct {
	Installed   bool
	Running     bool
	CommandLine string // Recorded binary path and arguments
}

// Controller registers and drives services with the OS service manager.
// Implementations live in internal/svcmgr.
type Controller interface {
	Install(ctx context.Context, svc ManagedService) error
	Start(ctx context.Context, name string) error
	Stop(ctx context.Context, name string) error
	Remove(ctx context.Context, name string) error
	Status(ctx context.Context, name string) (InstallStatus, error)

	// LastError returns the service manager's own description of the last
	// failure for name, or "".
	LastError(name string) string
}

// PortProbe checks whether a local TCP port is taken.
type PortProbe interface {
	// Probe returns whether port is bound and, if so, a description of the
	// owning process ("name (pid)" or "N/A").
	Probe(ctx context.Context, port int) (inUse bool, owner string)
}

// SyntaxResult is the output of a configuration syntax check.
type SyntaxResult struct {
	OK     bool
	Output string
}

// SyntaxChecker runs a product's configuration syntax check.
type SyntaxChecker interface {
	SyntaxCheck(ctx context.Context, product, command string) SyntaxResult
}

// StateChangeCallback is called on every lifecycle transition.
type StateChangeCallback func(name string, oldState, newState State, err error)
