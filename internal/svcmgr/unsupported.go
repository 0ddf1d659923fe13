//go:build !windows && !linux

package svcmgr

import (
	"context"
	"errors"
	"runtime"

	"github.com/anchorbundle/anchor/internal/services"
)

var errUnsupported = errors.New("service management is not supported on " + runtime.GOOS)

type unsupported struct{}

// New returns a controller that reports every service as absent and fails
// every change.
func New() services.Controller {
	return unsupported{}
}

func (unsupported) Install(context.Context, services.ManagedService) error { return errUnsupported }
func (unsupported) Start(context.Context, string) error                   { return errUnsupported }
func (unsupported) Stop(context.Context, string) error                    { return errUnsupported }
func (unsupported) Remove(context.Context, string) error                  { return errUnsupported }
func (unsupported) Status(context.Context, string) (services.InstallStatus, error) {
	return services.InstallStatus{}, nil
}
func (unsupported) LastError(string) string { return errUnsupported.Error() }
