package services

// State is a step of the per-service lifecycle.
//
//	Unchecked -> NotInstalled | InstalledDrifted | InstalledClean
//	InstalledDrifted -> Removed | RemoveFailed
//	-> PortBlocked | Installing -> InstallFailed
//	-> Starting -> Started | StartFailed
type State string

const (
	StateUnchecked        State = "Unchecked"
	StateNotInstalled     State = "NotInstalled"
	StateInstalledDrifted State = "InstalledDrifted"
	StateInstalledClean   State = "InstalledClean"
	StateRemoved          State = "Removed"
	StateRemoveFailed     State = "RemoveFailed"
	StatePortBlocked      State = "PortBlocked"
	StateInstalling       State = "Installing"
	StateInstallFailed    State = "InstallFailed"
	StateStarting         State = "Starting"
	StateStartFailed      State = "StartFailed"
	StateStarted          State = "Started"
)

// IsFailure reports whether the state ends a lifecycle unsuccessfully.
func (s State) IsFailure() bool {
	switch s {
	case StateRemoveFailed, StatePortBlocked, StateInstallFailed, StateStartFailed:
		return true
	default:
		return false
	}
}

// IsTerminal reports whether no further transition follows s.
func (s State) IsTerminal() bool {
	switch s {
	case StateRemoveFailed, StatePortBlocked, StateStartFailed, StateStarted:
		return true
	default:
		return false
	}
}
