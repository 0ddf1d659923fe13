package envreg

// Autostart manages the entry that launches the bundle when the user logs
// in.
type Autostart interface {
	// Enable registers command under name, replacing any previous entry.
	Enable(name, command string) error
	// Disable removes the entry. Removing a missing entry is not an error.
	Disable(name string) error
	// RemoveLegacy deletes entries left by older releases in machine-wide
	// locations.
	RemoveLegacy(name string) error
}
