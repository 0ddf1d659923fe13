// Package services reconciles the bundle's OS services with the current
// configuration.
//
// Each ManagedService is walked through a small state machine by Manager:
// its registration is checked for drift against the command line it should
// have, drifted registrations are removed, the service port is probed, and
// the service is installed and started. Every step is recorded in an
// Outcome; nothing here returns early with an error for a single service.
//
// A drifted registration that cannot be removed sets
// Outcome.RestartRequired. The caller is expected to tear down all services
// and relaunch so the registration can be recreated.
//
// The OS side is abstracted by Controller (see internal/svcmgr). PortProbe
// and SyntaxChecker are small collaborators so tests can replace them.
package services
