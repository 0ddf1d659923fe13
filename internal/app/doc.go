// Package app wires anchor together for one bundle.
//
// NewApplication loads anchor.yaml (see internal/config), configures the
// package logger and builds the components in InitializeServices:
//
//   - the catalog of installed products
//   - the settings store
//   - the OS service controller and the lifecycle manager
//   - the housekeeper, the location marker and the environment store
//   - the orchestrator that sequences a startup run
//
// The Application then offers the operations the CLI exposes:
//
//   - Startup archives the previous logs, opens the startup log and runs one
//     reconciliation
//   - Plan reports what a run would change without changing it
//   - Scan lists the files a relocation would rewrite
//   - Teardown removes every service before a restart
//   - Watch reconciles again whenever the configuration changes
//
// Relaunch starts a fresh anchor process; it is used after Teardown when a
// run reports that a restart is required.
package app
