// Package orchestrator runs one startup reconciliation of the bundle.
//
// A run is a fixed sequence of steps. Every step reports progress and
// appends its failures to a single aggregate error text:
//
//  1. **Housekeeping**: archive logs, purge the temp directory, terminate
//     processes left over from a crashed session.
//  2. **Prepare**: refresh the hostname and browser settings, keep the
//     launch-at-startup entry in line with the settings and log the catalog
//     inventory.
//  3. **Relocation**: compare the bundle root with the location marker. When
//     the bundle moved, scan the catalog's rules for candidate files and
//     rewrite the old root to the new one.
//  4. **Registry**: reconcile the install path, binaries path and system
//     path values. Any changed value means the environment of this process
//     is stale and a restart is required.
//  5. **Services**: unless a restart is already required, drive every
//     managed service through its lifecycle. Only a failed removal of a
//     drifted service forces a restart.
//  6. **Certificate**: create the local root certificate when missing.
//  7. **Repository index**: after a clean run, refresh auxiliary indexes.
//  8. **Marker**: record the bundle root unless the relocation failed.
//
// The orchestrator never exits the process. RunResult.RestartRequired tells
// the caller to remove every service and relaunch.
//
// # Usage
//
//	o := orchestrator.New(orchestrator.Config{
//		Root:     root,
//		Catalog:  cat,
//		Scanner:  pathscan.NewScanner(4),
//		Rewriter: pathrewrite.New(4),
//		Registry: envreg.NewReconciler(store, names, true),
//		Services: services.NewManager(controller, probe, cat, 1),
//		Marker:   location.NewMarker(markerPath),
//	})
//	result := o.Run(ctx)
//
// Every collaborator is injected; nothing is looked up from package state
// apart from the ambient logger.
package orchestrator
