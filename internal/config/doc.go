// Package config loads and validates anchor.yaml and provides the bundle's
// key/value settings store.
//
// # Configuration File
//
// anchor.yaml lives at the bundle root. Loading starts from GetDefaultConfig
// and overlays the file, so a partial file only overrides what it names.
// Lists such as products replace the default list entirely.
//
//	bundle:
//	  maxLogsArchives: 10
//	registry:
//	  scope: user
//	lifecycle:
//	  workers: 2
//	  startTimeout: 45s
//	products:
//	  - name: apache
//	    kind: service
//	    enabled: true
//	    dir: bin/apache
//	    executable: bin/httpd.exe
//	    service:
//	      name: anchorapache
//	      args: -k runservice
//	      port: 8080
//	      syntaxCheck: -t
//
// Relative paths are resolved against the bundle root, which defaults to the
// directory holding anchor.yaml.
//
// # Validation
//
// LoadConfig runs Validate and returns a ConfigurationErrorCollection listing
// every problem found. Use Summary for user-facing output.
//
// # Settings Store
//
// Store persists runtime settings such as the hostname, the preferred
// browser and the launch-at-startup flag in a flat YAML mapping.
package config
