// Package driving provides interfaces for primary/inbound adapters
// (CLI, watcher) to invoke core services.
package driving
