// Package internal contains the implementation packages for minplay.
//
// # Package Organization
//
// The core, which never touches files, flags or the network:
//
//   - size: byte sizes of texts and their display form
//   - options: the editable JSON options document
//   - engine: the minifier interface, the esbuild adapter and a worker
//   - debounce: a generic debouncer that runs one request at a time
//   - pipeline: the session controller that ties the above together
//
// The outer surfaces built around it:
//
//   - server: HTTP API, playground page and metrics endpoint
//   - websocket: live state push to browsers
//   - watcher: file watching for the watch command
//   - config: Viper-backed settings
//   - logging, errors, monitoring, version: shared infrastructure
//
// # Inter-Package Communication
//
// Edits reach a pipeline.Controller from the server, a websocket client or
// the watcher. The controller updates its state right away, hands a copy of
// the source and options to the debouncer, and reconciles the engine's
// answer when it settles. Observers registered with Subscribe see every
// change; the server forwards them to websocket clients and the watcher
// writes settled results to disk.
//
// # Testing Strategy
//
// Timing-sensitive packages take a debounce.Scheduler so tests can advance
// time by hand. Property tests run with the property build tag.
package internal
