// Package log provides a simple, leveled logging interface for the Cannoli
// execution engine.
//
// The Logger interface exposes Debug/Info/Warn/Error methods. DefaultLogger
// wraps the standard library's log.Logger; GologLogger wraps
// github.com/kataras/golog for callers who already standardize on it. A
// run context given a logger via graph.WithLogger makes one kind of log
// call: an Error when writing the run's history record fails.
package log
