// Package application wires the catalog storage, result cache, solver,
// planner, HTTP handlers and server together from a resolved config.Config,
// keeping the main package focused on CLI parsing and shutdown orchestration.
package application
