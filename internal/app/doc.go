// Package app composes and runs the login service process boundary.
//
// It wires the SQLite store, provider adapters, and session carriers into the
// login orchestrator so identity decisions are made from one source of truth.
package app
