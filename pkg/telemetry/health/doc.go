// Package health provides the liveness and readiness checks.
//
// /health only proves the process is serving. /ready runs the registered
// checks; the server registers an "engine" check that performs a single
// output read, so a revoked spreadsheet credential or a missing SQLite file
// makes the instance unready without any write to the shared input slot.
package health
