// Package runs is the submission ledger: one Record per call to
// bridge.Submit, whatever its outcome.
//
// The ledger answers the questions the synchronous API cannot: which token
// a caller was given, how long it queued for the gate, how many stale reads
// it skipped and what the output table looked like when it timed out.
//
// # Subpackages
//
//   - recorder: an asynchronous bridge.Sink that turns outcomes into
//     records and writes them off the request path
//   - storage: memory and SQLite backends implementing Storage
//   - query: validation and defaults for Query
//   - export: JSON and CSV exporters
//   - retention: age and count based pruning on a cron schedule
//
// # Privacy
//
// Records never hold a raw contact email; the recorder masks it before the
// record leaves the submitting goroutine. Inputs are stored by engine key,
// exactly as they were written to the engine.
package runs
