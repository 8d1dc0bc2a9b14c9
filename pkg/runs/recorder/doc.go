// Package recorder writes run ledger records off the request path.
//
// A Recorder is installed on the bridge with bridge.WithSink. For every
// finished submission it builds a runs.Record on the caller's goroutine,
// masking the contact email and hashing the canonical inputs, then enqueues
// it on a buffered channel drained by one background worker:
//
//	rec := recorder.NewRecorder(store, cfg.Runs.Recorder)
//	defer rec.Close()
//	b := bridge.New(eng, settings, bridge.WithSink(rec))
//
// When the channel stays full for longer than the write timeout the record
// is dropped and logged; Submit is never slowed by the ledger. Close drains
// whatever is queued before returning.
package recorder
