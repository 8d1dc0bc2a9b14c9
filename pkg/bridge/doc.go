// Package bridge turns a quote request into a synchronous engine result.
//
// The engine is a shared spreadsheet-like surface: one input slot, one
// output table, recomputed some time after each write and never tied to a
// particular caller. A submission therefore runs in five steps:
//
//  1. Normalize the request into a normalize.CanonicalInput. Invalid input
//     fails here and the engine is never touched.
//  2. Mint a correlation token.
//  3. Take the Gate, write the inputs, then write the token on its own.
//  4. Poll the output table until the token comes back next to a decision
//     (or a configured completion flag), or the deadline passes.
//  5. Release the Gate and decode the snapshot into a Result.
//
// The Gate is held from the first write until the poll ends, so two
// submissions never interleave on the input slot. Reads that carry another
// token, or none, are stale and skipped. No engine state is cached between
// submissions and nothing is retried: every failure is returned to the
// caller as one of ErrBusy, *TransportError, *ContractError, *TimeoutError
// or *CanceledError, and the only safe retry is a new Submit.
//
// Basic usage:
//
//	b := bridge.New(eng, bridge.SettingsFromConfig(cfg),
//		bridge.WithObserver(collector),
//		bridge.WithSink(recorder),
//	)
//	res, err := b.Submit(ctx, normalize.Request{
//		"jobType": "renovation", "region": "urban",
//		"hours": 160, "hourlyRate": 450, "materialCost": 20000,
//	})
package bridge
