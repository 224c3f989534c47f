// Package tasks orchestrates catalog searches and applies their results to a [results.List].
//
// # Search Engine
//
// [SearchEngine] is a two-state machine:
//
//	Idle --Submit--> Searching --success--> Idle (list replaced)
//	                           --failure--> Idle (list untouched, error recorded)
//
// The busy indicator is true exactly while the engine is Searching.
//
// [SearchEngine.Submit] returns immediately with a [Pending] handle; the catalog call runs on its own goroutine
// with a bounded timeout. Each handle resolves exactly once through [Pending.Done] / [Pending.Wait].
//
// # Superseded Requests
//
// Submitting while a search is in flight cancels the in-flight request. Whatever the superseded request later
// resolves with is discarded: it never touches the list or the busy indicator, and its [Outcome] carries
// Superseded = true and [shared.ErrSuperseded]. The latest submission always decides the final state.
//
// # Failures
//
// Failures never propagate into the rendering layer's control flow. They are logged, kept as
// [SearchEngine.LastError], counted in metrics and handed to the optional [Recorder].
//
// # Status Updates
//
// An optional channel receives a [StatusUpdate] on every transition.
// Updates use select with default to prevent blocking.
package tasks
