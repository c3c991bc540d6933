// Package tasks runs document imports with real-time progress reporting.
//
// # Pipeline
//
// [ImportEngine.Run] takes a [document.Source] through five stages:
//
//  1. Extract and normalize lines ([document.Normalize])
//  2. Segment lines into candidates ([segment.Segment])
//  3. Resolve each candidate against the catalog ([Resolver])
//  4. Collect the matched release's tracks ([Collector])
//  5. Append tracks to the run's playlist in batches ([Assembler])
//
// Candidates are processed one at a time in document order. Only the search
// queries of a single candidate run concurrently.
//
// # Failure Tolerance
//
// Search, track and batch failures never escape a run: they turn into
// unmatched candidates or failed batches on the [models.RunResult]. Only an
// empty document and playlist creation failure end a run early.
//
// Each batch is offered to an ordered list of [BatchStrategy] values; the
// first that accepts it counts its tracks as added.
//
// # Progress Reporting
//
// Informational updates use non-blocking sends, so a slow reader only misses
// messages. Cadence updates ([ReportProgress], every 5 processed candidates and
// every 10 unmatched) wait for the reader or for the run's context to end.
//
// # Persistence
//
// The optional [MatchCache] and [RunRecorder] (both implemented in
// repositories) store accepted resolutions and run history. Their errors are
// logged and ignored.
package tasks
