// Package repositories implements SQLite persistence for import history and the match cache.
//
// Key Implementations:
//   - [RunRepository] : Import run history with unmatched candidates and soft deletes
//   - [MatchRepository] : Candidate to release resolutions reused across runs
//
// Runs carry a sequence number for stable, human-readable ordering independent of
// their UUIDs. The [NextSequence] function atomically increments per-table
// sequence counters in dedicated sequence tables.
package repositories
