// Package models defines the domain entities of the listx importer.
//
// The package contains two categories of types:
//
// 1. Run-scoped values produced and consumed by the import pipeline
//   - [Candidate] : a (title, artist) pair recovered from document lines
//   - [Release] : adapter over a catalog search record (title, artist text, id)
//   - [ScoredRelease] : a release ranked against one candidate
//   - [RunResult] : the summary of one import run
//
// 2. Persistent entities stored in sqlite
//   - [ImportRun] : a history row for one run, including its unmatched candidates
//   - [ReleaseMatch] : a cached candidate -> release resolution
//
// Persistent entities implement [Model].
package models
