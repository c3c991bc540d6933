// Package services defines the [Catalog] interface and implements it for TIDAL.
//
// # Catalog Interface
//
// An import run only needs album search, album track listing and playlist
// mutation, so [Catalog] is limited to those operations. Search results are
// exposed through [models.Release], with each client supplying its own adapter
// over its wire records.
//
// # TIDAL Implementation
//
// [TidalService] talks JSON to a catalog proxy that owns the TIDAL login. When
// a session file is configured, the stored [oauth2.Token] is attached to every
// request through [oauth2.Config.Client], which refreshes it against the
// configured token URL and writes the refreshed token back.
//
// Playlist mutations pass through a [rate.Limiter]. Every call runs under the
// configured per-call timeout.
//
// # Error Handling
//
// Non-2xx responses become errors wrapping [shared.ErrAPIRequest] that include
// the status code and the proxy's "detail" message when present.
//
// # Raw Access
//
// [APIService] issues raw requests against the proxy for the CLI's debugging
// command.
package services
