// Package server exposes the import engine over HTTP and handles the catalog
// OAuth callback for `listx catalog login`.
//
// # Routing
//
// [BasicRouter] implements [Router] with [http.ServeMux] method patterns.
// [Middleware] added with Use wraps every route registered after it, first added
// outermost. [NewAPIRouter] assembles the service used by `listx serve`:
//
//	GET  /health             liveness
//	POST /api/imports        run an import (multipart "document" field or raw body)
//	GET  /api/imports        import history, newest first (?limit=N)
//	GET  /api/imports/{id}   one run with its unmatched candidates
//
// Errors are returned as {"detail": "..."}. A document with nothing to import
// answers 422, a catalog that refuses the playlist answers 502, and a run cut
// short by the client disconnecting is recorded as canceled.
//
// # OAuth Callback
//
// [OAuthHandler] completes an authorization code flow with PKCE. It validates
// state, exchanges the code and delivers exactly one [OAuthResult] on its
// channel; later callbacks are rejected.
//
// [Server] runs any of these handlers until its context is canceled and then
// shuts down gracefully.
package server
