// Package server provides HTTP routing, middleware and the JSON API over the search engine.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first), following the standard Go pattern.
//
// The [BasicRouter] implementation uses [http.ServeMux] internally with method filtering.
//
// # API
//
// [APIHandler] shares one [tasks.SearchEngine] (and its result list) with every client:
//
//	GET /api/search?q=<query>  submit and wait; 400 without q, 502 on catalog failure, 409 when superseded
//	GET /api/books             current result list
//	GET /api/books/{index}     one book by position
//	GET /api/status            engine state, busy flag, list version and last error
//	GET /healthz               liveness
//	GET /metrics               prometheus exposition
//
// Errors are JSON objects of the form {"error": ..., "kind": ..., "status": ...}.
//
// # Middleware
//
// [RequestLogger] logs each request with charmbracelet/log, [Instrument] records request counts and durations
// and [Recoverer] turns handler panics into 500 responses.
package server
