// Package services defines the [Catalog] interface for remote book catalogs and implements it for Open Library.
//
// # Catalog Interface
//
// A catalog answers one free-text query with an ordered list of [models.Book] values.
// Consumers (the search engine, the HTTP server, the CLI) depend only on the interface.
//
// # Open Library Implementation
//
// [OpenLibraryService] issues GET {base}/search.json?q=<query> and decodes the "docs" array:
//   - title          → Book.Title, empty when absent
//   - author_name[0] → Book.Author, empty when absent
//   - cover_i        → Book.CoverURL via {cover_base}/b/id/{cover_i}-{size}.jpg
//
// Requests are bounded by a per-request timeout and optionally paced by a [rate.Limiter].
//
// # Error Handling
//
// All failures are [*shared.Failure] values:
//   - [shared.NetworkFailure] : transport error, timeout or non-2xx status (status 0 when no response arrived)
//   - [shared.ParseFailure] : malformed JSON or a missing "docs" field
//
// Timeouts additionally match [shared.ErrTimeout] with [errors.Is].
package services
