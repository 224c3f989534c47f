// Package models defines the domain values and persistence interfaces for booksearch.
//
// The package contains two categories of types:
//
// 1. Value types decoded from the catalog
//   - [Book] : one catalog entry (title, author, cover), copied by value between components
//
// 2. Persistent entities with lifecycle management
//   - [SearchRecord] : one search attempt and how it resolved
//
// Persistent entities implement the [Model] interface providing ID, timestamps and validation.
// The [Repository] interface defines standard CRUD operations for database access.
package models
