// Package results holds the list of books currently shown by a rendering surface.
//
// [List] supports a single mutation, [List.ReplaceAll], which discards the previous contents and installs a new slice.
// Readers always observe either the old or the new slice. Each replacement bumps a version counter and signals every
// subscriber once; notifications coalesce, so a slow subscriber sees "something changed" rather than a backlog.
package results
