// Package ui implements an interactive terminal interface using bubbletea's Elm architecture.
//
// The TUI has two views:
//  1. [SearchView] : Type a query, watch the spinner, browse title/author rows
//  2. [DetailView] : Inspect a single book and share its cover
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View pattern, receiving messages via the Msg union type.
// Searches resolve through [tasks.Pending] and list changes arrive from a [results.List] subscription,
// both delivered as commands on the bubbletea loop.
//
// Keyboard navigation uses vim-style bindings (j/k, enter, /, esc, s, o, c, q) with contextual help displayed via charmbracelet/bubbles/help.
package ui
