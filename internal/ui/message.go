package ui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/booksearch/internal/detail"
	"github.com/desertthunder/booksearch/internal/results"
	"github.com/desertthunder/booksearch/internal/tasks"
)

// MsgKind enumerates all message types in the application.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
type Msg struct {
	kind MsgKind
	data any
}

var (
	_ tea.Msg = Msg{}
)

const (
	MsgSearchResolved MsgKind = iota
	MsgListChanged
	MsgShareReady
)

// searchResolvedMsg is the constructor for [MsgSearchResolved]
func searchResolvedMsg(out tasks.Outcome) Msg {
	return Msg{kind: MsgSearchResolved, data: out}
}

// listChangedMsg is the constructor for [MsgListChanged]
func listChangedMsg(change results.Change, ok bool) Msg {
	return Msg{
		kind: MsgListChanged,
		data: struct {
			change results.Change
			ok     bool
		}{change, ok},
	}
}

// shareReadyMsg is the constructor for [MsgShareReady]
func shareReadyMsg(action *detail.ShareAction, followUp string, err error) Msg {
	return Msg{
		kind: MsgShareReady,
		data: struct {
			action   *detail.ShareAction
			followUp string
			err      error
		}{action, followUp, err},
	}
}
