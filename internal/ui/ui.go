package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/booksearch/internal/detail"
	"github.com/desertthunder/booksearch/internal/models"
	"github.com/desertthunder/booksearch/internal/results"
	"github.com/desertthunder/booksearch/internal/shared"
	"github.com/desertthunder/booksearch/internal/tasks"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	SearchView ViewState = iota
	DetailView
)

// share follow-ups run after the artifact is written
const (
	followNone = ""
	followOpen = "open"
	followCopy = "copy"
)

// Model represents the TUI application state.
type Model struct {
	ctx       context.Context
	view      ViewState
	engine    *tasks.SearchEngine
	presenter *detail.Presenter
	width     int
	height    int

	input   textinput.Model
	spinner spinner.Model
	books   list.Model
	version uint64
	query   string
	pending *tasks.Pending
	notice  string
	err     error

	selected models.Book
	share    *detail.ShareAction
	sharing  bool
	shareMsg string
	shareErr error

	changes     <-chan results.Change
	unsubscribe func()

	help help.Model
	keys keyMap
}

// NewModel creates a new TUI model with the provided dependencies.
func NewModel(ctx context.Context, engine *tasks.SearchEngine, presenter *detail.Presenter) *Model {
	input := textinput.New()
	input.Placeholder = "Search Open Library"
	input.Prompt = "› "
	input.CharLimit = 200
	input.Focus()

	books := list.New(nil, list.NewDefaultDelegate(), 0, 0)
	books.Title = "Results"
	books.SetShowHelp(false)
	books.SetFilteringEnabled(false)
	books.DisableQuitKeybindings()

	changes, unsubscribe := engine.List().Subscribe()

	return &Model{
		ctx:         ctx,
		view:        SearchView,
		engine:      engine,
		presenter:   presenter,
		input:       input,
		spinner:     spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(styles.accent)),
		books:       books,
		changes:     changes,
		unsubscribe: unsubscribe,
		help:        help.New(),
		keys:        newKeyMap(),
	}
}

// Close stops listening for list changes.
func (m *Model) Close() {
	if m.unsubscribe != nil {
		m.unsubscribe()
	}
}

// Init starts the cursor blink and the list subscription.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.waitForChange())
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.input.Width = max(msg.Width-8, 10)
		m.books.SetSize(msg.Width-4, max(msg.Height-10, 3))
		return m, nil

	case tea.KeyMsg:
		switch m.view {
		case SearchView:
			return m.handleSearchKeys(msg)
		case DetailView:
			return m.handleDetailKeys(msg)
		}

	case spinner.TickMsg:
		if !m.engine.Busy() {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case Msg:
		switch msg.kind {
		case MsgSearchResolved:
			return m.handleSearchResolved(msg.data.(tasks.Outcome))
		case MsgListChanged:
			data := msg.data.(struct {
				change results.Change
				ok     bool
			})
			if !data.ok {
				return m, nil
			}
			m.syncList()
			return m, m.waitForChange()
		case MsgShareReady:
			data := msg.data.(struct {
				action   *detail.ShareAction
				followUp string
				err      error
			})
			m.handleShareReady(data.action, data.followUp, data.err)
			return m, nil
		}
	}

	if m.view == SearchView && m.input.Focused() {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
	return m, nil
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	switch m.view {
	case DetailView:
		return styles.frame.Render(m.renderDetail())
	default:
		return styles.frame.Render(m.renderSearch())
	}
}

func (m *Model) handleSearchKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.input.Focused() {
		switch msg.Type {
		case tea.KeyCtrlC:
			return m, tea.Quit
		case tea.KeyEnter:
			return m, m.submit()
		case tea.KeyEsc:
			if len(m.books.Items()) > 0 {
				m.input.Blur()
			}
			return m, nil
		}

		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}

	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.search), key.Matches(msg, m.keys.back):
		return m, m.input.Focus()
	case key.Matches(msg, m.keys.enter):
		if item, ok := m.books.SelectedItem().(bookItem); ok {
			m.openDetail(item.book)
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.books, cmd = m.books.Update(msg)
	return m, cmd
}

func (m *Model) handleDetailKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.back):
		m.view = SearchView
		m.resetShare()
		return m, nil
	case key.Matches(msg, m.keys.share):
		return m, m.startShare(followNone)
	case key.Matches(msg, m.keys.open):
		return m, m.startShare(followOpen)
	case key.Matches(msg, m.keys.copy):
		return m, m.startShare(followCopy)
	}
	return m, nil
}

func (m *Model) openDetail(book models.Book) {
	m.selected = book
	m.view = DetailView
	m.resetShare()
}

func (m *Model) resetShare() {
	m.share = nil
	m.sharing = false
	m.shareMsg = ""
	m.shareErr = nil
}

// submit hands the current input to the engine. Empty queries are ignored.
func (m *Model) submit() tea.Cmd {
	query := strings.TrimSpace(m.input.Value())
	if query == "" {
		return nil
	}

	m.input.Blur()
	m.query = query
	m.notice = ""
	m.err = nil
	m.pending = m.engine.Submit(m.ctx, query)

	return tea.Batch(m.spinner.Tick, m.awaitSearch(m.pending))
}

func (m *Model) handleSearchResolved(out tasks.Outcome) (tea.Model, tea.Cmd) {
	if out.Superseded {
		return m, nil
	}

	m.syncList()
	if out.Err != nil {
		m.err = out.Err
		if last := m.engine.LastError(); last != nil {
			m.err = last
		}
		return m, nil
	}

	m.err = nil
	m.notice = fmt.Sprintf("Found %d for %q", len(out.Books), out.Query)
	return m, nil
}

func (m *Model) handleShareReady(action *detail.ShareAction, followUp string, err error) {
	m.sharing = false
	if action != nil {
		m.share = action
	}
	if err != nil {
		m.shareErr = err
		m.shareMsg = ""
		return
	}

	m.shareErr = nil
	switch followUp {
	case followOpen:
		m.shareMsg = "Opened " + action.Path
	case followCopy:
		m.shareMsg = "Copied " + action.URI
	default:
		m.shareMsg = "Saved cover to " + action.Path
	}
}

// syncList mirrors the shared list into the bubbles list when its version moved.
func (m *Model) syncList() {
	src := m.engine.List()
	version := src.Version()
	if version == m.version {
		return
	}
	m.version = version
	m.books.SetItems(toItems(src.Current()))
	m.books.Select(0)
}

func (m *Model) awaitSearch(p *tasks.Pending) tea.Cmd {
	return func() tea.Msg {
		out, err := p.Wait(m.ctx)
		if err != nil && out.Err == nil {
			out.Err = err
		}
		return searchResolvedMsg(out)
	}
}

func (m *Model) waitForChange() tea.Cmd {
	changes := m.changes
	return func() tea.Msg {
		change, ok := <-changes
		return listChangedMsg(change, ok)
	}
}

func (m *Model) startShare(followUp string) tea.Cmd {
	if m.sharing {
		return nil
	}
	m.sharing = true
	m.shareErr = nil
	m.shareMsg = ""

	book := m.selected
	existing := m.share
	return func() tea.Msg {
		action := existing
		if action == nil {
			var err error
			action, err = m.presenter.PrepareShare(m.ctx, book)
			if err != nil {
				return shareReadyMsg(nil, followUp, err)
			}
		}

		var err error
		switch followUp {
		case followOpen:
			err = action.Open()
		case followCopy:
			err = action.Copy()
		}
		return shareReadyMsg(action, followUp, err)
	}
}

func (m *Model) renderSearch() string {
	var b strings.Builder
	b.WriteString(styles.title.Render("Open Library Search"))
	b.WriteString("\n")
	b.WriteString(m.input.View())
	b.WriteString("\n\n")

	if len(m.books.Items()) > 0 {
		b.WriteString(m.books.View())
		b.WriteString("\n")
	} else if m.version > 0 {
		b.WriteString(styles.help.Render("No matches."))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.statusLine())
	b.WriteString("\n")

	var helpKeys []key.Binding
	if m.input.Focused() {
		helpKeys = []key.Binding{
			key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "search")),
			m.keys.back,
		}
	} else {
		helpKeys = []key.Binding{m.keys.up, m.keys.down, m.keys.enter, m.keys.search, m.keys.quit}
	}
	b.WriteString(m.help.ShortHelpView(helpKeys))
	return b.String()
}

func (m *Model) statusLine() string {
	switch {
	case m.engine.Busy():
		return fmt.Sprintf("%s Searching for %q...", m.spinner.View(), m.engine.LastQuery())
	case m.err != nil:
		return styles.err.Render("Error: " + describe(m.err))
	case m.notice != "":
		return styles.ok.Render(m.notice)
	default:
		return ""
	}
}

func (m *Model) renderDetail() string {
	var b strings.Builder
	b.WriteString(m.presenter.Render(m.selected, m.width-4))
	b.WriteString("\n\n")

	switch {
	case m.sharing:
		b.WriteString(styles.warn.Render("Preparing share..."))
	case m.shareErr != nil:
		b.WriteString(styles.err.Render(describe(m.shareErr)))
	case m.shareMsg != "":
		b.WriteString(styles.ok.Render(m.shareMsg))
	}
	b.WriteString("\n")

	helpKeys := []key.Binding{m.keys.back, m.keys.share, m.keys.open, m.keys.copy, m.keys.quit}
	b.WriteString(m.help.ShortHelpView(helpKeys))
	return b.String()
}

// describe turns engine and share errors into a status line.
func describe(err error) string {
	switch {
	case errors.Is(err, shared.ErrNoCover):
		return "This book has no cover to share"
	case errors.Is(err, shared.ErrTimeout):
		return "The search timed out"
	}
	if f, ok := shared.AsFailure(err); ok && f.StatusCode > 0 {
		return fmt.Sprintf("%s (HTTP %d)", f.Message, f.StatusCode)
	}
	return err.Error()
}
