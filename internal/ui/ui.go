package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/desertthunder/ytdeck/internal/models"
	"github.com/desertthunder/ytdeck/internal/shared"
	"github.com/desertthunder/ytdeck/internal/suggest"
	"github.com/desertthunder/ytdeck/internal/tasks"
)

// Focus identifies the panel receiving key presses.
type Focus int

const (
	SearchFocus Focus = iota
	SuggestionsFocus
)

const queuePreview = 10

// Size assumed until the first [tea.WindowSizeMsg] arrives.
const (
	defaultWidth  = 80
	defaultHeight = 24
)

// Model represents the TUI application state.
type Model struct {
	ctx      context.Context
	pipeline *suggest.Pipeline
	player   *tasks.Player
	library  *tasks.Library
	surface  *Surface
	events   <-chan tasks.Event
	target   string

	focus       Focus
	width       int
	height      int
	input       textinput.Model
	suggestions list.Model
	session     models.SearchSession
	state       models.PlaybackState
	status      string
	err         error
	help        help.Model
	keys        keyMap
}

// Option configures a [Model].
type Option func(*Model)

// WithSurface drains playback renders from s.
func WithSurface(s *Surface) Option {
	return func(m *Model) { m.surface = s }
}

// WithEvents drains library events from events.
func WithEvents(events <-chan tasks.Event) Option {
	return func(m *Model) { m.events = events }
}

// WithTargetPlaylist sets the playlist used by the save and load keys.
func WithTargetPlaylist(id string) Option {
	return func(m *Model) { m.target = id }
}

// NewModel creates a new TUI model with the provided dependencies.
func NewModel(ctx context.Context, pipeline *suggest.Pipeline, player *tasks.Player, library *tasks.Library, opts ...Option) *Model {
	input := textinput.New()
	input.Placeholder = "Search for a song"
	input.Prompt = "> "
	input.Focus()

	suggestions := list.New(nil, list.NewDefaultDelegate(), 0, 0)
	suggestions.Title = "Suggestions"
	suggestions.SetShowHelp(false)
	suggestions.SetFilteringEnabled(false)
	suggestions.SetShowStatusBar(false)

	m := &Model{
		ctx:         ctx,
		pipeline:    pipeline,
		player:      player,
		library:     library,
		input:       input,
		suggestions: suggestions,
		help:        help.New(),
		keys:        newKeyMap(),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.resize(defaultWidth, defaultHeight)
	m.state = player.State()
	return m
}

func (m *Model) resize(width, height int) {
	m.width = width
	m.height = height
	m.input.Width = max(width-8, 10)
	m.suggestions.SetSize(max(width/2-4, 20), max(height-10, 5))
}

// Init starts draining the pipeline, surface, and library channels.
func (m *Model) Init() tea.Cmd {
	cmds := []tea.Cmd{textinput.Blink, m.waitForSuggestions(), m.refreshLibrary()}
	if m.surface != nil {
		cmds = append(cmds, m.waitForPlayback())
	}
	if m.events != nil {
		cmds = append(cmds, m.waitForEvents())
	}
	return tea.Batch(cmds...)
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil

	case tea.KeyMsg:
		if key.Matches(msg, m.keys.quit) {
			return m, tea.Quit
		}
		if key.Matches(msg, m.keys.focus) {
			m.toggleFocus()
			return m, nil
		}
		switch m.focus {
		case SearchFocus:
			return m.handleSearchKeys(msg)
		case SuggestionsFocus:
			return m.handleSuggestionKeys(msg)
		}

	case Msg:
		return m.handleMsg(msg)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) handleMsg(msg Msg) (tea.Model, tea.Cmd) {
	switch msg.kind {
	case MsgSuggestions:
		u := msg.data.(suggest.Update)
		if u.State != models.SessionStale {
			m.applySession(u.Session)
		}
		return m, m.waitForSuggestions()

	case MsgPlayback:
		p := msg.data.(playback)
		m.state = m.player.State()
		m.state.Current = p.current
		m.state.IsPlaying = p.playing
		return m, m.waitForPlayback()

	case MsgLibraryEvent:
		e := msg.data.(tasks.Event)
		m.status = e.Message
		m.err = nil
		if e.Kind == tasks.MutationFailed {
			m.err = errors.New(e.Message)
		}
		return m, m.waitForEvents()

	case MsgActionDone:
		a := msg.data.(action)
		m.state = m.player.State()
		m.status = a.status
		m.err = a.err
		return m, nil
	}
	return m, nil
}

func (m *Model) handleSearchKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.search):
		m.pipeline.Voice(m.input.Value())
		return m, nil
	case key.Matches(msg, m.keys.back):
		m.pipeline.Close()
		return m, nil
	}

	before := m.input.Value()
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if after := m.input.Value(); after != before {
		m.pipeline.Input(after)
	}
	return m, cmd
}

func (m *Model) handleSuggestionKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case msg.String() == "q":
		return m, tea.Quit
	case key.Matches(msg, m.keys.back):
		m.toggleFocus()
		return m, nil
	case key.Matches(msg, m.keys.play):
		if t, ok := m.selected(); ok {
			m.done(fmt.Sprintf("Playing %s", t.Title), m.player.PlayNow(t))
		}
		return m, nil
	case key.Matches(msg, m.keys.enqueue):
		if t, ok := m.selected(); ok {
			m.done(fmt.Sprintf("Queued %s", t.Title), m.player.Enqueue(t))
		}
		return m, nil
	case key.Matches(msg, m.keys.save):
		if t, ok := m.selected(); ok {
			return m, m.saveTrack(t)
		}
		return m, nil
	case key.Matches(msg, m.keys.load):
		return m, m.loadPlaylist()
	case key.Matches(msg, m.keys.toggle):
		m.player.TogglePlayPause()
		m.done("", nil)
		return m, nil
	case key.Matches(msg, m.keys.skip):
		m.player.Skip()
		m.done("", nil)
		return m, nil
	case key.Matches(msg, m.keys.previous):
		m.done("", m.player.Previous())
		return m, nil
	case key.Matches(msg, m.keys.drop):
		m.done("Dropped next track", m.player.Remove(0))
		return m, nil
	case key.Matches(msg, m.keys.clear):
		m.player.Clear()
		m.done("Queue cleared", nil)
		return m, nil
	}

	var cmd tea.Cmd
	m.suggestions, cmd = m.suggestions.Update(msg)
	return m, cmd
}

func (m *Model) toggleFocus() {
	if m.focus == SearchFocus {
		m.focus = SuggestionsFocus
		m.input.Blur()
		return
	}
	m.focus = SearchFocus
	m.input.Focus()
}

func (m *Model) applySession(s models.SearchSession) {
	m.session = s
	if !s.Visible {
		m.suggestions.SetItems(nil)
		return
	}
	if s.State == models.SessionResolved || s.State == models.SessionFailed {
		m.suggestions.SetItems(trackItems(s.Suggestions))
	}
}

func (m *Model) selected() (models.Track, bool) {
	item, ok := m.suggestions.SelectedItem().(trackItem)
	if !ok {
		return models.Track{}, false
	}
	return item.track, true
}

// done records the outcome of a synchronous action.
func (m *Model) done(status string, err error) {
	m.state = m.player.State()
	m.status = status
	m.err = err
}

func (m *Model) saveTrack(t models.Track) tea.Cmd {
	target := m.target
	return func() tea.Msg {
		if target == "" {
			return actionDoneMsg("", fmt.Errorf("%w: no target playlist (use --playlist)", shared.ErrMissingArgument))
		}
		added, err := m.library.AddTrack(m.ctx, target, t)
		if err != nil {
			return actionDoneMsg("", err)
		}
		if !added {
			return actionDoneMsg(fmt.Sprintf("%s is already in the playlist", t.Title), nil)
		}
		return actionDoneMsg(fmt.Sprintf("Saved %s", t.Title), nil)
	}
}

func (m *Model) loadPlaylist() tea.Cmd {
	target := m.target
	return func() tea.Msg {
		if target == "" {
			return actionDoneMsg("", fmt.Errorf("%w: no target playlist (use --playlist)", shared.ErrMissingArgument))
		}
		if err := m.player.PlayPlaylist(m.ctx, target); err != nil {
			return actionDoneMsg("", err)
		}
		return actionDoneMsg("Playing playlist", nil)
	}
}

func (m *Model) refreshLibrary() tea.Cmd {
	return func() tea.Msg {
		if err := m.library.Refresh(m.ctx); err != nil {
			return actionDoneMsg("", err)
		}
		return actionDoneMsg(fmt.Sprintf("%d playlists", len(m.library.Playlists())), nil)
	}
}

func (m *Model) waitForSuggestions() tea.Cmd {
	updates := m.pipeline.Updates()
	return func() tea.Msg {
		u, ok := <-updates
		if !ok {
			return nil
		}
		return suggestionsMsg(u)
	}
}

func (m *Model) waitForPlayback() tea.Cmd {
	if m.surface == nil {
		return nil
	}
	renders := m.surface.renders
	return func() tea.Msg {
		return playbackMsg(<-renders)
	}
}

func (m *Model) waitForEvents() tea.Cmd {
	if m.events == nil {
		return nil
	}
	events := m.events
	return func() tea.Msg {
		e, ok := <-events
		if !ok {
			return nil
		}
		return libraryEventMsg(e)
	}
}

// View renders the search box above the suggestion and queue panels.
func (m *Model) View() string {
	title := styles.title.Render("ytdeck")

	search := m.input.View()
	if m.session.State == models.SessionFetching || m.session.State == models.SessionDebouncing {
		search += styles.help.Render("  searching...")
	}

	left, right := styles.panel, styles.panel
	if m.focus == SuggestionsFocus {
		left = styles.focus
	}
	panels := lipgloss.JoinHorizontal(lipgloss.Top,
		left.Render(m.renderSuggestions()),
		right.Render(m.renderQueue()),
	)

	return fmt.Sprintf("%s\n%s\n\n%s\n%s\n%s", title, search, panels, m.renderStatus(), m.renderHelp())
}

func (m *Model) renderSuggestions() string {
	if !m.session.Visible {
		return styles.help.Render("Type to search")
	}
	if m.session.State == models.SessionFailed {
		return styles.warn.Render("No suggestions")
	}
	return m.suggestions.View()
}

func (m *Model) renderQueue() string {
	var b strings.Builder

	b.WriteString(styles.ok.Render("Now Playing"))
	b.WriteString("\n")
	switch {
	case m.state.Current == nil:
		b.WriteString(styles.help.Render("nothing"))
	case m.state.IsPlaying:
		fmt.Fprintf(&b, "▶ %s", m.state.Current.Title)
	default:
		fmt.Fprintf(&b, "⏸ %s", m.state.Current.Title)
	}

	fmt.Fprintf(&b, "\n\n%s\n", styles.ok.Render(fmt.Sprintf("Up Next (%d)", len(m.state.Queue))))
	for i, t := range m.state.Queue {
		if i == queuePreview {
			fmt.Fprintf(&b, "… %d more\n", len(m.state.Queue)-queuePreview)
			break
		}
		fmt.Fprintf(&b, "%d. %s\n", i+1, t.Title)
	}
	return b.String()
}

func (m *Model) renderStatus() string {
	if m.err != nil {
		return styles.err.Render(fmt.Sprintf("Error: %v", m.err))
	}
	return styles.help.Render(m.status)
}

func (m *Model) renderHelp() string {
	var helpKeys []key.Binding
	if m.focus == SearchFocus {
		helpKeys = []key.Binding{m.keys.search, m.keys.back, m.keys.focus, m.keys.quit}
	} else {
		helpKeys = []key.Binding{m.keys.play, m.keys.enqueue, m.keys.save, m.keys.load, m.keys.toggle, m.keys.skip, m.keys.previous, m.keys.back}
	}
	return m.help.ShortHelpView(helpKeys)
}

// Session returns the last suggestion session the model rendered.
func (m *Model) Session() models.SearchSession {
	return m.session
}
