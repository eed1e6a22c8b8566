package ui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/ytdeck/internal/models"
	"github.com/desertthunder/ytdeck/internal/suggest"
	"github.com/desertthunder/ytdeck/internal/tasks"
)

// MsgKind enumerates all message types in the application.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
type Msg struct {
	kind MsgKind
	data any
}

var (
	_ tea.Msg             = Msg{}
	_ tasks.PlayerSurface = (*Surface)(nil)
)

const (
	MsgSuggestions MsgKind = iota
	MsgPlayback
	MsgLibraryEvent
	MsgActionDone
)

type playback struct {
	current *models.Track
	playing bool
}

type action struct {
	status string
	err    error
}

// suggestionsMsg is the constructor for [MsgSuggestions]
func suggestionsMsg(u suggest.Update) Msg {
	return Msg{kind: MsgSuggestions, data: u}
}

// playbackMsg is the constructor for [MsgPlayback]
func playbackMsg(p playback) Msg {
	return Msg{kind: MsgPlayback, data: p}
}

// libraryEventMsg is the constructor for [MsgLibraryEvent]
func libraryEventMsg(e tasks.Event) Msg {
	return Msg{kind: MsgLibraryEvent, data: e}
}

// actionDoneMsg is the constructor for [MsgActionDone]
func actionDoneMsg(status string, err error) Msg {
	return Msg{kind: MsgActionDone, data: action{status: status, err: err}}
}

// Surface is a [tasks.PlayerSurface] that forwards renders to the TUI.
type Surface struct {
	renders chan playback
}

func NewSurface() *Surface {
	return &Surface{renders: make(chan playback, 16)}
}

// Render queues a playback snapshot. Snapshots are dropped while the TUI is behind.
func (s *Surface) Render(current *models.Track, playing bool) {
	var snap playback
	if current != nil {
		t := *current
		snap.current = &t
	}
	snap.playing = playing

	select {
	case s.renders <- snap:
	default:
	}
}
