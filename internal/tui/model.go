// Package tui is a terminal front end for the shelf and the viewer.
package tui

import (
	"context"
	"errors"

	tea "github.com/charmbracelet/bubbletea"

	"picturebook/internal/catalog"
	"picturebook/internal/models"
	"picturebook/internal/shelf"
	"picturebook/internal/storage"
	"picturebook/internal/viewer"
)

type screen int

const (
	screenShelf screen = iota
	screenViewer
)

// autoHideMsg arrives from the viewer's timer goroutine once controls hide
type autoHideMsg struct {
	state viewer.State
}

// catalogMsg carries a catalog change; a closed subscription yields ok=false
type catalogMsg struct {
	event catalog.Event
	ok    bool
}

// notifier forwards messages into the running program. It is shared by every
// copy of the model so viewer callbacks registered earlier still reach it.
type notifier struct {
	send func(tea.Msg)
}

func (n *notifier) notify(msg tea.Msg) {
	if n != nil && n.send != nil {
		n.send(msg)
	}
}

// Model is the bubbletea model for the picture book reader
type Model struct {
	ctx         context.Context
	shelf       *shelf.Shelf
	viewer      *viewer.Viewer
	events      <-chan catalog.Event
	notifier    *notifier
	screen      screen
	cursor      int
	width       int
	height      int
	orientation models.Orientation
	device      models.Device
	status      string
	viewerOpts  []viewer.Option
}

// Option configures a Model
type Option func(*Model)

// WithDevice sets the device class the viewer behaves as
func WithDevice(d models.Device) Option {
	return func(m *Model) { m.device = d }
}

// WithEvents refreshes the shelf whenever the catalog publishes a change
func WithEvents(events <-chan catalog.Event) Option {
	return func(m *Model) { m.events = events }
}

// WithViewerOptions passes extra options to every opened viewer
func WithViewerOptions(opts ...viewer.Option) Option {
	return func(m *Model) { m.viewerOpts = append(m.viewerOpts, opts...) }
}

// New creates a model showing the shelf
func New(ctx context.Context, sh *shelf.Shelf, opts ...Option) Model {
	m := Model{
		ctx:      ctx,
		shelf:    sh,
		notifier: &notifier{},
		screen:   screenShelf,
	}
	for _, opt := range opts {
		opt(&m)
	}
	return m
}

func (m Model) Init() tea.Cmd {
	return waitForEvent(m.events)
}

func waitForEvent(events <-chan catalog.Event) tea.Cmd {
	if events == nil {
		return nil
	}
	return func() tea.Msg {
		ev, ok := <-events
		return catalogMsg{event: ev, ok: ok}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.setOrientation(orientationFor(msg.Width, msg.Height))
		return m, nil

	case autoHideMsg:
		// the viewer already holds the new state; a redraw is all that's needed
		return m, nil

	case catalogMsg:
		if !msg.ok {
			return m, nil
		}
		m.clampCursor()
		return m, waitForEvent(m.events)

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			m.closeViewer()
			return m, tea.Quit
		}
		if m.screen == screenViewer {
			return m.updateViewer(msg)
		}
		return m.updateShelf(msg)
	}
	return m, nil
}

func (m Model) updateShelf(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	items := m.shelf.Items()
	m.status = ""

	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(items)-1 {
			m.cursor++
		}
	case "tab", "v":
		m.shelf.ToggleFilter()
		m.cursor = 0
	case "f":
		if len(items) == 0 {
			break
		}
		book, err := m.shelf.ToggleFavorite(m.ctx, items[m.cursor].Book.ID)
		if err != nil {
			m.status = errorText(err)
			break
		}
		if book.IsFavorite {
			m.status = "★ " + book.Title + " added to favorites"
		} else {
			m.status = "☆ " + book.Title + " removed from favorites"
		}
		m.clampCursor()
	case "enter":
		if len(items) == 0 {
			break
		}
		m.openBook(items[m.cursor].Book.ID)
	}
	return m, nil
}

func (m Model) updateViewer(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	v := m.viewer
	m.status = ""

	switch msg.String() {
	case "esc", "q", "backspace":
		m.closeViewer()
		m.screen = screenShelf
		m.clampCursor()
	case "left", "h":
		v.Prev()
	case "right", "l":
		v.Next()
	case " ", "enter":
		v.Tap()
	case "m":
		v.SetMode(v.State().Mode.Next())
	case "p":
		if !v.TogglePlay() {
			m.status = "Choose an audio mode to play narration"
		}
	case "r":
		if m.orientation == models.Portrait {
			m.setOrientation(models.Landscape)
		} else {
			m.setOrientation(models.Portrait)
		}
	default:
		v.Touch()
	}
	return m, nil
}

func (m *Model) openBook(id string) {
	opts := append([]viewer.Option{}, m.viewerOpts...)
	n := m.notifier
	opts = append(opts,
		viewer.WithOrientation(m.orientation),
		viewer.WithDevice(m.device),
		viewer.WithOnAutoHide(func(s viewer.State) { n.notify(autoHideMsg{state: s}) }),
	)

	v, err := m.shelf.Open(m.ctx, id, opts...)
	if err != nil {
		m.status = errorText(err)
		return
	}
	m.viewer = v
	m.screen = screenViewer
}

func (m *Model) closeViewer() {
	if m.viewer != nil {
		m.viewer.Close()
		m.viewer = nil
	}
}

func (m *Model) setOrientation(o models.Orientation) {
	m.orientation = o
	if m.viewer != nil {
		m.viewer.SetOrientation(o)
	}
}

func (m *Model) clampCursor() {
	n := len(m.shelf.Items())
	if m.cursor >= n {
		m.cursor = n - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

// orientationFor treats a terminal at least twice as wide as it is tall as
// landscape; character cells are roughly twice as tall as they are wide
func orientationFor(width, height int) models.Orientation {
	if height > 0 && width >= 2*height {
		return models.Landscape
	}
	return models.Portrait
}

func errorText(err error) string {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return "That book is no longer on the shelf"
	case storage.IsPersistence(err):
		return "The library could not be saved, please try again"
	default:
		return err.Error()
	}
}
