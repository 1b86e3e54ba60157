// Package viewer holds the state of one open picture book: the current page,
// the reading mode, and whether the control overlay is showing.
//
// Visible controls hide themselves after a period without interaction. Any
// interaction restarts that period; hiding the controls for another reason
// cancels it, and showing them again starts it over.
package viewer

import (
	"context"
	"fmt"
	"sync"
	"time"

	"picturebook/internal/models"
)

// ReadRecorder records that a book was opened
type ReadRecorder interface {
	IncrementReadCount(ctx context.Context, id string) (models.Book, error)
}

// State is a snapshot of a viewer
type State struct {
	Book            models.Book
	Page            models.Page
	CurrentPage     int
	TotalPages      int
	Mode            models.ReadingMode
	ControlsVisible bool
	Playing         bool
	Orientation     models.Orientation
	Device          models.Device
	Layout          models.Layout
	CanPrev         bool
	CanNext         bool
	Closed          bool
}

// Indicator returns the "current / total" page label
func (s State) Indicator() string {
	return fmt.Sprintf("%d / %d", s.CurrentPage+1, s.TotalPages)
}

// Viewer is an open book. It is safe for concurrent use; the hide timer
// fires on its own goroutine.
type Viewer struct {
	mu sync.Mutex

	book            models.Book
	pages           []models.Page
	current         int
	mode            models.ReadingMode
	controlsVisible bool
	playing         bool
	orientation     models.Orientation
	device          models.Device
	closed          bool

	clock      Clock
	hideDelay  time.Duration
	timer      Timer
	timerGen   uint64
	onAutoHide func(State)

	pageCount int
}

// Option configures a Viewer
type Option func(*Viewer)

// WithClock replaces the timer source
func WithClock(c Clock) Option {
	return func(v *Viewer) { v.clock = c }
}

// WithHideDelay sets the inactivity period; zero or less disables auto-hide
func WithHideDelay(d time.Duration) Option {
	return func(v *Viewer) { v.hideDelay = d }
}

// WithOrientation sets the initial orientation
func WithOrientation(o models.Orientation) Option {
	return func(v *Viewer) { v.orientation = o }
}

// WithDevice sets the device class
func WithDevice(d models.Device) Option {
	return func(v *Viewer) { v.device = d }
}

// WithPageCount sets the number of pages
func WithPageCount(n int) Option {
	return func(v *Viewer) { v.pageCount = n }
}

// WithMode sets the initial reading mode
func WithMode(m models.ReadingMode) Option {
	return func(v *Viewer) { v.mode = m }
}

// WithOnAutoHide registers a callback run after the timer hides the controls.
// It runs on the timer goroutine without the viewer lock held.
func WithOnAutoHide(fn func(State)) Option {
	return func(v *Viewer) { v.onAutoHide = fn }
}

// Open records a read of the book and returns a viewer on its first page.
// The read is recorded exactly once per Open.
func Open(ctx context.Context, recorder ReadRecorder, bookID string, opts ...Option) (*Viewer, error) {
	book, err := recorder.IncrementReadCount(ctx, bookID)
	if err != nil {
		return nil, fmt.Errorf("failed to open book %q: %w", bookID, err)
	}

	v := &Viewer{
		book:            book,
		mode:            models.ModeSilent,
		controlsVisible: true,
		clock:           realClock{},
		hideDelay:       DefaultHideDelay,
		pageCount:       DefaultPageCount,
	}
	for _, opt := range opts {
		opt(v)
	}
	v.pages = Pages(book, v.pageCount)

	v.mu.Lock()
	defer v.mu.Unlock()
	if v.orientation == models.Landscape && v.device == models.Phone {
		v.controlsVisible = false
	}
	v.restartTimerLocked()
	return v, nil
}

// State returns a snapshot of the viewer
func (v *Viewer) State() State {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.stateLocked()
}

func (v *Viewer) stateLocked() State {
	total := len(v.pages)
	return State{
		Book:            v.book,
		Page:            v.pages[v.current],
		CurrentPage:     v.current,
		TotalPages:      total,
		Mode:            v.mode,
		ControlsVisible: v.controlsVisible,
		Playing:         v.playing,
		Orientation:     v.orientation,
		Device:          v.device,
		Layout:          LayoutFor(v.orientation),
		CanPrev:         v.current > 0,
		CanNext:         v.current < total-1,
		Closed:          v.closed,
	}
}

// Next moves one page forward; it reports false on the last page
func (v *Viewer) Next() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.goToLocked(v.current + 1)
}

// Prev moves one page back; it reports false on the first page
func (v *Viewer) Prev() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.goToLocked(v.current - 1)
}

// GoTo jumps to page index i, clamped to the book
func (v *Viewer) GoTo(i int) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.goToLocked(i)
}

func (v *Viewer) goToLocked(i int) bool {
	if v.closed {
		return false
	}
	if i < 0 {
		i = 0
	}
	if last := len(v.pages) - 1; i > last {
		i = last
	}
	if i == v.current {
		return false
	}
	v.current = i
	v.touchLocked()
	return true
}

// Tap toggles the control overlay, as a tap on the page does
func (v *Viewer) Tap() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.setControlsLocked(!v.controlsVisible)
}

// ShowControls makes the overlay visible and starts the hide timer
func (v *Viewer) ShowControls() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.setControlsLocked(true)
}

// HideControls hides the overlay and cancels the hide timer
func (v *Viewer) HideControls() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.setControlsLocked(false)
}

// Touch registers an interaction with the controls
func (v *Viewer) Touch() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.touchLocked()
}

// SetMode selects a reading mode. Silent mode stops playback.
func (v *Viewer) SetMode(m models.ReadingMode) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed {
		return
	}
	v.mode = m
	if !m.HasAudio() {
		v.playing = false
	}
	v.touchLocked()
}

// TogglePlay starts or pauses narration. It does nothing in silent mode.
func (v *Viewer) TogglePlay() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed || !v.mode.HasAudio() {
		return false
	}
	v.playing = !v.playing
	v.touchLocked()
	return true
}

// SetOrientation reacts to a rotation. On phones landscape hides the controls
// and portrait shows them; tablets keep the current visibility.
func (v *Viewer) SetOrientation(o models.Orientation) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed || o == v.orientation {
		return
	}
	v.orientation = o
	if v.device == models.Phone {
		v.setControlsLocked(o == models.Portrait)
	}
}

// Close stops the viewer and its timer. Further calls are no-ops.
func (v *Viewer) Close() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.closed = true
	v.playing = false
	v.stopTimerLocked()
}

// TimerPending reports whether an auto-hide is scheduled
func (v *Viewer) TimerPending() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.timer != nil
}

func (v *Viewer) setControlsLocked(visible bool) {
	if v.closed {
		return
	}
	v.controlsVisible = visible
	if visible {
		v.restartTimerLocked()
	} else {
		v.stopTimerLocked()
	}
}

func (v *Viewer) touchLocked() {
	if v.controlsVisible {
		v.restartTimerLocked()
	}
}

func (v *Viewer) restartTimerLocked() {
	v.stopTimerLocked()
	if v.closed || !v.controlsVisible || v.hideDelay <= 0 {
		return
	}
	gen := v.timerGen
	v.timer = v.clock.AfterFunc(v.hideDelay, func() { v.autoHide(gen) })
}

// stopTimerLocked also invalidates a callback that already fired and is
// waiting for the lock.
func (v *Viewer) stopTimerLocked() {
	if v.timer != nil {
		v.timer.Stop()
		v.timer = nil
	}
	v.timerGen++
}

func (v *Viewer) autoHide(gen uint64) {
	v.mu.Lock()
	if gen != v.timerGen || v.closed || !v.controlsVisible {
		v.mu.Unlock()
		return
	}
	v.controlsVisible = false
	v.timer = nil
	v.timerGen++
	state := v.stateLocked()
	notify := v.onAutoHide
	v.mu.Unlock()

	if notify != nil {
		notify(state)
	}
}
