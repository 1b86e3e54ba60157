package tui

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"picturebook/internal/catalog"
	"picturebook/internal/shelf"
)

// Run shows the shelf of cat in the terminal until the user quits
func Run(ctx context.Context, cat *catalog.Catalog, opts ...Option) error {
	events := cat.Subscribe()
	defer cat.Unsubscribe(events)

	opts = append([]Option{WithEvents(events)}, opts...)
	m := New(ctx, shelf.New(cat), opts...)

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	m.notifier.send = p.Send

	final, err := p.Run()
	if fm, ok := final.(Model); ok {
		fm.closeViewer()
	}
	if err != nil {
		return fmt.Errorf("failed to run terminal UI: %w", err)
	}
	return nil
}
