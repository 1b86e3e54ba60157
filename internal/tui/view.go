package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"picturebook/internal/models"
	"picturebook/internal/viewer"
)

func (m Model) View() string {
	if m.screen == screenViewer && m.viewer != nil {
		return m.viewerView(m.viewer.State())
	}
	return m.shelfView()
}

func (m Model) shelfView() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("📚 " + m.shelf.Title()))
	b.WriteString("\n")

	items := m.shelf.Items()
	if len(items) == 0 {
		b.WriteString(emptyStyle.Render(m.shelf.EmptyText()))
		b.WriteString("\n")
	}
	for i, item := range items {
		star := "☆"
		if item.Book.IsFavorite {
			star = "★"
		}
		line := star + " " + item.Book.Title
		if item.Badge != "" {
			line += "  " + badgeStyle.Render(item.Badge)
		}
		if i == m.cursor {
			b.WriteString(selectedStyle.Render(line))
		} else {
			b.WriteString(rowStyle.Render(line))
		}
		b.WriteString("\n")
	}

	if m.status != "" {
		b.WriteString("\n" + statusStyle.Render(m.status) + "\n")
	}
	b.WriteString(helpStyle.Render("↑/↓ move · enter read · f favorite · tab all/favorites · q quit"))
	return b.String()
}

func (m Model) viewerView(s viewer.State) string {
	width := m.width
	if width <= 0 {
		width = 60
	}

	var b strings.Builder
	picture := lipgloss.NewStyle().Background(hueColor(s.Page.Hue)).Width(width)

	switch s.Layout {
	case models.LayoutImageOnly:
		height := m.height - 1
		if s.ControlsVisible {
			height -= 5
		}
		if height < 3 {
			height = 3
		}
		b.WriteString(picture.Height(height).Render(overlayStyle.Render(s.Page.Text)))
	default:
		// 16:9 picture, halved because cells are tall
		height := width * 9 / 32
		if height < 3 {
			height = 3
		}
		b.WriteString(picture.Height(height).Render(overlayStyle.Render(s.Book.Title)))
		b.WriteString("\n")
		b.WriteString(pageTextStyle.Width(width).Render(s.Page.Text))
	}

	if s.ControlsVisible {
		b.WriteString("\n")
		b.WriteString(controlsStyle.Render(controlsLine(s)))
	}
	if m.status != "" {
		b.WriteString("\n" + statusStyle.Render(m.status))
	}
	return b.String()
}

func controlsLine(s viewer.State) string {
	prev, next := disabledStyle.Render("◀"), disabledStyle.Render("▶")
	if s.CanPrev {
		prev = "◀"
	}
	if s.CanNext {
		next = "▶"
	}

	var modes []string
	for _, mode := range models.ReadingModes {
		label := mode.Icon() + " " + mode.Label()
		if mode == s.Mode {
			label = activeStyle.Render(label)
		}
		modes = append(modes, label)
	}

	parts := []string{
		fmt.Sprintf("%s %s %s", prev, s.Indicator(), next),
		strings.Join(modes, "  "),
	}
	if s.Mode.HasAudio() {
		if s.Playing {
			parts = append(parts, "⏸ pause (p)")
		} else {
			parts = append(parts, "▶ play (p)")
		}
	}
	parts = append(parts, "m mode · space hide · r rotate · esc close")
	return strings.Join(parts, "  │  ")
}
