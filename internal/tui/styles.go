package tui

import (
	"fmt"
	"math"

	"github.com/charmbracelet/lipgloss"
)

var (
	accent = lipgloss.Color("#E8A33D")
	muted  = lipgloss.Color("#8A8F98")
	paper  = lipgloss.Color("#FBF7EF")
	ink    = lipgloss.Color("#2B2A33")

	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(accent).MarginBottom(1)
	rowStyle      = lipgloss.NewStyle().PaddingLeft(2)
	selectedStyle = lipgloss.NewStyle().PaddingLeft(1).Bold(true).Foreground(accent).
			Border(lipgloss.NormalBorder(), false, false, false, true).BorderForeground(accent)
	badgeStyle  = lipgloss.NewStyle().Foreground(muted).Italic(true)
	emptyStyle  = lipgloss.NewStyle().Foreground(muted).Italic(true).PaddingLeft(2)
	helpStyle   = lipgloss.NewStyle().Foreground(muted).MarginTop(1)
	statusStyle = lipgloss.NewStyle().Foreground(accent)

	pageTextStyle = lipgloss.NewStyle().Foreground(ink).Background(paper).Padding(1, 2)
	overlayStyle  = lipgloss.NewStyle().Foreground(paper).Bold(true).Padding(0, 1)
	controlsStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(muted).Padding(0, 1)
	activeStyle   = lipgloss.NewStyle().Foreground(accent).Bold(true)
	disabledStyle = lipgloss.NewStyle().Foreground(muted).Faint(true)
)

// hueColor turns a page hue in [0,1] into a soft pastel colour
func hueColor(hue float64) lipgloss.Color {
	h := math.Mod(hue, 1) * 6
	const s, v = 0.35, 0.85
	c := v * s
	x := c * (1 - math.Abs(math.Mod(h, 2)-1))
	m := v - c

	var r, g, b float64
	switch int(h) {
	case 0:
		r, g, b = c, x, 0
	case 1:
		r, g, b = x, c, 0
	case 2:
		r, g, b = 0, c, x
	case 3:
		r, g, b = 0, x, c
	case 4:
		r, g, b = x, 0, c
	default:
		r, g, b = c, 0, x
	}
	return lipgloss.Color(fmt.Sprintf("#%02X%02X%02X",
		int(math.Round((r+m)*255)), int(math.Round((g+m)*255)), int(math.Round((b+m)*255))))
}
