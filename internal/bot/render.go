package bot

import (
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"picturebook/internal/models"
	"picturebook/internal/shelf"
	"picturebook/internal/viewer"
)

// renderShelf builds the shelf message: one row per book with a read button
// and a favorite star, then the filter switch
func renderShelf(sh *shelf.Shelf) (string, tgbotapi.InlineKeyboardMarkup) {
	items := sh.Items()

	var text strings.Builder
	text.WriteString("📚 " + sh.Title() + "\n\n")
	if len(items) == 0 {
		text.WriteString(sh.EmptyText())
	}

	var rows [][]tgbotapi.InlineKeyboardButton
	for i, item := range items {
		star := "☆"
		if item.Book.IsFavorite {
			star = "★"
		}

		line := fmt.Sprintf("%d. %s %s", i+1, star, item.Book.Title)
		if item.Badge != "" {
			line += " · " + item.Badge
		}
		text.WriteString(line + "\n")

		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📖 "+item.Book.Title, "read:"+item.Book.ID),
			tgbotapi.NewInlineKeyboardButtonData(star, "fav:"+item.Book.ID),
		))
	}

	toggle := "⭐ Favorites only"
	if sh.Filter() == models.FilterFavorites {
		toggle = "📚 Show all"
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData(toggle, "filter:toggle"),
	))

	return strings.TrimRight(text.String(), "\n"), tgbotapi.NewInlineKeyboardMarkup(rows...)
}

// renderViewer builds the viewer message for one page. Hidden controls leave
// a single button to bring them back.
func renderViewer(state viewer.State) (string, tgbotapi.InlineKeyboardMarkup) {
	var text strings.Builder

	picture := state.Book.CoverImageName
	if picture == "" {
		picture = state.Book.Title
	}

	switch state.Layout {
	case models.LayoutImageOnly:
		text.WriteString(fmt.Sprintf("🖼 [%s · page %d]\n", picture, state.Page.Number))
		text.WriteString("  " + state.Page.Text)
	default:
		text.WriteString("📖 " + state.Book.Title + "\n")
		text.WriteString(fmt.Sprintf("🖼 [%s · page %d]\n\n", picture, state.Page.Number))
		text.WriteString(state.Page.Text)
	}

	if !state.ControlsVisible {
		return text.String(), tgbotapi.NewInlineKeyboardMarkup(
			tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData("👆 Show controls", "tap"),
			),
		)
	}

	text.WriteString(fmt.Sprintf("\n\n%s · %s %s", state.Indicator(), state.Mode.Icon(), state.Mode.Label()))
	if state.Mode.HasAudio() {
		if state.Playing {
			text.WriteString(" · playing")
		} else {
			text.WriteString(" · paused")
		}
	}

	return text.String(), viewerKeyboard(state)
}

func viewerKeyboard(state viewer.State) tgbotapi.InlineKeyboardMarkup {
	prev := tgbotapi.NewInlineKeyboardButtonData("·", "noop")
	if state.CanPrev {
		prev = tgbotapi.NewInlineKeyboardButtonData("◀", "page:prev")
	}
	next := tgbotapi.NewInlineKeyboardButtonData("·", "noop")
	if state.CanNext {
		next = tgbotapi.NewInlineKeyboardButtonData("▶", "page:next")
	}

	var modes []tgbotapi.InlineKeyboardButton
	for _, m := range models.ReadingModes {
		label := m.Icon()
		if m == state.Mode {
			label += " ✓"
		}
		modes = append(modes, tgbotapi.NewInlineKeyboardButtonData(label, "mode:"+m.String()))
	}

	var actions []tgbotapi.InlineKeyboardButton
	if state.Mode.HasAudio() {
		play := "▶ Play"
		if state.Playing {
			play = "⏸ Pause"
		}
		actions = append(actions, tgbotapi.NewInlineKeyboardButtonData(play, "play"))
	}
	actions = append(actions, tgbotapi.NewInlineKeyboardButtonData("🔄 Rotate", "rotate"))

	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(prev, tgbotapi.NewInlineKeyboardButtonData(state.Indicator(), "noop"), next),
		modes,
		actions,
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🙈 Hide controls", "tap"),
			tgbotapi.NewInlineKeyboardButtonData("✖ Close", "close"),
		),
	)
}
