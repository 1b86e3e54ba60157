package bot

import (
	"context"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"picturebook/internal/models"
)

const closedBookNotice = "This book is closed. Open it again from /shelf"

// handleFilterCallback switches the shelf between all books and favorites
func (b *Bot) handleFilterCallback(query *tgbotapi.CallbackQuery, s *session) string {
	s.shelf.ToggleFilter()

	text, markup := renderShelf(s.shelf)
	b.editMessage(query.Message.Chat.ID, query.Message.MessageID, text, markup)
	return ""
}

// handleFavoriteCallback flips the favorite star of a book on the shelf
func (b *Bot) handleFavoriteCallback(ctx context.Context, query *tgbotapi.CallbackQuery, s *session, bookID string) string {
	book, err := s.shelf.ToggleFavorite(ctx, bookID)
	if err != nil {
		b.logger.Error("Failed to toggle favorite from chat",
			zap.Error(err),
			zap.Int64("user_id", query.From.ID),
			zap.String("book_id", bookID),
		)
		return describeError(err)
	}

	text, markup := renderShelf(s.shelf)
	b.editMessage(query.Message.Chat.ID, query.Message.MessageID, text, markup)

	if book.IsFavorite {
		return "★ Added to favorites"
	}
	return "☆ Removed from favorites"
}

// handleReadCallback opens a book and sends its viewer message
func (b *Bot) handleReadCallback(ctx context.Context, query *tgbotapi.CallbackQuery, s *session, bookID string) string {
	state, err := b.openBookLocked(ctx, s, bookID)
	if err != nil {
		b.logger.Error("Failed to open book from chat",
			zap.Error(err),
			zap.Int64("user_id", query.From.ID),
			zap.String("book_id", bookID),
		)
		return describeError(err)
	}

	text, markup := renderViewer(state)
	msg := tgbotapi.NewMessage(query.Message.Chat.ID, text)
	msg.ReplyMarkup = markup
	msgID, err := b.trySend(msg)
	if err != nil {
		// without its message nothing could ever reach this viewer
		s.closeViewerLocked()
		return "Could not show the book, please try again"
	}
	s.viewerMsgID = msgID

	b.logger.Info("Book opened",
		zap.Int64("chat_id", s.chatID),
		zap.String("book_id", bookID),
		zap.Int("read_count", state.Book.ReadCount),
	)
	return ""
}

// handleViewerCallback applies a viewer button to the chat's open book
func (b *Bot) handleViewerCallback(query *tgbotapi.CallbackQuery, s *session, data string) string {
	v := s.viewer
	if v == nil || query.Message.MessageID != s.viewerMsgID {
		return closedBookNotice
	}

	switch {
	case data == "page:prev":
		v.Prev()
	case data == "page:next":
		v.Next()
	case data == "tap":
		v.Tap()
	case strings.HasPrefix(data, "mode:"):
		mode, ok := models.ParseReadingMode(strings.TrimPrefix(data, "mode:"))
		if !ok {
			return ""
		}
		v.SetMode(mode)
	case data == "play":
		if !v.TogglePlay() {
			return "Choose an audio mode to play narration"
		}
	case data == "rotate":
		if s.orientation == models.Portrait {
			s.orientation = models.Landscape
		} else {
			s.orientation = models.Portrait
		}
		v.SetOrientation(s.orientation)
	case data == "close":
		s.closeViewerLocked()
		text, markup := renderShelf(s.shelf)
		b.editMessage(query.Message.Chat.ID, query.Message.MessageID, text, markup)
		return ""
	default:
		b.logger.Warn("Unknown callback data",
			zap.Int64("user_id", query.From.ID),
			zap.String("callback_data", data),
		)
		return ""
	}

	text, markup := renderViewer(v.State())
	b.editMessage(query.Message.Chat.ID, query.Message.MessageID, text, markup)
	return ""
}
