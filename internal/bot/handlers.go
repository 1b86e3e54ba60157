package bot

import (
	"context"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// handleMessage processes a single message
func (b *Bot) handleMessage(message *tgbotapi.Message) {
	// Recover from panics to prevent bot crashes
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("Recovered from panic in handleMessage", zap.Any("panic", r))
			msg := tgbotapi.NewMessage(message.Chat.ID, "An error occurred while processing your request. Please try again.")
			b.sendMessage(msg)
		}
	}()

	userID := message.From.ID
	ctx := context.Background()

	// Check if user is in a conversation
	if state := b.conversation(userID); state != nil {
		if state.Step == -1 || message.IsCommand() {
			// Finished conversations are dropped; any command cancels a running one
			b.endConversation(userID)
		} else {
			b.handleConversation(ctx, message, state)
			return
		}
	}

	if message.IsCommand() {
		switch message.Command() {
		case "start":
			b.handleStart(message)
		case "shelf":
			b.handleShelf(message, false)
		case "favorites":
			b.handleShelf(message, true)
		case "new_book":
			b.handleNewBookStart(message)
		default:
			msg := tgbotapi.NewMessage(message.Chat.ID, "Unknown command. Use /start to see available commands.")
			b.sendMessage(msg)
		}
	}
}

// handleCallbackQuery processes inline keyboard button clicks
func (b *Bot) handleCallbackQuery(query *tgbotapi.CallbackQuery) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("Recovered from panic in handleCallbackQuery", zap.Any("panic", r))
		}
	}()

	if query.Message == nil {
		b.answerCallback(query.ID, "")
		return
	}

	ctx := context.Background()
	s := b.session(query.Message.Chat.ID)

	s.mu.Lock()
	notice := b.dispatchCallback(ctx, query, s)
	s.mu.Unlock()

	// Answer the callback query to remove loading state
	b.answerCallback(query.ID, notice)
}

// dispatchCallback routes a button press by its data prefix and returns the
// notice shown to the user. Caller holds s.mu.
func (b *Bot) dispatchCallback(ctx context.Context, query *tgbotapi.CallbackQuery, s *session) string {
	data := query.Data
	switch {
	case data == "noop":
		return ""
	case data == "filter:toggle":
		return b.handleFilterCallback(query, s)
	case strings.HasPrefix(data, "fav:"):
		return b.handleFavoriteCallback(ctx, query, s, strings.TrimPrefix(data, "fav:"))
	case strings.HasPrefix(data, "read:"):
		return b.handleReadCallback(ctx, query, s, strings.TrimPrefix(data, "read:"))
	default:
		return b.handleViewerCallback(query, s, data)
	}
}
