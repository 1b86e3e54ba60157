package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"picturebook/internal/storage"
)

// skipCover is the answer that leaves a new book without a cover image
const skipCover = "-"

func (b *Bot) conversation(userID int64) *ConversationState {
	b.statesMu.Lock()
	defer b.statesMu.Unlock()
	return b.states[userID]
}

func (b *Bot) setConversation(userID int64, state *ConversationState) {
	b.statesMu.Lock()
	defer b.statesMu.Unlock()
	b.states[userID] = state
}

func (b *Bot) endConversation(userID int64) {
	b.statesMu.Lock()
	defer b.statesMu.Unlock()
	delete(b.states, userID)
}

// handleConversation processes multi-step conversations
func (b *Bot) handleConversation(ctx context.Context, message *tgbotapi.Message, state *ConversationState) {
	userID := message.From.ID

	switch state.Command {
	case "new_book":
		b.handleNewBookConversation(ctx, message, state)
	}

	// Clean up completed conversations
	if state.Step == -1 {
		b.endConversation(userID)
	}
}

// handleNewBookConversation asks for the title, then the cover image name
func (b *Bot) handleNewBookConversation(ctx context.Context, message *tgbotapi.Message, state *ConversationState) {
	switch state.Step {
	case 1: // Waiting for title
		title := strings.TrimSpace(message.Text)
		if title == "" {
			msg := tgbotapi.NewMessage(message.Chat.ID, "The title cannot be empty. Please enter the book title:")
			b.sendMessage(msg)
			return
		}

		state.Data["title"] = title
		state.Step = 2

		text := fmt.Sprintf("Now enter the cover image name for \"%s\" (or %s for none):", title, skipCover)
		msg := tgbotapi.NewMessage(message.Chat.ID, text)
		b.sendMessage(msg)

	case 2: // Waiting for cover image name
		title := state.Data["title"].(string)
		cover := strings.TrimSpace(message.Text)
		if cover == skipCover {
			cover = ""
		}

		book, err := b.catalog.Create(ctx, b.newID(), title, cover)
		if err != nil {
			b.logger.Error("Failed to create book from chat",
				zap.Error(err),
				zap.Int64("user_id", message.From.ID),
				zap.String("title", title),
			)
			msg := tgbotapi.NewMessage(message.Chat.ID, fmt.Sprintf("Error creating book: %s", describeError(err)))
			b.sendMessage(msg)
		} else {
			text := fmt.Sprintf("Book added to the shelf!\nTitle: %s", book.Title)
			msg := tgbotapi.NewMessage(message.Chat.ID, text)
			b.sendMessage(msg)
		}

		state.Step = -1 // Mark conversation as complete
	}
}

// describeError turns catalog errors into text fit for a chat message
func describeError(err error) string {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return "that book is no longer on the shelf"
	case errors.Is(err, storage.ErrDuplicateID):
		return "a book with that id already exists"
	case errors.Is(err, storage.ErrInvalidBook):
		return "a book needs a title"
	case storage.IsPersistence(err):
		return "the library could not be saved, please try again"
	default:
		return err.Error()
	}
}
