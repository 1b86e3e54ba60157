package bot

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"picturebook/internal/models"
)

const helpText = `Welcome to the Picture Book Bot! 📚

Available commands:
/shelf - Show all picture books
/favorites - Show favorite picture books
/new_book - Add a picture book

Tap a book to read it, ☆ to mark it as a favorite.`

// handleStart shows welcome message, available commands and the shelf
func (b *Bot) handleStart(message *tgbotapi.Message) {
	msg := tgbotapi.NewMessage(message.Chat.ID, helpText)
	b.sendMessage(msg)
	b.handleShelf(message, false)
}

// handleShelf sends the chat's shelf with the requested filter
func (b *Bot) handleShelf(message *tgbotapi.Message, favorites bool) {
	s := b.session(message.Chat.ID)
	s.mu.Lock()
	defer s.mu.Unlock()

	if favorites {
		s.shelf.SetFilter(models.FilterFavorites)
	} else {
		s.shelf.SetFilter(models.FilterAll)
	}

	text, markup := renderShelf(s.shelf)
	msg := tgbotapi.NewMessage(message.Chat.ID, text)
	msg.ReplyMarkup = markup
	b.sendMessage(msg)
}

// handleNewBookStart initiates the new book conversation
func (b *Bot) handleNewBookStart(message *tgbotapi.Message) {
	b.setConversation(message.From.ID, &ConversationState{
		Command: "new_book",
		Step:    1,
		Data:    make(map[string]interface{}),
	})

	msg := tgbotapi.NewMessage(message.Chat.ID, "Please enter the book title:")
	b.sendMessage(msg)
}
