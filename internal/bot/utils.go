package bot

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// sendMessage sends msg and returns the id of the sent message, or 0 when
// nothing was sent
func (b *Bot) sendMessage(msg tgbotapi.MessageConfig) int {
	id, _ := b.trySend(msg)
	return id
}

// trySend is sendMessage for callers that must react to a failed send
func (b *Bot) trySend(msg tgbotapi.MessageConfig) (int, error) {
	if b.send == nil {
		return 0, nil // For testing
	}

	sent, err := b.send(msg)
	if err != nil {
		b.logger.Error("Failed to send message", zap.Error(err), zap.Int64("chat_id", msg.ChatID))
		return 0, err
	}
	return sent.MessageID, nil
}

// editMessage replaces the text and keyboard of a message sent earlier
func (b *Bot) editMessage(chatID int64, messageID int, text string, markup tgbotapi.InlineKeyboardMarkup) {
	if b.api == nil || messageID == 0 {
		return // For testing
	}

	edit := tgbotapi.NewEditMessageTextAndMarkup(chatID, messageID, text, markup)
	if _, err := b.api.Request(edit); err != nil {
		b.logger.Warn("Failed to edit message",
			zap.Error(err),
			zap.Int64("chat_id", chatID),
			zap.Int("message_id", messageID),
		)
	}
}

// answerCallback removes the loading state of a button, showing text if set
func (b *Bot) answerCallback(queryID, text string) {
	if b.api == nil {
		return // For testing
	}

	if _, err := b.api.Request(tgbotapi.NewCallback(queryID, text)); err != nil {
		b.logger.Warn("Failed to answer callback query", zap.Error(err))
	}
}
