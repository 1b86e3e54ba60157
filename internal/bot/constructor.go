package bot

import (
	"fmt"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"picturebook/internal/catalog"
	"picturebook/internal/viewer"
)

// Option configures a Bot
type Option func(*Bot)

// WithHideDelay sets how long viewer controls stay up without interaction
func WithHideDelay(d time.Duration) Option {
	return func(b *Bot) { b.hideDelay = d }
}

// NewBot creates a new Telegram bot
func NewBot(token string, cat *catalog.Catalog, allowedUserIDs []int64, logger *zap.Logger, opts ...Option) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		logger.Error("Failed to create bot API", zap.Error(err))
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}

	b := newBot(api, token, cat, allowedUserIDs, logger, opts...)
	logger.Info("Bot created", zap.String("bot_username", api.Self.UserName))
	return b, nil
}

func newBot(api *tgbotapi.BotAPI, token string, cat *catalog.Catalog, allowedUserIDs []int64, logger *zap.Logger, opts ...Option) *Bot {
	if logger == nil {
		logger = zap.NewNop()
	}

	allowedUsers := make(map[int64]bool)
	for _, id := range allowedUserIDs {
		allowedUsers[id] = true
	}

	b := &Bot{
		api:          api,
		token:        token,
		catalog:      cat,
		allowedUsers: allowedUsers,
		states:       make(map[int64]*ConversationState),
		sessions:     make(map[int64]*session),
		logger:       logger,
		hideDelay:    viewer.DefaultHideDelay,
		newID:        uuid.NewString,
	}
	if api != nil {
		b.send = api.Send
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// GetAPI returns the bot API for testing
func (b *Bot) GetAPI() *tgbotapi.BotAPI {
	return b.api
}
