package bot

import (
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"picturebook/internal/catalog"
	"picturebook/internal/models"
	"picturebook/internal/shelf"
	"picturebook/internal/viewer"
)

// Bot represents the Telegram bot wrapper
type Bot struct {
	api          *tgbotapi.BotAPI
	token        string
	catalog      *catalog.Catalog
	allowedUsers map[int64]bool
	states       map[int64]*ConversationState
	statesMu     sync.Mutex
	sessions     map[int64]*session
	sessionsMu   sync.Mutex
	logger       *zap.Logger
	hideDelay    time.Duration
	newID        func() string

	// send delivers a message; nil while testing without an API
	send func(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// ConversationState tracks the state of multi-step commands
type ConversationState struct {
	Command string
	Step    int
	Data    map[string]interface{}
}

// session is what one chat is looking at: its shelf and at most one open book
type session struct {
	mu          sync.Mutex
	chatID      int64
	shelf       *shelf.Shelf
	viewer      *viewer.Viewer
	viewerMsgID int
	viewerGen   uint64
	orientation models.Orientation
}
