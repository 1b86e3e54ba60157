package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/goleak"
	"go.uber.org/zap"

	"picturebook/internal/catalog"
	"picturebook/internal/models"
	"picturebook/internal/storage"
	"picturebook/internal/storage/stubs"
)

// Note: We can't easily mock tgbotapi.BotAPI, so tests run with a nil api and
// check the resulting catalog and session state instead of sent messages

const (
	testUserID = int64(123)
	testChatID = int64(456)
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newTestBot(t *testing.T, opts ...Option) (*Bot, *catalog.Catalog) {
	t.Helper()

	cat := catalog.New(stubs.NewMockDB(), zap.NewNop())
	if _, err := cat.SeedSampleDataIfEmpty(context.Background()); err != nil {
		t.Fatalf("Failed to seed catalog: %v", err)
	}

	bot := newBot(nil, "test-token", cat, []int64{testUserID}, zap.NewNop(), append([]Option{WithHideDelay(0)}, opts...)...)
	ids := 0
	bot.newID = func() string {
		ids++
		return fmt.Sprintf("generated-%d", ids)
	}
	t.Cleanup(bot.Stop)
	return bot, cat
}

func textMessage(text string) *tgbotapi.Message {
	msg := &tgbotapi.Message{
		From: &tgbotapi.User{ID: testUserID},
		Chat: &tgbotapi.Chat{ID: testChatID},
		Text: text,
	}
	if strings.HasPrefix(text, "/") {
		length := len(text)
		if i := strings.IndexByte(text, ' '); i > 0 {
			length = i
		}
		msg.Entities = []tgbotapi.MessageEntity{
			{Type: "bot_command", Offset: 0, Length: length},
		}
	}
	return msg
}

func callbackQuery(data string) *tgbotapi.CallbackQuery {
	return &tgbotapi.CallbackQuery{
		ID:      "q",
		From:    &tgbotapi.User{ID: testUserID},
		Message: &tgbotapi.Message{Chat: &tgbotapi.Chat{ID: testChatID}},
		Data:    data,
	}
}

func TestBot_NewBookConversation(t *testing.T) {
	bot, cat := newTestBot(t)

	bot.handleMessage(textMessage("/new_book"))

	state := bot.conversation(testUserID)
	if state == nil {
		t.Fatal("Expected conversation state to be created")
	}
	if state.Command != "new_book" {
		t.Errorf("Expected command 'new_book', got '%s'", state.Command)
	}
	if state.Step != 1 {
		t.Errorf("Expected step 1, got %d", state.Step)
	}

	// An empty title keeps asking
	bot.handleMessage(textMessage("   "))
	if state.Step != 1 {
		t.Errorf("Expected to stay on step 1, got %d", state.Step)
	}

	bot.handleMessage(textMessage("The Grateful Crane"))
	if state.Step != 2 {
		t.Errorf("Expected step 2, got %d", state.Step)
	}

	bot.handleMessage(textMessage("tsuru"))

	if bot.conversation(testUserID) != nil {
		t.Error("Expected conversation to be cleaned up")
	}

	book, err := cat.Get("generated-1")
	if err != nil {
		t.Fatalf("Expected book to be created: %v", err)
	}
	if book.Title != "The Grateful Crane" || book.CoverImageName != "tsuru" {
		t.Errorf("Unexpected book: %+v", book)
	}
	if book.IsFavorite || book.ReadCount != 0 {
		t.Errorf("Expected a fresh book, got %+v", book)
	}

	// Newest book comes first on the shelf
	if first := cat.List(models.FilterAll)[0]; first.ID != "generated-1" {
		t.Errorf("Expected new book first, got %s", first.ID)
	}
}

func TestBot_NewBookSkipCover(t *testing.T) {
	bot, cat := newTestBot(t)

	bot.handleMessage(textMessage("/new_book"))
	bot.handleMessage(textMessage("Little One-Inch"))
	bot.handleMessage(textMessage(skipCover))

	book, err := cat.Get("generated-1")
	if err != nil {
		t.Fatalf("Expected book to be created: %v", err)
	}
	if book.CoverImageName != "" {
		t.Errorf("Expected no cover, got %q", book.CoverImageName)
	}
}

func TestBot_PanicRecovery(t *testing.T) {
	bot, _ := newTestBot(t)

	// A state that will cause a panic (missing required data)
	bot.setConversation(testUserID, &ConversationState{
		Command: "new_book",
		Step:    2,
		Data:    map[string]interface{}{},
	})

	// This would panic without recovery - test that it doesn't crash
	defer func() {
		if r := recover(); r != nil {
			t.Errorf("handleMessage panicked: %v", r)
		}
	}()

	bot.handleMessage(textMessage("cover"))
}

func TestBot_CommandAfterCompletedConversation(t *testing.T) {
	bot, _ := newTestBot(t)

	// A completed conversation whose state was not cleaned up
	bot.setConversation(testUserID, &ConversationState{
		Command: "new_book",
		Step:    -1,
		Data:    map[string]interface{}{},
	})

	bot.handleMessage(textMessage("/start"))

	if bot.conversation(testUserID) != nil {
		t.Error("Expected state to be cleaned up after processing new command")
	}
	if _, ok := bot.sessions[testChatID]; !ok {
		t.Error("Expected /start to show the shelf")
	}
}

func TestBot_CommandInterruptsConversation(t *testing.T) {
	bot, cat := newTestBot(t)

	bot.handleMessage(textMessage("/new_book"))
	bot.handleMessage(textMessage("Half-finished"))
	if bot.conversation(testUserID) == nil {
		t.Fatal("Expected conversation state to be created")
	}

	bot.handleMessage(textMessage("/favorites"))

	if bot.conversation(testUserID) != nil {
		t.Error("Expected conversation state to be deleted when interrupted by new command")
	}
	if cat.Len() != 6 {
		t.Errorf("Expected no book to be created, got %d books", cat.Len())
	}
	if f := bot.session(testChatID).shelf.Filter(); f != models.FilterFavorites {
		t.Errorf("Expected favorites filter, got %s", f)
	}
}

func TestBot_UnauthorizedUserIgnored(t *testing.T) {
	bot, _ := newTestBot(t)

	msg := textMessage("/new_book")
	msg.From.ID = 999
	bot.HandleWebhookUpdate(tgbotapi.Update{Message: msg})

	if bot.conversation(999) != nil {
		t.Error("Expected no conversation for an unknown user")
	}

	query := callbackQuery("fav:book_001")
	query.From.ID = 999
	bot.HandleWebhookUpdate(tgbotapi.Update{CallbackQuery: query})

	if _, ok := bot.sessions[testChatID]; ok {
		t.Error("Expected callback from an unknown user to be ignored")
	}
}

func TestBot_FavoriteAndFilterCallbacks(t *testing.T) {
	bot, cat := newTestBot(t)

	bot.handleCallbackQuery(callbackQuery("fav:book_002"))

	book, _ := cat.Get("book_002")
	if !book.IsFavorite {
		t.Fatal("Expected book_002 to be a favorite")
	}

	s := bot.session(testChatID)
	notice := bot.dispatchCallback(context.Background(), callbackQuery("fav:book_002"), s)
	if notice != "☆ Removed from favorites" {
		t.Errorf("Unexpected notice %q", notice)
	}

	notice = bot.dispatchCallback(context.Background(), callbackQuery("fav:missing"), s)
	if notice != describeError(storage.ErrNotFound) {
		t.Errorf("Unexpected notice for unknown book %q", notice)
	}

	bot.handleCallbackQuery(callbackQuery("filter:toggle"))
	if f := s.shelf.Filter(); f != models.FilterFavorites {
		t.Errorf("Expected favorites filter, got %s", f)
	}
}

func TestBot_ReadClosesViewerWhenMessageFails(t *testing.T) {
	bot, cat := newTestBot(t)
	bot.send = func(c tgbotapi.Chattable) (tgbotapi.Message, error) {
		return tgbotapi.Message{}, errors.New("telegram unavailable")
	}

	s := bot.session(testChatID)
	s.mu.Lock()
	notice := bot.dispatchCallback(context.Background(), callbackQuery("read:book_002"), s)
	s.mu.Unlock()
	if notice == "" {
		t.Error("Expected the user to be told the book could not be shown")
	}

	if s.viewer != nil {
		t.Error("Expected the viewer to be closed when its message was not sent")
	}
	if s.viewerMsgID != 0 {
		t.Errorf("Expected no viewer message, got %d", s.viewerMsgID)
	}

	// The read itself was recorded before sending
	book, _ := cat.Get("book_002")
	if book.ReadCount != 1 {
		t.Errorf("Expected read count 1, got %d", book.ReadCount)
	}
}

func TestBot_ReadingFlow(t *testing.T) {
	bot, cat := newTestBot(t)

	bot.handleCallbackQuery(callbackQuery("read:book_001"))

	s := bot.session(testChatID)
	if s.viewer == nil {
		t.Fatal("Expected a viewer to be open")
	}
	book, _ := cat.Get("book_001")
	if book.ReadCount != 1 || book.LastReadAt == nil {
		t.Errorf("Expected one recorded read, got %+v", book)
	}

	bot.handleCallbackQuery(callbackQuery("page:next"))
	bot.handleCallbackQuery(callbackQuery("page:next"))
	bot.handleCallbackQuery(callbackQuery("page:prev"))
	if page := s.viewer.State().CurrentPage; page != 1 {
		t.Errorf("Expected page index 1, got %d", page)
	}

	bot.handleCallbackQuery(callbackQuery("play"))
	if s.viewer.State().Playing {
		t.Error("Expected silent mode not to play")
	}

	bot.handleCallbackQuery(callbackQuery("mode:audio_manual"))
	bot.handleCallbackQuery(callbackQuery("play"))
	state := s.viewer.State()
	if state.Mode != models.ModeAudioManual || !state.Playing {
		t.Errorf("Expected manual audio playing, got %v playing=%v", state.Mode, state.Playing)
	}

	bot.handleCallbackQuery(callbackQuery("rotate"))
	state = s.viewer.State()
	if state.Orientation != models.Landscape || state.ControlsVisible {
		t.Errorf("Expected landscape with hidden controls, got %+v", state)
	}

	bot.handleCallbackQuery(callbackQuery("tap"))
	if !s.viewer.State().ControlsVisible {
		t.Error("Expected tap to show controls")
	}

	// Paging never records another read
	book, _ = cat.Get("book_001")
	if book.ReadCount != 1 {
		t.Errorf("Expected read count 1, got %d", book.ReadCount)
	}

	v := s.viewer
	bot.handleCallbackQuery(callbackQuery("close"))
	if s.viewer != nil {
		t.Error("Expected viewer to be closed")
	}
	if !v.State().Closed {
		t.Error("Expected closed viewer state")
	}

	notice := bot.dispatchCallback(context.Background(), callbackQuery("page:next"), s)
	if notice != closedBookNotice {
		t.Errorf("Expected closed book notice, got %q", notice)
	}
}

func TestBot_OpeningAnotherBookClosesTheFirst(t *testing.T) {
	bot, cat := newTestBot(t)

	bot.handleCallbackQuery(callbackQuery("read:book_001"))
	s := bot.session(testChatID)
	first := s.viewer

	bot.handleCallbackQuery(callbackQuery("read:book_002"))
	if !first.State().Closed {
		t.Error("Expected the first viewer to be closed")
	}
	if id := s.viewer.State().Book.ID; id != "book_002" {
		t.Errorf("Expected book_002 open, got %s", id)
	}

	// Opening a missing book leaves nothing open
	bot.handleCallbackQuery(callbackQuery("read:missing"))
	if s.viewer != nil {
		t.Error("Expected no viewer after a failed open")
	}
	if b, _ := cat.Get("book_002"); b.ReadCount != 1 {
		t.Errorf("Expected one read of book_002, got %d", b.ReadCount)
	}
}

func TestBot_AutoHide(t *testing.T) {
	bot, _ := newTestBot(t, WithHideDelay(20*time.Millisecond))

	bot.handleCallbackQuery(callbackQuery("read:book_003"))
	s := bot.session(testChatID)

	deadline := time.Now().Add(2 * time.Second)
	for s.viewer.State().ControlsVisible {
		if time.Now().After(deadline) {
			t.Fatal("Expected controls to hide after inactivity")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestRenderShelf(t *testing.T) {
	bot, cat := newTestBot(t)
	ctx := context.Background()

	if _, err := cat.IncrementReadCount(ctx, "book_004"); err != nil {
		t.Fatal(err)
	}
	if _, err := cat.IncrementReadCount(ctx, "book_004"); err != nil {
		t.Fatal(err)
	}

	s := bot.session(testChatID)
	text, markup := renderShelf(s.shelf)

	if !strings.HasPrefix(text, "📚 All picture books") {
		t.Errorf("Unexpected title in %q", text)
	}
	if !strings.Contains(text, "Read 2×") {
		t.Errorf("Expected read badge in %q", text)
	}
	if len(markup.InlineKeyboard) != 7 {
		t.Errorf("Expected 6 book rows and a filter row, got %d", len(markup.InlineKeyboard))
	}

	s.shelf.ToggleFilter()
	text, markup = renderShelf(s.shelf)
	if !strings.Contains(text, "No favorite picture books yet") {
		t.Errorf("Expected empty text in %q", text)
	}
	if len(markup.InlineKeyboard) != 1 {
		t.Errorf("Expected only the filter row, got %d", len(markup.InlineKeyboard))
	}
}

func TestRenderViewer_HiddenControls(t *testing.T) {
	bot, _ := newTestBot(t)

	bot.handleCallbackQuery(callbackQuery("read:book_001"))
	s := bot.session(testChatID)

	_, markup := renderViewer(s.viewer.State())
	if len(markup.InlineKeyboard) != 4 {
		t.Errorf("Expected full controls, got %d rows", len(markup.InlineKeyboard))
	}

	s.viewer.Tap()
	text, markup := renderViewer(s.viewer.State())
	if len(markup.InlineKeyboard) != 1 || *markup.InlineKeyboard[0][0].CallbackData != "tap" {
		t.Errorf("Expected a single show controls button, got %+v", markup.InlineKeyboard)
	}
	if strings.Contains(text, "1 / 5") {
		t.Errorf("Expected no page indicator while controls are hidden: %q", text)
	}
}
