package bot

import (
	"context"

	"go.uber.org/zap"

	"picturebook/internal/models"
	"picturebook/internal/shelf"
	"picturebook/internal/viewer"
)

// session returns the chat's session, creating it on first use
func (b *Bot) session(chatID int64) *session {
	b.sessionsMu.Lock()
	defer b.sessionsMu.Unlock()

	s, ok := b.sessions[chatID]
	if !ok {
		s = &session{
			chatID: chatID,
			shelf:  shelf.New(b.catalog, viewer.WithHideDelay(b.hideDelay)),
		}
		b.sessions[chatID] = s
	}
	return s
}

// openBookLocked closes any open book and opens bookID in its place
func (b *Bot) openBookLocked(ctx context.Context, s *session, bookID string) (viewer.State, error) {
	s.closeViewerLocked()

	gen := s.viewerGen
	v, err := s.shelf.Open(ctx, bookID,
		viewer.WithOrientation(s.orientation),
		viewer.WithDevice(models.Phone),
		viewer.WithOnAutoHide(b.autoHideHandler(s, gen)),
	)
	if err != nil {
		return viewer.State{}, err
	}
	s.viewer = v
	return v.State(), nil
}

// autoHideHandler redraws the viewer message once its controls hide themselves
func (b *Bot) autoHideHandler(s *session, gen uint64) func(viewer.State) {
	return func(state viewer.State) {
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.viewer == nil || s.viewerGen != gen || s.viewerMsgID == 0 {
			return
		}

		text, markup := renderViewer(state)
		b.editMessage(s.chatID, s.viewerMsgID, text, markup)
		b.logger.Debug("Viewer controls hidden",
			zap.Int64("chat_id", s.chatID),
			zap.String("book_id", state.Book.ID),
		)
	}
}

func (s *session) closeViewerLocked() {
	if s.viewer != nil {
		s.viewer.Close()
		s.viewer = nil
	}
	s.viewerMsgID = 0
	s.viewerGen++
}
