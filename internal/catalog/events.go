package catalog

import (
	"go.uber.org/zap"

	"picturebook/internal/models"
)

// EventKind identifies what changed in the catalog
type EventKind int

const (
	EventCreated EventKind = iota
	EventFavoriteToggled
	EventReadRecorded
)

func (k EventKind) String() string {
	switch k {
	case EventCreated:
		return "created"
	case EventFavoriteToggled:
		return "favorite_toggled"
	case EventReadRecorded:
		return "read_recorded"
	}
	return "unknown"
}

// Event is delivered to subscribers after a change has been persisted
type Event struct {
	Kind EventKind
	Book models.Book
}

// Subscribe returns a channel that receives catalog events.
// The channel is buffered; events are dropped for subscribers that fall behind.
func (c *Catalog) Subscribe() <-chan Event {
	ch := make(chan Event, c.bufferSize)
	c.subsMu.Lock()
	c.subscribers = append(c.subscribers, ch)
	c.subsMu.Unlock()
	return ch
}

// Unsubscribe removes and closes a subscriber channel
func (c *Catalog) Unsubscribe(ch <-chan Event) {
	if ch == nil {
		return
	}
	c.subsMu.Lock()
	defer c.subsMu.Unlock()
	for i, sub := range c.subscribers {
		if (<-chan Event)(sub) == ch {
			c.subscribers = append(c.subscribers[:i], c.subscribers[i+1:]...)
			close(sub)
			return
		}
	}
}

func (c *Catalog) publish(event Event) {
	c.subsMu.Lock()
	defer c.subsMu.Unlock()
	for _, sub := range c.subscribers {
		select {
		case sub <- Event{Kind: event.Kind, Book: copyBook(event.Book)}:
		default:
			c.logger.Warn("Dropping catalog event for slow subscriber",
				zap.Stringer("kind", event.Kind),
				zap.String("book_id", event.Book.ID),
			)
		}
	}
}
