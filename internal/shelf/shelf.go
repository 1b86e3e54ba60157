// Package shelf is the book grid a reader picks from: every book, or only
// the favorites, with favorite toggling and opening a book in the viewer.
package shelf

import (
	"context"
	"fmt"

	"picturebook/internal/catalog"
	"picturebook/internal/models"
	"picturebook/internal/viewer"
)

// Item is one book on the shelf
type Item struct {
	Book  models.Book
	Badge string
}

// Shelf is the per-reader view over a shared catalog
type Shelf struct {
	catalog       *catalog.Catalog
	favoritesOnly bool
	viewerOpts    []viewer.Option
}

// New creates a shelf showing every book
func New(c *catalog.Catalog, viewerOpts ...viewer.Option) *Shelf {
	return &Shelf{catalog: c, viewerOpts: viewerOpts}
}

// Filter returns the active filter
func (s *Shelf) Filter() models.Filter {
	if s.favoritesOnly {
		return models.FilterFavorites
	}
	return models.FilterAll
}

// ToggleFilter switches between all books and favorites
func (s *Shelf) ToggleFilter() models.Filter {
	s.favoritesOnly = !s.favoritesOnly
	return s.Filter()
}

// SetFilter selects the filter directly
func (s *Shelf) SetFilter(f models.Filter) {
	s.favoritesOnly = f == models.FilterFavorites
}

// Title is the heading shown above the grid
func (s *Shelf) Title() string {
	if s.favoritesOnly {
		return "Favorite picture books"
	}
	return "All picture books"
}

// EmptyText is shown when the grid has no books
func (s *Shelf) EmptyText() string {
	if s.favoritesOnly {
		return "No favorite picture books yet"
	}
	return "No picture books yet"
}

// Items returns the books to display under the active filter
func (s *Shelf) Items() []Item {
	books := s.catalog.List(s.Filter())
	items := make([]Item, 0, len(books))
	for _, b := range books {
		items = append(items, Item{Book: b, Badge: ReadBadge(b.ReadCount)})
	}
	return items
}

// ReadBadge labels how often a book was read; empty for unread books
func ReadBadge(readCount int) string {
	if readCount <= 0 {
		return ""
	}
	return fmt.Sprintf("Read %d×", readCount)
}

// ToggleFavorite flips the favorite star of a book
func (s *Shelf) ToggleFavorite(ctx context.Context, id string) (models.Book, error) {
	return s.catalog.ToggleFavorite(ctx, id)
}

// Open opens a book in the viewer, recording the read
func (s *Shelf) Open(ctx context.Context, id string, opts ...viewer.Option) (*viewer.Viewer, error) {
	all := make([]viewer.Option, 0, len(s.viewerOpts)+len(opts))
	all = append(all, s.viewerOpts...)
	all = append(all, opts...)
	return viewer.Open(ctx, s.catalog, id, all...)
}
