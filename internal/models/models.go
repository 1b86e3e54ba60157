package models

import "time"

// Book represents one picture book on the shelf
type Book struct {
	ID             string     `json:"id" yaml:"id"`
	Title          string     `json:"title" yaml:"title"`
	CoverImageName string     `json:"cover_image_name" yaml:"cover"`
	IsFavorite     bool       `json:"is_favorite" yaml:"-"`
	ReadCount      int        `json:"read_count" yaml:"-"`
	LastReadAt     *time.Time `json:"last_read_at,omitempty" yaml:"-"`
	CreatedAt      time.Time  `json:"created_at" yaml:"-"`
}

// Filter selects which books a shelf listing returns
type Filter int

const (
	FilterAll Filter = iota
	FilterFavorites
)

func (f Filter) String() string {
	if f == FilterFavorites {
		return "favorites"
	}
	return "all"
}

// ParseFilter accepts "all", "favorites" and the empty string (all)
func ParseFilter(s string) (Filter, bool) {
	switch s {
	case "", "all":
		return FilterAll, true
	case "favorites", "favourites", "favorite":
		return FilterFavorites, true
	}
	return FilterAll, false
}

// Matches reports whether the book belongs to the filtered listing
func (f Filter) Matches(b Book) bool {
	return f == FilterAll || b.IsFavorite
}

// Page is one placeholder page of a book
type Page struct {
	Number int
	Text   string
	Hue    float64
}

// Orientation of the reading surface
type Orientation int

const (
	Portrait Orientation = iota
	Landscape
)

func (o Orientation) String() string {
	if o == Landscape {
		return "landscape"
	}
	return "portrait"
}

// Device is the class of reading surface
type Device int

const (
	Phone Device = iota
	Tablet
)

// Layout describes how a page is arranged on screen
type Layout int

const (
	// LayoutImageAndText is a 16:9 illustration with the text underneath
	LayoutImageAndText Layout = iota
	// LayoutImageOnly is a full-screen illustration with the text drawn over it
	LayoutImageOnly
)
