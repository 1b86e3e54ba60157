package viewer

import (
	"fmt"

	"picturebook/internal/models"
)

// DefaultPageCount is the number of placeholder pages every book has
const DefaultPageCount = 5

// Pages builds the placeholder pages of a book
func Pages(book models.Book, total int) []models.Page {
	if total < 1 {
		total = 1
	}
	pages := make([]models.Page, total)
	for i := range pages {
		n := i + 1
		pages[i] = models.Page{
			Number: n,
			Text:   pageText(book.Title, n),
			Hue:    float64(n) / float64(total),
		}
	}
	return pages
}

func pageText(title string, n int) string {
	switch n {
	case 1:
		return fmt.Sprintf("Once upon a time, somewhere far away,\nthere was %s.", title)
	case 2:
		return "One day,\nsomething very strange happened."
	case 3:
		return "Everyone joined hands\nand tried their very best."
	case 4:
		return "And at last,\ntheir wish came true."
	case 5:
		return "They all lived happily ever after.\nThe end."
	}
	return fmt.Sprintf("Text for page %d", n)
}

// LayoutFor returns how pages are arranged for an orientation
func LayoutFor(o models.Orientation) models.Layout {
	if o == models.Landscape {
		return models.LayoutImageOnly
	}
	return models.LayoutImageAndText
}
