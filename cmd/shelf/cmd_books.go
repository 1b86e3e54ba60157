package main

import (
	"encoding/json"
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"picturebook/internal/models"
	"picturebook/internal/shelf"
)

var (
	listFavorites bool
	listJSON      bool
	addID         string
	addCover      string

	newID = defaultNewID
)

var defaultNewID = uuid.NewString

var headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
var cellStyle = lipgloss.NewStyle().Padding(0, 1)

// listCmd prints the shelf
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List books on the shelf",
	Long: `List books newest first, with their favorite star and read count.

Use --favorites to see only starred books.`,
	Args: cobra.NoArgs,
	RunE: runList,
}

// showCmd prints one book
var showCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show one book",
	Args:  cobra.ExactArgs(1),
	RunE:  runShow,
}

// addCmd adds a book to the library
var addCmd = &cobra.Command{
	Use:   "add <title>",
	Short: "Add a book to the library",
	Args:  cobra.ExactArgs(1),
	RunE:  runAdd,
}

// favoriteCmd toggles the favorite star
var favoriteCmd = &cobra.Command{
	Use:   "favorite <id>",
	Short: "Star or unstar a book",
	Args:  cobra.ExactArgs(1),
	RunE:  runFavorite,
}

// readCmd records a reading without opening the viewer
var readCmd = &cobra.Command{
	Use:   "read <id>",
	Short: "Record that a book was read",
	Args:  cobra.ExactArgs(1),
	RunE:  runRead,
}

func runList(cmd *cobra.Command, args []string) error {
	sh := shelf.New(cat)
	if listFavorites {
		sh.SetFilter(models.FilterFavorites)
	}
	items := sh.Items()
	out := cmd.OutOrStdout()

	if listJSON {
		books := make([]models.Book, 0, len(items))
		for _, item := range items {
			books = append(books, item.Book)
		}
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(books)
	}

	fmt.Fprintln(out, headerStyle.Render("📚 "+sh.Title()))
	if len(items) == 0 {
		fmt.Fprintln(out, cellStyle.Render(sh.EmptyText()))
		return nil
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("", "ID", "TITLE", "READ").
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
	for _, item := range items {
		t.Row(star(item.Book), item.Book.ID, item.Book.Title, item.Badge)
	}
	fmt.Fprintln(out, t.String())
	return nil
}

func runShow(cmd *cobra.Command, args []string) error {
	book, err := cat.Get(args[0])
	if err != nil {
		return err
	}
	printBook(cmd, book)
	return nil
}

func runAdd(cmd *cobra.Command, args []string) error {
	id := addID
	if id == "" {
		id = newID()
	}
	book, err := cat.Create(cmd.Context(), id, args[0], addCover)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Added %q as %s\n", book.Title, book.ID)
	return nil
}

func runFavorite(cmd *cobra.Command, args []string) error {
	book, err := cat.ToggleFavorite(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	if book.IsFavorite {
		fmt.Fprintf(cmd.OutOrStdout(), "★ %s added to favorites\n", book.Title)
	} else {
		fmt.Fprintf(cmd.OutOrStdout(), "☆ %s removed from favorites\n", book.Title)
	}
	return nil
}

func runRead(cmd *cobra.Command, args []string) error {
	book, err := cat.IncrementReadCount(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s · %s\n", book.Title, shelf.ReadBadge(book.ReadCount))
	return nil
}

func printBook(cmd *cobra.Command, book models.Book) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s %s\n", star(book), book.Title)
	fmt.Fprintf(out, "  id:        %s\n", book.ID)
	if book.CoverImageName != "" {
		fmt.Fprintf(out, "  cover:     %s\n", book.CoverImageName)
	}
	fmt.Fprintf(out, "  reads:     %d\n", book.ReadCount)
	if book.LastReadAt != nil {
		fmt.Fprintf(out, "  last read: %s\n", book.LastReadAt.Local().Format("2006-01-02 15:04"))
	}
	fmt.Fprintf(out, "  added:     %s\n", book.CreatedAt.Local().Format("2006-01-02 15:04"))
}

func star(book models.Book) string {
	if book.IsFavorite {
		return "★"
	}
	return "☆"
}
