package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	"github.com/desertthunder/booksearch/internal/models"
)

var _ list.Item = bookItem{}

// bookItem wraps [models.Book] to implement [list.Item].
type bookItem struct {
	book models.Book
}

func (i bookItem) FilterValue() string { return i.book.Title }
func (i bookItem) Title() string       { return i.book.DisplayTitle() }
func (i bookItem) Description() string {
	desc := i.book.DisplayAuthor()
	if i.book.FirstPublishYear > 0 {
		desc = fmt.Sprintf("%s • %d", desc, i.book.FirstPublishYear)
	}
	return desc
}

func toItems(books []models.Book) []list.Item {
	items := make([]list.Item, len(books))
	for i, b := range books {
		items[i] = bookItem{book: b}
	}
	return items
}
