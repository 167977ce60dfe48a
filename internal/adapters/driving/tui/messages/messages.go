// Package messages defines Bubbletea message types for the TUI.
// Messages represent events and commands that flow through the Elm architecture.
package messages

import (
	"github.com/custodia-labs/bookwise/internal/core/domain"
)

// SearchCompleted carries search results back to the model.
type SearchCompleted struct {
	Query   string
	Results []domain.SearchResult
	Err     error
}

// ViewChanged is sent when navigating between views.
type ViewChanged struct {
	View ViewType
}

// ViewType identifies which view is currently active.
type ViewType int

const (
	// ViewMenu is the main navigation menu.
	ViewMenu ViewType = iota
	// ViewSearch is the search input and results view.
	ViewSearch
	// ViewLibrary lists the books in the library.
	ViewLibrary
	// ViewChapters lists one book's chapters and shows chapter summaries.
	ViewChapters
	// ViewTopics lists topics extracted from the library.
	ViewTopics
	// ViewHelp is the help/keybindings view.
	ViewHelp
)

// String returns the string representation of the view type.
func (v ViewType) String() string {
	switch v {
	case ViewMenu:
		return "menu"
	case ViewSearch:
		return "search"
	case ViewLibrary:
		return "library"
	case ViewChapters:
		return "chapters"
	case ViewTopics:
		return "topics"
	case ViewHelp:
		return "help"
	default:
		return "unknown"
	}
}

// ErrorOccurred signals that an error happened.
type ErrorOccurred struct {
	Err error
}

// Quit signals the application should exit.
type Quit struct{}

// BooksLoaded carries the library's books.
type BooksLoaded struct {
	Books []domain.BookRecord
	Err   error
}

// BookSelected signals a book was chosen from the library list.
type BookSelected struct {
	Book domain.BookRecord
}

// ChaptersLoaded carries the chapters of one book.
type ChaptersLoaded struct {
	Slug     string
	Chapters []domain.ChapterRecord
	Err      error
}

// SummaryLoaded carries a chapter summary.
type SummaryLoaded struct {
	Slug    string
	Chapter int
	Summary *domain.ChapterSummary
	Err     error
}

// TopicsLoaded carries the topic registry listing.
type TopicsLoaded struct {
	Topics []domain.Topic
	Err    error
}
