// Package library provides the book list view for the TUI.
package library

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/bookwise/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/bookwise/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/bookwise/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/bookwise/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/bookwise/internal/core/domain"
	"github.com/custodia-labs/bookwise/internal/core/ports/driving"
)

// ErrNoLibraryService indicates that no library service was provided.
var ErrNoLibraryService = errors.New("library service is required")

// View lists the books in the library.
type View struct {
	styles    *styles.Styles
	keymap    *keymap.KeyMap
	statusbar *status.Bar

	library driving.LibraryService
	ctx     context.Context

	books    []domain.BookRecord
	selected int
	loading  bool
	err      error
	width    int
	height   int
	ready    bool
}

// NewView creates a new library view.
func NewView(s *styles.Styles, library driving.LibraryService) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	km := keymap.DefaultKeyMap()

	return &View{
		styles:    s,
		keymap:    km,
		statusbar: status.NewBar(s, []key.Binding{km.Up, km.Down, km.Select, km.Back}),
		library:   library,
		ctx:       context.Background(),
		width:     80,
		height:    24,
	}
}

// WithContext sets the context used to load books.
func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

// Init loads the book list.
func (v *View) Init() tea.Cmd {
	v.loading = true
	v.statusbar.SetState(status.StateBusy)
	v.statusbar.SetMessage("Loading books...")
	return v.loadBooks()
}

func (v *View) loadBooks() tea.Cmd {
	svc := v.library
	ctx := v.ctx
	return func() tea.Msg {
		if svc == nil {
			return messages.BooksLoaded{Err: ErrNoLibraryService}
		}
		books, err := svc.ListBooks(ctx, "")
		return messages.BooksLoaded{Books: books, Err: err}
	}
}

// Update handles messages for the library view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)

	case messages.BooksLoaded:
		v.loading = false
		if msg.Err != nil {
			v.err = msg.Err
			v.statusbar.SetState(status.StateError)
			v.statusbar.SetMessage(msg.Err.Error())
			return v, nil
		}
		v.err = nil
		v.books = msg.Books
		v.selected = 0
		v.statusbar.SetMessage("")
		v.statusbar.SetCount(len(v.books), "books")

	case tea.KeyMsg:
		switch {
		case msg.Type == tea.KeyEsc:
			return v, func() tea.Msg { return messages.ViewChanged{View: messages.ViewMenu} }
		case keymap.Matches(msg.String(), v.keymap.Up):
			if v.selected > 0 {
				v.selected--
			}
		case keymap.Matches(msg.String(), v.keymap.Down):
			if v.selected < len(v.books)-1 {
				v.selected++
			}
		case keymap.Matches(msg.String(), v.keymap.Select):
			if book := v.SelectedBook(); book != nil {
				selected := *book
				return v, func() tea.Msg { return messages.BookSelected{Book: selected} }
			}
		}
	}
	return v, nil
}

// View renders the book list.
func (v *View) View() string {
	if !v.ready {
		return "Initialising..."
	}

	var b strings.Builder
	b.WriteString(v.styles.Title.Render("Library"))
	b.WriteString("\n\n")

	switch {
	case v.loading:
		b.WriteString(v.styles.Muted.Render("Loading..."))
	case v.err != nil:
		b.WriteString(v.styles.Error.Render("Error: " + v.err.Error()))
	case len(v.books) == 0:
		b.WriteString(v.styles.Muted.Render("The library is empty. Use 'bookwise add' to add books."))
	default:
		for i := range v.books {
			b.WriteString(v.renderBook(i, &v.books[i]))
			b.WriteString("\n")
		}
	}

	b.WriteString("\n\n")
	b.WriteString(v.statusbar.View())
	return b.String()
}

func (v *View) renderBook(index int, book *domain.BookRecord) string {
	line := fmt.Sprintf("%s by %s", book.Title, book.Author)
	meta := fmt.Sprintf("  [%s] %s, %d chunks", book.Slug, book.Subject, book.ChunkCount)
	if index == v.selected {
		return "> " + v.styles.Selected.Render(line) + v.styles.Muted.Render(meta)
	}
	return "  " + v.styles.Normal.Render(line) + v.styles.Muted.Render(meta)
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true
	v.statusbar.SetWidth(width)
}

// Books returns the loaded books.
func (v *View) Books() []domain.BookRecord {
	return v.books
}

// SelectedBook returns the highlighted book, or nil when the list is empty.
func (v *View) SelectedBook() *domain.BookRecord {
	if v.selected < 0 || v.selected >= len(v.books) {
		return nil
	}
	return &v.books[v.selected]
}

// Err returns the last load error.
func (v *View) Err() error {
	return v.err
}
