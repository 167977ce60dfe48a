// Package chapters provides the chapter list and summary view for the TUI.
package chapters

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/bookwise/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/bookwise/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/bookwise/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/bookwise/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/bookwise/internal/core/domain"
	"github.com/custodia-labs/bookwise/internal/core/ports/driving"
)

// ErrNoSummaryService is reported when summaries are requested without a summary service.
var ErrNoSummaryService = errors.New("chapter summaries are not available")

// View lists a book's chapters and shows the summary of the chosen one.
type View struct {
	styles    *styles.Styles
	keymap    *keymap.KeyMap
	statusbar *status.Bar

	library driving.LibraryService
	summary driving.SummaryService
	ctx     context.Context

	book     domain.BookRecord
	chapters []domain.ChapterRecord
	selected int
	current  *domain.ChapterSummary
	err      error
	width    int
	height   int
	ready    bool
}

// NewView creates a chapter view. summary may be nil.
func NewView(s *styles.Styles, library driving.LibraryService, summary driving.SummaryService) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	km := keymap.DefaultKeyMap()

	return &View{
		styles:    s,
		keymap:    km,
		statusbar: status.NewBar(s, km.ChaptersHelp()),
		library:   library,
		summary:   summary,
		ctx:       context.Background(),
		width:     80,
		height:    24,
	}
}

// WithContext sets the context used for loading.
func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

// SetBook switches the view to book and loads its chapters.
func (v *View) SetBook(book domain.BookRecord) tea.Cmd {
	v.book = book
	v.chapters = nil
	v.selected = 0
	v.current = nil
	v.err = nil
	v.statusbar.SetState(status.StateBusy)
	v.statusbar.SetMessage("Loading chapters...")

	svc := v.library
	ctx := v.ctx
	slug := book.Slug
	return func() tea.Msg {
		chapters, err := svc.Chapters(ctx, slug)
		return messages.ChaptersLoaded{Slug: slug, Chapters: chapters, Err: err}
	}
}

func (v *View) summarise(chapter int) tea.Cmd {
	svc := v.summary
	ctx := v.ctx
	slug := v.book.Slug
	return func() tea.Msg {
		if svc == nil {
			return messages.SummaryLoaded{Slug: slug, Chapter: chapter, Err: ErrNoSummaryService}
		}
		summary, err := svc.SummariseChapter(ctx, slug, chapter)
		return messages.SummaryLoaded{Slug: slug, Chapter: chapter, Summary: summary, Err: err}
	}
}

// Update handles messages for the chapter view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)

	case messages.ChaptersLoaded:
		if msg.Slug != v.book.Slug {
			return v, nil
		}
		if msg.Err != nil {
			v.setError(msg.Err)
			return v, nil
		}
		v.chapters = msg.Chapters
		v.statusbar.SetMessage("")
		v.statusbar.SetCount(len(v.chapters), "chapters")

	case messages.SummaryLoaded:
		if msg.Slug != v.book.Slug {
			return v, nil
		}
		if msg.Err != nil {
			v.setError(msg.Err)
			return v, nil
		}
		v.err = nil
		v.current = msg.Summary
		v.statusbar.SetState(status.StateReady)
		v.statusbar.SetMessage("Summary by " + msg.Summary.Provider)

	case tea.KeyMsg:
		switch {
		case msg.Type == tea.KeyEsc:
			if v.current != nil {
				v.current = nil
				return v, nil
			}
			return v, func() tea.Msg { return messages.ViewChanged{View: messages.ViewLibrary} }
		case keymap.Matches(msg.String(), v.keymap.Up):
			if v.selected > 0 {
				v.selected--
			}
		case keymap.Matches(msg.String(), v.keymap.Down):
			if v.selected < len(v.chapters)-1 {
				v.selected++
			}
		case keymap.Matches(msg.String(), v.keymap.Summarize), keymap.Matches(msg.String(), v.keymap.Select):
			if ch := v.SelectedChapter(); ch != nil {
				v.statusbar.SetState(status.StateBusy)
				v.statusbar.SetMessage(fmt.Sprintf("Summarizing chapter %d...", ch.Number))
				return v, v.summarise(ch.Number)
			}
		}
	}
	return v, nil
}

func (v *View) setError(err error) {
	v.err = err
	v.statusbar.SetState(status.StateError)
	v.statusbar.SetMessage(err.Error())
}

// View renders the chapter list, or the current summary when one is open.
func (v *View) View() string {
	if !v.ready {
		return "Initialising..."
	}

	var b strings.Builder
	b.WriteString(v.styles.Title.Render(v.book.Title))
	if v.book.Author != "" {
		b.WriteString(v.styles.Muted.Render(" by " + v.book.Author))
	}
	b.WriteString("\n\n")

	if v.err != nil {
		b.WriteString(v.styles.Error.Render("Error: " + v.err.Error()))
		b.WriteString("\n\n")
	}

	if v.current != nil {
		b.WriteString(v.renderSummary())
	} else {
		if len(v.chapters) == 0 && v.err == nil {
			b.WriteString(v.styles.Muted.Render("No chapters."))
		}
		for i := range v.chapters {
			ch := &v.chapters[i]
			line := fmt.Sprintf("%3d. %s", ch.Number, ch.Title)
			if i == v.selected {
				b.WriteString("> " + v.styles.Selected.Render(line))
			} else {
				b.WriteString("  " + v.styles.Normal.Render(line))
			}
			b.WriteString("\n")
		}
	}

	b.WriteString("\n\n")
	b.WriteString(v.statusbar.View())
	return b.String()
}

func (v *View) renderSummary() string {
	s := v.current
	var b strings.Builder
	b.WriteString(v.styles.Subtitle.Render(fmt.Sprintf("Chapter %d: %s", s.ChapterNumber, s.ChapterTitle)))
	b.WriteString("\n\n")
	b.WriteString(v.styles.Border.Width(max(v.width-4, 20)).Render(s.Summary))
	if len(s.KeyPoints) > 0 {
		b.WriteString("\n\n")
		b.WriteString(v.styles.Subtitle.Render("Key points"))
		for _, p := range s.KeyPoints {
			b.WriteString("\n  - " + p)
		}
	}
	return b.String()
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true
	v.statusbar.SetWidth(width)
}

// Book returns the book being shown.
func (v *View) Book() domain.BookRecord {
	return v.book
}

// Chapters returns the loaded chapters.
func (v *View) Chapters() []domain.ChapterRecord {
	return v.chapters
}

// SelectedChapter returns the highlighted chapter, or nil when none are loaded.
func (v *View) SelectedChapter() *domain.ChapterRecord {
	if v.selected < 0 || v.selected >= len(v.chapters) {
		return nil
	}
	return &v.chapters[v.selected]
}

// Summary returns the summary on screen, if any.
func (v *View) Summary() *domain.ChapterSummary {
	return v.current
}

// Err returns the last error.
func (v *View) Err() error {
	return v.err
}
