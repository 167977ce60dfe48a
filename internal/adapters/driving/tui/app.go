package tui

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/bookwise/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/bookwise/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/bookwise/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/bookwise/internal/adapters/driving/tui/views/chapters"
	"github.com/custodia-labs/bookwise/internal/adapters/driving/tui/views/library"
	"github.com/custodia-labs/bookwise/internal/adapters/driving/tui/views/menu"
	"github.com/custodia-labs/bookwise/internal/adapters/driving/tui/views/search"
	"github.com/custodia-labs/bookwise/internal/adapters/driving/tui/views/topics"
)

// App is the main TUI application following the Elm architecture.
// It implements tea.Model for use with Bubbletea.
type App struct {
	ports  *Ports
	ctx    context.Context
	styles *styles.Styles

	menuView     *menu.View
	searchView   *search.View
	libraryView  *library.View
	chaptersView *chapters.View
	topicsView   *topics.View // nil without an explore service

	currentView messages.ViewType
	err         error

	width  int
	height int
	ready  bool
}

var _ tea.Model = (*App)(nil)

// NewApp creates a new TUI application with the given ports.
func NewApp(ports *Ports) (*App, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("creating app: %w", err)
	}

	s := styles.DefaultStyles()
	app := &App{
		ports:        ports,
		ctx:          context.Background(),
		styles:       s,
		menuView:     menu.NewView(s, ports.Explore != nil),
		searchView:   search.NewView(s, keymap.DefaultKeyMap(), ports.Search),
		libraryView:  library.NewView(s, ports.Library),
		chaptersView: chapters.NewView(s, ports.Library, ports.Summary),
		currentView:  messages.ViewMenu,
	}
	if ports.Explore != nil {
		app.topicsView = topics.NewView(s, ports.Explore)
	}
	return app, nil
}

// WithContext sets the context every view runs its service calls under.
func (a *App) WithContext(ctx context.Context) *App {
	a.ctx = ctx
	a.searchView.WithContext(ctx)
	a.libraryView.WithContext(ctx)
	a.chaptersView.WithContext(ctx)
	if a.topicsView != nil {
		a.topicsView.WithContext(ctx)
	}
	return a
}

// Init implements tea.Model.
func (a *App) Init() tea.Cmd {
	return tea.SetWindowTitle("bookwise")
}

// Update implements tea.Model.
//
//nolint:gocyclo // central message router
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.SetDimensions(msg.Width, msg.Height)
		return a, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return a, tea.Quit
		}
		if a.currentView == messages.ViewHelp {
			if msg.Type == tea.KeyEsc {
				a.currentView = messages.ViewMenu
			}
			return a, nil
		}
		return a, a.forward(msg)

	case messages.ViewChanged:
		a.currentView = msg.View
		switch msg.View {
		case messages.ViewSearch:
			a.searchView.Reset()
			return a, a.searchView.Init()
		case messages.ViewLibrary:
			return a, a.libraryView.Init()
		case messages.ViewTopics:
			if a.topicsView == nil {
				a.currentView = messages.ViewMenu
				return a, nil
			}
			return a, a.topicsView.Init()
		case messages.ViewMenu, messages.ViewChapters, messages.ViewHelp:
		}
		return a, nil

	case messages.BookSelected:
		a.currentView = messages.ViewChapters
		return a, a.chaptersView.SetBook(msg.Book)

	case messages.SearchCompleted:
		a.searchView, cmd = a.searchView.Update(msg)
		a.err = msg.Err
		return a, cmd

	case messages.BooksLoaded:
		a.libraryView, cmd = a.libraryView.Update(msg)
		return a, cmd

	case messages.ChaptersLoaded, messages.SummaryLoaded:
		a.chaptersView, cmd = a.chaptersView.Update(msg)
		return a, cmd

	case messages.TopicsLoaded:
		if a.topicsView != nil {
			a.topicsView, cmd = a.topicsView.Update(msg)
		}
		return a, cmd

	case messages.ErrorOccurred:
		a.err = msg.Err
		if a.currentView == messages.ViewSearch {
			a.searchView, cmd = a.searchView.Update(msg)
		}
		return a, cmd

	case messages.Quit:
		return a, tea.Quit
	}

	return a, a.forward(msg)
}

// forward hands msg to the active view.
func (a *App) forward(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	switch a.currentView {
	case messages.ViewMenu:
		a.menuView, cmd = a.menuView.Update(msg)
	case messages.ViewSearch:
		a.searchView, cmd = a.searchView.Update(msg)
	case messages.ViewLibrary:
		a.libraryView, cmd = a.libraryView.Update(msg)
	case messages.ViewChapters:
		a.chaptersView, cmd = a.chaptersView.Update(msg)
	case messages.ViewTopics:
		if a.topicsView != nil {
			a.topicsView, cmd = a.topicsView.Update(msg)
		}
	case messages.ViewHelp:
	}
	return cmd
}

// View implements tea.Model.
func (a *App) View() string {
	if !a.ready {
		return "Initialising..."
	}

	switch a.currentView {
	case messages.ViewSearch:
		return a.searchView.View()
	case messages.ViewLibrary:
		return a.libraryView.View()
	case messages.ViewChapters:
		return a.chaptersView.View()
	case messages.ViewTopics:
		if a.topicsView != nil {
			return a.topicsView.View()
		}
	case messages.ViewHelp:
		return a.viewHelp()
	case messages.ViewMenu:
	}
	return a.menuView.View()
}

func (a *App) viewHelp() string {
	return a.styles.Title.Render("Help") + `

Navigation:
  esc         Back
  ctrl+c      Quit

Menu:
  j/k, ↑/↓    Navigate options
  enter       Select option
  q           Quit

Search:
  (type)      Enter a query
  enter       Submit search
  j/k         Move between results
  enter       Show or hide the full passage
  n           New search

Library:
  enter       Open a book
  s, enter    Summarize the highlighted chapter
  esc         Close a summary, then go back

[esc] back to menu`
}

// Run starts the TUI on the alternate screen.
func (a *App) Run() error {
	p := tea.NewProgram(a, tea.WithAltScreen(), tea.WithContext(a.ctx))
	_, err := p.Run()
	return err
}

// CurrentView returns the current view type.
func (a *App) CurrentView() messages.ViewType {
	return a.currentView
}

// Err returns the last error that occurred.
func (a *App) Err() error {
	return a.err
}

// Ready returns whether the app has received its dimensions.
func (a *App) Ready() bool {
	return a.ready
}

// SetDimensions sets the terminal dimensions on every view.
func (a *App) SetDimensions(width, height int) {
	a.width = width
	a.height = height
	a.ready = true
	a.menuView.SetDimensions(width, height)
	a.searchView.SetDimensions(width, height)
	a.libraryView.SetDimensions(width, height)
	a.chaptersView.SetDimensions(width, height)
	if a.topicsView != nil {
		a.topicsView.SetDimensions(width, height)
	}
}
