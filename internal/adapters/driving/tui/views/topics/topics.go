// Package topics provides the topic listing view for the TUI.
package topics

import (
	"context"
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

// View lists the topics registered for the library.
type View struct {
	styles    *styles.Styles
	keymap    *keymap.KeyMap
	statusbar *status.Bar

	explore driving.ExploreService
	ctx     context.Context

	topics   []domain.Topic
	selected int
	offset   int
	err      error
	width    int
	height   int
	ready    bool
}

// NewView creates a topics view.
func NewView(s *styles.Styles, explore driving.ExploreService) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	km := keymap.DefaultKeyMap()

	return &View{
		styles:    s,
		keymap:    km,
		statusbar: status.NewBar(s, []key.Binding{km.Up, km.Down, km.Back}),
		explore:   explore,
		ctx:       context.Background(),
		width:     80,
		height:    24,
	}
}

// WithContext sets the context used to load topics.
func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

// Init loads every topic.
func (v *View) Init() tea.Cmd {
	v.statusbar.SetState(status.StateBusy)
	v.statusbar.SetMessage("Loading topics...")
	svc := v.explore
	ctx := v.ctx
	return func() tea.Msg {
		topics, err := svc.Topics(ctx, "", "")
		return messages.TopicsLoaded{Topics: topics, Err: err}
	}
}

// Update handles messages for the topics view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)

	case messages.TopicsLoaded:
		if msg.Err != nil {
			v.err = msg.Err
			v.statusbar.SetState(status.StateError)
			v.statusbar.SetMessage(msg.Err.Error())
			return v, nil
		}
		v.err = nil
		v.topics = msg.Topics
		v.selected = 0
		v.offset = 0
		v.statusbar.SetMessage("")
		v.statusbar.SetCount(len(v.topics), "topics")

	case tea.KeyMsg:
		switch {
		case msg.Type == tea.KeyEsc:
			return v, func() tea.Msg { return messages.ViewChanged{View: messages.ViewMenu} }
		case keymap.Matches(msg.String(), v.keymap.Up):
			if v.selected > 0 {
				v.selected--
			}
		case keymap.Matches(msg.String(), v.keymap.Down):
			if v.selected < len(v.topics)-1 {
				v.selected++
			}
		}
		v.scroll()
	}
	return v, nil
}

// scroll keeps the selection inside the visible window.
func (v *View) scroll() {
	rows := v.visibleRows()
	if v.selected < v.offset {
		v.offset = v.selected
	}
	if v.selected >= v.offset+rows {
		v.offset = v.selected - rows + 1
	}
}

func (v *View) visibleRows() int {
	return max(v.height-6, 1)
}

// View renders the topic table.
func (v *View) View() string {
	if !v.ready {
		return "Initialising..."
	}

	var b strings.Builder
	b.WriteString(v.styles.Title.Render("Topics"))
	b.WriteString("\n\n")

	switch {
	case v.err != nil:
		b.WriteString(v.styles.Error.Render("Error: " + v.err.Error()))
	case len(v.topics) == 0:
		b.WriteString(v.styles.Muted.Render("No topics found. Add books with --extract-topics."))
	default:
		end := min(v.offset+v.visibleRows(), len(v.topics))
		for i := v.offset; i < end; i++ {
			t := &v.topics[i]
			line := fmt.Sprintf("%-30s %3d book(s) %5d chunk(s)", t.DisplayName, t.BookCount, t.ChunkCount)
			if i == v.selected {
				b.WriteString("> " + v.styles.Selected.Render(line))
			} else {
				b.WriteString("  " + v.styles.Normal.Render(line))
			}
			b.WriteString(v.styles.Muted.Render("  " + t.Subject))
			b.WriteString("\n")
		}
	}

	b.WriteString("\n\n")
	b.WriteString(v.statusbar.View())
	return b.String()
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true
	v.statusbar.SetWidth(width)
}

// Topics returns the loaded topics.
func (v *View) Topics() []domain.Topic {
	return v.topics
}

// Selected returns the highlighted index.
func (v *View) Selected() int {
	return v.selected
}

// Err returns the last load error.
func (v *View) Err() error {
	return v.err
}
