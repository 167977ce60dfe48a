package topics

import (
	"context"
	"errors"
	"fmt"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/bookwise/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/bookwise/internal/core/domain"
	"github.com/custodia-labs/bookwise/internal/core/ports/driving"
)

type mockExplore struct {
	driving.ExploreService
	topics []domain.Topic
	err    error
}

func (m *mockExplore) Topics(context.Context, string, string) ([]domain.Topic, error) {
	return m.topics, m.err
}

func manyTopics(n int) []domain.Topic {
	out := make([]domain.Topic, n)
	for i := range out {
		out[i] = domain.Topic{ID: fmt.Sprintf("t%d", i), DisplayName: fmt.Sprintf("Topic %d", i), Subject: "general", BookCount: 1, ChunkCount: i}
	}
	return out
}

func loaded(t *testing.T, exp *mockExplore, height int) *View {
	t.Helper()
	v := NewView(nil, exp)
	v.SetDimensions(120, height)
	cmd := v.Init()
	require.NotNil(t, cmd)
	v.Update(cmd())
	return v
}

func TestView_LoadsTopics(t *testing.T) {
	v := loaded(t, &mockExplore{topics: manyTopics(3)}, 30)

	assert.Len(t, v.Topics(), 3)
	out := v.View()
	assert.Contains(t, out, "Topic 2")
	assert.Contains(t, out, "3 topics")
}

func TestView_Empty(t *testing.T) {
	v := loaded(t, &mockExplore{}, 30)

	assert.Contains(t, v.View(), "No topics found.")
}

func TestView_Error(t *testing.T) {
	v := loaded(t, &mockExplore{err: errors.New("registry closed")}, 30)

	assert.EqualError(t, v.Err(), "registry closed")
	assert.Contains(t, v.View(), "Error: registry closed")
}

func TestView_ScrollsWithSelection(t *testing.T) {
	v := loaded(t, &mockExplore{topics: manyTopics(20)}, 10)

	for range 10 {
		v.Update(tea.KeyMsg{Type: tea.KeyDown})
	}

	assert.Equal(t, 10, v.Selected())
	out := v.View()
	assert.Contains(t, out, "Topic 10")
	assert.NotContains(t, out, "Topic 0 ")

	for range 15 {
		v.Update(tea.KeyMsg{Type: tea.KeyUp})
	}
	assert.Equal(t, 0, v.Selected())
	assert.Contains(t, v.View(), "Topic 0 ")
}

func TestView_EscGoesToMenu(t *testing.T) {
	v := loaded(t, &mockExplore{}, 30)

	_, cmd := v.Update(tea.KeyMsg{Type: tea.KeyEsc})

	assert.Equal(t, messages.ViewChanged{View: messages.ViewMenu}, cmd())
}
