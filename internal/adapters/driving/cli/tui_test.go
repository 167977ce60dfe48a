package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/bookwise/internal/adapters/driving/tui"
)

func TestTUICmd_Metadata(t *testing.T) {
	assert.Equal(t, "tui", tuiCmd.Use)
	assert.Equal(t, "true", tuiCmd.Annotations[annotationLibrary])
	assert.Contains(t, tuiCmd.Long, "Summarize chapter")
}

func TestTUIPorts_FromServices(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()

	ports := tuiPorts()

	require.NoError(t, ports.Validate())
	assert.Same(t, ts.search, ports.Search)
	assert.Same(t, ts.library, ports.Library)
	assert.Same(t, ts.explore, ports.Explore)
	assert.Same(t, ts.summary, ports.Summary)
}

func TestTUIPorts_WithoutLibrary(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()
	SetServices(&Services{})

	err := tuiPorts().Validate()

	assert.ErrorIs(t, err, tui.ErrMissingSearchService)
}

func TestRunTUI_FailsWithoutServices(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()
	SetServices(&Services{})

	_, err := execute(t, "", "tui")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to create TUI")
}
