package cli

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/bookwise/internal/logger"
)

func TestRootCmd_Metadata(t *testing.T) {
	assert.Equal(t, "bookwise", rootCmd.Use)
	assert.True(t, rootCmd.SilenceUsage)
	assert.NotNil(t, rootCmd.PersistentFlags().Lookup("verbose"))
	assert.NotNil(t, rootCmd.PersistentFlags().Lookup("storage"))
}

func TestRootCmd_Subcommands(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{
		"add", "remove", "list", "build", "subjects", "search", "advise", "compare",
		"topics", "concepts", "summarize", "curate", "settings", "mcp", "serve", "tui", "version",
	} {
		assert.True(t, names[want], "missing command %q", want)
	}
}

func TestPrepareCommand_BootstrapsAnnotatedCommands(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	SetServices(&Services{})

	var gotRoot string
	calls := 0
	SetBootstrap(func(_ context.Context, root string) (*Services, error) {
		calls++
		gotRoot = root
		return &Services{
			Library:  ts.library,
			Search:   ts.search,
			Warnings: []string{"summaries fall back to rule-based"},
		}, nil
	})

	out, err := execute(t, "", "subjects", "--storage", "/srv/books")

	require.NoError(t, err)
	assert.Equal(t, 1, calls)
	assert.Equal(t, "/srv/books", gotRoot)
	assert.Contains(t, out, "Warning: summaries fall back to rule-based")
	assert.Equal(t, ts.library, libraryService)
}

func TestPrepareCommand_SkipsUnannotatedCommands(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()
	SetServices(&Services{})

	calls := 0
	SetBootstrap(func(context.Context, string) (*Services, error) {
		calls++
		return &Services{}, nil
	})

	_, err := execute(t, "", "version")

	require.NoError(t, err)
	assert.Zero(t, calls)
}

func TestPrepareCommand_ReusesOpenedServices(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()

	calls := 0
	SetBootstrap(func(context.Context, string) (*Services, error) {
		calls++
		return &Services{}, nil
	})

	_, err := execute(t, "", "subjects")

	require.NoError(t, err)
	assert.Zero(t, calls)
}

func TestPrepareCommand_BootstrapError(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()
	SetServices(&Services{})
	SetBootstrap(func(context.Context, string) (*Services, error) {
		return nil, errors.New("database is locked")
	})

	_, err := execute(t, "", "list")

	assert.EqualError(t, err, "opening library: database is locked")
}

func TestPrepareCommand_Verbose(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()
	defer logger.SetVerbose(false)

	_, err := execute(t, "", "version", "--verbose")

	require.NoError(t, err)
	assert.True(t, logger.IsVerbose())
}

func TestExecute_ClosesServices(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()

	closed := 0
	SetServices(&Services{Close: func() error {
		closed++
		return nil
	}})
	resetFlags(rootCmd)
	rootCmd.SetArgs([]string{"version"})
	rootCmd.SetOut(new(discard))
	defer func() {
		rootCmd.SetArgs(nil)
		rootCmd.SetOut(nil)
	}()

	require.NoError(t, Execute())
	assert.Equal(t, 1, closed)
	assert.Nil(t, closeServices)
}

func TestExecute_ReturnsCloseError(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()

	SetServices(&Services{Close: func() error { return errors.New("flush failed") }})
	resetFlags(rootCmd)
	rootCmd.SetArgs([]string{"version"})
	rootCmd.SetOut(new(discard))
	defer func() {
		rootCmd.SetArgs(nil)
		rootCmd.SetOut(nil)
	}()

	assert.EqualError(t, Execute(), "flush failed")
}

type discard struct{}

func (*discard) Write(p []byte) (int, error) { return len(p), nil }
