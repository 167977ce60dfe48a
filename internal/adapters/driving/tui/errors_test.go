package tui

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrors_ArePrefixed(t *testing.T) {
	for _, err := range []error{ErrMissingSearchService, ErrMissingLibraryService, ErrInvalidPorts} {
		assert.True(t, strings.HasPrefix(err.Error(), "tui: "), err.Error())
	}
}
