package source

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/swdee/vidtrack"
)

func TestParseTarget(t *testing.T) {

	tests := []struct {
		target string
		id     int
		camera bool
	}{
		{"0", 0, true},
		{" 2 ", 2, true},
		{"-1", 0, false},
		{"Test/TestVideo.mp4", 0, false},
		{"", 0, false},
	}

	for _, tt := range tests {
		id, camera := ParseTarget(tt.target)
		require.Equal(t, tt.camera, camera, tt.target)
		require.Equal(t, tt.id, id, tt.target)
	}
}

func TestOpenMissingFile(t *testing.T) {

	_, err := Open(filepath.Join(t.TempDir(), "missing.mp4"))
	require.Error(t, err)
	require.True(t, errors.Is(err, vidtrack.ErrSourceUnavailable))
}
