package sink

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/swdee/vidtrack"
)

func TestTextRecord(t *testing.T) {

	dir := filepath.Join(t.TempDir(), "predict")

	rec, err := NewTextRecord(dir)
	require.NoError(t, err)

	tracks := vidtrack.Tracks{
		{Box: vidtrack.XYXY{X1: 1, Y1: 2, X2: 30, Y2: 40}, ID: 7},
		{Box: vidtrack.XYXY{X1: 5, Y1: 6, X2: 70, Y2: 80}, ID: 9},
	}

	require.NoError(t, rec.Write(Frame{Index: 12, Tracks: tracks}))

	data, err := os.ReadFile(filepath.Join(dir, "0012.txt"))
	require.NoError(t, err)
	require.Equal(t, "1\t2\t30\t40\t7\n5\t6\t70\t80\t9\n", string(data))

	// a second run replaces the record instead of appending to it
	require.NoError(t, rec.Write(Frame{Index: 12, Tracks: tracks[:1]}))

	data, err = os.ReadFile(rec.Path(12))
	require.NoError(t, err)
	require.Equal(t, "1\t2\t30\t40\t7\n", string(data))

	// frames without tracks still get an empty record
	require.NoError(t, rec.Write(Frame{Index: 13}))

	data, err = os.ReadFile(rec.Path(13))
	require.NoError(t, err)
	require.Empty(t, data)

	require.NoError(t, rec.Close())
}

func TestTextRecordWriteFailure(t *testing.T) {

	dir := t.TempDir()

	rec, err := NewTextRecord(dir)
	require.NoError(t, err)

	// a directory squatting on the record name makes the write fail
	require.NoError(t, os.Mkdir(rec.Path(0), 0o755))

	err = rec.Write(Frame{Index: 0})
	require.ErrorIs(t, err, vidtrack.ErrSinkWrite)
}

func TestTextRecordBadDirectory(t *testing.T) {

	file := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(file, nil, 0o644))

	_, err := NewTextRecord(filepath.Join(file, "predict"))
	require.Error(t, err)
}
