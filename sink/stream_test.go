package sink

import (
	"testing"

	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"
)

func TestStreamWrite(t *testing.T) {

	img := gocv.NewMatWithSize(48, 64, gocv.MatTypeCV8UC3)
	defer img.Close()

	s := NewStream()
	require.Equal(t, "stream", s.Name())
	require.NotNil(t, s.Handler())

	for i := 0; i < 3; i++ {
		require.NoError(t, s.Write(Frame{Index: i, Image: img}))
	}

	require.Equal(t, 3, s.Frames())

	// the stream survives the run closing it
	require.NoError(t, s.Close())
	require.NoError(t, s.Write(Frame{Index: 3, Image: img}))
	require.Equal(t, 4, s.Frames())
}
