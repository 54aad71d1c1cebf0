package sink

import (
	"fmt"
	"net/http"

	"github.com/hybridgroup/mjpeg"
	"github.com/swdee/vidtrack"
	"gocv.io/x/gocv"
)

// Stream serves the annotated frames as an MJPEG stream over HTTP.  One
// Stream outlives the runs writing to it.
type Stream struct {
	stream *mjpeg.Stream
	frames int
}

// NewStream returns a Stream with no frame yet
func NewStream() *Stream {
	return &Stream{stream: mjpeg.NewStream()}
}

// Handler returns the HTTP handler browsers connect to
func (s *Stream) Handler() http.Handler {
	return s.stream
}

// Name of the sink
func (s *Stream) Name() string {
	return "stream"
}

// Write JPEG encodes the frame and publishes it to connected clients
func (s *Stream) Write(f Frame) error {

	buf, err := gocv.IMEncode(gocv.JPEGFileExt, f.Image)

	if err != nil {
		return fmt.Errorf("%w: stream: %v", vidtrack.ErrSinkWrite, err)
	}

	defer buf.Close()

	s.stream.UpdateJPEG(buf.GetBytes())
	s.frames++

	return nil
}

// Frames returns the number of frames published
func (s *Stream) Frames() int {
	return s.frames
}

// Close leaves the stream open for the next run
func (s *Stream) Close() error {
	return nil
}
