package sink

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/swdee/vidtrack"
	"gocv.io/x/gocv"
)

// ExtensionFor returns the container file extension matching a FourCC codec
func ExtensionFor(fourcc string) string {
	switch strings.ToLower(fourcc) {
	case "mp4v", "avc1", "h264":
		return "mp4"
	case "mjpg", "xvid", "divx":
		return "avi"
	default:
		return "mp4"
	}
}

// VideoWriter encodes annotated frames into <dir>/results.<ext>
type VideoWriter struct {
	vw     *gocv.VideoWriter
	path   string
	width  int
	height int
	closed bool
}

// NewVideoWriter creates the output directory and opens the video file.  The
// frame rate and frame size are fixed for the life of the writer.
func NewVideoWriter(dir, fourcc string, fps float64, width, height int) (*VideoWriter, error) {

	if len(fourcc) != 4 {
		return nil, fmt.Errorf("invalid fourcc %q, must be 4 characters", fourcc)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("error creating video directory: %w", err)
	}

	path := filepath.Join(dir, "results."+ExtensionFor(fourcc))

	vw, err := gocv.VideoWriterFile(path, fourcc, fps, width, height, true)

	if err != nil {
		return nil, fmt.Errorf("error opening video writer %s: %w", path, err)
	}

	if !vw.IsOpened() {
		vw.Close()
		return nil, fmt.Errorf("video writer %s could not be opened with codec %s", path, fourcc)
	}

	return &VideoWriter{
		vw:     vw,
		path:   path,
		width:  width,
		height: height,
	}, nil
}

// Name of the sink
func (v *VideoWriter) Name() string {
	return "video"
}

// Path of the video file
func (v *VideoWriter) Path() string {
	return v.path
}

// Write appends the frame to the video
func (v *VideoWriter) Write(f Frame) error {

	if f.Image.Cols() != v.width || f.Image.Rows() != v.height {
		return fmt.Errorf("%w: video: frame is %dx%d, writer expects %dx%d",
			vidtrack.ErrSinkWrite, f.Image.Cols(), f.Image.Rows(), v.width, v.height)
	}

	if err := v.vw.Write(f.Image); err != nil {
		return fmt.Errorf("%w: video: %v", vidtrack.ErrSinkWrite, err)
	}

	return nil
}

// Close finalises the video file
func (v *VideoWriter) Close() error {

	if v.closed {
		return nil
	}

	v.closed = true

	return v.vw.Close()
}
