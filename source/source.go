// Package source reads frames from a video file or a camera device.
package source

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/swdee/vidtrack"
	"gocv.io/x/gocv"
)

const (
	// DefaultFPS is reported when a camera does not advertise its frame rate
	DefaultFPS = 30
	// maxEmptyReads is the number of consecutive empty frames tolerated
	// before the stream is treated as finished
	maxEmptyReads = 100
)

// Capture is an opened video source
type Capture struct {
	vc     *gocv.VideoCapture
	camera bool
	width  int
	height int
	fps    float64
	closed bool
}

// ParseTarget reports whether the target names a camera device index and
// returns that index
func ParseTarget(target string) (int, bool) {

	id, err := strconv.Atoi(strings.TrimSpace(target))

	if err != nil || id < 0 {
		return 0, false
	}

	return id, true
}

// Open opens the target, a non negative integer selects a camera device and
// anything else is treated as a video file path
func Open(target string) (*Capture, error) {

	var vc *gocv.VideoCapture
	var err error

	device, camera := ParseTarget(target)

	if camera {
		vc, err = gocv.OpenVideoCapture(device)
	} else {
		if _, serr := os.Stat(target); serr != nil {
			return nil, fmt.Errorf("%w: %s: %v", vidtrack.ErrSourceUnavailable, target, serr)
		}

		vc, err = gocv.VideoCaptureFile(target)
	}

	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", vidtrack.ErrSourceUnavailable, target, err)
	}

	if !vc.IsOpened() {
		vc.Close()
		return nil, fmt.Errorf("%w: %s: could not be opened", vidtrack.ErrSourceUnavailable, target)
	}

	c := &Capture{
		vc:     vc,
		camera: camera,
		width:  int(vc.Get(gocv.VideoCaptureFrameWidth)),
		height: int(vc.Get(gocv.VideoCaptureFrameHeight)),
		fps:    vc.Get(gocv.VideoCaptureFPS),
	}

	if c.fps <= 0 {
		c.fps = DefaultFPS
	}

	return c, nil
}

// Next reads the next frame into dst.  ErrEndOfStream is returned once the
// file is exhausted or the camera stops delivering frames.
func (c *Capture) Next(dst *gocv.Mat) error {

	if c.closed {
		return errors.New("read from closed capture")
	}

	for empty := 0; empty < maxEmptyReads; empty++ {

		if ok := c.vc.Read(dst); !ok {
			return vidtrack.ErrEndOfStream
		}

		// cameras can hand back empty frames while warming up
		if !dst.Empty() {
			return nil
		}
	}

	return vidtrack.ErrEndOfStream
}

// Width of the frames in pixels
func (c *Capture) Width() int {
	return c.width
}

// Height of the frames in pixels
func (c *Capture) Height() int {
	return c.height
}

// FPS is the frame rate of the source
func (c *Capture) FPS() float64 {
	return c.fps
}

// IsCamera reports whether the source is a camera device
func (c *Capture) IsCamera() bool {
	return c.camera
}

// Close releases the device or file handle, closing twice is a no-op
func (c *Capture) Close() error {

	if c.closed {
		return nil
	}

	c.closed = true

	return c.vc.Close()
}
