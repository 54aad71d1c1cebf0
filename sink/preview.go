package sink

import (
	"github.com/swdee/vidtrack"
	"gocv.io/x/gocv"
)

// Preview shows annotated frames in a desktop window.  Pressing q in the
// window stops the run.
type Preview struct {
	window *gocv.Window
}

// NewPreview opens a resizable window of width x height
func NewPreview(title string, width, height int) *Preview {

	w := gocv.NewWindow(title)
	w.ResizeWindow(width, height)

	return &Preview{window: w}
}

// Name of the sink
func (p *Preview) Name() string {
	return "preview"
}

// Write shows the frame and polls the keyboard
func (p *Preview) Write(f Frame) error {

	p.window.IMShow(f.Image)

	if key := p.window.WaitKey(1); key == 'q' || key == 'Q' {
		return vidtrack.ErrUserInterrupt
	}

	return nil
}

// Close destroys the window
func (p *Preview) Close() error {
	return p.window.Close()
}
