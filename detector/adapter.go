package detector

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/swdee/vidtrack"
	"github.com/swdee/vidtrack/postprocess"
	"github.com/swdee/vidtrack/preprocess"
	"gocv.io/x/gocv"
)

// Stride is the largest downsampling factor of the YOLO network, input sizes
// must be a multiple of it
const Stride = 32

// CheckSize rounds the image size up to the nearest multiple of Stride
func CheckSize(size int) int {

	if size < Stride {
		return Stride
	}

	return int(math.Ceil(float64(size)/Stride)) * Stride
}

// Params configures a detection pass
type Params struct {
	// Size is the square model input size in pixels
	Size int
	// ConfThreshold is the minimum confidence a detection needs
	ConfThreshold float32
	// IoUThreshold is the overlap above which NMS suppresses a box
	IoUThreshold float32
	// Classes is the allow-list of class indexes, empty allows all
	Classes []int
	// Agnostic runs NMS across all classes together
	Agnostic bool
	// MaxDetections caps the detections per frame, zero uses
	// postprocess.DefaultMaxDetections
	MaxDetections int
}

// Adapter runs a Model over full video frames.  It letterboxes each frame to
// the model input, suppresses overlapping candidates and maps the survivors
// back into frame coordinates.
type Adapter struct {
	model   Model
	owned   bool
	params  Params
	resizer *preprocess.Resizer
	input   gocv.Mat
}

// NewAdapter returns an Adapter for the model, the input size is rounded up
// with CheckSize
func NewAdapter(model Model, p Params) *Adapter {

	p.Size = CheckSize(p.Size)

	if p.MaxDetections <= 0 {
		p.MaxDetections = postprocess.DefaultMaxDetections
	}

	return &Adapter{
		model:  model,
		params: p,
		input:  gocv.NewMat(),
	}
}

// Load opens the ONNX model weights on the device and returns an Adapter
// owning the model
func Load(weights, device string, p Params) (*Adapter, error) {

	net, err := NewNet(weights, device)

	if err != nil {
		return nil, err
	}

	a := NewAdapter(net, p)
	a.owned = true

	return a, nil
}

// Params returns the effective detection parameters
func (a *Adapter) Params() Params {
	return a.params
}

// Detect finds objects in the frame.  The frame is not modified.  The
// returned duration is the time spent in model inference.
func (a *Adapter) Detect(frame gocv.Mat) ([]vidtrack.Detection, time.Duration, error) {

	if frame.Empty() {
		return nil, 0, fmt.Errorf("%w: empty frame", vidtrack.ErrInference)
	}

	if a.resizer == nil || !a.resizer.Matches(frame.Cols(), frame.Rows()) {

		if a.resizer != nil {
			a.resizer.Close()
		}

		a.resizer = preprocess.NewResizer(frame.Cols(), frame.Rows(),
			a.params.Size, a.params.Size)
	}

	a.resizer.LetterBoxResize(frame, &a.input, preprocess.Neutral)

	start := time.Now()
	cands, err := a.model.Infer(a.input)
	elapsed := time.Since(start)

	if err != nil {
		return nil, elapsed, fmt.Errorf("%w: %v", vidtrack.ErrInference, err)
	}

	cands = postprocess.NMS(cands, postprocess.NMSParams{
		ConfThreshold: a.params.ConfThreshold,
		IoUThreshold:  a.params.IoUThreshold,
		Agnostic:      a.params.Agnostic,
		MaxDetections: a.params.MaxDetections,
	})

	cands = postprocess.FilterClasses(cands, a.params.Classes)

	dets := make([]vidtrack.Detection, 0, len(cands))

	for _, c := range cands {

		x1, y1, x2, y2 := a.resizer.RestoreBox(c.Box.Left, c.Box.Top,
			c.Box.Right, c.Box.Bottom)

		x1, y1 = round32(x1), round32(y1)
		x2, y2 = round32(x2), round32(y2)

		// nothing left of the box once clipped to the frame
		if x2 <= x1 || y2 <= y1 {
			continue
		}

		dets = append(dets, vidtrack.Detection{
			Box:        vidtrack.CornersToCenter(x1, y1, x2, y2),
			Confidence: c.Probability,
			Class:      c.Class,
		})
	}

	return dets, elapsed, nil
}

func round32(v float32) float32 {
	return float32(math.Round(float64(v)))
}

// Close frees the letterbox buffers, and the model when it was opened by
// Load
func (a *Adapter) Close() error {

	var errs []error

	if a.resizer != nil {
		errs = append(errs, a.resizer.Close())
		a.resizer = nil
	}

	if a.owned {
		errs = append(errs, a.model.Close())
	}

	errs = append(errs, a.input.Close())

	return errors.Join(errs...)
}
