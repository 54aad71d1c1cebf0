package pipeline

import (
	"time"

	"github.com/sirupsen/logrus"
	"github.com/swdee/vidtrack"
	"github.com/swdee/vidtrack/detector"
	"github.com/swdee/vidtrack/sink"
	"github.com/swdee/vidtrack/source"
	"github.com/swdee/vidtrack/tracker"
	"gocv.io/x/gocv"
)

// Source delivers the frames of a run
type Source interface {
	// Next reads the next frame into dst, returning ErrEndOfStream when
	// there are no more frames
	Next(dst *gocv.Mat) error
	Width() int
	Height() int
	FPS() float64
	Close() error
}

// Detector finds objects in a frame and reports the model inference time
type Detector interface {
	Detect(frame gocv.Mat) ([]vidtrack.Detection, time.Duration, error)
	Close() error
}

// Tracker assigns persistent identities to detections
type Tracker interface {
	Update(dets []vidtrack.Detection, frame gocv.Mat) (vidtrack.Tracks, error)
	Close() error
}

// Deps are the constructors a Controller builds its run from
type Deps struct {
	Log            *logrus.Entry
	OpenSource     func(target string) (Source, error)
	NewDetector    func(p Params) (Detector, error)
	NewTracker     func(p Params) (Tracker, error)
	NewVideoWriter func(dir, fourcc string, fps float64, width, height int) (sink.Sink, error)
	NewPreview     func(title string, width, height int) sink.Sink
	// NewPublisher optionally connects a sink publishing the tracks of the
	// given source, nil disables publishing
	NewPublisher func(source string) (sink.Sink, error)
	// Sinks are extra non fatal sinks written alongside the built in ones,
	// they are closed with the run
	Sinks []sink.Sink
}

// DefaultDeps returns the production constructors: gocv capture, ONNX
// detector, DeepSort tracker, gocv video writer and window
func DefaultDeps(log *logrus.Entry) Deps {
	return Deps{
		Log: log,
		OpenSource: func(target string) (Source, error) {
			return source.Open(target)
		},
		NewDetector: func(p Params) (Detector, error) {
			return detector.Load(p.Weights, p.Device, detector.Params{
				Size:          p.ImgSize,
				ConfThreshold: p.ConfThres,
				IoUThreshold:  p.IoUThres,
				Classes:       p.Classes,
				Agnostic:      p.AgnosticNMS,
			})
		},
		NewTracker: func(p Params) (Tracker, error) {

			accel, err := detector.ParseDevice(p.Device)

			if err != nil {
				return nil, err
			}

			cfg, err := tracker.LoadConfig(p.ConfigDeepSort)

			if err != nil {
				return nil, err
			}

			return tracker.New(cfg, accel)
		},
		NewVideoWriter: func(dir, fourcc string, fps float64, width, height int) (sink.Sink, error) {
			return sink.NewVideoWriter(dir, fourcc, fps, width, height)
		},
		NewPreview: func(title string, width, height int) sink.Sink {
			return sink.NewPreview(title, width, height)
		},
	}
}
