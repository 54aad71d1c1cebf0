// Package sink delivers annotated frames and their tracks to outputs such
// as a preview window, an MJPEG stream, a video file, text records and an
// MQTT broker.
package sink

import (
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/swdee/vidtrack"
	"gocv.io/x/gocv"
)

// Frame is one processed video frame handed to the sinks
type Frame struct {
	// Index is the zero based frame number of the run
	Index int
	// Image is the annotated frame, sinks must not modify or retain it
	Image gocv.Mat
	// Tracks output for the frame
	Tracks vidtrack.Tracks
	// FPS is the processing rate measured by the pipeline
	FPS float64
}

// Sink consumes processed frames
type Sink interface {
	Name() string
	Write(f Frame) error
	Close() error
}

// entry is a sink registered with a Fanout
type entry struct {
	sink  Sink
	fatal bool
}

// Fanout writes every frame to all of its sinks.  A failing sink is logged
// and does not stop the others.
type Fanout struct {
	entries []entry
	log     *logrus.Entry
}

// NewFanout returns an empty Fanout logging sink failures to log
func NewFanout(log *logrus.Entry) *Fanout {
	return &Fanout{log: log}
}

// Add registers a sink.  A write failure of a fatal sink aborts the run.
func (f *Fanout) Add(s Sink, fatal bool) {
	f.entries = append(f.entries, entry{sink: s, fatal: fatal})
}

// Len returns the number of registered sinks
func (f *Fanout) Len() int {
	return len(f.entries)
}

// Write hands the frame to each sink.  It returns ErrUserInterrupt when a
// sink asked to stop and an ErrSinkWrite error when a fatal sink failed,
// failures of other sinks are only logged.
func (f *Fanout) Write(fr Frame) error {

	var fatalErr error
	interrupted := false

	for _, e := range f.entries {

		err := e.sink.Write(fr)

		if err == nil {
			continue
		}

		if errors.Is(err, vidtrack.ErrUserInterrupt) {
			interrupted = true
			continue
		}

		if !errors.Is(err, vidtrack.ErrSinkWrite) {
			err = fmt.Errorf("%w: %s: %v", vidtrack.ErrSinkWrite, e.sink.Name(), err)
		}

		f.log.WithFields(logrus.Fields{
			"sink":  e.sink.Name(),
			"frame": fr.Index,
		}).WithError(err).Warn("Sink write failed")

		if e.fatal && fatalErr == nil {
			fatalErr = err
		}
	}

	if fatalErr != nil {
		return fatalErr
	}

	if interrupted {
		return vidtrack.ErrUserInterrupt
	}

	return nil
}

// Close closes every sink, all are closed even when some fail
func (f *Fanout) Close() error {

	var errs []error

	for _, e := range f.entries {
		if err := e.sink.Close(); err != nil {
			errs = append(errs, fmt.Errorf("closing %s: %w", e.sink.Name(), err))
		}
	}

	f.entries = nil

	return errors.Join(errs...)
}
