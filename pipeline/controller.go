package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/swdee/vidtrack"
	"github.com/swdee/vidtrack/detector"
	"github.com/swdee/vidtrack/render"
	"github.com/swdee/vidtrack/sink"
	"gocv.io/x/gocv"
)

const (
	// trailSize is the number of center points drawn behind each track
	trailSize = 30
	// previewTitle is the preview window name
	previewTitle = "vidtrack"
)

// Controller owns the resources of one tracking run and drives its frame
// loop.  A Controller is used once: Open, Run, Close.
type Controller struct {
	params Params
	deps   Deps
	log    *logrus.Entry
	runID  string
	state  State

	src    Source
	det    Detector
	trk    Tracker
	sinks  *sink.Fanout
	annot  *render.Annotator
	labels vidtrack.Labels
	frame  gocv.Mat
	hasMat bool

	last    LastTracks
	stats   Stats
	started time.Time
	summary Summary
}

// NewController returns a Controller for a run with the given parameters
func NewController(p Params, deps Deps) *Controller {

	log := deps.Log

	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}

	runID := uuid.New().String()

	return &Controller{
		params: p,
		deps:   deps,
		runID:  runID,
		log: log.WithFields(logrus.Fields{
			"run":    runID,
			"source": p.Target(),
		}),
		state: Uninitialized,
	}
}

// State returns the current lifecycle state
func (c *Controller) State() State {
	return c.state
}

// RunID returns the unique identifier of the run used in log entries
func (c *Controller) RunID() string {
	return c.runID
}

// Open acquires the source, detector, tracker and sinks.  On failure every
// resource acquired so far is released and the Controller is Failed.
func (c *Controller) Open() error {

	if c.state != Uninitialized {
		return fmt.Errorf("controller can not open from state %s", c.state)
	}

	if err := c.params.Validate(); err != nil {
		c.state = Failed
		return err
	}

	src, err := c.deps.OpenSource(c.params.Target())

	if err != nil {
		c.state = Failed

		if !errors.Is(err, vidtrack.ErrSourceUnavailable) {
			err = fmt.Errorf("%w: %v", vidtrack.ErrSourceUnavailable, err)
		}

		return err
	}

	c.src = src

	fields := logrus.Fields{
		"width":  src.Width(),
		"height": src.Height(),
		"fps":    src.FPS(),
	}

	if cam, ok := src.(interface{ IsCamera() bool }); ok {
		fields["camera"] = cam.IsCamera()
	}

	c.log.WithFields(fields).Info("Opened source")

	if err := c.setup(); err != nil {
		c.release()
		c.state = Failed
		return fmt.Errorf("%w: %v", vidtrack.ErrSetup, err)
	}

	c.state = Opened

	return nil
}

// setup builds everything after the source
func (c *Controller) setup() error {

	var err error

	if c.params.Labels != "" {
		if c.labels, err = vidtrack.LoadLabels(c.params.Labels); err != nil {
			return err
		}
	}

	if len(c.params.Classes) > 0 {
		names := make([]string, len(c.params.Classes))

		for i, cls := range c.params.Classes {
			names[i] = c.labels.Name(cls)
		}

		c.log.Infof("Limiting object detection class to: %s", strings.Join(names, ", "))
	}

	if c.det, err = c.deps.NewDetector(c.params); err != nil {
		return fmt.Errorf("error creating detector: %w", err)
	}

	// the input size is rounded up to the model stride
	if d, ok := c.det.(interface{ Params() detector.Params }); ok {
		c.log.WithField("size", d.Params().Size).Info("Loaded detector")
	}

	if c.trk, err = c.deps.NewTracker(c.params); err != nil {
		return fmt.Errorf("error creating tracker: %w", err)
	}

	c.sinks = sink.NewFanout(c.log)

	if c.params.SavePath != "" {

		vw, err := c.deps.NewVideoWriter(c.params.SavePath, c.params.FourCC,
			c.src.FPS(), c.src.Width(), c.src.Height())

		if err != nil {
			return err
		}

		c.sinks.Add(vw, true)
		c.log.WithField("dir", c.params.SavePath).Info("Created video output")
	}

	if c.params.SaveTxt != "" {

		rec, err := sink.NewTextRecord(c.params.SaveTxt)

		if err != nil {
			return err
		}

		c.sinks.Add(rec, false)
	}

	if c.params.Display {
		c.sinks.Add(c.deps.NewPreview(previewTitle, c.params.DisplayWidth,
			c.params.DisplayHeight), false)
	}

	if c.deps.NewPublisher != nil {

		pub, err := c.deps.NewPublisher(c.params.Target())

		if err != nil {
			return err
		}

		c.sinks.Add(pub, false)
	}

	for _, s := range c.deps.Sinks {
		c.sinks.Add(s, false)
	}

	// extra sinks are owned by the run from here on
	c.deps.Sinks = nil

	c.annot = render.NewAnnotator(trailSize)
	c.frame = gocv.NewMat()
	c.hasMat = true

	return nil
}

// Run processes frames until the source ends, a sink asks to stop, a fatal
// sink fails or ctx is cancelled.  Reaching the end of the source returns
// nil, a stop request returns ErrUserInterrupt.  Any other error leaves the
// Controller Failed.
func (c *Controller) Run(ctx context.Context) error {

	if c.state != Opened {
		return fmt.Errorf("controller can not run from state %s", c.state)
	}

	c.state = Running
	c.started = time.Now()

	err := c.loop(ctx)

	// stops asked for by the user or the caller are not failures
	if err != nil && !errors.Is(err, vidtrack.ErrUserInterrupt) && ctx.Err() == nil {
		c.log.WithError(err).Error("Run failed")
		c.state = Failed
	}

	return err
}

// loop reads and processes frames until the source ends or an error stops
// the run
func (c *Controller) loop(ctx context.Context) error {

	for i := 0; ; i++ {

		if err := ctx.Err(); err != nil {
			c.log.WithError(err).Info("Run cancelled")
			return err
		}

		if err := c.src.Next(&c.frame); err != nil {

			if errors.Is(err, vidtrack.ErrEndOfStream) {
				return nil
			}

			return fmt.Errorf("error reading frame %d: %w", i, err)
		}

		if err := c.processFrame(i); err != nil {

			if errors.Is(err, vidtrack.ErrUserInterrupt) {
				c.log.WithField("frame", i).Info("Stopped by user")
			}

			return err
		}
	}
}

// processFrame runs one frame through detection, tracking and the sinks
func (c *Controller) processFrame(i int) error {

	start := time.Now()
	tracks := c.last.Load()

	if Sample(i, c.params.FrameInterval) {
		if sampled, ok := c.track(i); ok {
			tracks = sampled
		}
	}

	c.stats.AddProcess(time.Since(start))

	flog := c.log.WithField("frame", i)
	flog.WithField("tracks", len(tracks)).Debug("Processed frame")

	if c.sinks.Len() == 0 {
		return nil
	}

	img := c.annot.Annotate(c.frame, tracks, i, c.stats.FPS())
	defer img.Close()

	return c.sinks.Write(sink.Frame{
		Index:  i,
		Image:  img,
		Tracks: tracks,
		FPS:    c.stats.FPS(),
	})
}

// track runs the detector and tracker on a sampled frame.  On failure the
// error is logged, nothing is recorded and ok is false.
func (c *Controller) track(i int) (vidtrack.Tracks, bool) {

	flog := c.log.WithField("frame", i)

	dets, detTime, err := c.det.Detect(c.frame)

	if err != nil {
		flog.WithError(err).Warn("Detection failed, reusing last tracks")
		return nil, false
	}

	trackStart := time.Now()
	tracks, err := c.trk.Update(dets, c.frame)
	trackTime := time.Since(trackStart)

	if err != nil {
		flog.WithError(fmt.Errorf("%w: %v", vidtrack.ErrInference, err)).
			Warn("Tracking failed, reusing last tracks")
		return nil, false
	}

	c.last.Store(tracks)
	c.stats.AddSample(detTime, trackTime)

	flog.Infof("Frame %d Done. YOLO-time:(%.3fs) SORT-time:(%.3fs)",
		i, detTime.Seconds(), trackTime.Seconds())

	return tracks, true
}

// Close releases every resource and returns the run summary.  With a save
// path the summary is also written to stats.json.  Close may be called in
// any state and more than once.
func (c *Controller) Close() (Summary, error) {

	if c.state == Closed {
		return c.summary, nil
	}

	ran := !c.started.IsZero()
	err := c.release()

	if c.state != Failed {
		c.state = Closed
	}

	if !ran {
		return c.summary, err
	}

	c.summary = c.stats.Summary(time.Since(c.started))
	c.summary.RunID = c.runID
	c.summary.Source = c.params.Target()

	c.log.Infof("Avg YOLO time (%.3fs), Sort time (%.3fs) per frame",
		c.summary.MeanDetect.Seconds(), c.summary.MeanTrack.Seconds())
	c.log.Infof("Total time (%.3fs), Total Frame: %d",
		c.summary.Elapsed.Seconds(), c.summary.Frames)

	if c.params.SavePath != "" {
		if werr := c.summary.WriteFile(c.params.SavePath); werr != nil {
			c.log.WithError(werr).Warn("Failed to write run statistics")
			err = errors.Join(err, werr)
		}
	}

	return c.summary, err
}

// release closes all acquired resources, continuing past failures
func (c *Controller) release() error {

	var errs []error

	if c.sinks != nil {
		errs = append(errs, c.sinks.Close())
		c.sinks = nil
	}

	// extra sinks never handed to the fanout
	for _, s := range c.deps.Sinks {
		errs = append(errs, s.Close())
	}

	c.deps.Sinks = nil

	if c.det != nil {
		errs = append(errs, c.det.Close())
		c.det = nil
	}

	if c.trk != nil {
		errs = append(errs, c.trk.Close())
		c.trk = nil
	}

	if c.src != nil {
		errs = append(errs, c.src.Close())
		c.src = nil
	}

	if c.hasMat {
		errs = append(errs, c.frame.Close())
		c.hasMat = false
	}

	return errors.Join(errs...)
}
