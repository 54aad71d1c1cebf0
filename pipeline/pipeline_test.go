package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"
	"github.com/swdee/vidtrack"
	"github.com/swdee/vidtrack/detector"
	"github.com/swdee/vidtrack/sink"
	"github.com/swdee/vidtrack/tracker"
	"github.com/tidwall/gjson"
	"gocv.io/x/gocv"
)

const (
	frameWidth  = 64
	frameHeight = 48
)

// syntheticSource delivers black frames
type syntheticSource struct {
	frames  int
	next    int
	readErr error
	closed  bool
}

func (s *syntheticSource) Next(dst *gocv.Mat) error {

	if s.next >= s.frames {
		if s.readErr != nil {
			return s.readErr
		}
		return vidtrack.ErrEndOfStream
	}

	m := gocv.NewMatWithSize(frameHeight, frameWidth, gocv.MatTypeCV8UC3)
	m.CopyTo(dst)
	m.Close()

	s.next++

	return nil
}

func (s *syntheticSource) Width() int   { return frameWidth }
func (s *syntheticSource) Height() int  { return frameHeight }
func (s *syntheticSource) FPS() float64 { return 25 }

func (s *syntheticSource) IsCamera() bool {
	return false
}

func (s *syntheticSource) Close() error {
	s.closed = true
	return nil
}

// fixedDetector finds the same object on every frame and fails on the
// given call numbers
type fixedDetector struct {
	calls  int
	failAt map[int]bool
	closed bool
}

func (d *fixedDetector) Detect(frame gocv.Mat) ([]vidtrack.Detection, time.Duration, error) {

	d.calls++

	if d.failAt[d.calls] {
		return nil, 0, errors.New("model crashed")
	}

	return []vidtrack.Detection{{
		Box:        vidtrack.XYWH{CX: 30, CY: 24, W: 20, H: 20},
		Confidence: 0.9,
		Class:      0,
	}}, time.Millisecond, nil
}

func (d *fixedDetector) Params() detector.Params {
	return detector.Params{Size: detector.CheckSize(600)}
}

func (d *fixedDetector) Close() error {
	d.closed = true
	return nil
}

// recordSink keeps the tracks of every frame it receives
type recordSink struct {
	name   string
	tracks []vidtrack.Tracks
	err    error
	failAt int
	closed bool
}

func (r *recordSink) Name() string {
	return r.name
}

func (r *recordSink) Write(f sink.Frame) error {

	r.tracks = append(r.tracks, f.Tracks.Clone())

	if r.err != nil && f.Index >= r.failAt {
		return r.err
	}

	return nil
}

func (r *recordSink) Close() error {
	r.closed = true
	return nil
}

type fixture struct {
	params Params
	src    *syntheticSource
	det    *fixedDetector
	video  *recordSink
	record *recordSink
	hook   *test.Hook
	deps   Deps
}

func newFixture(t *testing.T, frames, interval int) *fixture {

	dir := t.TempDir()

	p := DefaultParams()
	p.InputPath = "synthetic.mp4"
	p.SavePath = filepath.Join(dir, "output")
	p.SaveTxt = filepath.Join(dir, "output", "predict")
	p.FrameInterval = interval

	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)

	f := &fixture{
		params: p,
		src:    &syntheticSource{frames: frames},
		det:    &fixedDetector{failAt: map[int]bool{}},
		video:  &recordSink{name: "video"},
		record: &recordSink{name: "record"},
		hook:   hook,
	}

	f.deps = Deps{
		Log: logrus.NewEntry(logger),
		OpenSource: func(target string) (Source, error) {
			return f.src, nil
		},
		NewDetector: func(p Params) (Detector, error) {
			return f.det, nil
		},
		NewTracker: func(p Params) (Tracker, error) {
			cfg := tracker.DefaultConfig()
			cfg.NInit = 1
			return tracker.NewDeepSort(cfg, tracker.NewPatchExtractor(), false), nil
		},
		NewVideoWriter: func(dir, fourcc string, fps float64, width, height int) (sink.Sink, error) {
			return f.video, nil
		},
		NewPreview: func(title string, width, height int) sink.Sink {
			return &recordSink{name: "preview"}
		},
		Sinks: []sink.Sink{f.record},
	}

	return f
}

func TestRunEveryFrame(t *testing.T) {

	f := newFixture(t, 3, 1)

	sum, err := Execute(context.Background(), f.params, f.deps)
	require.NoError(t, err)
	require.Equal(t, 3, sum.Frames)
	require.Equal(t, 3, sum.SampledFrames)
	require.Equal(t, 3, f.det.calls)

	lastID := 0

	for i := 0; i < 3; i++ {
		data, err := os.ReadFile(filepath.Join(f.params.SaveTxt, []string{"0000.txt", "0001.txt", "0002.txt"}[i]))
		require.NoError(t, err)

		lines := strings.Split(strings.TrimSuffix(string(data), "\n"), "\n")
		require.Len(t, lines, 1)

		fields := strings.Split(lines[0], "\t")
		require.Len(t, fields, 5)
		require.Equal(t, []string{"20", "14", "40", "34"}, fields[:4])

		id := f.record.tracks[i][0].ID
		require.GreaterOrEqual(t, id, lastID)
		lastID = id
	}

	require.Len(t, f.video.tracks, 3)
	require.True(t, f.video.closed)
	require.True(t, f.record.closed)
	require.True(t, f.src.closed)
	require.True(t, f.det.closed)
}

func TestRunFrameInterval(t *testing.T) {

	f := newFixture(t, 5, 3)

	sum, err := Execute(context.Background(), f.params, f.deps)
	require.NoError(t, err)
	require.Equal(t, 5, sum.Frames)
	require.Equal(t, 2, sum.SampledFrames)
	require.Equal(t, 2, f.det.calls)

	got := f.record.tracks
	require.Len(t, got, 5)
	require.NotEmpty(t, got[0])
	require.True(t, got[1].Equal(got[0]))
	require.True(t, got[2].Equal(got[0]))
	require.True(t, got[4].Equal(got[3]))
}

func TestRunMissingSource(t *testing.T) {

	logger, _ := test.NewNullLogger()
	dir := t.TempDir()

	p := DefaultParams()
	p.InputPath = filepath.Join(dir, "missing.mp4")
	p.SavePath = filepath.Join(dir, "output")
	p.SaveTxt = filepath.Join(dir, "output", "predict")

	record := &recordSink{name: "record"}
	deps := DefaultDeps(logrus.NewEntry(logger))
	deps.Sinks = []sink.Sink{record}

	_, err := Execute(context.Background(), p, deps)
	require.ErrorIs(t, err, vidtrack.ErrSourceUnavailable)
	require.Empty(t, record.tracks)
	require.True(t, record.closed)

	_, err = os.Stat(p.SavePath)
	require.True(t, os.IsNotExist(err))
}

func TestRunTextRecordFailure(t *testing.T) {

	f := newFixture(t, 3, 1)

	// encode a real video file next to the failing records
	f.params.FourCC = "MJPG"
	f.deps.NewVideoWriter = func(dir, fourcc string, fps float64, width, height int) (sink.Sink, error) {
		return sink.NewVideoWriter(dir, fourcc, fps, width, height)
	}

	// a directory in place of the first record makes its write fail
	require.NoError(t, os.MkdirAll(filepath.Join(f.params.SaveTxt, "0000.txt"), 0o755))

	_, err := Execute(context.Background(), f.params, f.deps)
	require.NoError(t, err)

	video := filepath.Join(f.params.SavePath, "results.avi")
	info, err := os.Stat(video)
	require.NoError(t, err)
	require.Greater(t, info.Size(), int64(0))

	vc, err := gocv.VideoCaptureFile(video)
	require.NoError(t, err)
	defer vc.Close()

	img := gocv.NewMat()
	defer img.Close()

	frames := 0

	for vc.Read(&img) && !img.Empty() {
		require.Equal(t, frameWidth, img.Cols())
		require.Equal(t, frameHeight, img.Rows())
		frames++
	}

	require.Equal(t, 3, frames)

	for _, name := range []string{"0001.txt", "0002.txt"} {
		_, err := os.Stat(filepath.Join(f.params.SaveTxt, name))
		require.NoError(t, err)
	}

	warned := false

	for _, e := range f.hook.AllEntries() {
		if e.Level == logrus.WarnLevel && e.Data["sink"] == "text" {
			warned = true
		}
	}

	require.True(t, warned)
}

func TestRunDetectorFailure(t *testing.T) {

	f := newFixture(t, 3, 1)
	f.det.failAt[2] = true

	sum, err := Execute(context.Background(), f.params, f.deps)
	require.NoError(t, err)
	require.Equal(t, 3, sum.Frames)
	require.Equal(t, 2, sum.SampledFrames)

	got := f.record.tracks
	require.Len(t, got, 3)
	require.True(t, got[1].Equal(got[0]))
}

func TestRunCancelled(t *testing.T) {

	f := newFixture(t, 3, 1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	sum, err := Execute(ctx, f.params, f.deps)
	require.ErrorIs(t, err, context.Canceled)
	require.Equal(t, 0, sum.Frames)
	require.True(t, f.src.closed)
}

func TestRunUserInterrupt(t *testing.T) {

	f := newFixture(t, 5, 1)
	f.record.err = vidtrack.ErrUserInterrupt
	f.record.failAt = 1

	sum, err := Execute(context.Background(), f.params, f.deps)
	require.ErrorIs(t, err, vidtrack.ErrUserInterrupt)
	require.Equal(t, 2, sum.Frames)
	require.Len(t, f.video.tracks, 2)
}

func TestRunFatalSink(t *testing.T) {

	f := newFixture(t, 5, 1)
	f.video.err = errors.New("encoder failed")

	c := NewController(f.params, f.deps)
	require.NoError(t, c.Open())

	err := c.Run(context.Background())
	require.ErrorIs(t, err, vidtrack.ErrSinkWrite)
	require.Equal(t, Failed, c.State())
	require.Len(t, f.record.tracks, 1)

	sum, err := c.Close()
	require.NoError(t, err)
	require.Equal(t, Failed, c.State())
	require.Equal(t, 1, sum.Frames)
	require.True(t, f.src.closed)
}

func TestRunReadFailure(t *testing.T) {

	f := newFixture(t, 2, 1)
	f.src.readErr = errors.New("device unplugged")

	c := NewController(f.params, f.deps)
	require.NoError(t, c.Open())

	err := c.Run(context.Background())
	require.ErrorContains(t, err, "device unplugged")
	require.Equal(t, Failed, c.State())
	require.Len(t, f.record.tracks, 2)

	_, err = c.Close()
	require.NoError(t, err)
	require.Equal(t, Failed, c.State())
}

func TestRunStopIsNotFailure(t *testing.T) {

	f := newFixture(t, 5, 1)
	f.record.err = vidtrack.ErrUserInterrupt

	c := NewController(f.params, f.deps)
	require.NoError(t, c.Open())
	require.ErrorIs(t, c.Run(context.Background()), vidtrack.ErrUserInterrupt)
	require.Equal(t, Running, c.State())

	_, err := c.Close()
	require.NoError(t, err)
	require.Equal(t, Closed, c.State())
}

func TestRunStatsFile(t *testing.T) {

	f := newFixture(t, 4, 2)

	sum, err := Execute(context.Background(), f.params, f.deps)
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(f.params.SavePath, StatsFile))
	require.NoError(t, err)

	require.Equal(t, sum.RunID, gjson.GetBytes(data, "run").String())
	require.Equal(t, "synthetic.mp4", gjson.GetBytes(data, "source").String())
	require.Equal(t, int64(4), gjson.GetBytes(data, "frames").Int())
	require.Equal(t, int64(2), gjson.GetBytes(data, "sampled_frames").Int())
	require.InDelta(t, 0.001, gjson.GetBytes(data, "mean_detect_seconds").Float(), 1e-9)
}

func TestOpenSetupFailure(t *testing.T) {

	f := newFixture(t, 3, 1)
	f.deps.NewTracker = func(p Params) (Tracker, error) {
		return nil, errors.New("bad config")
	}

	c := NewController(f.params, f.deps)

	err := c.Open()
	require.ErrorIs(t, err, vidtrack.ErrSetup)
	require.Equal(t, Failed, c.State())
	require.True(t, f.src.closed)
	require.True(t, f.det.closed)
	require.True(t, f.record.closed)

	sum, err := c.Close()
	require.NoError(t, err)
	require.Equal(t, Summary{}, sum)
	require.Equal(t, Failed, c.State())
}

func TestOpenInvalidParams(t *testing.T) {

	f := newFixture(t, 3, 1)
	f.params.FrameInterval = 0

	_, err := Execute(context.Background(), f.params, f.deps)
	require.ErrorIs(t, err, vidtrack.ErrInvalidParams)
	require.False(t, f.src.closed, "source must not be opened")
}

func TestControllerStates(t *testing.T) {

	f := newFixture(t, 1, 1)
	c := NewController(f.params, f.deps)
	require.Equal(t, Uninitialized, c.State())
	require.NotEmpty(t, c.RunID())

	require.Error(t, c.Run(context.Background()))

	require.NoError(t, c.Open())
	require.Equal(t, Opened, c.State())
	require.Error(t, c.Open())

	require.NoError(t, c.Run(context.Background()))
	require.Equal(t, Running, c.State())

	sum, err := c.Close()
	require.NoError(t, err)
	require.Equal(t, Closed, c.State())
	require.Equal(t, 1, sum.Frames)

	again, err := c.Close()
	require.NoError(t, err)
	require.Equal(t, sum, again)
}

func TestOpenPublisherFailure(t *testing.T) {

	f := newFixture(t, 3, 1)
	f.deps.NewPublisher = func(source string) (sink.Sink, error) {
		require.Equal(t, "synthetic.mp4", source)
		return nil, errors.New("broker unreachable")
	}

	_, err := Execute(context.Background(), f.params, f.deps)
	require.ErrorIs(t, err, vidtrack.ErrSetup)
	require.True(t, f.video.closed)
	require.True(t, f.src.closed)
	require.Empty(t, f.video.tracks)
}

func TestOpenLogsSourceAndDetector(t *testing.T) {

	f := newFixture(t, 1, 1)

	c := NewController(f.params, f.deps)
	require.NoError(t, c.Open())
	defer c.Close()

	var opened, loaded *logrus.Entry

	for _, e := range f.hook.AllEntries() {
		switch e.Message {
		case "Opened source":
			opened = e
		case "Loaded detector":
			loaded = e
		}
	}

	require.NotNil(t, opened)
	require.Equal(t, false, opened.Data["camera"])
	require.Equal(t, frameWidth, opened.Data["width"])

	require.NotNil(t, loaded)
	require.Equal(t, 608, loaded.Data["size"])
}
