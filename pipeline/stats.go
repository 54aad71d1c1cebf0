package pipeline

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/tidwall/sjson"
)

// StatsFile is the name of the run summary written to the save path
const StatsFile = "stats.json"

// Stats collects the timings of a run
type Stats struct {
	// Detect and Track are the detector and tracker durations of each
	// successfully sampled frame
	Detect []time.Duration
	Track  []time.Duration
	// Process is the detect and track phase duration of every frame
	Process []time.Duration
}

// AddSample records the timings of a sampled frame
func (s *Stats) AddSample(detect, track time.Duration) {
	s.Detect = append(s.Detect, detect)
	s.Track = append(s.Track, track)
}

// AddProcess records the processing time of a frame
func (s *Stats) AddProcess(d time.Duration) {
	s.Process = append(s.Process, d)
}

// FPS is the number of frames processed per second of processing time
func (s *Stats) FPS() float64 {

	total := sum(s.Process)

	if total <= 0 {
		return 0
	}

	return float64(len(s.Process)) / total.Seconds()
}

// Summary of a finished run
type Summary struct {
	RunID         string
	Source        string
	Frames        int
	SampledFrames int
	MeanDetect    time.Duration
	MeanTrack     time.Duration
	FPS           float64
	Elapsed       time.Duration
}

// Summary returns the run summary, means over no samples are zero
func (s *Stats) Summary(elapsed time.Duration) Summary {
	return Summary{
		Frames:        len(s.Process),
		SampledFrames: len(s.Detect),
		MeanDetect:    mean(s.Detect),
		MeanTrack:     mean(s.Track),
		FPS:           s.FPS(),
		Elapsed:       elapsed,
	}
}

func sum(ds []time.Duration) time.Duration {

	var total time.Duration

	for _, d := range ds {
		total += d
	}

	return total
}

func mean(ds []time.Duration) time.Duration {

	if len(ds) == 0 {
		return 0
	}

	return sum(ds) / time.Duration(len(ds))
}

// JSON renders the summary with durations in seconds
func (s Summary) JSON() ([]byte, error) {

	fields := []struct {
		path  string
		value interface{}
	}{
		{"run", s.RunID},
		{"source", s.Source},
		{"frames", s.Frames},
		{"sampled_frames", s.SampledFrames},
		{"mean_detect_seconds", s.MeanDetect.Seconds()},
		{"mean_track_seconds", s.MeanTrack.Seconds()},
		{"fps", s.FPS},
		{"elapsed_seconds", s.Elapsed.Seconds()},
	}

	js := []byte(`{}`)
	var err error

	for _, f := range fields {
		if js, err = sjson.SetBytes(js, f.path, f.value); err != nil {
			return nil, fmt.Errorf("error encoding %s: %w", f.path, err)
		}
	}

	return js, nil
}

// WriteFile writes the summary JSON to <dir>/stats.json
func (s Summary) WriteFile(dir string) error {

	js, err := s.JSON()

	if err != nil {
		return err
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	return os.WriteFile(filepath.Join(dir, StatsFile), js, 0o644)
}
