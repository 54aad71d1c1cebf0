// Package pipeline runs the frame loop of a tracking run.  Sampled frames
// go through the detector and tracker, the frames in between reuse the
// tracks of the last sampled frame.
package pipeline

import (
	"sync"

	"github.com/swdee/vidtrack"
)

// Sample reports whether frame i runs detection and tracking with a frame
// interval of k.  An interval below 1 samples every frame.
func Sample(i, k int) bool {

	if k < 1 {
		k = 1
	}

	return i%k == 0
}

// LastTracks holds the track set of the most recent successfully sampled
// frame
type LastTracks struct {
	mu     sync.Mutex
	tracks vidtrack.Tracks
}

// Store replaces the held tracks with a copy of ts
func (l *LastTracks) Store(ts vidtrack.Tracks) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.tracks = ts.Clone()
}

// Load returns a copy of the held tracks, empty before the first Store
func (l *LastTracks) Load() vidtrack.Tracks {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.tracks.Clone()
}

// Reset empties the slot
func (l *LastTracks) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.tracks = nil
}
