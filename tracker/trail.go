package tracker

import (
	"sync"

	"github.com/swdee/vidtrack"
)

// Point represents the x,y coordinates of the center of a track's box
type Point struct {
	X, Y int
}

// path is the point history of one identity
type path struct {
	points []Point
	// seen is the Trail generation the identity was last added in
	seen int
}

// Trail keeps the most recent center points of each track identity, used
// for drawing a trail behind the box
type Trail struct {
	// size is the maximum number of most recent points to keep in history
	size int
	// maxIdle is the number of Update calls an identity may be absent for
	// before its history is dropped
	maxIdle int
	gen     int
	history map[int]*path
	sync.Mutex
}

// NewTrail returns a new trail history.  Size is the maximum length of each
// trail, maxIdle the number of updates an absent identity is remembered for
func NewTrail(size, maxIdle int) *Trail {
	return &Trail{
		size:    size,
		maxIdle: maxIdle,
		history: make(map[int]*path),
	}
}

// Reset clears all history
func (t *Trail) Reset() {
	t.Lock()
	defer t.Unlock()

	t.gen = 0
	t.history = make(map[int]*path)
}

// Update adds the center of every track to its history and forgets
// identities that have been absent for longer than maxIdle updates
func (t *Trail) Update(tracks vidtrack.Tracks) {
	t.Lock()
	defer t.Unlock()

	t.gen++

	for _, tr := range tracks {
		t.add(tr)
	}

	for id, p := range t.history {
		if t.gen-p.seen > t.maxIdle {
			delete(t.history, id)
		}
	}
}

func (t *Trail) add(tr vidtrack.Track) {

	p, exists := t.history[tr.ID]

	if !exists {
		p = &path{}
		t.history[tr.ID] = p
	}

	p.seen = t.gen
	p.points = append(p.points, Point{
		X: (tr.Box.X1 + tr.Box.X2) / 2,
		Y: (tr.Box.Y1 + tr.Box.Y2) / 2,
	})

	// drop the oldest point once the history is full
	if len(p.points) > t.size {
		p.points = p.points[1:]
	}
}

// GetPoints gets the point history for a specific track id
func (t *Trail) GetPoints(id int) []Point {
	t.Lock()
	defer t.Unlock()

	if p, exists := t.history[id]; exists {
		out := make([]Point, len(p.points))
		copy(out, p.points)
		return out
	}

	// no history yet
	return nil
}
