// Package render draws tracking results onto video frames.
package render

import (
	"github.com/swdee/vidtrack"
	"github.com/swdee/vidtrack/tracker"
	"gocv.io/x/gocv"
)

// Annotator draws boxes, identity labels, trails and the frame banner
type Annotator struct {
	Font          Font
	BannerFont    Font
	TrailStyle    TrailStyle
	LineThickness int
	trail         *tracker.Trail
}

// NewAnnotator returns an Annotator with default styles keeping trails of
// trailSize points
func NewAnnotator(trailSize int) *Annotator {
	return &Annotator{
		Font:          DefaultFont(),
		BannerFont:    BannerFont(),
		TrailStyle:    DefaultTrailStyle(),
		LineThickness: 2,
		trail:         tracker.NewTrail(trailSize, trailSize),
	}
}

// Annotate returns an annotated copy of the frame, the frame itself is left
// untouched.  The caller must Close the returned Mat.
func (a *Annotator) Annotate(frame gocv.Mat, tracks vidtrack.Tracks, index int, fps float64) gocv.Mat {

	a.trail.Update(tracks)

	img := frame.Clone()

	TrackBoxes(&img, tracks, a.Font, a.LineThickness)
	Trail(&img, tracks, a.trail, a.TrailStyle)
	Banner(&img, index, fps, len(tracks), a.BannerFont)

	return img
}

// Reset forgets all trails
func (a *Annotator) Reset() {
	a.trail.Reset()
}
