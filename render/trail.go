package render

import (
	"image"
	"image/color"

	"github.com/swdee/vidtrack"
	"github.com/swdee/vidtrack/tracker"
	"gocv.io/x/gocv"
)

// TrailStyle defines the parameters used for rendering the trail style
type TrailStyle struct {
	// LineSame draws the trail in the track's box color instead of
	// LineColor
	LineSame      bool
	LineColor     color.RGBA
	LineThickness int
	// CircleSame draws the midpoint circle in the track's box color instead
	// of CircleColor
	CircleSame   bool
	CircleColor  color.RGBA
	CircleRadius int
}

// DefaultTrailStyle returns default trail style settings
func DefaultTrailStyle() TrailStyle {
	return TrailStyle{
		LineSame:      false,
		LineColor:     Yellow,
		LineThickness: 1,
		CircleSame:    true,
		CircleColor:   Pink,
		CircleRadius:  3,
	}
}

// Trail draws the recent center points of each track as a polyline ending
// in a dot on the current center
func Trail(img *gocv.Mat, tracks vidtrack.Tracks, trail *tracker.Trail, style TrailStyle) {

	for _, tr := range tracks {

		points := trail.GetPoints(tr.ID)

		if len(points) < 2 {
			continue
		}

		lineClr, circleClr := style.LineColor, style.CircleColor

		if style.LineSame {
			lineClr = TrackColor(tr.ID)
		}

		if style.CircleSame {
			circleClr = TrackColor(tr.ID)
		}

		for i := 1; i < len(points); i++ {
			gocv.Line(img,
				image.Pt(points[i-1].X, points[i-1].Y),
				image.Pt(points[i].X, points[i].Y),
				lineClr, style.LineThickness,
			)
		}

		last := points[len(points)-1]
		gocv.Circle(img, image.Pt(last.X, last.Y), style.CircleRadius, circleClr, -1)
	}
}
