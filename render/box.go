package render

import (
	"fmt"
	"image"
	"image/color"

	"github.com/swdee/vidtrack"
	"gocv.io/x/gocv"
)

// boxLabel is a precalculated label drawn after all boxes
type boxLabel struct {
	rect    image.Rectangle
	clr     color.RGBA
	text    string
	textPos image.Point
}

// TrackBoxes draws a box around each track and a filled label holding its
// identity above the top left corner
func TrackBoxes(img *gocv.Mat, tracks vidtrack.Tracks, font Font, lineThickness int) {

	labels := make([]boxLabel, 0, len(tracks))

	for _, tr := range tracks {

		clr := TrackColor(tr.ID)

		rect := image.Rect(tr.Box.X1, tr.Box.Y1, tr.Box.X2, tr.Box.Y2)
		gocv.Rectangle(img, rect, clr, lineThickness)

		text := fmt.Sprintf("%d", tr.ID)
		textSize := gocv.GetTextSize(text, font.Face, font.Scale, font.Thickness)

		labels = append(labels, boxLabel{
			rect: image.Rect(tr.Box.X1, tr.Box.Y1,
				tr.Box.X1+textSize.X+font.LeftPad+font.RightPad,
				tr.Box.Y1+textSize.Y+font.TopPad+font.BottomPad),
			clr:     clr,
			text:    text,
			textPos: image.Pt(tr.Box.X1+font.LeftPad, tr.Box.Y1+textSize.Y+font.TopPad),
		})
	}

	// labels go on top so neighbouring boxes don't cut through them
	for _, l := range labels {
		gocv.Rectangle(img, l.rect, l.clr, -1)

		gocv.PutTextWithParams(img, l.text, l.textPos,
			font.Face, font.Scale, font.Color, font.Thickness,
			font.LineType, false)
	}
}

// Banner blanks a strip across the top of the image and writes the frame
// number, frame rate and track count on it
func Banner(img *gocv.Mat, frame int, fps float64, count int, font Font) {

	rect := image.Rect(0, 0, img.Cols(), font.TopPad+8)
	gocv.Rectangle(img, rect, Black, -1)

	gocv.PutTextWithParams(img,
		fmt.Sprintf("Frame: %d, FPS: %.2f, Tracks: %d", frame, fps, count),
		image.Pt(font.LeftPad, font.TopPad), font.Face, font.Scale, font.Color,
		font.Thickness, font.LineType, false)
}
