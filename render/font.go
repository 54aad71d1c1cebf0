package render

import (
	"image/color"

	"gocv.io/x/gocv"
)

// Font defines the parameters for rendering text on an image using GoCV
type Font struct {
	Face      gocv.HersheyFont
	Scale     float64
	Color     color.RGBA
	Thickness int
	LineType  gocv.LineType
	// Padding to place around text
	LeftPad   int
	RightPad  int
	TopPad    int
	BottomPad int
}

// DefaultFont returns the font used for track labels
func DefaultFont() Font {
	return Font{
		Face:      gocv.FontHersheyPlain,
		Scale:     1.5,
		Color:     White,
		Thickness: 2,
		LineType:  gocv.LineAA,
		LeftPad:   4,
		RightPad:  4,
		TopPad:    4,
		BottomPad: 4,
	}
}

// BannerFont returns the font used for the frame banner
func BannerFont() Font {
	return Font{
		Face:      gocv.FontHersheySimplex,
		Scale:     0.5,
		Color:     Pink,
		Thickness: 1,
		LineType:  gocv.LineAA,
		LeftPad:   4,
		TopPad:    14,
	}
}
