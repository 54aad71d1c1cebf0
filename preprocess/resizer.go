// Package preprocess prepares video frames for a detection model.
package preprocess

import (
	"image"
	"image/color"
	"math"

	"gocv.io/x/gocv"
)

// Neutral is the grey used to pad letterboxed images, the value YOLO models
// are trained with
var Neutral = color.RGBA{R: 114, G: 114, B: 114, A: 255}

// Resizer letterboxes frames of one source size into a model input size
// and maps boxes between the two coordinate spaces.  A Resizer is bound to
// the source size it was created for, see Matches.
type Resizer struct {
	src  image.Point
	dest image.Point
	// inner is the size of the scaled image before padding
	inner image.Point
	// pad is the offset of the scaled image inside the padded input
	pad   image.Point
	scale float32
	buf   gocv.Mat
}

// NewResizer returns a Resizer scaling srcWidth x srcHeight frames into
// destWidth x destHeight
func NewResizer(srcWidth, srcHeight, destWidth, destHeight int) *Resizer {

	r := &Resizer{
		src:  image.Pt(srcWidth, srcHeight),
		dest: image.Pt(destWidth, destHeight),
		buf:  gocv.NewMat(),
	}

	sx := float32(destWidth) / float32(srcWidth)
	sy := float32(destHeight) / float32(srcHeight)

	// the tighter axis fills the input, the other is padded
	r.inner = r.dest
	r.scale = sy

	if sx < sy {
		r.scale = sx
		r.inner.Y = roundInt(float32(srcHeight) * sx)
	} else {
		r.inner.X = roundInt(float32(srcWidth) * sy)
	}

	r.pad = r.dest.Sub(r.inner).Div(2)

	return r
}

func roundInt(v float32) int {
	return int(math.Round(float64(v)))
}

// Close frees the intermediate buffer
func (r *Resizer) Close() error {
	return r.buf.Close()
}

// Matches reports whether the Resizer was built for width x height frames
func (r *Resizer) Matches(width, height int) bool {
	return r.src == image.Pt(width, height)
}

// LetterBoxResize scales src into dest keeping its aspect ratio and fills
// the border with clr.  src is only read.
func (r *Resizer) LetterBoxResize(src gocv.Mat, dest *gocv.Mat, clr color.RGBA) {

	gocv.Resize(src, &r.buf, r.inner, 0, 0, gocv.InterpolationLinear)

	rest := r.dest.Sub(r.inner).Sub(r.pad)

	gocv.CopyMakeBorder(r.buf, dest, r.pad.Y, rest.Y, r.pad.X, rest.X,
		gocv.BorderConstant, clr)
}

// ScaleBox maps box corners from source space into model input space
func (r *Resizer) ScaleBox(x1, y1, x2, y2 float32) (float32, float32, float32, float32) {

	px, py := float32(r.pad.X), float32(r.pad.Y)

	return x1*r.scale + px, y1*r.scale + py, x2*r.scale + px, y2*r.scale + py
}

// RestoreBox is the inverse of ScaleBox.  The result is clipped to the
// source frame.
func (r *Resizer) RestoreBox(x1, y1, x2, y2 float32) (float32, float32, float32, float32) {

	unX := func(v float32) float32 {
		return clip((v-float32(r.pad.X))/r.scale, float32(r.src.X))
	}

	unY := func(v float32) float32 {
		return clip((v-float32(r.pad.Y))/r.scale, float32(r.src.Y))
	}

	return unX(x1), unY(y1), unX(x2), unY(y2)
}

// clip limits v to [0, limit]
func clip(v, limit float32) float32 {
	return float32(math.Max(0, math.Min(float64(v), float64(limit))))
}

// ScaleFactor is the source to input scale
func (r *Resizer) ScaleFactor() float32 {
	return r.scale
}

// XPad is the left padding of the letterbox
func (r *Resizer) XPad() int {
	return r.pad.X
}

// YPad is the top padding of the letterbox
func (r *Resizer) YPad() int {
	return r.pad.Y
}
