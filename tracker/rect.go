package tracker

import (
	"math"

	"github.com/swdee/vidtrack"
)

// Tlwh (top, left, width, height) represents a 1x4 matrix
type Tlwh []float32

// Tlbr (top, left, bottom, right) represents a 1x4 matrix
type Tlbr []float32

// Xyah (center x, center y, aspect ratio, height) represents a 1x4 matrix
type Xyah []float32

// Rect represents a rectangle with Tlwh (top, left, width, height) format
type Rect struct {
	Tlwh Tlwh
}

// NewRect creates a new Rect with given coordinates
func NewRect(x, y, width, height float32) Rect {
	return Rect{
		Tlwh: Tlwh{x, y, width, height},
	}
}

// RectFromXYWH creates a Rect from a center form detection box
func RectFromXYWH(b vidtrack.XYWH) Rect {
	return NewRect(b.CX-b.W/2, b.CY-b.H/2, b.W, b.H)
}

// TLX returns the top-left x coordinate of the rectangle
func (r *Rect) TLX() float32 {
	return r.Tlwh[0]
}

// TLY returns the top-left y coordinate of the rectangle
func (r *Rect) TLY() float32 {
	return r.Tlwh[1]
}

// Width returns the width of the rectangle
func (r *Rect) Width() float32 {
	return r.Tlwh[2]
}

// Height returns the height of the rectangle
func (r *Rect) Height() float32 {
	return r.Tlwh[3]
}

// BRX returns the bottom-right x coordinate of the rectangle
func (r *Rect) BRX() float32 {
	return r.Tlwh[0] + r.Tlwh[2]
}

// BRY returns the bottom-right y coordinate of the rectangle
func (r *Rect) BRY() float32 {
	return r.Tlwh[1] + r.Tlwh[3]
}

// GetTlbr converts the rectangle to Tlbr (top, left, bottom, right) format
func (r *Rect) GetTlbr() Tlbr {
	return Tlbr{r.TLX(), r.TLY(), r.BRX(), r.BRY()}
}

// GetXyah converts the rectangle to Xyah (center x, center y, aspect ratio,
// height) format
func (r *Rect) GetXyah() Xyah {
	return Xyah{
		r.Tlwh[0] + r.Tlwh[2]/2,
		r.Tlwh[1] + r.Tlwh[3]/2,
		r.Tlwh[2] / r.Tlwh[3],
		r.Tlwh[3],
	}
}

// ToXYXY converts the rectangle to whole pixel corners clipped to an image
// of width x height
func (r *Rect) ToXYXY(width, height int) vidtrack.XYXY {

	x1 := int(math.Max(float64(int(r.TLX())), 0))
	y1 := int(math.Max(float64(int(r.TLY())), 0))
	x2 := int(math.Min(float64(int(r.BRX())), float64(width-1)))
	y2 := int(math.Min(float64(int(r.BRY())), float64(height-1)))

	return vidtrack.XYXY{X1: x1, Y1: y1, X2: x2, Y2: y2}
}

// CalcIoU calculates the Intersection over Union (IoU) with another rectangle
func (r *Rect) CalcIoU(other Rect) float32 {

	iw := math.Min(float64(r.BRX()), float64(other.BRX())) -
		math.Max(float64(r.TLX()), float64(other.TLX()))

	if iw <= 0 {
		return 0
	}

	ih := math.Min(float64(r.BRY()), float64(other.BRY())) -
		math.Max(float64(r.TLY()), float64(other.TLY()))

	if ih <= 0 {
		return 0
	}

	inter := float32(iw * ih)
	union := r.Width()*r.Height() + other.Width()*other.Height() - inter

	if union <= 0 {
		return 0
	}

	return inter / union
}

// GenerateRectByXyah creates a Rect from Xyah (center x, center y,
// aspect ratio, height) format
func GenerateRectByXyah(xyah Xyah) Rect {
	width := xyah[2] * xyah[3]
	return NewRect(xyah[0]-width/2, xyah[1]-xyah[3]/2, width, xyah[3])
}
