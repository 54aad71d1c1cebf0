package postprocess

// BoxRect are the corner coordinates of the bounding box of a detected
// object in the coordinate space of the model input
type BoxRect struct {
	Left   float32
	Top    float32
	Right  float32
	Bottom float32
}

// Width of the box
func (b BoxRect) Width() float32 {
	return b.Right - b.Left
}

// Height of the box
func (b BoxRect) Height() float32 {
	return b.Bottom - b.Top
}

// Area of the box, zero for degenerate boxes
func (b BoxRect) Area() float32 {

	if b.Right <= b.Left || b.Bottom <= b.Top {
		return 0
	}

	return b.Width() * b.Height()
}

// Candidate is a raw object detection as output by a detection model before
// non-maximum suppression
type Candidate struct {
	// Class is the line number in the labels file the Model was trained on
	// defining the Class of the detected object
	Class int
	// Box are the bounding box dimensions of the object location
	Box BoxRect
	// Probability is the confidence score of the object detected
	Probability float32
}

// NMSParams are the parameters to apply Non-Maximum Suppression with
type NMSParams struct {
	// ConfThreshold is the minimum probability a candidate needs to be kept
	ConfThreshold float32
	// IoUThreshold is the maximum allowed Intersection over Union between
	// two kept boxes
	IoUThreshold float32
	// Agnostic makes boxes of different classes suppress each other, when
	// false suppression is class scoped
	Agnostic bool
	// MaxDetections caps the number of boxes kept, zero for no limit
	MaxDetections int
}
