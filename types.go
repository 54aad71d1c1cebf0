package vidtrack

import "fmt"

// XYWH is a bounding box in center x, center y, width, height form
type XYWH struct {
	CX, CY, W, H float32
}

// XYXY is a bounding box in corner to corner form, top left (X1,Y1) and
// bottom right (X2,Y2) in whole pixels
type XYXY struct {
	X1, Y1, X2, Y2 int
}

// Width of the box
func (b XYXY) Width() int {
	return b.X2 - b.X1
}

// Height of the box
func (b XYXY) Height() int {
	return b.Y2 - b.Y1
}

// CornersToCenter converts corner coordinates into XYWH form
func CornersToCenter(x1, y1, x2, y2 float32) XYWH {
	return XYWH{
		CX: (x1 + x2) / 2,
		CY: (y1 + y2) / 2,
		W:  x2 - x1,
		H:  y2 - y1,
	}
}

// Corners returns the top left and bottom right coordinates of the box
func (b XYWH) Corners() (x1, y1, x2, y2 float32) {
	return b.CX - b.W/2, b.CY - b.H/2, b.CX + b.W/2, b.CY + b.H/2
}

// Detection is a single object found by the detector on one frame
type Detection struct {
	// Box is the object location in original frame coordinates
	Box XYWH
	// Confidence score in the range [0,1]
	Confidence float32
	// Class is the line number of the label in the labels file
	Class int
}

// Track is an object location with the persistent identity the tracker
// assigned to it
type Track struct {
	Box XYXY
	ID  int
}

// String renders the track in text record format
func (t Track) String() string {
	return fmt.Sprintf("%d\t%d\t%d\t%d\t%d", t.Box.X1, t.Box.Y1, t.Box.X2,
		t.Box.Y2, t.ID)
}

// Tracks is the ordered set of tracks output for one frame.  Order carries
// no meaning, consumers should key on Track.ID
type Tracks []Track

// Equal reports whether both track sets hold the same tracks in the same
// order
func (ts Tracks) Equal(other Tracks) bool {

	if len(ts) != len(other) {
		return false
	}

	for i := range ts {
		if ts[i] != other[i] {
			return false
		}
	}

	return true
}

// Clone returns a copy of the track set that shares no memory with the
// original
func (ts Tracks) Clone() Tracks {

	if ts == nil {
		return nil
	}

	out := make(Tracks, len(ts))
	copy(out, ts)

	return out
}

// IDs returns the identities of all tracks in order
func (ts Tracks) IDs() []int {

	ids := make([]int, len(ts))

	for i, t := range ts {
		ids[i] = t.ID
	}

	return ids
}
