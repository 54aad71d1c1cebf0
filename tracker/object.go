package tracker

import "github.com/swdee/vidtrack"

// Object is a detection as seen by the tracker
type Object struct {
	// Rect is the bounding box representation of the detected object
	Rect Rect
	// Label is the class label of the object detected
	Label int
	// Prob is the confidence/probability of the object detected
	Prob float32
	// Feature is the appearance embedding of the object
	Feature []float32
}

// DetectionsToObjects converts detections into tracker objects, dropping
// those below minConfidence and those with a degenerate box
func DetectionsToObjects(dets []vidtrack.Detection, minConfidence float32) []Object {

	objs := make([]Object, 0, len(dets))

	for _, det := range dets {

		if det.Confidence < minConfidence || det.Box.W <= 0 || det.Box.H <= 0 {
			continue
		}

		objs = append(objs, Object{
			Rect:  RectFromXYWH(det.Box),
			Label: det.Class,
			Prob:  det.Confidence,
		})
	}

	return objs
}

// suppressOverlaps keeps the most confident of any objects overlapping by
// more than maxOverlap IoU.  A maxOverlap of 1 or more disables suppression.
func suppressOverlaps(objs []Object, maxOverlap float32) []Object {

	if maxOverlap >= 1 || len(objs) < 2 {
		return objs
	}

	order := make([]int, len(objs))

	for i := range order {
		order[i] = i
	}

	// insertion sort by descending probability keeps equal scores in
	// detection order
	for i := 1; i < len(order); i++ {
		for j := i; j > 0 && objs[order[j]].Prob > objs[order[j-1]].Prob; j-- {
			order[j], order[j-1] = order[j-1], order[j]
		}
	}

	suppressed := make([]bool, len(objs))
	keep := make([]Object, 0, len(objs))

	for a, i := range order {

		if suppressed[i] {
			continue
		}

		keep = append(keep, objs[i])

		for _, j := range order[a+1:] {
			if !suppressed[j] && objs[i].Rect.CalcIoU(objs[j].Rect) > maxOverlap {
				suppressed[j] = true
			}
		}
	}

	return keep
}
