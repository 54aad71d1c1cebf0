package postprocess

import (
	"sort"
)

// DefaultMaxDetections is the number of boxes kept by NMS when no limit is
// given
const DefaultMaxDetections = 300

// NMS implements Non-Maximum Suppression.  Candidates below the confidence
// threshold are dropped, the rest are visited in order of descending
// probability and every remaining box overlapping a kept box by more than
// the IoU threshold is suppressed.  The input slice is not modified.
func NMS(cands []Candidate, p NMSParams) []Candidate {

	order := make([]int, 0, len(cands))

	for i, c := range cands {
		if c.Probability >= p.ConfThreshold {
			order = append(order, i)
		}
	}

	if len(order) == 0 {
		return nil
	}

	sort.SliceStable(order, func(a, b int) bool {
		return cands[order[a]].Probability > cands[order[b]].Probability
	})

	maxDet := p.MaxDetections

	if maxDet <= 0 {
		maxDet = len(order)
	}

	suppressed := make([]bool, len(order))
	keep := make([]Candidate, 0)

	for i := range order {

		if suppressed[i] {
			continue
		}

		n := cands[order[i]]
		keep = append(keep, n)

		if len(keep) >= maxDet {
			break
		}

		for j := i + 1; j < len(order); j++ {

			if suppressed[j] {
				continue
			}

			m := cands[order[j]]

			if !p.Agnostic && m.Class != n.Class {
				continue
			}

			if IoU(n.Box, m.Box) > p.IoUThreshold {
				suppressed[j] = true
			}
		}
	}

	return keep
}

// FilterClasses keeps the candidates whose class is in the allow-list.  An
// empty allow-list keeps every candidate.
func FilterClasses(cands []Candidate, classes []int) []Candidate {

	if len(classes) == 0 {
		return cands
	}

	allow := make(map[int]bool, len(classes))

	for _, c := range classes {
		allow[c] = true
	}

	out := make([]Candidate, 0, len(cands))

	for _, c := range cands {
		if allow[c.Class] {
			out = append(out, c)
		}
	}

	return out
}

// IoU works out the Intersection over Union of two boxes
func IoU(a, b BoxRect) float32 {

	inter := BoxRect{
		Left:   max32(a.Left, b.Left),
		Top:    max32(a.Top, b.Top),
		Right:  min32(a.Right, b.Right),
		Bottom: min32(a.Bottom, b.Bottom),
	}.Area()

	union := a.Area() + b.Area() - inter

	if union <= 0 {
		return 0
	}

	return inter / union
}

func max32(a, b float32) float32 {
	if a > b {
		return a
	}
	return b
}

func min32(a, b float32) float32 {
	if a < b {
		return a
	}
	return b
}

// clamp restricts the value x to be within the range min and max
func clamp(val float32, min, max float32) float32 {

	if val > min {

		if val < max {
			return val
		}

		return max
	}

	return min
}
