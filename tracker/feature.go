package tracker

import (
	"math"

	"github.com/x448/float16"
)

// normalize scales the feature vector in place to unit length.  A zero
// vector is left untouched.
func normalize(f []float32) []float32 {

	var sum float64

	for _, v := range f {
		sum += float64(v) * float64(v)
	}

	if sum == 0 {
		return f
	}

	norm := float32(math.Sqrt(sum))

	for i := range f {
		f[i] /= norm
	}

	return f
}

// cosineDistance returns 1 - a.b for unit length vectors.  Vectors of
// different length, or zero vectors, are at the maximum distance of 1.
func cosineDistance(a, b []float32) float64 {

	if len(a) == 0 || len(a) != len(b) {
		return 1
	}

	var dot float64

	for i := range a {
		dot += float64(a[i]) * float64(b[i])
	}

	return 1 - dot
}

// gallery holds the most recent appearance features of one track
type gallery struct {
	budget int
	half   bool
	full   [][]float32
	packed [][]float16.Float16
}

func newGallery(budget int, half bool) *gallery {
	return &gallery{budget: budget, half: half}
}

// Add appends a feature, evicting the oldest once the budget is exceeded
func (g *gallery) Add(f []float32) {

	if len(f) == 0 {
		return
	}

	if g.half {
		p := make([]float16.Float16, len(f))

		for i, v := range f {
			p[i] = float16.Fromfloat32(v)
		}

		g.packed = append(g.packed, p)

		if g.budget > 0 && len(g.packed) > g.budget {
			g.packed = g.packed[len(g.packed)-g.budget:]
		}

		return
	}

	c := make([]float32, len(f))
	copy(c, f)
	g.full = append(g.full, c)

	if g.budget > 0 && len(g.full) > g.budget {
		g.full = g.full[len(g.full)-g.budget:]
	}
}

// Len returns the number of stored features
func (g *gallery) Len() int {
	if g.half {
		return len(g.packed)
	}
	return len(g.full)
}

// Distance returns the smallest cosine distance between f and any stored
// feature, or 1 when the gallery is empty
func (g *gallery) Distance(f []float32) float64 {

	best := 1.0

	if g.half {
		unpacked := make([]float32, len(f))

		for _, p := range g.packed {
			if len(p) != len(f) {
				continue
			}

			for i, v := range p {
				unpacked[i] = v.Float32()
			}

			if d := cosineDistance(unpacked, f); d < best {
				best = d
			}
		}

		return best
	}

	for _, s := range g.full {
		if d := cosineDistance(s, f); d < best {
			best = d
		}
	}

	return best
}
