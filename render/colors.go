package render

import "image/color"

var (
	Black  = color.RGBA{R: 0, G: 0, B: 0, A: 255}
	White  = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	Yellow = color.RGBA{R: 255, G: 255, B: 50, A: 255}
	Pink   = color.RGBA{R: 255, G: 0, B: 255, A: 255}

	// idPalette are the multipliers spreading consecutive track identities
	// over distinct colors, in B, G, R order
	idPalette = [3]int{2047, 32767, 1048575}
)

// TrackColor returns the color a track identity is drawn with.  The same
// identity always gets the same color.
func TrackColor(id int) color.RGBA {

	if id < 0 {
		id = -id
	}

	// p * (id^2 - id + 1) mod 255, reduced early to stay within int range
	k := ((id%255)*(id%255) - id%255 + 1) % 255

	if k < 0 {
		k += 255
	}

	var c [3]uint8

	for i, p := range idPalette {
		c[i] = uint8((p % 255) * k % 255)
	}

	return color.RGBA{R: c[2], G: c[1], B: c[0], A: 255}
}
