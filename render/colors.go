package render

import "image/color"

var (
	// bodyColors paints each body joint and its outgoing limb, indexed by
	// the OpenPose joint order
	bodyColors = []color.RGBA{
		{R: 255, G: 0, B: 0, A: 255},
		{R: 255, G: 85, B: 0, A: 255},
		{R: 255, G: 170, B: 0, A: 255},
		{R: 255, G: 255, B: 0, A: 255},
		{R: 170, G: 255, B: 0, A: 255},
		{R: 85, G: 255, B: 0, A: 255},
		{R: 0, G: 255, B: 0, A: 255},
		{R: 0, G: 255, B: 85, A: 255},
		{R: 0, G: 255, B: 170, A: 255},
		{R: 0, G: 255, B: 255, A: 255},
		{R: 0, G: 170, B: 255, A: 255},
		{R: 0, G: 85, B: 255, A: 255},
		{R: 0, G: 0, B: 255, A: 255},
		{R: 85, G: 0, B: 255, A: 255},
		{R: 170, G: 0, B: 255, A: 255},
		{R: 255, G: 0, B: 255, A: 255},
		{R: 255, G: 0, B: 170, A: 255},
		{R: 255, G: 0, B: 85, A: 255},
	}

	White = color.RGBA{R: 255, G: 255, B: 255, A: 255}
)

// handEdgeColor returns the color for hand edge i of n, spread evenly around
// the hue circle
func handEdgeColor(i, n int) color.RGBA {

	h := float64(i) / float64(n) * 6.0

	sector := int(h)
	f := h - float64(sector)

	q := byte((1 - f) * 255)
	t := byte(f * 255)

	switch sector % 6 {
	case 0:
		return color.RGBA{R: 255, G: t, B: 0, A: 255}
	case 1:
		return color.RGBA{R: q, G: 255, B: 0, A: 255}
	case 2:
		return color.RGBA{R: 0, G: 255, B: t, A: 255}
	case 3:
		return color.RGBA{R: 0, G: q, B: 255, A: 255}
	case 4:
		return color.RGBA{R: t, G: 0, B: 255, A: 255}
	default:
		return color.RGBA{R: 255, G: 0, B: q, A: 255}
	}
}
