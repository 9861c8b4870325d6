package blueprint

import "image/color"

// DefaultColor is used for entities without an RGBA.
var DefaultColor = color.RGBA{R: 200, G: 200, B: 200, A: 255}

// ColorFromRGBA converts an optional blueprint color to an 8-bit RGB color
// and an opacity in [0, 1].
func ColorFromRGBA(rgba *RGBA) (color.RGBA, float32) {
	if rgba == nil {
		return DefaultColor, 1
	}
	return color.RGBA{
		R: channel(rgba[0]),
		G: channel(rgba[1]),
		B: channel(rgba[2]),
		A: 255,
	}, clamp01(rgba[3])
}

// RGBAFromColor is the inverse of ColorFromRGBA.
func RGBAFromColor(c color.RGBA, opacity float32) RGBA {
	return RGBA{
		float32(c.R) / 255,
		float32(c.G) / 255,
		float32(c.B) / 255,
		clamp01(opacity),
	}
}

func channel(v float32) uint8 {
	return uint8(clamp01(v)*255 + 0.5)
}

func clamp01(v float32) float32 {
	return min(max(v, 0), 1)
}
