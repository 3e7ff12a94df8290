package metadata

import "image/color"

// Packed colours are 0xAARRGGBB.
type PackedColor uint32

const (
	BlackColor PackedColor = 0xFF000000
	WhiteColor PackedColor = 0xFFFFFFFF
	MaskColor  PackedColor = 0x00FF00FF
)

func Pack(c color.Color) PackedColor {
	n := color.NRGBAModel.Convert(c).(color.NRGBA)
	return PackedColor(uint32(n.A)<<24 | uint32(n.R)<<16 | uint32(n.G)<<8 | uint32(n.B))
}

// NRGBA unpacks into a non-premultiplied colour.
func (p PackedColor) NRGBA() color.NRGBA {
	return color.NRGBA{
		R: uint8(p >> 16),
		G: uint8(p >> 8),
		B: uint8(p),
		A: uint8(p >> 24),
	}
}

func (p PackedColor) Alpha() uint8 {
	return uint8(p >> 24)
}

// WithAlpha returns the colour with its alpha channel replaced.
func (p PackedColor) WithAlpha(a uint8) PackedColor {
	return (p & 0x00FFFFFF) | PackedColor(a)<<24
}

func (p PackedColor) RGBA() (r, g, b, a uint32) {
	return p.NRGBA().RGBA()
}
