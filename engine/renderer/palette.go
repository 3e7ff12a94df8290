package renderer

import (
	"image"
	"image/color"

	"github.com/spaghettifunk/terra/engine/core"
	"github.com/spaghettifunk/terra/engine/renderer/metadata"
)

const PaletteSize = 256

// Palette maps 8-bit legacy colour indices to RGBA. It is immutable once
// built and exposes both a CPU table and a 256x1 device lookup texture.
type Palette struct {
	colors  [PaletteSize]color.NRGBA
	palette color.Palette
	texture *Texture
}

// NewPalette copies up to 256 entries of p. Missing entries are black.
func NewPalette(p color.Palette) *Palette {
	pal := &Palette{palette: make(color.Palette, PaletteSize)}
	for i := 0; i < PaletteSize; i++ {
		c := color.NRGBA{A: 0xFF}
		if i < len(p) && p[i] != nil {
			c = color.NRGBAModel.Convert(p[i]).(color.NRGBA)
		}
		pal.colors[i] = c
		pal.palette[i] = c
	}
	return pal
}

// DefaultPalette builds the built-in palette: index 0 is the transparent
// mask colour, 1..15 a grey ramp, the rest a 6x7x6 colour cube.
func DefaultPalette() *Palette {
	p := make(color.Palette, PaletteSize)
	p[0] = metadata.MaskColor.NRGBA()
	for i := 1; i < 16; i++ {
		v := uint8(i * 17)
		p[i] = color.NRGBA{R: v, G: v, B: v, A: 0xFF}
	}
	i := 16
	for r := 0; r < 6 && i < PaletteSize; r++ {
		for g := 0; g < 7 && i < PaletteSize; g++ {
			for b := 0; b < 6 && i < PaletteSize; b++ {
				p[i] = color.NRGBA{R: uint8(r * 51), G: uint8(g * 42), B: uint8(b * 51), A: 0xFF}
				i++
			}
		}
	}
	for ; i < PaletteSize; i++ {
		p[i] = color.NRGBA{A: 0xFF}
	}
	return NewPalette(p)
}

// Color returns the entry at index.
func (p *Palette) Color(index uint8) color.NRGBA {
	return p.colors[index]
}

// Packed returns the entry at index as 0xAARRGGBB. Indices past the table
// are fatal.
func (p *Palette) Packed(index uint32) metadata.PackedColor {
	core.Assert(index < PaletteSize, "palette index %d out of range", index)
	return metadata.Pack(p.colors[index])
}

// Index returns the entry closest to c.
func (p *Palette) Index(c color.Color) uint8 {
	return uint8(p.palette.Index(c))
}

// AsColorPalette returns a copy usable with image.Paletted.
func (p *Palette) AsColorPalette() color.Palette {
	out := make(color.Palette, PaletteSize)
	copy(out, p.palette)
	return out
}

// Texture uploads the lookup texture on first use and returns it.
func (p *Palette) Texture(r *Renderer) *Texture {
	if p.texture.Exists() {
		return p.texture
	}
	img := image.NewRGBA(image.Rect(0, 0, PaletteSize, 1))
	for i, c := range p.colors {
		img.Set(i, 0, c)
	}
	p.texture = r.NewStaticTexture(img)
	return p.texture
}

// Quantize converts an RGBA frame into an 8-bit image against the palette.
// Fully transparent pixels map to index 0.
func (p *Palette) Quantize(src *image.RGBA) *image.Paletted {
	dst := image.NewPaletted(src.Rect, p.AsColorPalette())
	cache := make(map[uint32]uint8)
	for y := src.Rect.Min.Y; y < src.Rect.Max.Y; y++ {
		for x := src.Rect.Min.X; x < src.Rect.Max.X; x++ {
			o := src.PixOffset(x, y)
			px := src.Pix[o : o+4 : o+4]
			if px[3] == 0 {
				dst.SetColorIndex(x, y, 0)
				continue
			}
			key := uint32(px[0])<<24 | uint32(px[1])<<16 | uint32(px[2])<<8 | uint32(px[3])
			idx, ok := cache[key]
			if !ok {
				idx = p.Index(color.RGBA{R: px[0], G: px[1], B: px[2], A: px[3]})
				cache[key] = idx
			}
			dst.SetColorIndex(x, y, idx)
		}
	}
	return dst
}
