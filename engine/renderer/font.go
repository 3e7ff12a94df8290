package renderer

import (
	"image"
	"image/draw"
	"strings"

	"github.com/fzipp/bmfont"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/spaghettifunk/terra/engine/renderer/metadata"
)

// Font rasterizes a single line of text into a CPU surface. (x, y) is the
// top-left corner of the line.
type Font interface {
	DrawText(dst draw.Image, x, y int, text string, c metadata.PackedColor)
	TextWidth(text string) int
	LineHeight() int
}

type bitmapFont struct {
	font *bmfont.BitmapFont
}

// NewBitmapFont wraps an AngelCode bitmap font. The glyph sheets carry their
// own colours, so the colour passed to DrawText is ignored.
func NewBitmapFont(f *bmfont.BitmapFont) Font {
	return &bitmapFont{font: f}
}

func (f *bitmapFont) DrawText(dst draw.Image, x, y int, text string, _ metadata.PackedColor) {
	f.font.DrawText(dst, image.Pt(x, y), text)
}

func (f *bitmapFont) TextWidth(text string) int {
	return f.font.MeasureText(text).Dx()
}

func (f *bitmapFont) LineHeight() int {
	return int(f.font.Descriptor.Common.LineHeight)
}

type faceFont struct {
	face font.Face
}

// DefaultFont is the built-in 7x13 fixed font, used whenever no bitmap font
// is available.
func DefaultFont() Font {
	return &faceFont{face: basicfont.Face7x13}
}

// NewFaceFont wraps a scalable or fixed font face.
func NewFaceFont(face font.Face) Font {
	return &faceFont{face: face}
}

func (f *faceFont) DrawText(dst draw.Image, x, y int, text string, c metadata.PackedColor) {
	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(c.NRGBA()),
		Face: f.face,
		Dot:  fixed.P(x, y+f.face.Metrics().Ascent.Ceil()),
	}
	d.DrawString(text)
}

func (f *faceFont) TextWidth(text string) int {
	return font.MeasureString(f.face, text).Ceil()
}

func (f *faceFont) LineHeight() int {
	return f.face.Metrics().Height.Ceil()
}

// WrapText splits text into lines no wider than maxWidth. Words longer than
// maxWidth get a line of their own. A maxWidth <= 0 only splits on newlines.
func WrapText(f Font, text string, maxWidth int) []string {
	var lines []string
	for _, paragraph := range strings.Split(text, "\n") {
		if maxWidth <= 0 {
			lines = append(lines, paragraph)
			continue
		}
		line := ""
		for _, word := range strings.Fields(paragraph) {
			candidate := word
			if line != "" {
				candidate = line + " " + word
			}
			if line != "" && f.TextWidth(candidate) > maxWidth {
				lines = append(lines, line)
				line = word
				continue
			}
			line = candidate
		}
		lines = append(lines, line)
	}
	return lines
}

// TextHeight is the height of text once wrapped to maxWidth.
func TextHeight(f Font, text string, maxWidth int) int {
	return len(WrapText(f, text, maxWidth)) * f.LineHeight()
}
