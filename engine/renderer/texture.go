package renderer

import (
	"image"
	"image/draw"

	xdraw "golang.org/x/image/draw"

	"github.com/google/uuid"
	"github.com/spaghettifunk/terra/engine/core"
	"github.com/spaghettifunk/terra/engine/math"
	"github.com/spaghettifunk/terra/engine/renderer/metadata"
)

// Texture is a device resident pixel buffer. Streaming and static textures
// carry a CPU backing store reachable between Lock and Unlock; target
// textures can only be drawn to through the render-target stack.
type Texture struct {
	renderer *Renderer
	id       uuid.UUID
	name     string
	width    int
	height   int
	access   metadata.TextureAccess
	blend    metadata.BlendMode

	locked bool
	pixels *image.RGBA
	clip   *image.Rectangle
}

func (t *Texture) ID() uuid.UUID                  { return t.id }
func (t *Texture) Name() string                   { return t.name }
func (t *Texture) Width() int                     { return t.width }
func (t *Texture) Height() int                    { return t.height }
func (t *Texture) Access() metadata.TextureAccess { return t.access }
func (t *Texture) Bounds() image.Rectangle        { return image.Rect(0, 0, t.width, t.height) }
func (t *Texture) IsLocked() bool                 { return t.locked }

// Exists reports whether the texture is backed by a device texture.
func (t *Texture) Exists() bool {
	return t != nil && t.id != uuid.Nil
}

// HasBackingStore reports whether the texture can be mapped for CPU access.
func (t *Texture) HasBackingStore() bool {
	return t.Exists() && t.access != metadata.TextureAccessTarget
}

// AsRenderTarget wraps the texture for the render-target stack.
func (t *Texture) AsRenderTarget() RenderTarget {
	core.Assert(t.Exists() && t.access == metadata.TextureAccessTarget, "Trying to set a render target to non target texture")
	return Offscreen(t)
}

func (t *Texture) mustExist() {
	core.Assert(t.Exists(), "%s", core.ErrTextureNotCreated)
}

func (t *Texture) SetBlendMode(mode metadata.BlendMode) {
	t.mustExist()
	t.blend = mode
	if err := t.renderer.device.SetTextureBlendMode(t.id, mode); err != nil {
		core.LogWarn("could not set blend mode: %s", err)
	}
}

func (t *Texture) BlendMode() metadata.BlendMode {
	return t.blend
}

// Lock maps the CPU backing store. It is a no-op when already locked or
// when the texture has none.
func (t *Texture) Lock() {
	if t.locked || !t.HasBackingStore() {
		return
	}
	pixels, err := t.renderer.device.LockTexture(t.id)
	core.Assert(err == nil, "could not lock texture: %v", err)
	t.pixels = pixels
	t.locked = true
}

// Unlock uploads the CPU backing store. Every draw that goes through the
// device requires the texture to be unlocked.
func (t *Texture) Unlock() {
	if !t.locked || !t.Exists() {
		return
	}
	t.locked = false
	t.pixels = nil
	if err := t.renderer.device.UnlockTexture(t.id); err != nil {
		core.LogError("could not unlock texture: %s", err)
	}
}

func (t *Texture) surface() *image.RGBA {
	t.mustExist()
	core.Assert(t.HasBackingStore(), "%s (%s texture)", core.ErrNoBackingStore, t.access)
	t.Lock()
	return t.pixels
}

// Pixels locks the texture and returns its CPU backing store.
func (t *Texture) Pixels() *image.RGBA {
	return t.surface()
}

// Render copies the texture, or the src part of it, onto the current
// render target at (x, y). When clip is given the destination is
// intersected with it and nothing is drawn if they do not overlap.
func (t *Texture) Render(x, y int, src *image.Rectangle, translucent bool, clip *image.Rectangle) {
	t.mustExist()
	t.Unlock()

	from := t.Bounds()
	if src != nil {
		from = src.Intersect(t.Bounds())
	}
	to := image.Rect(x, y, x+from.Dx(), y+from.Dy())
	if clip != nil {
		clipped, ok := math.Intersect(to, *clip)
		if !ok {
			return
		}
		from = image.Rect(
			from.Min.X+clipped.Min.X-to.Min.X, from.Min.Y+clipped.Min.Y-to.Min.Y,
			from.Max.X-(to.Max.X-clipped.Max.X), from.Max.Y-(to.Max.Y-clipped.Max.Y),
		)
		to = clipped
	}
	if to.Empty() {
		return
	}
	t.copyTo(from, to, translucent)
}

// RenderScaled stretches the whole texture onto the current target.
func (t *Texture) RenderScaled(x, y, width, height int, translucent bool) {
	t.mustExist()
	t.Unlock()
	if width <= 0 || height <= 0 {
		return
	}
	t.copyTo(t.Bounds(), image.Rect(x, y, x+width, y+height), translucent)
}

func (t *Texture) copyTo(from, to image.Rectangle, translucent bool) {
	device := t.renderer.device
	if !translucent {
		_ = device.SetTextureBlendMode(t.id, metadata.BlendNone)
	}
	if err := device.Copy(t.id, from, to); err != nil {
		core.LogError("texture copy failed: %s", err)
	}
	if !translucent {
		_ = device.SetTextureBlendMode(t.id, t.blend)
	}
}

// Blit copies pixels between two CPU backing stores. A destination without
// one is drawn to through Render instead, clipped by its clip rect.
func (t *Texture) Blit(dest *Texture, x, y int, src *image.Rectangle, translucent bool) {
	core.Assert(dest != nil, "nil destination passed to Texture.Blit")

	if !dest.HasBackingStore() {
		if clip, ok := dest.GetClipRect(); ok {
			t.Render(x, y, src, translucent, &clip)
		} else {
			t.Render(x, y, src, translucent, nil)
		}
		return
	}

	from := t.Bounds()
	if src != nil {
		from = src.Intersect(t.Bounds())
		if t.clip != nil {
			from = from.Intersect(*t.clip)
		}
	}
	srcPixels := t.surface()
	dstPixels := dest.surface()
	to := image.Rect(x, y, x+from.Dx(), y+from.Dy())
	if dest.clip != nil {
		to = to.Intersect(*dest.clip)
	}
	if to.Empty() {
		return
	}
	from.Min = from.Min.Add(to.Min.Sub(image.Pt(x, y)))
	draw.Draw(dstPixels, to, srcPixels, from.Min, blendOp(translucent))
}

// BlitScaled stretches the whole texture into dest.
func (t *Texture) BlitScaled(dest *Texture, x, y, width, height int, translucent bool) {
	core.Assert(dest != nil, "nil destination passed to Texture.BlitScaled")

	if !dest.HasBackingStore() {
		t.RenderScaled(x, y, width, height, translucent)
		return
	}
	srcPixels := t.surface()
	dstPixels := dest.surface()
	xdraw.NearestNeighbor.Scale(dstPixels, image.Rect(x, y, x+width, y+height), srcPixels, srcPixels.Rect, blendOp(translucent), nil)
}

func blendOp(translucent bool) draw.Op {
	if translucent {
		return draw.Over
	}
	return draw.Src
}

// DrawLine rasterizes a line with Bresenham's algorithm.
func (t *Texture) DrawLine(x1, y1, x2, y2 int, c metadata.PackedColor) {
	if !t.HasBackingStore() {
		t.mustExist()
		t.renderer.WithRenderTarget(t.AsRenderTarget(), func() {
			t.renderer.DrawLine(x1, y1, x2, y2, c)
		})
		return
	}
	pixels := t.surface()
	Bresenham(x1, y1, x2, y2, func(x, y int) {
		t.plot(pixels, x, y, c)
	})
}

// DrawRectangle draws a filled or outlined rectangle.
func (t *Texture) DrawRectangle(x, y, width, height int, c metadata.PackedColor, filled bool) {
	rect := math.Rect(x, y, width, height)
	if rect.Empty() {
		return
	}
	if !t.HasBackingStore() {
		t.mustExist()
		t.renderer.WithRenderTarget(t.AsRenderTarget(), func() {
			if filled {
				t.renderer.FillRect(rect, c, metadata.BlendAlpha)
			} else {
				t.renderer.DrawRect(rect, c)
			}
		})
		return
	}
	pixels := t.surface()
	if filled {
		area := rect
		if t.clip != nil {
			area = area.Intersect(*t.clip)
		}
		draw.Draw(pixels, area, image.NewUniform(c.NRGBA()), image.Point{}, draw.Src)
		return
	}
	for px := rect.Min.X; px < rect.Max.X; px++ {
		t.plot(pixels, px, rect.Min.Y, c)
		t.plot(pixels, px, rect.Max.Y-1, c)
	}
	for py := rect.Min.Y; py < rect.Max.Y; py++ {
		t.plot(pixels, rect.Min.X, py, c)
		t.plot(pixels, rect.Max.X-1, py, c)
	}
}

func (t *Texture) plot(pixels *image.RGBA, x, y int, c metadata.PackedColor) {
	p := image.Pt(x, y)
	if t.clip != nil && !p.In(*t.clip) {
		return
	}
	pixels.Set(x, y, c.NRGBA())
}

// GetPixel returns the packed colour at (x, y), 0 outside the texture.
func (t *Texture) GetPixel(x, y int) metadata.PackedColor {
	pixels := t.surface()
	if !image.Pt(x, y).In(pixels.Rect) {
		return 0
	}
	return metadata.Pack(pixels.At(x, y))
}

func (t *Texture) SetPixel(x, y int, c metadata.PackedColor) {
	pixels := t.surface()
	pixels.Set(x, y, c.NRGBA())
}

// Clear fills the whole CPU backing store with c, ignoring the clip rect.
func (t *Texture) Clear(c metadata.PackedColor) {
	pixels := t.surface()
	draw.Draw(pixels, pixels.Rect, image.NewUniform(c.NRGBA()), image.Point{}, draw.Src)
}

// DrawText writes text into the CPU backing store. With centered set, x is
// the horizontal centre of the text.
func (t *Texture) DrawText(font Font, x, y int, text string, c metadata.PackedColor, centered bool) {
	pixels := t.surface()
	if centered {
		x -= font.TextWidth(text) / 2
	}
	font.DrawText(pixels, x, y, text, c)
}

// GetClipRect returns the clip rect and whether one is set.
func (t *Texture) GetClipRect() (image.Rectangle, bool) {
	if t.clip == nil {
		return image.Rectangle{}, false
	}
	return *t.clip, true
}

func (t *Texture) SetClipRect(r image.Rectangle) {
	clip := r.Canon()
	t.clip = &clip
}

// ResetClipRect clears the clip rect, so nothing is clipped.
func (t *Texture) ResetClipRect() {
	t.clip = nil
}

// AddClipRect narrows the clip rect to its intersection with r. Disjoint
// rectangles collapse the clip to zero area, suppressing every draw until
// ResetClipRect.
func (t *Texture) AddClipRect(r image.Rectangle) {
	current := t.Bounds()
	if t.clip != nil {
		current = *t.clip
	}
	if inter, ok := math.Intersect(current, r.Canon()); ok {
		t.clip = &inter
		return
	}
	empty := image.Rectangle{}
	t.clip = &empty
}

// Destroy releases the device texture. The texture can not be used again.
func (t *Texture) Destroy() {
	if !t.Exists() {
		return
	}
	t.Unlock()
	if err := t.renderer.device.DestroyTexture(t.id); err != nil {
		core.LogWarn("could not destroy texture: %s", err)
	}
	t.id = uuid.Nil
}

// Bresenham calls plot for every point of the line from (x0, y0) to (x1, y1).
func Bresenham(x0, y0, x1, y1 int, plot func(x, y int)) {
	dx := math.Abs(x1 - x0)
	dy := -math.Abs(y1 - y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}
	err := dx + dy
	for {
		plot(x0, y0)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x0 += sx
		}
		if e2 <= dx {
			err += dx
			y0 += sy
		}
	}
}
