package renderer

import (
	"fmt"
	"image"
	"image/draw"

	"github.com/google/uuid"
	"github.com/spaghettifunk/terra/engine/core"
	"github.com/spaghettifunk/terra/engine/renderer/metadata"
)

// ImageSource decodes named images, usually the asset manager.
type ImageSource interface {
	LoadImage(name string) (image.Image, error)
}

// Renderer owns the device binding and the render-target stack. Every draw
// made through it, or through a Texture created by it, lands on the top of
// the stack.
type Renderer struct {
	device Device
	images ImageSource
	stack  *TargetStack
}

func New(device Device, images ImageSource) *Renderer {
	core.Assert(device != nil, "renderer created without a device")
	return &Renderer{
		device: device,
		images: images,
		stack:  NewTargetStack(),
	}
}

func (r *Renderer) Device() Device {
	return r.device
}

// PushRenderTarget binds t on top of the stack. Pushing anything other than
// the backbuffer or a target-capable texture is fatal.
func (r *Renderer) PushRenderTarget(t RenderTarget) {
	r.stack.Push(t)
	r.bind(t)
}

// PopRenderTarget unbinds the top target. Popping the backbuffer is fatal.
func (r *Renderer) PopRenderTarget() {
	r.stack.Pop()
	r.bind(r.stack.Top())
}

// WithRenderTarget binds t for the duration of fn. The pop is deferred, so
// the binding is released even if fn panics.
func (r *Renderer) WithRenderTarget(t RenderTarget, fn func()) {
	r.PushRenderTarget(t)
	defer r.PopRenderTarget()
	fn()
}

func (r *Renderer) bind(t RenderTarget) {
	id := uuid.Nil
	if !t.IsBackbuffer() {
		id = t.Texture.id
	}
	if err := r.device.SetRenderTarget(id); err != nil {
		core.Abort(fmt.Sprintf("could not bind %s render target: %s", t.Kind, err))
	}
}

func (r *Renderer) CurrentTarget() RenderTarget {
	return r.stack.Top()
}

func (r *Renderer) TargetDepth() int {
	return r.stack.Depth()
}

// ResetRenderTargets drops every offscreen binding and rebinds the
// backbuffer. Only used while tearing down after an assertion.
func (r *Renderer) ResetRenderTargets() {
	r.stack.Reset()
	r.bind(r.stack.Top())
}

// AssertBalanced verifies that every push of the frame was matched by a pop.
func (r *Renderer) AssertBalanced() {
	core.Assert(r.stack.Depth() == 1, "%d render targets still bound at end of frame", r.stack.Depth()-1)
}

// RenderClear clears the backbuffer. Fatal if an offscreen target is bound.
func (r *Renderer) RenderClear() {
	core.Assert(r.stack.Top().IsBackbuffer(), "Targets have not been reset!")
	if err := r.device.Clear(); err != nil {
		core.LogError("render clear failed: %s", err)
	}
}

// RenderPresent shows the backbuffer. Fatal if an offscreen target is bound.
func (r *Renderer) RenderPresent() {
	core.Assert(r.stack.Top().IsBackbuffer(), "A render target has not been reset!")
	if err := r.device.Present(); err != nil {
		core.LogError("render present failed: %s", err)
	}
}

// RenderSize is the size of the current target: the texture size for an
// offscreen target, the logical size for the backbuffer.
func (r *Renderer) RenderSize() (int, int) {
	top := r.stack.Top()
	if top.IsBackbuffer() {
		return r.device.LogicalSize()
	}
	return top.Texture.Width(), top.Texture.Height()
}

func (r *Renderer) SetDrawColor(c metadata.PackedColor) {
	r.device.SetDrawColor(c)
}

func (r *Renderer) FillRect(rect image.Rectangle, c metadata.PackedColor, mode metadata.BlendMode) {
	if rect.Empty() {
		return
	}
	if err := r.device.FillRect(rect, c, mode); err != nil {
		core.LogError("fill rect failed: %s", err)
	}
}

func (r *Renderer) DrawRect(rect image.Rectangle, c metadata.PackedColor) {
	if rect.Empty() {
		return
	}
	r.HorizontalLine(rect.Min.X, rect.Min.Y, rect.Max.X-1, c)
	r.HorizontalLine(rect.Min.X, rect.Max.Y-1, rect.Max.X-1, c)
	r.VerticalLine(rect.Min.X, rect.Min.Y, rect.Max.Y-1, c)
	r.VerticalLine(rect.Max.X-1, rect.Min.Y, rect.Max.Y-1, c)
}

func (r *Renderer) DrawLine(x0, y0, x1, y1 int, c metadata.PackedColor) {
	if err := r.device.DrawLine(x0, y0, x1, y1, c); err != nil {
		core.LogError("draw line failed: %s", err)
	}
}

func (r *Renderer) HorizontalLine(x0, y, x1 int, c metadata.PackedColor) {
	r.DrawLine(x0, y, x1, y, c)
}

func (r *Renderer) VerticalLine(x, y0, y1 int, c metadata.PackedColor) {
	r.DrawLine(x, y0, x, y1, c)
}

// ReadPixels copies the whole current target into CPU memory.
func (r *Renderer) ReadPixels() *image.RGBA {
	w, h := r.RenderSize()
	img, err := r.device.ReadPixels(image.Rect(0, 0, w, h))
	if err != nil {
		core.LogError("read pixels failed: %s", err)
		return image.NewRGBA(image.Rect(0, 0, w, h))
	}
	return img
}

// NewTexture allocates a texture. A texture that is not a render target is
// streaming and CPU writable. Allocation failures are fatal.
func (r *Renderer) NewTexture(width, height int, isRenderTarget bool) *Texture {
	access := metadata.TextureAccessStreaming
	if isRenderTarget {
		access = metadata.TextureAccessTarget
	}
	return r.newTexture(width, height, access)
}

func (r *Renderer) newTexture(width, height int, access metadata.TextureAccess) *Texture {
	core.Assert(width > 0 && height > 0, "invalid texture size %dx%d", width, height)
	id, err := r.device.CreateTexture(width, height, access)
	if err != nil {
		core.Abort(fmt.Sprintf("could not allocate %dx%d %s texture: %s", width, height, access, err))
	}
	t := &Texture{
		renderer: r,
		id:       id,
		width:    width,
		height:   height,
		access:   access,
		blend:    metadata.BlendAlpha,
	}
	if err := r.device.SetTextureBlendMode(id, t.blend); err != nil {
		core.LogWarn("could not set blend mode: %s", err)
	}
	return t
}

// NewStaticTexture uploads img into a static texture.
func (r *Renderer) NewStaticTexture(img image.Image) *Texture {
	b := img.Bounds()
	t := r.newTexture(b.Dx(), b.Dy(), metadata.TextureAccessStatic)
	rgba, ok := img.(*image.RGBA)
	if !ok || rgba.Rect.Min != (image.Point{}) {
		rgba = image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
		draw.Draw(rgba, rgba.Rect, img, b.Min, draw.Src)
	}
	if err := r.device.UploadTexture(t.id, rgba); err != nil {
		core.Abort(fmt.Sprintf("could not upload texture: %s", err))
	}
	return t
}

// LoadTexture decodes a named image and uploads it. Unlike allocation, a
// missing or undecodable image is an ordinary error.
func (r *Renderer) LoadTexture(name string) (*Texture, error) {
	if r.images == nil {
		return nil, fmt.Errorf("load texture %q: no image source configured", name)
	}
	img, err := r.images.LoadImage(name)
	if err != nil {
		return nil, fmt.Errorf("load texture %q: %w", name, err)
	}
	t := r.NewStaticTexture(img)
	t.name = name
	return t, nil
}
