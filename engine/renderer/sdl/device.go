package sdl

import (
	"fmt"
	"image"
	"image/draw"
	"unsafe"

	"github.com/google/uuid"
	"github.com/veandco/go-sdl2/sdl"

	"github.com/spaghettifunk/terra/engine/core"
	"github.com/spaghettifunk/terra/engine/renderer"
	"github.com/spaghettifunk/terra/engine/renderer/metadata"
)

// image.RGBA stores R,G,B,A in memory order, which SDL calls ABGR8888 on
// little-endian machines.
const pixelFormat = uint32(sdl.PIXELFORMAT_ABGR8888)

type texture struct {
	handle *sdl.Texture
	access metadata.TextureAccess
	// CPU mirror of static and streaming textures. nil for targets.
	mirror *image.RGBA
}

// Device drives an SDL 2D renderer.
type Device struct {
	renderer *sdl.Renderer
	textures *core.Registry[*texture]

	targetID  uuid.UUID
	drawColor metadata.PackedColor
	scale     int
}

var _ renderer.Device = (*Device)(nil)

// NewDevice creates an accelerated renderer for the window. Falls back to the
// SDL software renderer when acceleration is unavailable.
func NewDevice(window *Window, vsync bool) (*Device, error) {
	flags := uint32(sdl.RENDERER_ACCELERATED | sdl.RENDERER_TARGETTEXTURE)
	if vsync {
		flags |= uint32(sdl.RENDERER_PRESENTVSYNC)
	}
	sdl.SetHint(sdl.HINT_RENDER_SCALE_QUALITY, "0")

	r, err := sdl.CreateRenderer(window.handle, -1, flags)
	if err != nil {
		core.LogWarn("accelerated renderer unavailable (%s), using software", err)
		r, err = sdl.CreateRenderer(window.handle, -1, uint32(sdl.RENDERER_SOFTWARE|sdl.RENDERER_TARGETTEXTURE))
		if err != nil {
			return nil, fmt.Errorf("failed to create SDL renderer: %w", err)
		}
	}
	d := &Device{
		renderer:  r,
		textures:  core.NewRegistry[*texture](),
		drawColor: metadata.BlackColor,
		scale:     1,
	}
	return d, nil
}

func (d *Device) Name() string { return string(renderer.SDL) }

func (d *Device) PixelFormat() string {
	return "ABGR8888"
}

func (d *Device) lookup(id uuid.UUID) (*texture, error) {
	if d.renderer == nil {
		return nil, core.ErrDeviceDestroyed
	}
	t, ok := d.textures.Get(id)
	if !ok {
		return nil, fmt.Errorf("texture %s: %w", id, core.ErrUnknownHandle)
	}
	return t, nil
}

func (d *Device) CreateTexture(width, height int, access metadata.TextureAccess) (uuid.UUID, error) {
	if d.renderer == nil {
		return uuid.Nil, core.ErrDeviceDestroyed
	}
	// Static textures are streaming on SDL so the CPU mirror can be pushed
	// with a plain Update.
	sdlAccess := sdl.TEXTUREACCESS_STREAMING
	if access == metadata.TextureAccessTarget {
		sdlAccess = sdl.TEXTUREACCESS_TARGET
	}
	handle, err := d.renderer.CreateTexture(pixelFormat, int(sdlAccess), int32(width), int32(height))
	if err != nil {
		return uuid.Nil, err
	}
	t := &texture{handle: handle, access: access}
	if access != metadata.TextureAccessTarget {
		t.mirror = image.NewRGBA(image.Rect(0, 0, width, height))
	}
	return d.textures.Acquire(t), nil
}

func (d *Device) DestroyTexture(id uuid.UUID) error {
	t, err := d.lookup(id)
	if err != nil {
		return err
	}
	if err := d.textures.Release(id); err != nil {
		return err
	}
	return t.handle.Destroy()
}

func (d *Device) upload(t *texture) error {
	return t.handle.Update(nil, t.mirror.Pix, t.mirror.Stride)
}

func (d *Device) UploadTexture(id uuid.UUID, pixels *image.RGBA) error {
	t, err := d.lookup(id)
	if err != nil {
		return err
	}
	if t.mirror == nil {
		return core.ErrNoBackingStore
	}
	draw.Draw(t.mirror, t.mirror.Rect, pixels, pixels.Rect.Min, draw.Src)
	return d.upload(t)
}

func (d *Device) LockTexture(id uuid.UUID) (*image.RGBA, error) {
	t, err := d.lookup(id)
	if err != nil {
		return nil, err
	}
	if t.mirror == nil {
		return nil, core.ErrNoBackingStore
	}
	return t.mirror, nil
}

func (d *Device) UnlockTexture(id uuid.UUID) error {
	t, err := d.lookup(id)
	if err != nil {
		return err
	}
	if t.mirror == nil {
		return core.ErrNoBackingStore
	}
	return d.upload(t)
}

func blendMode(mode metadata.BlendMode) sdl.BlendMode {
	switch mode {
	case metadata.BlendNone:
		return sdl.BlendMode(sdl.BLENDMODE_NONE)
	case metadata.BlendAdd:
		return sdl.BlendMode(sdl.BLENDMODE_ADD)
	default:
		return sdl.BlendMode(sdl.BLENDMODE_BLEND)
	}
}

func (d *Device) SetTextureBlendMode(id uuid.UUID, mode metadata.BlendMode) error {
	t, err := d.lookup(id)
	if err != nil {
		return err
	}
	return t.handle.SetBlendMode(blendMode(mode))
}

func (d *Device) SetRenderTarget(id uuid.UUID) error {
	if d.renderer == nil {
		return core.ErrDeviceDestroyed
	}
	if id == uuid.Nil {
		d.targetID = uuid.Nil
		return d.renderer.SetRenderTarget(nil)
	}
	t, err := d.lookup(id)
	if err != nil {
		return err
	}
	if t.access != metadata.TextureAccessTarget {
		return fmt.Errorf("texture %s has %s access, not target", id, t.access)
	}
	d.targetID = id
	return d.renderer.SetRenderTarget(t.handle)
}

func toRect(r image.Rectangle) *sdl.Rect {
	return &sdl.Rect{X: int32(r.Min.X), Y: int32(r.Min.Y), W: int32(r.Dx()), H: int32(r.Dy())}
}

func (d *Device) Copy(id uuid.UUID, src, dst image.Rectangle) error {
	t, err := d.lookup(id)
	if err != nil {
		return err
	}
	if src.Empty() || dst.Empty() {
		return nil
	}
	return d.renderer.Copy(t.handle, toRect(src), toRect(dst))
}

func (d *Device) withColor(c metadata.PackedColor, fn func() error) error {
	n := c.NRGBA()
	if err := d.renderer.SetDrawColor(n.R, n.G, n.B, n.A); err != nil {
		return err
	}
	defer func() {
		p := d.drawColor.NRGBA()
		d.renderer.SetDrawColor(p.R, p.G, p.B, p.A)
	}()
	return fn()
}

func (d *Device) FillRect(r image.Rectangle, c metadata.PackedColor, mode metadata.BlendMode) error {
	if d.renderer == nil {
		return core.ErrDeviceDestroyed
	}
	if err := d.renderer.SetDrawBlendMode(blendMode(mode)); err != nil {
		return err
	}
	defer d.renderer.SetDrawBlendMode(sdl.BlendMode(sdl.BLENDMODE_NONE))
	return d.withColor(c, func() error {
		return d.renderer.FillRect(toRect(r))
	})
}

func (d *Device) DrawLine(x0, y0, x1, y1 int, c metadata.PackedColor) error {
	if d.renderer == nil {
		return core.ErrDeviceDestroyed
	}
	return d.withColor(c, func() error {
		return d.renderer.DrawLine(int32(x0), int32(y0), int32(x1), int32(y1))
	})
}

func (d *Device) ReadPixels(r image.Rectangle) (*image.RGBA, error) {
	if d.renderer == nil {
		return nil, core.ErrDeviceDestroyed
	}
	out := image.NewRGBA(image.Rect(0, 0, r.Dx(), r.Dy()))
	if len(out.Pix) == 0 {
		return out, nil
	}
	err := d.renderer.ReadPixels(toRect(r), pixelFormat, unsafe.Pointer(&out.Pix[0]), out.Stride)
	return out, err
}

func (d *Device) SetDrawColor(c metadata.PackedColor) {
	d.drawColor = c
	if d.renderer == nil {
		return
	}
	n := c.NRGBA()
	d.renderer.SetDrawColor(n.R, n.G, n.B, n.A)
}

func (d *Device) Clear() error {
	if d.renderer == nil {
		return core.ErrDeviceDestroyed
	}
	return d.renderer.Clear()
}

func (d *Device) Present() error {
	if d.renderer == nil {
		return core.ErrDeviceDestroyed
	}
	d.renderer.Present()
	return nil
}

func (d *Device) SetIntegerScale(enabled bool) error {
	return d.renderer.SetIntegerScale(enabled)
}

func (d *Device) SetLogicalSize(width, height int) error {
	return d.renderer.SetLogicalSize(int32(width), int32(height))
}

func (d *Device) LogicalSize() (int, int) {
	w, h := d.renderer.GetLogicalSize()
	return int(w), int(h)
}

// SetScale records the multiplier. Scaling itself comes from the logical
// size against the window size, so the renderer scale stays at one.
func (d *Device) SetScale(multiplier int) error {
	if multiplier < 1 {
		return fmt.Errorf("invalid scale %d", multiplier)
	}
	d.scale = multiplier
	return nil
}

func (d *Device) Scale() int {
	return d.scale
}

func (d *Device) Destroy() error {
	if d.renderer == nil {
		return nil
	}
	d.textures.Each(func(_ uuid.UUID, t *texture) {
		t.handle.Destroy()
	})
	err := d.renderer.Destroy()
	d.renderer = nil
	return err
}
