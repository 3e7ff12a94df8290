package software

import (
	"fmt"
	"image"
	"image/draw"

	xdraw "golang.org/x/image/draw"

	"github.com/google/uuid"
	"github.com/spaghettifunk/terra/engine/core"
	"github.com/spaghettifunk/terra/engine/renderer"
	"github.com/spaghettifunk/terra/engine/renderer/metadata"
)

type texture struct {
	pixels *image.RGBA
	access metadata.TextureAccess
	blend  metadata.BlendMode
}

// Device renders on the CPU into image.RGBA buffers. Finished frames are
// handed to a Presenter, or dropped when running headless.
type Device struct {
	textures *core.Registry[*texture]

	backbuffer *image.RGBA
	target     *image.RGBA
	targetID   uuid.UUID

	drawColor    metadata.PackedColor
	logicalW     int
	logicalH     int
	scale        int
	integerScale bool

	presenter renderer.Presenter
	frames    uint64
	destroyed bool
}

var _ renderer.Device = (*Device)(nil)

func New(width, height int, presenter renderer.Presenter) *Device {
	d := &Device{
		textures:  core.NewRegistry[*texture](),
		drawColor: metadata.BlackColor,
		scale:     1,
		presenter: presenter,
	}
	d.resizeBackbuffer(width, height)
	return d
}

func (d *Device) Name() string { return string(renderer.Software) }

func (d *Device) PixelFormat() string { return "RGBA8888" }

// Backbuffer exposes the composed frame.
func (d *Device) Backbuffer() *image.RGBA { return d.backbuffer }

// Frames counts presented frames.
func (d *Device) Frames() uint64 { return d.frames }

func (d *Device) resizeBackbuffer(width, height int) {
	d.logicalW, d.logicalH = width, height
	d.backbuffer = image.NewRGBA(image.Rect(0, 0, width, height))
	if d.targetID == uuid.Nil {
		d.target = d.backbuffer
	}
}

func (d *Device) lookup(id uuid.UUID) (*texture, error) {
	if d.destroyed {
		return nil, core.ErrDeviceDestroyed
	}
	t, ok := d.textures.Get(id)
	if !ok {
		return nil, fmt.Errorf("texture %s: %w", id, core.ErrUnknownHandle)
	}
	return t, nil
}

func (d *Device) CreateTexture(width, height int, access metadata.TextureAccess) (uuid.UUID, error) {
	if d.destroyed {
		return uuid.Nil, core.ErrDeviceDestroyed
	}
	if width <= 0 || height <= 0 {
		return uuid.Nil, fmt.Errorf("invalid texture size %dx%d", width, height)
	}
	t := &texture{
		pixels: image.NewRGBA(image.Rect(0, 0, width, height)),
		access: access,
		blend:  metadata.BlendAlpha,
	}
	return d.textures.Acquire(t), nil
}

func (d *Device) DestroyTexture(id uuid.UUID) error {
	if id == d.targetID && id != uuid.Nil {
		return fmt.Errorf("texture %s is bound as render target", id)
	}
	return d.textures.Release(id)
}

func (d *Device) UploadTexture(id uuid.UUID, pixels *image.RGBA) error {
	t, err := d.lookup(id)
	if err != nil {
		return err
	}
	if t.access == metadata.TextureAccessTarget {
		return core.ErrNoBackingStore
	}
	draw.Draw(t.pixels, t.pixels.Rect, pixels, pixels.Rect.Min, draw.Src)
	return nil
}

func (d *Device) LockTexture(id uuid.UUID) (*image.RGBA, error) {
	t, err := d.lookup(id)
	if err != nil {
		return nil, err
	}
	if t.access == metadata.TextureAccessTarget {
		return nil, core.ErrNoBackingStore
	}
	return t.pixels, nil
}

// UnlockTexture has nothing to upload: the mirror is the texture.
func (d *Device) UnlockTexture(id uuid.UUID) error {
	_, err := d.lookup(id)
	return err
}

func (d *Device) SetTextureBlendMode(id uuid.UUID, mode metadata.BlendMode) error {
	t, err := d.lookup(id)
	if err != nil {
		return err
	}
	t.blend = mode
	return nil
}

func (d *Device) SetRenderTarget(id uuid.UUID) error {
	if id == uuid.Nil {
		d.target = d.backbuffer
		d.targetID = uuid.Nil
		return nil
	}
	t, err := d.lookup(id)
	if err != nil {
		return err
	}
	if t.access != metadata.TextureAccessTarget {
		return fmt.Errorf("texture %s has %s access, not target", id, t.access)
	}
	d.target = t.pixels
	d.targetID = id
	return nil
}

func (d *Device) Copy(id uuid.UUID, src, dst image.Rectangle) error {
	t, err := d.lookup(id)
	if err != nil {
		return err
	}
	if id == d.targetID {
		return fmt.Errorf("texture %s copied onto itself", id)
	}
	src = src.Intersect(t.pixels.Rect)
	if src.Empty() || dst.Empty() {
		return nil
	}
	if t.blend == metadata.BlendAdd {
		addScaled(d.target, dst, t.pixels, src)
		return nil
	}
	op := draw.Over
	if t.blend == metadata.BlendNone {
		op = draw.Src
	}
	if src.Dx() == dst.Dx() && src.Dy() == dst.Dy() {
		draw.Draw(d.target, dst, t.pixels, src.Min, op)
		return nil
	}
	xdraw.NearestNeighbor.Scale(d.target, dst, t.pixels, src, op, nil)
	return nil
}

func (d *Device) FillRect(r image.Rectangle, c metadata.PackedColor, mode metadata.BlendMode) error {
	r = r.Intersect(d.target.Rect)
	if r.Empty() {
		return nil
	}
	uniform := image.NewUniform(c.NRGBA())
	switch mode {
	case metadata.BlendNone:
		draw.Draw(d.target, r, uniform, image.Point{}, draw.Src)
	case metadata.BlendAdd:
		fill := image.NewRGBA(image.Rect(0, 0, 1, 1))
		fill.Set(0, 0, c.NRGBA())
		addScaled(d.target, r, fill, fill.Rect)
	default:
		draw.Draw(d.target, r, uniform, image.Point{}, draw.Over)
	}
	return nil
}

func (d *Device) DrawLine(x0, y0, x1, y1 int, c metadata.PackedColor) error {
	col := c.NRGBA()
	renderer.Bresenham(x0, y0, x1, y1, func(x, y int) {
		d.target.Set(x, y, col)
	})
	return nil
}

func (d *Device) ReadPixels(r image.Rectangle) (*image.RGBA, error) {
	r = r.Intersect(d.target.Rect)
	out := image.NewRGBA(image.Rect(0, 0, r.Dx(), r.Dy()))
	draw.Draw(out, out.Rect, d.target, r.Min, draw.Src)
	return out, nil
}

func (d *Device) SetDrawColor(c metadata.PackedColor) {
	d.drawColor = c
}

func (d *Device) Clear() error {
	draw.Draw(d.target, d.target.Rect, image.NewUniform(d.drawColor.NRGBA()), image.Point{}, draw.Src)
	return nil
}

func (d *Device) Present() error {
	if d.destroyed {
		return core.ErrDeviceDestroyed
	}
	d.frames++
	if d.presenter == nil {
		return nil
	}
	return d.presenter.Present(d.backbuffer, d.scale)
}

func (d *Device) SetIntegerScale(enabled bool) error {
	d.integerScale = enabled
	return nil
}

func (d *Device) SetLogicalSize(width, height int) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("invalid logical size %dx%d", width, height)
	}
	if width == d.logicalW && height == d.logicalH {
		return nil
	}
	d.resizeBackbuffer(width, height)
	return nil
}

func (d *Device) LogicalSize() (int, int) {
	return d.logicalW, d.logicalH
}

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
	d.destroyed = true
	return nil
}

// addScaled adds src (nearest-neighbour scaled from sr) onto dst at dr,
// weighting each source pixel by its alpha.
func addScaled(dst *image.RGBA, dr image.Rectangle, src *image.RGBA, sr image.Rectangle) {
	clipped := dr.Intersect(dst.Rect)
	for y := clipped.Min.Y; y < clipped.Max.Y; y++ {
		sy := sr.Min.Y + (y-dr.Min.Y)*sr.Dy()/dr.Dy()
		for x := clipped.Min.X; x < clipped.Max.X; x++ {
			sx := sr.Min.X + (x-dr.Min.X)*sr.Dx()/dr.Dx()
			so := src.PixOffset(sx, sy)
			do := dst.PixOffset(x, y)
			// image.RGBA is premultiplied, so the colour channels already
			// carry the alpha weighting.
			for i := 0; i < 3; i++ {
				v := int(dst.Pix[do+i]) + int(src.Pix[so+i])
				if v > 0xFF {
					v = 0xFF
				}
				dst.Pix[do+i] = uint8(v)
			}
		}
	}
}
