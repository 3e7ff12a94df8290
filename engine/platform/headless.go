package platform

import (
	"image"

	"github.com/spaghettifunk/terra/engine/renderer"
)

// Headless is a window without a display. It reports fixed display bounds,
// so resolution handling behaves as it would on a real monitor of that size.
type Headless struct {
	width, height int
	fullscreen    bool
	closed        bool

	Bounds       image.Rectangle
	UsableBounds image.Rectangle
	// FrameLimit closes the window after that many pumps. Zero runs forever.
	FrameLimit int
	pumps      int
}

var _ renderer.Window = (*Headless)(nil)

func NewHeadless(width, height int, display image.Rectangle) *Headless {
	return &Headless{
		width:        width,
		height:       height,
		Bounds:       display,
		UsableBounds: display,
	}
}

func (h *Headless) SetSize(width, height int) error {
	h.width, h.height = width, height
	return nil
}

func (h *Headless) Size() (int, int) {
	return h.width, h.height
}

func (h *Headless) SetFullscreen(fullscreen bool) error {
	h.fullscreen = fullscreen
	if fullscreen {
		h.width, h.height = h.Bounds.Dx(), h.Bounds.Dy()
	}
	return nil
}

func (h *Headless) IsFullscreen() bool {
	return h.fullscreen
}

func (h *Headless) DisplayBounds(usable bool) (image.Rectangle, error) {
	if usable {
		return h.UsableBounds, nil
	}
	return h.Bounds, nil
}

func (h *Headless) ShouldClose() bool {
	return h.closed
}

func (h *Headless) PumpMessages() {
	h.pumps++
	if h.FrameLimit > 0 && h.pumps >= h.FrameLimit {
		h.closed = true
	}
}

func (h *Headless) Close() {
	h.closed = true
}

func (h *Headless) Destroy() error {
	h.closed = true
	return nil
}
