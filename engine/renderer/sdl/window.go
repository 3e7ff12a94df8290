package sdl

import (
	"fmt"
	"image"

	"github.com/veandco/go-sdl2/sdl"

	"github.com/spaghettifunk/terra/engine/core"
	"github.com/spaghettifunk/terra/engine/renderer"
)

var keyMap = map[sdl.Keycode]core.KeyCode{
	sdl.K_RETURN:    core.KEY_ENTER,
	sdl.K_ESCAPE:    core.KEY_ESCAPE,
	sdl.K_SPACE:     core.KEY_SPACE,
	sdl.K_F1:        core.KEY_F1,
	sdl.K_F2:        core.KEY_F2,
	sdl.K_F3:        core.KEY_F3,
	sdl.K_F4:        core.KEY_F4,
	sdl.K_F11:       core.KEY_F11,
	sdl.K_BACKQUOTE: core.KEY_GRAVE,
}

// Window wraps an SDL window. Key events are forwarded to the input state.
type Window struct {
	handle      *sdl.Window
	input       *core.Input
	shouldClose bool
}

var _ renderer.Window = (*Window)(nil)

func NewWindow(title string, width, height int, input *core.Input) (*Window, error) {
	if err := sdl.Init(sdl.INIT_VIDEO); err != nil {
		return nil, fmt.Errorf("failed to initialize SDL: %w", err)
	}
	handle, err := sdl.CreateWindow(title,
		sdl.WINDOWPOS_CENTERED, sdl.WINDOWPOS_CENTERED,
		int32(width), int32(height),
		sdl.WINDOW_SHOWN|sdl.WINDOW_ALLOW_HIGHDPI)
	if err != nil {
		sdl.Quit()
		return nil, fmt.Errorf("failed to create window: %w", err)
	}
	return &Window{handle: handle, input: input}, nil
}

func (w *Window) SetSize(width, height int) error {
	w.handle.SetSize(int32(width), int32(height))
	w.handle.SetPosition(sdl.WINDOWPOS_CENTERED, sdl.WINDOWPOS_CENTERED)
	return nil
}

func (w *Window) Size() (int, int) {
	width, height := w.handle.GetSize()
	return int(width), int(height)
}

func (w *Window) SetFullscreen(fullscreen bool) error {
	if fullscreen {
		return w.handle.SetFullscreen(sdl.WINDOW_FULLSCREEN_DESKTOP)
	}
	return w.handle.SetFullscreen(0)
}

func (w *Window) DisplayBounds(usable bool) (image.Rectangle, error) {
	index, err := w.handle.GetDisplayIndex()
	if err != nil {
		return image.Rectangle{}, err
	}
	var bounds sdl.Rect
	if usable {
		bounds, err = sdl.GetDisplayUsableBounds(index)
	} else {
		bounds, err = sdl.GetDisplayBounds(index)
	}
	if err != nil {
		return image.Rectangle{}, err
	}
	return image.Rect(int(bounds.X), int(bounds.Y), int(bounds.X+bounds.W), int(bounds.Y+bounds.H)), nil
}

func (w *Window) ShouldClose() bool {
	return w.shouldClose
}

func (w *Window) PumpMessages() {
	for event := sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
		switch ev := event.(type) {
		case *sdl.QuitEvent:
			w.shouldClose = true
		case *sdl.KeyboardEvent:
			if ev.Repeat != 0 || w.input == nil {
				continue
			}
			if key, ok := keyMap[ev.Keysym.Sym]; ok {
				w.input.ProcessKey(key, ev.Type == sdl.KEYDOWN)
			}
		}
	}
}

func (w *Window) Destroy() error {
	if w.handle == nil {
		return nil
	}
	err := w.handle.Destroy()
	w.handle = nil
	sdl.Quit()
	return err
}
