package platform

import (
	"fmt"
	"image"
	"runtime"

	"github.com/go-gl/gl/v3.2-core/gl"
	"github.com/go-gl/glfw/v3.3/glfw"

	"github.com/spaghettifunk/terra/engine/core"
	"github.com/spaghettifunk/terra/engine/renderer"
)

func init() {
	// GLFW event handling must run on the main OS thread
	runtime.LockOSThread()
}

var keyMap = map[glfw.Key]core.KeyCode{
	glfw.KeyEnter:       core.KEY_ENTER,
	glfw.KeyEscape:      core.KEY_ESCAPE,
	glfw.KeySpace:       core.KEY_SPACE,
	glfw.KeyF1:          core.KEY_F1,
	glfw.KeyF2:          core.KEY_F2,
	glfw.KeyF3:          core.KEY_F3,
	glfw.KeyF4:          core.KEY_F4,
	glfw.KeyF11:         core.KEY_F11,
	glfw.KeyGraveAccent: core.KEY_GRAVE,
}

// Platform is a GLFW window with an OpenGL context. It presents frames
// composed by the software device by blitting them into the default
// framebuffer.
type Platform struct {
	Window *glfw.Window

	input *core.Input
	bus   *core.EventBus

	texture     uint32
	framebuffer uint32
	texW, texH  int

	windowedX, windowedY int
	windowedW, windowedH int
}

var (
	_ renderer.Window    = (*Platform)(nil)
	_ renderer.Presenter = (*Platform)(nil)
)

func New(input *core.Input, bus *core.EventBus) (*Platform, error) {
	return &Platform{
		Window: nil,
		input:  input,
		bus:    bus,
	}, nil
}

func (p *Platform) Startup(applicationName string, x uint32, y uint32, width uint32, height uint32) error {
	if err := glfw.Init(); err != nil {
		core.LogFatal("failed to initialize glfw: %s", err)
		return err
	}

	glfw.WindowHint(glfw.Visible, glfw.False)
	glfw.WindowHint(glfw.Resizable, glfw.False)
	glfw.WindowHint(glfw.ContextVersionMajor, 3)
	glfw.WindowHint(glfw.ContextVersionMinor, 2)
	glfw.WindowHint(glfw.OpenGLProfile, glfw.OpenGLCoreProfile)
	glfw.WindowHint(glfw.OpenGLForwardCompatible, glfw.True)

	window, err := glfw.CreateWindow(int(width), int(height), applicationName, nil, nil)
	if err != nil {
		core.LogFatal("failed to create window: %s", err)
		return err
	}
	window.MakeContextCurrent()
	p.Window = window

	if err := gl.Init(); err != nil {
		return fmt.Errorf("failed to initialize OpenGL: %w", err)
	}
	core.LogInfo("OpenGL %s", gl.GoStr(gl.GetString(gl.VERSION)))

	gl.GenTextures(1, &p.texture)
	gl.BindTexture(gl.TEXTURE_2D, p.texture)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.NEAREST)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.NEAREST)
	gl.GenFramebuffers(1, &p.framebuffer)

	p.Window.SetKeyCallback(p.keyCallback)
	p.Window.SetFramebufferSizeCallback(p.framebufferSizeCallback)
	p.Window.SetPos(int(x), int(y))
	p.Window.Show()

	return nil
}

func (p *Platform) Shutdown() error {
	if p.Window != nil {
		gl.DeleteFramebuffers(1, &p.framebuffer)
		gl.DeleteTextures(1, &p.texture)
		p.Window.Destroy()
		p.Window = nil
	}
	glfw.Terminate()
	return nil
}

func (p *Platform) Destroy() error {
	return p.Shutdown()
}

func (p *Platform) PumpMessages() {
	glfw.PollEvents()
}

func (p *Platform) ShouldClose() bool {
	return p.Window == nil || p.Window.ShouldClose()
}

func (p *Platform) SetSize(width, height int) error {
	p.Window.SetSize(width, height)
	return nil
}

func (p *Platform) Size() (int, int) {
	return p.Window.GetSize()
}

func (p *Platform) monitor() *glfw.Monitor {
	if m := p.Window.GetMonitor(); m != nil {
		return m
	}
	return glfw.GetPrimaryMonitor()
}

// SetFullscreen switches to a borderless window covering the monitor, at the
// monitor's current video mode.
func (p *Platform) SetFullscreen(fullscreen bool) error {
	isFullscreen := p.Window.GetMonitor() != nil
	if fullscreen == isFullscreen {
		return nil
	}
	if fullscreen {
		p.windowedX, p.windowedY = p.Window.GetPos()
		p.windowedW, p.windowedH = p.Window.GetSize()
		m := p.monitor()
		mode := m.GetVideoMode()
		p.Window.SetMonitor(m, 0, 0, mode.Width, mode.Height, mode.RefreshRate)
		return nil
	}
	p.Window.SetMonitor(nil, p.windowedX, p.windowedY, p.windowedW, p.windowedH, 0)
	return nil
}

func (p *Platform) DisplayBounds(usable bool) (image.Rectangle, error) {
	m := p.monitor()
	if m == nil {
		return image.Rectangle{}, fmt.Errorf("no monitor available")
	}
	if usable {
		x, y, w, h := m.GetWorkarea()
		return image.Rect(x, y, x+w, y+h), nil
	}
	x, y := m.GetPos()
	mode := m.GetVideoMode()
	return image.Rect(x, y, x+mode.Width, y+mode.Height), nil
}

// Present uploads the frame and blits it, scaled by an integer factor and
// centred, into the window. Rows are flipped since GL's origin is bottom
// left.
func (p *Platform) Present(frame *image.RGBA, multiplier int) error {
	if p.Window == nil {
		return core.ErrDeviceDestroyed
	}
	w, h := frame.Rect.Dx(), frame.Rect.Dy()

	gl.BindTexture(gl.TEXTURE_2D, p.texture)
	if w != p.texW || h != p.texH {
		p.texW, p.texH = w, h
		gl.TexImage2D(gl.TEXTURE_2D, 0,
			gl.RGBA, int32(w), int32(h), 0,
			gl.RGBA, gl.UNSIGNED_BYTE,
			gl.Ptr(frame.Pix))
		gl.BindFramebuffer(gl.READ_FRAMEBUFFER, p.framebuffer)
		gl.FramebufferTexture2D(gl.READ_FRAMEBUFFER, gl.COLOR_ATTACHMENT0, gl.TEXTURE_2D, p.texture, 0)
	} else {
		gl.TexSubImage2D(gl.TEXTURE_2D, 0,
			0, 0, int32(w), int32(h),
			gl.RGBA, gl.UNSIGNED_BYTE,
			gl.Ptr(frame.Pix))
	}

	fbW, fbH := p.Window.GetFramebufferSize()
	dst := presentRect(w, h, fbW, fbH, multiplier)

	gl.BindFramebuffer(gl.DRAW_FRAMEBUFFER, 0)
	gl.ClearColor(0, 0, 0, 1)
	gl.Clear(gl.COLOR_BUFFER_BIT)
	gl.BindFramebuffer(gl.READ_FRAMEBUFFER, p.framebuffer)
	gl.BlitFramebuffer(
		0, 0, int32(w), int32(h),
		int32(dst.Min.X), int32(fbH-dst.Min.Y), int32(dst.Max.X), int32(fbH-dst.Max.Y),
		gl.COLOR_BUFFER_BIT, gl.NEAREST)

	p.Window.SwapBuffers()
	return nil
}

// presentRect centres the frame at the largest integer scale that fits the
// framebuffer. The multiplier is used when nothing fits.
func presentRect(frameW, frameH, fbW, fbH, multiplier int) image.Rectangle {
	scale := multiplier
	if frameW > 0 && frameH > 0 {
		if fit := min(fbW/frameW, fbH/frameH); fit >= 1 {
			scale = fit
		}
	}
	if scale < 1 {
		scale = 1
	}
	w, h := frameW*scale, frameH*scale
	x, y := (fbW-w)/2, (fbH-h)/2
	return image.Rect(x, y, x+w, y+h)
}

func (p *Platform) keyCallback(w *glfw.Window, key glfw.Key, scancode int, action glfw.Action, mods glfw.ModifierKey) {
	if action == glfw.Repeat || p.input == nil {
		return
	}
	if code, ok := keyMap[key]; ok {
		p.input.ProcessKey(code, action == glfw.Press)
	}
}

func (p *Platform) framebufferSizeCallback(w *glfw.Window, width, height int) {
	if p.bus == nil {
		return
	}
	p.bus.Fire(core.EventContext{
		Type: core.EVENT_CODE_RESIZED,
		Data: &core.SystemEvent{WindowWidth: uint32(width), WindowHeight: uint32(height)},
	})
}
