package systems

import (
	"image"
	"image/color"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/spaghettifunk/terra/engine/core"
	"github.com/spaghettifunk/terra/engine/math"
	"github.com/spaghettifunk/terra/engine/renderer"
	"github.com/spaghettifunk/terra/engine/renderer/metadata"
	"github.com/spaghettifunk/terra/engine/renderer/software"
)

type manualTime struct {
	now time.Time
}

func (m *manualTime) Now() time.Time { return m.now }

func (m *manualTime) advance(ms int) {
	m.now = m.now.Add(time.Duration(ms) * time.Millisecond)
}

type fakeWindow struct {
	width, height int
	fullscreen    bool
	bounds        image.Rectangle
	usable        image.Rectangle
	fullscreenErr error
}

func (w *fakeWindow) SetSize(width, height int) error {
	w.width, w.height = width, height
	return nil
}

func (w *fakeWindow) Size() (int, int) { return w.width, w.height }

func (w *fakeWindow) SetFullscreen(fullscreen bool) error {
	if w.fullscreenErr != nil {
		return w.fullscreenErr
	}
	w.fullscreen = fullscreen
	if fullscreen {
		w.width, w.height = w.bounds.Dx(), w.bounds.Dy()
	}
	return nil
}

func (w *fakeWindow) DisplayBounds(usable bool) (image.Rectangle, error) {
	if usable {
		return w.usable, nil
	}
	return w.bounds, nil
}

func (w *fakeWindow) ShouldClose() bool { return false }
func (w *fakeWindow) PumpMessages()     {}
func (w *fakeWindow) Destroy() error    { return nil }

type copyCall struct {
	id       uuid.UUID
	src, dst image.Rectangle
}

// recordingDevice is the software device, noting the target binds, copies
// and lines it is asked for.
type recordingDevice struct {
	*software.Device
	binds  []uuid.UUID
	copies []copyCall
	lines  [][4]int
	// scaleErr fails every SetScale when set.
	scaleErr error
}

func (d *recordingDevice) SetScale(multiplier int) error {
	if d.scaleErr != nil {
		return d.scaleErr
	}
	return d.Device.SetScale(multiplier)
}

func (d *recordingDevice) SetRenderTarget(id uuid.UUID) error {
	d.binds = append(d.binds, id)
	return d.Device.SetRenderTarget(id)
}

func (d *recordingDevice) Copy(id uuid.UUID, src, dst image.Rectangle) error {
	d.copies = append(d.copies, copyCall{id: id, src: src, dst: dst})
	return d.Device.Copy(id, src, dst)
}

func (d *recordingDevice) DrawLine(x0, y0, x1, y1 int, c metadata.PackedColor) error {
	d.lines = append(d.lines, [4]int{x0, y0, x1, y1})
	return d.Device.DrawLine(x0, y0, x1, y1, c)
}

func (d *recordingDevice) reset() {
	d.binds, d.copies, d.lines = nil, nil, nil
}

type drawCall struct {
	offset        math.Vector
	width, height int
}

// stubScene paints an 8x8 white block at the top-left of every view.
type stubScene struct {
	width, height int
	wrapX, wrapY  bool
	offsets       map[int]math.Vector
	advanced      []int
	drawn         []drawCall
	cleared       int
}

func newStubScene(width, height int) *stubScene {
	return &stubScene{width: width, height: height, offsets: make(map[int]math.Vector)}
}

func (s *stubScene) GetWorldWidth() int      { return s.width }
func (s *stubScene) GetWorldHeight() int     { return s.height }
func (s *stubScene) WrapsHorizontally() bool { return s.wrapX }
func (s *stubScene) WrapsVertically() bool   { return s.wrapY }

func (s *stubScene) AdvanceViewFor(screen int) {
	s.advanced = append(s.advanced, screen)
}

func (s *stubScene) GetScrollOffset(screen int) math.Vector {
	return s.offsets[screen]
}

func (s *stubScene) DrawWorld(r *renderer.Renderer, offset math.Vector) {
	w, h := r.RenderSize()
	s.drawn = append(s.drawn, drawCall{offset: offset, width: w, height: h})
	r.FillRect(image.Rect(0, 0, 8, 8), metadata.WhiteColor, metadata.BlendNone)
}

func (s *stubScene) ClearRevealedPixelTracking() {
	s.cleared++
}

type stubConsole struct {
	diagnostics []string
	overlays    int
}

func (c *stubConsole) DrawOverlay(r *renderer.Renderer) { c.overlays++ }
func (c *stubConsole) PrintDiagnostic(message string)   { c.diagnostics = append(c.diagnostics, message) }

type stubSettings struct {
	persisted int
}

func (s *stubSettings) PersistCurrentSettings() error {
	s.persisted++
	return nil
}

type repositioned struct {
	screen        int
	width, height int
	origin        math.Vector
}

type stubPostProcess struct {
	teams        []int
	repositioned []repositioned
	applied      int
	cleared      int
}

func (p *stubPostProcess) ClearScreenEffects() { p.cleared++ }

func (p *stubPostProcess) CollectWrappedEffects(offset math.Vector, width, height, team int) []metadata.PostEffect {
	p.teams = append(p.teams, team)
	return []metadata.PostEffect{{Position: math.NewVector(1, 1), Team: team}}
}

func (p *stubPostProcess) CollectWrappedGlowAreas(offset math.Vector, width, height int) []metadata.GlowArea {
	return nil
}

func (p *stubPostProcess) RepositionEffects(screen, width, height int, origin math.Vector, effects []metadata.PostEffect, glowAreas []metadata.GlowArea) {
	p.repositioned = append(p.repositioned, repositioned{screen: screen, width: width, height: height, origin: origin})
}

func (p *stubPostProcess) ApplyGlobalPostProcess(r *renderer.Renderer) { p.applied++ }

type stubSink struct {
	mutex  sync.Mutex
	frames []*NetworkFrame
}

func (s *stubSink) SendFrame(frame *NetworkFrame) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.frames = append(s.frames, frame)
	return nil
}

func (s *stubSink) count() int {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return len(s.frames)
}

type testRig struct {
	frame    *FrameSystem
	renderer *renderer.Renderer
	device   *recordingDevice
	window   *fakeWindow
	clock    *manualTime
	scene    *stubScene
	console  *stubConsole
	settings *stubSettings
	bus      *core.EventBus
}

// newTestRig builds an initialized frame system at resX x resY on a
// 1920x1080 display. configure may adjust the config and collaborators
// before construction.
func newTestRig(t *testing.T, resX, resY int, configure func(*FrameSystemConfig, *FrameSystemDeps)) *testRig {
	t.Helper()
	clock := &manualTime{now: time.Unix(1000, 0)}
	device := &recordingDevice{Device: software.New(resX, resY, nil)}
	r := renderer.New(device, nil)
	window := &fakeWindow{
		bounds: image.Rect(0, 0, 1920, 1080),
		usable: image.Rect(0, 0, 1920, 1080),
	}
	rig := &testRig{
		renderer: r,
		device:   device,
		window:   window,
		clock:    clock,
		scene:    newStubScene(resX*4, resY*4),
		console:  &stubConsole{},
		settings: &stubSettings{},
		bus:      core.NewEventBus(),
	}
	config := &FrameSystemConfig{ResX: resX, ResY: resY, ResMultiplier: 1, TimeSource: clock}
	deps := FrameSystemDeps{
		Scene:    rig.scene,
		Console:  rig.console,
		Settings: rig.settings,
	}
	if configure != nil {
		configure(config, &deps)
	}
	f, err := NewFrameSystem(config, r, window, rig.bus, deps)
	if err != nil {
		t.Fatalf("NewFrameSystem() error = %v", err)
	}
	if err := f.Initialize(); err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}
	rig.frame = f
	device.reset()
	return rig
}

// drawFrame runs one frame the way the engine loop does.
func (rig *testRig) drawFrame() {
	rig.renderer.RenderClear()
	rig.frame.Draw()
	rig.renderer.RenderPresent()
}

func expectAssertion(t *testing.T, name string, fn func()) {
	t.Helper()
	defer func() {
		t.Helper()
		if _, ok := core.AsAssertion(recover()); !ok {
			t.Errorf("%s did not raise an assertion", name)
		}
	}()
	fn()
}

// newFilledPaletted is a width x height image with every pixel at index.
func newFilledPaletted(width, height int, palette color.Palette, index uint8) *image.Paletted {
	img := image.NewPaletted(image.Rect(0, 0, width, height), palette)
	for i := range img.Pix {
		img.Pix[i] = index
	}
	return img
}
