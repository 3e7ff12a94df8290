package systems

import (
	"image"
	"image/draw"
	"sync"
	"sync/atomic"

	"github.com/spaghettifunk/terra/engine/core"
	"github.com/spaghettifunk/terra/engine/math"
	"github.com/spaghettifunk/terra/engine/renderer"
	"github.com/spaghettifunk/terra/engine/renderer/metadata"
)

// RenderStrategy decides where the player screens of a frame go.
type RenderStrategy interface {
	Name() string
	// DrawScreen composes one player screen. Called with the backbuffer
	// bound and must leave it bound.
	DrawScreen(f *FrameSystem, screen, screenCount int, activity Activity)
	// Local reports whether screens end up on the local backbuffer.
	Local() bool
	Destroy()
}

// composedScreen is what is left of a player screen once it is drawn.
type composedScreen struct {
	width, height int
	offset        math.Vector
	effects       []metadata.PostEffect
	glowAreas     []metadata.GlowArea
}

// composeScreen draws the world, the text and the flash of a screen onto
// the current render target.
func (f *FrameSystem) composeScreen(screen int, activity Activity) composedScreen {
	var c composedScreen
	c.width, c.height = f.renderer.RenderSize()
	c.offset = f.viewOffset(screen, c.width, c.height)

	f.deps.Scene.DrawWorld(f.renderer, c.offset)
	if activity != nil {
		c.effects, c.glowAreas = f.collectEffects(screen, c.offset, c.width, c.height, activity)
	}
	f.drawScreenText(screen, c.width, c.height)
	f.drawScreenFlash(screen, c.width, c.height)
	return c
}

// LocalRenderStrategy draws every player screen onto the backbuffer. A
// single screen is drawn in place, split screens go through the scratch
// target one after the other.
type LocalRenderStrategy struct{}

func (s *LocalRenderStrategy) Name() string { return "local" }
func (s *LocalRenderStrategy) Local() bool  { return true }
func (s *LocalRenderStrategy) Destroy()     {}

func (s *LocalRenderStrategy) DrawScreen(f *FrameSystem, screen, screenCount int, activity Activity) {
	var composed composedScreen
	origin := image.Point{}

	if screenCount > 1 && f.scratch != nil {
		scratch := f.scratch
		f.renderer.WithRenderTarget(scratch.AsRenderTarget(), func() {
			// The scratch still holds the previous screen.
			f.renderer.FillRect(scratch.Bounds(), metadata.BlackColor, metadata.BlendNone)
			composed = f.composeScreen(screen, activity)
		})
		origin = ScreenOffset(screen, f.hSplit, f.vSplit, f.resX, f.resY)
		scratch.Render(origin.X, origin.Y, nil, false, nil)
	} else {
		composed = f.composeScreen(screen, activity)
	}

	if activity != nil && f.deps.PostProcess != nil {
		f.deps.PostProcess.RepositionEffects(screen, composed.width, composed.height,
			math.NewVector(float32(origin.X), float32(origin.Y)), composed.effects, composed.glowAreas)
	}
}

// NetworkFrame is one composed player screen, ready for a network client.
type NetworkFrame struct {
	Screen   int
	Sequence uint64
	// Scroll offset the frame was drawn at.
	Offset    math.Vector
	Image     *image.Paletted
	Effects   []metadata.PostEffect
	GlowAreas []metadata.GlowArea
}

// NetworkSink transmits frames. SendFrame may be called off the render
// thread.
type NetworkSink interface {
	SendFrame(frame *NetworkFrame) error
}

// NetworkRenderStrategy composes each screen offscreen, quantizes it
// against the palette and hands it to the sink. Nothing reaches the local
// backbuffer.
type NetworkRenderStrategy struct {
	sink    NetworkSink
	jobs    *JobSystem
	palette *renderer.Palette

	// Used when the layout has no scratch target of its own.
	target *renderer.Texture

	sequence atomic.Uint64
	sent     atomic.Uint64
	dropped  atomic.Uint64
}

func NewNetworkRenderStrategy(sink NetworkSink, jobs *JobSystem, palette *renderer.Palette) *NetworkRenderStrategy {
	if sink == nil {
		core.LogWarn("network rendering enabled without a sink, frames will be discarded")
	}
	return &NetworkRenderStrategy{sink: sink, jobs: jobs, palette: palette}
}

func (s *NetworkRenderStrategy) Name() string { return "network" }
func (s *NetworkRenderStrategy) Local() bool  { return false }

func (s *NetworkRenderStrategy) Destroy() {
	if s.target != nil {
		s.target.Destroy()
		s.target = nil
	}
}

// Sent and Dropped count frames handed to the sink and frames lost to a
// full job queue.
func (s *NetworkRenderStrategy) Sent() uint64    { return s.sent.Load() }
func (s *NetworkRenderStrategy) Dropped() uint64 { return s.dropped.Load() }

func (s *NetworkRenderStrategy) scratchFor(f *FrameSystem) *renderer.Texture {
	if f.scratch != nil {
		return f.scratch
	}
	if s.target != nil && (s.target.Width() != f.resX || s.target.Height() != f.resY) {
		s.target.Destroy()
		s.target = nil
	}
	if s.target == nil {
		s.target = f.renderer.NewTexture(f.resX, f.resY, true)
	}
	return s.target
}

func (s *NetworkRenderStrategy) DrawScreen(f *FrameSystem, screen, screenCount int, activity Activity) {
	scratch := s.scratchFor(f)

	var composed composedScreen
	var pixels *image.RGBA
	f.renderer.WithRenderTarget(scratch.AsRenderTarget(), func() {
		// Mask pixels quantize to index 0, which clients treat as empty.
		f.renderer.FillRect(scratch.Bounds(), metadata.MaskColor, metadata.BlendNone)
		composed = f.composeScreen(screen, activity)
		pixels = f.renderer.ReadPixels()
	})

	frame := &NetworkFrame{
		Screen:    screen,
		Sequence:  s.sequence.Add(1),
		Offset:    composed.offset,
		Image:     s.palette.Quantize(pixels),
		Effects:   composed.effects,
		GlowAreas: composed.glowAreas,
	}
	s.ship(frame)
}

func (s *NetworkRenderStrategy) ship(frame *NetworkFrame) {
	if s.sink == nil {
		s.dropped.Add(1)
		return
	}
	if s.jobs == nil {
		if err := s.sink.SendFrame(frame); err != nil {
			core.LogError("network frame %d of screen %d not sent: %s", frame.Sequence, frame.Screen, err)
			return
		}
		s.sent.Add(1)
		return
	}
	queued := s.jobs.TrySubmit(JobTask{
		Name:        "network-frame",
		InputParams: frame,
		OnStart: func(params interface{}) (interface{}, error) {
			return nil, s.sink.SendFrame(params.(*NetworkFrame))
		},
		OnComplete: func(interface{}) {
			s.sent.Add(1)
		},
	})
	if !queued {
		if s.dropped.Add(1)%60 == 1 {
			core.LogWarn("network frame queue full, %d frames dropped so far", s.dropped.Load())
		}
	}
}

// NetworkFrameBuffer holds the latest frame received from a network
// server. The receive thread stores into it while the render thread copies
// out of it.
type NetworkFrameBuffer struct {
	mutex sync.Mutex
	frame *image.Paletted
	gui   *image.Paletted
}

func NewNetworkFrameBuffer() *NetworkFrameBuffer {
	return &NetworkFrameBuffer{}
}

// Store replaces the held frame. gui is drawn over the frame and may be nil.
func (b *NetworkFrameBuffer) Store(frame, gui *image.Paletted) {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	b.frame = frame
	b.gui = gui
}

// CopyInto draws the held frame into dst and reports whether there was one.
func (b *NetworkFrameBuffer) CopyInto(dst draw.Image) bool {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	if b.frame == nil {
		return false
	}
	bounds := dst.Bounds()
	draw.Draw(dst, bounds, b.frame, b.frame.Rect.Min, draw.Src)
	if b.gui != nil {
		draw.Draw(dst, bounds, b.gui, b.gui.Rect.Min, draw.Over)
	}
	return true
}
