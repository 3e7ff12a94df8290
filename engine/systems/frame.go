package systems

import (
	"errors"
	"image"
	"image/color"

	"github.com/fzipp/bmfont"
	"golang.org/x/image/font"

	"github.com/spaghettifunk/terra/engine/core"
	"github.com/spaghettifunk/terra/engine/math"
	"github.com/spaghettifunk/terra/engine/renderer"
	"github.com/spaghettifunk/terra/engine/renderer/metadata"
)

// Status is returned by the display mode operations consulted by menus.
type Status int

const (
	StatusOK Status = 0
	// StatusRejected means the request was invalid or unsafe. Nothing changed.
	StatusRejected Status = -1
	// StatusDeviceError means the platform refused the change.
	StatusDeviceError Status = -2
)

const (
	DefaultResX          = 960
	DefaultResY          = 540
	DefaultResMultiplier = 1
	MaxResMultiplier     = 4
)

// SceneView is the world as seen by the player screens.
type SceneView interface {
	WorldExtent
	// AdvanceViewFor moves the view of a screen one frame toward its target.
	AdvanceViewFor(screen int)
	// GetScrollOffset is the world position drawn at the top-left of a
	// screen. DrawWorld places the world at -offset, so a world smaller
	// than the screen is centred by a negative offset (see CenterOffset).
	GetScrollOffset(screen int) math.Vector
	DrawWorld(r *renderer.Renderer, offset math.Vector)
	ClearRevealedPixelTracking()
}

// Activity is a running game session.
type Activity interface {
	TeamOfPlayer(player int) int
	PlayerOfScreen(screen int) int
}

// ActivityProvider returns the running activity, or nil when there is none.
type ActivityProvider interface {
	GetRunningActivity() Activity
	EndActivity()
}

// PostProcessor gathers glows and applies them over the composed frame.
type PostProcessor interface {
	ClearScreenEffects()
	CollectWrappedEffects(offset math.Vector, width, height, team int) []metadata.PostEffect
	CollectWrappedGlowAreas(offset math.Vector, width, height int) []metadata.GlowArea
	RepositionEffects(screen, width, height int, origin math.Vector, effects []metadata.PostEffect, glowAreas []metadata.GlowArea)
	ApplyGlobalPostProcess(r *renderer.Renderer)
}

type SettingsPersister interface {
	PersistCurrentSettings() error
}

type Console interface {
	DrawOverlay(r *renderer.Renderer)
	PrintDiagnostic(message string)
}

type PerformanceTracker interface {
	Tick()
	ResetFrameTimer()
}

// FrameAssets loads the fonts and palette. *assets.AssetManager satisfies it.
type FrameAssets interface {
	LoadBitmapFont(name string) (*bmfont.BitmapFont, error)
	LoadSystemFont(name string, size float64) (font.Face, error)
	LoadPalette(name string) (color.Palette, error)
}

// FrameSystemDeps are the collaborators of the frame system. Only Scene is
// required.
type FrameSystemDeps struct {
	Scene       SceneView
	Activities  ActivityProvider
	PostProcess PostProcessor
	Settings    SettingsPersister
	Console     Console
	Performance PerformanceTracker
	Assets      FrameAssets
	// Network receives the frames of the network render strategy.
	Network NetworkSink
	Jobs    *JobSystem
}

/** @brief The frame system configuration. */
type FrameSystemConfig struct {
	/** @brief Logical resolution. Zero picks the default. */
	ResX int
	ResY int
	/** @brief Integer scale multiplier in [1,4]. */
	ResMultiplier      int
	Fullscreen         bool
	UpscaledFullscreen bool
	/** @brief Force the matching split on whatever the activity asks for. */
	HSplitOverride bool
	VSplitOverride bool
	/** @brief Compose screens for network clients instead of locally. */
	NetworkRendering bool
	/** @brief Show the last frame received from the network server. */
	DrawNetworkBackBuffer bool
	/** @brief Asset names. Missing fonts fall back to the built-in font. */
	LargeFont string
	SmallFont string
	FontSize  float64
	Palette   string
	/** @brief Time source of the text and flash timers. nil is the wall clock. */
	TimeSource core.TimeSource
}

// FrameSystem composes every frame: it draws each player screen, places
// it on the backbuffer, overlays text, flashes and the console, and owns
// the display mode of the window.
type FrameSystem struct {
	Config   *FrameSystemConfig
	renderer *renderer.Renderer
	window   renderer.Window
	bus      *core.EventBus
	deps     FrameSystemDeps

	resX, resY   int
	multiplier   int
	fullscreen   bool
	resChanged   bool
	screenBounds image.Rectangle

	hSplit, vSplit bool
	// Shared by every player screen of a frame, one after the other.
	scratch *renderer.Texture

	palette        *renderer.Palette
	paletteTexture *renderer.Texture
	largeFont      renderer.Font
	smallFont      renderer.Font
	textOverlay    *renderer.Texture

	screenText [MaxScreenCount]screenText
	flashes    [MaxScreenCount]screenFlash

	strategy       RenderStrategy
	networkFrames  *NetworkFrameBuffer
	networkTexture *renderer.Texture

	initialized bool
}

func NewFrameSystem(config *FrameSystemConfig, r *renderer.Renderer, window renderer.Window, bus *core.EventBus, deps FrameSystemDeps) (*FrameSystem, error) {
	if r == nil || window == nil {
		err := errors.New("func NewFrameSystem - a renderer and a window are required")
		core.LogError(err.Error())
		return nil, err
	}
	if deps.Scene == nil {
		err := errors.New("func NewFrameSystem - a scene view is required")
		core.LogError(err.Error())
		return nil, err
	}
	if config.ResX <= 0 || config.ResY <= 0 {
		config.ResX, config.ResY = DefaultResX, DefaultResY
	}
	if config.ResMultiplier <= 0 || config.ResMultiplier > MaxResMultiplier {
		config.ResMultiplier = DefaultResMultiplier
	}

	f := &FrameSystem{
		Config:        config,
		renderer:      r,
		window:        window,
		bus:           bus,
		deps:          deps,
		resX:          config.ResX,
		resY:          config.ResY,
		multiplier:    config.ResMultiplier,
		networkFrames: NewNetworkFrameBuffer(),
	}
	for i := range f.screenText {
		f.screenText[i] = newScreenText(config.TimeSource)
		f.flashes[i] = newScreenFlash(config.TimeSource)
	}
	return f, nil
}

// Initialize sizes the window, configures the device scaling and loads
// the palette and fonts.
func (f *FrameSystem) Initialize() error {
	if err := f.window.SetSize(f.resX, f.resY); err != nil {
		return err
	}
	if f.SetFullscreen(f.Config.Fullscreen) != StatusOK {
		f.refreshScreenBounds()
	}

	device := f.renderer.Device()
	// Integer scaling keeps pixels from being rendered at subpixel offsets.
	if err := device.SetIntegerScale(true); err != nil {
		core.LogWarn("integer scaling unavailable: %s", err)
	}
	if err := device.SetLogicalSize(f.resX, f.resY); err != nil {
		return err
	}
	if err := device.SetScale(f.multiplier); err != nil {
		return err
	}
	f.renderer.SetDrawColor(metadata.BlackColor)
	f.renderer.RenderClear()

	f.palette = f.loadPalette()
	f.paletteTexture = f.palette.Texture(f.renderer)
	f.largeFont = f.loadFont(f.Config.LargeFont)
	f.smallFont = f.loadFont(f.Config.SmallFont)

	if f.Config.NetworkRendering {
		f.strategy = NewNetworkRenderStrategy(f.deps.Network, f.deps.Jobs, f.palette)
	} else {
		f.strategy = &LocalRenderStrategy{}
	}
	f.ResetSplitScreens(false, false)

	f.initialized = true
	core.LogInfo("frame system ready: %dx%d x%d on %s (%s), %s composition",
		f.resX, f.resY, f.multiplier, device.Name(), device.PixelFormat(), f.strategy.Name())
	return nil
}

func (f *FrameSystem) loadPalette() *renderer.Palette {
	if f.deps.Assets != nil && f.Config.Palette != "" {
		p, err := f.deps.Assets.LoadPalette(f.Config.Palette)
		if err == nil {
			return renderer.NewPalette(p)
		}
		core.LogWarn("palette %q unavailable, using the built-in one: %s", f.Config.Palette, err)
	}
	return renderer.DefaultPalette()
}

func (f *FrameSystem) loadFont(name string) renderer.Font {
	if f.deps.Assets == nil || name == "" {
		return renderer.DefaultFont()
	}
	if bf, err := f.deps.Assets.LoadBitmapFont(name); err == nil {
		return renderer.NewBitmapFont(bf)
	}
	size := f.Config.FontSize
	if size <= 0 {
		size = 12
	}
	face, err := f.deps.Assets.LoadSystemFont(name, size)
	if err != nil {
		core.LogWarn("font %q unavailable, using the built-in one: %s", name, err)
		return renderer.DefaultFont()
	}
	return renderer.NewFaceFont(face)
}

// Destroy releases every texture owned by the frame system.
func (f *FrameSystem) Destroy() error {
	for _, t := range []*renderer.Texture{f.scratch, f.textOverlay, f.networkTexture, f.paletteTexture} {
		if t != nil {
			t.Destroy()
		}
	}
	f.scratch, f.textOverlay, f.networkTexture, f.paletteTexture = nil, nil, nil, nil
	if f.strategy != nil {
		f.strategy.Destroy()
	}
	f.initialized = false
	return nil
}

// Update runs once per simulation step.
func (f *FrameSystem) Update() {
	if f.deps.Performance != nil {
		f.deps.Performance.Tick()
	}
}

func (f *FrameSystem) runningActivity() Activity {
	if f.deps.Activities == nil {
		return nil
	}
	return f.deps.Activities.GetRunningActivity()
}

// Draw composes the frame onto the backbuffer. It must be called between
// RenderClear and RenderPresent with no offscreen target bound.
func (f *FrameSystem) Draw() {
	core.Assert(f.renderer.CurrentTarget().IsBackbuffer(), "frame drawn with an offscreen target bound")

	if f.deps.PostProcess != nil {
		f.deps.PostProcess.ClearScreenEffects()
	}
	activity := f.runningActivity()

	screenCount := f.ScreenCount()
	for screen := 0; screen < screenCount; screen++ {
		f.strategy.DrawScreen(f, screen, screenCount, activity)
	}

	// Pixels revealed this frame have been seen by every screen now.
	f.deps.Scene.ClearRevealedPixelTracking()

	if f.strategy.Local() {
		width, height := f.renderer.RenderSize()
		if f.hSplit {
			f.renderer.HorizontalLine(0, height/2-1, width-1, metadata.BlackColor)
			f.renderer.HorizontalLine(0, height/2, width-1, metadata.BlackColor)
		}
		if f.vSplit {
			f.renderer.VerticalLine(width/2-1, 0, height-1, metadata.BlackColor)
			f.renderer.VerticalLine(width/2, 0, height-1, metadata.BlackColor)
		}
		if f.Config.DrawNetworkBackBuffer {
			f.drawNetworkBackBuffer(width, height)
		}
	}

	if activity != nil && f.deps.PostProcess != nil {
		f.deps.PostProcess.ApplyGlobalPostProcess(f.renderer)
	}
	if f.deps.Console != nil {
		f.deps.Console.DrawOverlay(f.renderer)
	}

	f.renderer.AssertBalanced()
	if f.deps.Performance != nil {
		f.deps.Performance.ResetFrameTimer()
	}
}

// viewOffset advances the view of a screen and returns its centred scroll
// offset for a target of the given size.
func (f *FrameSystem) viewOffset(screen, width, height int) math.Vector {
	f.deps.Scene.AdvanceViewFor(screen)
	offset := f.deps.Scene.GetScrollOffset(screen)
	return CenterOffset(offset, width, height, f.deps.Scene)
}

// collectEffects returns the screen relative effects visible from a screen,
// filtered by the team of the player watching it.
func (f *FrameSystem) collectEffects(screen int, offset math.Vector, width, height int, activity Activity) ([]metadata.PostEffect, []metadata.GlowArea) {
	if f.deps.PostProcess == nil {
		return nil, nil
	}
	team := activity.TeamOfPlayer(activity.PlayerOfScreen(screen))
	effects := f.deps.PostProcess.CollectWrappedEffects(offset, width, height, team)
	glowAreas := f.deps.PostProcess.CollectWrappedGlowAreas(offset, width, height)
	return effects, glowAreas
}

func (f *FrameSystem) drawNetworkBackBuffer(width, height int) {
	if f.networkTexture == nil || f.networkTexture.Width() != width || f.networkTexture.Height() != height {
		if f.networkTexture != nil {
			f.networkTexture.Destroy()
		}
		f.networkTexture = f.renderer.NewTexture(width, height, false)
	}
	if !f.networkFrames.CopyInto(f.networkTexture.Pixels()) {
		return
	}
	f.networkTexture.Render(0, 0, nil, false, nil)
}

// NetworkFrames is where the network receive thread stores server frames.
func (f *FrameSystem) NetworkFrames() *NetworkFrameBuffer {
	return f.networkFrames
}

func (f *FrameSystem) Strategy() RenderStrategy {
	return f.strategy
}

func (f *FrameSystem) Palette() *renderer.Palette {
	return f.palette
}

// GetColorFromIndex maps a legacy 8-bit colour index through the palette.
func (f *FrameSystem) GetColorFromIndex(index uint32) metadata.PackedColor {
	return f.palette.Packed(index)
}

// GetPixelFormat names the pixel layout of the backbuffer.
func (f *FrameSystem) GetPixelFormat() string {
	return f.renderer.Device().PixelFormat()
}

func (f *FrameSystem) font(small bool) renderer.Font {
	if small {
		if f.smallFont == nil {
			f.smallFont = renderer.DefaultFont()
		}
		return f.smallFont
	}
	if f.largeFont == nil {
		f.largeFont = renderer.DefaultFont()
	}
	return f.largeFont
}

func (f *FrameSystem) CalculateTextWidth(text string, small bool) int {
	return f.font(small).TextWidth(text)
}

func (f *FrameSystem) CalculateTextHeight(text string, maxWidth int, small bool) int {
	return renderer.TextHeight(f.font(small), text, maxWidth)
}
