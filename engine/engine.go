package engine

import (
	"fmt"
	"image"
	"os"
	"time"

	"golang.org/x/image/bmp"

	"github.com/spaghettifunk/terra/engine/assets"
	"github.com/spaghettifunk/terra/engine/core"
	"github.com/spaghettifunk/terra/engine/platform"
	"github.com/spaghettifunk/terra/engine/renderer"
	"github.com/spaghettifunk/terra/engine/renderer/sdl"
	"github.com/spaghettifunk/terra/engine/renderer/software"
	"github.com/spaghettifunk/terra/engine/systems"
)

type Stage uint8

const (
	// Engine is in an uninitialized state
	EngineStageUninitialized Stage = iota
	// Engine is currently initializing
	EngineStageInitializing
	// Engine initialization is complete
	EngineStageInitialized
	// Engine is currently running
	EngineStageRunning
	// Engine is in the process of shutting down
	EngineStageShuttingDown
)

// AbortScreenFile receives the last frame when an assertion stops the engine.
const AbortScreenFile = "abortscreen.bmp"

// Display bounds reported by the headless backend.
var headlessDisplay = image.Rect(0, 0, 1920, 1080)

type Engine struct {
	currentStage  Stage
	gameInstance  *Game
	isRunning     bool
	isSuspended   bool
	bus           *core.EventBus
	input         *core.Input
	window        renderer.Window
	device        renderer.Device
	renderer      *renderer.Renderer
	assetManager  *assets.AssetManager
	settings      *systems.SettingsSystem
	systemManager *systems.SystemManager
	width         uint32
	height        uint32
	clock         *core.Clock
	lastTime      time.Duration
	frames        int
}

func New(g *Game) (*Engine, error) {
	if g == nil || g.ApplicationConfig == nil {
		return nil, fmt.Errorf("func New - a game with an application config is required")
	}
	ss, err := systems.NewSettingsSystem(g.ApplicationConfig.SettingsPath)
	if err != nil {
		core.LogError(err.Error())
		return nil, err
	}
	bus := core.NewEventBus()
	g.Input = core.NewInput(bus)

	return &Engine{
		currentStage: EngineStageUninitialized,
		gameInstance: g,
		clock:        core.NewClock(nil),
		bus:          bus,
		input:        g.Input,
		settings:     ss,
		isRunning:    true,
		isSuspended:  false,
	}, nil
}

func (e *Engine) Initialize() error {
	e.currentStage = EngineStageInitializing
	config := e.gameInstance.ApplicationConfig

	settings, err := e.settings.Load()
	if err != nil {
		core.LogWarn("settings unavailable, using defaults: %s", err)
	}
	core.SetLogLevel(core.ParseLogLevel(settings.Log.Level))
	if config.LogLevel != core.InfoLevel {
		core.SetLogLevel(config.LogLevel)
	}

	backend := settings.Renderer.Backend
	if config.Backend != "" {
		backend = config.Backend
	}
	if err := e.createBackend(backend, settings); err != nil {
		return err
	}

	am, err := assets.NewAssetManager()
	if err != nil {
		return err
	}
	if err := am.Initialize(settings.Assets.Dir, e.bus); err != nil {
		core.LogWarn("asset directory %q unavailable, using built-in assets: %s", settings.Assets.Dir, err)
		_ = am.Shutdown()
		am = nil
	}
	e.assetManager = am

	var images renderer.ImageSource
	if am != nil {
		images = am
	}
	e.renderer = renderer.New(e.device, images)

	sm, err := systems.NewSystemManager(&systems.SystemManagerConfig{
		World:   config.World,
		Network: config.Network,
	}, e.renderer, e.window, am, e.bus, e.settings)
	if err != nil {
		core.LogError(err.Error())
		return err
	}
	if err := sm.Initialize(); err != nil {
		return err
	}
	e.systemManager = sm
	e.gameInstance.SystemManager = sm

	// register some events
	e.bus.Register(core.EVENT_CODE_APPLICATION_QUIT, e, e.onEvent)
	e.bus.Register(core.EVENT_CODE_KEY_PRESSED, e, e.onKey)
	e.bus.Register(core.EVENT_CODE_RESIZED, e, e.onResized)
	e.bus.Register(core.EVENT_CODE_RESOLUTION_CHANGED, e, e.onResolutionChanged)

	if err := e.gameInstance.FnInitialize(); err != nil {
		return err
	}

	w, h := e.window.Size()
	e.width, e.height = uint32(w), uint32(h)
	if err := e.gameInstance.FnOnResize(e.width, e.height); err != nil {
		return err
	}
	e.currentStage = EngineStageInitialized
	return nil
}

// createBackend opens the window and the device drawing into it.
func (e *Engine) createBackend(backend string, settings systems.Settings) error {
	config := e.gameInstance.ApplicationConfig
	display := settings.Display
	// The frame system keeps the window at the logical resolution.
	width, height := display.ResX, display.ResY

	switch backend {
	case string(renderer.Software):
		p, err := platform.New(e.input, e.bus)
		if err != nil {
			return err
		}
		if err := p.Startup(config.Name, config.StartPosX, config.StartPosY, uint32(width), uint32(height)); err != nil {
			return err
		}
		e.window = p
		e.device = software.New(display.ResX, display.ResY, p)
	case "headless":
		e.window = platform.NewHeadless(width, height, headlessDisplay)
		e.device = software.New(display.ResX, display.ResY, nil)
	case string(renderer.SDL):
		w, err := sdl.NewWindow(config.Name, width, height, e.input)
		if err != nil {
			return err
		}
		d, err := sdl.NewDevice(w, settings.Renderer.VSync)
		if err != nil {
			_ = w.Destroy()
			return err
		}
		e.window = w
		e.device = d
	default:
		return fmt.Errorf("%w: %q", core.ErrInvalidBackend, backend)
	}
	core.LogInfo("%s backend ready", backend)
	return nil
}

// Run drives the frame loop until the window closes, the game quits or
// the frame limit is reached. An assertion stops the loop after the last
// frame is written to AbortScreenFile.
func (e *Engine) Run() (err error) {
	defer func() {
		recovered := recover()
		if recovered == nil {
			return
		}
		ae, ok := core.AsAssertion(recovered)
		if !ok {
			panic(recovered)
		}
		e.dumpAbortScreen()
		e.isRunning = false
		err = ae
	}()

	e.currentStage = EngineStageRunning
	e.clock.Start()
	e.clock.Update()
	e.lastTime = e.clock.Elapsed()

	config := e.gameInstance.ApplicationConfig
	var targetFrameTime time.Duration
	if config.TargetFPS > 0 {
		targetFrameTime = time.Second / time.Duration(config.TargetFPS)
	}

	for e.isRunning {
		e.window.PumpMessages()
		if e.window.ShouldClose() {
			e.isRunning = false
			break
		}
		if e.isSuspended {
			time.Sleep(10 * time.Millisecond)
			continue
		}

		// Update clock and get delta time.
		e.clock.Update()
		currentTime := e.clock.Elapsed()
		delta := (currentTime - e.lastTime).Seconds()
		frameStart := time.Now()

		if e.assetManager != nil {
			e.assetManager.Update()
		}
		if err := e.gameInstance.FnUpdate(delta); err != nil {
			core.LogError("game update failed, shutting down: %s", err)
			return err
		}
		e.systemManager.Update()

		e.renderer.RenderClear()
		if err := e.gameInstance.FnRender(e.renderer, delta); err != nil {
			core.LogError("game render failed, shutting down: %s", err)
			return err
		}
		e.systemManager.FrameSystem.Draw()
		e.renderer.RenderPresent()

		// Input is the last thing updated so every reader this frame saw the
		// same state.
		e.input.Update()
		e.lastTime = currentTime

		e.frames++
		if config.FrameLimit > 0 && e.frames >= config.FrameLimit {
			core.LogInfo("frame limit of %d reached", config.FrameLimit)
			e.isRunning = false
		}

		// If there is time left, give it back to the OS.
		if targetFrameTime > 0 {
			if remaining := targetFrameTime - time.Since(frameStart); remaining > 0 {
				time.Sleep(remaining)
			}
		}
	}
	return nil
}

// Stop ends the frame loop after the current frame.
func (e *Engine) Stop() {
	e.bus.Fire(core.EventContext{Type: core.EVENT_CODE_APPLICATION_QUIT})
}

func (e *Engine) dumpAbortScreen() {
	if e.renderer == nil {
		return
	}
	e.renderer.ResetRenderTargets()
	frame := e.renderer.ReadPixels()
	if frame == nil {
		return
	}
	file, err := os.Create(AbortScreenFile)
	if err != nil {
		core.LogError("could not write %s: %s", AbortScreenFile, err)
		return
	}
	defer file.Close()
	if err := bmp.Encode(file, frame); err != nil {
		core.LogError("could not encode %s: %s", AbortScreenFile, err)
		return
	}
	core.LogError("last frame written to %s", AbortScreenFile)
}

func (e *Engine) Shutdown() error {
	e.currentStage = EngineStageShuttingDown
	if e.gameInstance.FnShutdown != nil {
		if err := e.gameInstance.FnShutdown(); err != nil {
			core.LogError(err.Error())
		}
	}
	if e.systemManager != nil {
		if err := e.systemManager.SettingsSystem.PersistCurrentSettings(); err != nil {
			core.LogWarn("could not save settings: %s", err)
		}
		if err := e.systemManager.Shutdown(); err != nil {
			return err
		}
	}
	if e.assetManager != nil {
		if err := e.assetManager.Shutdown(); err != nil {
			return err
		}
	}
	if e.device != nil {
		if err := e.device.Destroy(); err != nil {
			return err
		}
	}
	if e.window != nil {
		if err := e.window.Destroy(); err != nil {
			return err
		}
	}
	return e.bus.Shutdown()
}

// GetFramebufferSize returns the width and height (in this order) of the
// window.
func (e *Engine) GetFramebufferSize() (uint32, uint32) {
	return e.width, e.height
}

// Frames is the number of frames drawn so far.
func (e *Engine) Frames() int {
	return e.frames
}

func (e *Engine) onEvent(context core.EventContext) bool {
	switch context.Type {
	case core.EVENT_CODE_APPLICATION_QUIT:
		core.LogInfo("EVENT_CODE_APPLICATION_QUIT received, shutting down.")
		e.isRunning = false
		return true
	}
	return false
}

var multiplierKeys = map[core.KeyCode]int{
	core.KEY_F1: 1,
	core.KEY_F2: 2,
	core.KEY_F3: 3,
	core.KEY_F4: 4,
}

func (e *Engine) onKey(context core.EventContext) bool {
	ke, ok := context.Data.(*core.KeyEvent)
	if !ok {
		core.LogError("wrong event associated with the event type `%d`", context.Type)
		return false
	}
	frame := e.systemManager.FrameSystem

	switch keyCode := ke.KeyCode; {
	case keyCode == core.KEY_ESCAPE:
		// NOTE: Technically firing an event to itself, but there may be other listeners.
		e.bus.Fire(core.EventContext{Type: core.EVENT_CODE_APPLICATION_QUIT})
		return true
	case keyCode == core.KEY_F11:
		frame.SetFullscreen(!frame.IsFullscreen())
		return true
	default:
		if multiplier, ok := multiplierKeys[keyCode]; ok {
			frame.SwitchResolutionMultiplier(multiplier)
			return true
		}
	}
	return false
}

func (e *Engine) onResized(context core.EventContext) bool {
	se, ok := context.Data.(*core.SystemEvent)
	if !ok {
		core.LogError("wrong event associated with the event type `%d`", context.Type)
		return false
	}
	width, height := se.WindowWidth, se.WindowHeight
	if width == e.width && height == e.height {
		return false
	}
	e.width, e.height = width, height
	core.LogDebug("Window resize: %d, %d", width, height)

	// Handle minimization
	if width == 0 || height == 0 {
		core.LogInfo("Window minimized, suspending application.")
		e.isSuspended = true
		return false
	}
	if e.isSuspended {
		core.LogInfo("Window restored, resuming application.")
		e.isSuspended = false
	}
	if err := e.gameInstance.FnOnResize(width, height); err != nil {
		core.LogError(err.Error())
	}
	return false
}

// onResolutionChanged reports the window size the frame system settled on.
func (e *Engine) onResolutionChanged(context core.EventContext) bool {
	se, ok := context.Data.(*core.SystemEvent)
	if !ok {
		return false
	}
	core.LogInfo("resolution %dx%d x%d, fullscreen %t", se.WindowWidth, se.WindowHeight, se.Multiplier, se.Fullscreen)
	w, h := e.window.Size()
	return e.onResized(core.EventContext{
		Type: core.EVENT_CODE_RESIZED,
		Data: &core.SystemEvent{WindowWidth: uint32(w), WindowHeight: uint32(h)},
	})
}
