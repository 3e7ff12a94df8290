package systems

import (
	"runtime"

	"github.com/spaghettifunk/terra/engine/assets"
	"github.com/spaghettifunk/terra/engine/core"
	"github.com/spaghettifunk/terra/engine/renderer"
)

type SystemManagerConfig struct {
	World SceneSystemConfig
	// Receives composed frames when the settings ask for network rendering.
	Network    NetworkSink
	TimeSource core.TimeSource
}

// SystemManager builds the systems and wires them to each other.
type SystemManager struct {
	JobSystem         *JobSystem
	CameraSystem      *CameraSystem
	TextureSystem     *TextureSystem
	SceneSystem       *SceneSystem
	ActivitySystem    *ActivitySystem
	PostProcessSystem *PostProcessSystem
	ConsoleSystem     *ConsoleSystem
	PerformanceSystem *PerformanceSystem
	SettingsSystem    *SettingsSystem
	FrameSystem       *FrameSystem
}

func NewSystemManager(config *SystemManagerConfig, r *renderer.Renderer, window renderer.Window, am *assets.AssetManager, bus *core.EventBus, ss *SettingsSystem) (*SystemManager, error) {
	settings := ss.Settings()

	js, err := NewJobSystem(max(runtime.NumCPU()/2, 1), 64)
	if err != nil {
		return nil, err
	}
	cs, err := NewCameraSystem(&CameraSystemConfig{
		MaxCameraCount: 16,
	})
	if err != nil {
		return nil, err
	}

	var images renderer.ImageSource
	var frameAssets FrameAssets
	if am != nil {
		images = am
		frameAssets = am
	}
	ts, err := NewTextureSystem(&TextureSystemConfig{
		MaxTextureCount: 1000,
	}, js, images, r, bus)
	if err != nil {
		return nil, err
	}
	scene, err := NewSceneSystem(&config.World, r, cs)
	if err != nil {
		return nil, err
	}
	as := NewActivitySystem()
	pps := NewPostProcessSystem(&PostProcessSystemConfig{}, scene, ts)
	console, err := NewConsoleSystem(&ConsoleSystemConfig{HistorySize: 64}, bus)
	if err != nil {
		return nil, err
	}
	perf := NewPerformanceSystem(config.TimeSource)

	fs, err := NewFrameSystem(&FrameSystemConfig{
		ResX:                  settings.Display.ResX,
		ResY:                  settings.Display.ResY,
		ResMultiplier:         settings.Display.Multiplier,
		Fullscreen:            settings.Display.Fullscreen,
		UpscaledFullscreen:    settings.Display.UpscaledFullscreen,
		HSplitOverride:        settings.Display.HSplitOverride,
		VSplitOverride:        settings.Display.VSplitOverride,
		NetworkRendering:      settings.Network.RenderMode == "network",
		DrawNetworkBackBuffer: settings.Network.DrawBackBuffer,
		LargeFont:             settings.Assets.LargeFont,
		SmallFont:             settings.Assets.SmallFont,
		FontSize:              settings.Assets.FontSize,
		Palette:               settings.Assets.Palette,
		TimeSource:            config.TimeSource,
	}, r, window, bus, FrameSystemDeps{
		Scene:       scene,
		Activities:  as,
		PostProcess: pps,
		Settings:    ss,
		Console:     console,
		Performance: perf,
		Assets:      frameAssets,
		Network:     config.Network,
		Jobs:        js,
	})
	if err != nil {
		return nil, err
	}

	scene.SetViewport(fs)
	as.SetLayout(fs)
	ss.SetDisplaySource(fs)

	return &SystemManager{
		JobSystem:         js,
		CameraSystem:      cs,
		TextureSystem:     ts,
		SceneSystem:       scene,
		ActivitySystem:    as,
		PostProcessSystem: pps,
		ConsoleSystem:     console,
		PerformanceSystem: perf,
		SettingsSystem:    ss,
		FrameSystem:       fs,
	}, nil
}

func (sm *SystemManager) Initialize() error {
	if err := sm.TextureSystem.Initialize(); err != nil {
		return err
	}
	if err := sm.SceneSystem.Initialize(); err != nil {
		return err
	}
	if err := sm.FrameSystem.Initialize(); err != nil {
		return err
	}
	sm.ConsoleSystem.SetFont(sm.FrameSystem.font(true))
	return nil
}

// Update runs once per frame before drawing.
func (sm *SystemManager) Update() {
	sm.TextureSystem.Update()
	sm.FrameSystem.Update()
}

func (sm *SystemManager) Shutdown() error {
	if err := sm.JobSystem.Shutdown(); err != nil {
		return err
	}
	if err := sm.FrameSystem.Destroy(); err != nil {
		return err
	}
	if err := sm.ConsoleSystem.Shutdown(); err != nil {
		return err
	}
	if err := sm.SceneSystem.Shutdown(); err != nil {
		return err
	}
	if err := sm.TextureSystem.Shutdown(); err != nil {
		return err
	}
	if err := sm.CameraSystem.Shutdown(); err != nil {
		return err
	}
	return nil
}
