package engine

import (
	"github.com/spaghettifunk/terra/engine/core"
	"github.com/spaghettifunk/terra/engine/systems"
)

type ApplicationConfig struct {
	// Window starting position x axis, if applicable.
	StartPosX uint32
	// Window starting position y axis, if applicable.
	StartPosY uint32
	// The application name used in windowing, if applicable.
	Name     string
	LogLevel core.LogLevel
	// Settings file. Empty means settings.toml under the user config directory.
	SettingsPath string
	// Overrides the renderer backend of the settings file when set.
	Backend string
	// Stops the frame loop after that many frames. Zero runs until quit.
	FrameLimit int
	// Frames per second the loop is throttled to. Zero disables throttling.
	TargetFPS int
	// Split the screens of the demo activity.
	HSplit bool
	VSplit bool
	// The world the scene system holds.
	World systems.SceneSystemConfig
	// Receives frames when the settings ask for network rendering.
	Network systems.NetworkSink
}
