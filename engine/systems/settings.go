package systems

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/pelletier/go-toml/v2"

	"github.com/spaghettifunk/terra/engine/core"
)

const (
	settingsDirName  = "terra"
	settingsFileName = "settings.toml"
)

type DisplaySettings struct {
	ResX               int  `toml:"res_x"`
	ResY               int  `toml:"res_y"`
	Multiplier         int  `toml:"multiplier"`
	Fullscreen         bool `toml:"fullscreen"`
	UpscaledFullscreen bool `toml:"upscaled_fullscreen"`
	HSplitOverride     bool `toml:"hsplit_override"`
	VSplitOverride     bool `toml:"vsplit_override"`
}

type RendererSettings struct {
	// software, sdl or headless
	Backend string `toml:"backend"`
	VSync   bool   `toml:"vsync"`
}

type NetworkSettings struct {
	// local or network
	RenderMode     string `toml:"render_mode"`
	DrawBackBuffer bool   `toml:"draw_back_buffer"`
}

type LogSettings struct {
	Level string `toml:"level"`
}

type AssetSettings struct {
	Dir       string  `toml:"dir"`
	LargeFont string  `toml:"large_font"`
	SmallFont string  `toml:"small_font"`
	FontSize  float64 `toml:"font_size"`
	Palette   string  `toml:"palette"`
}

// Settings is everything persisted between runs.
type Settings struct {
	Display  DisplaySettings  `toml:"display"`
	Renderer RendererSettings `toml:"renderer"`
	Network  NetworkSettings  `toml:"network"`
	Log      LogSettings      `toml:"log"`
	Assets   AssetSettings    `toml:"assets"`
}

func DefaultSettings() Settings {
	return Settings{
		Display: DisplaySettings{
			ResX:       DefaultResX,
			ResY:       DefaultResY,
			Multiplier: DefaultResMultiplier,
		},
		Renderer: RendererSettings{Backend: "software", VSync: true},
		Network:  NetworkSettings{RenderMode: "local"},
		Log:      LogSettings{Level: "info"},
		Assets:   AssetSettings{Dir: "assets", FontSize: 12},
	}
}

// DisplaySource reports the display mode to persist. The frame system is one.
type DisplaySource interface {
	DisplaySettings() DisplaySettings
}

type SettingsSystem struct {
	mutex    sync.Mutex
	path     string
	settings Settings
	display  DisplaySource
}

// NewSettingsSystem resolves where the settings live. An empty path means
// settings.toml under the user config directory. When even that is not
// available the settings stay in memory.
func NewSettingsSystem(path string) (*SettingsSystem, error) {
	if path == "" {
		dir, err := os.UserConfigDir()
		if err != nil {
			core.LogWarn("no user config directory, settings will not be saved: %s", err)
		} else {
			path = filepath.Join(dir, settingsDirName, settingsFileName)
		}
	}
	return &SettingsSystem{path: path, settings: DefaultSettings()}, nil
}

func (s *SettingsSystem) Path() string {
	return s.path
}

// Load reads the settings file. A missing file leaves the defaults in place
// and is not an error.
func (s *SettingsSystem) Load() (Settings, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.path == "" {
		return s.settings, nil
	}
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		core.LogInfo("no settings at %s, using defaults", s.path)
		return s.settings, nil
	}
	if err != nil {
		return s.settings, fmt.Errorf("read settings: %w", err)
	}

	loaded := DefaultSettings()
	if err := toml.Unmarshal(data, &loaded); err != nil {
		return s.settings, fmt.Errorf("parse settings %s: %w", s.path, err)
	}
	s.settings = loaded
	core.LogDebug("settings loaded from %s", s.path)
	return s.settings, nil
}

func (s *SettingsSystem) Settings() Settings {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.settings
}

// Update replaces the held settings without writing them.
func (s *SettingsSystem) Update(settings Settings) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.settings = settings
}

// Save writes the held settings, creating the directory if needed.
func (s *SettingsSystem) Save() error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.save()
}

func (s *SettingsSystem) save() error {
	if s.path == "" {
		return nil
	}
	data, err := toml.Marshal(s.settings)
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create settings directory: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}
	return os.Rename(tmp, s.path)
}

func (s *SettingsSystem) SetDisplaySource(source DisplaySource) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.display = source
}

// PersistCurrentSettings snapshots the current display mode and saves.
func (s *SettingsSystem) PersistCurrentSettings() error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if s.display != nil {
		s.settings.Display = s.display.DisplaySettings()
	}
	return s.save()
}
