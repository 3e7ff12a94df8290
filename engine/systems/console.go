package systems

import (
	"strings"

	"github.com/spaghettifunk/terra/engine/containers"
	"github.com/spaghettifunk/terra/engine/core"
	"github.com/spaghettifunk/terra/engine/renderer"
	"github.com/spaghettifunk/terra/engine/renderer/metadata"
)

const (
	consoleBackground metadata.PackedColor = 0xC0101018
	consoleTextColor  metadata.PackedColor = 0xFFE0E0E0
	consoleMargin                          = 4
)

type ConsoleSystemConfig struct {
	// Number of lines kept. Older lines are dropped.
	HistorySize int
}

// ConsoleSystem keeps a short history of messages and draws it over the top
// of the frame while open. The grave key toggles it.
type ConsoleSystem struct {
	Config  *ConsoleSystemConfig
	bus     *core.EventBus
	history *containers.RingQueue[string]
	font    renderer.Font
	enabled bool

	overlay *renderer.Texture
}

func NewConsoleSystem(config *ConsoleSystemConfig, bus *core.EventBus) (*ConsoleSystem, error) {
	if config.HistorySize <= 0 {
		config.HistorySize = 64
	}
	c := &ConsoleSystem{
		Config:  config,
		bus:     bus,
		history: containers.NewRingQueue[string](config.HistorySize),
		font:    renderer.DefaultFont(),
	}
	if bus != nil {
		bus.Register(core.EVENT_CODE_KEY_PRESSED, c, c.onKeyPressed)
	}
	return c, nil
}

func (c *ConsoleSystem) onKeyPressed(context core.EventContext) bool {
	event, ok := context.Data.(*core.KeyEvent)
	if !ok || event.KeyCode != core.KEY_GRAVE {
		return false
	}
	c.Toggle()
	return true
}

func (c *ConsoleSystem) SetFont(font renderer.Font) {
	if font != nil {
		c.font = font
	}
}

func (c *ConsoleSystem) IsEnabled() bool { return c.enabled }

func (c *ConsoleSystem) SetEnabled(enabled bool) {
	c.enabled = enabled
}

func (c *ConsoleSystem) Toggle() {
	c.enabled = !c.enabled
}

// PrintString appends every line of message to the history.
func (c *ConsoleSystem) PrintString(message string) {
	for _, line := range strings.Split(message, "\n") {
		c.history.Push(line)
	}
}

// PrintDiagnostic is for warnings the user should see: it is logged and
// shown in the console.
func (c *ConsoleSystem) PrintDiagnostic(message string) {
	core.LogWarn("%s", message)
	c.PrintString(message)
}

// History returns the kept lines, oldest first.
func (c *ConsoleSystem) History() []string {
	return c.history.Items()
}

// DrawOverlay draws the newest lines that fit into the top third of the
// current target.
func (c *ConsoleSystem) DrawOverlay(r *renderer.Renderer) {
	if !c.enabled {
		return
	}
	width, height := r.RenderSize()
	height /= 3
	if width <= 0 || height <= 0 {
		return
	}
	if c.overlay == nil || c.overlay.Width() != width || c.overlay.Height() != height {
		if c.overlay != nil {
			c.overlay.Destroy()
		}
		c.overlay = r.NewTexture(width, height, false)
	}
	c.overlay.Clear(consoleBackground)

	lines := c.history.Items()
	lineHeight := c.font.LineHeight()
	y := height - consoleMargin - lineHeight
	for i := len(lines) - 1; i >= 0 && y >= 0; i-- {
		c.overlay.DrawText(c.font, consoleMargin, y, lines[i], consoleTextColor, false)
		y -= lineHeight
	}
	c.overlay.Render(0, 0, nil, true, nil)
}

func (c *ConsoleSystem) Shutdown() error {
	if c.bus != nil {
		c.bus.Unregister(core.EVENT_CODE_KEY_PRESSED, c)
	}
	if c.overlay != nil {
		c.overlay.Destroy()
		c.overlay = nil
	}
	return nil
}
