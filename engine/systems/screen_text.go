package systems

import (
	"github.com/spaghettifunk/terra/engine/core"
	"github.com/spaghettifunk/terra/engine/renderer"
	"github.com/spaghettifunk/terra/engine/renderer/metadata"
)

const screenTextMargin = 4

type screenText struct {
	message  string
	duration int64
	timer    *core.Timer
	blink    int64
	centered bool
}

func newScreenText(source core.TimeSource) screenText {
	return screenText{duration: -1, timer: core.NewTimer(source)}
}

// visible reports whether the message should be on screen right now. A
// duration <= 0 keeps it up until it is replaced or cleared.
func (s *screenText) visible() bool {
	if s.message == "" {
		return false
	}
	if s.duration > 0 && s.timer.IsPastRealMS(s.duration) {
		return false
	}
	if s.blink > 0 && (s.timer.ElapsedMS()/s.blink)%2 == 1 {
		return false
	}
	return true
}

// SetScreenText shows a message on a player screen. While a message with a
// duration is still within it, new messages for that screen are ignored.
// blinkMS > 0 makes the text blink, durationMS <= 0 keeps it until cleared.
func (f *FrameSystem) SetScreenText(message string, screen int, blinkMS, durationMS int64, centered bool) {
	if screen < 0 || screen >= MaxScreenCount {
		return
	}
	text := &f.screenText[screen]
	if !text.timer.IsPastRealMS(text.duration) {
		return
	}
	text.message = message
	text.duration = durationMS
	text.blink = blinkMS
	text.centered = centered
	text.timer.Reset()
}

func (f *FrameSystem) ClearScreenText(screen int) {
	if screen < 0 || screen >= MaxScreenCount {
		return
	}
	text := &f.screenText[screen]
	text.message = ""
	text.duration = -1
	text.blink = 0
	text.timer.Reset()
}

// ScreenText returns the message currently set on a screen.
func (f *FrameSystem) ScreenText(screen int) string {
	if screen < 0 || screen >= MaxScreenCount {
		return ""
	}
	return f.screenText[screen].message
}

func (f *FrameSystem) drawScreenText(screen, width, height int) {
	if screen < 0 || screen >= MaxScreenCount {
		return
	}
	text := &f.screenText[screen]
	if !text.visible() {
		return
	}

	font := f.font(false)
	lines := renderer.WrapText(font, text.message, width-2*screenTextMargin)

	if f.textOverlay == nil || f.textOverlay.Width() != width || f.textOverlay.Height() != height {
		if f.textOverlay != nil {
			f.textOverlay.Destroy()
		}
		f.textOverlay = f.renderer.NewTexture(width, height, false)
	}
	overlay := f.textOverlay
	overlay.Clear(0)

	lineHeight := font.LineHeight()
	y := screenTextMargin
	if text.centered {
		y = (height - len(lines)*lineHeight) / 2
	}
	for _, line := range lines {
		if text.centered {
			overlay.DrawText(font, width/2, y, line, metadata.WhiteColor, true)
		} else {
			overlay.DrawText(font, screenTextMargin, y, line, metadata.WhiteColor, false)
		}
		y += lineHeight
	}
	overlay.Render(0, 0, nil, true, nil)
}
