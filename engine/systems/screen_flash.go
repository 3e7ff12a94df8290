package systems

import (
	"image"

	"github.com/spaghettifunk/terra/engine/core"
	"github.com/spaghettifunk/terra/engine/renderer/metadata"
)

type screenFlash struct {
	color  metadata.PackedColor
	timer  *core.Timer
	active bool
}

func newScreenFlash(source core.TimeSource) screenFlash {
	return screenFlash{timer: core.NewTimer(source)}
}

// FlashScreen covers a player screen with color, fading it out linearly
// over periodMS.
func (f *FrameSystem) FlashScreen(screen int, color metadata.PackedColor, periodMS float64) {
	if screen < 0 || screen >= MaxScreenCount {
		return
	}
	flash := &f.flashes[screen]
	flash.color = color
	flash.active = true
	flash.timer.SetRealTimeLimitMS(periodMS)
	flash.timer.Reset()
}

// flashAlpha is the current alpha of a screen flash, and whether the flash
// is still running.
func (f *FrameSystem) flashAlpha(screen int) (uint8, bool) {
	if screen < 0 || screen >= MaxScreenCount {
		return 0, false
	}
	flash := &f.flashes[screen]
	if !flash.active {
		return 0, false
	}
	if flash.timer.IsPastRealTimeLimit() {
		flash.active = false
		return 0, false
	}
	remaining := 1 - flash.timer.RealTimeLimitProgress()
	return uint8(float64(flash.color.Alpha()) * remaining), true
}

func (f *FrameSystem) drawScreenFlash(screen, width, height int) {
	alpha, ok := f.flashAlpha(screen)
	if !ok || alpha == 0 {
		return
	}
	color := f.flashes[screen].color.WithAlpha(alpha)
	f.renderer.FillRect(image.Rect(0, 0, width, height), color, metadata.BlendAlpha)
}
