package systems

import (
	"fmt"
	"image"

	"github.com/spaghettifunk/terra/engine/core"
)

const (
	MinResX = 640
	MinResY = 480
)

// IsValidResolution reports whether a resolution is large enough to run at.
func IsValidResolution(width, height int) bool {
	return width >= MinResX && height >= MinResY
}

// IsValidResolution also rejects resolutions the display cannot hold.
func (f *FrameSystem) IsValidResolution(width, height int) bool {
	if !IsValidResolution(width, height) {
		return false
	}
	return width <= f.screenBounds.Dx() && height <= f.screenBounds.Dy()
}

func (f *FrameSystem) ResX() int               { return f.resX }
func (f *FrameSystem) ResY() int               { return f.resY }
func (f *FrameSystem) ResMultiplier() int      { return f.multiplier }
func (f *FrameSystem) IsFullscreen() bool      { return f.fullscreen }
func (f *FrameSystem) ResolutionChanged() bool { return f.resChanged }

// ClearResolutionChanged acknowledges a resolution change once the menus
// have rebuilt themselves.
func (f *FrameSystem) ClearResolutionChanged() {
	f.resChanged = false
}

// DisplayBounds are the bounds of the display the window is on. Usable
// bounds while windowed, full bounds while fullscreen.
func (f *FrameSystem) DisplayBounds() image.Rectangle {
	return f.screenBounds
}

// DisplaySettings is the current display mode, in the form it is persisted.
func (f *FrameSystem) DisplaySettings() DisplaySettings {
	return DisplaySettings{
		ResX:               f.resX,
		ResY:               f.resY,
		Multiplier:         f.multiplier,
		Fullscreen:         f.fullscreen,
		UpscaledFullscreen: f.Config.UpscaledFullscreen,
		HSplitOverride:     f.Config.HSplitOverride,
		VSplitOverride:     f.Config.VSplitOverride,
	}
}

func (f *FrameSystem) refreshScreenBounds() {
	bounds, err := f.window.DisplayBounds(!f.fullscreen)
	if err != nil {
		core.LogWarn("could not query display bounds: %s", err)
		return
	}
	f.screenBounds = bounds
}

// SetFullscreen switches the window between fullscreen and windowed
// without touching the resolution.
func (f *FrameSystem) SetFullscreen(fullscreen bool) Status {
	if err := f.window.SetFullscreen(fullscreen); err != nil {
		f.diagnostic(fmt.Sprintf("ERROR: could not switch fullscreen mode: %s", err))
		return StatusDeviceError
	}
	f.fullscreen = fullscreen
	f.Config.Fullscreen = fullscreen
	f.refreshScreenBounds()
	return StatusOK
}

// SwitchResolutionMultiplier changes the integer scale the frame is
// presented at. The resolution stays the same.
func (f *FrameSystem) SwitchResolutionMultiplier(multiplier int) Status {
	if multiplier <= 0 || multiplier > MaxResMultiplier || multiplier == f.multiplier {
		return StatusRejected
	}
	if f.resX > f.screenBounds.Dx()/multiplier || f.resY > f.screenBounds.Dy()/multiplier {
		f.diagnostic("Requested resolution multiplier will result in game window exceeding display bounds!\nNo change will be made!")
		return StatusRejected
	}

	device := f.renderer.Device()
	if err := device.SetScale(multiplier); err != nil {
		f.diagnostic(fmt.Sprintf("ERROR: could not change the resolution multiplier: %s", err))
		return StatusDeviceError
	}
	f.multiplier = multiplier
	f.resX, f.resY = device.LogicalSize()
	f.Config.ResMultiplier = multiplier

	f.persist()
	f.fireResolutionChanged()
	f.renderer.RenderPresent()
	return StatusOK
}

// SwitchResolution changes the logical resolution and multiplier. With
// endActivity set the running activity is ended once the new mode is in
// place, since it was laid out for the old resolution. A device failure
// puts the window and device back in the previous mode.
func (f *FrameSystem) SwitchResolution(width, height, multiplier int, endActivity bool) Status {
	if multiplier <= 0 || multiplier > MaxResMultiplier {
		return StatusRejected
	}
	if !f.IsValidResolution(width, height) {
		f.diagnostic(fmt.Sprintf("Requested resolution %dx%d is invalid or exceeds the display bounds!\nNo change will be made!", width, height))
		return StatusRejected
	}

	device := f.renderer.Device()
	prev := f.captureMode()
	if !f.fullscreen {
		if err := f.window.SetSize(width, height); err != nil {
			f.diagnostic(fmt.Sprintf("ERROR: could not resize the window: %s", err))
			f.restoreMode(prev)
			return StatusDeviceError
		}
		// The window manager has the last word on the size.
		width, height = f.window.Size()
	}
	if err := device.SetLogicalSize(width, height); err != nil {
		f.diagnostic(fmt.Sprintf("ERROR: could not change the resolution: %s", err))
		f.restoreMode(prev)
		return StatusDeviceError
	}
	if err := device.SetScale(multiplier); err != nil {
		f.diagnostic(fmt.Sprintf("ERROR: could not change the resolution multiplier: %s", err))
		f.restoreMode(prev)
		return StatusDeviceError
	}

	if endActivity && f.deps.Activities != nil {
		f.deps.Activities.EndActivity()
	}
	f.renderer.RenderClear()

	f.resX, f.resY = width, height
	f.multiplier = multiplier
	f.Config.ResX, f.Config.ResY, f.Config.ResMultiplier = width, height, multiplier
	f.resChanged = true

	// The scratch target is sized from the resolution.
	f.ResetSplitScreens(f.hSplit, f.vSplit)

	f.persist()
	f.fireResolutionChanged()
	core.LogInfo("resolution switched to %dx%d x%d", width, height, multiplier)
	return StatusOK
}

// SwitchToFullscreen goes fullscreen at the display's own resolution,
// presented at twice the scale when upscaled. A rejected or failed switch
// leaves the window as it was.
func (f *FrameSystem) SwitchToFullscreen(upscaled, endActivity bool) Status {
	bounds, err := f.window.DisplayBounds(false)
	if err != nil {
		f.diagnostic(fmt.Sprintf("ERROR: could not query the display bounds: %s", err))
		return StatusDeviceError
	}
	if !IsValidResolution(bounds.Dx(), bounds.Dy()) {
		f.diagnostic(fmt.Sprintf("Display resolution %dx%d is below the minimum!\nNo change will be made!", bounds.Dx(), bounds.Dy()))
		return StatusRejected
	}

	prev := f.captureMode()
	if status := f.SetFullscreen(true); status != StatusOK {
		return status
	}
	multiplier := 1
	if upscaled {
		multiplier = 2
	}
	status := f.SwitchResolution(f.screenBounds.Dx(), f.screenBounds.Dy(), multiplier, endActivity)
	if status != StatusOK {
		f.restoreMode(prev)
		return status
	}
	f.Config.UpscaledFullscreen = upscaled
	return StatusOK
}

// displayMode is what a failed switch puts back.
type displayMode struct {
	fullscreen         bool
	windowW, windowH   int
	logicalW, logicalH int
	scale              int
}

func (f *FrameSystem) captureMode() displayMode {
	device := f.renderer.Device()
	mode := displayMode{fullscreen: f.fullscreen, scale: f.multiplier}
	mode.windowW, mode.windowH = f.window.Size()
	mode.logicalW, mode.logicalH = device.LogicalSize()
	return mode
}

func (f *FrameSystem) restoreMode(mode displayMode) {
	if f.fullscreen != mode.fullscreen {
		if err := f.window.SetFullscreen(mode.fullscreen); err != nil {
			core.LogError("could not restore fullscreen mode: %s", err)
		}
		f.fullscreen = mode.fullscreen
		f.Config.Fullscreen = mode.fullscreen
		f.refreshScreenBounds()
	}
	if !mode.fullscreen {
		if err := f.window.SetSize(mode.windowW, mode.windowH); err != nil {
			core.LogError("could not restore the window size: %s", err)
		}
	}
	device := f.renderer.Device()
	if err := device.SetLogicalSize(mode.logicalW, mode.logicalH); err != nil {
		core.LogError("could not restore the resolution: %s", err)
	}
	if err := device.SetScale(mode.scale); err != nil {
		core.LogError("could not restore the resolution multiplier: %s", err)
	}
}

func (f *FrameSystem) persist() {
	if f.deps.Settings == nil {
		return
	}
	if err := f.deps.Settings.PersistCurrentSettings(); err != nil {
		core.LogError("could not persist display settings: %s", err)
	}
}

func (f *FrameSystem) fireResolutionChanged() {
	if f.bus == nil {
		return
	}
	f.bus.Fire(core.EventContext{
		Type: core.EVENT_CODE_RESOLUTION_CHANGED,
		Data: &core.SystemEvent{
			WindowWidth:  uint32(f.resX),
			WindowHeight: uint32(f.resY),
			Multiplier:   uint8(f.multiplier),
			Fullscreen:   f.fullscreen,
		},
	})
}

func (f *FrameSystem) diagnostic(message string) {
	if f.deps.Console != nil {
		f.deps.Console.PrintDiagnostic(message)
		return
	}
	core.LogWarn("%s", message)
}
