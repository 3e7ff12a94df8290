package systems

import (
	"image"

	"github.com/spaghettifunk/terra/engine/core"
	"github.com/spaghettifunk/terra/engine/math"
)

// MaxScreenCount is the number of player screens a split layout can hold.
const MaxScreenCount = 4

// WorldExtent describes the size and wrapping of the drawn world.
type WorldExtent interface {
	GetWorldWidth() int
	GetWorldHeight() int
	WrapsHorizontally() bool
	WrapsVertically() bool
}

// ScreenCount is the number of player screens of a split layout. A
// horizontal split stacks screens, a vertical split puts them side by side.
func ScreenCount(hSplit, vSplit bool) int {
	count := 1
	if hSplit {
		count *= 2
	}
	if vSplit {
		count *= 2
	}
	return count
}

// ScreenOffset is the backbuffer origin of a player screen. Only the 1, 2
// and 4 screen layouts exist, so this is a lookup rather than a grid.
func ScreenOffset(screen int, hSplit, vSplit bool, width, height int) image.Point {
	switch screen {
	case 1:
		// Upper right with a vertical split, lower left when only stacked.
		if vSplit {
			return image.Pt(width/2, 0)
		}
		return image.Pt(0, height/2)
	case 2:
		return image.Pt(0, height/2)
	case 3:
		return image.Pt(width/2, height/2)
	default:
		return image.Pt(0, 0)
	}
}

// CenterOffset corrects a scroll offset so that a world smaller than the
// viewport, on an axis that does not wrap, is shown centered. Offsets are
// world positions at the screen's top-left, so half of (world - viewport)
// is added: a 400 wide world on an 800 wide screen scrolls to -200 and is
// drawn 200 pixels in.
func CenterOffset(offset math.Vector, renderW, renderH int, world WorldExtent) math.Vector {
	if !world.WrapsHorizontally() && renderW > world.GetWorldWidth() {
		offset.X += float32((world.GetWorldWidth() - renderW) / 2)
	}
	if !world.WrapsVertically() && renderH > world.GetWorldHeight() {
		offset.Y += float32((world.GetWorldHeight() - renderH) / 2)
	}
	return offset
}

// ResetSplitScreens applies a split layout. The shared scratch target is
// reallocated at the size of one player screen, or freed when the layout
// has a single screen. The configured overrides force a split on.
func (f *FrameSystem) ResetSplitScreens(hSplit, vSplit bool) {
	hSplit = hSplit || f.Config.HSplitOverride
	vSplit = vSplit || f.Config.VSplitOverride
	f.hSplit, f.vSplit = hSplit, vSplit

	if f.scratch != nil {
		f.scratch.Destroy()
		f.scratch = nil
	}
	if !hSplit && !vSplit {
		return
	}

	width, height := f.resX, f.resY
	if vSplit {
		width /= 2
	}
	if hSplit {
		height /= 2
	}
	f.scratch = f.renderer.NewTexture(width, height, true)
	core.LogDebug("%d player screens of %dx%d", ScreenCount(hSplit, vSplit), width, height)
}

func (f *FrameSystem) HSplit() bool { return f.hSplit }
func (f *FrameSystem) VSplit() bool { return f.vSplit }

// ScreenCount is the number of player screens of the current layout.
func (f *FrameSystem) ScreenCount() int {
	return ScreenCount(f.hSplit, f.vSplit)
}

// GetPlayerFrameBufferWidth is the width a player screen is drawn at: the
// scratch target width when split, the full resolution otherwise.
func (f *FrameSystem) GetPlayerFrameBufferWidth(screen int) int {
	if f.scratch != nil {
		return f.scratch.Width()
	}
	return f.resX
}

func (f *FrameSystem) GetPlayerFrameBufferHeight(screen int) int {
	if f.scratch != nil {
		return f.scratch.Height()
	}
	return f.resY
}
