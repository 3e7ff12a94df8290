package systems

import (
	"errors"
	"image/color"
	"testing"

	"github.com/fzipp/bmfont"
	"github.com/google/uuid"
	"golang.org/x/image/font"

	"github.com/spaghettifunk/terra/engine/math"
	"github.com/spaghettifunk/terra/engine/renderer/metadata"
)

func offscreenBinds(binds []uuid.UUID) int {
	n := 0
	for _, id := range binds {
		if id != uuid.Nil {
			n++
		}
	}
	return n
}

func TestNewFrameSystemRequiresScene(t *testing.T) {
	rig := newTestRig(t, 64, 48, nil)
	_, err := NewFrameSystem(&FrameSystemConfig{}, rig.renderer, rig.window, nil, FrameSystemDeps{})
	if err == nil {
		t.Errorf("NewFrameSystem() without a scene succeeded, expected an error")
	}
}

func TestInitializeAppliesDefaults(t *testing.T) {
	rig := newTestRig(t, 64, 48, func(c *FrameSystemConfig, _ *FrameSystemDeps) {
		c.ResX, c.ResY, c.ResMultiplier = 0, 0, 9
	})
	if rig.frame.ResX() != DefaultResX || rig.frame.ResY() != DefaultResY {
		t.Errorf("resolution = %dx%d, expected %dx%d", rig.frame.ResX(), rig.frame.ResY(), DefaultResX, DefaultResY)
	}
	if rig.frame.ResMultiplier() != DefaultResMultiplier {
		t.Errorf("ResMultiplier() = %d, expected %d", rig.frame.ResMultiplier(), DefaultResMultiplier)
	}
	if w, h := rig.window.Size(); w != DefaultResX || h != DefaultResY {
		t.Errorf("window size = %dx%d, expected %dx%d", w, h, DefaultResX, DefaultResY)
	}
	if w, h := rig.device.LogicalSize(); w != DefaultResX || h != DefaultResY {
		t.Errorf("LogicalSize() = %dx%d, expected %dx%d", w, h, DefaultResX, DefaultResY)
	}
	if rig.frame.ScreenCount() != 1 {
		t.Errorf("ScreenCount() = %d, expected 1", rig.frame.ScreenCount())
	}
}

func TestDrawSingleScreenInPlace(t *testing.T) {
	rig := newTestRig(t, 64, 48, nil)
	rig.scene.offsets[0] = math.NewVector(12, 7)
	rig.drawFrame()

	if n := offscreenBinds(rig.device.binds); n != 0 {
		t.Errorf("single screen bound %d offscreen targets, expected 0", n)
	}
	if len(rig.scene.drawn) != 1 {
		t.Fatalf("DrawWorld called %d times, expected 1", len(rig.scene.drawn))
	}
	call := rig.scene.drawn[0]
	if call.offset != math.NewVector(12, 7) {
		t.Errorf("DrawWorld offset = %v, expected {12 7}", call.offset)
	}
	if call.width != 64 || call.height != 48 {
		t.Errorf("DrawWorld render size = %dx%d, expected 64x48", call.width, call.height)
	}
	if len(rig.device.lines) != 0 {
		t.Errorf("single screen drew %d divider lines, expected 0", len(rig.device.lines))
	}
	if rig.scene.cleared != 1 {
		t.Errorf("ClearRevealedPixelTracking called %d times, expected 1", rig.scene.cleared)
	}
	if rig.console.overlays != 1 {
		t.Errorf("console overlay drawn %d times, expected 1", rig.console.overlays)
	}
	if got := rig.device.Backbuffer().RGBAAt(2, 2); got != (color.RGBA{0xFF, 0xFF, 0xFF, 0xFF}) {
		t.Errorf("backbuffer(2,2) = %v, expected white", got)
	}
}

func TestDrawHorizontalSplit(t *testing.T) {
	rig := newTestRig(t, 64, 48, nil)
	rig.frame.ResetSplitScreens(true, false)
	scratch := rig.frame.scratch
	rig.device.reset()

	rig.drawFrame()

	if n := offscreenBinds(rig.device.binds); n != 2 {
		t.Errorf("offscreen binds = %d, expected 2", n)
	}
	var placed []copyCall
	for _, c := range rig.device.copies {
		if c.id == scratch.ID() {
			placed = append(placed, c)
		}
	}
	if len(placed) != 2 {
		t.Fatalf("scratch copied %d times, expected 2", len(placed))
	}
	if placed[0].dst.Min.Y != 0 || placed[1].dst.Min.Y != 24 {
		t.Errorf("screens placed at y=%d and y=%d, expected 0 and 24", placed[0].dst.Min.Y, placed[1].dst.Min.Y)
	}
	for _, call := range rig.scene.drawn {
		if call.width != 64 || call.height != 24 {
			t.Errorf("DrawWorld render size = %dx%d, expected 64x24", call.width, call.height)
		}
	}

	if len(rig.device.lines) != 2 {
		t.Fatalf("divider lines = %d, expected 2", len(rig.device.lines))
	}
	for i, y := range []int{23, 24} {
		line := rig.device.lines[i]
		if line != [4]int{0, y, 63, y} {
			t.Errorf("divider %d = %v, expected [0 %d 63 %d]", i, line, y, y)
		}
	}
	// Each screen shows its own white block; the divider is black.
	if got := rig.device.Backbuffer().RGBAAt(2, 26); got.R != 0xFF {
		t.Errorf("lower screen block = %v, expected white", got)
	}
	if got := rig.device.Backbuffer().RGBAAt(2, 24); got.R != 0 {
		t.Errorf("divider pixel = %v, expected black", got)
	}
}

func TestDrawVerticalSplitDividers(t *testing.T) {
	rig := newTestRig(t, 64, 48, nil)
	rig.frame.ResetSplitScreens(false, true)
	rig.device.reset()
	rig.drawFrame()

	expected := [][4]int{{31, 0, 31, 47}, {32, 0, 32, 47}}
	if len(rig.device.lines) != len(expected) {
		t.Fatalf("divider lines = %d, expected %d", len(rig.device.lines), len(expected))
	}
	for i := range expected {
		if rig.device.lines[i] != expected[i] {
			t.Errorf("divider %d = %v, expected %v", i, rig.device.lines[i], expected[i])
		}
	}
}

func TestDrawFourScreens(t *testing.T) {
	rig := newTestRig(t, 64, 48, nil)
	rig.frame.ResetSplitScreens(true, true)
	rig.drawFrame()

	if len(rig.scene.advanced) != 4 {
		t.Fatalf("AdvanceViewFor called %d times, expected 4", len(rig.scene.advanced))
	}
	for i, screen := range rig.scene.advanced {
		if screen != i {
			t.Errorf("screen %d advanced as %d", i, screen)
		}
	}
	if got := rig.device.Backbuffer().RGBAAt(34, 26); got.R != 0xFF {
		t.Errorf("lower right screen block = %v, expected white", got)
	}
	if len(rig.device.lines) != 4 {
		t.Errorf("divider lines = %d, expected 4", len(rig.device.lines))
	}
}

func TestDrawWithOffscreenTargetBoundIsFatal(t *testing.T) {
	rig := newTestRig(t, 64, 48, nil)
	target := rig.renderer.NewTexture(8, 8, true)
	rig.renderer.PushRenderTarget(target.AsRenderTarget())
	expectAssertion(t, "Draw()", rig.frame.Draw)
	rig.renderer.PopRenderTarget()
}

func TestDrawCollectsEffectsPerScreen(t *testing.T) {
	post := &stubPostProcess{}
	activities := NewActivitySystem()
	rig := newTestRig(t, 64, 48, func(_ *FrameSystemConfig, d *FrameSystemDeps) {
		d.PostProcess = post
		d.Activities = activities
	})
	activities.StartActivity(GameActivityConfig{
		Name:          "duel",
		PlayerTeams:   []int{3, 7},
		ScreenPlayers: []int{1, 0},
	})
	rig.frame.ResetSplitScreens(true, false)
	rig.drawFrame()

	if len(post.teams) != 2 || post.teams[0] != 7 || post.teams[1] != 3 {
		t.Errorf("teams collected = %v, expected [7 3]", post.teams)
	}
	if len(post.repositioned) != 2 {
		t.Fatalf("RepositionEffects called %d times, expected 2", len(post.repositioned))
	}
	if post.repositioned[1].origin != math.NewVector(0, 24) {
		t.Errorf("screen 1 origin = %v, expected {0 24}", post.repositioned[1].origin)
	}
	if post.repositioned[1].width != 64 || post.repositioned[1].height != 24 {
		t.Errorf("screen 1 size = %dx%d, expected 64x24", post.repositioned[1].width, post.repositioned[1].height)
	}
	if post.applied != 1 {
		t.Errorf("ApplyGlobalPostProcess called %d times, expected 1", post.applied)
	}
}

func TestDrawWithoutActivitySkipsEffects(t *testing.T) {
	post := &stubPostProcess{}
	rig := newTestRig(t, 64, 48, func(_ *FrameSystemConfig, d *FrameSystemDeps) {
		d.PostProcess = post
		d.Activities = NewActivitySystem()
	})
	rig.drawFrame()

	if len(post.teams) != 0 || len(post.repositioned) != 0 {
		t.Errorf("effects handled without an activity: %v, %v", post.teams, post.repositioned)
	}
	if post.applied != 0 {
		t.Errorf("ApplyGlobalPostProcess called %d times, expected 0", post.applied)
	}
	if post.cleared != 1 {
		t.Errorf("ClearScreenEffects called %d times, expected 1", post.cleared)
	}
}

func TestDrawNetworkBackBuffer(t *testing.T) {
	rig := newTestRig(t, 16, 16, func(c *FrameSystemConfig, _ *FrameSystemDeps) {
		c.DrawNetworkBackBuffer = true
	})
	palette := color.Palette{color.RGBA{}, color.RGBA{R: 0xFF, A: 0xFF}}
	frame := newFilledPaletted(16, 16, palette, 1)
	rig.frame.NetworkFrames().Store(frame, nil)
	rig.drawFrame()

	if got := rig.device.Backbuffer().RGBAAt(12, 12); got != (color.RGBA{R: 0xFF, A: 0xFF}) {
		t.Errorf("backbuffer(12,12) = %v, expected the network frame's red", got)
	}
}

func TestColorFromIndex(t *testing.T) {
	rig := newTestRig(t, 64, 48, nil)
	if got := rig.frame.GetColorFromIndex(0); got != metadata.MaskColor {
		t.Errorf("GetColorFromIndex(0) = %#08x, expected mask colour", uint32(got))
	}
	if got := rig.frame.GetColorFromIndex(15); got != 0xFFFFFFFF {
		t.Errorf("GetColorFromIndex(15) = %#08x, expected white", uint32(got))
	}
	if rig.frame.GetPixelFormat() != "RGBA8888" {
		t.Errorf("GetPixelFormat() = %s, expected RGBA8888", rig.frame.GetPixelFormat())
	}
}

func TestCalculateText(t *testing.T) {
	rig := newTestRig(t, 64, 48, nil)
	single := rig.frame.CalculateTextHeight("word", 0, false)
	if single <= 0 {
		t.Fatalf("CalculateTextHeight() = %d, expected > 0", single)
	}
	if got := rig.frame.CalculateTextHeight("one\ntwo", 0, false); got != 2*single {
		t.Errorf("CalculateTextHeight() of two lines = %d, expected %d", got, 2*single)
	}
	short := rig.frame.CalculateTextWidth("ab", true)
	long := rig.frame.CalculateTextWidth("abcd", true)
	if long <= short {
		t.Errorf("CalculateTextWidth() = %d for 4 chars, %d for 2", long, short)
	}
}

type failingAssets struct{}

func (failingAssets) LoadBitmapFont(string) (*bmfont.BitmapFont, error) {
	return nil, errors.New("missing")
}

func (failingAssets) LoadSystemFont(string, float64) (font.Face, error) {
	return nil, errors.New("missing")
}

func (failingAssets) LoadPalette(string) (color.Palette, error) {
	return nil, errors.New("missing")
}

func TestMissingAssetsFallBack(t *testing.T) {
	rig := newTestRig(t, 64, 48, func(c *FrameSystemConfig, d *FrameSystemDeps) {
		c.LargeFont, c.SmallFont, c.Palette = "big", "small", "game"
		d.Assets = failingAssets{}
	})
	if rig.frame.Palette() == nil || rig.frame.font(false) == nil || rig.frame.font(true) == nil {
		t.Fatalf("frame system has no palette or fonts after failed loads")
	}
	if got := rig.frame.GetColorFromIndex(0); got != metadata.MaskColor {
		t.Errorf("GetColorFromIndex(0) = %#08x, expected the built-in palette", uint32(got))
	}
}
