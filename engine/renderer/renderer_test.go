package renderer_test

import (
	"image"
	"testing"

	"github.com/spaghettifunk/terra/engine/core"
	"github.com/spaghettifunk/terra/engine/renderer"
	"github.com/spaghettifunk/terra/engine/renderer/metadata"
	"github.com/spaghettifunk/terra/engine/renderer/software"
)

func newRenderer(w, h int) (*renderer.Renderer, *software.Device) {
	d := software.New(w, h, nil)
	return renderer.New(d, nil), d
}

func expectAssertion(t *testing.T, name string, fn func()) {
	t.Helper()
	defer func() {
		t.Helper()
		if _, ok := core.AsAssertion(recover()); !ok {
			t.Errorf("%s did not raise an assertion", name)
		}
	}()
	fn()
}

func TestPushPopReturnsToBackbuffer(t *testing.T) {
	r, _ := newRenderer(32, 32)
	targets := []*renderer.Texture{
		r.NewTexture(8, 8, true),
		r.NewTexture(8, 8, true),
		r.NewTexture(8, 8, true),
	}
	for _, tex := range targets {
		r.PushRenderTarget(tex.AsRenderTarget())
	}
	if r.TargetDepth() != 4 {
		t.Errorf("TargetDepth() = %d, expected 4", r.TargetDepth())
	}
	if r.CurrentTarget().Texture != targets[2] {
		t.Errorf("CurrentTarget() is not the last pushed texture")
	}
	for range targets {
		r.PopRenderTarget()
	}
	if !r.CurrentTarget().IsBackbuffer() {
		t.Errorf("CurrentTarget() = %s, expected backbuffer", r.CurrentTarget().Kind)
	}
}

func TestPopFloorIsFatal(t *testing.T) {
	r, _ := newRenderer(8, 8)
	expectAssertion(t, "PopRenderTarget()", r.PopRenderTarget)
	if r.TargetDepth() != 1 {
		t.Errorf("TargetDepth() = %d after failed pop, expected 1", r.TargetDepth())
	}
}

func TestPushNonTargetIsFatal(t *testing.T) {
	r, _ := newRenderer(8, 8)
	streaming := r.NewTexture(4, 4, false)
	expectAssertion(t, "PushRenderTarget(streaming)", func() {
		r.PushRenderTarget(renderer.Offscreen(streaming))
	})
}

func TestClearAndPresentRequireBackbuffer(t *testing.T) {
	r, _ := newRenderer(8, 8)
	target := r.NewTexture(4, 4, true)
	r.PushRenderTarget(target.AsRenderTarget())
	expectAssertion(t, "RenderClear()", r.RenderClear)
	expectAssertion(t, "RenderPresent()", r.RenderPresent)
	r.PopRenderTarget()
	r.RenderClear()
	r.RenderPresent()
}

func TestWithRenderTargetPopsOnPanic(t *testing.T) {
	r, _ := newRenderer(8, 8)
	target := r.NewTexture(4, 4, true)
	func() {
		defer func() { recover() }()
		r.WithRenderTarget(target.AsRenderTarget(), func() {
			panic("draw failed")
		})
	}()
	if r.TargetDepth() != 1 {
		t.Errorf("TargetDepth() = %d after panic, expected 1", r.TargetDepth())
	}
}

func TestRenderSizeFollowsTarget(t *testing.T) {
	r, _ := newRenderer(64, 48)
	w, h := r.RenderSize()
	if w != 64 || h != 48 {
		t.Errorf("RenderSize() = %dx%d, expected 64x48", w, h)
	}
	target := r.NewTexture(32, 24, true)
	r.WithRenderTarget(target.AsRenderTarget(), func() {
		w, h = r.RenderSize()
	})
	if w != 32 || h != 24 {
		t.Errorf("RenderSize() on target = %dx%d, expected 32x24", w, h)
	}
}

func TestDisjointClipSuppressesRender(t *testing.T) {
	r, d := newRenderer(16, 16)
	src := r.NewTexture(4, 4, false)
	src.Clear(metadata.WhiteColor)

	dest := r.NewTexture(16, 16, true)
	dest.SetClipRect(image.Rect(0, 0, 4, 4))
	dest.AddClipRect(image.Rect(8, 8, 12, 12))

	clip, ok := dest.GetClipRect()
	if !ok || !clip.Empty() {
		t.Fatalf("GetClipRect() = %v, %v, expected an empty clip", clip, ok)
	}

	src.Render(0, 0, nil, true, &clip)
	if d.Backbuffer().RGBAAt(1, 1).A != 0 {
		t.Errorf("Render() with an empty clip drew onto the target")
	}

	dest.ResetClipRect()
	if _, ok := dest.GetClipRect(); ok {
		t.Errorf("GetClipRect() after ResetClipRect reported a clip")
	}
}

func TestRenderClipsDestination(t *testing.T) {
	r, d := newRenderer(16, 16)
	src := r.NewTexture(8, 8, false)
	src.Clear(metadata.WhiteColor)

	clip := image.Rect(4, 4, 16, 16)
	src.Render(0, 0, nil, false, &clip)
	if d.Backbuffer().RGBAAt(2, 2).A != 0 {
		t.Errorf("Render() drew outside the clip")
	}
	if d.Backbuffer().RGBAAt(5, 5).A != 0xFF {
		t.Errorf("Render() did not draw inside the clip")
	}
}

func TestRenderOpaqueRestoresBlendMode(t *testing.T) {
	r, _ := newRenderer(8, 8)
	src := r.NewTexture(4, 4, false)
	src.SetBlendMode(metadata.BlendAdd)
	src.Render(0, 0, nil, false, nil)
	if src.BlendMode() != metadata.BlendAdd {
		t.Errorf("BlendMode() = %s, expected add", src.BlendMode())
	}
}

func TestLockIsIdempotent(t *testing.T) {
	r, _ := newRenderer(8, 8)
	streaming := r.NewTexture(4, 4, false)
	streaming.Lock()
	streaming.Lock()
	if !streaming.IsLocked() {
		t.Errorf("IsLocked() = false after Lock")
	}
	streaming.Unlock()
	streaming.Unlock()
	if streaming.IsLocked() {
		t.Errorf("IsLocked() = true after Unlock")
	}

	target := r.NewTexture(4, 4, true)
	target.Lock()
	if target.IsLocked() {
		t.Errorf("Lock() on a target texture should be a no-op")
	}
}

func TestPixelAccessOnTargetIsFatal(t *testing.T) {
	r, _ := newRenderer(8, 8)
	target := r.NewTexture(4, 4, true)
	expectAssertion(t, "GetPixel()", func() { target.GetPixel(0, 0) })
}

func TestDestroyedTextureIsFatal(t *testing.T) {
	r, _ := newRenderer(8, 8)
	tex := r.NewTexture(4, 4, false)
	tex.Destroy()
	if tex.Exists() {
		t.Errorf("Exists() = true after Destroy")
	}
	expectAssertion(t, "Render()", func() { tex.Render(0, 0, nil, true, nil) })
}

func TestDrawLineEndpoints(t *testing.T) {
	r, _ := newRenderer(8, 8)
	tex := r.NewTexture(8, 8, false)
	tex.DrawLine(0, 0, 7, 3, metadata.WhiteColor)
	for _, p := range []image.Point{{0, 0}, {7, 3}} {
		if got := tex.GetPixel(p.X, p.Y); got != metadata.WhiteColor {
			t.Errorf("GetPixel(%v) = %#x, expected white", p, uint32(got))
		}
	}
	count := 0
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			if tex.GetPixel(x, y) == metadata.WhiteColor {
				count++
			}
		}
	}
	if count != 8 {
		t.Errorf("DrawLine() plotted %d pixels, expected 8", count)
	}
}

func TestDrawRectangleHonoursClip(t *testing.T) {
	r, _ := newRenderer(8, 8)
	tex := r.NewTexture(8, 8, false)
	tex.SetClipRect(image.Rect(0, 0, 4, 4))
	tex.DrawRectangle(0, 0, 8, 8, metadata.WhiteColor, true)
	if tex.GetPixel(2, 2) != metadata.WhiteColor {
		t.Errorf("DrawRectangle() did not fill inside the clip")
	}
	if tex.GetPixel(6, 6) != 0 {
		t.Errorf("DrawRectangle() filled outside the clip")
	}
}

func TestDrawRectangleOnTargetRoutesThroughRenderer(t *testing.T) {
	r, d := newRenderer(8, 8)
	target := r.NewTexture(8, 8, true)
	target.DrawRectangle(0, 0, 4, 4, metadata.WhiteColor, true)
	if r.TargetDepth() != 1 {
		t.Errorf("TargetDepth() = %d, expected the scoped target to be popped", r.TargetDepth())
	}
	if d.Backbuffer().RGBAAt(1, 1).A != 0 {
		t.Errorf("DrawRectangle() on a target drew onto the backbuffer")
	}
	target.Render(0, 0, nil, false, nil)
	if d.Backbuffer().RGBAAt(1, 1).A != 0xFF {
		t.Errorf("target texture does not hold the rectangle")
	}
}

func TestBlitClipsSourceAgainstOwnClip(t *testing.T) {
	r, _ := newRenderer(8, 8)
	src := r.NewTexture(4, 4, false)
	src.Clear(metadata.WhiteColor)
	src.SetClipRect(image.Rect(0, 0, 2, 2))

	dest := r.NewTexture(8, 8, false)
	full := src.Bounds()
	src.Blit(dest, 0, 0, &full, false)
	if dest.GetPixel(1, 1) != metadata.WhiteColor {
		t.Errorf("Blit() missed the clipped area")
	}
	if dest.GetPixel(3, 3) != 0 {
		t.Errorf("Blit() copied outside the source clip")
	}
}

func TestBlitScaled(t *testing.T) {
	r, _ := newRenderer(8, 8)
	src := r.NewTexture(2, 2, false)
	src.SetPixel(1, 1, metadata.WhiteColor)
	dest := r.NewTexture(4, 4, false)
	src.BlitScaled(dest, 0, 0, 4, 4, false)
	if dest.GetPixel(3, 3) != metadata.WhiteColor {
		t.Errorf("BlitScaled() pixel (3,3) = %#x, expected white", uint32(dest.GetPixel(3, 3)))
	}
	if dest.GetPixel(0, 0) == metadata.WhiteColor {
		t.Errorf("BlitScaled() pixel (0,0) should not be white")
	}
}
