package systems

import (
	"image"
	"image/color"
	"testing"

	"github.com/spaghettifunk/terra/engine/math"
	"github.com/spaghettifunk/terra/engine/renderer"
	"github.com/spaghettifunk/terra/engine/renderer/metadata"
	"github.com/spaghettifunk/terra/engine/renderer/software"
)

func TestRegisterPostEffect(t *testing.T) {
	world := newStubScene(100, 50)
	pp := NewPostProcessSystem(&PostProcessSystemConfig{}, world, nil)
	pp.RegisterPostEffect(math.NewVector(10, 10), "glow", 0, 0, metadata.NoTeam)
	pp.RegisterPostEffect(math.NewVector(10, 10), "glow", 200, 0, metadata.NoTeam)
	pp.RegisterGlowArea(image.Rectangle{})
	pp.RegisterGlowArea(image.Rect(0, 0, 4, 4))

	if got := pp.CollectWrappedEffects(math.Vector{}, 50, 50, metadata.NoTeam); len(got) != 1 {
		t.Errorf("collected %d effects, expected the zero strength one to be ignored", len(got))
	}
	if got := pp.CollectWrappedGlowAreas(math.Vector{}, 50, 50); len(got) != 1 {
		t.Errorf("collected %d glow areas, expected the empty one to be ignored", len(got))
	}

	pp.ClearScenePostEffects()
	if got := pp.CollectWrappedEffects(math.Vector{}, 50, 50, metadata.NoTeam); len(got) != 0 {
		t.Errorf("collected %d effects after clearing, expected 0", len(got))
	}
	if pp.Config.GlowTint == 0 {
		t.Errorf("GlowTint has no default")
	}
}

func TestCollectWrappedEffects(t *testing.T) {
	world := newStubScene(100, 50)
	world.wrapX = true
	pp := NewPostProcessSystem(&PostProcessSystemConfig{}, world, nil)
	pp.RegisterPostEffect(math.NewVector(5, 10), "glow", 255, 0, metadata.NoTeam)

	// The view spans the seam: world x 90..99 then 0..19.
	got := pp.CollectWrappedEffects(math.NewVector(90, 0), 30, 20, metadata.NoTeam)
	if len(got) != 1 {
		t.Fatalf("collected %d effects, expected 1", len(got))
	}
	if got[0].Position != math.NewVector(15, 10) {
		t.Errorf("effect at %v, expected {15 10}", got[0].Position)
	}

	world.wrapX = false
	if got := pp.CollectWrappedEffects(math.NewVector(90, 0), 30, 20, metadata.NoTeam); len(got) != 0 {
		t.Errorf("collected %d effects without wrapping, expected 0", len(got))
	}
}

func TestCollectEffectsByTeam(t *testing.T) {
	pp := NewPostProcessSystem(&PostProcessSystemConfig{}, newStubScene(100, 50), nil)
	pp.RegisterPostEffect(math.NewVector(1, 1), "glow", 255, 0, 1)
	pp.RegisterPostEffect(math.NewVector(2, 2), "glow", 255, 0, 2)
	pp.RegisterPostEffect(math.NewVector(3, 3), "glow", 255, 0, metadata.NoTeam)

	tests := []struct {
		team     int
		expected int
	}{
		{1, 2},
		{2, 2},
		{3, 1},
		{metadata.NoTeam, 3},
	}
	for _, tt := range tests {
		if got := pp.CollectWrappedEffects(math.Vector{}, 50, 50, tt.team); len(got) != tt.expected {
			t.Errorf("team %d collected %d effects, expected %d", tt.team, len(got), tt.expected)
		}
	}
}

func TestCollectWrappedGlowAreas(t *testing.T) {
	pp := NewPostProcessSystem(&PostProcessSystemConfig{}, newStubScene(100, 50), nil)
	pp.RegisterGlowArea(image.Rect(0, 0, 10, 10))
	pp.RegisterGlowArea(image.Rect(60, 40, 70, 50))

	got := pp.CollectWrappedGlowAreas(math.NewVector(5, 5), 20, 20)
	if len(got) != 1 {
		t.Fatalf("collected %d glow areas, expected 1", len(got))
	}
	if got[0].Box != image.Rect(0, 0, 5, 5) {
		t.Errorf("glow area = %v, expected it clipped to (0,0)-(5,5)", got[0].Box)
	}
}

func TestRepositionEffects(t *testing.T) {
	pp := NewPostProcessSystem(&PostProcessSystemConfig{}, newStubScene(100, 50), nil)
	effects := []metadata.PostEffect{{Position: math.NewVector(1, 1), Sprite: "glow", Strength: 255}}
	glows := []metadata.GlowArea{{Box: image.Rect(0, 0, 4, 4)}}
	pp.RepositionEffects(1, 64, 24, math.NewVector(0, 24), effects, glows)

	placed := pp.ScreenEffects()
	if len(placed) != 1 {
		t.Fatalf("ScreenEffects() has %d screens, expected 1", len(placed))
	}
	if placed[0].Effects[0].Position != math.NewVector(1, 25) {
		t.Errorf("effect at %v, expected {1 25}", placed[0].Effects[0].Position)
	}
	if placed[0].GlowAreas[0].Box != image.Rect(0, 24, 4, 28) {
		t.Errorf("glow area = %v, expected (0,24)-(4,28)", placed[0].GlowAreas[0].Box)
	}
	if effects[0].Position != math.NewVector(1, 1) {
		t.Errorf("caller's effects were modified")
	}

	pp.ClearScreenEffects()
	if len(pp.ScreenEffects()) != 0 {
		t.Errorf("ScreenEffects() not cleared")
	}
}

func TestApplyGlobalPostProcess(t *testing.T) {
	device := software.New(64, 48, nil)
	images := newFakeImages()
	images.set("glow", 4, 4, color.White)
	r := renderer.New(device, images)
	textures, _ := NewTextureSystem(&TextureSystemConfig{MaxTextureCount: 8}, nil, images, r, nil)
	pp := NewPostProcessSystem(&PostProcessSystemConfig{GlowTint: 0xFF400000}, newStubScene(100, 50), textures)

	effects := []metadata.PostEffect{
		{Position: math.NewVector(10, 30), Sprite: "glow", Strength: 255},
		// Its sprite would cover rows 20..23, which belong to the other screen.
		{Position: math.NewVector(40, 22), Sprite: "glow", Strength: 255},
		{Position: math.NewVector(50, 40), Sprite: "missing", Strength: 255},
	}
	glows := []metadata.GlowArea{{Box: image.Rect(20, -10, 30, 10)}}
	pp.RepositionEffects(1, 64, 24, math.NewVector(0, 24), effects, glows)

	r.RenderClear()
	pp.ApplyGlobalPostProcess(r)
	backbuffer := device.Backbuffer()

	if got := backbuffer.RGBAAt(9, 29); got.R != 0xFF {
		t.Errorf("sprite pixel (9,29) = %v, expected white", got)
	}
	if got := backbuffer.RGBAAt(39, 21); got.R != 0 {
		t.Errorf("sprite drawn outside its screen at (39,21): %v", got)
	}
	if got := backbuffer.RGBAAt(25, 30); got.R != 0x40 {
		t.Errorf("glow pixel (25,30) = %v, expected R 0x40", got)
	}
	if got := backbuffer.RGBAAt(25, 20); got.R != 0 {
		t.Errorf("glow drawn outside its screen at (25,20): %v", got)
	}
	if _, ok := textures.Get("glow"); !ok {
		t.Errorf("glow sprite not acquired through the texture system")
	}

	target := r.NewTexture(8, 8, true)
	r.PushRenderTarget(target.AsRenderTarget())
	expectAssertion(t, "ApplyGlobalPostProcess()", func() { pp.ApplyGlobalPostProcess(r) })
	r.PopRenderTarget()
}
