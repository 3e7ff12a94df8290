package systems

import (
	"image"

	"github.com/spaghettifunk/terra/engine/core"
	"github.com/spaghettifunk/terra/engine/math"
	"github.com/spaghettifunk/terra/engine/renderer"
	"github.com/spaghettifunk/terra/engine/renderer/metadata"
)

type PostProcessSystemConfig struct {
	// Added over every glow area in the final pass.
	GlowTint metadata.PackedColor
}

// PostProcessSystem collects glow effects registered by gameplay in world
// space, sorts them onto the player screens that can see them and blends
// them over the finished frame.
type PostProcessSystem struct {
	Config   *PostProcessSystemConfig
	world    WorldExtent
	textures *TextureSystem

	sceneEffects   []metadata.PostEffect
	sceneGlowAreas []metadata.GlowArea
	screenEffects  []metadata.ScreenEffects
	// Sprites that failed to load are not tried again.
	missing map[string]bool
}

func NewPostProcessSystem(config *PostProcessSystemConfig, world WorldExtent, textures *TextureSystem) *PostProcessSystem {
	if config.GlowTint == 0 {
		config.GlowTint = 0x30FFD080
	}
	return &PostProcessSystem{
		Config:   config,
		world:    world,
		textures: textures,
		missing:  make(map[string]bool),
	}
}

// RegisterPostEffect adds an effect at a world position for this frame.
func (pp *PostProcessSystem) RegisterPostEffect(position math.Vector, sprite string, strength uint8, angle float32, team int) {
	if strength == 0 {
		return
	}
	pp.sceneEffects = append(pp.sceneEffects, metadata.PostEffect{
		Position: position,
		Sprite:   sprite,
		Strength: strength,
		Angle:    angle,
		Team:     team,
	})
}

// RegisterGlowArea marks a world area where glowing pixels are picked up.
func (pp *PostProcessSystem) RegisterGlowArea(box image.Rectangle) {
	if box.Empty() {
		return
	}
	pp.sceneGlowAreas = append(pp.sceneGlowAreas, metadata.GlowArea{Box: box})
}

// ClearScenePostEffects drops the world space effects. Gameplay registers
// them again every frame.
func (pp *PostProcessSystem) ClearScenePostEffects() {
	pp.sceneEffects = pp.sceneEffects[:0]
	pp.sceneGlowAreas = pp.sceneGlowAreas[:0]
}

func (pp *PostProcessSystem) ClearScreenEffects() {
	pp.screenEffects = pp.screenEffects[:0]
}

// ScreenEffects returns the effects gathered for each player screen this
// frame, in backbuffer space.
func (pp *PostProcessSystem) ScreenEffects() []metadata.ScreenEffects {
	return pp.screenEffects
}

// wrapShifts returns the offsets a world position is repeated at along one
// axis.
func wrapShifts(wraps bool, size int) []int {
	if !wraps || size <= 0 {
		return []int{0}
	}
	return []int{0, -size, size}
}

func visibleTo(effect metadata.PostEffect, team int) bool {
	return effect.Team == metadata.NoTeam || team == metadata.NoTeam || effect.Team == team
}

// spriteMargin is how far outside the viewport an effect can sit and still
// have part of its sprite show.
func (pp *PostProcessSystem) spriteMargin(sprite string) (int, int) {
	if pp.textures == nil {
		return 0, 0
	}
	if t, ok := pp.textures.Get(sprite); ok {
		return t.Width() / 2, t.Height() / 2
	}
	return 0, 0
}

// CollectWrappedEffects returns the effects that can be seen from a
// viewport at offset, relative to the viewport. Effects across the seam of
// a wrapping world are found on the near side.
func (pp *PostProcessSystem) CollectWrappedEffects(offset math.Vector, width, height, team int) []metadata.PostEffect {
	xShifts := wrapShifts(pp.world.WrapsHorizontally(), pp.world.GetWorldWidth())
	yShifts := wrapShifts(pp.world.WrapsVertically(), pp.world.GetWorldHeight())

	var collected []metadata.PostEffect
	for _, effect := range pp.sceneEffects {
		if !visibleTo(effect, team) {
			continue
		}
		marginX, marginY := pp.spriteMargin(effect.Sprite)
		for _, dx := range xShifts {
			for _, dy := range yShifts {
				relative := effect.Position.Add(math.NewVector(float32(dx), float32(dy))).Sub(offset)
				x, y := relative.FloorIntX(), relative.FloorIntY()
				if x < -marginX || x >= width+marginX || y < -marginY || y >= height+marginY {
					continue
				}
				moved := effect
				moved.Position = relative
				collected = append(collected, moved)
			}
		}
	}
	return collected
}

// CollectWrappedGlowAreas returns the glow areas overlapping a viewport,
// clipped to it and relative to it.
func (pp *PostProcessSystem) CollectWrappedGlowAreas(offset math.Vector, width, height int) []metadata.GlowArea {
	xShifts := wrapShifts(pp.world.WrapsHorizontally(), pp.world.GetWorldWidth())
	yShifts := wrapShifts(pp.world.WrapsVertically(), pp.world.GetWorldHeight())
	viewport := image.Rect(0, 0, width, height)
	origin := offset.Point()

	var collected []metadata.GlowArea
	for _, area := range pp.sceneGlowAreas {
		for _, dx := range xShifts {
			for _, dy := range yShifts {
				box := area.Box.Add(image.Pt(dx, dy)).Sub(origin)
				if clipped, ok := math.Intersect(box, viewport); ok {
					collected = append(collected, metadata.GlowArea{Box: clipped})
				}
			}
		}
	}
	return collected
}

// RepositionEffects moves the effects of a screen from screen space into
// backbuffer space and keeps them for the final pass.
func (pp *PostProcessSystem) RepositionEffects(screen, width, height int, origin math.Vector, effects []metadata.PostEffect, glowAreas []metadata.GlowArea) {
	placed := metadata.ScreenEffects{
		Screen: screen,
		Width:  width,
		Height: height,
		Origin: origin,
	}
	shift := origin.Point()
	for _, effect := range effects {
		effect.Position = effect.Position.Add(origin)
		placed.Effects = append(placed.Effects, effect)
	}
	for _, area := range glowAreas {
		placed.GlowAreas = append(placed.GlowAreas, metadata.GlowArea{Box: area.Box.Add(shift)})
	}
	pp.screenEffects = append(pp.screenEffects, placed)
}

// ApplyGlobalPostProcess blends the gathered glows over the backbuffer.
// Every screen's glows are clipped to that screen.
func (pp *PostProcessSystem) ApplyGlobalPostProcess(r *renderer.Renderer) {
	core.Assert(r.CurrentTarget().IsBackbuffer(), "post processing applied to an offscreen target")

	for _, screen := range pp.screenEffects {
		clip := math.Rect(screen.Origin.FloorIntX(), screen.Origin.FloorIntY(), screen.Width, screen.Height)

		for _, area := range screen.GlowAreas {
			if box, ok := math.Intersect(area.Box, clip); ok {
				r.FillRect(box, pp.Config.GlowTint, metadata.BlendAdd)
			}
		}
		for _, effect := range screen.Effects {
			sprite := pp.sprite(effect.Sprite)
			if sprite == nil {
				continue
			}
			x := effect.Position.FloorIntX() - sprite.Width()/2
			y := effect.Position.FloorIntY() - sprite.Height()/2
			sprite.Render(x, y, nil, true, &clip)
		}
	}
}

func (pp *PostProcessSystem) sprite(name string) *renderer.Texture {
	if pp.textures == nil || pp.missing[name] {
		return nil
	}
	t, ok := pp.textures.Get(name)
	if !ok {
		var err error
		if t, err = pp.textures.Acquire(name, false); err != nil {
			pp.missing[name] = true
			return nil
		}
	}
	if t.BlendMode() != metadata.BlendAdd {
		t.SetBlendMode(metadata.BlendAdd)
	}
	return t
}
