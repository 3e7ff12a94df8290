package systems

import (
	"fmt"
	"image"

	"github.com/spaghettifunk/terra/engine/math"
	"github.com/spaghettifunk/terra/engine/renderer"
	"github.com/spaghettifunk/terra/engine/renderer/components"
	"github.com/spaghettifunk/terra/engine/renderer/metadata"
)

type SceneSystemConfig struct {
	WorldWidth  int
	WorldHeight int
	WrapX       bool
	WrapY       bool
	// Fraction of the remaining distance a view moves each frame.
	ScrollRate float32
	Background metadata.PackedColor
}

// ViewportProvider tells the scene how large each player screen is. The
// frame system is one.
type ViewportProvider interface {
	GetPlayerFrameBufferWidth(screen int) int
	GetPlayerFrameBufferHeight(screen int) int
}

// SceneSystem holds the terrain and the view of each player screen onto it.
type SceneSystem struct {
	Config   *SceneSystemConfig
	renderer *renderer.Renderer
	cameras  *CameraSystem
	viewport ViewportProvider

	world    *renderer.Texture
	views    map[int]*components.Camera
	focus    map[int]math.Vector
	revealed map[image.Point]struct{}
}

func NewSceneSystem(config *SceneSystemConfig, r *renderer.Renderer, cameras *CameraSystem) (*SceneSystem, error) {
	if config.WorldWidth <= 0 || config.WorldHeight <= 0 {
		return nil, fmt.Errorf("func NewSceneSystem - invalid world size %dx%d", config.WorldWidth, config.WorldHeight)
	}
	if config.ScrollRate <= 0 || config.ScrollRate > 1 {
		config.ScrollRate = 0.1
	}
	if config.Background == 0 {
		config.Background = metadata.BlackColor
	}
	return &SceneSystem{
		Config:   config,
		renderer: r,
		cameras:  cameras,
		views:    make(map[int]*components.Camera),
		focus:    make(map[int]math.Vector),
		revealed: make(map[image.Point]struct{}),
	}, nil
}

func (s *SceneSystem) Initialize() error {
	s.world = s.renderer.NewTexture(s.Config.WorldWidth, s.Config.WorldHeight, false)
	s.world.Clear(s.Config.Background)
	return nil
}

func (s *SceneSystem) SetViewport(viewport ViewportProvider) {
	s.viewport = viewport
}

func (s *SceneSystem) Shutdown() error {
	for screen := range s.views {
		s.cameras.ReleaseForScreen(screen)
	}
	s.views = make(map[int]*components.Camera)
	if s.world != nil {
		s.world.Destroy()
		s.world = nil
	}
	return nil
}

// World is the terrain texture. Gameplay paints into it directly.
func (s *SceneSystem) World() *renderer.Texture {
	return s.world
}

func (s *SceneSystem) GetWorldWidth() int      { return s.Config.WorldWidth }
func (s *SceneSystem) GetWorldHeight() int     { return s.Config.WorldHeight }
func (s *SceneSystem) WrapsHorizontally() bool { return s.Config.WrapX }
func (s *SceneSystem) WrapsVertically() bool   { return s.Config.WrapY }

func (s *SceneSystem) camera(screen int) *components.Camera {
	if cam, ok := s.views[screen]; ok {
		return cam
	}
	cam := s.cameras.AcquireForScreen(screen)
	s.views[screen] = cam
	return cam
}

func (s *SceneSystem) viewSize(screen int) (int, int) {
	if s.viewport == nil {
		return s.renderer.RenderSize()
	}
	return s.viewport.GetPlayerFrameBufferWidth(screen), s.viewport.GetPlayerFrameBufferHeight(screen)
}

// SetCameraTarget makes the view of a screen follow a world position, which
// ends up in the middle of the screen.
func (s *SceneSystem) SetCameraTarget(screen int, center math.Vector) {
	s.focus[screen] = center
}

// JumpCameraTo moves the view of a screen onto a world position at once.
func (s *SceneSystem) JumpCameraTo(screen int, center math.Vector) {
	s.focus[screen] = center
	cam := s.camera(screen)
	cam.SetPosition(s.scrollTarget(screen, center, cam.GetPosition()))
}

// scrollTarget is the top-left scroll position that centers a world
// position. Non wrapping axes stay inside the world, wrapping axes take the
// shortest way round from the current position.
func (s *SceneSystem) scrollTarget(screen int, center, current math.Vector) math.Vector {
	width, height := s.viewSize(screen)
	target := center.Sub(math.NewVector(float32(width/2), float32(height/2)))
	target.X = axisTarget(target.X, current.X, width, s.Config.WorldWidth, s.Config.WrapX)
	target.Y = axisTarget(target.Y, current.Y, height, s.Config.WorldHeight, s.Config.WrapY)
	return target
}

func axisTarget(target, current float32, view, extent int, wraps bool) float32 {
	if !wraps {
		return math.Clamp(target, 0, float32(max(extent-view, 0)))
	}
	size := float32(extent)
	delta := math.Wrap(target-current+size/2, size) - size/2
	return current + delta
}

// AdvanceViewFor eases the view of a screen one frame toward its target.
func (s *SceneSystem) AdvanceViewFor(screen int) {
	cam := s.camera(screen)
	if center, ok := s.focus[screen]; ok {
		cam.SetTarget(s.scrollTarget(screen, center, cam.GetPosition()))
	}
	cam.Advance(s.Config.ScrollRate)

	position, target := cam.GetPosition(), cam.GetTarget()
	if s.Config.WrapX {
		wrapped := math.Wrap(position.X, float32(s.Config.WorldWidth))
		target.X += wrapped - position.X
		position.X = wrapped
	}
	if s.Config.WrapY {
		wrapped := math.Wrap(position.Y, float32(s.Config.WorldHeight))
		target.Y += wrapped - position.Y
		position.Y = wrapped
	}
	cam.Position = position
	cam.SetTarget(target)
}

// GetScrollOffset is the world position at the top-left of a screen.
func (s *SceneSystem) GetScrollOffset(screen int) math.Vector {
	return s.camera(screen).GetPosition()
}

// tiles returns where copies of the world go along one axis so that the
// view is covered. Without wrapping there is a single copy.
func tiles(offset, view, extent int, wraps bool) []int {
	if !wraps || extent <= 0 {
		return []int{-offset}
	}
	start := -(((offset % extent) + extent) % extent)
	var positions []int
	for p := start; p < view; p += extent {
		positions = append(positions, p)
	}
	return positions
}

// DrawWorld draws the terrain onto the current target as seen from offset.
func (s *SceneSystem) DrawWorld(r *renderer.Renderer, offset math.Vector) {
	width, height := r.RenderSize()
	r.FillRect(image.Rect(0, 0, width, height), s.Config.Background, metadata.BlendNone)
	if s.world == nil {
		return
	}
	for _, y := range tiles(offset.FloorIntY(), height, s.Config.WorldHeight, s.Config.WrapY) {
		for _, x := range tiles(offset.FloorIntX(), width, s.Config.WorldWidth, s.Config.WrapX) {
			s.world.Render(x, y, nil, false, nil)
		}
	}
}

// RevealPixel records a terrain pixel uncovered this frame.
func (s *SceneSystem) RevealPixel(x, y int) {
	s.revealed[image.Pt(x, y)] = struct{}{}
}

func (s *SceneSystem) RevealedCount() int {
	return len(s.revealed)
}

// ClearRevealedPixelTracking forgets the pixels revealed since the last
// frame. Called once every screen has drawn them.
func (s *SceneSystem) ClearRevealedPixelTracking() {
	clear(s.revealed)
}
