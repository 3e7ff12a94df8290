package testbed

import (
	"fmt"
	"image"
	gomath "math"

	"github.com/spaghettifunk/terra/engine"
	"github.com/spaghettifunk/terra/engine/core"
	"github.com/spaghettifunk/terra/engine/math"
	"github.com/spaghettifunk/terra/engine/renderer"
	"github.com/spaghettifunk/terra/engine/renderer/metadata"
	"github.com/spaghettifunk/terra/engine/systems"
)

const (
	worldWidth  = 1920
	worldHeight = 540

	skyColor    metadata.PackedColor = 0xFF203048
	groundColor metadata.PackedColor = 0xFF6B4A2B
	grassColor  metadata.PackedColor = 0xFF3C8C3C
	flashColor  metadata.PackedColor = 0xFFFF2020

	// Pixels a player walks per second.
	walkSpeed = 60.0
	digRadius = 3
)

type TestGame struct {
	*engine.Game
}

type player struct {
	position math.Vector
	// +1 walks right, -1 walks left.
	direction float32
}

type gameState struct {
	width  uint32
	height uint32

	players []*player
	frames  int
}

func NewTestGame(config *engine.ApplicationConfig) (*TestGame, error) {
	if config.Name == "" {
		config.Name = "Terra"
	}
	config.World = systems.SceneSystemConfig{
		WorldWidth:  worldWidth,
		WorldHeight: worldHeight,
		WrapX:       true,
		ScrollRate:  0.1,
		Background:  skyColor,
	}

	tg := &TestGame{
		Game: &engine.Game{
			ApplicationConfig: config,
			State:             &gameState{},
		},
	}

	tg.FnInitialize = tg.Initialize
	tg.FnUpdate = tg.Update
	tg.FnRender = tg.Render
	tg.FnOnResize = tg.OnResize
	tg.FnShutdown = tg.Shutdown

	return tg, nil
}

// groundLevel is the first solid row of a column.
func groundLevel(x int) int {
	fx := float64(x)
	h := 360 + 40*gomath.Sin(fx/97) + 15*gomath.Sin(fx/23)
	return int(h)
}

func (g *TestGame) Initialize() error {
	core.LogDebug("TestGame Initialize fn....")

	if g.SystemManager == nil {
		return fmt.Errorf("the engine is not yet initialized with all the system managers ")
	}
	state := g.State.(*gameState)
	sm := g.SystemManager

	world := sm.SceneSystem.World()
	world.Clear(skyColor)
	for x := 0; x < worldWidth; x++ {
		top := groundLevel(x)
		world.DrawRectangle(x, top, 1, worldHeight-top, groundColor, true)
		world.DrawRectangle(x, top, 1, 3, grassColor, true)
	}

	config := g.ApplicationConfig
	sm.ActivitySystem.StartActivity(systems.GameActivityConfig{
		Name:        "testbed",
		PlayerTeams: []int{0, 1, 0, 1},
		HSplit:      config.HSplit,
		VSplit:      config.VSplit,
	})

	screens := sm.FrameSystem.ScreenCount()
	state.players = make([]*player, screens)
	for i := range state.players {
		x := float32(worldWidth / screens * i)
		p := &player{
			position:  math.NewVector(x, float32(groundLevel(int(x))-4)),
			direction: 1,
		}
		if i%2 == 1 {
			p.direction = -1
		}
		state.players[i] = p
		sm.SceneSystem.JumpCameraTo(i, p.position)
		sm.FrameSystem.SetScreenText(fmt.Sprintf("PLAYER %d", i+1), i, 250, 3000, true)
	}
	sm.ConsoleSystem.PrintString("testbed ready: SPACE flashes, F1-F4 scale, F11 fullscreen")
	return nil
}

func (g *TestGame) Update(deltaTime float64) error {
	state := g.State.(*gameState)
	sm := g.SystemManager
	state.frames++

	sm.PostProcessSystem.ClearScenePostEffects()
	activity := sm.ActivitySystem.GetRunningActivity()

	for i, p := range state.players {
		x := math.Wrap(p.position.X+p.direction*float32(walkSpeed*deltaTime), worldWidth)
		p.position = math.NewVector(x, float32(groundLevel(int(x))-4))
		sm.SceneSystem.SetCameraTarget(i, p.position)

		team := metadata.NoTeam
		if activity != nil {
			team = activity.TeamOfPlayer(activity.PlayerOfScreen(i))
		}
		sm.PostProcessSystem.RegisterPostEffect(p.position, "glow", 200, 0, team)
		px, py := p.position.FloorIntX(), p.position.FloorIntY()
		sm.PostProcessSystem.RegisterGlowArea(image.Rect(px-8, py-8, px+8, py+8))
	}

	if g.Input != nil && g.Input.IsKeyDown(core.KEY_SPACE) && !g.Input.WasKeyDown(core.KEY_SPACE) {
		for i := range state.players {
			sm.FrameSystem.FlashScreen(i, flashColor, 200)
		}
		sm.FrameSystem.SetScreenText("BOOM", 0, 0, 1000, true)
	}

	if state.frames%300 == 0 {
		core.LogDebug("FPS: %5.1f (%4.1fms) frames: %d", sm.PerformanceSystem.FramesPerSecond(), sm.PerformanceSystem.FrameTime(), sm.PerformanceSystem.Frames())
	}
	return nil
}

// Render digs a small hole under every player.
func (g *TestGame) Render(r *renderer.Renderer, deltaTime float64) error {
	state := g.State.(*gameState)
	scene := g.SystemManager.SceneSystem
	world := scene.World()

	for _, p := range state.players {
		cx, cy := p.position.FloorIntX(), p.position.FloorIntY()+4
		for y := cy - digRadius; y <= cy+digRadius; y++ {
			for x := cx - digRadius; x <= cx+digRadius; x++ {
				wx := math.Mod(x, worldWidth)
				if y < 0 || y >= worldHeight || world.GetPixel(wx, y) == skyColor {
					continue
				}
				world.SetPixel(wx, y, skyColor)
				scene.RevealPixel(wx, y)
			}
		}
	}
	return nil
}

func (g *TestGame) OnResize(width uint32, height uint32) error {
	state := g.State.(*gameState)

	state.width = width
	state.height = height
	return nil
}

func (g *TestGame) Shutdown() error {
	if g.SystemManager != nil {
		g.SystemManager.ActivitySystem.EndActivity()
	}
	return nil
}
