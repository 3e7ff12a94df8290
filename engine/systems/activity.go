package systems

import (
	"github.com/spaghettifunk/terra/engine/core"
	"github.com/spaghettifunk/terra/engine/renderer/metadata"
)

type GameActivityConfig struct {
	Name string
	// Team of each player, indexed by player.
	PlayerTeams []int
	// Player watching each screen, indexed by screen. Screens not listed
	// are watched by the player with the same index.
	ScreenPlayers []int
	HSplit        bool
	VSplit        bool
}

// GameActivity is a running game session.
type GameActivity struct {
	config *GameActivityConfig
}

func (a *GameActivity) Name() string {
	return a.config.Name
}

// TeamOfPlayer returns metadata.NoTeam for unknown players.
func (a *GameActivity) TeamOfPlayer(player int) int {
	if player < 0 || player >= len(a.config.PlayerTeams) {
		return metadata.NoTeam
	}
	return a.config.PlayerTeams[player]
}

func (a *GameActivity) PlayerOfScreen(screen int) int {
	if screen >= 0 && screen < len(a.config.ScreenPlayers) {
		return a.config.ScreenPlayers[screen]
	}
	return screen
}

// SplitLayout is the split the activity asks the frame system for.
type SplitLayout interface {
	ResetSplitScreens(hSplit, vSplit bool)
}

// ActivitySystem owns the running activity, if any.
type ActivitySystem struct {
	running *GameActivity
	layout  SplitLayout
}

func NewActivitySystem() *ActivitySystem {
	return &ActivitySystem{}
}

// SetLayout attaches the frame system so starting and ending activities
// reconfigures split screen.
func (as *ActivitySystem) SetLayout(layout SplitLayout) {
	as.layout = layout
}

// StartActivity ends the running activity, if any, and starts a new one.
func (as *ActivitySystem) StartActivity(config GameActivityConfig) *GameActivity {
	if as.running != nil {
		as.EndActivity()
	}
	as.running = &GameActivity{config: &config}
	if as.layout != nil {
		as.layout.ResetSplitScreens(config.HSplit, config.VSplit)
	}
	core.LogInfo("activity %q started", config.Name)
	return as.running
}

// GetRunningActivity returns nil when nothing is running.
func (as *ActivitySystem) GetRunningActivity() Activity {
	if as.running == nil {
		return nil
	}
	return as.running
}

func (as *ActivitySystem) IsInActivity() bool {
	return as.running != nil
}

func (as *ActivitySystem) EndActivity() {
	if as.running == nil {
		return
	}
	core.LogInfo("activity %q ended", as.running.config.Name)
	as.running = nil
	if as.layout != nil {
		as.layout.ResetSplitScreens(false, false)
	}
}
