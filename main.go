// terra runs the frame composition demo.
//
// Usage:
//
//	terra [flags]
//
// Flags:
//
//	--config <path>      - Settings file (default: settings.toml in the user config dir)
//	--backend <name>     - software, sdl or headless (default: from settings)
//	--frames <n>         - Quit after n frames (0 = run until closed)
//	--fps <rate>         - Frame rate cap (0 = uncapped)
//	--split <layout>     - none, h, v or both
//	--log-level <level>  - debug, info, warn or error
package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/spaghettifunk/terra/engine"
	"github.com/spaghettifunk/terra/engine/core"
	"github.com/spaghettifunk/terra/testbed"
)

var (
	flagConfig   string
	flagBackend  string
	flagFrames   int
	flagFPS      int
	flagSplit    string
	flagLogLevel string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "terra",
	Short: "Terra - split screen frame composition demo",
	Long: `Terra draws a wrapping destructible world on up to four split screens.

Controls:
  Space   - Flash every screen
  F1-F4   - Resolution multiplier
  F11     - Toggle fullscreen
  ~       - Console
  Esc     - Quit

Examples:
  terra
  terra --split both
  terra --backend headless --frames 120`,
	Args: cobra.NoArgs,
	RunE: run,
}

func init() {
	rootCmd.Flags().StringVar(&flagConfig, "config", "", "Path to the settings file")
	rootCmd.Flags().StringVar(&flagBackend, "backend", "", "Renderer backend: software, sdl or headless")
	rootCmd.Flags().IntVar(&flagFrames, "frames", 0, "Quit after this many frames (0 = never)")
	rootCmd.Flags().IntVar(&flagFPS, "fps", 60, "Frame rate cap (0 = uncapped)")
	rootCmd.Flags().StringVar(&flagSplit, "split", "h", "Split screen layout: none, h, v or both")
	rootCmd.Flags().StringVar(&flagLogLevel, "log-level", "info", "Log level: debug, info, warn or error")
}

func parseSplit(split string) (bool, bool, error) {
	switch split {
	case "none":
		return false, false, nil
	case "h":
		return true, false, nil
	case "v":
		return false, true, nil
	case "both":
		return true, true, nil
	}
	return false, false, fmt.Errorf("unknown split layout %q", split)
}

func run(cmd *cobra.Command, args []string) error {
	hSplit, vSplit, err := parseSplit(flagSplit)
	if err != nil {
		return err
	}

	tb, err := testbed.NewTestGame(&engine.ApplicationConfig{
		StartPosX:    100,
		StartPosY:    100,
		Name:         "Terra",
		LogLevel:     core.ParseLogLevel(flagLogLevel),
		SettingsPath: flagConfig,
		Backend:      flagBackend,
		FrameLimit:   flagFrames,
		TargetFPS:    flagFPS,
		HSplit:       hSplit,
		VSplit:       vSplit,
	})
	if err != nil {
		return err
	}

	e, err := engine.New(tb.Game)
	if err != nil {
		return err
	}
	if err := e.Initialize(); err != nil {
		_ = e.Shutdown()
		return err
	}

	// signal channel to capture system calls
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT, syscall.SIGQUIT)
	defer signal.Stop(sigCh)

	go func() {
		if _, ok := <-sigCh; ok {
			e.Stop()
		}
	}()

	runErr := e.Run()
	if err := e.Shutdown(); err != nil {
		core.LogError("shutdown failed: %s", err)
	}
	return runErr
}
