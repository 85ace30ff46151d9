package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/vovakirdan/blockfall/internal/config"
	"github.com/vovakirdan/blockfall/internal/platform/tui"
	"github.com/vovakirdan/blockfall/internal/replay"
	"github.com/vovakirdan/blockfall/internal/storage"
)

var (
	flagSpeed    float64
	flagMaxTicks int64
)

var replayCmd = &cobra.Command{
	Use:   "replay <file|id>",
	Short: "Watch a recorded game",
	Long: `Play back a recording in the terminal.

The argument is either a replay file (.yaml, .yml or .json) or the ID of
a replay saved in the database (see 'blockfall scores').

Controls:
  P/Esc     - Pause/resume playback
  Q/Ctrl+C  - Quit

Examples:
  blockfall replay ./replays/game.yaml
  blockfall replay 0b9f1c2e-3d4a-4c5b-9e6f-7a8b9c0d1e2f --speed 2`,
	Args: cobra.ExactArgs(1),
	RunE: runReplay,
}

var verifyCmd = &cobra.Command{
	Use:   "verify <file|id>",
	Short: "Check that a recording replays deterministically",
	Long: `Replay a recording twice in lock-step, once through the playback
driver and once by driving an engine directly, and compare the snapshot
checksums tick by tick. Exits non-zero on the first divergence.

Examples:
  blockfall verify ./replays/game.yaml
  blockfall verify ./replays/game.yaml --max-ticks 100000`,
	Args: cobra.ExactArgs(1),
	RunE: runVerify,
}

func init() {
	replayCmd.Flags().Float64Var(&flagSpeed, "speed", 1, "Playback speed multiplier")
	verifyCmd.Flags().Int64Var(&flagMaxTicks, "max-ticks", 0, "Stop after this many ticks (0 = run to game over)")
}

// loadRecording reads arg as a file when it exists, otherwise as a stored
// replay ID.
func loadRecording(arg string, cfg config.Config, logger *log.Logger) (*replay.Data, error) {
	if _, err := os.Stat(arg); err == nil {
		return replay.Load(arg)
	}

	store, err := storage.Open(cfg.Storage.DB)
	if err != nil {
		return nil, fmt.Errorf("%s is not a file and the database is unavailable: %w", arg, err)
	}
	defer store.Close()

	d, err := store.LoadReplay(arg)
	if err != nil {
		return nil, err
	}
	if d == nil {
		return nil, fmt.Errorf("no replay file or stored replay named %q", arg)
	}
	logger.Debug("loaded stored replay", "id", arg, "inputs", len(d.Inputs))
	return d, nil
}

func runReplay(_ *cobra.Command, args []string) error {
	logger, err := newLogger("replay")
	if err != nil {
		return err
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if flagSpeed <= 0 {
		return errors.New("--speed must be positive")
	}
	if err := checkTerminal(); err != nil {
		return err
	}

	d, err := loadRecording(args[0], cfg, logger)
	if err != nil {
		return err
	}
	return watchReplay(d, "REPLAY")
}

// watchReplay plays d in the terminal until the user quits.
func watchReplay(d *replay.Data, title string) error {
	frame := time.Duration(float64(time.Second/60) / flagSpeedOrOne())
	player := replay.NewPlayer(d, frame)

	src := tui.NewReplaySource(context.Background(), player, nil)
	defer src.Close()

	settings := d.StartSettings()
	return tui.Run(src, tui.Options{
		Settings: &settings,
		Seed:     d.InitialSeed,
		ReadOnly: true,
		Title:    title,
	})
}

func flagSpeedOrOne() float64 {
	if flagSpeed <= 0 {
		return 1
	}
	return flagSpeed
}

func runVerify(_ *cobra.Command, args []string) error {
	logger, err := newLogger("verify")
	if err != nil {
		return err
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	d, err := loadRecording(args[0], cfg, logger)
	if err != nil {
		return err
	}

	res, err := replay.Verify(d, flagMaxTicks)
	if err != nil {
		return err
	}

	fmt.Printf("Seed:      %d\n", d.InitialSeed)
	fmt.Printf("Inputs:    %d\n", len(d.Inputs))
	fmt.Printf("Ticks:     %d\n", res.Ticks)
	fmt.Printf("Score:     %d\n", res.Score)
	fmt.Printf("Lines:     %d\n", res.Lines)
	fmt.Printf("Game over: %v\n", res.GameOver)
	fmt.Printf("Checksum:  %d\n", res.FinalChecksum)
	fmt.Println("OK: replay is deterministic")
	return nil
}
